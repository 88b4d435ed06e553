// Package blobservice provides the reference implementation of the
// BlobService contract: an in-memory, content-addressed blob store, and
// a gRPC adapter exposing it as a castorev1.BlobServiceServer.
package blobservice

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"sync"

	"lukechampine.com/blake3"

	castorev1 "tvix.dev/store-engine/castore"
)

// MemoryStore keeps all blobs in memory, keyed by their BLAKE3 digest.
// Blobs larger than chunkSize are additionally cut into fixed-size
// chunks, each stored as an independently retrievable blob, with the
// chunk list kept for Stat responses.
//
// The zero chunkSize disables chunking.
type MemoryStore struct {
	mu sync.RWMutex
	// blob contents, keyed by base64-encoded digest.
	blobs map[string][]byte
	// chunk lists for blobs that were cut up, same key.
	chunks map[string][]*castorev1.ChunkMeta

	chunkSize int
}

// NewMemoryStore returns an empty MemoryStore cutting blobs into chunks
// of chunkSize bytes. Pass 0 to store every blob whole.
func NewMemoryStore(chunkSize int) *MemoryStore {
	return &MemoryStore{
		blobs:     make(map[string][]byte),
		chunks:    make(map[string][]*castorev1.ChunkMeta),
		chunkSize: chunkSize,
	}
}

// Has reports whether a blob (or chunk) with the given digest exists.
func (s *MemoryStore) Has(digest []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.blobs[base64.StdEncoding.EncodeToString(digest)]
	return found
}

// Chunks returns the chunk list recorded for a blob, or nil if the blob
// is stored whole (or is itself a chunk). The second return value
// reports whether the digest exists at all.
func (s *MemoryStore) Chunks(digest []byte) ([]*castorev1.ChunkMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := base64.StdEncoding.EncodeToString(digest)
	if _, found := s.blobs[key]; !found {
		return nil, false
	}
	return s.chunks[key], true
}

// Open returns a reader over the full contents of the blob with the
// given digest, or an error wrapping ErrNotFound.
func (s *MemoryStore) Open(digest []byte) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contents, found := s.blobs[base64.StdEncoding.EncodeToString(digest)]
	if !found {
		return nil, fmt.Errorf("blob %s: %w", base64.StdEncoding.EncodeToString(digest), ErrNotFound)
	}

	return io.NopCloser(bytes.NewReader(contents)), nil
}

// Put reads r to the end, persists the contents and returns their
// BLAKE3 digest. Storing the same contents twice is a no-op.
func (s *MemoryStore) Put(r io.Reader) ([]byte, error) {
	h := blake3.New(32, nil)

	contents, err := io.ReadAll(io.TeeReader(r, h))
	if err != nil {
		return nil, fmt.Errorf("unable to read blob contents: %w", err)
	}
	digest := h.Sum(nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := base64.StdEncoding.EncodeToString(digest)
	if _, found := s.blobs[key]; found {
		return digest, nil
	}

	s.blobs[key] = contents

	// cut larger blobs into chunks, each registered as its own blob.
	if s.chunkSize > 0 && len(contents) > s.chunkSize {
		var chunkMetas []*castorev1.ChunkMeta
		for start := 0; start < len(contents); start += s.chunkSize {
			end := start + s.chunkSize
			if end > len(contents) {
				end = len(contents)
			}
			chunk := contents[start:end]

			chunkH := blake3.New(32, nil)
			chunkH.Write(chunk)
			chunkDigest := chunkH.Sum(nil)

			chunkKey := base64.StdEncoding.EncodeToString(chunkDigest)
			if _, found := s.blobs[chunkKey]; !found {
				s.blobs[chunkKey] = chunk
			}

			chunkMetas = append(chunkMetas, &castorev1.ChunkMeta{
				Digest: chunkDigest,
				Size:   uint64(len(chunk)),
			})
		}
		s.chunks[key] = chunkMetas
	}

	return digest, nil
}
