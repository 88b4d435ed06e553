// Package directoryservice provides the reference implementation of
// the DirectoryService contract: an in-memory store of validated
// Directory messages keyed by digest, and a gRPC adapter exposing it as
// a castorev1.DirectoryServiceServer.
package directoryservice

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	castorev1 "tvix.dev/store-engine/castore"
)

// ErrNotFound is returned (wrapped) by MemoryStore lookups for absent
// digests, and translated to codes.NotFound at the gRPC boundary.
var ErrNotFound = errors.New("directory not found")

// MemoryStore keeps validated Directory messages in memory, keyed by
// their digest. Directories are immutable once stored; storing the same
// Directory twice is a no-op.
type MemoryStore struct {
	mu          sync.RWMutex
	directories map[string]*castorev1.Directory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		directories: make(map[string]*castorev1.Directory),
	}
}

// Get returns the Directory stored under digest, or an error wrapping
// ErrNotFound.
func (s *MemoryStore) Get(digest []byte) (*castorev1.Directory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	directory, found := s.directories[base64.StdEncoding.EncodeToString(digest)]
	if !found {
		return nil, fmt.Errorf("directory %s: %w", base64.StdEncoding.EncodeToString(digest), ErrNotFound)
	}
	return directory, nil
}

// Put validates directory, computes its digest and stores it. It
// returns the digest.
func (s *MemoryStore) Put(directory *castorev1.Directory) ([]byte, error) {
	if err := directory.Validate(); err != nil {
		return nil, fmt.Errorf("directory failed validation: %w", err)
	}

	digest, err := directory.Digest()
	if err != nil {
		return nil, fmt.Errorf("unable to calculate directory digest: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.directories[base64.StdEncoding.EncodeToString(digest)] = directory

	return digest, nil
}

// Has reports whether a Directory with the given digest is stored.
func (s *MemoryStore) Has(digest []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, found := s.directories[base64.StdEncoding.EncodeToString(digest)]
	return found
}

// putAll commits a batch of (digest, Directory) pairs in one critical
// section, giving the gRPC Put stream its all-or-nothing visibility.
func (s *MemoryStore) putAll(batch map[string]*castorev1.Directory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, directory := range batch {
		s.directories[key] = directory
	}
}
