package blobservice_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"lukechampine.com/blake3"

	"tvix.dev/store-engine/blobservice"
	castorev1 "tvix.dev/store-engine/castore"
)

// fakePutStream feeds a fixed list of chunks into BlobService.Put and
// captures the response.
type fakePutStream struct {
	grpc.ServerStream

	chunks [][]byte
	resp   *castorev1.PutBlobResponse
}

func (s *fakePutStream) Recv() (*castorev1.BlobChunk, error) {
	if len(s.chunks) == 0 {
		return nil, io.EOF
	}
	chunk := s.chunks[0]
	s.chunks = s.chunks[1:]
	return &castorev1.BlobChunk{Data: chunk}, nil
}

func (s *fakePutStream) SendAndClose(resp *castorev1.PutBlobResponse) error {
	s.resp = resp
	return nil
}

// fakeReadStream collects the chunks BlobService.Read sends.
type fakeReadStream struct {
	grpc.ServerStream

	buf bytes.Buffer
}

func (s *fakeReadStream) Send(chunk *castorev1.BlobChunk) error {
	s.buf.Write(chunk.GetData())
	return nil
}

func putBlob(t *testing.T, srv *blobservice.GRPCServer, chunks [][]byte) []byte {
	t.Helper()
	stream := &fakePutStream{chunks: chunks}
	require.NoError(t, srv.Put(stream))
	require.NotNil(t, stream.resp)
	return stream.resp.GetDigest()
}

func mustBlake3(contents []byte) []byte {
	h := blake3.New(32, nil)
	h.Write(contents)
	return h.Sum(nil)
}

func TestPutAndRead(t *testing.T) {
	srv := blobservice.NewGRPCServer(blobservice.NewMemoryStore(0))

	contents := []byte("hello blob world")

	// the chunking used during upload must not matter.
	digest := putBlob(t, srv, [][]byte{contents[:5], contents[5:]})
	assert.Equal(t, mustBlake3(contents), digest)

	stream := &fakeReadStream{}
	require.NoError(t, srv.Read(&castorev1.ReadBlobRequest{Digest: digest}, stream))
	assert.Equal(t, contents, stream.buf.Bytes())
}

func TestPutIdempotent(t *testing.T) {
	srv := blobservice.NewGRPCServer(blobservice.NewMemoryStore(0))

	contents := []byte("some contents")

	digest1 := putBlob(t, srv, [][]byte{contents})
	digest2 := putBlob(t, srv, [][]byte{contents})
	assert.Equal(t, digest1, digest2)
}

func TestReadNotFound(t *testing.T) {
	srv := blobservice.NewGRPCServer(blobservice.NewMemoryStore(0))

	err := srv.Read(&castorev1.ReadBlobRequest{Digest: make([]byte, 32)}, &fakeReadStream{})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestStat(t *testing.T) {
	t.Run("invalid digest", func(t *testing.T) {
		srv := blobservice.NewGRPCServer(blobservice.NewMemoryStore(0))

		_, err := srv.Stat(context.Background(), &castorev1.StatBlobRequest{Digest: []byte{0x01}})
		require.Error(t, err)
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("not found", func(t *testing.T) {
		srv := blobservice.NewGRPCServer(blobservice.NewMemoryStore(0))

		_, err := srv.Stat(context.Background(), &castorev1.StatBlobRequest{Digest: make([]byte, 32)})
		require.Error(t, err)
		assert.Equal(t, codes.NotFound, status.Code(err))
	})

	t.Run("unchunked", func(t *testing.T) {
		srv := blobservice.NewGRPCServer(blobservice.NewMemoryStore(0))

		digest := putBlob(t, srv, [][]byte{[]byte("small")})

		resp, err := srv.Stat(context.Background(), &castorev1.StatBlobRequest{Digest: digest, IncludeChunks: true})
		require.NoError(t, err)
		assert.Empty(t, resp.GetChunks())
	})

	t.Run("chunked", func(t *testing.T) {
		// a chunk size of 4 cuts the 10-byte blob into 3 chunks.
		srv := blobservice.NewGRPCServer(blobservice.NewMemoryStore(4))

		contents := []byte("0123456789")
		digest := putBlob(t, srv, [][]byte{contents})

		resp, err := srv.Stat(context.Background(), &castorev1.StatBlobRequest{Digest: digest, IncludeChunks: true})
		require.NoError(t, err)
		require.Len(t, resp.GetChunks(), 3)

		// concatenating the chunks must reproduce the blob, and each
		// chunk must be independently retrievable.
		var reassembled []byte
		for _, chunkMeta := range resp.GetChunks() {
			stream := &fakeReadStream{}
			require.NoError(t, srv.Read(&castorev1.ReadBlobRequest{Digest: chunkMeta.GetDigest()}, stream))
			assert.Equal(t, chunkMeta.GetSize(), uint64(stream.buf.Len()))
			reassembled = append(reassembled, stream.buf.Bytes()...)
		}
		assert.Equal(t, contents, reassembled)

		// chunks are not advertised unless asked for.
		resp, err = srv.Stat(context.Background(), &castorev1.StatBlobRequest{Digest: digest})
		require.NoError(t, err)
		assert.Empty(t, resp.GetChunks())

		// Read on the top-level digest still returns the full contents.
		stream := &fakeReadStream{}
		require.NoError(t, srv.Read(&castorev1.ReadBlobRequest{Digest: digest}, stream))
		assert.Equal(t, contents, stream.buf.Bytes())
	})
}
