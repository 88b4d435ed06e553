package blobservice

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	castorev1 "tvix.dev/store-engine/castore"
)

// ErrNotFound is returned (wrapped) by MemoryStore lookups for absent
// digests, and translated to codes.NotFound at the gRPC boundary.
var ErrNotFound = errors.New("blob not found")

// the frame size used when streaming blob contents back to clients.
const readChunkSize = 1024 * 1024

var _ castorev1.BlobServiceServer = &GRPCServer{}

// GRPCServer exposes a MemoryStore as a castorev1.BlobServiceServer.
type GRPCServer struct {
	castorev1.UnimplementedBlobServiceServer

	store *MemoryStore
}

func NewGRPCServer(store *MemoryStore) *GRPCServer {
	return &GRPCServer{store: store}
}

func (s *GRPCServer) Stat(ctx context.Context, rq *castorev1.StatBlobRequest) (*castorev1.StatBlobResponse, error) {
	if len(rq.GetDigest()) != 32 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid digest length: %d", len(rq.GetDigest()))
	}

	chunks, found := s.store.Chunks(rq.GetDigest())
	if !found {
		return nil, status.Errorf(codes.NotFound, "blob %s not found", base64.StdEncoding.EncodeToString(rq.GetDigest()))
	}

	resp := &castorev1.StatBlobResponse{}
	// An empty chunk list means "read the whole blob via Read"; we also
	// leave it empty when the caller didn't ask for chunks.
	if rq.IncludeChunks {
		resp.Chunks = chunks
	}

	return resp, nil
}

func (s *GRPCServer) Read(rq *castorev1.ReadBlobRequest, stream castorev1.BlobService_ReadServer) error {
	if len(rq.GetDigest()) != 32 {
		return status.Errorf(codes.InvalidArgument, "invalid digest length: %d", len(rq.GetDigest()))
	}

	blobReader, err := s.store.Open(rq.GetDigest())
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return status.Errorf(codes.NotFound, "blob %s not found", base64.StdEncoding.EncodeToString(rq.GetDigest()))
		}
		return status.Errorf(codes.Internal, "unable to open blob: %v", err)
	}
	defer blobReader.Close()

	chunk := make([]byte, readChunkSize)
	for {
		n, err := blobReader.Read(chunk)
		if n != 0 {
			if err := stream.Send(&castorev1.BlobChunk{
				Data: chunk[:n],
			}); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return status.Errorf(codes.Internal, "unable to read blob: %v", err)
		}
	}
}

func (s *GRPCServer) Put(stream castorev1.BlobService_PutServer) error {
	// Assemble the blob from the incoming chunk stream. The client's
	// framing carries no meaning, only the byte order does.
	var blobContents bytes.Buffer

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return status.Errorf(codes.Internal, "unable to receive chunk: %v", err)
		}

		if _, err := blobContents.Write(chunk.GetData()); err != nil {
			return status.Errorf(codes.Internal, "unable to buffer chunk: %v", err)
		}
	}

	digest, err := s.store.Put(&blobContents)
	if err != nil {
		return status.Errorf(codes.Internal, "unable to persist blob: %v", err)
	}

	log.WithField("blob_digest", base64.StdEncoding.EncodeToString(digest)).Debug("persisted blob")

	return stream.SendAndClose(&castorev1.PutBlobResponse{
		Digest: digest,
	})
}
