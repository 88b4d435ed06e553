package directoryservice

import (
	"encoding/base64"
	"errors"
	"io"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	castorev1 "tvix.dev/store-engine/castore"
)

var _ castorev1.DirectoryServiceServer = &GRPCServer{}

// GRPCServer exposes a MemoryStore as a castorev1.DirectoryServiceServer.
type GRPCServer struct {
	castorev1.UnimplementedDirectoryServiceServer

	store *MemoryStore
}

func NewGRPCServer(store *MemoryStore) *GRPCServer {
	return &GRPCServer{store: store}
}

// Get sends the Directory with the requested digest. With Recursive
// set, it walks the whole referenced subgraph breadth-first, then
// streams it leaves-first: every Directory goes out after all the
// Directories it references, so the client can verify connectivity on
// the fly, and each Directory is sent exactly once however many parents
// reach it.
func (s *GRPCServer) Get(rq *castorev1.GetDirectoryRequest, stream castorev1.DirectoryService_GetServer) error {
	digest := rq.GetDigest()
	if len(digest) != 32 {
		return status.Errorf(codes.InvalidArgument, "invalid digest length: %d", len(digest))
	}

	rootDirectory, err := s.store.Get(digest)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return status.Errorf(codes.NotFound, "directory %s not found", base64.StdEncoding.EncodeToString(digest))
		}
		return status.Errorf(codes.Internal, "unable to get directory: %v", err)
	}

	if !rq.Recursive {
		return stream.Send(rootDirectory)
	}

	// Collect the closure in BFS order from the root, deduplicating on
	// digest. A shared child is recorded at its first occurrence only.
	type closureItem struct {
		digest    []byte
		directory *castorev1.Directory
	}

	seen := map[string]struct{}{
		base64.StdEncoding.EncodeToString(digest): {},
	}
	closure := []closureItem{{digest: digest, directory: rootDirectory}}

	for i := 0; i < len(closure); i++ {
		for _, childNode := range closure[i].directory.GetDirectories() {
			key := base64.StdEncoding.EncodeToString(childNode.GetDigest())
			if _, found := seen[key]; found {
				continue
			}
			seen[key] = struct{}{}

			childDirectory, err := s.store.Get(childNode.GetDigest())
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return status.Errorf(codes.NotFound, "directory %s not found", key)
				}
				return status.Errorf(codes.Internal, "unable to get directory: %v", err)
			}
			closure = append(closure, closureItem{digest: childNode.GetDigest(), directory: childDirectory})
		}
	}

	// Emit in reverse BFS order, leaves before the parents referencing
	// them, mirroring the ordering Put requires on the way in.
	for i := len(closure) - 1; i >= 0; i-- {
		if err := stream.Send(closure[i].directory); err != nil {
			return err
		}
	}

	return nil
}

// Put receives a stream of Directory messages, children before the
// parents referencing them. Each message is validated and checked for
// dangling references against what arrived earlier in the same stream
// (or is already stored). Nothing becomes visible until the stream
// closes successfully, at which point the whole batch is committed and
// the digest of the last-received Directory returned as root.
func (s *GRPCServer) Put(stream castorev1.DirectoryService_PutServer) error {
	// directories seen in this stream so far, keyed by digest.
	received := make(map[string]*castorev1.Directory)
	var lastDigest []byte

	for {
		directory, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return status.Errorf(codes.Internal, "unable to receive directory: %v", err)
		}

		if err := directory.Validate(); err != nil {
			return status.Errorf(codes.InvalidArgument, "directory failed validation: %v", err)
		}

		// every child directory reference must resolve to a Directory
		// that appeared earlier in this stream, or already exists.
		for i, childNode := range directory.GetDirectories() {
			key := base64.StdEncoding.EncodeToString(childNode.GetDigest())
			if _, found := received[key]; found {
				continue
			}
			if s.store.Has(childNode.GetDigest()) {
				continue
			}
			return status.Errorf(codes.InvalidArgument, "directory entry %d refers to unknown directory %s", i, key)
		}

		digest, err := directory.Digest()
		if err != nil {
			return status.Errorf(codes.Internal, "unable to calculate directory digest: %v", err)
		}

		received[base64.StdEncoding.EncodeToString(digest)] = directory
		lastDigest = digest
	}

	if len(lastDigest) == 0 {
		return status.Error(codes.InvalidArgument, "no directories received")
	}

	// commit the whole batch at once.
	s.store.putAll(received)

	log.WithFields(log.Fields{
		"root_digest":     base64.StdEncoding.EncodeToString(lastDigest),
		"num_directories": len(received),
	}).Debug("persisted directories")

	return stream.SendAndClose(&castorev1.PutDirectoryResponse{
		RootDigest: lastDigest,
	})
}
