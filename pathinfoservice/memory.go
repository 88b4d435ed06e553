// Package pathinfoservice provides implementations of the
// PathInfoService contract: an in-memory reference store with on-demand
// NAR materialization, and an implementation backed by a classical Nix
// HTTP binary cache (substituter-as-backend mode).
package pathinfoservice

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/nix-community/go-nix/pkg/storepath"

	"tvix.dev/store-engine/blobservice"
	castorev1 "tvix.dev/store-engine/castore"
	"tvix.dev/store-engine/directoryservice"
	"tvix.dev/store-engine/nar"
	storev1 "tvix.dev/store-engine/store"
)

// DirectoryGetter resolves a Directory by digest. Satisfied by
// directoryservice.MemoryStore.
type DirectoryGetter interface {
	Get(digest []byte) (*castorev1.Directory, error)
}

// BlobOpener resolves a blob's contents by digest. Satisfied by
// blobservice.MemoryStore.
type BlobOpener interface {
	Open(digest []byte) (io.ReadCloser, error)
}

var _ storev1.PathInfoServiceServer = &MemoryServer{}

// MemoryServer is the in-memory reference implementation of
// storev1.PathInfoServiceServer, keyed by the 20-byte output hash.
// CalculateNAR renders the NAR into a hash-only sink using the passed
// directory and blob backends, memoizing per root node.
type MemoryServer struct {
	storev1.UnimplementedPathInfoServiceServer

	mu        sync.RWMutex
	pathInfos map[string]*storev1.PathInfo

	directories DirectoryGetter
	blobs       BlobOpener

	// memoized CalculateNAR results, keyed by root node identity.
	narCalcCache sync.Map
}

func NewMemoryServer(directories DirectoryGetter, blobs BlobOpener) *MemoryServer {
	return &MemoryServer{
		pathInfos:   make(map[string]*storev1.PathInfo),
		directories: directories,
		blobs:       blobs,
	}
}

func (s *MemoryServer) Get(ctx context.Context, rq *storev1.GetPathInfoRequest) (*storev1.PathInfo, error) {
	outputHash := rq.GetByOutputHash()
	if len(outputHash) != storepath.PathHashSize {
		return nil, status.Errorf(codes.InvalidArgument, "invalid output hash length: %d", len(outputHash))
	}

	s.mu.RLock()
	pathInfo, found := s.pathInfos[base64.StdEncoding.EncodeToString(outputHash)]
	s.mu.RUnlock()

	if !found {
		return nil, status.Errorf(codes.NotFound, "pathinfo for output hash %s not found", base64.StdEncoding.EncodeToString(outputHash))
	}

	return pathInfo, nil
}

func (s *MemoryServer) Put(ctx context.Context, pathInfo *storev1.PathInfo) (*storev1.PathInfo, error) {
	storePath, err := pathInfo.Validate()
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "pathinfo failed validation: %v", err)
	}

	s.mu.Lock()
	s.pathInfos[base64.StdEncoding.EncodeToString(storePath.Digest)] = pathInfo
	s.mu.Unlock()

	log.WithField("store_path", storePath.String()).Debug("persisted pathinfo")

	// The stored copy is canonical; a server adding its own signatures
	// would do so here, before returning.
	return pathInfo, nil
}

func (s *MemoryServer) CalculateNAR(ctx context.Context, node *castorev1.Node) (*storev1.CalculateNARResponse, error) {
	if err := node.Validate(); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "node failed validation: %v", err)
	}

	cacheKey := narCalcCacheKey(node)
	if cached, found := s.narCalcCache.Load(cacheKey); found {
		return cached.(*storev1.CalculateNARResponse), nil
	}

	// Render the NAR into a hash-only sink.
	h := sha256.New()
	countW := &nar.CountingWriter{}

	err := nar.Export(
		io.MultiWriter(h, countW),
		node,
		func(directoryDigest []byte) (*castorev1.Directory, error) {
			return s.directories.Get(directoryDigest)
		},
		func(blobDigest []byte) (io.ReadCloser, error) {
			return s.blobs.Open(blobDigest)
		},
	)
	if err != nil {
		if errors.Is(err, directoryservice.ErrNotFound) || errors.Is(err, blobservice.ErrNotFound) {
			return nil, status.Errorf(codes.FailedPrecondition, "missing content while rendering NAR: %v", err)
		}
		return nil, status.Errorf(codes.Internal, "unable to render NAR: %v", err)
	}

	resp := &storev1.CalculateNARResponse{
		NarSize:   countW.BytesWritten(),
		NarSha256: h.Sum(nil),
	}
	s.narCalcCache.Store(cacheKey, resp)

	return resp, nil
}

func (s *MemoryServer) List(rq *storev1.ListPathInfoRequest, stream storev1.PathInfoService_ListServer) error {
	s.mu.RLock()
	pathInfos := make([]*storev1.PathInfo, 0, len(s.pathInfos))
	for _, pathInfo := range s.pathInfos {
		pathInfos = append(pathInfos, pathInfo)
	}
	s.mu.RUnlock()

	for _, pathInfo := range pathInfos {
		if err := stream.Send(pathInfo); err != nil {
			return err
		}
	}

	return nil
}

// narCalcCacheKey derives the memoization key for CalculateNAR from the
// root node: the content digest for directories and files, the target
// for symlinks. The node's name is irrelevant to the rendered NAR and
// deliberately not part of the key.
func narCalcCacheKey(node *castorev1.Node) string {
	switch {
	case node.GetDirectory() != nil:
		return "d:" + base64.StdEncoding.EncodeToString(node.GetDirectory().GetDigest())
	case node.GetFile() != nil:
		return fmt.Sprintf("f:%v:%s", node.GetFile().GetExecutable(), base64.StdEncoding.EncodeToString(node.GetFile().GetDigest()))
	case node.GetSymlink() != nil:
		return "s:" + string(node.GetSymlink().GetTarget())
	default:
		panic("unreachable") // Validate() rejected this already
	}
}
