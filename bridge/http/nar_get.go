package http

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	castorev1 "tvix.dev/store-engine/castore"
	"tvix.dev/store-engine/nar"
)

// handleNarGet serves nar/$narhash.nar from the lookup table filled by
// NAR uploads and narinfo lookups. A miss is a plain 404; clients are
// expected to fetch the .narinfo first, which fills the table.
func (s *Server) handleNarGet(headOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		ctx := r.Context()

		narHash, err := parseNarHashFromUrl(chi.URLParamFromCtx(ctx, "narhash"))
		if err != nil {
			log := log.WithField("url", r.URL)
			log.WithError(err).Error("unable to decode nar hash from url")
			writeError(w, log, http.StatusBadRequest, "unable to decode nar hash from url")
			return
		}

		log := log.WithField("narhash_url", narHash.SRIString())

		rootNode, _, found := s.lookupRoot(narHash.SRIString())
		if !found {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if headOnly {
			return
		}

		if err := s.streamNar(ctx, w, rootNode); err != nil {
			log.WithError(err).Warn("unable to render nar")
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
}

// streamNar drives the exporter against the gRPC backends: the
// directory closure is prefetched in one recursive Get, blob contents
// are streamed on demand.
func (s *Server) streamNar(ctx context.Context, w io.Writer, rootNode *castorev1.Node) error {
	directories, err := s.fetchDirectoryClosure(ctx, rootNode)
	if err != nil {
		return err
	}

	return nar.Export(
		w,
		rootNode,
		func(directoryDigest []byte) (*castorev1.Directory, error) {
			directory, found := directories[hex.EncodeToString(directoryDigest)]
			if !found {
				return nil, fmt.Errorf("directory %s not in prefetched closure", hex.EncodeToString(directoryDigest))
			}
			return directory, nil
		},
		func(blobDigest []byte) (io.ReadCloser, error) {
			return s.openBlob(ctx, blobDigest)
		},
	)
}

// fetchDirectoryClosure asks the directory service for everything
// reachable from the root node's directory, if it has one. Only
// messages that validate and hash correctly enter the returned table,
// keyed by their recomputed digest.
func (s *Server) fetchDirectoryClosure(ctx context.Context, rootNode *castorev1.Node) (map[string]*castorev1.Directory, error) {
	directoryNode := rootNode.GetDirectory()
	if directoryNode == nil {
		return nil, nil
	}

	stream, err := s.directoryServiceClient.Get(ctx, &castorev1.GetDirectoryRequest{
		ByWhat: &castorev1.GetDirectoryRequest_Digest{
			Digest: directoryNode.GetDigest(),
		},
		Recursive: true,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting directory closure: %w", err)
	}

	directories := make(map[string]*castorev1.Directory)
	for {
		directory, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return directories, nil
		}
		if err != nil {
			return nil, fmt.Errorf("receiving directory: %w", err)
		}

		if err := directory.Validate(); err != nil {
			return nil, fmt.Errorf("received invalid directory: %w", err)
		}
		digest, err := directory.Digest()
		if err != nil {
			return nil, fmt.Errorf("calculating directory digest: %w", err)
		}

		directories[hex.EncodeToString(digest)] = directory
	}
}

// openBlob adapts the chunked Read stream into the io.ReadCloser the
// exporter wants.
func (s *Server) openBlob(ctx context.Context, blobDigest []byte) (io.ReadCloser, error) {
	stream, err := s.blobServiceClient.Read(ctx, &castorev1.ReadBlobRequest{
		Digest: blobDigest,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting blob: %w", err)
	}

	pR, pW := io.Pipe()
	go func() {
		for {
			chunk, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				pW.Close()
				return
			}
			if err != nil {
				pW.CloseWithError(fmt.Errorf("receiving chunk: %w", err))
				return
			}
			if _, err := pW.Write(chunk.GetData()); err != nil {
				pW.CloseWithError(err)
				return
			}
		}
	}()

	return pR, nil
}
