// Package http implements the Nix HTTP binary-cache bridge: it
// translates the classical /nix-cache-info, $outhash.narinfo and
// nar/$narhash.nar surface into calls against the three gRPC services.
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nix-community/go-nix/pkg/nixbase32"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	castorev1 "tvix.dev/store-engine/castore"
	storev1 "tvix.dev/store-engine/store"
)

const (
	narUrl     = "/nar/{narhash:^([" + nixbase32.Alphabet + "]{52})$}.nar"
	narinfoUrl = "/{outputhash:^[" + nixbase32.Alphabet + "]{32}}.narinfo"
)

type Server struct {
	srv     *http.Server
	handler chi.Router

	directoryServiceClient castorev1.DirectoryServiceClient
	blobServiceClient      castorev1.BlobServiceClient
	pathInfoServiceClient  storev1.PathInfoServiceClient

	// When uploading NAR files to a HTTP binary cache, the .nar
	// files are uploaded before the .narinfo files.
	// We need *both* to be able to fully construct a PathInfo object.
	// Keep a in-memory map of narhash(es) (in SRI) to (unnamed) root node and nar
	// size.
	// This is necessary until we can ask a PathInfoService for a node with a given
	// narSha256.
	narDbMu sync.Mutex
	narDb   map[string]*narData
}

type narData struct {
	rootNode *castorev1.Node
	narSize  uint64
}

func New(
	directoryServiceClient castorev1.DirectoryServiceClient,
	blobServiceClient castorev1.BlobServiceClient,
	pathInfoServiceClient storev1.PathInfoServiceClient,
	enableAccessLog bool,
	priority int,
) *Server {
	r := chi.NewRouter()
	r.Use(func(h http.Handler) http.Handler {
		return otelhttp.NewHandler(h, "http.request")
	})

	if enableAccessLog {
		r.Use(middleware.Logger)
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte("nar-bridge"))
		if err != nil {
			log.Errorf("Unable to write response: %v", err)
		}
	})

	r.Get("/nix-cache-info", func(w http.ResponseWriter, r *http.Request) {
		_, err := w.Write([]byte(fmt.Sprintf("StoreDir: /nix/store\nWantMassQuery: 1\nPriority: %d\n", priority)))
		if err != nil {
			log.Errorf("Unable to write response: %v", err)
		}
	})

	s := &Server{
		handler:                r,
		directoryServiceClient: directoryServiceClient,
		blobServiceClient:      blobServiceClient,
		pathInfoServiceClient:  pathInfoServiceClient,
		narDb:                  make(map[string]*narData),
	}

	r.Get(narinfoUrl, s.handleNarinfoGet(false))
	r.Head(narinfoUrl, s.handleNarinfoGet(true))
	r.Put(narinfoUrl, s.handleNarinfoPut)

	r.Get(narUrl, s.handleNarGet(false))
	r.Head(narUrl, s.handleNarGet(true))
	r.Put(narUrl, s.handleNarPut)

	return s
}

// rememberRoot records the root node and NAR size behind a NAR hash (in
// SRI form), so a later request referring to the NAR alone can be
// served. Entries are written on NAR upload and on narinfo lookups.
func (s *Server) rememberRoot(narHashSRI string, rootNode *castorev1.Node, narSize uint64) {
	s.narDbMu.Lock()
	defer s.narDbMu.Unlock()
	s.narDb[narHashSRI] = &narData{rootNode: rootNode, narSize: narSize}
}

// lookupRoot returns the recorded root node and NAR size for a NAR
// hash, if this process has seen it.
func (s *Server) lookupRoot(narHashSRI string) (*castorev1.Node, uint64, bool) {
	s.narDbMu.Lock()
	defer s.narDbMu.Unlock()
	if data, found := s.narDb[narHashSRI]; found {
		return data.rootNode, data.narSize, true
	}
	return nil, 0, false
}

// Handler returns the underlying router, usable with httptest servers.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// ListenAndServe starts the webserver, and waits for it being closed or
// shutdown, after which it'll return ErrServerClosed.
func (s *Server) ListenAndServe(addr string) error {
	s.srv = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  500 * time.Second,
		WriteTimeout: 500 * time.Second,
		IdleTimeout:  500 * time.Second,
	}

	var listener net.Listener
	var err error

	// check addr. If it contains slashes, assume it's a unix domain socket.
	if strings.Contains(addr, "/") {
		listener, err = net.Listen("unix", addr)
	} else {
		listener, err = net.Listen("tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("unable to listen on %v: %w", addr, err)
	}

	return s.srv.Serve(listener)
}
