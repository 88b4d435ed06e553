package http

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"

	"tvix.dev/store-engine/nar"
)

// handleNarPut streams an uploaded NAR through the importer, populating
// the blob and directory services, verifies the bytes hash to what the
// URL claims, and records the resulting root node for the .narinfo
// upload that follows.
func (s *Server) handleNarPut(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	ctx := r.Context()

	narHashFromUrl, err := parseNarHashFromUrl(chi.URLParamFromCtx(ctx, "narhash"))
	if err != nil {
		log := log.WithField("url", r.URL)
		log.WithError(err).Error("unable to decode nar hash from url")
		writeError(w, log, http.StatusBadRequest, "unable to decode nar hash from url")
		return
	}

	log := log.WithField("narhash_url", narHashFromUrl.SRIString())

	directoriesUploader := nar.NewDirectoriesUploader(ctx, s.directoryServiceClient)
	defer directoriesUploader.Done() //nolint:errcheck

	rootNode, narSize, narSha256, err := nar.Import(
		ctx,
		// buffer the body by 10MiB
		bufio.NewReaderSize(r.Body, 10*1024*1024),
		nar.GenBlobUploaderCb(ctx, s.blobServiceClient),
		directoriesUploader.Put,
	)
	if err != nil {
		log.WithError(err).Error("error during NAR import")
		writeError(w, log, http.StatusInternalServerError, fmt.Sprintf("error during NAR import: %v", err))
		return
	}

	// Closing the uploader flushes the directory closure. Its response
	// carries the root digest the backend computed, which must agree
	// with the importer's own; nil means the NAR contained no
	// directories at all.
	putResponse, err := directoriesUploader.Done()
	if err != nil {
		log.WithError(err).Error("error during directory upload")
		writeError(w, log, http.StatusBadRequest, "error during directory upload")
		return
	}
	if putResponse != nil && !bytes.Equal(rootNode.GetDirectory().GetDigest(), putResponse.GetRootDigest()) {
		log.WithFields(logrus.Fields{
			"root_digest_importer": base64.StdEncoding.EncodeToString(rootNode.GetDirectory().GetDigest()),
			"root_digest_backend":  base64.StdEncoding.EncodeToString(putResponse.GetRootDigest()),
		}).Error("returned root digest doesn't match what's calculated")
		writeError(w, log, http.StatusBadRequest, "error in root digest calculation")
		return
	}

	// the received bytes must hash to what the URL claims.
	if !bytes.Equal(narHashFromUrl.Digest(), narSha256) {
		log.WithFields(logrus.Fields{
			"narhash_received_sha256": base64.StdEncoding.EncodeToString(narSha256),
			"narsize":                 narSize,
		}).Error("received bytes don't match narhash from URL")
		writeError(w, log, http.StatusBadRequest, "received bytes don't match narHash specified in URL")
		return
	}

	// Record the root node, so the .narinfo upload following right
	// after can refer to it. Re-uploading the same NAR replaces the
	// entry with identical contents.
	s.rememberRoot(narHashFromUrl.SRIString(), rootNode, narSize)
}
