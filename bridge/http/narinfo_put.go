package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nix-community/go-nix/pkg/narinfo"
	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"

	"tvix.dev/store-engine/nar"
)

// handleNarinfoPut accepts a .narinfo upload, pairs it with the root
// node recorded when the referred NAR file came in, and persists the
// assembled PathInfo.
func (s *Server) handleNarinfoPut(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	ctx := r.Context()
	log := log.WithField("outputhash", chi.URLParamFromCtx(ctx, "outputhash"))

	narInfo, err := narinfo.Parse(r.Body)
	if err != nil {
		log.WithError(err).Error("unable to parse narinfo")
		writeError(w, log, http.StatusBadRequest, "unable to parse narinfo")
		return
	}

	log = log.WithFields(logrus.Fields{
		"narhash":     narInfo.NarHash.SRIString(),
		"output_path": narInfo.StorePath,
	})

	// the NAR this narinfo describes must have passed through this
	// process earlier, either uploaded or served.
	rootNode, narSize, found := s.lookupRoot(narInfo.NarHash.SRIString())
	if !found {
		log.Error("unable to find referred NAR")
		writeError(w, log, http.StatusBadRequest, "unable to find referred NAR")
		return
	}

	if narSize != narInfo.NarSize {
		log.Error("narsize mismatch")
		writeError(w, log, http.StatusBadRequest, "narsize doesn't match what we received when uploading the NAR")
		return
	}

	pathInfo, err := nar.GenPathInfo(rootNode, narInfo)
	if err != nil {
		log.WithError(err).Error("unable to generate PathInfo")
		writeError(w, log, http.StatusInternalServerError, "unable to generate PathInfo")
		return
	}

	if _, err := s.pathInfoServiceClient.Put(ctx, pathInfo); err != nil {
		log.WithError(err).Error("unable to upload pathinfo to service")
		writeError(w, log, http.StatusInternalServerError, "unable to upload pathinfo to server")
		return
	}

	log.Debug("stored pathinfo")
}
