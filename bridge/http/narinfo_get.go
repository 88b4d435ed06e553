package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/nix-community/go-nix/pkg/nixbase32"
	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	storev1 "tvix.dev/store-engine/store"
)

// handleNarinfoGet resolves $outhash.narinfo through the
// PathInfoService and renders the classical text form. GET and HEAD
// both record the NAR hash in the lookup table, so the nar/… request a
// client usually issues next needs no second PathInfo lookup.
func (s *Server) handleNarinfoGet(headOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		ctx := r.Context()
		log := log.WithField("outputhash", chi.URLParamFromCtx(ctx, "outputhash"))

		outputHash, err := nixbase32.DecodeString(chi.URLParamFromCtx(ctx, "outputhash"))
		if err != nil {
			log.WithError(err).Error("unable to decode output hash from url")
			writeError(w, log, http.StatusBadRequest, "unable to decode output hash from url")
			return
		}

		pathInfo, err := s.pathInfoServiceClient.Get(ctx, &storev1.GetPathInfoRequest{
			ByWhat: &storev1.GetPathInfoRequest_ByOutputHash{
				ByOutputHash: outputHash,
			},
		})
		if err != nil {
			if status.Code(err) == codes.NotFound {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			log.WithError(err).Warn("unable to get pathinfo")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		// this validates the PathInfo along the way, so anything past
		// this point can rely on it being well-formed.
		narInfo, err := ToNixNarInfo(pathInfo)
		if err != nil {
			log.WithError(err).Error("unable to convert pathinfo to narinfo")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		s.rememberRoot(narInfo.NarHash.SRIString(), pathInfo.GetNode(), pathInfo.GetNarinfo().GetNarSize())

		if headOnly {
			return
		}

		if _, err := io.WriteString(w, narInfo.String()); err != nil {
			log.WithError(err).Error("unable to write narinfo to client")
		}
	}
}
