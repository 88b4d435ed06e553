package http

import (
	"fmt"
	"net/http"

	mh "github.com/multiformats/go-multihash/core"
	nixhash "github.com/nix-community/go-nix/pkg/hash"
	"github.com/nix-community/go-nix/pkg/nixbase32"
	log "github.com/sirupsen/logrus"
)

// writeError sends an error status and a short message to the client,
// logging if even that fails.
func writeError(w http.ResponseWriter, log *log.Entry, status int, msg string) {
	w.WriteHeader(status)
	if _, err := w.Write([]byte(msg)); err != nil {
		log.WithError(err).Error("unable to write error message to client")
	}
}

// parseNarHashFromUrl decodes the nixbase32 sha256 segment of a
// nar/….nar URL into a nixhash.Hash.
func parseNarHashFromUrl(narHashFromUrl string) (*nixhash.Hash, error) {
	// sha256 is the only hash appearing in these URLs, and its
	// nixbase32 form is always 52 characters.
	if len(narHashFromUrl) != 52 {
		return nil, fmt.Errorf("invalid narHash length: %d", len(narHashFromUrl))
	}

	digest, err := nixbase32.DecodeString(narHashFromUrl)
	if err != nil {
		return nil, fmt.Errorf("decoding narHash: %w", err)
	}

	narHash, err := nixhash.FromHashTypeAndDigest(mh.SHA2_256, digest)
	if err != nil {
		return nil, fmt.Errorf("assembling narHash: %w", err)
	}

	return narHash, nil
}
