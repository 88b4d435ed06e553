package http

import (
	"fmt"

	mh "github.com/multiformats/go-multihash/core"
	nixhash "github.com/nix-community/go-nix/pkg/hash"
	"github.com/nix-community/go-nix/pkg/narinfo"
	"github.com/nix-community/go-nix/pkg/narinfo/signature"
	"github.com/nix-community/go-nix/pkg/nixbase32"
	"github.com/nix-community/go-nix/pkg/storepath"

	storev1 "tvix.dev/store-engine/store"
)

// ToNixNarInfo converts the PathInfo to a narinfo.NarInfo.
func ToNixNarInfo(p *storev1.PathInfo) (*narinfo.NarInfo, error) {
	// ensure the PathInfo is valid, and extract the StorePath from the node in
	// there.
	storePath, err := p.Validate()
	if err != nil {
		return nil, fmt.Errorf("failed to validate PathInfo: %w", err)
	}

	// convert the signatures from storev1 signatures to narinfo signatures
	narinfoSignatures := make([]signature.Signature, len(p.GetNarinfo().GetSignatures()))
	for i, pathInfoSignature := range p.GetNarinfo().GetSignatures() {
		narinfoSignatures[i] = signature.Signature{
			Name: pathInfoSignature.GetName(),
			Data: pathInfoSignature.GetData(),
		}
	}

	// produce nixhash for the narsha256.
	narHash, err := nixhash.FromHashTypeAndDigest(
		mh.SHA2_256,
		p.GetNarinfo().GetNarSha256(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid narsha256: %w", err)
	}

	// render the deriver basename, if set.
	var deriver string
	if d := p.GetNarinfo().GetDeriver(); d != nil {
		deriver = (&storepath.StorePath{
			Name:   d.GetName(),
			Digest: d.GetDigest(),
		}).String()
	}

	// render the CA field, if set.
	var ca string
	if p.GetNarinfo().GetCa() != nil {
		ca = p.GetNarinfo().GetCa().NixString()
	}

	return &narinfo.NarInfo{
		StorePath:   storePath.Absolute(),
		URL:         "nar/" + nixbase32.EncodeToString(narHash.Digest()) + ".nar",
		Compression: "none",
		NarHash:     narHash,
		NarSize:     uint64(p.GetNarinfo().GetNarSize()),
		References:  p.GetNarinfo().GetReferenceNames(),
		Deriver:     deriver,
		Signatures:  narinfoSignatures,
		CA:          ca,
	}, nil
}
