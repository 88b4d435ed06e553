package storev1

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/nix-community/go-nix/pkg/storepath"

	castorev1 "tvix.dev/store-engine/castore"
)

// Validate performs the cross-invariant checks of the PathInfo record
// and returns the StorePath parsed from the root node's name, or an
// error naming the first violated invariant.
func (p *PathInfo) Validate() (*storepath.StorePath, error) {
	rootNode := p.GetNode()
	if rootNode == nil {
		return nil, fmt.Errorf("root node must be set")
	}
	if err := rootNode.Validate(); err != nil {
		return nil, fmt.Errorf("root node failed validation: %w", err)
	}

	name := rootNodeName(rootNode)
	storePath, err := storepath.FromString(string(name))
	if err != nil {
		return nil, fmt.Errorf("root node name %q is not a store path: %w", name, err)
	}

	// every reference is a raw output-path digest.
	for i, digest := range p.GetReferences() {
		if len(digest) != storepath.PathHashSize {
			return nil, fmt.Errorf("reference %d: invalid digest length %d", i, len(digest))
		}
	}

	if narInfo := p.GetNarinfo(); narInfo != nil {
		if err := p.validateNarinfo(narInfo); err != nil {
			return nil, err
		}
	}

	return storePath, nil
}

// validateNarinfo checks the narinfo sub-record against the rest of p.
func (p *PathInfo) validateNarinfo(narInfo *NARInfo) error {
	if len(narInfo.GetNarSha256()) != sha256.Size {
		return fmt.Errorf("invalid NarSha256 length %d, want %d", len(narInfo.GetNarSha256()), sha256.Size)
	}

	references := p.GetReferences()
	referenceNames := narInfo.GetReferenceNames()
	if len(referenceNames) != len(references) {
		return fmt.Errorf("inconsistent number of references: %d (references) vs %d (narinfo)", len(references), len(referenceNames))
	}

	// each reference name must decode back to the raw digest stored at
	// the same index; this pairing is what keeps signature fingerprints
	// reconstructible.
	for i, referenceName := range referenceNames {
		referencePath, err := storepath.FromString(referenceName)
		if err != nil {
			return fmt.Errorf("reference name %d: %w", i, err)
		}
		if !bytes.Equal(referencePath.Digest, references[i]) {
			return fmt.Errorf(
				"reference name %d digest mismatch: %s in name, %s in references",
				i,
				base64.StdEncoding.EncodeToString(referencePath.Digest),
				base64.StdEncoding.EncodeToString(references[i]),
			)
		}
	}

	// The Deriver field only needs to parse. Recursive Nix produces
	// .drv names with several .drv suffixes, of which only one is
	// popped when converting to this field, so no trailing ".drv"
	// check is possible here.
	if deriver := narInfo.GetDeriver(); deriver != nil {
		deriverPath := storepath.StorePath{
			Name:   deriver.GetName(),
			Digest: deriver.GetDigest(),
		}
		if err := deriverPath.Validate(); err != nil {
			return fmt.Errorf("invalid deriver field: %w", err)
		}
	}

	return nil
}

// rootNodeName extracts the name of whichever node kind is set. Only
// meaningful on a Node that passed Validate.
func rootNodeName(n *castorev1.Node) []byte {
	switch {
	case n.GetDirectory() != nil:
		return n.GetDirectory().GetName()
	case n.GetFile() != nil:
		return n.GetFile().GetName()
	default:
		return n.GetSymlink().GetName()
	}
}
