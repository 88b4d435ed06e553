package nar

import (
	"fmt"

	"github.com/nix-community/go-nix/pkg/narinfo"
	"github.com/nix-community/go-nix/pkg/storepath"

	castorev1 "tvix.dev/store-engine/castore"
	storev1 "tvix.dev/store-engine/store"
)

// GenPathInfo takes a rootNode and narInfo and assembles a PathInfo.
// The rootNode is renamed to match the StorePath in the narInfo.
func GenPathInfo(rootNode *castorev1.Node, narInfo *narinfo.NarInfo) (*storev1.PathInfo, error) {
	// parse the storePath from the .narinfo
	storePath, err := storepath.FromAbsolutePath(narInfo.StorePath)
	if err != nil {
		return nil, fmt.Errorf("unable to parse StorePath: %w", err)
	}

	// construct the references, by parsing ReferenceNames and extracting the digest
	references := make([][]byte, len(narInfo.References))
	for i, referenceStr := range narInfo.References {
		// parse reference as store path
		referenceStorePath, err := storepath.FromString(referenceStr)
		if err != nil {
			return nil, fmt.Errorf("unable to parse reference %s as storepath: %w", referenceStr, err)
		}
		references[i] = referenceStorePath.Digest
	}

	// construct the pathInfo.Narinfo.Signatures[*] from narInfo.Signatures[*]
	narinfoSignatures := make([]*storev1.NARInfo_Signature, len(narInfo.Signatures))
	for i, narinfoSig := range narInfo.Signatures {
		narinfoSignatures[i] = &storev1.NARInfo_Signature{
			Name: narinfoSig.Name,
			Data: narinfoSig.Data,
		}
	}

	// if the .narinfo carries a Deriver line, parse it as a store path.
	var deriver *storev1.StorePath
	if narInfo.Deriver != "" {
		deriverStorePath, err := storepath.FromString(narInfo.Deriver)
		if err != nil {
			return nil, fmt.Errorf("unable to parse deriver %s as storepath: %w", narInfo.Deriver, err)
		}
		deriver = &storev1.StorePath{
			Name:   deriverStorePath.Name,
			Digest: deriverStorePath.Digest,
		}
	}

	// if the .narinfo carries a CA line, parse it. The exact tag must be
	// preserved, so this never normalizes between equal-digest forms.
	var ca *storev1.NARInfo_CA
	if narInfo.CA != "" {
		ca, err = storev1.ParseCAString(narInfo.CA)
		if err != nil {
			return nil, fmt.Errorf("unable to parse CA field %s: %w", narInfo.CA, err)
		}
	}

	// assemble the PathInfo.
	pathInfo := &storev1.PathInfo{
		// embed a new root node with the name set to the store path basename.
		Node:       castorev1.RenamedNode(rootNode, storePath.String()),
		References: references,
		Narinfo: &storev1.NARInfo{
			NarSize:        narInfo.NarSize,
			NarSha256:      narInfo.NarHash.Digest(),
			Signatures:     narinfoSignatures,
			ReferenceNames: narInfo.References,
			Deriver:        deriver,
			Ca:             ca,
		},
	}

	// run Validate on the PathInfo, more as an additional sanity check our code is sound,
	// to make sure we populated everything properly, before returning it.
	// Fail hard if we fail validation, this is a code error.
	if _, err = pathInfo.Validate(); err != nil {
		panic(fmt.Sprintf("PathInfo failed validation: %v", err))
	}

	return pathInfo, nil

}
