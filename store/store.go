// Package storev1 holds the PathInfo data model and the
// PathInfoService gRPC contract (§3, §4.3). Like castorev1, this would
// be protoc-gen-go output in the upstream project; here it is
// hand-written, for the reasons recorded in DESIGN.md.
package storev1

import castorev1 "tvix.dev/store-engine/castore"

// ContentAddress tags the content-addressing method of a store path,
// mirroring Nix's fixed-output-derivation hash methods (§3, §9).
type ContentAddress int32

const (
	ContentAddress_UNKNOWN ContentAddress = iota
	ContentAddress_NAR_SHA256
	ContentAddress_NAR_SHA1
	ContentAddress_NAR_SHA512
	ContentAddress_NAR_MD5
	ContentAddress_TEXT_SHA256
	ContentAddress_FLAT_SHA1
	ContentAddress_FLAT_MD5
	ContentAddress_FLAT_SHA256
	ContentAddress_FLAT_SHA512
)

func (c ContentAddress) String() string {
	switch c {
	case ContentAddress_NAR_SHA256:
		return "nar-sha256"
	case ContentAddress_NAR_SHA1:
		return "nar-sha1"
	case ContentAddress_NAR_SHA512:
		return "nar-sha512"
	case ContentAddress_NAR_MD5:
		return "nar-md5"
	case ContentAddress_TEXT_SHA256:
		return "text-sha256"
	case ContentAddress_FLAT_SHA1:
		return "flat-sha1"
	case ContentAddress_FLAT_MD5:
		return "flat-md5"
	case ContentAddress_FLAT_SHA256:
		return "flat-sha256"
	case ContentAddress_FLAT_SHA512:
		return "flat-sha512"
	default:
		return "unknown"
	}
}

// StorePath is the proto-shaped (name, digest) pair used for the
// Deriver field — distinct from go-nix's storepath.StorePath, which
// carries the parsed string form.
type StorePath struct {
	Name   string
	Digest []byte
}

// NARInfo_Signature is a single `(name, data)` narinfo signature pair.
type NARInfo_Signature struct {
	Name string
	Data []byte
}

// NARInfo is PathInfo's narinfo sub-record (§3).
type NARInfo struct {
	NarSize        uint64
	NarSha256      []byte
	Signatures     []*NARInfo_Signature
	ReferenceNames []string
	Deriver        *StorePath
	Ca             *NARInfo_CA
}

// NARInfo_CA carries an optional content-address tag and digest.
type NARInfo_CA struct {
	Type   ContentAddress
	Digest []byte
}

// PathInfo is the top-level per-store-path record (§3).
type PathInfo struct {
	Node       *castorev1.Node
	References [][]byte
	Narinfo    *NARInfo
}

func (p *PathInfo) GetNode() *castorev1.Node {
	if p == nil {
		return nil
	}
	return p.Node
}

func (p *PathInfo) GetReferences() [][]byte {
	if p == nil {
		return nil
	}
	return p.References
}

func (p *PathInfo) GetNarinfo() *NARInfo {
	if p == nil {
		return nil
	}
	return p.Narinfo
}

func (n *NARInfo) GetNarSize() uint64 {
	if n == nil {
		return 0
	}
	return n.NarSize
}

func (n *NARInfo) GetNarSha256() []byte {
	if n == nil {
		return nil
	}
	return n.NarSha256
}

func (n *NARInfo) GetSignatures() []*NARInfo_Signature {
	if n == nil {
		return nil
	}
	return n.Signatures
}

func (n *NARInfo) GetReferenceNames() []string {
	if n == nil {
		return nil
	}
	return n.ReferenceNames
}

func (n *NARInfo) GetDeriver() *StorePath {
	if n == nil {
		return nil
	}
	return n.Deriver
}

func (n *NARInfo) GetCa() *NARInfo_CA {
	if n == nil {
		return nil
	}
	return n.Ca
}

func (s *NARInfo_Signature) GetName() string {
	if s == nil {
		return ""
	}
	return s.Name
}

func (s *NARInfo_Signature) GetData() []byte {
	if s == nil {
		return nil
	}
	return s.Data
}

func (s *StorePath) GetName() string {
	if s == nil {
		return ""
	}
	return s.Name
}

func (s *StorePath) GetDigest() []byte {
	if s == nil {
		return nil
	}
	return s.Digest
}
