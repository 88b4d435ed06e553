package storev1

import (
	"fmt"
	"strings"

	"github.com/nix-community/go-nix/pkg/nixbase32"
)

// hashAlgoDigestLengths maps the hash algorithm names appearing in CA
// strings to the raw digest length they must carry.
var hashAlgoDigestLengths = map[string]int{
	"md5":    16,
	"sha1":   20,
	"sha256": 32,
	"sha512": 64,
}

// caTypesByMethodAndAlgo resolves the (recursive?, algo) pair of a
// `fixed:` CA string to its ContentAddress tag. `text:` only ever
// appears with sha256.
var caTypesByMethodAndAlgo = map[bool]map[string]ContentAddress{
	true: {
		"sha256": ContentAddress_NAR_SHA256,
		"sha1":   ContentAddress_NAR_SHA1,
		"sha512": ContentAddress_NAR_SHA512,
		"md5":    ContentAddress_NAR_MD5,
	},
	false: {
		"sha1":   ContentAddress_FLAT_SHA1,
		"md5":    ContentAddress_FLAT_MD5,
		"sha256": ContentAddress_FLAT_SHA256,
		"sha512": ContentAddress_FLAT_SHA512,
	},
}

// ParseCAString parses the textual CA field of a .narinfo
// (`fixed:r:<algo>:<digest>`, `fixed:<algo>:<digest>` or
// `text:sha256:<digest>`) into a NARInfo_CA. The distinction between
// tags producing the same digest (FLAT_SHA256 vs TEXT_SHA256) is
// preserved exactly, never normalized.
func ParseCAString(s string) (*NARInfo_CA, error) {
	parts := strings.Split(s, ":")

	var caType ContentAddress
	var algo string

	switch {
	case len(parts) == 3 && parts[0] == "text":
		if parts[1] != "sha256" {
			return nil, fmt.Errorf("invalid hash algo for text CA: %s", parts[1])
		}
		caType = ContentAddress_TEXT_SHA256
		algo = parts[1]
	case len(parts) == 4 && parts[0] == "fixed" && parts[1] == "r":
		t, ok := caTypesByMethodAndAlgo[true][parts[2]]
		if !ok {
			return nil, fmt.Errorf("invalid hash algo for fixed:r CA: %s", parts[2])
		}
		caType = t
		algo = parts[2]
	case len(parts) == 3 && parts[0] == "fixed":
		t, ok := caTypesByMethodAndAlgo[false][parts[1]]
		if !ok {
			return nil, fmt.Errorf("invalid hash algo for fixed CA: %s", parts[1])
		}
		caType = t
		algo = parts[1]
	default:
		return nil, fmt.Errorf("invalid CA string: %s", s)
	}

	digest, err := nixbase32.DecodeString(parts[len(parts)-1])
	if err != nil {
		return nil, fmt.Errorf("unable to decode CA digest: %w", err)
	}

	if len(digest) != hashAlgoDigestLengths[algo] {
		return nil, fmt.Errorf("invalid digest length for %s: %d", algo, len(digest))
	}

	return &NARInfo_CA{
		Type:   caType,
		Digest: digest,
	}, nil
}

// NixString renders c back into the textual form Nix uses in .narinfo
// CA fields. It is the inverse of ParseCAString.
func (c *NARInfo_CA) NixString() string {
	digest := nixbase32.EncodeToString(c.GetDigest())

	switch c.GetType() {
	case ContentAddress_TEXT_SHA256:
		return "text:sha256:" + digest
	case ContentAddress_NAR_SHA256:
		return "fixed:r:sha256:" + digest
	case ContentAddress_NAR_SHA1:
		return "fixed:r:sha1:" + digest
	case ContentAddress_NAR_SHA512:
		return "fixed:r:sha512:" + digest
	case ContentAddress_NAR_MD5:
		return "fixed:r:md5:" + digest
	case ContentAddress_FLAT_SHA1:
		return "fixed:sha1:" + digest
	case ContentAddress_FLAT_MD5:
		return "fixed:md5:" + digest
	case ContentAddress_FLAT_SHA256:
		return "fixed:sha256:" + digest
	case ContentAddress_FLAT_SHA512:
		return "fixed:sha512:" + digest
	default:
		return ""
	}
}

func (c *NARInfo_CA) GetType() ContentAddress {
	if c == nil {
		return ContentAddress_UNKNOWN
	}
	return c.Type
}

func (c *NARInfo_CA) GetDigest() []byte {
	if c == nil {
		return nil
	}
	return c.Digest
}
