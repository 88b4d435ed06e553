package storev1_test

import (
	"testing"

	"github.com/nix-community/go-nix/pkg/nixbase32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storev1 "tvix.dev/store-engine/store"
)

func TestParseCAString(t *testing.T) {
	sha256Digest := make([]byte, 32)
	sha256Digest[0] = 0x01
	sha1Digest := make([]byte, 20)
	sha1Digest[0] = 0x02

	cases := []struct {
		name         string
		input        string
		expectedType storev1.ContentAddress
		digest       []byte
	}{
		{"text sha256", "text:sha256:" + nixbase32.EncodeToString(sha256Digest), storev1.ContentAddress_TEXT_SHA256, sha256Digest},
		{"fixed recursive sha256", "fixed:r:sha256:" + nixbase32.EncodeToString(sha256Digest), storev1.ContentAddress_NAR_SHA256, sha256Digest},
		{"fixed flat sha256", "fixed:sha256:" + nixbase32.EncodeToString(sha256Digest), storev1.ContentAddress_FLAT_SHA256, sha256Digest},
		{"fixed recursive sha1", "fixed:r:sha1:" + nixbase32.EncodeToString(sha1Digest), storev1.ContentAddress_NAR_SHA1, sha1Digest},
		{"fixed flat sha1", "fixed:sha1:" + nixbase32.EncodeToString(sha1Digest), storev1.ContentAddress_FLAT_SHA1, sha1Digest},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ca, err := storev1.ParseCAString(c.input)
			require.NoError(t, err)
			assert.Equal(t, c.expectedType, ca.GetType())
			assert.Equal(t, c.digest, ca.GetDigest())

			// rendering must round-trip the exact tag, so FLAT_SHA256 and
			// TEXT_SHA256 never collapse into each other.
			assert.Equal(t, c.input, ca.NixString())
		})
	}

	t.Run("invalid", func(t *testing.T) {
		{
			_, err := storev1.ParseCAString("fixed:sha256:tooshort")
			assert.Error(t, err)
		}
		{
			_, err := storev1.ParseCAString("text:sha1:" + nixbase32.EncodeToString(sha1Digest))
			assert.Error(t, err)
		}
		{
			_, err := storev1.ParseCAString("something:else")
			assert.Error(t, err)
		}
		{
			// digest length must match the named algo.
			_, err := storev1.ParseCAString("fixed:sha256:" + nixbase32.EncodeToString(sha1Digest))
			assert.Error(t, err)
		}
	})
}
