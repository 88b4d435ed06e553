package nar_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	nixnar "github.com/nix-community/go-nix/pkg/nar"
	"lukechampine.com/blake3"

	castorev1 "tvix.dev/store-engine/castore"
)

func requireEq(t *testing.T, expected interface{}, actual interface{}) {
	t.Helper()
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Errorf("unexpected difference:\n%v", diff)
	}
}

func mustDirectoryDigest(d *castorev1.Directory) []byte {
	dgst, err := d.Digest()
	if err != nil {
		panic(err)
	}
	return dgst
}

func mustBlobDigest(r io.Reader) []byte {
	hasher := blake3.New(32, nil)
	_, err := io.Copy(hasher, r)
	if err != nil {
		panic(err)
	}
	return hasher.Sum([]byte{})
}

// narEntry describes one element to feed to the NAR writer when
// assembling test fixtures. The teacher fixtures this replaces are
// binary files; building them through the writer keeps the tests
// self-contained.
type narEntry struct {
	path       string
	typ        nixnar.NodeType
	contents   []byte
	executable bool
	linkTarget string
}

func mustNar(t *testing.T, entries []narEntry) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := nixnar.NewWriter(&buf)
	if err != nil {
		t.Fatalf("unable to create nar writer: %v", err)
	}

	for _, e := range entries {
		hdr := &nixnar.Header{
			Path:       e.path,
			Type:       e.typ,
			Executable: e.executable,
			LinkTarget: e.linkTarget,
		}
		if e.typ == nixnar.TypeRegular {
			hdr.Size = int64(len(e.contents))
		}
		if err := w.WriteHeader(hdr); err != nil {
			t.Fatalf("unable to write nar header for %q: %v", e.path, err)
		}
		if e.typ == nixnar.TypeRegular {
			if _, err := w.Write(e.contents); err != nil {
				t.Fatalf("unable to write nar contents for %q: %v", e.path, err)
			}
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("unable to close nar writer: %v", err)
	}

	return buf.Bytes()
}

// mustSymlinkNar returns the NAR of a single root symlink.
func mustSymlinkNar(t *testing.T, target string) []byte {
	return mustNar(t, []narEntry{
		{path: "/", typ: nixnar.TypeSymlink, linkTarget: target},
	})
}

// mustOneByteRegularNar returns the NAR of a single root regular file
// containing the byte 0x01.
func mustOneByteRegularNar(t *testing.T) []byte {
	return mustNar(t, []narEntry{
		{path: "/", typ: nixnar.TypeRegular, contents: []byte{0x01}},
	})
}

// mustEmptyDirectoryNar returns the NAR of a single empty directory.
func mustEmptyDirectoryNar(t *testing.T) []byte {
	return mustNar(t, []narEntry{
		{path: "/", typ: nixnar.TypeDirectory},
	})
}

// mustTreeNar returns the NAR of a small net-tools-shaped tree:
//
//	/               (dir)
//	/bin            (dir)
//	/bin/arp        (executable file)
//	/bin/dnsdomainname  (symlink -> hostname)
//	/bin/hostname   (executable file)
//	/sbin           (symlink -> bin)
//	/share          (dir)
//	/share/man      (dir)
//	/share/man/man1 (dir)
//	/share/man/man1/hostname.1.gz (file)
//	/share/man/man5 (dir)
//	/share/man/man5/ethers.5.gz   (file)
//	/share/man/man8 (dir)
//	/share/man/man8/arp.8.gz      (file)
func mustTreeNar(t *testing.T) []byte {
	return mustNar(t, []narEntry{
		{path: "/", typ: nixnar.TypeDirectory},
		{path: "/bin", typ: nixnar.TypeDirectory},
		{path: "/bin/arp", typ: nixnar.TypeRegular, contents: []byte("arp contents"), executable: true},
		{path: "/bin/dnsdomainname", typ: nixnar.TypeSymlink, linkTarget: "hostname"},
		{path: "/bin/hostname", typ: nixnar.TypeRegular, contents: []byte("hostname contents"), executable: true},
		{path: "/sbin", typ: nixnar.TypeSymlink, linkTarget: "bin"},
		{path: "/share", typ: nixnar.TypeDirectory},
		{path: "/share/man", typ: nixnar.TypeDirectory},
		{path: "/share/man/man1", typ: nixnar.TypeDirectory},
		{path: "/share/man/man1/hostname.1.gz", typ: nixnar.TypeRegular, contents: []byte("man hostname")},
		{path: "/share/man/man5", typ: nixnar.TypeDirectory},
		{path: "/share/man/man5/ethers.5.gz", typ: nixnar.TypeRegular, contents: []byte("man ethers")},
		{path: "/share/man/man8", typ: nixnar.TypeDirectory},
		{path: "/share/man/man8/arp.8.gz", typ: nixnar.TypeRegular, contents: []byte("man arp")},
	})
}
