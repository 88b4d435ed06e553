package nar_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	castorev1 "tvix.dev/store-engine/castore"
	"tvix.dev/store-engine/nar"
)

// roundtrip pipes narContents through Import, storing all file contents
// and directory objects received in two hashmaps, then feeds the
// resulting graph to Export and requires the output to be byte-identical
// to the input.
func roundtrip(t *testing.T, narContents []byte) {
	t.Helper()

	blobsMap := make(map[string][]byte, 0)
	directoriesMap := make(map[string]*castorev1.Directory)

	rootNode, _, _, err := nar.Import(
		context.Background(),
		bytes.NewBuffer(narContents),
		func(blobReader io.Reader) ([]byte, error) {
			// read in contents, we need to put it into blobsMap later.
			contents, err := io.ReadAll(blobReader)
			require.NoError(t, err)

			dgst := mustBlobDigest(bytes.NewReader(contents))

			// put it in blobsMap
			blobsMap[base64.StdEncoding.EncodeToString(dgst)] = contents

			return dgst, nil
		},
		func(directory *castorev1.Directory) ([]byte, error) {
			dgst := mustDirectoryDigest(directory)

			directoriesMap[base64.StdEncoding.EncodeToString(dgst)] = directory
			return dgst, nil
		},
	)

	require.NoError(t, err)

	// done populating everything, now actually test the export :-)
	var buf bytes.Buffer
	err = nar.Export(
		&buf,
		rootNode,
		func(directoryDgst []byte) (*castorev1.Directory, error) {
			d, found := directoriesMap[base64.StdEncoding.EncodeToString(directoryDgst)]
			if !found {
				panic(fmt.Sprintf("directory %v not found", base64.StdEncoding.EncodeToString(directoryDgst)))
			}
			return d, nil
		},
		func(blobDgst []byte) (io.ReadCloser, error) {
			blobContents, found := blobsMap[base64.StdEncoding.EncodeToString(blobDgst)]
			if !found {
				panic(fmt.Sprintf("blob      %v not found", base64.StdEncoding.EncodeToString(blobDgst)))
			}
			return io.NopCloser(bytes.NewReader(blobContents)), nil
		},
	)

	require.NoError(t, err, "exporter shouldn't fail")
	require.Equal(t, narContents, buf.Bytes())
}

func TestRoundtrip(t *testing.T) {
	t.Run("symlink", func(t *testing.T) {
		roundtrip(t, mustSymlinkNar(t, "/nix/store/somewhereelse"))
	})
	t.Run("regular", func(t *testing.T) {
		roundtrip(t, mustOneByteRegularNar(t))
	})
	t.Run("empty directory", func(t *testing.T) {
		roundtrip(t, mustEmptyDirectoryNar(t))
	})
	t.Run("tree", func(t *testing.T) {
		roundtrip(t, mustTreeNar(t))
	})
}

// TestExportSharedSubtree renders a diamond-shaped graph, where the same
// Directory is referenced from two parents, and the lookup function
// hands out the same object for both occurrences.
func TestExportSharedSubtree(t *testing.T) {
	// the shared leaf, holding one file.
	fContents := []byte("x")
	d := &castorev1.Directory{
		Files: []*castorev1.FileNode{{
			Name:   []byte("f"),
			Digest: mustBlobDigest(bytes.NewReader(fContents)),
			Size:   uint32(len(fContents)),
		}},
	}
	b := &castorev1.Directory{
		Directories: []*castorev1.DirectoryNode{{
			Name:   []byte("d"),
			Digest: mustDirectoryDigest(d),
			Size:   d.Size(),
		}},
	}
	c := &castorev1.Directory{
		Directories: []*castorev1.DirectoryNode{{
			Name:   []byte("d"),
			Digest: mustDirectoryDigest(d),
			Size:   d.Size(),
		}},
	}
	a := &castorev1.Directory{
		Directories: []*castorev1.DirectoryNode{
			{
				Name:   []byte("b"),
				Digest: mustDirectoryDigest(b),
				Size:   b.Size(),
			},
			{
				Name:   []byte("c"),
				Digest: mustDirectoryDigest(c),
				Size:   c.Size(),
			},
		},
	}

	directoriesMap := map[string]*castorev1.Directory{
		base64.StdEncoding.EncodeToString(mustDirectoryDigest(a)): a,
		base64.StdEncoding.EncodeToString(mustDirectoryDigest(b)): b,
		base64.StdEncoding.EncodeToString(mustDirectoryDigest(c)): c,
		base64.StdEncoding.EncodeToString(mustDirectoryDigest(d)): d,
	}

	var buf bytes.Buffer
	err := nar.Export(
		&buf,
		&castorev1.Node{
			Node: &castorev1.Node_Directory{
				Directory: &castorev1.DirectoryNode{
					Name:   []byte(""),
					Digest: mustDirectoryDigest(a),
					Size:   a.Size(),
				},
			},
		},
		func(directoryDgst []byte) (*castorev1.Directory, error) {
			d, found := directoriesMap[base64.StdEncoding.EncodeToString(directoryDgst)]
			if !found {
				return nil, fmt.Errorf("directory %v not found", base64.StdEncoding.EncodeToString(directoryDgst))
			}
			return d, nil
		},
		func(blobDgst []byte) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(fContents)), nil
		},
	)
	require.NoError(t, err)

	expected := mustNar(t, []narEntry{
		{path: "/", typ: "directory"},
		{path: "/b", typ: "directory"},
		{path: "/b/d", typ: "directory"},
		{path: "/b/d/f", typ: "regular", contents: fContents},
		{path: "/c", typ: "directory"},
		{path: "/c/d", typ: "directory"},
		{path: "/c/d/f", typ: "regular", contents: fContents},
	})
	require.Equal(t, expected, buf.Bytes())
}
