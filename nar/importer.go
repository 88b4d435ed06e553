// Package nar implements the NAR half of the engine: Import consumes a
// NAR byte stream into the content-addressed graph, Export renders the
// byte-identical NAR back out of it. Both sides speak in castorev1
// terms and leave persistence to callbacks, so the same code serves the
// gRPC services, the HTTP bridge and the tests.
package nar

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"path"

	nixnar "github.com/nix-community/go-nix/pkg/nar"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/blake3"

	castorev1 "tvix.dev/store-engine/castore"
)

const (
	// files below this size are taken off the wire immediately and
	// uploaded from a bounded worker pool, so a NAR full of small files
	// doesn't pay one upload round-trip per file.
	asyncUploadThreshold = 1024 * 1024 // 1 MiB
	// upper bound on concurrently running async uploads; together with
	// the threshold this caps the importer's buffer memory.
	maxConcurrentAsyncUploads = 128
)

// importer carries the state of one Import run: the stack of
// directories whose listings are still accumulating, the in-flight
// async blob uploads, and the root node candidates.
type importer struct {
	blobCb      func(io.Reader) ([]byte, error)
	directoryCb func(*castorev1.Directory) ([]byte, error)

	// open directories, outermost first; frames[i+1] always is a child
	// of frames[i].
	frames []*dirFrame

	uploads errgroup.Group

	rootFile    *castorev1.FileNode
	rootSymlink *castorev1.SymlinkNode
	// the directory sealed most recently. Once the stack has fully
	// unwound, this is the root directory.
	rootDir *castorev1.Directory
}

// dirFrame is one directory whose children are still arriving.
type dirFrame struct {
	// the directory's full path inside the NAR, "/" for the root.
	prefix string
	dir    *castorev1.Directory
}

// Import reads a NAR from r and decomposes it into the
// content-addressed model: every regular file body is handed to blobCb,
// every completed Directory to directoryCb (leaves before parents). It
// returns the root node, the NAR size in bytes, and the SHA-256 over
// the whole NAR stream.
func Import(
	ctx context.Context,
	r io.Reader,
	blobCb func(fileReader io.Reader) ([]byte, error),
	directoryCb func(directory *castorev1.Directory) ([]byte, error),
) (*castorev1.Node, uint64, []byte, error) {
	// Everything the NAR reader pulls off r also runs through a byte
	// counter and a SHA-256 state, producing nar_size and nar_sha256 as
	// a side effect of parsing.
	narSizeW := &CountingWriter{}
	narSha256W := sha256.New()
	nr, err := nixnar.NewReader(io.TeeReader(r, io.MultiWriter(narSizeW, narSha256W)))
	if err != nil {
		return nil, 0, nil, fmt.Errorf("instantiating nar reader: %w", err)
	}
	defer nr.Close()

	imp := &importer{
		blobCb:      blobCb,
		directoryCb: directoryCb,
	}
	imp.uploads.SetLimit(maxConcurrentAsyncUploads)

	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, nil, err
		}

		hdr, err := nr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, nil, fmt.Errorf("reading next nar entry: %w", err)
		}

		// Entries arrive in a depth-first, name-sorted walk, so every
		// frame below the new entry's parent directory is complete and
		// can be sealed. Comparing against the exact parent keeps
		// siblings with a common name prefix (/test vs /tested) apart.
		if err := imp.unwindTo(path.Dir(hdr.Path)); err != nil {
			return nil, 0, nil, err
		}

		switch hdr.Type {
		case nixnar.TypeDirectory:
			imp.frames = append(imp.frames, &dirFrame{
				prefix: hdr.Path,
				dir: &castorev1.Directory{
					Directories: []*castorev1.DirectoryNode{},
					Files:       []*castorev1.FileNode{},
					Symlinks:    []*castorev1.SymlinkNode{},
				},
			})
		case nixnar.TypeSymlink:
			imp.addSymlink(hdr)
		case nixnar.TypeRegular:
			if err := imp.addFile(nr, hdr); err != nil {
				return nil, 0, nil, err
			}
		}
	}

	// the reader consumes its final trailers on Close.
	if err := nr.Close(); err != nil {
		return nil, 0, nil, fmt.Errorf("closing nar reader: %w", err)
	}

	rootNode, err := imp.finish()
	if err != nil {
		return nil, 0, nil, err
	}

	return rootNode, narSizeW.BytesWritten(), narSha256W.Sum(nil), nil
}

// top returns the innermost open directory, or nil when the stack is
// empty (only the case before a root entry arrived, or for NARs whose
// root is not a directory).
func (imp *importer) top() *dirFrame {
	if len(imp.frames) == 0 {
		return nil
	}
	return imp.frames[len(imp.frames)-1]
}

// unwindTo seals directories until the innermost open one is the
// directory at prefix. The root frame is never popped here; it is
// sealed in finish, after the whole NAR has been read.
func (imp *importer) unwindTo(prefix string) error {
	for len(imp.frames) > 1 && imp.top().prefix != prefix {
		if err := imp.sealTop(); err != nil {
			return err
		}
	}
	return nil
}

// sealTop finalizes the innermost open directory: it is handed to the
// directory callback, and recorded as a DirectoryNode child of the
// frame below it.
func (imp *importer) sealTop() error {
	sealed := imp.frames[len(imp.frames)-1]
	imp.frames = imp.frames[:len(imp.frames)-1]

	digest, err := imp.directoryCb(sealed.dir)
	if err != nil {
		return fmt.Errorf("directory callback: %w", err)
	}

	if parent := imp.top(); parent != nil {
		parent.dir.Directories = append(parent.dir.Directories, &castorev1.DirectoryNode{
			Name:   []byte(path.Base(sealed.prefix)),
			Digest: digest,
			Size:   sealed.dir.Size(),
		})
	}

	imp.rootDir = sealed.dir
	return nil
}

// entryName returns the basename of a NAR entry path, empty for the
// root entry.
func entryName(p string) []byte {
	if p == "/" {
		return []byte{}
	}
	return []byte(path.Base(p))
}

func (imp *importer) addSymlink(hdr *nixnar.Header) {
	symlinkNode := &castorev1.SymlinkNode{
		Name:   entryName(hdr.Path),
		Target: []byte(hdr.LinkTarget),
	}
	if parent := imp.top(); parent != nil {
		parent.dir.Symlinks = append(parent.dir.Symlinks, symlinkNode)
		return
	}
	imp.rootSymlink = symlinkNode
}

// addFile hashes a regular file's body with BLAKE3 while feeding it to
// the blob callback. Small files are buffered and uploaded from the
// bounded pool instead of blocking the parse loop; either way, the
// digest the callback reports must agree with the locally computed one.
func (imp *importer) addFile(body io.Reader, hdr *nixnar.Header) error {
	hasher := blake3.New(32, nil)
	hashedBody := io.TeeReader(body, hasher)

	var digest []byte

	if hdr.Size < asyncUploadThreshold {
		buffered, err := io.ReadAll(hashedBody)
		if err != nil {
			return fmt.Errorf("buffering file contents: %w", err)
		}
		digest = hasher.Sum(nil)

		size := hdr.Size
		imp.uploads.Go(func() error {
			reported, err := imp.putBlob(bytes.NewReader(buffered), size)
			if err != nil {
				return err
			}
			if !bytes.Equal(digest, reported) {
				return fmt.Errorf("unexpected digest from blob callback (got %x, expected %x)", reported, digest)
			}
			return nil
		})
	} else {
		reported, err := imp.putBlob(hashedBody, hdr.Size)
		if err != nil {
			return err
		}
		digest = hasher.Sum(nil)
		if !bytes.Equal(digest, reported) {
			return fmt.Errorf("unexpected digest from blob callback (got %x, expected %x)", reported, digest)
		}
	}

	fileNode := &castorev1.FileNode{
		Name:       entryName(hdr.Path),
		Digest:     digest,
		Size:       uint32(hdr.Size),
		Executable: hdr.Executable,
	}
	if parent := imp.top(); parent != nil {
		parent.dir.Files = append(parent.dir.Files, fileNode)
		return nil
	}
	imp.rootFile = fileNode
	return nil
}

// putBlob runs the blob callback over body and checks it consumed all
// size bytes; a callback stopping short would silently truncate the
// file.
func (imp *importer) putBlob(body io.Reader, size int64) ([]byte, error) {
	consumed := &CountingWriter{}
	digest, err := imp.blobCb(io.TeeReader(body, consumed))
	if err != nil {
		return nil, fmt.Errorf("blob callback: %w", err)
	}
	if consumed.BytesWritten() != uint64(size) {
		return nil, fmt.Errorf("blob callback consumed %d of %d bytes", consumed.BytesWritten(), size)
	}
	return digest, nil
}

// finish seals whatever is left on the stack, waits for outstanding
// uploads, and assembles the root node. Exactly one of the three root
// candidates is set for a well-formed NAR.
func (imp *importer) finish() (*castorev1.Node, error) {
	for len(imp.frames) > 0 {
		if err := imp.sealTop(); err != nil {
			return nil, err
		}
	}

	if err := imp.uploads.Wait(); err != nil {
		return nil, fmt.Errorf("async blob upload: %w", err)
	}

	switch {
	case imp.rootFile != nil:
		return &castorev1.Node{
			Node: &castorev1.Node_File{File: imp.rootFile},
		}, nil
	case imp.rootSymlink != nil:
		return &castorev1.Node{
			Node: &castorev1.Node_Symlink{Symlink: imp.rootSymlink},
		}, nil
	case imp.rootDir != nil:
		// the root directory's digest only exists now, after all its
		// contents arrived.
		digest, err := imp.rootDir.Digest()
		if err != nil {
			return nil, fmt.Errorf("calculating root directory digest: %w", err)
		}
		return &castorev1.Node{
			Node: &castorev1.Node_Directory{
				Directory: &castorev1.DirectoryNode{
					Name:   []byte{},
					Digest: digest,
					Size:   imp.rootDir.Size(),
				},
			},
		}, nil
	default:
		return nil, fmt.Errorf("nar did not contain a root node")
	}
}
