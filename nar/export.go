package nar

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"

	nixnar "github.com/nix-community/go-nix/pkg/nar"

	castorev1 "tvix.dev/store-engine/castore"
)

type DirectoryLookupFn func([]byte) (*castorev1.Directory, error)
type BlobLookupFn func([]byte) (io.ReadCloser, error)

// exportFrame is one directory being rendered: its path, its children
// merged into a single name-sorted list, and a cursor into that list.
// The Directory itself is never modified, so the lookup function may
// hand out the same object for every occurrence of a shared subtree.
type exportFrame struct {
	path     string
	children []*castorev1.Node
	next     int
}

// Export renders the NAR serialization of the graph under rootNode to
// w, resolving directories and blob contents through the two lookup
// functions. The emission order is fully determined by the graph: the
// Directory sorting invariants put every entry in canonical NAR order.
func Export(
	w io.Writer,
	rootNode *castorev1.Node,
	directoryLookupFn DirectoryLookupFn,
	blobLookupFn BlobLookupFn,
) error {
	nw, err := nixnar.NewWriter(w)
	if err != nil {
		return fmt.Errorf("instantiating nar writer: %w", err)
	}
	defer nw.Close()

	// file and symlink roots are a single entry, no traversal needed.
	switch {
	case rootNode.GetFile() != nil:
		if err := writeFileEntry(nw, "/", rootNode.GetFile(), blobLookupFn); err != nil {
			return err
		}
		return nw.Close()
	case rootNode.GetSymlink() != nil:
		if err := nw.WriteHeader(&nixnar.Header{
			Path:       "/",
			Type:       nixnar.TypeSymlink,
			LinkTarget: string(rootNode.GetSymlink().GetTarget()),
		}); err != nil {
			return fmt.Errorf("writing root symlink header: %w", err)
		}
		return nw.Close()
	case rootNode.GetDirectory() != nil:
		// handled below
	default:
		return fmt.Errorf("root node is neither directory, file nor symlink")
	}

	rootDirectory, err := directoryLookupFn(rootNode.GetDirectory().GetDigest())
	if err != nil {
		return fmt.Errorf("resolving root directory: %w", err)
	}
	if err := nw.WriteHeader(&nixnar.Header{Path: "/", Type: nixnar.TypeDirectory}); err != nil {
		return fmt.Errorf("writing root directory header: %w", err)
	}

	stack := []*exportFrame{{path: "/", children: sortedChildren(rootDirectory)}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		if frame.next == len(frame.children) {
			stack = stack[:len(stack)-1]
			continue
		}

		child := frame.children[frame.next]
		frame.next++

		childPath := path.Join(frame.path, string(nodeName(child)))

		switch {
		case child.GetDirectory() != nil:
			if err := nw.WriteHeader(&nixnar.Header{
				Path: childPath,
				Type: nixnar.TypeDirectory,
			}); err != nil {
				return fmt.Errorf("writing directory header: %w", err)
			}

			directory, err := directoryLookupFn(child.GetDirectory().GetDigest())
			if err != nil {
				return fmt.Errorf("resolving directory: %w", err)
			}
			stack = append(stack, &exportFrame{path: childPath, children: sortedChildren(directory)})
		case child.GetFile() != nil:
			if err := writeFileEntry(nw, childPath, child.GetFile(), blobLookupFn); err != nil {
				return err
			}
		case child.GetSymlink() != nil:
			if err := nw.WriteHeader(&nixnar.Header{
				Path:       childPath,
				Type:       nixnar.TypeSymlink,
				LinkTarget: string(child.GetSymlink().GetTarget()),
			}); err != nil {
				return fmt.Errorf("writing symlink header: %w", err)
			}
		}
	}

	return nw.Close()
}

// writeFileEntry emits one regular file entry and streams its blob
// contents through the lookup function.
func writeFileEntry(nw *nixnar.Writer, p string, fileNode *castorev1.FileNode, blobLookupFn BlobLookupFn) error {
	if err := nw.WriteHeader(&nixnar.Header{
		Path:       p,
		Type:       nixnar.TypeRegular,
		Size:       int64(fileNode.GetSize()),
		Executable: fileNode.GetExecutable(),
	}); err != nil {
		return fmt.Errorf("writing file header: %w", err)
	}

	contents, err := blobLookupFn(fileNode.GetDigest())
	if err != nil {
		return fmt.Errorf("resolving blob: %w", err)
	}

	if _, err := io.Copy(nw, contents); err != nil {
		contents.Close()
		return fmt.Errorf("streaming blob contents: %w", err)
	}

	return contents.Close()
}

// sortedChildren flattens a Directory's three child lists into one
// name-sorted list of nodes, leaving the Directory untouched. Names are
// unique across the three lists, so the sort is unambiguous.
func sortedChildren(d *castorev1.Directory) []*castorev1.Node {
	children := make([]*castorev1.Node, 0, len(d.GetDirectories())+len(d.GetFiles())+len(d.GetSymlinks()))

	for _, n := range d.GetDirectories() {
		children = append(children, &castorev1.Node{Node: &castorev1.Node_Directory{Directory: n}})
	}
	for _, n := range d.GetFiles() {
		children = append(children, &castorev1.Node{Node: &castorev1.Node_File{File: n}})
	}
	for _, n := range d.GetSymlinks() {
		children = append(children, &castorev1.Node{Node: &castorev1.Node_Symlink{Symlink: n}})
	}

	sort.Slice(children, func(i, j int) bool {
		return bytes.Compare(nodeName(children[i]), nodeName(children[j])) < 0
	})

	return children
}

// nodeName returns the name of whichever node kind is set.
func nodeName(n *castorev1.Node) []byte {
	switch {
	case n.GetDirectory() != nil:
		return n.GetDirectory().GetName()
	case n.GetFile() != nil:
		return n.GetFile().GetName()
	default:
		return n.GetSymlink().GetName()
	}
}
