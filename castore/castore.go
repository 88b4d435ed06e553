// Package castorev1 holds the data model and gRPC service contracts for
// the content-addressed storage layer (§2 layers 2–3, §3, §4.1–§4.2):
// Directory/Node records and the BlobService/DirectoryService RPCs.
//
// The message types here would, in a full protoc-gen-go pipeline, be
// generated from tvix/castore/v1/castore.proto and rpc_{blob,directory}.proto.
// Since this build never runs protoc, they are plain hand-written Go
// structs; see DESIGN.md for the consequences for digest computation.
package castorev1

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"lukechampine.com/blake3"
	"tvix.dev/store-engine/internal/pbwire"
)

// Directory is a content-addressed directory listing: three ordered
// sequences of child directories, files, and symlinks (§3).
type Directory struct {
	Directories []*DirectoryNode
	Files       []*FileNode
	Symlinks    []*SymlinkNode
}

// DirectoryNode refers to a child Directory by its digest.
type DirectoryNode struct {
	Name   []byte
	Digest []byte
	Size   uint32
}

// FileNode refers to a blob by its digest.
type FileNode struct {
	Name       []byte
	Digest     []byte
	Size       uint32
	Executable bool
}

// SymlinkNode records a symlink's target verbatim.
type SymlinkNode struct {
	Name   []byte
	Target []byte
}

// Size returns the Directory's recursive size: the number of files and
// symlinks directly contained, plus, for each child directory, one (for
// the child itself) plus the child's own recursive size (§3).
func (d *Directory) Size() uint32 {
	var size uint32
	size = uint32(len(d.Files) + len(d.Symlinks))
	for _, c := range d.Directories {
		size += 1 + c.Size
	}
	return size
}

// marshalCanonical writes d in a fixed field-number order
// (directories=1, files=2, symlinks=3; DirectoryNode and FileNode in
// fields name=1, digest=2, size=3, with FileNode's executable=4;
// SymlinkNode in fields name=1, target=2), matching
// the teacher's castore.proto field layout. See internal/pbwire for why
// this exists instead of proto.Marshal.
func (d *Directory) marshalCanonical() []byte {
	top := pbwire.NewBuilder()

	for _, c := range d.Directories {
		m := pbwire.NewBuilder()
		m.BytesField(1, c.Name)
		m.BytesField(2, c.Digest)
		m.Uint32Field(3, c.Size)
		top.Message(1, m)
	}
	for _, f := range d.Files {
		m := pbwire.NewBuilder()
		m.BytesField(1, f.Name)
		m.BytesField(2, f.Digest)
		m.Uint32Field(3, f.Size)
		m.BoolField(4, f.Executable)
		top.Message(2, m)
	}
	for _, s := range d.Symlinks {
		m := pbwire.NewBuilder()
		m.BytesField(1, s.Name)
		m.BytesField(2, s.Target)
		top.Message(3, m)
	}

	return top.Bytes()
}

// Digest returns the BLAKE3 digest of d's canonical encoding (§3).
func (d *Directory) Digest() ([]byte, error) {
	h := blake3.New(32, nil)

	if _, err := h.Write(d.marshalCanonical()); err != nil {
		return nil, fmt.Errorf("error writing to hasher: %w", err)
	}

	return h.Sum(nil), nil
}

// isValidName checks a name for validity: no slashes, no null bytes,
// not "." or "..", and non-empty (§3).
func isValidName(n []byte) bool {
	if len(n) == 0 || bytes.Equal(n, []byte("..")) || bytes.Equal(n, []byte{'.'}) ||
		bytes.Contains(n, []byte{'\x00'}) || bytes.Contains(n, []byte{'/'}) {
		return false
	}
	return true
}

// Validate checks the Directory message for invalid data: violations of
// name restrictions, invalid digest lengths, unsorted lists, and
// duplicate names across the three lists (§3, §8).
func (d *Directory) Validate() error {
	seenNames := make(map[string]struct{})

	var lastDirectoryName, lastFileName, lastSymlinkName []byte

	insertIfGt := func(lastName *[]byte, name []byte) error {
		if bytes.Compare(name, *lastName) == 1 {
			*lastName = name
			return nil
		}
		return fmt.Errorf("%v is not in sorted order", name)
	}

	insertOnce := func(name []byte) error {
		encoded := base64.StdEncoding.EncodeToString(name)
		if _, found := seenNames[encoded]; found {
			return fmt.Errorf("duplicate name: %v", string(name))
		}
		seenNames[encoded] = struct{}{}
		return nil
	}

	for _, n := range d.Directories {
		if !isValidName(n.Name) {
			return fmt.Errorf("invalid node name for DirectoryNode: %v", n.Name)
		}
		if len(n.Digest) != 32 {
			return fmt.Errorf("invalid digest length for DirectoryNode: %d", len(n.Digest))
		}
		if err := insertIfGt(&lastDirectoryName, n.Name); err != nil {
			return err
		}
		if err := insertOnce(n.Name); err != nil {
			return err
		}
	}

	for _, n := range d.Files {
		if !isValidName(n.Name) {
			return fmt.Errorf("invalid node name for FileNode: %v", n.Name)
		}
		if len(n.Digest) != 32 {
			return fmt.Errorf("invalid digest length for FileNode: %d", len(n.Digest))
		}
		if err := insertIfGt(&lastFileName, n.Name); err != nil {
			return err
		}
		if err := insertOnce(n.Name); err != nil {
			return err
		}
	}

	for _, n := range d.Symlinks {
		if !isValidName(n.Name) {
			return fmt.Errorf("invalid node name for SymlinkNode: %v", n.Name)
		}
		if len(n.Target) == 0 || bytes.Contains(n.Target, []byte{0}) {
			return fmt.Errorf("invalid symlink target for %v: %v", n.Name, n.Target)
		}
		if err := insertIfGt(&lastSymlinkName, n.Name); err != nil {
			return err
		}
		if err := insertOnce(n.Name); err != nil {
			return err
		}
	}

	return nil
}

// Node is a tagged union of DirectoryNode, FileNode and SymlinkNode,
// used wherever a single "what lives at this path" is needed (§3).
type Node struct {
	Node isNode_Node
}

type isNode_Node interface {
	isNode_Node()
}

type Node_Directory struct {
	Directory *DirectoryNode
}

type Node_File struct {
	File *FileNode
}

type Node_Symlink struct {
	Symlink *SymlinkNode
}

func (*Node_Directory) isNode_Node() {}
func (*Node_File) isNode_Node()      {}
func (*Node_Symlink) isNode_Node()   {}

// GetDirectory returns the wrapped DirectoryNode, or nil if n is not a
// directory (or is nil).
func (n *Node) GetDirectory() *DirectoryNode {
	if n == nil {
		return nil
	}
	if v, ok := n.Node.(*Node_Directory); ok {
		return v.Directory
	}
	return nil
}

// GetFile returns the wrapped FileNode, or nil if n is not a file (or
// is nil).
func (n *Node) GetFile() *FileNode {
	if n == nil {
		return nil
	}
	if v, ok := n.Node.(*Node_File); ok {
		return v.File
	}
	return nil
}

// GetSymlink returns the wrapped SymlinkNode, or nil if n is not a
// symlink (or is nil).
func (n *Node) GetSymlink() *SymlinkNode {
	if n == nil {
		return nil
	}
	if v, ok := n.Node.(*Node_Symlink); ok {
		return v.Symlink
	}
	return nil
}

// Validate ensures exactly one of the three node kinds is populated,
// and that its name (if non-root) passes isValidName.
func (n *Node) Validate() error {
	var name []byte
	switch {
	case n.GetDirectory() != nil:
		name = n.GetDirectory().Name
		if len(n.GetDirectory().Digest) != 32 {
			return fmt.Errorf("invalid digest length for DirectoryNode: %d", len(n.GetDirectory().Digest))
		}
	case n.GetFile() != nil:
		name = n.GetFile().Name
		if len(n.GetFile().Digest) != 32 {
			return fmt.Errorf("invalid digest length for FileNode: %d", len(n.GetFile().Digest))
		}
	case n.GetSymlink() != nil:
		name = n.GetSymlink().Name
		if len(n.GetSymlink().Target) == 0 || bytes.Contains(n.GetSymlink().Target, []byte{0}) {
			return fmt.Errorf("invalid symlink target: %v", n.GetSymlink().Target)
		}
	default:
		return fmt.Errorf("node must have exactly one of directory, file or symlink set")
	}

	// Root nodes may carry an empty name (they're addressed externally);
	// anything else must still look like a valid path component.
	if len(name) != 0 && !isValidName(name) {
		return fmt.Errorf("invalid node name: %v", name)
	}

	return nil
}
