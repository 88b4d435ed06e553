package castorev1

// RenamedNode returns a copy of n with its name replaced. The
// original node (and its digest/size/target) is left untouched; only
// the wrapper's name field changes. nar.GenPathInfo uses it to give
// the imported root node (which the NAR importer leaves unnamed) its
// store path basename.
func RenamedNode(n *Node, name string) *Node {
	switch v := n.Node.(type) {
	case *Node_Directory:
		return &Node{
			Node: &Node_Directory{
				Directory: &DirectoryNode{
					Name:   []byte(name),
					Digest: v.Directory.GetDigest(),
					Size:   v.Directory.GetSize(),
				},
			},
		}
	case *Node_File:
		return &Node{
			Node: &Node_File{
				File: &FileNode{
					Name:       []byte(name),
					Digest:     v.File.GetDigest(),
					Size:       v.File.GetSize(),
					Executable: v.File.GetExecutable(),
				},
			},
		}
	case *Node_Symlink:
		return &Node{
			Node: &Node_Symlink{
				Symlink: &SymlinkNode{
					Name:   []byte(name),
					Target: v.Symlink.GetTarget(),
				},
			},
		}
	default:
		return nil
	}
}
