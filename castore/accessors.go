package castorev1

// Accessor methods mirroring the nil-safe getters protoc-gen-go would
// generate for these message shapes. Kept on plain structs since no
// protoc pipeline runs here (see DESIGN.md); callers throughout the
// nar and *service packages rely on these never panicking on nil
// receivers, exactly like generated getters do.

func (d *Directory) GetDirectories() []*DirectoryNode {
	if d == nil {
		return nil
	}
	return d.Directories
}

func (d *Directory) GetFiles() []*FileNode {
	if d == nil {
		return nil
	}
	return d.Files
}

func (d *Directory) GetSymlinks() []*SymlinkNode {
	if d == nil {
		return nil
	}
	return d.Symlinks
}

func (n *DirectoryNode) GetName() []byte {
	if n == nil {
		return nil
	}
	return n.Name
}

func (n *DirectoryNode) GetDigest() []byte {
	if n == nil {
		return nil
	}
	return n.Digest
}

func (n *DirectoryNode) GetSize() uint32 {
	if n == nil {
		return 0
	}
	return n.Size
}

func (n *FileNode) GetName() []byte {
	if n == nil {
		return nil
	}
	return n.Name
}

func (n *FileNode) GetDigest() []byte {
	if n == nil {
		return nil
	}
	return n.Digest
}

func (n *FileNode) GetSize() uint32 {
	if n == nil {
		return 0
	}
	return n.Size
}

func (n *FileNode) GetExecutable() bool {
	if n == nil {
		return false
	}
	return n.Executable
}

func (n *SymlinkNode) GetName() []byte {
	if n == nil {
		return nil
	}
	return n.Name
}

func (n *SymlinkNode) GetTarget() []byte {
	if n == nil {
		return nil
	}
	return n.Target
}

func (c *BlobChunk) GetData() []byte {
	if c == nil {
		return nil
	}
	return c.Data
}

func (r *ReadBlobRequest) GetDigest() []byte {
	if r == nil {
		return nil
	}
	return r.Digest
}

func (r *StatBlobRequest) GetDigest() []byte {
	if r == nil {
		return nil
	}
	return r.Digest
}

func (r *StatBlobResponse) GetChunks() []*ChunkMeta {
	if r == nil {
		return nil
	}
	return r.Chunks
}

func (c *ChunkMeta) GetDigest() []byte {
	if c == nil {
		return nil
	}
	return c.Digest
}

func (c *ChunkMeta) GetSize() uint64 {
	if c == nil {
		return 0
	}
	return c.Size
}

func (r *PutBlobResponse) GetDigest() []byte {
	if r == nil {
		return nil
	}
	return r.Digest
}

func (r *PutDirectoryResponse) GetRootDigest() []byte {
	if r == nil {
		return nil
	}
	return r.RootDigest
}
