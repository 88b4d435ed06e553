package castorev1

// BlobChunk is a single flow-controlled chunk of blob content, as sent
// over the Read streaming RPC (§4.1).
type BlobChunk struct {
	Data []byte
}

// ReadBlobRequest asks for the full content of the blob addressed by
// Digest (§4.1).
type ReadBlobRequest struct {
	Digest []byte
}

// ChunkMeta describes one chunk of a blob's content for Stat responses
// that include chunking information.
type ChunkMeta struct {
	Digest []byte
	Size   uint64
}

// StatBlobRequest asks whether a blob exists, and optionally for its
// chunk boundaries and outboard BAO (§4.1).
type StatBlobRequest struct {
	Digest        []byte
	IncludeChunks bool
	IncludeBao    bool
}

// StatBlobResponse is returned by Stat for a blob that exists. Chunks
// is only populated when StatBlobRequest.IncludeChunks was set; an
// implementation that does not chunk blobs internally may always
// return a single chunk spanning the whole blob, or leave it empty.
// Bao carries the outboard Bao tree permitting verified partial reads,
// for servers that maintain one; it may stay empty.
type StatBlobResponse struct {
	Chunks []*ChunkMeta
	Bao    []byte
}

// PutBlobResponse carries the digest the server computed for the
// uploaded content (§4.1, Put idempotence property of §8).
type PutBlobResponse struct {
	Digest []byte
}
