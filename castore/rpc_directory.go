package castorev1

// GetDirectoryRequest asks the DirectoryService for a Directory message
// by digest, optionally closing over its entire transitive closure
// (§4.2).
type GetDirectoryRequest struct {
	ByWhat    isGetDirectoryRequest_ByWhat
	Recursive bool
}

type isGetDirectoryRequest_ByWhat interface {
	isGetDirectoryRequest_ByWhat()
}

// GetDirectoryRequest_Digest selects a Directory by its own digest,
// the only lookup key the core contract defines (§4.2).
type GetDirectoryRequest_Digest struct {
	Digest []byte
}

func (*GetDirectoryRequest_Digest) isGetDirectoryRequest_ByWhat() {}

// GetDigest returns the requested digest, or nil if ByWhat is unset or
// of an unrecognized kind.
func (r *GetDirectoryRequest) GetDigest() []byte {
	if r == nil {
		return nil
	}
	if v, ok := r.ByWhat.(*GetDirectoryRequest_Digest); ok {
		return v.Digest
	}
	return nil
}

// PutDirectoryResponse carries the digest of the last Directory
// message the server received on the Put stream — the root of the
// just-uploaded closure (§4.2).
type PutDirectoryResponse struct {
	RootDigest []byte
}
