package storev1

// GetPathInfoRequest looks a PathInfo up by the 20-byte Nix output
// hash (§4.3, §9 GLOSSARY "Output hash").
type GetPathInfoRequest struct {
	ByWhat isGetPathInfoRequest_ByWhat
}

type isGetPathInfoRequest_ByWhat interface {
	isGetPathInfoRequest_ByWhat()
}

type GetPathInfoRequest_ByOutputHash struct {
	ByOutputHash []byte
}

func (*GetPathInfoRequest_ByOutputHash) isGetPathInfoRequest_ByWhat() {}

func (r *GetPathInfoRequest) GetByOutputHash() []byte {
	if r == nil {
		return nil
	}
	if v, ok := r.ByWhat.(*GetPathInfoRequest_ByOutputHash); ok {
		return v.ByOutputHash
	}
	return nil
}

// CalculateNARResponse is the result of materializing the NAR
// rendering of a node without persisting it anywhere (§4.3).
type CalculateNARResponse struct {
	NarSize   uint64
	NarSha256 []byte
}

// ListPathInfoRequest carries no filter; List enumerates everything
// stored (§4.3).
type ListPathInfoRequest struct{}
