// Code generated in the style of protoc-gen-go-grpc; hand-maintained
// here because this repository's build never invokes protoc (see
// DESIGN.md). Source of truth: the PathInfoService contract of §4.3.
package storev1

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"

	castorev1 "tvix.dev/store-engine/castore"
)

const (
	PathInfoService_Get_FullMethodName          = "/tvix.store.v1.PathInfoService/Get"
	PathInfoService_Put_FullMethodName          = "/tvix.store.v1.PathInfoService/Put"
	PathInfoService_CalculateNAR_FullMethodName = "/tvix.store.v1.PathInfoService/CalculateNAR"
	PathInfoService_List_FullMethodName         = "/tvix.store.v1.PathInfoService/List"
)

// PathInfoServiceClient is the client API for PathInfoService.
type PathInfoServiceClient interface {
	// Get retrieves a PathInfo object by the lookup parameters in
	// GetPathInfoRequest. Any DirectoryNode it carries needs to be
	// looked up separately via the DirectoryService.
	Get(ctx context.Context, in *GetPathInfoRequest, opts ...grpc.CallOption) (*PathInfo, error)
	// Put uploads a PathInfo object. It does not upload the referenced
	// Blobs/Directories; callers are responsible for making those
	// available first.
	Put(ctx context.Context, in *PathInfo, opts ...grpc.CallOption) (*PathInfo, error)
	// CalculateNAR walks the content-addressed graph rooted at a node
	// and returns the NAR size and SHA-256 it would render to, without
	// persisting anything.
	CalculateNAR(ctx context.Context, in *castorev1.Node, opts ...grpc.CallOption) (*CalculateNARResponse, error)
	// List enumerates all stored PathInfos.
	List(ctx context.Context, in *ListPathInfoRequest, opts ...grpc.CallOption) (PathInfoService_ListClient, error)
}

type pathInfoServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewPathInfoServiceClient(cc grpc.ClientConnInterface) PathInfoServiceClient {
	return &pathInfoServiceClient{cc}
}

func (c *pathInfoServiceClient) Get(ctx context.Context, in *GetPathInfoRequest, opts ...grpc.CallOption) (*PathInfo, error) {
	out := new(PathInfo)
	if err := c.cc.Invoke(ctx, PathInfoService_Get_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pathInfoServiceClient) Put(ctx context.Context, in *PathInfo, opts ...grpc.CallOption) (*PathInfo, error) {
	out := new(PathInfo)
	if err := c.cc.Invoke(ctx, PathInfoService_Put_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pathInfoServiceClient) CalculateNAR(ctx context.Context, in *castorev1.Node, opts ...grpc.CallOption) (*CalculateNARResponse, error) {
	out := new(CalculateNARResponse)
	if err := c.cc.Invoke(ctx, PathInfoService_CalculateNAR_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *pathInfoServiceClient) List(ctx context.Context, in *ListPathInfoRequest, opts ...grpc.CallOption) (PathInfoService_ListClient, error) {
	stream, err := c.cc.NewStream(ctx, &PathInfoService_ServiceDesc.Streams[0], PathInfoService_List_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &pathInfoServiceListClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type PathInfoService_ListClient interface {
	Recv() (*PathInfo, error)
	grpc.ClientStream
}

type pathInfoServiceListClient struct {
	grpc.ClientStream
}

func (x *pathInfoServiceListClient) Recv() (*PathInfo, error) {
	m := new(PathInfo)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// PathInfoServiceServer is the server API for PathInfoService. All
// implementations must embed UnimplementedPathInfoServiceServer for
// forward compatibility.
type PathInfoServiceServer interface {
	Get(context.Context, *GetPathInfoRequest) (*PathInfo, error)
	Put(context.Context, *PathInfo) (*PathInfo, error)
	CalculateNAR(context.Context, *castorev1.Node) (*CalculateNARResponse, error)
	List(*ListPathInfoRequest, PathInfoService_ListServer) error
	mustEmbedUnimplementedPathInfoServiceServer()
}

type UnimplementedPathInfoServiceServer struct{}

func (UnimplementedPathInfoServiceServer) Get(context.Context, *GetPathInfoRequest) (*PathInfo, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedPathInfoServiceServer) Put(context.Context, *PathInfo) (*PathInfo, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Put not implemented")
}
func (UnimplementedPathInfoServiceServer) CalculateNAR(context.Context, *castorev1.Node) (*CalculateNARResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method CalculateNAR not implemented")
}
func (UnimplementedPathInfoServiceServer) List(*ListPathInfoRequest, PathInfoService_ListServer) error {
	return status.Errorf(codes.Unimplemented, "method List not implemented")
}
func (UnimplementedPathInfoServiceServer) mustEmbedUnimplementedPathInfoServiceServer() {}

type UnsafePathInfoServiceServer interface {
	mustEmbedUnimplementedPathInfoServiceServer()
}

func RegisterPathInfoServiceServer(s grpc.ServiceRegistrar, srv PathInfoServiceServer) {
	s.RegisterService(&PathInfoService_ServiceDesc, srv)
}

func _PathInfoService_Get_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetPathInfoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PathInfoServiceServer).Get(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PathInfoService_Get_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PathInfoServiceServer).Get(ctx, req.(*GetPathInfoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PathInfoService_Put_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PathInfo)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PathInfoServiceServer).Put(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PathInfoService_Put_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PathInfoServiceServer).Put(ctx, req.(*PathInfo))
	}
	return interceptor(ctx, in, info, handler)
}

func _PathInfoService_CalculateNAR_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(castorev1.Node)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PathInfoServiceServer).CalculateNAR(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: PathInfoService_CalculateNAR_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PathInfoServiceServer).CalculateNAR(ctx, req.(*castorev1.Node))
	}
	return interceptor(ctx, in, info, handler)
}

func _PathInfoService_List_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(ListPathInfoRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(PathInfoServiceServer).List(m, &pathInfoServiceListServer{stream})
}

type PathInfoService_ListServer interface {
	Send(*PathInfo) error
	grpc.ServerStream
}

type pathInfoServiceListServer struct {
	grpc.ServerStream
}

func (x *pathInfoServiceListServer) Send(m *PathInfo) error {
	return x.ServerStream.SendMsg(m)
}

// PathInfoService_ServiceDesc is the grpc.ServiceDesc for
// PathInfoService. It is only intended for direct use with
// grpc.RegisterService.
var PathInfoService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "tvix.store.v1.PathInfoService",
	HandlerType: (*PathInfoServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Get",
			Handler:    _PathInfoService_Get_Handler,
		},
		{
			MethodName: "Put",
			Handler:    _PathInfoService_Put_Handler,
		},
		{
			MethodName: "CalculateNAR",
			Handler:    _PathInfoService_CalculateNAR_Handler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "List",
			Handler:       _PathInfoService_List_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "tvix/store/v1/rpc_pathinfo.proto",
}
