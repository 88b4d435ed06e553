// Code generated in the style of protoc-gen-go-grpc; hand-maintained
// here because this repository's build never invokes protoc (see
// DESIGN.md). Source of truth: the DirectoryService contract of §4.2.
package castorev1

import (
	context "context"

	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
)

const (
	DirectoryService_Get_FullMethodName = "/tvix.castore.v1.DirectoryService/Get"
	DirectoryService_Put_FullMethodName = "/tvix.castore.v1.DirectoryService/Put"
)

// DirectoryServiceClient is the client API for DirectoryService.
type DirectoryServiceClient interface {
	// Get looks up one Directory by digest, and (if Recursive is set)
	// streams back its full transitive closure in reverse breadth-first
	// order, ending with the requested Directory.
	Get(ctx context.Context, in *GetDirectoryRequest, opts ...grpc.CallOption) (DirectoryService_GetClient, error)
	// Put uploads a stream of Directory messages, children before the
	// parents that reference them.
	Put(ctx context.Context, opts ...grpc.CallOption) (DirectoryService_PutClient, error)
}

type directoryServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewDirectoryServiceClient(cc grpc.ClientConnInterface) DirectoryServiceClient {
	return &directoryServiceClient{cc}
}

func (c *directoryServiceClient) Get(ctx context.Context, in *GetDirectoryRequest, opts ...grpc.CallOption) (DirectoryService_GetClient, error) {
	stream, err := c.cc.NewStream(ctx, &DirectoryService_ServiceDesc.Streams[0], DirectoryService_Get_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &directoryServiceGetClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type DirectoryService_GetClient interface {
	Recv() (*Directory, error)
	grpc.ClientStream
}

type directoryServiceGetClient struct {
	grpc.ClientStream
}

func (x *directoryServiceGetClient) Recv() (*Directory, error) {
	m := new(Directory)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *directoryServiceClient) Put(ctx context.Context, opts ...grpc.CallOption) (DirectoryService_PutClient, error) {
	stream, err := c.cc.NewStream(ctx, &DirectoryService_ServiceDesc.Streams[1], DirectoryService_Put_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	return &directoryServicePutClient{stream}, nil
}

type DirectoryService_PutClient interface {
	Send(*Directory) error
	CloseAndRecv() (*PutDirectoryResponse, error)
	grpc.ClientStream
}

type directoryServicePutClient struct {
	grpc.ClientStream
}

func (x *directoryServicePutClient) Send(m *Directory) error {
	return x.ClientStream.SendMsg(m)
}

func (x *directoryServicePutClient) CloseAndRecv() (*PutDirectoryResponse, error) {
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	m := new(PutDirectoryResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// DirectoryServiceServer is the server API for DirectoryService. All
// implementations must embed UnimplementedDirectoryServiceServer for
// forward compatibility.
type DirectoryServiceServer interface {
	Get(*GetDirectoryRequest, DirectoryService_GetServer) error
	Put(DirectoryService_PutServer) error
	mustEmbedUnimplementedDirectoryServiceServer()
}

type UnimplementedDirectoryServiceServer struct{}

func (UnimplementedDirectoryServiceServer) Get(*GetDirectoryRequest, DirectoryService_GetServer) error {
	return status.Errorf(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedDirectoryServiceServer) Put(DirectoryService_PutServer) error {
	return status.Errorf(codes.Unimplemented, "method Put not implemented")
}
func (UnimplementedDirectoryServiceServer) mustEmbedUnimplementedDirectoryServiceServer() {}

type UnsafeDirectoryServiceServer interface {
	mustEmbedUnimplementedDirectoryServiceServer()
}

func RegisterDirectoryServiceServer(s grpc.ServiceRegistrar, srv DirectoryServiceServer) {
	s.RegisterService(&DirectoryService_ServiceDesc, srv)
}

func _DirectoryService_Get_Handler(srv interface{}, stream grpc.ServerStream) error {
	m := new(GetDirectoryRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(DirectoryServiceServer).Get(m, &directoryServiceGetServer{stream})
}

type DirectoryService_GetServer interface {
	Send(*Directory) error
	grpc.ServerStream
}

type directoryServiceGetServer struct {
	grpc.ServerStream
}

func (x *directoryServiceGetServer) Send(m *Directory) error {
	return x.ServerStream.SendMsg(m)
}

func _DirectoryService_Put_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(DirectoryServiceServer).Put(&directoryServicePutServer{stream})
}

type DirectoryService_PutServer interface {
	SendAndClose(*PutDirectoryResponse) error
	Recv() (*Directory, error)
	grpc.ServerStream
}

type directoryServicePutServer struct {
	grpc.ServerStream
}

func (x *directoryServicePutServer) SendAndClose(m *PutDirectoryResponse) error {
	return x.ServerStream.SendMsg(m)
}

func (x *directoryServicePutServer) Recv() (*Directory, error) {
	m := new(Directory)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// DirectoryService_ServiceDesc is the grpc.ServiceDesc for
// DirectoryService. It is only intended for direct use with
// grpc.RegisterService.
var DirectoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "tvix.castore.v1.DirectoryService",
	HandlerType: (*DirectoryServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Get",
			Handler:       _DirectoryService_Get_Handler,
			ServerStreams: true,
		},
		{
			StreamName:    "Put",
			Handler:       _DirectoryService_Put_Handler,
			ClientStreams: true,
		},
	},
	Metadata: "tvix/castore/v1/rpc_directory.proto",
}
