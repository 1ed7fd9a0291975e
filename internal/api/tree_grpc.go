package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name of the tree store.
const ServiceName = "letschat.tree.v1.TreeService"

// Full method names, as used by clients and interceptors.
const (
	MethodGet            = "/" + ServiceName + "/Get"
	MethodSet            = "/" + ServiceName + "/Set"
	MethodUpdate         = "/" + ServiceName + "/Update"
	MethodPush           = "/" + ServiceName + "/Push"
	MethodRemove         = "/" + ServiceName + "/Remove"
	MethodCompareAndSwap = "/" + ServiceName + "/CompareAndSwap"
	MethodWatch          = "/" + ServiceName + "/Watch"
)

// TreeServer is the server side of the tree service. Requests and responses
// are protobuf well-known types: paths travel as StringValue, tree values as
// structpb.Value, and multi-field requests as a Struct (see the New*Request
// helpers).
type TreeServer interface {
	Get(context.Context, *wrapperspb.StringValue) (*structpb.Value, error)
	Set(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Update(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Push(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error)
	Remove(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	CompareAndSwap(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	Watch(*wrapperspb.StringValue, grpc.ServerStream) error
}

// UnimplementedTreeServer answers every call with codes.Unimplemented.
type UnimplementedTreeServer struct{}

func (UnimplementedTreeServer) Get(context.Context, *wrapperspb.StringValue) (*structpb.Value, error) {
	return nil, grpcstatus.Error(codes.Unimplemented, "method Get not implemented")
}

func (UnimplementedTreeServer) Set(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, grpcstatus.Error(codes.Unimplemented, "method Set not implemented")
}

func (UnimplementedTreeServer) Update(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, grpcstatus.Error(codes.Unimplemented, "method Update not implemented")
}

func (UnimplementedTreeServer) Push(context.Context, *structpb.Struct) (*wrapperspb.StringValue, error) {
	return nil, grpcstatus.Error(codes.Unimplemented, "method Push not implemented")
}

func (UnimplementedTreeServer) Remove(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error) {
	return nil, grpcstatus.Error(codes.Unimplemented, "method Remove not implemented")
}

func (UnimplementedTreeServer) CompareAndSwap(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error) {
	return nil, grpcstatus.Error(codes.Unimplemented, "method CompareAndSwap not implemented")
}

func (UnimplementedTreeServer) Watch(*wrapperspb.StringValue, grpc.ServerStream) error {
	return grpcstatus.Error(codes.Unimplemented, "method Watch not implemented")
}

// RegisterTreeServer registers srv on s.
func RegisterTreeServer(s grpc.ServiceRegistrar, srv TreeServer) {
	s.RegisterService(&TreeServiceDesc, srv)
}

// TreeServiceDesc describes the tree service without generated code.
var TreeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TreeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Get", MethodGet, newStringValue, TreeServer.Get),
		unary("Set", MethodSet, newStruct, TreeServer.Set),
		unary("Update", MethodUpdate, newStruct, TreeServer.Update),
		unary("Push", MethodPush, newStruct, TreeServer.Push),
		unary("Remove", MethodRemove, newStringValue, TreeServer.Remove),
		unary("CompareAndSwap", MethodCompareAndSwap, newStruct, TreeServer.CompareAndSwap),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "letschat/tree/v1/tree.proto",
}

func newStringValue() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }
func newStruct() *structpb.Struct { return new(structpb.Struct) }

func unary[Req, Resp proto.Message](name, fullMethod string, newReq func() Req, call func(TreeServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(TreeServer), ctx, req.(Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			return interceptor(ctx, in, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}, handler)
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(wrapperspb.StringValue)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(TreeServer).Watch(in, stream)
}
