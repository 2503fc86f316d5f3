package grpccas

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
//
// The service uses protobuf well-known types only, so no generated code is
// needed:
//
//	service EnvelopeStore {
//	  rpc Put(google.protobuf.BytesValue) returns (google.protobuf.StringValue);
//	  rpc Get(google.protobuf.StringValue) returns (google.protobuf.BytesValue);
//	  rpc Has(google.protobuf.StringValue) returns (google.protobuf.BoolValue);
//	  rpc Inspect(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	}
const ServiceName = "sealkit.storage.v1.EnvelopeStore"

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// EnvelopeStoreServer is the server API for the EnvelopeStore service.
type EnvelopeStoreServer interface {
	Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Inspect(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// UnimplementedEnvelopeStoreServer can be embedded for forward compatibility.
type UnimplementedEnvelopeStoreServer struct{}

func (UnimplementedEnvelopeStoreServer) Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Put not implemented")
}
func (UnimplementedEnvelopeStoreServer) Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Get not implemented")
}
func (UnimplementedEnvelopeStoreServer) Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method Has not implemented")
}
func (UnimplementedEnvelopeStoreServer) Inspect(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Inspect not implemented")
}

// RegisterEnvelopeStoreServer registers srv on s.
func RegisterEnvelopeStoreServer(s grpc.ServiceRegistrar, srv EnvelopeStoreServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds a method descriptor that decodes a Req and dispatches to call.
func unary[Req proto.Message](name string, newReq func() Req, call func(EnvelopeStoreServer, context.Context, Req) (any, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(EnvelopeStoreServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(Req))
			})
		},
	}
}

func newString() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }

// ServiceDesc is the grpc.ServiceDesc for the EnvelopeStore service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EnvelopeStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Put", func() *wrapperspb.BytesValue { return new(wrapperspb.BytesValue) },
			func(s EnvelopeStoreServer, ctx context.Context, in *wrapperspb.BytesValue) (any, error) {
				return s.Put(ctx, in)
			}),
		unary("Get", newString,
			func(s EnvelopeStoreServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Get(ctx, in)
			}),
		unary("Has", newString,
			func(s EnvelopeStoreServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Has(ctx, in)
			}),
		unary("Inspect", newString,
			func(s EnvelopeStoreServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return s.Inspect(ctx, in)
			}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "envelope_store.proto",
}

// EnvelopeStoreClient is the client API for the EnvelopeStore service.
type EnvelopeStoreClient interface {
	Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
	Inspect(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type envelopeStoreClient struct{ cc grpc.ClientConnInterface }

func NewEnvelopeStoreClient(cc grpc.ClientConnInterface) EnvelopeStoreClient {
	return &envelopeStoreClient{cc: cc}
}

func invoke[Resp proto.Message](ctx context.Context, cc grpc.ClientConnInterface, name string, in proto.Message, out Resp, opts []grpc.CallOption) (Resp, error) {
	if err := cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		var zero Resp
		return zero, err
	}
	return out, nil
}

func (c *envelopeStoreClient) Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke(ctx, c.cc, "Put", in, new(wrapperspb.StringValue), opts)
}

func (c *envelopeStoreClient) Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke(ctx, c.cc, "Get", in, new(wrapperspb.BytesValue), opts)
}

func (c *envelopeStoreClient) Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	return invoke(ctx, c.cc, "Has", in, new(wrapperspb.BoolValue), opts)
}

func (c *envelopeStoreClient) Inspect(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, "Inspect", in, new(structpb.Struct), opts)
}
