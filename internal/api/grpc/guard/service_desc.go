package guard

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "tagguard.v1.GuardService"
	// GetStatusMethod is the full method name of GetStatus.
	GetStatusMethod = "/" + ServiceName + "/GetStatus"
	// RegisterDeviceMethod is the full method name of RegisterDevice.
	RegisterDeviceMethod = "/" + ServiceName + "/RegisterDevice"
)

// GuardServer is the server API of GuardService.
type GuardServer interface {
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	RegisterDevice(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// GuardServiceDesc describes GuardService for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by grpc convention.
var GuardServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GuardServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler:    getStatusHandler,
		},
		{
			MethodName: "RegisterDevice",
			Handler:    registerDeviceHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tagguard/v1/guard.proto",
}

// RegisterGuardServer registers srv on s.
func RegisterGuardServer(s grpc.ServiceRegistrar, srv GuardServer) {
	s.RegisterService(&GuardServiceDesc, srv)
}

func getStatusHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(GuardServer).GetStatus(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetStatusMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GuardServer).GetStatus(ctx, req.(*emptypb.Empty)) //nolint:forcetypeassert // Same as above.
	}

	return interceptor(ctx, in, info, handler)
}

func registerDeviceHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(GuardServer).RegisterDevice(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: RegisterDeviceMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GuardServer).RegisterDevice(ctx, req.(*structpb.Struct)) //nolint:forcetypeassert // Same as above.
	}

	return interceptor(ctx, in, info, handler)
}

// GuardClient is the client API of GuardService.
type GuardClient interface {
	GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	RegisterDevice(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type guardClient struct {
	cc grpc.ClientConnInterface
}

// NewGuardClient returns a GuardService client on cc.
func NewGuardClient(cc grpc.ClientConnInterface) GuardClient { //nolint:ireturn // Mirrors generated clients.
	return &guardClient{cc: cc}
}

func (c *guardClient) GetStatus(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStatusMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *guardClient) RegisterDevice(
	ctx context.Context,
	in *structpb.Struct,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RegisterDeviceMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
