package alarm

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "gravity.alarm.v1.AlarmService"

// Full method names, as seen by interceptors and stats handlers.
const (
	PostEventFullMethod = "/" + ServiceName + "/PostEvent"
	GetStateFullMethod  = "/" + ServiceName + "/GetState"
	WatchFullMethod     = "/" + ServiceName + "/Watch"
)

// AlarmServiceServer is the server API of the alarm service.
type AlarmServiceServer interface {
	// PostEvent delivers one inbound event kind to the service.
	PostEvent(ctx context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error)
	// GetState returns the current alarm snapshot.
	GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	// Watch streams the current snapshot followed by every outbound event.
	Watch(req *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error
}

// AlarmServiceClient is the client API of the alarm service.
type AlarmServiceClient interface {
	PostEvent(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error)
	GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	Watch(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (grpc.ServerStreamingClient[structpb.Struct], error)
}

// ServiceDesc describes the alarm service for grpc.Server registration.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AlarmServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "PostEvent",
			Handler:    postEventHandler,
		},
		{
			MethodName: "GetState",
			Handler:    getStateHandler,
		},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "gravity/alarm/v1/alarm.proto",
}

// RegisterAlarmServiceServer registers srv on s.
func RegisterAlarmServiceServer(s grpc.ServiceRegistrar, srv AlarmServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// postEventHandler decodes a PostEvent request and runs it through the interceptor chain.
func postEventHandler(
	srv any,
	ctx context.Context,
	dec func(any) error,
	interceptor grpc.UnaryServerInterceptor,
) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}

	if interceptor == nil {
		return srv.(AlarmServiceServer).PostEvent(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PostEventFullMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlarmServiceServer).PostEvent(ctx, req.(*wrapperspb.StringValue)) //nolint:forcetypeassert // Ditto.
	}

	return interceptor(ctx, in, info, handler)
}

// getStateHandler decodes a GetState request and runs it through the interceptor chain.
func getStateHandler(
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
		return srv.(AlarmServiceServer).GetState(ctx, in) //nolint:forcetypeassert // Guaranteed by HandlerType.
	}

	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: GetStateFullMethod,
	}

	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AlarmServiceServer).GetState(ctx, req.(*emptypb.Empty)) //nolint:forcetypeassert // Ditto.
	}

	return interceptor(ctx, in, info, handler)
}

// watchHandler reads the Watch request and hands the stream to the server.
func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	return srv.(AlarmServiceServer).Watch( //nolint:forcetypeassert // Guaranteed by HandlerType.
		in,
		&grpc.GenericServerStream[emptypb.Empty, structpb.Struct]{ServerStream: stream},
	)
}

// alarmServiceClient calls the alarm service over a connection.
type alarmServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAlarmServiceClient returns a client bound to cc.
func NewAlarmServiceClient(cc grpc.ClientConnInterface) AlarmServiceClient {
	return &alarmServiceClient{cc: cc}
}

// PostEvent implements AlarmServiceClient.
func (c *alarmServiceClient) PostEvent(
	ctx context.Context,
	in *wrapperspb.StringValue,
	opts ...grpc.CallOption,
) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, PostEventFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// GetState implements AlarmServiceClient.
func (c *alarmServiceClient) GetState(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetStateFullMethod, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// Watch implements AlarmServiceClient.
func (c *alarmServiceClient) Watch(
	ctx context.Context,
	in *emptypb.Empty,
	opts ...grpc.CallOption,
) (grpc.ServerStreamingClient[structpb.Struct], error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], WatchFullMethod, opts...)
	if err != nil {
		return nil, err
	}

	x := &grpc.GenericClientStream[emptypb.Empty, structpb.Struct]{ClientStream: stream}
	if err := x.SendMsg(in); err != nil {
		return nil, err
	}

	if err := x.CloseSend(); err != nil {
		return nil, err
	}

	return x, nil
}
