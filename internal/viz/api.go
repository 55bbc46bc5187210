package viz

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "hazardscope.v1.VisualizerService"

// Method names.
const (
	MethodGetMarkers      = "GetMarkers"
	MethodGetMarkerFrames = "GetMarkerFrames"
	MethodGetMapHeader    = "GetMapHeader"
	MethodGetSafeSeries   = "GetSafeSeries"
	MethodGetNodeSeries   = "GetNodeSeries"
	MethodGetTimeline     = "GetTimeline"
	MethodReloadSnapshot  = "ReloadSnapshot"
)

// FullMethod returns the wire path of a VisualizerService method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// VisualizerServer is the server API for VisualizerService. Requests and
// responses travel as google.protobuf.Struct documents.
type VisualizerServer interface {
	GetMarkers(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMarkerFrames(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetMapHeader(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSafeSeries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNodeSeries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTimeline(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReloadSnapshot(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(VisualizerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(VisualizerServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(VisualizerServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes VisualizerService for grpc.Server registration.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VisualizerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: MethodGetMarkers, Handler: unaryHandler(MethodGetMarkers, VisualizerServer.GetMarkers)},
		{MethodName: MethodGetMarkerFrames, Handler: unaryHandler(MethodGetMarkerFrames, VisualizerServer.GetMarkerFrames)},
		{MethodName: MethodGetMapHeader, Handler: unaryHandler(MethodGetMapHeader, VisualizerServer.GetMapHeader)},
		{MethodName: MethodGetSafeSeries, Handler: unaryHandler(MethodGetSafeSeries, VisualizerServer.GetSafeSeries)},
		{MethodName: MethodGetNodeSeries, Handler: unaryHandler(MethodGetNodeSeries, VisualizerServer.GetNodeSeries)},
		{MethodName: MethodGetTimeline, Handler: unaryHandler(MethodGetTimeline, VisualizerServer.GetTimeline)},
		{MethodName: MethodReloadSnapshot, Handler: unaryHandler(MethodReloadSnapshot, VisualizerServer.ReloadSnapshot)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hazardscope/v1/visualizer.proto",
}

// RegisterVisualizerServer registers srv on s.
func RegisterVisualizerServer(s grpc.ServiceRegistrar, srv VisualizerServer) {
	s.RegisterService(&ServiceDesc, srv)
}
