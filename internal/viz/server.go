package viz

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/observability"
)

// NewGRPCServer returns a gRPC server with the visualizer registered and
// the standard interceptor chain installed. collector may be nil.
func NewGRPCServer(svc VisualizerServer, log logging.Logger, collector *observability.VizCollector, extra ...grpc.ServerOption) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{
		RequestIDUnaryServerInterceptor(log),
		TracingUnaryServerInterceptor(),
	}
	if collector != nil {
		interceptors = append(interceptors, collector.UnaryServerInterceptor())
	}
	interceptors = append(interceptors, ErrorLoggingUnaryServerInterceptor())

	opts := append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptors...),
	}, extra...)

	server := grpc.NewServer(opts...)
	RegisterVisualizerServer(server, svc)
	return server
}
