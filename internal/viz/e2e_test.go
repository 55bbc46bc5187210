package viz

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/observability"
)

func startServer(t *testing.T) (*Client, *observability.VizCollector) {
	t.Helper()

	svc, _ := newServiceForTest(t)
	collector, err := observability.NewVizCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewVizCollector error: %v", err)
	}
	server := NewGRPCServer(svc, logging.Noop(), collector)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	client, err := Dial(lis.Addr().String())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, collector
}

func TestEndToEndMarkers(t *testing.T) {
	client, collector := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ctx = logging.ContextWithRequestID(ctx, "req-e2e")

	b, err := client.Markers(ctx, MarkersRequest{Timestep: 100, Selection: strPtr("hazard")})
	if err != nil {
		t.Fatalf("Markers RPC error: %v", err)
	}
	hazard, ok := b.Layer(core.LayerHazard)
	if !ok {
		t.Fatalf("bundle layers = %v, want hazard layer", layerNames(b))
	}
	if _, ok := b.Layer(core.LayerPeople); ok {
		t.Fatalf("hazard selection carried the people layer")
	}
	if got := hazard.Markers[1].Class; got != "band1" {
		t.Fatalf("node 2 hazard class = %q, want band1", got)
	}
	if got := hazard.Markers[1].Color.String(); got != "rgba(127, 179, 213, 0.7)" {
		t.Fatalf("node 2 hazard colour = %q", got)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("VisualizerService", MethodGetMarkers, codes.OK.String())); got != 1 {
		t.Fatalf("viz_requests_total{GetMarkers,OK} = %v, want 1", got)
	}
}

func TestEndToEndErrorCodes(t *testing.T) {
	client, collector := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tests := []struct {
		name string
		call func() error
		code codes.Code
	}{
		{
			name: "missing hazard column",
			call: func() error { _, err := client.Markers(ctx, MarkersRequest{Timestep: 300}); return err },
			code: codes.NotFound,
		},
		{
			name: "unknown hazard palette",
			call: func() error {
				_, err := client.Markers(ctx, MarkersRequest{Timestep: 0, HazardScheme: "Plaid"})
				return err
			},
			code: codes.InvalidArgument,
		},
		{
			name: "unknown node",
			call: func() error {
				_, err := client.NodeSeries(ctx, NodeSeriesRequest{NodeID: intPtr(42), Timestep: 0})
				return err
			},
			code: codes.NotFound,
		},
		{
			name: "empty slot",
			call: func() error { _, err := client.Header(ctx, HeaderRequest{Snapshot: "configured"}); return err },
			code: codes.NotFound,
		},
		{
			name: "reload without loader",
			call: func() error { _, err := client.Reload(ctx, ReloadRequest{Snapshot: "configured"}); return err },
			code: codes.FailedPrecondition,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if code := status.Code(err); code != tc.code {
				t.Fatalf("code = %v (%v), want %v", code, err, tc.code)
			}
		})
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("VisualizerService", MethodGetMarkers, codes.NotFound.String())); got != 1 {
		t.Fatalf("viz_requests_total{GetMarkers,NotFound} = %v, want 1", got)
	}
}

func TestEndToEndFramesAndHeader(t *testing.T) {
	client, _ := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	frames, err := client.Frames(ctx, FramesRequest{Timesteps: []int{0, 100, 200}, Selection: strPtr("people")})
	if err != nil {
		t.Fatalf("Frames RPC error: %v", err)
	}
	for i, f := range frames.Frames {
		if f.Time != i*100 {
			t.Fatalf("frame %d time = %d", i, f.Time)
		}
		if _, ok := f.Layer(core.LayerHazard); ok {
			t.Fatalf("frame %d carried the hazard layer for people selection", i)
		}
	}

	hdr, err := client.Header(ctx, HeaderRequest{})
	if err != nil {
		t.Fatalf("Header RPC error: %v", err)
	}
	if hdr.Header == "" {
		t.Fatalf("Header = empty")
	}
}

func TestDecodeStructRejectsUnknownFields(t *testing.T) {
	in, err := EncodeStruct(map[string]any{"timestep": 100, "colour": "red"})
	if err != nil {
		t.Fatalf("EncodeStruct error: %v", err)
	}
	var req MarkersRequest
	if err := DecodeStruct(in, &req); status.Code(ToStatusError(err)) != codes.InvalidArgument {
		t.Fatalf("DecodeStruct error = %v, want InvalidArgument", err)
	}
}
