package viz

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/logging"
)

// Client is a typed VisualizerService client.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a VisualizerService at target without transport security.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the connection.
func (c *Client) Close() error { return c.conn.Close() }

func invoke[Resp any](ctx context.Context, c *Client, method string, req any) (Resp, error) {
	var resp Resp
	in, err := EncodeStruct(req)
	if err != nil {
		return resp, err
	}
	if id := logging.RequestIDFromContext(ctx); id != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDMetadataKey, id)
	}
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return resp, err
	}
	if err := DecodeStruct(out, &resp); err != nil {
		return resp, fmt.Errorf("decode %s response: %w", method, err)
	}
	return resp, nil
}

// Markers calls GetMarkers.
func (c *Client) Markers(ctx context.Context, req MarkersRequest) (core.RenderBundle, error) {
	return invoke[core.RenderBundle](ctx, c, MethodGetMarkers, req)
}

// Frames calls GetMarkerFrames.
func (c *Client) Frames(ctx context.Context, req FramesRequest) (FramesResponse, error) {
	return invoke[FramesResponse](ctx, c, MethodGetMarkerFrames, req)
}

// Header calls GetMapHeader.
func (c *Client) Header(ctx context.Context, req HeaderRequest) (HeaderResponse, error) {
	return invoke[HeaderResponse](ctx, c, MethodGetMapHeader, req)
}

// SafeSeries calls GetSafeSeries.
func (c *Client) SafeSeries(ctx context.Context, req SafeSeriesRequest) (SafeSeriesResponse, error) {
	return invoke[SafeSeriesResponse](ctx, c, MethodGetSafeSeries, req)
}

// NodeSeries calls GetNodeSeries.
func (c *Client) NodeSeries(ctx context.Context, req NodeSeriesRequest) (core.NodeSeries, error) {
	return invoke[core.NodeSeries](ctx, c, MethodGetNodeSeries, req)
}

// Timeline calls GetTimeline.
func (c *Client) Timeline(ctx context.Context, req TimelineRequest) (TimelineResponse, error) {
	return invoke[TimelineResponse](ctx, c, MethodGetTimeline, req)
}

// Reload calls ReloadSnapshot.
func (c *Client) Reload(ctx context.Context, req ReloadRequest) (ReloadResponse, error) {
	return invoke[ReloadResponse](ctx, c, MethodReloadSnapshot, req)
}
