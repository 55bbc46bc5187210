package viz

import (
	"context"
	"fmt"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/snapshot"
)

// DefaultMaxFrames caps the timesteps accepted by one GetMarkerFrames call.
const DefaultMaxFrames = 512

// Service implements VisualizerServer over a snapshot store.
type Service struct {
	store     *snapshot.Store
	log       logging.Logger
	maxFrames int
	workers   int
}

// ServiceOption customises Service construction.
type ServiceOption func(*Service)

// WithServiceLogger sets the fallback logger used when a request carries none.
func WithServiceLogger(l logging.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMaxFrames overrides DefaultMaxFrames.
func WithMaxFrames(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxFrames = n
		}
	}
}

// WithFrameWorkers bounds the goroutines composing frames concurrently.
func WithFrameWorkers(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewService binds a Service to store.
func NewService(store *snapshot.Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		log:       logging.Noop(),
		maxFrames: DefaultMaxFrames,
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var _ VisualizerServer = (*Service)(nil)

func (s *Service) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

func (s *Service) snapshot(name string) (*snapshot.Snapshot, error) {
	return s.store.Get(slotOrDefault(name))
}

func checkTimestep(t int) error {
	if t < 0 {
		return fmt.Errorf("%w: timestep %d is negative", ErrInvalidArgument, t)
	}
	return nil
}

// warnOffGrid logs requests for timesteps the scenario never extracts.
// Such requests are still composed.
func (s *Service) warnOffGrid(ctx context.Context, snap *snapshot.Snapshot, t int) {
	if snap.Grid.Contains(t) {
		return
	}
	s.logger(ctx).Warn(ctx, "timestep is off the extract grid",
		logging.String("snapshot", snap.Slot),
		logging.Int("timestep", t),
		logging.Int("interval", snap.Grid.Interval),
		logging.Int("length_seconds", snap.Grid.LengthSeconds),
	)
}

// Markers composes the RenderBundle for one timestep.
func (s *Service) Markers(ctx context.Context, req MarkersRequest) (core.RenderBundle, error) {
	if err := checkTimestep(req.Timestep); err != nil {
		return core.RenderBundle{}, err
	}
	snap, err := s.snapshot(req.Snapshot)
	if err != nil {
		return core.RenderBundle{}, err
	}
	ctx, span := StartChildSpan(ctx, "viz.compose", snap.Slot, attribute.Int("timestep", req.Timestep))
	defer span.End()
	s.warnOffGrid(ctx, snap, req.Timestep)

	bundle, err := snap.Composer(s.logger(ctx)).Compose(ctx, req.Timestep, selectionOrDefault(req.Selection), req.AgentScheme, req.HazardScheme)
	if err != nil {
		span.RecordError(err)
		return core.RenderBundle{}, err
	}
	return bundle, nil
}

// Frames composes bundles for each requested timestep concurrently and
// returns them in request order. Any failure fails the whole call.
func (s *Service) Frames(ctx context.Context, req FramesRequest) (FramesResponse, error) {
	if len(req.Timesteps) > s.maxFrames {
		return FramesResponse{}, fmt.Errorf("%w: %d timesteps requested, limit is %d", ErrInvalidArgument, len(req.Timesteps), s.maxFrames)
	}
	for _, t := range req.Timesteps {
		if err := checkTimestep(t); err != nil {
			return FramesResponse{}, err
		}
	}
	snap, err := s.snapshot(req.Snapshot)
	if err != nil {
		return FramesResponse{}, err
	}
	ctx, span := StartChildSpan(ctx, "viz.compose_frames", snap.Slot, attribute.Int("frames", len(req.Timesteps)))
	defer span.End()

	for _, t := range req.Timesteps {
		s.warnOffGrid(ctx, snap, t)
	}
	composer := snap.Composer(s.logger(ctx))
	selection := selectionOrDefault(req.Selection)
	frames := make([]core.RenderBundle, len(req.Timesteps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, t := range req.Timesteps {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := composer.Compose(gctx, t, selection, req.AgentScheme, req.HazardScheme)
			if err != nil {
				return err
			}
			frames[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return FramesResponse{}, err
	}
	return FramesResponse{Frames: frames}, nil
}

// Header returns the map caption.
func (s *Service) Header(_ context.Context, req HeaderRequest) (HeaderResponse, error) {
	snap, err := s.snapshot(req.Snapshot)
	if err != nil {
		return HeaderResponse{}, err
	}
	return HeaderResponse{Header: snap.Header(selectionOrDefault(req.Selection))}, nil
}

// SafeSeries returns the safe-agent counts up to the requested timestep.
func (s *Service) SafeSeries(_ context.Context, req SafeSeriesRequest) (SafeSeriesResponse, error) {
	if err := checkTimestep(req.Timestep); err != nil {
		return SafeSeriesResponse{}, err
	}
	snap, err := s.snapshot(req.Snapshot)
	if err != nil {
		return SafeSeriesResponse{}, err
	}
	return SafeSeriesResponse{Points: snap.Series().SafeCountSeries(req.Timestep)}, nil
}

// NodeSeries returns occupancy and panic histories for one node.
func (s *Service) NodeSeries(_ context.Context, req NodeSeriesRequest) (core.NodeSeries, error) {
	if req.NodeID == nil {
		return core.NodeSeries{}, fmt.Errorf("%w: node_id is required", ErrInvalidArgument)
	}
	if err := checkTimestep(req.Timestep); err != nil {
		return core.NodeSeries{}, err
	}
	snap, err := s.snapshot(req.Snapshot)
	if err != nil {
		return core.NodeSeries{}, err
	}
	return snap.Series().NodeSeries(*req.NodeID, req.Timestep)
}

// Timeline returns the slider, camera and timestep inventories.
func (s *Service) Timeline(_ context.Context, req TimelineRequest) (TimelineResponse, error) {
	snap, err := s.snapshot(req.Snapshot)
	if err != nil {
		return TimelineResponse{}, err
	}
	return TimelineResponse{
		Slider:          snap.Slider(),
		View:            snap.View(),
		Timesteps:       snap.Grid.Timesteps(),
		HazardTimesteps: snap.Log.HazardTimesteps(),
	}, nil
}

// Reload rebuilds a slot from its configured loader.
func (s *Service) Reload(ctx context.Context, req ReloadRequest) (ReloadResponse, error) {
	name := slotOrDefault(req.Snapshot)
	ctx, span := StartChildSpan(ctx, "viz.reload", name)
	defer span.End()

	snap, err := s.store.Reload(ctx, name)
	if err != nil {
		span.RecordError(err)
		return ReloadResponse{}, err
	}
	s.logger(ctx).Info(ctx, "snapshot reloaded",
		logging.String("slot", name),
		logging.String("snapshot_id", snap.ID.String()),
	)
	return ReloadResponse{Snapshot: snap.Summary()}, nil
}

// unary adapts a typed method to the Struct-based wire API.
func unary[Req, Resp any](ctx context.Context, in *structpb.Struct, fn func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := DecodeStruct(in, &req); err != nil {
		return nil, ToStatusError(err)
	}
	resp, err := fn(ctx, req)
	if err != nil {
		return nil, ToStatusError(err)
	}
	out, err := EncodeStruct(resp)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return out, nil
}

// GetMarkers implements VisualizerServer.
func (s *Service) GetMarkers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return unary(ctx, in, s.Markers)
}

// GetMarkerFrames implements VisualizerServer.
func (s *Service) GetMarkerFrames(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return unary(ctx, in, s.Frames)
}

// GetMapHeader implements VisualizerServer.
func (s *Service) GetMapHeader(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return unary(ctx, in, s.Header)
}

// GetSafeSeries implements VisualizerServer.
func (s *Service) GetSafeSeries(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return unary(ctx, in, s.SafeSeries)
}

// GetNodeSeries implements VisualizerServer.
func (s *Service) GetNodeSeries(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return unary(ctx, in, s.NodeSeries)
}

// GetTimeline implements VisualizerServer.
func (s *Service) GetTimeline(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return unary(ctx, in, s.Timeline)
}

// ReloadSnapshot implements VisualizerServer.
func (s *Service) ReloadSnapshot(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return unary(ctx, in, s.Reload)
}
