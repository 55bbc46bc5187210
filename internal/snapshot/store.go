package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/source"
)

// Well-known slot names.
const (
	SlotPreloaded  = "preloaded"
	SlotConfigured = "configured"
)

var (
	// ErrSnapshotNotFound indicates no snapshot is published in the slot.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrNoLoader indicates a reload was requested for a slot with no loader.
	ErrNoLoader = errors.New("no loader configured for slot")
)

// MetricsRecorder receives snapshot sizes and reload outcomes.
type MetricsRecorder interface {
	SetSnapshotCounts(slot string, nodes, observations, timesteps int)
	ObserveReload(slot string, err error, d time.Duration)
}

type slot struct {
	current atomic.Pointer[Snapshot]
	reload  sync.Mutex
	loader  source.Loader
}

// Store holds named snapshot slots. Get never blocks; reloads of one slot
// are serialised and reloads of different slots run independently.
type Store struct {
	mu    sync.RWMutex
	slots map[string]*slot

	log     logging.Logger
	metrics MetricsRecorder
}

// StoreOption customises Store construction.
type StoreOption func(*Store)

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetricsRecorder attaches an optional metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore returns an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		slots: make(map[string]*slot),
		log:   logging.Noop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) slot(name string, create bool) *slot {
	s.mu.RLock()
	sl := s.slots[name]
	s.mu.RUnlock()
	if sl != nil || !create {
		return sl
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sl = s.slots[name]; sl == nil {
		sl = &slot{}
		s.slots[name] = sl
	}
	return sl
}

// SetLoader registers the loader used by Reload for slot.
func (s *Store) SetLoader(name string, l source.Loader) {
	sl := s.slot(name, true)
	sl.reload.Lock()
	sl.loader = l
	sl.reload.Unlock()
}

// Get returns the snapshot currently published in slot.
func (s *Store) Get(name string) (*Snapshot, error) {
	if sl := s.slot(name, false); sl != nil {
		if snap := sl.current.Load(); snap != nil {
			return snap, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSnapshotNotFound, name)
}

// Reload reads slot's loader again and publishes the result.
func (s *Store) Reload(ctx context.Context, name string) (*Snapshot, error) {
	sl := s.slot(name, false)
	if sl == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoLoader, name)
	}
	sl.reload.Lock()
	defer sl.reload.Unlock()
	if sl.loader == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoLoader, name)
	}
	return s.publishLocked(ctx, name, sl, sl.loader.Load, sl.loader.String())
}

// Load registers l for slot and publishes its first snapshot.
func (s *Store) Load(ctx context.Context, name string, l source.Loader) (*Snapshot, error) {
	s.SetLoader(name, l)
	return s.Reload(ctx, name)
}

func (s *Store) publishLocked(ctx context.Context, name string, sl *slot, load func(context.Context) (*source.Dataset, error), from string) (*Snapshot, error) {
	start := time.Now()
	snap, err := func() (*Snapshot, error) {
		ds, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return Build(name, ds)
	}()
	if s.metrics != nil {
		s.metrics.ObserveReload(name, err, time.Since(start))
	}
	if err != nil {
		fields := []logging.Field{logging.String("slot", name), logging.Err(err)}
		if prev := sl.current.Load(); prev != nil {
			fields = append(fields, logging.String("kept_snapshot", prev.ID.String()))
		}
		s.log.Error(ctx, "snapshot load failed", fields...)
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}

	snap.Source = from
	sl.current.Store(snap)

	sum := snap.Summary()
	if s.metrics != nil {
		s.metrics.SetSnapshotCounts(name, sum.Nodes, sum.AgentObservations, sum.Timesteps)
	}
	s.log.Info(ctx, "snapshot published",
		logging.String("slot", name),
		logging.String("snapshot_id", sum.ID),
		logging.String("source", from),
		logging.Int("nodes", sum.Nodes),
		logging.Int("agent_observations", sum.AgentObservations),
		logging.Int("timesteps", sum.Timesteps),
		logging.Duration("took", time.Since(start)),
	)
	return snap, nil
}

// ReloadAll reloads every slot with a loader, returning the joined errors.
func (s *Store) ReloadAll(ctx context.Context) error {
	var errs []error
	for _, name := range s.Slots() {
		sl := s.slot(name, false)
		sl.reload.Lock()
		hasLoader := sl.loader != nil
		sl.reload.Unlock()
		if !hasLoader {
			continue
		}
		if _, err := s.Reload(ctx, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Slots lists slot names in sorted order.
func (s *Store) Slots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.slots))
	for name := range s.slots {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Summaries describes every published snapshot.
func (s *Store) Summaries() []Summary {
	var out []Summary
	for _, name := range s.Slots() {
		if snap, err := s.Get(name); err == nil {
			out = append(out, snap.Summary())
		}
	}
	return out
}
