package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/signalsfoundry/hazardscope/kb"
	"github.com/signalsfoundry/hazardscope/model"
	"github.com/signalsfoundry/hazardscope/timectrl"
)

func TestSafeCountSeries(t *testing.T) {
	f := loadFixture(t)
	s := NewSeriesAggregator(f.reg, f.log, f.grid)

	want := []CountPoint{{0, 1}, {100, 0}, {200, 2}}
	if got := s.SafeCountSeries(200); !reflect.DeepEqual(got, want) {
		t.Fatalf("SafeCountSeries(200) = %v, want %v", got, want)
	}
	if got := s.SafeCountSeries(-1); len(got) != 0 {
		t.Fatalf("SafeCountSeries(-1) = %v, want empty", got)
	}
}

func TestNodeOccupancySeries(t *testing.T) {
	f := loadFixture(t)
	s := NewSeriesAggregator(f.reg, f.log, f.grid)

	got, err := s.NodeOccupancySeries(3, 200)
	if err != nil {
		t.Fatalf("NodeOccupancySeries: %v", err)
	}
	if want := []CountPoint{{0, 1}, {100, 0}, {200, 2}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("NodeOccupancySeries(3) = %v, want %v", got, want)
	}

	if _, err := s.NodeOccupancySeries(99, 200); !errors.Is(err, kb.ErrNodeNotFound) {
		t.Fatalf("unknown node err = %v", err)
	}
}

func TestNodePanicSeriesForwardFills(t *testing.T) {
	reg, _ := kb.NewRegistry([]model.Node{{ID: 1}})
	log, err := NewEventLog(reg, []model.AgentObservation{
		{AgentID: 1, Time: 0, NodeID: 1, Panic: 0.2},
		{AgentID: 1, Time: 200, NodeID: 1, Panic: 0.8},
	}, HazardTable{})
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}
	s := NewSeriesAggregator(reg, log, timectrl.Grid{LengthSeconds: 200, Interval: 100})

	got, err := s.NodePanicSeries(1, 200)
	if err != nil {
		t.Fatalf("NodePanicSeries: %v", err)
	}
	want := []PanicPoint{{0, 0.2}, {100, 0.2}, {200, 0.8}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NodePanicSeries = %v, want %v", got, want)
	}
}

func TestNodePanicSeriesCoversGrid(t *testing.T) {
	f := loadFixture(t)
	s := NewSeriesAggregator(f.reg, f.log, f.grid)

	for _, upto := range []int{0, 150, 300, 3600, 9000} {
		got, err := s.NodePanicSeries(3, upto)
		if err != nil {
			t.Fatalf("NodePanicSeries: %v", err)
		}
		if len(got) != len(f.grid.UpTo(upto)) {
			t.Fatalf("upto %d: %d points, want %d", upto, len(got), len(f.grid.UpTo(upto)))
		}
	}

	got, _ := s.NodePanicSeries(1, 300)
	want := []PanicPoint{{0, 0.2}, {100, 0.5}, {200, 0.5}, {300, 0.5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NodePanicSeries(1) = %v, want %v", got, want)
	}

	got, _ = s.NodePanicSeries(3, 200)
	want = []PanicPoint{{0, 0}, {100, 0}, {200, 0.05}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NodePanicSeries(3) = %v, want %v", got, want)
	}
}

func TestNodeSeries(t *testing.T) {
	f := loadFixture(t)
	s := NewSeriesAggregator(f.reg, f.log, f.grid)

	ns, err := s.NodeSeries(2, 200)
	if err != nil {
		t.Fatalf("NodeSeries: %v", err)
	}
	if ns.NodeID != 2 || len(ns.Occupancy) != 3 || len(ns.Panic) != 3 {
		t.Fatalf("NodeSeries = %+v", ns)
	}
	if ns.Panic[2].Panic != 1.0 {
		t.Fatalf("panic at 200 = %v, want 1", ns.Panic[2].Panic)
	}
	if _, err := s.NodeSeries(42, 200); !errors.Is(err, kb.ErrNodeNotFound) {
		t.Fatalf("unknown node err = %v", err)
	}
}
