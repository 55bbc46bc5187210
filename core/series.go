package core

import (
	"fmt"

	"github.com/signalsfoundry/hazardscope/kb"
	"github.com/signalsfoundry/hazardscope/timectrl"
)

// CountPoint is one sample of a count series.
type CountPoint struct {
	Time  int `json:"time"`
	Count int `json:"count"`
}

// PanicPoint is one sample of an average panic series.
type PanicPoint struct {
	Time  int     `json:"time"`
	Panic float64 `json:"panic"`
}

// NodeSeries bundles the history charts for one node.
type NodeSeries struct {
	NodeID    int          `json:"node_id"`
	Occupancy []CountPoint `json:"occupancy"`
	Panic     []PanicPoint `json:"panic"`
}

// SeriesAggregator builds history series for charts.
type SeriesAggregator struct {
	reg  *kb.Registry
	log  *EventLog
	grid timectrl.Grid
}

// NewSeriesAggregator binds an aggregator to a scenario's data and grid.
func NewSeriesAggregator(reg *kb.Registry, log *EventLog, grid timectrl.Grid) *SeriesAggregator {
	return &SeriesAggregator{reg: reg, log: log, grid: grid}
}

// SafeCountSeries counts safe observations at each distinct log timestep
// <= uptoT. An agent is counted at every timestep it is observed safe.
func (s *SeriesAggregator) SafeCountSeries(uptoT int) []CountPoint {
	times := s.log.TimestepsUpTo(uptoT)
	out := make([]CountPoint, 0, len(times))
	for _, t := range times {
		n := 0
		for _, obs := range s.log.AgentsAt(t) {
			if obs.Safe {
				n++
			}
		}
		out = append(out, CountPoint{Time: t, Count: n})
	}
	return out
}

// NodeOccupancySeries counts observations at nodeID for each distinct log
// timestep <= uptoT.
func (s *SeriesAggregator) NodeOccupancySeries(nodeID, uptoT int) ([]CountPoint, error) {
	if err := s.checkNode(nodeID); err != nil {
		return nil, err
	}
	times := s.log.TimestepsUpTo(uptoT)
	out := make([]CountPoint, 0, len(times))
	for _, t := range times {
		n := 0
		for _, obs := range s.log.AgentsAt(t) {
			if obs.NodeID == nodeID {
				n++
			}
		}
		out = append(out, CountPoint{Time: t, Count: n})
	}
	return out, nil
}

// NodePanicSeries returns the mean panic at nodeID for every grid timestep
// <= uptoT. Timesteps without observations at the node carry the previous
// value forward, starting from 0.
func (s *SeriesAggregator) NodePanicSeries(nodeID, uptoT int) ([]PanicPoint, error) {
	if err := s.checkNode(nodeID); err != nil {
		return nil, err
	}
	grid := s.grid.UpTo(uptoT)
	out := make([]PanicPoint, 0, len(grid))
	last := 0.0
	for _, t := range grid {
		sum, n := 0.0, 0
		for _, obs := range s.log.AgentsAt(t) {
			if obs.NodeID == nodeID {
				sum += obs.Panic
				n++
			}
		}
		if n > 0 {
			last = sum / float64(n)
		}
		out = append(out, PanicPoint{Time: t, Panic: last})
	}
	return out, nil
}

// NodeSeries returns the occupancy and panic histories of one node.
func (s *SeriesAggregator) NodeSeries(nodeID, uptoT int) (NodeSeries, error) {
	occ, err := s.NodeOccupancySeries(nodeID, uptoT)
	if err != nil {
		return NodeSeries{}, err
	}
	pan, err := s.NodePanicSeries(nodeID, uptoT)
	if err != nil {
		return NodeSeries{}, err
	}
	return NodeSeries{NodeID: nodeID, Occupancy: occ, Panic: pan}, nil
}

func (s *SeriesAggregator) checkNode(id int) error {
	if !s.reg.Has(id) {
		return fmt.Errorf("%w: %d", kb.ErrNodeNotFound, id)
	}
	return nil
}
