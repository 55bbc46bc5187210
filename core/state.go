package core

import (
	"sort"

	"github.com/signalsfoundry/hazardscope/kb"
	"github.com/signalsfoundry/hazardscope/model"
)

// NodeSet is a set of node IDs.
type NodeSet map[int]struct{}

// Has reports membership.
func (s NodeSet) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in ascending order.
func (s NodeSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// DerivedState is what is true across the node universe at one timestep.
// It is recomputed per query and owned by the caller.
type DerivedState struct {
	Time       int
	Occupancy  map[int]int
	Impassable NodeSet
	Trapped    NodeSet
}

// Reconstructor answers per-node questions about a single timestep without
// materialising a node x time table.
type Reconstructor struct {
	reg *kb.Registry
	log *EventLog
}

// NewReconstructor binds a reconstructor to a registry and the event log
// loaded against it.
func NewReconstructor(reg *kb.Registry, log *EventLog) *Reconstructor {
	return &Reconstructor{reg: reg, log: log}
}

// Occupancy counts observations per node at t. Every registry node is
// present in the result; unobserved nodes map to 0.
func (r *Reconstructor) Occupancy(t int) map[int]int {
	occ := make(map[int]int, r.reg.Len())
	r.reg.Each(func(_ int, n model.Node) {
		occ[n.ID] = 0
	})
	for _, obs := range r.log.AgentsAt(t) {
		if _, ok := occ[obs.NodeID]; ok {
			occ[obs.NodeID]++
		}
	}
	return occ
}

// ImpassableNodes returns nodes that any observation at t reports as
// impassable. Nodes nobody observed at t are treated as passable.
func (r *Reconstructor) ImpassableNodes(t int) NodeSet {
	out := make(NodeSet)
	for _, obs := range r.log.AgentsAt(t) {
		if !obs.Passable {
			out[obs.NodeID] = struct{}{}
		}
	}
	return out
}

// TrappedNodes returns impassable nodes that are occupied at t.
func (r *Reconstructor) TrappedNodes(t int) NodeSet {
	return trapped(r.Occupancy(t), r.ImpassableNodes(t))
}

// Reconstruct computes occupancy, impassable and trapped sets for t.
func (r *Reconstructor) Reconstruct(t int) DerivedState {
	occ := r.Occupancy(t)
	imp := r.ImpassableNodes(t)
	return DerivedState{
		Time:       t,
		Occupancy:  occ,
		Impassable: imp,
		Trapped:    trapped(occ, imp),
	}
}

func trapped(occ map[int]int, imp NodeSet) NodeSet {
	out := make(NodeSet, len(imp))
	for id := range imp {
		if occ[id] > 0 {
			out[id] = struct{}{}
		}
	}
	return out
}
