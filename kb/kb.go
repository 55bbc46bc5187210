// Package kb holds the node registry: the fixed, ordered universe of road
// network nodes every per-timestep aggregate is computed over.
package kb

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/hazardscope/model"
)

var (
	// ErrNodeExists indicates two nodes share an ID.
	ErrNodeExists = errors.New("node already exists")
	// ErrNodeNotFound indicates a requested node is not in the registry.
	ErrNodeNotFound = errors.New("node not found")
)

// Registry is an immutable, ordered set of nodes. It is built once per
// scenario load and never mutated, so it needs no locking.
type Registry struct {
	nodes []model.Node
	index map[int]int
}

// NewRegistry builds a registry preserving the order of nodes. It returns an
// error wrapping ErrNodeExists if an ID repeats.
func NewRegistry(nodes []model.Node) (*Registry, error) {
	r := &Registry{
		nodes: make([]model.Node, 0, len(nodes)),
		index: make(map[int]int, len(nodes)),
	}
	for _, n := range nodes {
		if _, exists := r.index[n.ID]; exists {
			return nil, fmt.Errorf("%w: id %d", ErrNodeExists, n.ID)
		}
		r.index[n.ID] = len(r.nodes)
		r.nodes = append(r.nodes, n)
	}
	return r, nil
}

// Nodes returns the nodes in registry order. The slice is a copy.
func (r *Registry) Nodes() []model.Node {
	out := make([]model.Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// IDs returns node IDs in registry order.
func (r *Registry) IDs() []int {
	out := make([]int, len(r.nodes))
	for i, n := range r.nodes {
		out[i] = n.ID
	}
	return out
}

// Node returns the node with the given ID.
func (r *Registry) Node(id int) (model.Node, bool) {
	i, ok := r.index[id]
	if !ok {
		return model.Node{}, false
	}
	return r.nodes[i], true
}

// Has reports whether id belongs to the registry.
func (r *Registry) Has(id int) bool {
	_, ok := r.index[id]
	return ok
}

// Len is the number of nodes.
func (r *Registry) Len() int {
	return len(r.nodes)
}

// Each calls fn for every node in registry order without copying.
func (r *Registry) Each(fn func(i int, n model.Node)) {
	for i, n := range r.nodes {
		fn(i, n)
	}
}
