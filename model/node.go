package model

// Node is a fixed intersection in the road network. Its ID is assigned by the
// upstream network export and its coordinates never change during a scenario.
type Node struct {
	ID  int
	Lon float64
	Lat float64
}

// AgentObservation is one row of the agent log: where a single agent was at a
// single extract timestep and what it reported about that place.
type AgentObservation struct {
	AgentID int
	Time    int
	NodeID  int

	// Passable is the agent-local copy of the node's passability at Time.
	// False means the hazard has made the node impassable.
	Passable bool

	// Safe is set once the agent has reached a goal node or safe zone.
	Safe bool

	// Panic is in [0,1].
	Panic float64
}

// HazardObservation is a single hazard reading for a node at a timestep.
// For floods Intensity is a water depth; for fires it is 0 or >0.
type HazardObservation struct {
	NodeID    int
	Time      int
	Intensity float64
}
