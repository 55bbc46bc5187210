package core

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/signalsfoundry/hazardscope/kb"
	"github.com/signalsfoundry/hazardscope/model"
)

// EventLog indexes the agent and hazard logs of one simulator run by
// timestep. It is read-only after construction and safe for concurrent use.
type EventLog struct {
	agentsByTime map[int][]model.AgentObservation
	agentTimes   []int

	hazardByTime map[int]map[int]float64
	hazardTimes  []int

	agentCount int
}

// NewEventLog validates the observations against the node registry and
// builds the per-timestep indexes. Any violation is reported as a
// *DataLoadError and no log is returned.
func NewEventLog(reg *kb.Registry, agents []model.AgentObservation, hazard HazardTable) (*EventLog, error) {
	if reg == nil {
		return nil, loadErr(TableNodes, 0, "", errors.New("nil registry"))
	}

	l := &EventLog{
		agentsByTime: make(map[int][]model.AgentObservation),
		hazardByTime: make(map[int]map[int]float64, len(hazard.Timesteps)),
		agentCount:   len(agents),
	}

	lastSeen := make(map[int]int)
	for i, obs := range agents {
		if !reg.Has(obs.NodeID) {
			return nil, loadErr(TableAgents, i+1, colNode, fmt.Errorf("%w: %d", kb.ErrNodeNotFound, obs.NodeID))
		}
		if obs.Time < 0 {
			return nil, loadErr(TableAgents, i+1, colTime, fmt.Errorf("negative timestep %d", obs.Time))
		}
		if obs.Panic < 0 || obs.Panic > 1 || math.IsNaN(obs.Panic) {
			return nil, loadErr(TableAgents, i+1, colPanic, fmt.Errorf("panic %v outside [0,1]", obs.Panic))
		}
		if prev, ok := lastSeen[obs.AgentID]; ok && obs.Time < prev {
			return nil, loadErr(TableAgents, i+1, colTime,
				fmt.Errorf("agent %d timestep %d precedes earlier observation at %d", obs.AgentID, obs.Time, prev))
		}
		lastSeen[obs.AgentID] = obs.Time

		if _, ok := l.agentsByTime[obs.Time]; !ok {
			l.agentTimes = append(l.agentTimes, obs.Time)
		}
		l.agentsByTime[obs.Time] = append(l.agentsByTime[obs.Time], obs)
	}
	sort.Ints(l.agentTimes)

	for _, t := range hazard.Timesteps {
		if _, dup := l.hazardByTime[t]; dup {
			return nil, loadErr(TableHazard, 0, fmt.Sprint(t), errors.New("duplicate timestep column"))
		}
		l.hazardByTime[t] = make(map[int]float64)
		l.hazardTimes = append(l.hazardTimes, t)
	}
	sort.Ints(l.hazardTimes)

	for i, obs := range hazard.Observations {
		col, ok := l.hazardByTime[obs.Time]
		if !ok {
			return nil, loadErr(TableHazard, i+1, fmt.Sprint(obs.Time), errors.New("observation for undeclared timestep"))
		}
		if !reg.Has(obs.NodeID) {
			return nil, loadErr(TableHazard, i+1, colNodeID, fmt.Errorf("%w: %d", kb.ErrNodeNotFound, obs.NodeID))
		}
		if obs.Intensity < 0 {
			return nil, loadErr(TableHazard, i+1, fmt.Sprint(obs.Time), fmt.Errorf("negative intensity %v", obs.Intensity))
		}
		col[obs.NodeID] = obs.Intensity
	}

	return l, nil
}

// AgentsAt returns the observations recorded at exactly timestep t. A
// timestep with no observations yields an empty slice. Callers must treat
// the returned slice as read-only.
func (l *EventLog) AgentsAt(t int) []model.AgentObservation {
	return l.agentsByTime[t]
}

// AgentsUpTo returns every observation with time <= t, ordered by time.
func (l *EventLog) AgentsUpTo(t int) []model.AgentObservation {
	times := l.TimestepsUpTo(t)
	n := 0
	for _, ts := range times {
		n += len(l.agentsByTime[ts])
	}
	out := make([]model.AgentObservation, 0, n)
	for _, ts := range times {
		out = append(out, l.agentsByTime[ts]...)
	}
	return out
}

// Timesteps returns the distinct timesteps present in the agent log.
func (l *EventLog) Timesteps() []int {
	out := make([]int, len(l.agentTimes))
	copy(out, l.agentTimes)
	return out
}

// TimestepsUpTo returns the distinct agent-log timesteps <= t, ascending.
func (l *EventLog) TimestepsUpTo(t int) []int {
	end := sort.SearchInts(l.agentTimes, t+1)
	out := make([]int, end)
	copy(out, l.agentTimes[:end])
	return out
}

// HazardAt returns node ID -> intensity for timestep t. It fails with
// *MissingColumnError when the hazard table has no column for t. Callers
// must treat the returned map as read-only.
func (l *EventLog) HazardAt(t int) (map[int]float64, error) {
	col, ok := l.hazardByTime[t]
	if !ok {
		return nil, &MissingColumnError{Timestep: t}
	}
	return col, nil
}

// HazardTimesteps returns the hazard columns present, ascending.
func (l *EventLog) HazardTimesteps() []int {
	out := make([]int, len(l.hazardTimes))
	copy(out, l.hazardTimes)
	return out
}

// AgentObservationCount is the total number of agent rows.
func (l *EventLog) AgentObservationCount() int {
	return l.agentCount
}
