package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/signalsfoundry/hazardscope/kb"
	"github.com/signalsfoundry/hazardscope/model"
)

func TestEventLogIndexesByTimestep(t *testing.T) {
	f := loadFixture(t)

	if got, want := f.log.Timesteps(), []int{0, 100, 200}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Timesteps() = %v, want %v", got, want)
	}
	if got := len(f.log.AgentsAt(100)); got != 2 {
		t.Fatalf("AgentsAt(100) = %d observations, want 2", got)
	}
	if got := f.log.AgentsAt(50); len(got) != 0 {
		t.Fatalf("AgentsAt(50) = %v, want empty", got)
	}
	if got := len(f.log.AgentsUpTo(100)); got != 5 {
		t.Fatalf("AgentsUpTo(100) = %d observations, want 5", got)
	}
	if got, want := f.log.TimestepsUpTo(150), []int{0, 100}; !reflect.DeepEqual(got, want) {
		t.Fatalf("TimestepsUpTo(150) = %v, want %v", got, want)
	}
	if f.log.AgentObservationCount() != 8 {
		t.Fatalf("AgentObservationCount() = %d, want 8", f.log.AgentObservationCount())
	}

	upTo := f.log.AgentsUpTo(200)
	for i := 1; i < len(upTo); i++ {
		if upTo[i].Time < upTo[i-1].Time {
			t.Fatalf("AgentsUpTo not ordered by time: %+v", upTo)
		}
	}
}

func TestEventLogHazardAt(t *testing.T) {
	f := loadFixture(t)

	col, err := f.log.HazardAt(200)
	if err != nil {
		t.Fatalf("HazardAt(200): %v", err)
	}
	if col[1] != 16 || col[2] != 10 {
		t.Fatalf("HazardAt(200) = %v", col)
	}

	_, err = f.log.HazardAt(300)
	var mce *MissingColumnError
	if !errors.As(err, &mce) || mce.Timestep != 300 {
		t.Fatalf("HazardAt(300) err = %v, want *MissingColumnError{300}", err)
	}

	if got, want := f.log.HazardTimesteps(), []int{0, 100, 200}; !reflect.DeepEqual(got, want) {
		t.Fatalf("HazardTimesteps() = %v, want %v", got, want)
	}
}

func TestNewEventLogRejectsInvalidObservations(t *testing.T) {
	reg, err := kb.NewRegistry([]model.Node{{ID: 1}, {ID: 2}})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	cases := []struct {
		name   string
		agents []model.AgentObservation
		hazard HazardTable
		table  string
	}{
		{
			name:   "unknown node",
			agents: []model.AgentObservation{{AgentID: 1, NodeID: 9}},
			table:  TableAgents,
		},
		{
			name:   "panic out of range",
			agents: []model.AgentObservation{{AgentID: 1, NodeID: 1, Panic: 1.5}},
			table:  TableAgents,
		},
		{
			name: "time regression",
			agents: []model.AgentObservation{
				{AgentID: 1, NodeID: 1, Time: 200},
				{AgentID: 1, NodeID: 2, Time: 100},
			},
			table: TableAgents,
		},
		{
			name:   "hazard unknown node",
			hazard: HazardTable{Timesteps: []int{0}, Observations: []model.HazardObservation{{NodeID: 5}}},
			table:  TableHazard,
		},
		{
			name:   "hazard undeclared timestep",
			hazard: HazardTable{Timesteps: []int{0}, Observations: []model.HazardObservation{{NodeID: 1, Time: 60}}},
			table:  TableHazard,
		},
		{
			name:   "negative intensity",
			hazard: HazardTable{Timesteps: []int{0}, Observations: []model.HazardObservation{{NodeID: 1, Intensity: -1}}},
			table:  TableHazard,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := NewEventLog(reg, tc.agents, tc.hazard)
			if log != nil {
				t.Fatalf("expected no log on error")
			}
			var dle *DataLoadError
			if !errors.As(err, &dle) || dle.Table != tc.table {
				t.Fatalf("err = %v, want *DataLoadError for table %s", err, tc.table)
			}
		})
	}

	_, err = NewEventLog(reg, []model.AgentObservation{{AgentID: 1, NodeID: 9}}, HazardTable{})
	if !errors.Is(err, kb.ErrNodeNotFound) {
		t.Fatalf("unknown node err = %v, want wrapping kb.ErrNodeNotFound", err)
	}
}

func TestNewEventLogAllowsRepeatedAgentTimestep(t *testing.T) {
	reg, _ := kb.NewRegistry([]model.Node{{ID: 1}})
	_, err := NewEventLog(reg, []model.AgentObservation{
		{AgentID: 1, NodeID: 1, Time: 100},
		{AgentID: 1, NodeID: 1, Time: 100},
	}, HazardTable{})
	if err != nil {
		t.Fatalf("non-decreasing times rejected: %v", err)
	}
}
