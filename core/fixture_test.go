package core

import (
	"strings"
	"testing"

	"github.com/signalsfoundry/hazardscope/kb"
	"github.com/signalsfoundry/hazardscope/timectrl"
)

const (
	fixtureNodes = `OBJECTID,POINT_X,POINT_Y
1,-121.60,39.51
2,-121.58,39.49
3,-121.55,39.52
`
	fixtureAgents = `AGENT_ID,TIME,CURRENT_NODE,ACTIVITY,IS_SAFE,PANIC
1,0,1,True,False,0.2
2,0,2,True,False,0.4
3,0,3,True,True,0.0
1,100,1,True,False,0.5
2,100,2,False,False,0.9
1,200,3,True,True,0.1
2,200,2,False,False,1.0
3,200,3,True,True,0.0
`
	fixtureHazard = `OBJECTID,POINT_X,POINT_Y,0,100,200.0
1,-121.60,39.51,0,0.5,16
2,-121.58,39.49,0,3,10
3,-121.55,39.52,0,0,5.0001
`
)

type fixture struct {
	reg  *kb.Registry
	log  *EventLog
	grid timectrl.Grid
}

func loadFixture(t *testing.T) fixture {
	t.Helper()
	return loadFixtureFrom(t, fixtureNodes, fixtureAgents, fixtureHazard)
}

func loadFixtureFrom(t *testing.T, nodesCSV, agentsCSV, hazardCSV string) fixture {
	t.Helper()
	nodes, err := LoadNodes(strings.NewReader(nodesCSV))
	if err != nil {
		t.Fatalf("LoadNodes: %v", err)
	}
	reg, err := kb.NewRegistry(nodes)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	agents, err := LoadAgentLog(strings.NewReader(agentsCSV))
	if err != nil {
		t.Fatalf("LoadAgentLog: %v", err)
	}
	hazard, err := LoadHazardTable(strings.NewReader(hazardCSV), reg.IDs())
	if err != nil {
		t.Fatalf("LoadHazardTable: %v", err)
	}
	log, err := NewEventLog(reg, agents, hazard)
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}
	return fixture{reg: reg, log: log, grid: timectrl.Grid{LengthSeconds: 3600, Interval: 100}}
}
