// Package sourcetest writes small simulator runs to disk for tests.
package sourcetest

import (
	"os"
	"path/filepath"
	"testing"
)

// Fixture table contents. Three nodes observed at t=0,100,200 with hazard
// columns for the same timesteps. At t=100 node 2 is impassable and occupied.
const (
	Nodes = `OBJECTID,POINT_X,POINT_Y
1,-121.60,39.51
2,-121.58,39.49
3,-121.55,39.52
`
	Agents = `AGENT_ID,TIME,CURRENT_NODE,ACTIVITY,IS_SAFE,PANIC
1,0,1,True,False,0.2
2,0,2,True,False,0.4
3,0,3,True,True,0.0
1,100,1,True,False,0.5
2,100,2,False,False,0.9
1,200,3,True,True,0.1
2,200,2,False,False,1.0
3,200,3,True,True,0.0
`
	Hazard = `OBJECTID,POINT_X,POINT_Y,0,100,200.0
1,-121.60,39.51,0,0.5,16
2,-121.58,39.49,0,3,10
3,-121.55,39.52,0,0,5.0001
`
)

const scenarioHeader = "REGION,SIM_LENGTH[hr],SIM_STEP_RESOL[sec],DATA_EXTRACT_INTERVAL[sec],NOTICE_TIME[hr],USE_EVAC_ZONE,GOAL_NODES,NODE_SOURCE_FILE,ROAD_SOURCE_FILE,HZRD_SOURCE_FILE,AGENT_OUTPUT_FILENAME,ROAD_OUTPUT_FILENAME,HAZARD_TYPE\n"

// Run describes a fixture run to write.
type Run struct {
	Region string
	Hazard string // HAZARD_TYPE tag; empty defers to the region
	Agents string // agent table override

	NoHazardFile bool // leave HZRD_SOURCE_FILE blank
}

// WriteRun writes the fixture tables into dir and returns the scenario path.
func WriteRun(t testing.TB, dir string, run Run) string {
	t.Helper()
	if run.Region == "" {
		run.Region = "oroville"
	}
	if run.Agents == "" {
		run.Agents = Agents
	}
	hazardFile := "hazard.csv"
	if run.NoHazardFile {
		hazardFile = ""
	}
	files := map[string]string{
		"nodes.csv":  Nodes,
		"agents.csv": run.Agents,
		"hazard.csv": Hazard,
		"scenario.csv": scenarioHeader + run.Region +
			",1,5,100,0.5,False,3,nodes.csv,roads.csv," + hazardFile + ",agents.csv,roads_out.csv," + run.Hazard + "\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return filepath.Join(dir, "scenario.csv")
}
