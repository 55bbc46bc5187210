// core/scenario_loader.go
package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/signalsfoundry/hazardscope/kb"
	"github.com/signalsfoundry/hazardscope/model"
)

// Column names used by the upstream simulator's CSV exports.
const (
	colNodeID   = "OBJECTID"
	colLon      = "POINT_X"
	colLat      = "POINT_Y"
	colAgentID  = "AGENT_ID"
	colTime     = "TIME"
	colNode     = "CURRENT_NODE"
	colActivity = "ACTIVITY"
	colSafe     = "IS_SAFE"
	colPanic    = "PANIC"
)

// Table names reported in DataLoadError.
const (
	TableNodes    = "nodes"
	TableAgents   = "agents"
	TableHazard   = "hazard"
	TableScenario = "scenario"
)

var (
	errMissingColumn = errors.New("required column missing")
	errEmptyTable    = errors.New("table has no header")
)

// HazardTable is the column-per-timestep hazard export flattened into
// observations. Timesteps lists every column present, in ascending order,
// independently of whether any row carries a value.
type HazardTable struct {
	Timesteps    []int
	Observations []model.HazardObservation
}

// LoadNodes parses the node table. Rows keep their file order, which is the
// rendering order.
func LoadNodes(r io.Reader) ([]model.Node, error) {
	hdr, rows, err := readTable(TableNodes, r)
	if err != nil {
		return nil, err
	}
	idCol, err := hdr.require(TableNodes, colNodeID)
	if err != nil {
		return nil, err
	}
	lonCol, err := hdr.require(TableNodes, colLon)
	if err != nil {
		return nil, err
	}
	latCol, err := hdr.require(TableNodes, colLat)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(rows))
	nodes := make([]model.Node, 0, len(rows))
	for i, row := range rows {
		id, err := parseInt(row[idCol])
		if err != nil {
			return nil, loadErr(TableNodes, i+1, colNodeID, err)
		}
		if _, dup := seen[id]; dup {
			return nil, loadErr(TableNodes, i+1, colNodeID, fmt.Errorf("%w: id %d", kb.ErrNodeExists, id))
		}
		seen[id] = struct{}{}
		lon, err := parseFloat(row[lonCol])
		if err != nil {
			return nil, loadErr(TableNodes, i+1, colLon, err)
		}
		lat, err := parseFloat(row[latCol])
		if err != nil {
			return nil, loadErr(TableNodes, i+1, colLat, err)
		}
		nodes = append(nodes, model.Node{ID: id, Lon: lon, Lat: lat})
	}
	return nodes, nil
}

// LoadAgentLog parses the agent observation table.
func LoadAgentLog(r io.Reader) ([]model.AgentObservation, error) {
	hdr, rows, err := readTable(TableAgents, r)
	if err != nil {
		return nil, err
	}
	cols := make(map[string]int, 6)
	for _, name := range []string{colAgentID, colTime, colNode, colActivity, colSafe, colPanic} {
		idx, err := hdr.require(TableAgents, name)
		if err != nil {
			return nil, err
		}
		cols[name] = idx
	}

	out := make([]model.AgentObservation, 0, len(rows))
	for i, row := range rows {
		var obs model.AgentObservation
		if obs.AgentID, err = parseInt(row[cols[colAgentID]]); err != nil {
			return nil, loadErr(TableAgents, i+1, colAgentID, err)
		}
		if obs.Time, err = parseInt(row[cols[colTime]]); err != nil {
			return nil, loadErr(TableAgents, i+1, colTime, err)
		}
		if obs.NodeID, err = parseInt(row[cols[colNode]]); err != nil {
			return nil, loadErr(TableAgents, i+1, colNode, err)
		}
		if obs.Passable, err = parseBool(row[cols[colActivity]]); err != nil {
			return nil, loadErr(TableAgents, i+1, colActivity, err)
		}
		if obs.Safe, err = parseBool(row[cols[colSafe]]); err != nil {
			return nil, loadErr(TableAgents, i+1, colSafe, err)
		}
		if obs.Panic, err = parseFloat(row[cols[colPanic]]); err != nil {
			return nil, loadErr(TableAgents, i+1, colPanic, err)
		}
		out = append(out, obs)
	}
	return out, nil
}

// LoadHazardTable parses the hazard table: one row per node, one column per
// timestep. When the table carries no OBJECTID column its rows are matched to
// nodeOrder by position and the row count must agree.
func LoadHazardTable(r io.Reader, nodeOrder []int) (HazardTable, error) {
	hdr, rows, err := readTable(TableHazard, r)
	if err != nil {
		return HazardTable{}, err
	}

	type timeCol struct {
		time int
		idx  int
		name string
	}
	var timeCols []timeCol
	seenTimes := make(map[int]string)
	for idx, name := range hdr.names {
		t, ok := timestepColumn(name)
		if !ok {
			continue
		}
		if prev, dup := seenTimes[t]; dup {
			return HazardTable{}, loadErr(TableHazard, 0, name, fmt.Errorf("timestep %d already provided by column %q", t, prev))
		}
		seenTimes[t] = name
		timeCols = append(timeCols, timeCol{time: t, idx: idx, name: name})
	}
	sort.Slice(timeCols, func(i, j int) bool { return timeCols[i].time < timeCols[j].time })

	idCol, hasID := hdr.index(colNodeID)
	if !hasID && len(rows) != len(nodeOrder) {
		return HazardTable{}, loadErr(TableHazard, 0, colNodeID,
			fmt.Errorf("%w: and row count %d does not match %d nodes", errMissingColumn, len(rows), len(nodeOrder)))
	}

	table := HazardTable{
		Timesteps:    make([]int, 0, len(timeCols)),
		Observations: make([]model.HazardObservation, 0, len(rows)*len(timeCols)),
	}
	for _, tc := range timeCols {
		table.Timesteps = append(table.Timesteps, tc.time)
	}

	seenIDs := make(map[int]struct{}, len(rows))
	for i, row := range rows {
		var nodeID int
		if hasID {
			if nodeID, err = parseInt(row[idCol]); err != nil {
				return HazardTable{}, loadErr(TableHazard, i+1, colNodeID, err)
			}
			if _, dup := seenIDs[nodeID]; dup {
				return HazardTable{}, loadErr(TableHazard, i+1, colNodeID, fmt.Errorf("%w: id %d", kb.ErrNodeExists, nodeID))
			}
			seenIDs[nodeID] = struct{}{}
		} else {
			nodeID = nodeOrder[i]
		}
		for _, tc := range timeCols {
			v, err := parseFloat(row[tc.idx])
			if err != nil {
				return HazardTable{}, loadErr(TableHazard, i+1, tc.name, err)
			}
			table.Observations = append(table.Observations, model.HazardObservation{
				NodeID:    nodeID,
				Time:      tc.time,
				Intensity: v,
			})
		}
	}
	return table, nil
}

// LoadScenario parses the single-row scenario table written next to a
// simulator run. Relative file paths are resolved against baseDir.
func LoadScenario(r io.Reader, baseDir string) (model.Scenario, error) {
	hdr, rows, err := readTable(TableScenario, r)
	if err != nil {
		return model.Scenario{}, err
	}
	if len(rows) == 0 {
		return model.Scenario{}, loadErr(TableScenario, 0, "", errors.New("no scenario row"))
	}
	row := rows[0]

	get := func(name string) string {
		if idx, ok := hdr.index(name); ok {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}
	for _, name := range []string{"REGION", "SIM_LENGTH[hr]", "DATA_EXTRACT_INTERVAL[sec]"} {
		if _, err := hdr.require(TableScenario, name); err != nil {
			return model.Scenario{}, err
		}
	}

	sc := model.Scenario{
		Location:   get("REGION"),
		HazardTag:  get("HAZARD_TYPE"),
		GoalNodes:  get("GOAL_NODES"),
		NodeFile:   resolvePath(baseDir, get("NODE_SOURCE_FILE")),
		RoadFile:   resolvePath(baseDir, get("ROAD_SOURCE_FILE")),
		HazardFile: resolvePath(baseDir, get("HZRD_SOURCE_FILE")),
		AgentFile:  resolvePath(baseDir, get("AGENT_OUTPUT_FILENAME")),
		RoadOutput: resolvePath(baseDir, get("ROAD_OUTPUT_FILENAME")),
	}
	if sc.LengthHours, err = parseFloat(get("SIM_LENGTH[hr]")); err != nil {
		return model.Scenario{}, loadErr(TableScenario, 1, "SIM_LENGTH[hr]", err)
	}
	if sc.ExtractIntervalSeconds, err = parseInt(get("DATA_EXTRACT_INTERVAL[sec]")); err != nil {
		return model.Scenario{}, loadErr(TableScenario, 1, "DATA_EXTRACT_INTERVAL[sec]", err)
	}
	if v := get("SIM_STEP_RESOL[sec]"); v != "" {
		if sc.StepResolutionSeconds, err = parseInt(v); err != nil {
			return model.Scenario{}, loadErr(TableScenario, 1, "SIM_STEP_RESOL[sec]", err)
		}
	}
	if v := get("NOTICE_TIME[hr]"); v != "" {
		if sc.NoticeTimeHours, err = parseFloat(v); err != nil {
			return model.Scenario{}, loadErr(TableScenario, 1, "NOTICE_TIME[hr]", err)
		}
	}
	if v := get("USE_EVAC_ZONE"); v != "" {
		if sc.UseEvacZone, err = parseBool(v); err != nil {
			return model.Scenario{}, loadErr(TableScenario, 1, "USE_EVAC_ZONE", err)
		}
	}
	if err := sc.Validate(); err != nil {
		return model.Scenario{}, loadErr(TableScenario, 1, "", err)
	}
	return sc, nil
}

// ---- CSV helpers ----

type header struct {
	names []string
	byKey map[string]int
}

func (h header) index(name string) (int, bool) {
	idx, ok := h.byKey[strings.ToUpper(name)]
	return idx, ok
}

func (h header) require(table, name string) (int, error) {
	idx, ok := h.index(name)
	if !ok {
		return 0, loadErr(table, 0, name, errMissingColumn)
	}
	return idx, nil
}

func readTable(table string, r io.Reader) (header, [][]string, error) {
	if r == nil {
		return header{}, nil, loadErr(table, 0, "", errors.New("nil reader"))
	}
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return header{}, nil, loadErr(table, 0, "", err)
	}
	if len(records) == 0 {
		return header{}, nil, loadErr(table, 0, "", errEmptyTable)
	}

	hdr := header{
		names: make([]string, len(records[0])),
		byKey: make(map[string]int, len(records[0])),
	}
	for i, name := range records[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		hdr.names[i] = name
		hdr.byKey[strings.ToUpper(name)] = i
	}
	return hdr, records[1:], nil
}

// timestepColumn recognises hazard columns named by a stringified timestep,
// such as "300" or "300.0".
func timestepColumn(name string) (int, bool) {
	t, err := parseInt(name)
	if err != nil || t < 0 {
		return 0, false
	}
	return t, true
}

func parseInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not an integer: %q", s)
	}
	return int(f), nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "1.0", "yes":
		return true, nil
	case "false", "f", "0", "0.0", "no":
		return false, nil
	default:
		return false, fmt.Errorf("not a boolean: %q", s)
	}
}

func resolvePath(baseDir, p string) string {
	if p == "" || baseDir == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
