package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS scenario_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
	object_id INTEGER PRIMARY KEY,
	point_x REAL NOT NULL,
	point_y REAL NOT NULL,
	ord INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS agent_observations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id INTEGER NOT NULL,
	time INTEGER NOT NULL,
	current_node INTEGER NOT NULL,
	passable INTEGER NOT NULL,
	is_safe INTEGER NOT NULL,
	panic REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS hazard_observations (
	node_id INTEGER NOT NULL,
	time INTEGER NOT NULL,
	intensity REAL NOT NULL,
	PRIMARY KEY (node_id, time)
);

CREATE INDEX IF NOT EXISTS idx_agent_observations_time ON agent_observations(time);
CREATE INDEX IF NOT EXISTS idx_hazard_observations_time ON hazard_observations(time);
`

// Scenario metadata keys.
const (
	metaLocation        = "location"
	metaLengthHours     = "length_hours"
	metaStepResolution  = "step_resolution_seconds"
	metaExtractInterval = "extract_interval_seconds"
	metaNoticeTime      = "notice_time_hours"
	metaHazardType      = "hazard_type"
	metaUseEvacZone     = "use_evac_zone"
	metaGoalNodes       = "goal_nodes"
)

type metaRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

type nodeRow struct {
	ObjectID int     `db:"object_id"`
	PointX   float64 `db:"point_x"`
	PointY   float64 `db:"point_y"`
}

type agentRow struct {
	AgentID     int     `db:"agent_id"`
	Time        int     `db:"time"`
	CurrentNode int     `db:"current_node"`
	Passable    bool    `db:"passable"`
	IsSafe      bool    `db:"is_safe"`
	Panic       float64 `db:"panic"`
}

type hazardRow struct {
	NodeID    int     `db:"node_id"`
	Time      int     `db:"time"`
	Intensity float64 `db:"intensity"`
}

// DB wraps a SQLite dataset.
type DB struct {
	conn *sqlx.DB
}

// OpenDB opens or creates the SQLite dataset at path.
func OpenDB(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveDataset replaces the stored dataset with ds in one transaction.
func (db *DB) SaveDataset(ctx context.Context, ds *Dataset) error {
	if ds == nil {
		return errors.New("nil dataset")
	}
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"scenario_meta", "nodes", "agent_observations", "hazard_observations"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	sc := ds.Scenario
	meta := map[string]string{
		metaLocation:        sc.Location,
		metaLengthHours:     strconv.FormatFloat(sc.LengthHours, 'f', -1, 64),
		metaStepResolution:  strconv.Itoa(sc.StepResolutionSeconds),
		metaExtractInterval: strconv.Itoa(sc.ExtractIntervalSeconds),
		metaNoticeTime:      strconv.FormatFloat(sc.NoticeTimeHours, 'f', -1, 64),
		metaHazardType:      sc.HazardTag,
		metaUseEvacZone:     strconv.FormatBool(sc.UseEvacZone),
		metaGoalNodes:       sc.GoalNodes,
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO scenario_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}

	nodeStmt, err := tx.PreparexContext(ctx, "INSERT INTO nodes (object_id, point_x, point_y, ord) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer nodeStmt.Close()
	for i, n := range ds.Nodes {
		if _, err := nodeStmt.ExecContext(ctx, n.ID, n.Lon, n.Lat, i); err != nil {
			return fmt.Errorf("insert node %d: %w", n.ID, err)
		}
	}

	agentStmt, err := tx.PreparexContext(ctx, `INSERT INTO agent_observations
		(agent_id, time, current_node, passable, is_safe, panic)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer agentStmt.Close()
	for _, a := range ds.Agents {
		if _, err := agentStmt.ExecContext(ctx, a.AgentID, a.Time, a.NodeID, a.Passable, a.Safe, a.Panic); err != nil {
			return fmt.Errorf("insert agent %d at %d: %w", a.AgentID, a.Time, err)
		}
	}

	hazardStmt, err := tx.PreparexContext(ctx, "INSERT INTO hazard_observations (node_id, time, intensity) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer hazardStmt.Close()
	for _, h := range ds.Hazard.Observations {
		if _, err := hazardStmt.ExecContext(ctx, h.NodeID, h.Time, h.Intensity); err != nil {
			return fmt.Errorf("insert hazard node %d at %d: %w", h.NodeID, h.Time, err)
		}
	}

	return tx.Commit()
}

// LoadDataset reads the stored dataset.
func (db *DB) LoadDataset(ctx context.Context) (*Dataset, error) {
	var meta []metaRow
	if err := db.conn.SelectContext(ctx, &meta, "SELECT key, value FROM scenario_meta"); err != nil {
		return nil, &core.DataLoadError{Table: core.TableScenario, Err: err}
	}
	sc, err := scenarioFromMeta(meta)
	if err != nil {
		return nil, err
	}

	var nodes []nodeRow
	if err := db.conn.SelectContext(ctx, &nodes, "SELECT object_id, point_x, point_y FROM nodes ORDER BY ord"); err != nil {
		return nil, &core.DataLoadError{Table: core.TableNodes, Err: err}
	}
	var agents []agentRow
	if err := db.conn.SelectContext(ctx, &agents,
		"SELECT agent_id, time, current_node, passable, is_safe, panic FROM agent_observations ORDER BY id"); err != nil {
		return nil, &core.DataLoadError{Table: core.TableAgents, Err: err}
	}
	var hazard []hazardRow
	if err := db.conn.SelectContext(ctx, &hazard,
		"SELECT node_id, time, intensity FROM hazard_observations ORDER BY time, node_id"); err != nil {
		return nil, &core.DataLoadError{Table: core.TableHazard, Err: err}
	}
	var times []int
	if err := db.conn.SelectContext(ctx, &times, "SELECT DISTINCT time FROM hazard_observations ORDER BY time"); err != nil {
		return nil, &core.DataLoadError{Table: core.TableHazard, Err: err}
	}

	ds := &Dataset{
		Scenario: sc,
		Nodes:    make([]model.Node, 0, len(nodes)),
		Agents:   make([]model.AgentObservation, 0, len(agents)),
		Hazard: core.HazardTable{
			Timesteps:    times,
			Observations: make([]model.HazardObservation, 0, len(hazard)),
		},
	}
	for _, n := range nodes {
		ds.Nodes = append(ds.Nodes, model.Node{ID: n.ObjectID, Lon: n.PointX, Lat: n.PointY})
	}
	for _, a := range agents {
		ds.Agents = append(ds.Agents, model.AgentObservation{
			AgentID:  a.AgentID,
			Time:     a.Time,
			NodeID:   a.CurrentNode,
			Passable: a.Passable,
			Safe:     a.IsSafe,
			Panic:    a.Panic,
		})
	}
	for _, h := range hazard {
		ds.Hazard.Observations = append(ds.Hazard.Observations, model.HazardObservation{
			NodeID:    h.NodeID,
			Time:      h.Time,
			Intensity: h.Intensity,
		})
	}
	return ds, nil
}

func scenarioFromMeta(rows []metaRow) (model.Scenario, error) {
	if len(rows) == 0 {
		return model.Scenario{}, &core.DataLoadError{Table: core.TableScenario, Err: errors.New("no scenario metadata")}
	}
	meta := make(map[string]string, len(rows))
	for _, r := range rows {
		meta[r.Key] = r.Value
	}

	sc := model.Scenario{
		Location:  meta[metaLocation],
		HazardTag: meta[metaHazardType],
		GoalNodes: meta[metaGoalNodes],
	}
	var err error
	if sc.LengthHours, err = strconv.ParseFloat(meta[metaLengthHours], 64); err != nil {
		return model.Scenario{}, &core.DataLoadError{Table: core.TableScenario, Column: metaLengthHours, Err: err}
	}
	if sc.ExtractIntervalSeconds, err = strconv.Atoi(meta[metaExtractInterval]); err != nil {
		return model.Scenario{}, &core.DataLoadError{Table: core.TableScenario, Column: metaExtractInterval, Err: err}
	}
	if v := meta[metaStepResolution]; v != "" {
		if sc.StepResolutionSeconds, err = strconv.Atoi(v); err != nil {
			return model.Scenario{}, &core.DataLoadError{Table: core.TableScenario, Column: metaStepResolution, Err: err}
		}
	}
	if v := meta[metaNoticeTime]; v != "" {
		if sc.NoticeTimeHours, err = strconv.ParseFloat(v, 64); err != nil {
			return model.Scenario{}, &core.DataLoadError{Table: core.TableScenario, Column: metaNoticeTime, Err: err}
		}
	}
	if v := meta[metaUseEvacZone]; v != "" {
		if sc.UseEvacZone, err = strconv.ParseBool(v); err != nil {
			return model.Scenario{}, &core.DataLoadError{Table: core.TableScenario, Column: metaUseEvacZone, Err: err}
		}
	}
	if err := sc.Validate(); err != nil {
		return model.Scenario{}, &core.DataLoadError{Table: core.TableScenario, Err: err}
	}
	return sc, nil
}

// SQLiteLoader reads a dataset from a SQLite file on every Load.
type SQLiteLoader struct {
	Path string
}

// NewSQLiteLoader returns a loader for the SQLite dataset at path.
func NewSQLiteLoader(path string) *SQLiteLoader {
	return &SQLiteLoader{Path: path}
}

func (l *SQLiteLoader) String() string { return "sqlite:" + l.Path }

// Load opens the dataset, reads it and closes the connection. A missing file
// is a load error rather than an empty dataset.
func (l *SQLiteLoader) Load(ctx context.Context) (*Dataset, error) {
	if _, err := os.Stat(l.Path); err != nil {
		return nil, &core.DataLoadError{Table: core.TableScenario, Err: err}
	}
	db, err := OpenDB(l.Path)
	if err != nil {
		return nil, &core.DataLoadError{Table: core.TableScenario, Err: err}
	}
	defer db.Close()
	return db.LoadDataset(ctx)
}

// SaveSQLite writes ds to a SQLite dataset at path, replacing its content.
func SaveSQLite(ctx context.Context, path string, ds *Dataset) error {
	db, err := OpenDB(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveDataset(ctx, ds)
}

