package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/model"
)

var errNoFile = errors.New("no file configured")

// FileLoader reads a run from its scenario CSV and the node, agent and
// hazard files the scenario names.
type FileLoader struct {
	ScenarioPath string
	Log          logging.Logger
}

// NewFileLoader returns a loader for the scenario CSV at path.
func NewFileLoader(path string, log logging.Logger) *FileLoader {
	if log == nil {
		log = logging.Noop()
	}
	return &FileLoader{ScenarioPath: path, Log: log}
}

func (l *FileLoader) String() string { return "csv:" + l.ScenarioPath }

// Load parses the scenario, then reads the agent log concurrently with the
// node and hazard tables. The hazard table is read after the nodes because
// tables without OBJECTID align to node order.
func (l *FileLoader) Load(ctx context.Context) (*Dataset, error) {
	sc, err := readTyped(ctx, core.TableScenario, l.ScenarioPath, func(r io.Reader) (model.Scenario, error) {
		return core.LoadScenario(r, filepath.Dir(l.ScenarioPath))
	})
	if err != nil {
		return nil, err
	}
	ds := &Dataset{Scenario: sc}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		nodes, err := readTyped(gctx, core.TableNodes, ds.Scenario.NodeFile, core.LoadNodes)
		if err != nil {
			return err
		}
		ds.Nodes = nodes
		if ds.Scenario.HazardFile == "" {
			if h := ds.Scenario.HazardType(); h.Known() {
				return &core.DataLoadError{
					Table: core.TableHazard,
					Err:   fmt.Errorf("%w: %s scenario needs a hazard table", errNoFile, h),
				}
			}
			l.Log.Warn(gctx, "scenario names no hazard file; hazard markers will render neutral",
				logging.String("scenario", l.ScenarioPath))
			return nil
		}
		ids := make([]int, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID
		}
		ds.Hazard, err = readTyped(gctx, core.TableHazard, ds.Scenario.HazardFile, func(r io.Reader) (core.HazardTable, error) {
			return core.LoadHazardTable(r, ids)
		})
		return err
	})
	g.Go(func() error {
		agents, err := readTyped(gctx, core.TableAgents, ds.Scenario.AgentFile, core.LoadAgentLog)
		if err != nil {
			return err
		}
		ds.Agents = agents
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.Log.Debug(ctx, "dataset read",
		logging.String("source", l.String()),
		logging.Int("nodes", len(ds.Nodes)),
		logging.Int("agent_observations", len(ds.Agents)),
		logging.Int("hazard_timesteps", len(ds.Hazard.Timesteps)),
	)
	return ds, nil
}

func readTyped[T any](ctx context.Context, table, path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if path == "" {
		return zero, &core.DataLoadError{Table: table, Err: errNoFile}
	}
	f, err := os.Open(path)
	if err != nil {
		return zero, &core.DataLoadError{Table: table, Err: err}
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
