// Package snapshot publishes immutable, fully indexed views of a simulator
// run. Readers take a *Snapshot and keep it for the life of a query; reloads
// build a new Snapshot off to the side and swap it in atomically.
package snapshot

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/source"
	"github.com/signalsfoundry/hazardscope/kb"
	"github.com/signalsfoundry/hazardscope/model"
	"github.com/signalsfoundry/hazardscope/timectrl"
)

// Snapshot is one loaded run. All fields are read-only after Build.
type Snapshot struct {
	ID       uuid.UUID
	Slot     string
	LoadedAt time.Time
	Source   string

	Scenario model.Scenario
	Registry *kb.Registry
	Log      *core.EventLog
	Grid     timectrl.Grid

	state  *core.Reconstructor
	series *core.SeriesAggregator
}

// View is the initial map camera for the scenario's location.
type View struct {
	Location    string            `json:"location"`
	DisplayName string            `json:"display_name"`
	Hazard      model.HazardType  `json:"hazard_type"`
	Center      model.Coordinates `json:"center"`
	Zoom        float64           `json:"zoom"`
}

// Build validates and indexes ds into a Snapshot for slot.
func Build(slot string, ds *source.Dataset) (*Snapshot, error) {
	if ds == nil {
		return nil, fmt.Errorf("build snapshot %s: nil dataset", slot)
	}
	reg, err := kb.NewRegistry(ds.Nodes)
	if err != nil {
		return nil, &core.DataLoadError{Table: core.TableNodes, Err: err}
	}
	log, err := core.NewEventLog(reg, ds.Agents, ds.Hazard)
	if err != nil {
		return nil, err
	}
	grid, err := timectrl.NewGrid(ds.Scenario.LengthSeconds(), ds.Scenario.ExtractIntervalSeconds)
	if err != nil {
		return nil, &core.DataLoadError{Table: core.TableScenario, Err: err}
	}

	return &Snapshot{
		ID:       uuid.New(),
		Slot:     slot,
		LoadedAt: time.Now().UTC(),
		Scenario: ds.Scenario,
		Registry: reg,
		Log:      log,
		Grid:     grid,
		state:    core.NewReconstructor(reg, log),
		series:   core.NewSeriesAggregator(reg, log, grid),
	}, nil
}

// HazardType is the classification policy in effect for this run.
func (s *Snapshot) HazardType() model.HazardType {
	return s.Scenario.HazardType()
}

// Reconstructor answers per-timestep state queries.
func (s *Snapshot) Reconstructor() *core.Reconstructor { return s.state }

// Series returns the history aggregator.
func (s *Snapshot) Series() *core.SeriesAggregator { return s.series }

// Composer returns a marker composer that logs warnings to log.
func (s *Snapshot) Composer(log logging.Logger) *core.Composer {
	return core.NewComposer(s.Registry, s.Log, s.HazardType(), core.WithComposerLogger(log))
}

// Header is the map caption for selection.
func (s *Snapshot) Header(selection core.Selection) string {
	return core.MapHeader(s.Scenario.Place(), s.HazardType(), selection)
}

// View returns the initial map camera.
func (s *Snapshot) View() View {
	loc := s.Scenario.Place()
	return View{
		Location:    loc.Key,
		DisplayName: loc.DisplayName,
		Hazard:      s.HazardType(),
		Center:      loc.Center,
		Zoom:        loc.Zoom,
	}
}

// Slider describes the timeline control.
func (s *Snapshot) Slider() timectrl.Slider { return s.Grid.Slider() }

// Summary is a short description used in health output and logs.
type Summary struct {
	ID                string    `json:"id"`
	Slot              string    `json:"slot"`
	Source            string    `json:"source"`
	LoadedAt          time.Time `json:"loaded_at"`
	Location          string    `json:"location"`
	HazardType        string    `json:"hazard_type"`
	Nodes             int       `json:"nodes"`
	AgentObservations int       `json:"agent_observations"`
	Timesteps         int       `json:"timesteps"`
	HazardTimesteps   int       `json:"hazard_timesteps"`
}

// Summary describes the snapshot.
func (s *Snapshot) Summary() Summary {
	return Summary{
		ID:                s.ID.String(),
		Slot:              s.Slot,
		Source:            s.Source,
		LoadedAt:          s.LoadedAt,
		Location:          s.Scenario.Location,
		HazardType:        string(s.HazardType()),
		Nodes:             s.Registry.Len(),
		AgentObservations: s.Log.AgentObservationCount(),
		Timesteps:         len(s.Log.Timesteps()),
		HazardTimesteps:   len(s.Log.HazardTimesteps()),
	}
}
