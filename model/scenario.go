package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidScenario indicates a scenario configuration failed validation.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario is the run configuration written alongside a simulator run. It
// names the study area, the time grid and the files holding the three logs.
type Scenario struct {
	Location string

	LengthHours            float64
	StepResolutionSeconds  int
	ExtractIntervalSeconds int
	NoticeTimeHours        float64

	// HazardTag is the explicit hazard type from configuration. When empty
	// the hazard type is taken from the location table.
	HazardTag string

	UseEvacZone bool
	GoalNodes   string

	NodeFile   string
	RoadFile   string
	HazardFile string
	AgentFile  string
	RoadOutput string
}

// LengthSeconds is the simulated span covered by the logs, rounded to the
// nearest second.
func (s Scenario) LengthSeconds() int {
	return int(math.Round(s.LengthHours * 3600))
}

// HazardType resolves the classification policy for this scenario.
func (s Scenario) HazardType() HazardType {
	if s.HazardTag != "" {
		return ParseHazardType(s.HazardTag)
	}
	loc, _ := LookupLocation(s.Location)
	return loc.Hazard
}

// Place returns the location entry for the scenario's study area.
func (s Scenario) Place() Location {
	loc, _ := LookupLocation(s.Location)
	return loc
}

// Validate checks the values the time grid depends on.
func (s Scenario) Validate() error {
	if s.LengthHours <= 0 {
		return fmt.Errorf("%w: simulation length must be positive, got %v h", ErrInvalidScenario, s.LengthHours)
	}
	if s.ExtractIntervalSeconds <= 0 {
		return fmt.Errorf("%w: extract interval must be positive, got %d s", ErrInvalidScenario, s.ExtractIntervalSeconds)
	}
	if s.StepResolutionSeconds < 0 {
		return fmt.Errorf("%w: step resolution must not be negative, got %d s", ErrInvalidScenario, s.StepResolutionSeconds)
	}
	return nil
}
