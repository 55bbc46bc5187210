// Package source loads simulator output into Datasets, either from the CSV
// files a run writes or from a SQLite dataset produced by vizimport.
package source

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/model"
)

// Dataset is the raw content of one simulator run, validated per table but
// not yet indexed.
type Dataset struct {
	Scenario model.Scenario
	Nodes    []model.Node
	Agents   []model.AgentObservation
	Hazard   core.HazardTable
}

// Loader produces a Dataset. Implementations must be safe to call
// repeatedly; each call re-reads the underlying storage.
type Loader interface {
	Load(ctx context.Context) (*Dataset, error)
	String() string
}

// LoaderFor picks a loader by file extension: ".db", ".sqlite" and
// ".sqlite3" open a SQLite dataset, anything else is read as a scenario CSV.
func LoaderFor(path string, log logging.Logger) Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return NewSQLiteLoader(path)
	default:
		return NewFileLoader(path, log)
	}
}
