package core

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownHazardType tags the warning logged when a scenario has no hazard
// classification policy. It is never returned from a query.
var ErrUnknownHazardType = errors.New("unknown hazard type")

// DataLoadError reports a malformed or incomplete input table. A load that
// fails with DataLoadError publishes nothing.
type DataLoadError struct {
	Table  string
	Row    int // 1-based data row; 0 when the problem is the header or the table as a whole
	Column string
	Err    error
}

func (e *DataLoadError) Error() string {
	msg := "load " + e.Table
	if e.Row > 0 {
		msg += ": row " + strconv.Itoa(e.Row)
	}
	if e.Column != "" {
		msg += ": column " + e.Column
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// MissingColumnError reports that the hazard table has no column for the
// requested timestep. Hazard data is never gap-filled.
type MissingColumnError struct {
	Timestep int
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("hazard data has no column for timestep %d", e.Timestep)
}

// UnknownPaletteError reports a colour scheme name that is not defined for
// the given layer kind ("agent" or "hazard").
type UnknownPaletteError struct {
	Kind string
	Name string
}

func (e *UnknownPaletteError) Error() string {
	return fmt.Sprintf("unknown %s palette %q", e.Kind, e.Name)
}

func loadErr(table string, row int, column string, err error) error {
	return &DataLoadError{Table: table, Row: row, Column: column, Err: err}
}
