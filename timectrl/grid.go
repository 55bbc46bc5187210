package timectrl

import (
	"errors"
	"fmt"
)

// ErrInvalidGrid is returned for a grid with a non-positive interval or a
// negative length.
var ErrInvalidGrid = errors.New("invalid timestep grid")

// Grid is the global timestep grid of a scenario: 0, Interval, 2*Interval, …
// up to and including LengthSeconds when it falls on the grid.
type Grid struct {
	LengthSeconds int
	Interval      int
}

// NewGrid validates and returns a grid.
func NewGrid(lengthSeconds, interval int) (Grid, error) {
	if interval <= 0 {
		return Grid{}, fmt.Errorf("%w: interval %d", ErrInvalidGrid, interval)
	}
	if lengthSeconds < 0 {
		return Grid{}, fmt.Errorf("%w: length %d", ErrInvalidGrid, lengthSeconds)
	}
	return Grid{LengthSeconds: lengthSeconds, Interval: interval}, nil
}

// Len is the number of grid timesteps.
func (g Grid) Len() int {
	if g.Interval <= 0 || g.LengthSeconds < 0 {
		return 0
	}
	return g.LengthSeconds/g.Interval + 1
}

// Timesteps returns every grid timestep in ascending order.
func (g Grid) Timesteps() []int {
	return g.UpTo(g.LengthSeconds)
}

// UpTo returns the grid timesteps <= t. A negative t yields none.
func (g Grid) UpTo(t int) []int {
	if g.Interval <= 0 || t < 0 {
		return nil
	}
	t = min(t, g.LengthSeconds)
	out := make([]int, 0, t/g.Interval+1)
	for ts := 0; ts <= t; ts += g.Interval {
		out = append(out, ts)
	}
	return out
}

// Contains reports whether t is a grid timestep.
func (g Grid) Contains(t int) bool {
	return g.Interval > 0 && t >= 0 && t <= g.LengthSeconds && t%g.Interval == 0
}

// Snap returns the greatest grid timestep <= t, clamped to the grid bounds.
func (g Grid) Snap(t int) int {
	if g.Interval <= 0 || t <= 0 {
		return 0
	}
	t = min(t, g.LengthSeconds)
	return t - t%g.Interval
}

// Last is the final grid timestep.
func (g Grid) Last() int { return g.Snap(g.LengthSeconds) }

// marksEvery is the slider mark spacing in grid steps.
const marksEvery = 5

// Mark is one labelled slider tick. Unlabelled marks carry an empty label.
type Mark struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// Slider describes the timeline control for a grid.
type Slider struct {
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Step  int    `json:"step"`
	Marks []Mark `json:"marks"`
}

// Slider returns the slider for the grid: one mark every five steps with the
// first and last marks labelled in seconds.
func (g Grid) Slider() Slider {
	s := Slider{Min: 0, Max: g.LengthSeconds, Step: g.Interval}
	if g.Interval <= 0 {
		return s
	}
	for v := 0; v <= g.LengthSeconds; v += g.Interval * marksEvery {
		s.Marks = append(s.Marks, Mark{Value: v})
	}
	if n := len(s.Marks); n > 0 {
		s.Marks[0].Label = secondsLabel(s.Marks[0].Value)
		s.Marks[n-1].Label = secondsLabel(s.Marks[n-1].Value)
	}
	return s
}

func secondsLabel(v int) string {
	return fmt.Sprintf("%d Seconds", v)
}
