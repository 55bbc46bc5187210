package timectrl

import (
	"context"
	"sync"
	"time"
)

// Mode describes how the Player advances through the grid.
type Mode int

const (
	// RealTime waits one Tick of wall-clock time between timesteps.
	RealTime Mode = iota
	// Accelerated advances as quickly as listeners return.
	Accelerated
)

// Player walks a Grid and notifies registered listeners at each timestep.
type Player struct {
	mu   sync.RWMutex
	Grid Grid
	Tick time.Duration
	Mode Mode

	current   int
	listeners []func(int)
}

// NewPlayer constructs a player positioned at timestep 0.
func NewPlayer(grid Grid, tick time.Duration, mode Mode) *Player {
	return &Player{Grid: grid, Tick: tick, Mode: mode}
}

// Current returns the last timestep the player visited.
func (p *Player) Current() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// Seek moves the player to the grid timestep at or below t.
func (p *Player) Seek(t int) {
	p.mu.Lock()
	p.current = p.Grid.Snap(t)
	p.mu.Unlock()
}

// AddListener registers a callback invoked for every visited timestep.
func (p *Player) AddListener(fn func(int)) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()
}

// Play visits grid timesteps from the current position through to (snapped
// to the grid) in a separate goroutine. The returned channel is closed when
// the walk finishes or ctx is cancelled.
func (p *Player) Play(ctx context.Context, to int) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		p.mu.RLock()
		from := p.current
		listeners := append([]func(int){}, p.listeners...)
		p.mu.RUnlock()

		to = p.Grid.Snap(to)
		if p.Grid.Interval <= 0 || from > to {
			return
		}

		var tick <-chan time.Time
		if p.Mode == RealTime && p.Tick > 0 {
			ticker := time.NewTicker(p.Tick)
			defer ticker.Stop()
			tick = ticker.C
		}

		for t := from; t <= to; t += p.Grid.Interval {
			if t > from && tick != nil {
				select {
				case <-ctx.Done():
					return
				case <-tick:
				}
			} else if ctx.Err() != nil {
				return
			}

			p.mu.Lock()
			p.current = t
			p.mu.Unlock()

			for _, fn := range listeners {
				fn(t)
			}
		}
	}()
	return done
}
