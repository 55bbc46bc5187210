package timectrl

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestPlayerAcceleratedVisitsGrid(t *testing.T) {
	p := NewPlayer(Grid{LengthSeconds: 400, Interval: 100}, time.Hour, Accelerated)

	var mu sync.Mutex
	var seen []int
	p.AddListener(func(ts int) {
		mu.Lock()
		seen = append(seen, ts)
		mu.Unlock()
	})

	<-p.Play(context.Background(), 350)

	mu.Lock()
	defer mu.Unlock()
	if want := []int{0, 100, 200, 300}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("visited %v, want %v", seen, want)
	}
	if got := p.Current(); got != 300 {
		t.Fatalf("Current() = %d, want 300", got)
	}
}

func TestPlayerSeekSnaps(t *testing.T) {
	p := NewPlayer(Grid{LengthSeconds: 400, Interval: 100}, time.Millisecond, Accelerated)
	p.Seek(250)
	if got := p.Current(); got != 200 {
		t.Fatalf("Current() after Seek(250) = %d, want 200", got)
	}

	var seen []int
	p.AddListener(func(ts int) { seen = append(seen, ts) })
	<-p.Play(context.Background(), 400)
	if want := []int{200, 300, 400}; !reflect.DeepEqual(seen, want) {
		t.Fatalf("visited %v, want %v", seen, want)
	}
}

func TestPlayerRealTimeStopsOnCancel(t *testing.T) {
	p := NewPlayer(Grid{LengthSeconds: 1000, Interval: 1}, time.Hour, RealTime)
	ctx, cancel := context.WithCancel(context.Background())

	visited := make(chan int, 4)
	p.AddListener(func(ts int) { visited <- ts })
	done := p.Play(ctx, 1000)

	if got := <-visited; got != 0 {
		t.Fatalf("first timestep = %d, want 0", got)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("player did not stop after cancel")
	}
	if got := p.Current(); got != 0 {
		t.Fatalf("Current() = %d, want 0", got)
	}
}
