// Command vizctl queries a running visualizer server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/viz"
	"github.com/signalsfoundry/hazardscope/timectrl"
)

const usage = `usage: vizctl [-endpoint host:port] [-json] <command> [flags]

commands:
  markers   -t N [-selection both|people|hazard] [-agent SCALE] [-hazard PALETTE]
  header    [-selection ...]
  safe      -t N
  node      -id N -t N
  timeline
  reload
  play      [-from N] [-to N] [-tick 500ms] [-realtime] [-selection ...]

every command accepts -snapshot preloaded|configured
`

var errUsage = errors.New("usage")

type globalFlags struct {
	endpoint string
	json     bool
	timeout  time.Duration
}

func main() {
	var g globalFlags
	fs := flag.NewFlagSet("vizctl", flag.ExitOnError)
	fs.StringVar(&g.endpoint, "endpoint", "localhost:50051", "Visualizer gRPC endpoint (host:port)")
	fs.BoolVar(&g.json, "json", false, "Print raw JSON responses")
	fs.DurationVar(&g.timeout, "timeout", 20*time.Second, "Per-call timeout")
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	_ = fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, g, fs.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "vizctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, g globalFlags, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	client, err := viz.Dial(g.endpoint)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, _ = logging.EnsureRequestID(ctx)
	c := &command{client: client, out: out, json: g.json, timeout: g.timeout}
	return c.dispatch(ctx, args[0], args[1:])
}

type command struct {
	client  *viz.Client
	out     io.Writer
	json    bool
	timeout time.Duration
}

type queryFlags struct {
	fs        *flag.FlagSet
	snapshot  *string
	selection *string
	timestep  *int
}

func newQueryFlags(name string) queryFlags {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return queryFlags{
		fs:       fs,
		snapshot: fs.String("snapshot", "", "Snapshot slot"),
	}
}

func (q *queryFlags) withSelection() {
	q.selection = q.fs.String("selection", "", "Layer selection")
}

func (q *queryFlags) withTimestep() {
	q.timestep = q.fs.Int("t", 0, "Timestep in seconds")
}

// selectionArg leaves the selection unset unless the flag was given.
func (q queryFlags) selectionArg() *string {
	var set bool
	q.fs.Visit(func(f *flag.Flag) {
		if f.Name == "selection" {
			set = true
		}
	})
	if !set {
		return nil
	}
	return q.selection
}

func (c *command) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "markers":
		q := newQueryFlags(name)
		q.withSelection()
		q.withTimestep()
		agent := q.fs.String("agent", "", "Agent colour scale")
		hazard := q.fs.String("hazard", "", "Hazard palette")
		if err := q.fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return c.markers(ctx, viz.MarkersRequest{
			Snapshot:     *q.snapshot,
			Timestep:     *q.timestep,
			Selection:    q.selectionArg(),
			AgentScheme:  *agent,
			HazardScheme: *hazard,
		})

	case "header":
		q := newQueryFlags(name)
		q.withSelection()
		if err := q.fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return call(ctx, c, func(ctx context.Context) (viz.HeaderResponse, error) {
			return c.client.Header(ctx, viz.HeaderRequest{Snapshot: *q.snapshot, Selection: q.selectionArg()})
		}, func(r viz.HeaderResponse) { fmt.Fprintln(c.out, r.Header) })

	case "safe":
		q := newQueryFlags(name)
		q.withTimestep()
		if err := q.fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return call(ctx, c, func(ctx context.Context) (viz.SafeSeriesResponse, error) {
			return c.client.SafeSeries(ctx, viz.SafeSeriesRequest{Snapshot: *q.snapshot, Timestep: *q.timestep})
		}, func(r viz.SafeSeriesResponse) {
			fmt.Fprintln(c.out, "Number of people at safety:")
			for _, p := range r.Points {
				fmt.Fprintf(c.out, "  t=%-6d %s\n", p.Time, humanize.Comma(int64(p.Count)))
			}
		})

	case "node":
		q := newQueryFlags(name)
		q.withTimestep()
		id := q.fs.Int("id", -1, "Node ID")
		if err := q.fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		req := viz.NodeSeriesRequest{Snapshot: *q.snapshot, Timestep: *q.timestep}
		if *id >= 0 {
			req.NodeID = id
		}
		return call(ctx, c, func(ctx context.Context) (core.NodeSeries, error) {
			return c.client.NodeSeries(ctx, req)
		}, func(ns core.NodeSeries) { printNodeSeries(c.out, ns) })

	case "timeline":
		q := newQueryFlags(name)
		if err := q.fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return call(ctx, c, func(ctx context.Context) (viz.TimelineResponse, error) {
			return c.client.Timeline(ctx, viz.TimelineRequest{Snapshot: *q.snapshot})
		}, func(r viz.TimelineResponse) { printTimeline(c.out, r) })

	case "reload":
		q := newQueryFlags(name)
		if err := q.fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return call(ctx, c, func(ctx context.Context) (viz.ReloadResponse, error) {
			return c.client.Reload(ctx, viz.ReloadRequest{Snapshot: *q.snapshot})
		}, func(r viz.ReloadResponse) {
			s := r.Snapshot
			fmt.Fprintf(c.out, "reloaded %s from %s: %s nodes, %s observations, loaded %s\n",
				s.Slot, s.Source, humanize.Comma(int64(s.Nodes)), humanize.Comma(int64(s.AgentObservations)), humanize.Time(s.LoadedAt))
		})

	case "play":
		q := newQueryFlags(name)
		q.withSelection()
		from := q.fs.Int("from", 0, "First timestep")
		to := q.fs.Int("to", -1, "Last timestep (default: end of run)")
		tick := q.fs.Duration("tick", 500*time.Millisecond, "Wall-clock time per step in real-time mode")
		realtime := q.fs.Bool("realtime", false, "Wait one tick between steps")
		if err := q.fs.Parse(args); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		return c.play(ctx, playOptions{
			snapshot:  *q.snapshot,
			selection: q.selectionArg(),
			from:      *from,
			to:        *to,
			tick:      *tick,
			realtime:  *realtime,
		})

	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

// call runs one RPC under the per-call timeout and prints the result as
// JSON or through text.
func call[T any](ctx context.Context, c *command, fn func(context.Context) (T, error), text func(T)) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := fn(ctx)
	if err != nil {
		return err
	}
	if c.json {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	text(resp)
	return nil
}

func (c *command) markers(ctx context.Context, req viz.MarkersRequest) error {
	return call(ctx, c, func(ctx context.Context) (core.RenderBundle, error) {
		return c.client.Markers(ctx, req)
	}, func(b core.RenderBundle) { printBundle(c.out, b) })
}

type playOptions struct {
	snapshot  string
	selection *string
	from, to  int
	tick      time.Duration
	realtime  bool
}

// play walks the timeline with a timectrl.Player and prints one summary
// line per timestep.
func (c *command) play(ctx context.Context, opts playOptions) error {
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	tl, err := c.client.Timeline(tctx, viz.TimelineRequest{Snapshot: opts.snapshot})
	cancel()
	if err != nil {
		return err
	}
	grid, err := timectrl.NewGrid(tl.Slider.Max, tl.Slider.Step)
	if err != nil {
		return err
	}
	to := opts.to
	if to < 0 {
		to = grid.Last()
	}

	mode := timectrl.Accelerated
	if opts.realtime {
		mode = timectrl.RealTime
	}
	player := timectrl.NewPlayer(grid, opts.tick, mode)
	player.Seek(opts.from)

	playCtx, stop := context.WithCancel(ctx)
	defer stop()
	var playErr error
	player.AddListener(func(t int) {
		if playErr != nil {
			return
		}
		qctx, cancel := context.WithTimeout(playCtx, c.timeout)
		defer cancel()
		b, err := c.client.Markers(qctx, viz.MarkersRequest{Snapshot: opts.snapshot, Timestep: t, Selection: opts.selection})
		if err != nil {
			playErr = fmt.Errorf("timestep %d: %w", t, err)
			stop()
			return
		}
		printFrameLine(c.out, b)
	})
	<-player.Play(playCtx, to)
	if playErr != nil {
		return playErr
	}
	return ctx.Err()
}
