// Command vizimport converts a simulator run's CSV output into a SQLite
// dataset the visualizer server can load with -preloaded or -configured.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/snapshot"
	"github.com/signalsfoundry/hazardscope/internal/source"
)

type options struct {
	in        string
	out       string
	overwrite bool
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "", "Scenario CSV of the run to import")
	flag.StringVar(&opts.out, "out", "", "SQLite dataset to write")
	flag.BoolVar(&opts.overwrite, "overwrite", false, "Replace the content of an existing dataset")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if err := run(ctx, opts, log, os.Stdout); err != nil {
		log.Error(ctx, "import failed", logging.String("in", opts.in), logging.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, log logging.Logger, out io.Writer) error {
	if opts.in == "" || opts.out == "" {
		return errors.New("both -in and -out are required")
	}
	if _, err := os.Stat(opts.out); err == nil && !opts.overwrite {
		return fmt.Errorf("%s exists; pass -overwrite to replace it", opts.out)
	}

	start := time.Now()
	ds, err := source.NewFileLoader(opts.in, log).Load(ctx)
	if err != nil {
		return err
	}
	// Build checks cross-table references.
	snap, err := snapshot.Build("import", ds)
	if err != nil {
		return err
	}
	if err := source.SaveSQLite(ctx, opts.out, ds); err != nil {
		return err
	}

	sum := snap.Summary()
	var size uint64
	if fi, err := os.Stat(opts.out); err == nil {
		size = uint64(fi.Size())
	}
	fmt.Fprintf(out, "imported %s (%s, %s) into %s\n", opts.in, sum.Location, sum.HazardType, opts.out)
	fmt.Fprintf(out, "  %s nodes, %s agent observations over %s timesteps, %s hazard columns\n",
		humanize.Comma(int64(sum.Nodes)), humanize.Comma(int64(sum.AgentObservations)),
		humanize.Comma(int64(sum.Timesteps)), humanize.Comma(int64(sum.HazardTimesteps)))
	fmt.Fprintf(out, "  wrote %s in %s\n", humanize.Bytes(size), time.Since(start).Round(time.Millisecond))

	log.Info(ctx, "import complete",
		logging.String("in", opts.in),
		logging.String("out", opts.out),
		logging.Int("nodes", sum.Nodes),
		logging.Int("agent_observations", sum.AgentObservations),
		logging.Int64("bytes", int64(size)),
	)
	return nil
}
