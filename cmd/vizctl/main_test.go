package main

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/snapshot"
	"github.com/signalsfoundry/hazardscope/internal/source"
	"github.com/signalsfoundry/hazardscope/internal/source/sourcetest"
	"github.com/signalsfoundry/hazardscope/internal/viz"
)

func startServer(t *testing.T) string {
	t.Helper()
	path := sourcetest.WriteRun(t, t.TempDir(), sourcetest.Run{})
	store := snapshot.NewStore()
	if _, err := store.Load(context.Background(), snapshot.SlotPreloaded, source.NewFileLoader(path, nil)); err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	server := viz.NewGRPCServer(viz.NewService(store), logging.Noop(), nil)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)
	return lis.Addr().String()
}

func runCmd(t *testing.T, endpoint string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	g := globalFlags{endpoint: endpoint, timeout: 5 * time.Second}
	err := run(context.Background(), g, args, &out)
	return out.String(), err
}

func TestCommands(t *testing.T) {
	endpoint := startServer(t)

	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"header", "-selection", "people"}, want: "showing people's movement"},
		{args: []string{"markers", "-t", "100"}, want: "trapped"},
		{args: []string{"safe", "-t", "200"}, want: "Number of people at safety:"},
		{args: []string{"node", "-id", "2", "-t", "200"}, want: "Average panic level at node 2:"},
		{args: []string{"timeline"}, want: `"0 Seconds"`},
	}
	for _, tc := range tests {
		t.Run(tc.args[0], func(t *testing.T) {
			out, err := runCmd(t, endpoint, tc.args...)
			if err != nil {
				t.Fatalf("vizctl %v error: %v", tc.args, err)
			}
			if !strings.Contains(out, tc.want) {
				t.Fatalf("vizctl %v output missing %q:\n%s", tc.args, tc.want, out)
			}
		})
	}
}

func TestPlayVisitsRange(t *testing.T) {
	endpoint := startServer(t)

	out, err := runCmd(t, endpoint, "play", "-from", "0", "-to", "200")
	if err != nil {
		t.Fatalf("play error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("play printed %d lines, want 3:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[2], "t=200") {
		t.Fatalf("last line = %q, want t=200", lines[2])
	}
}

func TestPlayStopsOnMissingColumn(t *testing.T) {
	endpoint := startServer(t)

	if _, err := runCmd(t, endpoint, "play", "-to", "400"); err == nil || !strings.Contains(err.Error(), "timestep 300") {
		t.Fatalf("play error = %v, want failure at timestep 300", err)
	}
}

func TestUsageErrors(t *testing.T) {
	endpoint := startServer(t)

	if _, err := runCmd(t, endpoint); !errors.Is(err, errUsage) {
		t.Fatalf("no command error = %v, want errUsage", err)
	}
	if _, err := runCmd(t, endpoint, "explode"); !errors.Is(err, errUsage) {
		t.Fatalf("unknown command error = %v, want errUsage", err)
	}
}
