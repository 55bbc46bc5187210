package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalsfoundry/hazardscope/core"
	"github.com/signalsfoundry/hazardscope/internal/logging"
	"github.com/signalsfoundry/hazardscope/internal/snapshot"
	"github.com/signalsfoundry/hazardscope/internal/source"
	"github.com/signalsfoundry/hazardscope/internal/source/sourcetest"
)

func TestImportThenServe(t *testing.T) {
	dir := t.TempDir()
	in := sourcetest.WriteRun(t, dir, sourcetest.Run{})
	out := filepath.Join(dir, "run.db")

	var buf bytes.Buffer
	if err := run(context.Background(), options{in: in, out: out}, logging.Noop(), &buf); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !strings.Contains(buf.String(), "3 nodes, 8 agent observations") {
		t.Fatalf("summary = %q", buf.String())
	}

	store := snapshot.NewStore()
	snap, err := store.Load(context.Background(), snapshot.SlotPreloaded, source.LoaderFor(out, nil))
	if err != nil {
		t.Fatalf("load imported dataset: %v", err)
	}
	if got := snap.Series().SafeCountSeries(200); len(got) != 3 || got[2].Count != 2 {
		t.Fatalf("safe series from sqlite = %+v", got)
	}
}

func TestImportRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	in := sourcetest.WriteRun(t, dir, sourcetest.Run{})
	out := filepath.Join(dir, "run.db")
	if err := os.WriteFile(out, []byte("keep"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	if err := run(context.Background(), options{in: in, out: out}, logging.Noop(), &bytes.Buffer{}); err == nil {
		t.Fatalf("run over existing file succeeded, want error")
	}
	body, _ := os.ReadFile(out)
	if string(body) != "keep" {
		t.Fatalf("existing file was modified")
	}
}

func TestImportRejectsInvalidRun(t *testing.T) {
	dir := t.TempDir()
	in := sourcetest.WriteRun(t, dir, sourcetest.Run{
		Agents: "AGENT_ID,TIME,CURRENT_NODE,ACTIVITY,IS_SAFE,PANIC\n1,0,9,True,False,0.2\n",
	})
	out := filepath.Join(dir, "run.db")

	err := run(context.Background(), options{in: in, out: out}, logging.Noop(), &bytes.Buffer{})
	var loadErr *core.DataLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("run error = %v, want *core.DataLoadError", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("dataset written for invalid run")
	}
}
