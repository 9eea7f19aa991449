package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/hashgrid/config"
)

func TestOutputManager_Disabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("expected nil manager without error, got %v, %v", om, err)
	}

	// A nil manager is a no-op
	if err := om.WriteGrid(GridStats{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if om.Dir() != "" {
		t.Error("expected empty dir")
	}
}

func TestOutputManager_WritesCSVWithSingleHeader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatalf("creating output manager: %v", err)
	}

	for tick := int32(100); tick <= 300; tick += 100 {
		if err := om.WriteGrid(GridStats{Tick: tick, Particles: 10}); err != nil {
			t.Fatalf("writing grid stats: %v", err)
		}
	}
	if err := om.WritePerf(PerfStats{AvgTick: time.Millisecond, TableSize: 1024}, 300); err != nil {
		t.Fatalf("writing perf: %v", err)
	}
	if err := om.Close(); err != nil {
		t.Fatalf("closing: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "grid.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "tick,particles,slots") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.HasPrefix(lines[3], "300,10,") {
		t.Errorf("unexpected last row: %s", lines[3])
	}

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(perf), "grid_sort_pct") || !strings.Contains(string(perf), "table_size") {
		t.Errorf("perf.csv missing phase columns:\n%s", perf)
	}
}

func TestOutputManager_WriteConfig(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	om, err := NewOutputManager(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer om.Close()

	if err := om.WriteConfig(cfg); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	if _, err := config.Load(filepath.Join(om.Dir(), "config.yaml")); err != nil {
		t.Errorf("written config does not load: %v", err)
	}
}
