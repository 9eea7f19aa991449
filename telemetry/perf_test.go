package telemetry

import (
	"testing"
	"time"

	"github.com/pthm-cable/hashgrid/hashgrid"
)

func TestPerfCollector_TracksPhases(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSnapshot)
		time.Sleep(50 * time.Microsecond)
		pc.StartPhase(PhasePhysics)
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.Ticks != 5 {
		t.Errorf("expected 5 ticks, got %d", stats.Ticks)
	}
	if stats.AvgTick <= 0 {
		t.Error("expected positive avg tick duration")
	}
	for _, phase := range []Phase{PhaseSnapshot, PhasePhysics} {
		if stats.Phases[phase].Avg <= 0 {
			t.Errorf("expected time for phase %s", phase)
		}
	}
	if stats.Phases[PhaseValidate].Avg != 0 {
		t.Error("expected no time for a phase that never ran")
	}
	if stats.MinTick > stats.P95Tick || stats.P95Tick > stats.MaxTick {
		t.Errorf("expected min <= p95 <= max, got %v %v %v", stats.MinTick, stats.P95Tick, stats.MaxTick)
	}
}

func TestPerfCollector_RecordBuild(t *testing.T) {
	pc := NewPerfCollector(10)

	builds := []hashgrid.BuildStats{
		{Size: 512, SortRounds: 45, Recreated: true, Write: time.Millisecond, Sort: 3 * time.Millisecond, Index: time.Millisecond},
		{Size: 1024, SortRounds: 55, Recreated: true, Write: time.Millisecond, Sort: 5 * time.Millisecond, Index: time.Millisecond},
		{Size: 1024, SortRounds: 55, Write: time.Millisecond, Sort: 5 * time.Millisecond, Index: time.Millisecond},
	}
	for _, b := range builds {
		pc.StartTick()
		pc.RecordBuild(b)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.TableSize != 1024 || stats.SortRounds != 55 {
		t.Errorf("expected latest table shape 1024/55, got %d/%d", stats.TableSize, stats.SortRounds)
	}
	if stats.Rebuilds != 2 {
		t.Errorf("expected 2 rebuilds, got %d", stats.Rebuilds)
	}
	if got, want := stats.Phases[PhaseGridSort].Avg, 13*time.Millisecond/3; got != want {
		t.Errorf("expected sort avg %v, got %v", want, got)
	}
	if got, want := stats.AvgBuild, 19*time.Millisecond/3; got < want-time.Microsecond || got > want+time.Microsecond {
		t.Errorf("expected build avg near %v, got %v", want, got)
	}
}

func TestPerfCollector_RecordPhase(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.StartTick()
	pc.RecordPhase(PhaseGridSort, 3*time.Millisecond)
	pc.RecordPhase(PhaseGridSort, 1*time.Millisecond)
	pc.RecordPhase(numPhases, time.Hour)
	pc.EndTick()

	stats := pc.Stats()
	if got := stats.Phases[PhaseGridSort].Avg; got != 4*time.Millisecond {
		t.Errorf("expected 4ms sort phase, got %v", got)
	}
}

func TestPerfCollector_EndPhase(t *testing.T) {
	pc := NewPerfCollector(10)

	pc.StartTick()
	pc.StartPhase(PhaseSnapshot)
	pc.EndPhase()
	time.Sleep(2 * time.Millisecond)
	pc.EndTick()

	stats := pc.Stats()
	if got := stats.Phases[PhaseSnapshot].Avg; got >= 2*time.Millisecond {
		t.Errorf("expected time after EndPhase to be unattributed, snapshot took %v", got)
	}
	if stats.AvgTick < 2*time.Millisecond {
		t.Errorf("expected tick to include idle time, got %v", stats.AvgTick)
	}
}

func TestPhaseOrder(t *testing.T) {
	order := PhaseOrder()
	if len(order) != int(numPhases) || order[0] != PhaseSnapshot || order[len(order)-1] != PhaseValidate {
		t.Errorf("unexpected phase order %v", order)
	}

	tests := []struct {
		phase Phase
		want  string
	}{
		{PhaseSnapshot, "snapshot"},
		{PhaseGridSort, "grid_sort"},
		{PhaseValidate, "validate"},
		{numPhases, "unknown"},
	}
	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(3)

	// Old samples fall out of the window
	for i := 0; i < 3; i++ {
		pc.StartTick()
		pc.RecordPhase(PhaseValidate, time.Second)
		pc.EndTick()
	}
	for i := 0; i < 3; i++ {
		pc.StartTick()
		pc.RecordPhase(PhasePhysics, time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	if stats.Phases[PhaseValidate].Avg != 0 {
		t.Error("expected validate phase to have left the window")
	}
	if stats.Ticks != 3 {
		t.Errorf("expected 3 ticks in window, got %d", stats.Ticks)
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(0)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTick != 0 || stats.Ticks != 0 {
		t.Error("expected zero stats for empty collector")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{AvgTick: 2 * time.Millisecond, TableSize: 2048, SortRounds: 66}
	stats.Phases[PhaseGridSort].Pct = 40
	stats.Phases[PhasePhysics].Pct = 25

	row := stats.ToCSV(120)
	if row.WindowEnd != 120 || row.AvgTickUS != 2000 {
		t.Errorf("unexpected header fields: %+v", row)
	}
	if row.TableSize != 2048 || row.SortRounds != 66 {
		t.Errorf("unexpected build fields: %+v", row)
	}
	if row.GridSortPct != 40 || row.PhysicsPct != 25 || row.ValidatePct != 0 {
		t.Errorf("unexpected phase percentages: %+v", row)
	}
}
