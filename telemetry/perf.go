package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hashgrid/hashgrid"
)

// Phase is a timed section of a simulation tick.
type Phase uint8

// Phases in tick order.
const (
	PhaseSnapshot  Phase = iota // ECS positions copied to the device
	PhaseGridWrite              // index write phase
	PhaseGridSort               // index sort phase
	PhaseGridIndex              // index offset phase
	PhasePhysics
	PhaseApply // device results written back to ECS
	PhaseValidate
	numPhases
)

var phaseNames = [numPhases]string{
	PhaseSnapshot:  "snapshot",
	PhaseGridWrite: "grid_write",
	PhaseGridSort:  "grid_sort",
	PhaseGridIndex: "grid_index",
	PhasePhysics:   "physics",
	PhaseApply:     "apply",
	PhaseValidate:  "validate",
}

func (p Phase) String() string {
	if p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// PhaseOrder returns the phases in tick order.
func PhaseOrder() []Phase {
	order := make([]Phase, numPhases)
	for i := range order {
		order[i] = Phase(i)
	}
	return order
}

// tickSample is the timing of one tick and the index build it ran.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
	build  hashgrid.BuildStats
}

// PerfCollector keeps the last windowSize tick samples.
type PerfCollector struct {
	samples []tickSample
	next    int // ring write position
	count   int

	current    tickSample
	tickStart  time.Time
	phaseStart time.Time
	open       bool
	phase      Phase

	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a collector averaging over windowSize ticks
// (60 when windowSize < 1).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{samples: make([]tickSample, windowSize)}
}

// StartTick begins a new sample.
func (p *PerfCollector) StartTick() {
	p.current = tickSample{}
	p.tickStart = time.Now()
	p.open = false
}

// StartPhase closes the open phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.open = true
}

// EndPhase closes the open phase. Time until the next StartPhase is
// counted in the tick but in no phase.
func (p *PerfCollector) EndPhase() {
	p.closePhase(time.Now())
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.open {
		p.current.phases[p.phase] += now.Sub(p.phaseStart)
		p.open = false
	}
}

// RecordPhase adds a duration measured elsewhere to the current tick.
func (p *PerfCollector) RecordPhase(phase Phase, d time.Duration) {
	if phase < numPhases {
		p.current.phases[phase] += d
	}
}

// RecordBuild attributes an index build to the current tick: its phase
// durations and the table shape it produced.
func (p *PerfCollector) RecordBuild(b hashgrid.BuildStats) {
	p.current.phases[PhaseGridWrite] += b.Write
	p.current.phases[PhaseGridSort] += b.Sort
	p.current.phases[PhaseGridIndex] += b.Index
	p.current.build = b
}

// EndTick closes the sample and adds it to the window.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.current.total = now.Sub(p.tickStart)

	p.samples[p.next] = p.current
	p.next = (p.next + 1) % len(p.samples)
	p.count = min(p.count+1, len(p.samples))
}

// RecordFrame marks a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseStat is the window average of one phase.
type PhaseStat struct {
	Avg time.Duration
	Pct float64 // of the average tick
}

// PerfStats summarizes the window.
type PerfStats struct {
	Ticks   int // samples in the window
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration
	P95Tick time.Duration
	Phases  [numPhases]PhaseStat

	// Index builds
	AvgBuild   time.Duration
	TableSize  int // of the latest build
	SortRounds int
	Rebuilds   int // builds in the window that reallocated tables

	TicksPerSecond float64
	FrameDuration  time.Duration
	FPS            float64
}

// Stats aggregates the samples in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Ticks: p.count, FrameDuration: p.frameDuration}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.count == 0 {
		return s
	}

	ticks := make([]float64, p.count)
	builds := make([]float64, p.count)
	var phaseSum [numPhases]time.Duration
	for i, sample := range p.samples[:p.count] {
		ticks[i] = float64(sample.total)
		builds[i] = float64(sample.build.Total())
		for ph, d := range sample.phases {
			phaseSum[ph] += d
		}
		if sample.build.Recreated {
			s.Rebuilds++
		}
	}
	slices.Sort(ticks)

	s.AvgTick = time.Duration(stat.Mean(ticks, nil))
	s.MinTick = time.Duration(ticks[0])
	s.MaxTick = time.Duration(ticks[len(ticks)-1])
	s.P95Tick = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))
	s.AvgBuild = time.Duration(stat.Mean(builds, nil))

	latest := p.samples[(p.next+len(p.samples)-1)%len(p.samples)].build
	s.TableSize = latest.Size
	s.SortRounds = latest.SortRounds

	n := time.Duration(p.count)
	for ph, sum := range phaseSum {
		s.Phases[ph].Avg = sum / n
		if s.AvgTick > 0 {
			s.Phases[ph].Pct = float64(s.Phases[ph].Avg) / float64(s.AvgTick) * 100
		}
	}
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	return s
}

// LogValue implements slog.LogValuer. Phases under 0.1% are omitted.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
		slog.Int64("build_us", s.AvgBuild.Microseconds()),
		slog.Int("table_size", s.TableSize),
		slog.Int("sort_rounds", s.SortRounds),
	}
	if s.Rebuilds > 0 {
		attrs = append(attrs, slog.Int("rebuilds", s.Rebuilds))
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for ph, ps := range s.Phases {
		if ps.Pct > 0.1 {
			attrs = append(attrs, slog.Float64(Phase(ph).String()+"_pct", float64(int(ps.Pct*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	WindowEnd    int32   `csv:"window_end"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	BuildUS      int64   `csv:"build_us"`
	TableSize    int     `csv:"table_size"`
	SortRounds   int     `csv:"sort_rounds"`
	Rebuilds     int     `csv:"rebuilds"`
	SnapshotPct  float64 `csv:"snapshot_pct"`
	GridWritePct float64 `csv:"grid_write_pct"`
	GridSortPct  float64 `csv:"grid_sort_pct"`
	GridIndexPct float64 `csv:"grid_index_pct"`
	PhysicsPct   float64 `csv:"physics_pct"`
	ApplyPct     float64 `csv:"apply_pct"`
	ValidatePct  float64 `csv:"validate_pct"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		AvgTickUS:    s.AvgTick.Microseconds(),
		MinTickUS:    s.MinTick.Microseconds(),
		MaxTickUS:    s.MaxTick.Microseconds(),
		P95TickUS:    s.P95Tick.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		BuildUS:      s.AvgBuild.Microseconds(),
		TableSize:    s.TableSize,
		SortRounds:   s.SortRounds,
		Rebuilds:     s.Rebuilds,
		SnapshotPct:  s.Phases[PhaseSnapshot].Pct,
		GridWritePct: s.Phases[PhaseGridWrite].Pct,
		GridSortPct:  s.Phases[PhaseGridSort].Pct,
		GridIndexPct: s.Phases[PhaseGridIndex].Pct,
		PhysicsPct:   s.Phases[PhasePhysics].Pct,
		ApplyPct:     s.Phases[PhaseApply].Pct,
		ValidatePct:  s.Phases[PhaseValidate].Pct,
	}
}
