// Package sim runs the particle simulation. Particles live in an ECS world;
// every tick their positions are snapshotted to the compute device, the
// spatial hash grid is rebuilt, and the physics step queries it for
// neighbors. Validation runs periodically and halts the loop on any
// invariant violation.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/hashgrid/components"
	"github.com/pthm-cable/hashgrid/compute"
	"github.com/pthm-cable/hashgrid/config"
	"github.com/pthm-cable/hashgrid/hashgrid"
	"github.com/pthm-cable/hashgrid/telemetry"
)

// Options configures a simulation run beyond the config file.
type Options struct {
	Seed          int64
	OutputDir     string // CSV and config snapshot destination (empty = disabled)
	ValidateEvery int    // Overrides telemetry.validate_every when > 0
	LogStats      bool   // Log perf windows via slog
}

// Simulation owns the particle world, the compute device and the index.
type Simulation struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand

	// ECS
	world  *ecs.World
	mapper *ecs.Map3[components.Position, components.Velocity, components.Particle]
	filter *ecs.Filter3[components.Position, components.Velocity, components.Particle]

	// Device state for the current tick, in slot order
	dev        *compute.Device
	index      *hashgrid.Index
	positions  *compute.Buffer[hashgrid.Vec]
	velocities *compute.Buffer[components.Velocity]
	entities   []ecs.Entity
	intents    []intent

	// Host staging, reused across ticks
	hostPos []hashgrid.Vec
	hostVel []components.Velocity

	perf   *telemetry.PerfCollector
	output *telemetry.OutputManager

	radius    float32
	scene     string
	tick      int32
	nextID    uint32
	count     int
	gridStats telemetry.GridStats
	halted    error
}

// New creates a simulation and spawns the configured scene.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	dims := hashgrid.Dims2
	if cfg.Grid.Dims == 3 {
		dims = hashgrid.Dims3
	}

	dev := compute.NewDevice(compute.Options{
		Workers:           cfg.Compute.Workers,
		ParallelThreshold: cfg.Compute.ParallelThreshold,
	})

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		dev.Close()
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	s := &Simulation{
		cfg:  cfg,
		opts: opts,
		rng:  rand.New(rand.NewSource(opts.Seed)),
		dev:  dev,
		index: hashgrid.NewIndex(dev, hashgrid.Options{
			Codec:     hashgrid.Codec{Bound: cfg.Derived.Bound32, Dims: dims},
			TableSize: cfg.Grid.TableSize,
		}),
		positions:  compute.NewBuffer[hashgrid.Vec](0),
		velocities: compute.NewBuffer[components.Velocity](0),
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		output:     output,
		radius:     cfg.Derived.Radius32,
	}

	if err := s.Reset(cfg.Sim.Particles, cfg.Sim.Scene); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Reset discards all particles and spawns n particles from the named scene.
// The index is invalidated and rebuilt on the next Step.
func (s *Simulation) Reset(n int, scene string) error {
	place, err := LookupScene(scene)
	if err != nil {
		return err
	}
	if n < 0 || n > hashgrid.MaxParticles {
		return fmt.Errorf("reset with %d particles: %w", n, hashgrid.ErrTooManyParticles)
	}

	// Outstanding builds finish before the tables are discarded
	s.index.Invalidate()

	s.world = ecs.NewWorld()
	s.mapper = ecs.NewMap3[components.Position, components.Velocity, components.Particle](s.world)
	s.filter = ecs.NewFilter3[components.Position, components.Velocity, components.Particle](s.world)

	for _, pos := range place(s.rng, n, s.cfg.Derived.Extent32) {
		s.spawn(pos)
	}

	s.scene = scene
	s.count = n
	s.tick = 0
	s.halted = nil
	s.gridStats = telemetry.GridStats{}
	s.entities = s.entities[:0]
	s.positions.Upload(nil)
	s.velocities.Upload(nil)

	slog.Info("simulation reset", "particles", n, "scene", scene, "radius", s.radius)
	return nil
}

// spawn creates a particle at rest.
func (s *Simulation) spawn(pos components.Position) ecs.Entity {
	vel := components.Velocity{}
	p := components.Particle{ID: s.nextID, Mass: 1}
	s.nextID++
	return s.mapper.NewEntity(&pos, &vel, &p)
}

// Step runs a single tick. A returned error is fatal: the simulation is
// halted and every later Step returns the same error until Reset.
func (s *Simulation) Step() error {
	if s.halted != nil {
		return s.halted
	}

	s.perf.StartTick()

	// 1. Snapshot ECS positions to the device
	s.perf.StartPhase(telemetry.PhaseSnapshot)
	s.snapshot()
	s.perf.EndPhase()

	// 2. Rebuild the spatial index
	if err := s.index.Build(s.positions.Data(), s.radius); err != nil {
		return s.halt(fmt.Errorf("building index: %w", err))
	}
	s.perf.RecordBuild(s.index.LastStats())

	// 3. Physics on the device, reading neighbors from the index
	s.perf.StartPhase(telemetry.PhasePhysics)
	if err := s.physics(); err != nil {
		return s.halt(err)
	}

	// 4. Write results back to the ECS
	s.perf.StartPhase(telemetry.PhaseApply)
	s.apply()

	// 5. Periodic validation against the positions this build consumed
	if every := s.validateEvery(); every > 0 && s.tick%int32(every) == 0 {
		s.perf.StartPhase(telemetry.PhaseValidate)
		if _, err := s.validate(); err != nil {
			return s.halt(err)
		}
	}

	s.perf.EndTick()
	s.tick++

	if every := s.cfg.Telemetry.LogEvery; every > 0 && s.tick%int32(every) == 0 {
		s.logPerf()
	}
	return nil
}

func (s *Simulation) halt(err error) error {
	s.halted = fmt.Errorf("tick %d: %w", s.tick, err)
	slog.Error("simulation halted", "tick", s.tick, "error", err)
	return s.halted
}

func (s *Simulation) validateEvery() int {
	if s.opts.ValidateEvery > 0 {
		return s.opts.ValidateEvery
	}
	return s.cfg.Telemetry.ValidateEvery
}

// snapshot copies live positions and velocities into slot order.
func (s *Simulation) snapshot() {
	s.hostPos = s.hostPos[:0]
	s.hostVel = s.hostVel[:0]
	s.entities = s.entities[:0]

	query := s.filter.Query()
	for query.Next() {
		pos, vel, _ := query.Get()
		s.entities = append(s.entities, query.Entity())
		s.hostPos = append(s.hostPos, hashgrid.Vec{pos.X, pos.Y})
		s.hostVel = append(s.hostVel, *vel)
	}

	s.positions.Upload(s.hostPos)
	s.velocities.Upload(s.hostVel)
}

// physics computes one intent per particle in parallel.
func (s *Simulation) physics() error {
	view, err := s.index.View()
	if err != nil {
		return err
	}

	n := s.positions.Len()
	if cap(s.intents) < n {
		s.intents = make([]intent, n)
	}
	s.intents = s.intents[:n]

	positions := s.positions.Data()
	velocities := s.velocities.Data()
	intents := s.intents
	params := s.physicsParams()
	maxNeighbors := s.cfg.Sim.MaxNeighbors

	s.dev.Dispatch(n, func(lo, hi int) {
		var neighbors []hashgrid.Neighbor
		for i := lo; i < hi; i++ {
			neighbors = view.Query(neighbors[:0], positions, positions[i], params.radius, maxNeighbors)
			intents[i] = integrate(i, positions, velocities[i], neighbors, params)
		}
	})
	return nil
}

func (s *Simulation) physicsParams() physicsParams {
	sc := s.cfg.Sim
	return physicsParams{
		dt:          s.cfg.Derived.DT32,
		gravity:     float32(sc.Gravity),
		repulsion:   float32(sc.Repulsion),
		damping:     float32(sc.Damping),
		restitution: float32(sc.Restitution),
		extent:      s.cfg.Derived.Extent32,
		radius:      s.radius,
	}
}

// apply writes computed intents back to ECS components.
func (s *Simulation) apply() {
	for i, e := range s.entities {
		pos, vel, _ := s.mapper.Get(e)
		in := &s.intents[i]
		pos.X, pos.Y = in.X, in.Y
		vel.X, vel.Y = in.VX, in.VY
	}
}

// Validate checks the current index against the positions it was built
// from and records collision telemetry. An invariant violation halts the
// simulation.
func (s *Simulation) Validate() (telemetry.GridStats, error) {
	stats, err := s.validate()
	if errors.Is(err, hashgrid.ErrInvariant) {
		return stats, s.halt(err)
	}
	return stats, err
}

func (s *Simulation) validate() (telemetry.GridStats, error) {
	report, err := s.index.Validate(s.positions.Data(), s.cfg.Derived.Tolerance32)
	if err != nil {
		return telemetry.GridStats{}, fmt.Errorf("validating index: %w", err)
	}

	stats := telemetry.NewGridStats(s.tick, report)
	s.gridStats = stats
	slog.Info("grid validated", "grid", stats)

	if err := s.output.WriteGrid(stats); err != nil {
		slog.Warn("failed to write grid stats", "error", err)
	}
	return stats, nil
}

func (s *Simulation) logPerf() {
	stats := s.perf.Stats()
	if s.opts.LogStats {
		slog.Info("perf", "tick", s.tick, "perf", stats)
	}
	if err := s.output.WritePerf(stats, s.tick); err != nil {
		slog.Warn("failed to write perf stats", "error", err)
	}
}

// Neighbors returns particles within radius of p in the current index.
func (s *Simulation) Neighbors(p hashgrid.Vec, radius float32) []hashgrid.Neighbor {
	return s.index.Query(nil, s.positions.Data(), p, radius, 0)
}

// SetRadius changes the cell size. It takes effect at the next rebuild.
func (s *Simulation) SetRadius(r float32) error {
	if !(r > 0) {
		return fmt.Errorf("set radius %v: %w", r, hashgrid.ErrInvalidRadius)
	}
	s.radius = r
	return nil
}

// Positions returns the positions of the most recent build, in slot order.
func (s *Simulation) Positions() []hashgrid.Vec { return s.positions.Data() }

// View returns the current index tables.
func (s *Simulation) View() (hashgrid.Snapshot, error) { return s.index.View() }

// BuildStats returns statistics of the most recent build.
func (s *Simulation) BuildStats() hashgrid.BuildStats { return s.index.LastStats() }

// GridStats returns the most recent validation summary.
func (s *Simulation) GridStats() telemetry.GridStats { return s.gridStats }

// Perf returns the performance collector.
func (s *Simulation) Perf() *telemetry.PerfCollector { return s.perf }

func (s *Simulation) Tick() int32     { return s.tick }
func (s *Simulation) Count() int      { return s.count }
func (s *Simulation) Radius() float32 { return s.radius }
func (s *Simulation) Scene() string   { return s.scene }
func (s *Simulation) Extent() float32 { return s.cfg.Derived.Extent32 }

// Halted returns the error that stopped the simulation, if any.
func (s *Simulation) Halted() error { return s.halted }

// Close stops the device workers and closes output files.
func (s *Simulation) Close() {
	s.dev.Close()
	if err := s.output.Close(); err != nil {
		slog.Warn("failed to close output", "error", err)
	}
}
