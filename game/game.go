// Package game wires the simulation to the window: input, camera, the
// particle view and the UI panels. Headless runs use the same type with
// rendering left unset.
package game

import (
	"log/slog"

	"github.com/pthm-cable/hashgrid/camera"
	"github.com/pthm-cable/hashgrid/config"
	"github.com/pthm-cable/hashgrid/hashgrid"
	"github.com/pthm-cable/hashgrid/renderer"
	"github.com/pthm-cable/hashgrid/sim"
	"github.com/pthm-cable/hashgrid/ui"
)

// Options configures the game.
type Options struct {
	Seed           int64
	LogStats       bool
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
	ValidateEvery  int // Overrides config when > 0
}

// Game holds the simulation and its presentation state.
type Game struct {
	cfg  *config.Config
	sim  *sim.Simulation
	opts Options

	// Rendering (nil when headless)
	camera    *camera.Camera
	grid      *renderer.GridRenderer
	overlays  *ui.OverlayRegistry
	hud       *ui.HUD
	controls  *ui.ControlsPanel
	gridPanel *ui.GridPanel
	perfPanel *ui.PerfPanel
	inspector *ui.CellInspector

	// State
	paused         bool
	stepOnce       bool
	stepsPerUpdate int
	queryRadius    float32
	pending        ui.ControlActions
	controlsBottom int32
	hits           []hashgrid.Neighbor

	screenWidth, screenHeight float32
}

// NewGame creates the simulation and, unless headless, the view.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	s, err := sim.New(cfg, sim.Options{
		Seed:          opts.Seed,
		OutputDir:     opts.OutputDir,
		ValidateEvery: opts.ValidateEvery,
		LogStats:      opts.LogStats,
	})
	if err != nil {
		return nil, err
	}

	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}

	g := &Game{
		cfg:            cfg,
		sim:            s,
		opts:           opts,
		stepsPerUpdate: opts.StepsPerUpdate,
		queryRadius:    s.Radius(),
		screenWidth:    float32(cfg.Screen.Width),
		screenHeight:   float32(cfg.Screen.Height),
	}
	g.pending = ui.ControlActions{Radius: s.Radius(), Scene: s.Scene()}

	if !opts.Headless {
		g.initView()
	}
	return g, nil
}

func (g *Game) initView() {
	g.camera = camera.New(g.screenWidth, g.screenHeight, g.cfg.Derived.Bound32)
	g.camera.SetZoom(g.cfg.Derived.WorldScale / g.camera.Scale())
	g.grid = renderer.NewGridRenderer(g.camera, float32(g.cfg.Render.PointSize))

	g.overlays = ui.NewOverlayRegistry()
	g.overlays.SetEnabled(ui.OverlayBucketColors, true)
	g.overlays.SetEnabled(ui.OverlayCells, g.cfg.Render.ShowCells)
	g.overlays.SetEnabled(ui.OverlayCollisions, g.cfg.Render.ShowCollisions)

	g.hud = ui.NewHUD()
	g.controls = ui.NewControlsPanel(int32(g.screenWidth)-250, 10, 240)
	g.gridPanel = ui.NewGridPanel(int32(g.screenWidth)-250, 0, 240)
	g.perfPanel = ui.NewPerfPanel(10, 110)
	g.inspector = ui.NewCellInspector(230)
}

// Update handles input and runs the configured number of ticks.
func (g *Game) Update() {
	g.handleInput()
	g.applyActions()

	if g.sim.Halted() != nil {
		return
	}
	if g.paused && !g.stepOnce {
		return
	}

	steps := g.stepsPerUpdate
	if g.stepOnce {
		steps = 1
		g.stepOnce = false
	}
	for range steps {
		if err := g.sim.Step(); err != nil {
			// Halt is shown on the HUD; the window stays open for inspection
			return
		}
	}
}

// UpdateHeadless runs ticks without input or rendering.
func (g *Game) UpdateHeadless() error {
	for range g.stepsPerUpdate {
		if err := g.sim.Step(); err != nil {
			return err
		}
	}
	return nil
}

// applyActions applies what the control panel reported last frame.
func (g *Game) applyActions() {
	a := g.pending
	g.pending = ui.ControlActions{Radius: g.sim.Radius(), Scene: g.sim.Scene()}

	if a.Radius != g.sim.Radius() {
		if err := g.sim.SetRadius(a.Radius); err != nil {
			slog.Warn("radius rejected", "radius", a.Radius, "error", err)
		} else {
			g.queryRadius = a.Radius
		}
	}
	if a.TogglePause {
		g.paused = !g.paused
	}
	if a.Step {
		g.stepOnce = true
	}
	if a.Validate {
		g.validate()
	}
	if a.Reset {
		g.reset(a.Scene)
	}
}

func (g *Game) validate() {
	if _, err := g.sim.Validate(); err != nil {
		slog.Error("validation failed", "tick", g.sim.Tick(), "error", err)
	}
}

func (g *Game) reset(scene string) {
	if err := g.sim.Reset(g.sim.Count(), scene); err != nil {
		slog.Error("reset failed", "scene", scene, "error", err)
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.sim.Tick()
}

// Err returns the error that halted the simulation, if any.
func (g *Game) Err() error {
	return g.sim.Halted()
}

// Unload releases resources.
func (g *Game) Unload() {
	g.sim.Close()
}
