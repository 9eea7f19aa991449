package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/hashgrid/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Particles int
	Scene     string
	Tick      int32
	Radius    float32
	TableSize int
	Build     time.Duration
	Rounds    int
	FPS       int32
	Paused    bool
	Halted    error
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Particles: %d | Scene: %s | Cell: %.3f | Table: %d", data.Particles, data.Scene, data.Radius, data.TableSize),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | FPS: %d | Build: %s (%d sort rounds)", data.Tick, data.FPS, data.Build.Round(time.Microsecond), data.Rounds),
		10, 55, 16, rl.LightGray,
	)

	switch {
	case data.Halted != nil:
		rl.DrawText("HALTED: "+data.Halted.Error(), 10, 75, 16, rl.Red)
	case data.Paused:
		rl.DrawText("PAUSED", 10, 75, 16, rl.Yellow)
	default:
		rl.DrawText("Running", 10, 75, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// GridPanel renders the latest validation summary.
type GridPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewGridPanel creates a new grid statistics panel.
func NewGridPanel(x, y, width int32) *GridPanel {
	return &GridPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (g *GridPanel) SetPosition(x, y int32) {
	g.x = x
	g.y = y
}

// Draw renders the panel. validated is false until the first validation.
func (g *GridPanel) Draw(stats telemetry.GridStats, validated bool) {
	r := g.renderer
	padding := r.Theme.Padding
	height := r.Theme.LineHeight*9 + padding*2
	r.DrawPanel(g.x, g.y, g.width, height)

	x := g.x + padding
	y := g.y + padding
	y = r.DrawSectionHeader(x, y, "Last Validation")

	if !validated {
		r.DrawLabelValue(x, y, "Status", "not yet run")
		return
	}

	y = r.DrawLabelValueColor(x, y, "Status", fmt.Sprintf("ok at tick %d", stats.Tick), rl.Green)
	y = r.DrawLabelValue(x, y, "Distinct keys", fmt.Sprintf("%d / %d", stats.DistinctKeys, stats.Slots))
	y = r.DrawBar(x, y, "Load", float32(stats.LoadFactor), 0.75, g.width-padding*2)
	y = r.DrawBar(x, y, "Collision rate", float32(stats.CollisionRate), 0.1, g.width-padding*2)
	y = r.DrawLabelValue(x, y, "Colliding", fmt.Sprintf("%d buckets, %d entries", stats.CollidingBuckets, stats.CollidingEntries))
	y = r.DrawLabelValue(x, y, "Occupancy", fmt.Sprintf("%.2f +- %.2f", stats.OccupancyMean, stats.OccupancyStd))
	y = r.DrawLabelValue(x, y, "p95 / max", fmt.Sprintf("%.0f / %.0f", stats.OccupancyP95, stats.OccupancyMax))
	r.DrawLabelValue(x, y, "Quant error", fmt.Sprintf("%.2e", stats.MaxQuantError))
}

// PerfPanel renders the per-phase timing breakdown.
type PerfPanel struct {
	x, y int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y int32) *PerfPanel {
	return &PerfPanel{x: x, y: y}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	x := p.x
	y := p.y

	rl.DrawText("Tick Phases", x, y, 16, rl.White)
	y += 20

	rl.DrawText(fmt.Sprintf("Avg tick: %s  p95: %s", stats.AvgTick.Round(time.Microsecond), stats.P95Tick.Round(time.Microsecond)), x, y, 14, rl.Yellow)
	y += 16

	for _, phase := range telemetry.PhaseOrder() {
		avg := stats.Phases[phase].Avg
		pct := stats.Phases[phase].Pct

		color := rl.LightGray
		if pct > 40 {
			color = rl.Red
		} else if pct > 20 {
			color = rl.Orange
		}

		rl.DrawText(
			fmt.Sprintf("%-12s %8s %5.1f%%", phase, avg.Round(time.Microsecond), pct),
			x, y, 12, color,
		)
		y += 14
	}
}
