package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/hashgrid/hashgrid"
	"github.com/pthm-cable/hashgrid/renderer"
	"github.com/pthm-cable/hashgrid/sim"
	"github.com/pthm-cable/hashgrid/ui"
)

const controlsLegend = "[Space] pause  [N] step  [V] validate  [R] reset  [Tab] panel  [</>] speed  [[/]] query radius  [Home] camera"

// Draw renders the frame.
func (g *Game) Draw() {
	g.sim.Perf().RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(rl.Color{R: 12, G: 14, B: 18, A: 255})

	view, err := g.sim.View()
	built := err == nil
	positions := g.sim.Positions()

	mouse := rl.GetMousePosition()
	wx, wy := g.camera.ScreenToWorld(mouse.X, mouse.Y)
	cursor := hashgrid.Vec{wx, wy}
	overPanel := g.controls.Contains(mouse.X, mouse.Y, g.controlsBottom-10)

	frame := renderer.Frame{
		Positions:  positions,
		View:       view,
		Bound:      g.cfg.Derived.Bound32,
		Extent:     g.sim.Extent(),
		Color:      g.colorMode(),
		Cells:      g.overlays.IsEnabled(ui.OverlayCells),
		Collisions: g.overlays.IsEnabled(ui.OverlayCollisions),
	}
	if built && !overPanel && g.overlays.IsEnabled(ui.OverlayQuery) {
		g.hits = g.sim.Neighbors(cursor, g.queryRadius)
		frame.Query = &renderer.QueryCircle{Center: cursor, Radius: g.queryRadius, Hits: g.hits}
	}
	g.grid.Draw(frame)

	build := g.sim.BuildStats()
	g.hud.Draw(ui.HUDData{
		Title:     "Spatial Hash Grid",
		Particles: g.sim.Count(),
		Scene:     g.sim.Scene(),
		Tick:      g.sim.Tick(),
		Radius:    g.sim.Radius(),
		TableSize: build.Size,
		Build:     build.Total(),
		Rounds:    build.SortRounds,
		FPS:       rl.GetFPS(),
		Paused:    g.paused,
		Halted:    g.sim.Halted(),
	})
	g.perfPanel.Draw(g.sim.Perf().Stats())

	actions, bottom := g.controls.Draw(ui.ControlState{
		Radius:    g.sim.Radius(),
		MinRadius: 0.01,
		MaxRadius: g.cfg.Derived.Bound32 / 4,
		Paused:    g.paused,
		Halted:    g.sim.Halted() != nil,
		Scenes:    sim.SceneNames(),
		Scene:     g.sim.Scene(),
	}, g.overlays)
	g.controlsBottom = bottom + 10
	g.mergeActions(actions)

	stats := g.sim.GridStats()
	g.gridPanel.SetPosition(int32(g.screenWidth)-250, g.controlsBottom)
	g.gridPanel.Draw(stats, stats.Slots > 0)

	if built && !overPanel && g.overlays.IsEnabled(ui.OverlayInspector) {
		if info, err := g.sim.InspectCell(cursor); err == nil {
			g.inspector.Draw(int32(mouse.X), int32(mouse.Y), int32(g.screenWidth), int32(g.screenHeight), info)
		}
	}

	g.hud.DrawControls(int32(g.screenHeight), controlsLegend)

	rl.EndDrawing()
}

// mergeActions folds panel actions into those already queued by keys.
func (g *Game) mergeActions(a ui.ControlActions) {
	g.pending.Radius = a.Radius
	g.pending.Validate = g.pending.Validate || a.Validate
	g.pending.TogglePause = g.pending.TogglePause || a.TogglePause
	g.pending.Step = g.pending.Step || a.Step
	if a.Reset {
		g.pending.Reset = true
		g.pending.Scene = a.Scene
	}
}

func (g *Game) colorMode() renderer.ColorMode {
	switch {
	case g.overlays.IsEnabled(ui.OverlayBucketColors):
		return renderer.ColorBucket
	case g.overlays.IsEnabled(ui.OverlayClassColors):
		return renderer.ColorClass
	}
	return renderer.ColorPlain
}
