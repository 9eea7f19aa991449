package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlState holds the values shown by the control panel.
type ControlState struct {
	Radius    float32
	MinRadius float32
	MaxRadius float32
	Paused    bool
	Halted    bool
	Scenes    []string
	Scene     string
}

// ControlActions reports what the user changed this frame.
type ControlActions struct {
	Radius      float32 // New radius (equal to the input when unchanged)
	Validate    bool
	Reset       bool
	Scene       string // Scene to reset into
	TogglePause bool
	Step        bool // Single tick while paused
}

// ControlsPanel renders the right-side control panel with raygui widgets.
type ControlsPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
		visible:  true,
	}
}

// SetPosition updates the panel position.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x = x
	c.y = y
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Contains reports whether a screen point lies on the panel, so clicks
// on it are not treated as world clicks.
func (c *ControlsPanel) Contains(x, y float32, height int32) bool {
	return c.visible &&
		x >= float32(c.x) && x <= float32(c.x+c.width) &&
		y >= float32(c.y) && y <= float32(c.y+height)
}

// Draw renders the controls and overlay toggles. Returns the actions taken
// and the panel bottom.
func (c *ControlsPanel) Draw(state ControlState, overlays *OverlayRegistry) (ControlActions, int32) {
	actions := ControlActions{Radius: state.Radius, Scene: state.Scene}
	if !c.visible {
		return actions, c.y
	}

	r := c.renderer
	padding := r.Theme.Padding
	lineHeight := r.Theme.LineHeight
	inner := float32(c.width - padding*2)

	panelHeight := lineHeight*8 + 30*3 + int32(len(state.Scenes))*24 + int32(len(overlays.All()))*22 + padding*4
	r.DrawPanel(c.x, c.y, c.width, panelHeight)

	x := float32(c.x + padding)
	y := c.y + padding

	rl.DrawText("Grid", int32(x), y, 16, rl.White)
	y += lineHeight + 4

	// Cell size slider
	rl.DrawText(fmt.Sprintf("Cell size: %.3f", state.Radius), int32(x), y, r.Theme.FontSize, r.Theme.LabelColor)
	y += lineHeight
	actions.Radius = gui.SliderBar(
		rl.Rectangle{X: x, Y: float32(y), Width: inner - 60, Height: 20},
		"", fmt.Sprintf("%.2f", state.MaxRadius),
		state.Radius, state.MinRadius, state.MaxRadius,
	)
	y += 30

	half := (inner - 10) / 2
	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, "Validate") {
		actions.Validate = true
	}
	pauseLabel := "Pause"
	if state.Paused {
		pauseLabel = "Resume"
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: float32(y), Width: half, Height: 24}, pauseLabel) {
		actions.TogglePause = true
	}
	y += 30

	if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: half, Height: 24}, "Step") {
		actions.Step = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: float32(y), Width: half, Height: 24}, "Reset") {
		actions.Reset = true
	}
	y += 30

	if state.Halted {
		rl.DrawText("Halted: reset to continue", int32(x), y, r.Theme.FontSize, r.Theme.ErrorColor)
	}
	y += lineHeight

	// Scene selection resets into the chosen scene
	y = r.DrawSectionHeader(int32(x), y, "Scenes")
	for _, name := range state.Scenes {
		label := name
		if name == state.Scene {
			label = "> " + name
		}
		if gui.Button(rl.Rectangle{X: x, Y: float32(y), Width: inner, Height: 20}, label) {
			actions.Reset = true
			actions.Scene = name
		}
		y += 24
	}
	y += 4

	y = r.DrawSectionHeader(int32(x), y, "Overlays")
	for _, desc := range overlays.All() {
		enabled := overlays.IsEnabled(desc.ID)
		label := fmt.Sprintf("%s [%s]", desc.Name, desc.KeyLabel)
		if gui.CheckBox(rl.Rectangle{X: x, Y: float32(y), Width: 14, Height: 14}, label, enabled) != enabled {
			overlays.Toggle(desc.ID)
		}
		y += 22
	}

	return actions, c.y + panelHeight
}
