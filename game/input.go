package game

import rl "github.com/gen2brain/raylib-go/raylib"

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.pending.TogglePause = true
	}
	if rl.IsKeyPressed(rl.KeyN) {
		g.pending.Step = true
	}
	if rl.IsKeyPressed(rl.KeyV) {
		g.pending.Validate = true
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.pending.Reset = true
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.controls.Toggle()
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	// Query radius with [ ]
	if rl.IsKeyPressed(rl.KeyLeftBracket) {
		g.queryRadius = max(g.queryRadius*0.8, 0.001)
	}
	if rl.IsKeyPressed(rl.KeyRightBracket) {
		g.queryRadius = min(g.queryRadius*1.25, g.cfg.Derived.Bound32)
	}

	// Overlay toggles
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		g.overlays.HandleKeyPress(key)
	}

	g.handleCameraInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.controls.SetPosition(int32(w)-250, 10)
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Arrow key panning in screen pixels
	const panSpeed = 8.0
	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Right-drag pans
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		d := rl.GetMouseDelta()
		g.camera.Pan(-d.X, -d.Y)
	}

	// Zoom toward the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		g.camera.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}

	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
