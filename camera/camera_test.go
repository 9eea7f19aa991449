package camera

import (
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(1280, 800, 2)

	if cam.X != 0 || cam.Y != 0 {
		t.Errorf("expected camera at origin, got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
	// Box fits the shorter side
	if !approx(cam.Scale(), 200) {
		t.Errorf("expected scale 200, got %f", cam.Scale())
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1280, 800, 2)

	sx, sy := cam.WorldToScreen(0, 0)
	if !approx(sx, 640) || !approx(sy, 400) {
		t.Errorf("expected screen center (640, 400), got (%f, %f)", sx, sy)
	}

	// Top of the box maps to the top of the screen
	_, sy = cam.WorldToScreen(0, 2)
	if !approx(sy, 0) {
		t.Errorf("expected world y=2 at screen top, got %f", sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 800, 2)
	cam.SetZoom(2.5)
	cam.Pan(40, -30)

	testCases := []struct{ sx, sy float32 }{
		{640, 400},  // center
		{100, 100},  // top-left
		{1200, 700}, // near bottom-right
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !approx(sx, tc.sx) || !approx(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestPanStaysInBox(t *testing.T) {
	cam := New(1280, 800, 2)

	cam.Pan(1e6, 1e6)
	if cam.X != 2 || cam.Y != -2 {
		t.Errorf("expected camera clamped to (2, -2), got (%f, %f)", cam.X, cam.Y)
	}
}

func TestZoomClamped(t *testing.T) {
	cam := New(1280, 800, 2)

	cam.ZoomBy(1000)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected max zoom %f, got %f", cam.MaxZoom, cam.Zoom)
	}
	cam.ZoomBy(1e-6)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected min zoom %f, got %f", cam.MinZoom, cam.Zoom)
	}
}

func TestZoomAtKeepsPointFixed(t *testing.T) {
	cam := New(1280, 800, 2)

	wx, wy := cam.ScreenToWorld(900, 200)
	cam.ZoomAt(900, 200, 2)
	gx, gy := cam.ScreenToWorld(900, 200)
	if !approx(wx, gx) || !approx(wy, gy) {
		t.Errorf("expected (%f, %f) under cursor, got (%f, %f)", wx, wy, gx, gy)
	}
}

func TestVisibleCells(t *testing.T) {
	cam := New(800, 800, 2)

	x0, y0, x1, y1 := cam.VisibleCells(0.5)
	if x0 != -4 || y0 != -4 || x1 != 4 || y1 != 4 {
		t.Errorf("expected cells -4..4, got x %d..%d y %d..%d", x0, x1, y0, y1)
	}

	cam.SetZoom(4)
	x0, _, x1, _ = cam.VisibleCells(0.5)
	if x0 != -1 || x1 != 1 {
		t.Errorf("expected cells -1..1 at zoom 4, got %d..%d", x0, x1)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(800, 800, 2)
	cam.SetZoom(4) // visible [-0.5, 0.5]

	if !cam.IsVisible(0.4, 0, 0) {
		t.Error("expected point inside view visible")
	}
	if cam.IsVisible(1, 0, 0.1) {
		t.Error("expected distant point culled")
	}
	if !cam.IsVisible(0.55, 0, 0.1) {
		t.Error("expected circle overlapping edge visible")
	}
}
