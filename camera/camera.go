// Package camera provides a 2D camera for viewing the simulation box.
package camera

import "math"

// Camera maps the square world [-Bound, Bound]² onto the viewport.
// World Y points up; screen Y points down.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom multiplies the fit scale (1.0 = whole box visible)
	Zoom float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// Half-width of the world box
	Bound float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the origin with the box fitted to the
// viewport.
func New(viewportW, viewportH, bound float32) *Camera {
	return &Camera{
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		Bound:     bound,
		MinZoom:   0.5,
		MaxZoom:   64.0,
	}
}

// Scale returns pixels per world unit at the current zoom.
func (c *Camera) Scale() float32 {
	fit := min(c.ViewportW, c.ViewportH) / (2 * c.Bound)
	return fit * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 - (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y - (sy-c.ViewportH/2)/s
	return wx, wy
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return wx+radius >= minX && wx-radius <= maxX &&
		wy+radius >= minY && wy-radius <= maxY
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels. The center
// stays inside the box.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X = clamp(c.X+dx/s, -c.Bound, c.Bound)
	c.Y = clamp(c.Y-dy/s, -c.Bound, c.Bound)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor keeping the world point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.ZoomBy(factor)
	nx, ny := c.ScreenToWorld(sx, sy)
	c.X = clamp(c.X+wx-nx, -c.Bound, c.Bound)
	c.Y = clamp(c.Y+wy-ny, -c.Bound, c.Bound)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = 0
	c.Y = 0
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	s := c.Scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

// VisibleCells returns the inclusive range of cell coordinates of size
// cell that intersect the visible area, limited to the box.
func (c *Camera) VisibleCells(cell float32) (x0, y0, x1, y1 int32) {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	minX, minY = max(minX, -c.Bound), max(minY, -c.Bound)
	maxX, maxY = min(maxX, c.Bound), min(maxY, c.Bound)
	return floorDiv(minX, cell), floorDiv(minY, cell), floorDiv(maxX, cell), floorDiv(maxY, cell)
}

func floorDiv(v, cell float32) int32 {
	return int32(math.Floor(float64(v / cell)))
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
