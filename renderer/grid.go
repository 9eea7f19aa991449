// Package renderer draws the particle view: particles, the cell grid,
// colliding buckets and the mouse query.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/hashgrid/camera"
	"github.com/pthm-cable/hashgrid/hashgrid"
)

// maxGridLines bounds the cell overlay; beyond it the grid is skipped.
const maxGridLines = 400

// ColorMode selects how particles are colored.
type ColorMode int

const (
	ColorPlain ColorMode = iota
	ColorBucket
	ColorClass
)

// QueryCircle is a neighbor query to visualize.
type QueryCircle struct {
	Center hashgrid.Vec
	Radius float32
	Hits   []hashgrid.Neighbor
}

// Frame is everything GridRenderer needs for one frame.
type Frame struct {
	Positions  []hashgrid.Vec
	View       hashgrid.Snapshot // empty before the first build
	Bound      float32
	Extent     float32
	Color      ColorMode
	Cells      bool
	Collisions bool
	Query      *QueryCircle
}

// GridRenderer draws particles and index overlays through a camera.
type GridRenderer struct {
	cam       *camera.Camera
	pointSize float32
	colliding []bool
}

// NewGridRenderer creates a renderer for the given camera.
func NewGridRenderer(cam *camera.Camera, pointSize float32) *GridRenderer {
	if pointSize <= 0 {
		pointSize = 2
	}
	return &GridRenderer{cam: cam, pointSize: pointSize}
}

// Draw renders the frame.
func (r *GridRenderer) Draw(f Frame) {
	r.drawBox(f.Bound, rl.Color{R: 70, G: 70, B: 80, A: 255})
	r.drawBox(f.Extent, rl.Color{R: 110, G: 110, B: 120, A: 255})

	built := f.View.Size() > 0 && f.View.N == len(f.Positions)
	if f.Cells && built {
		r.drawCells(f.View.Radius, f.Bound)
	}

	if f.Collisions && built {
		r.colliding = f.View.Colliding(r.colliding, f.Positions)
	} else {
		r.colliding = r.colliding[:0]
	}

	r.drawParticles(f, built)

	if f.Query != nil {
		r.drawQuery(f.Positions, f.Query)
	}
}

func (r *GridRenderer) drawBox(half float32, color rl.Color) {
	x0, y0 := r.cam.WorldToScreen(-half, half)
	x1, y1 := r.cam.WorldToScreen(half, -half)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, 1, color)
}

// drawCells draws the cell boundaries visible on screen.
func (r *GridRenderer) drawCells(cell, bound float32) {
	x0, y0, x1, y1 := r.cam.VisibleCells(cell)
	if int(x1-x0)+int(y1-y0) > maxGridLines {
		return
	}

	color := rl.Color{R: 50, G: 55, B: 65, A: 255}
	for cx := x0; cx <= x1+1; cx++ {
		wx := float32(cx) * cell
		if wx < -bound || wx > bound {
			continue
		}
		sx, sy0 := r.cam.WorldToScreen(wx, -bound)
		_, sy1 := r.cam.WorldToScreen(wx, bound)
		rl.DrawLineV(rl.Vector2{X: sx, Y: sy0}, rl.Vector2{X: sx, Y: sy1}, color)
	}
	for cy := y0; cy <= y1+1; cy++ {
		wy := float32(cy) * cell
		if wy < -bound || wy > bound {
			continue
		}
		sx0, sy := r.cam.WorldToScreen(-bound, wy)
		sx1, _ := r.cam.WorldToScreen(bound, wy)
		rl.DrawLineV(rl.Vector2{X: sx0, Y: sy}, rl.Vector2{X: sx1, Y: sy}, color)
	}
}

func (r *GridRenderer) drawParticles(f Frame, built bool) {
	size := uint32(f.View.Size())
	dims := f.View.Codec.Dims

	for i, p := range f.Positions {
		if !r.cam.IsVisible(p[0], p[1], 0) {
			continue
		}

		color := particleColor
		if built {
			switch f.Color {
			case ColorBucket:
				color = BucketColor(hashgrid.BucketKey(hashgrid.Hash(hashgrid.CellOf(p, f.View.Radius, dims)), size))
			case ColorClass:
				color = ClassColor(hashgrid.CellOf(p, f.View.Radius, dims).Class())
			}
		}

		sx, sy := r.cam.WorldToScreen(p[0], p[1])
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r.pointSize, color)

		if i < len(r.colliding) && r.colliding[i] {
			rl.DrawCircleLinesV(rl.Vector2{X: sx, Y: sy}, r.pointSize+2, rl.Red)
		}
	}
}

func (r *GridRenderer) drawQuery(positions []hashgrid.Vec, q *QueryCircle) {
	cx, cy := r.cam.WorldToScreen(q.Center[0], q.Center[1])
	center := rl.Vector2{X: cx, Y: cy}
	rl.DrawCircleLinesV(center, q.Radius*r.cam.Scale(), rl.Yellow)

	for _, n := range q.Hits {
		if int(n.Index) >= len(positions) {
			continue
		}
		p := positions[n.Index]
		sx, sy := r.cam.WorldToScreen(p[0], p[1])
		rl.DrawLineV(center, rl.Vector2{X: sx, Y: sy}, rl.Color{R: 255, G: 255, B: 0, A: 60})
		rl.DrawCircleV(rl.Vector2{X: sx, Y: sy}, r.pointSize+1, rl.Yellow)
	}
}
