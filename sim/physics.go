package sim

import (
	"github.com/pthm-cable/hashgrid/components"
	"github.com/pthm-cable/hashgrid/hashgrid"
)

// intent captures computed outputs to apply after the parallel phase.
type intent struct {
	X, Y   float32
	VX, VY float32
}

// physicsParams holds per-tick constants for integrate.
type physicsParams struct {
	dt          float32
	gravity     float32
	repulsion   float32
	damping     float32
	restitution float32
	extent      float32
	radius      float32
}

// integrate advances particle i by one step: gravity, soft repulsion from
// neighbors inside the radius, velocity damping, then wall bounce.
// It only reads shared state, so it is safe to run from many workers.
func integrate(i int, positions []hashgrid.Vec, vel components.Velocity, neighbors []hashgrid.Neighbor, p physicsParams) intent {
	self := positions[i]
	fx, fy := float32(0), p.gravity

	for _, n := range neighbors {
		// Coincident particles have no direction to push along
		if int(n.Index) == i || n.Distance <= 0 {
			continue
		}
		other := positions[n.Index]
		push := p.repulsion * (1 - n.Distance/p.radius)
		fx += (self[0] - other[0]) / n.Distance * push
		fy += (self[1] - other[1]) / n.Distance * push
	}

	decay := max(0, 1-p.damping*p.dt)
	vx := (vel.X + fx*p.dt) * decay
	vy := (vel.Y + fy*p.dt) * decay

	x, vx := bounce(self[0]+vx*p.dt, vx, p.extent, p.restitution)
	y, vy := bounce(self[1]+vy*p.dt, vy, p.extent, p.restitution)

	return intent{X: x, Y: y, VX: vx, VY: vy}
}

// bounce reflects a coordinate that left [-extent, extent].
func bounce(x, v, extent, restitution float32) (float32, float32) {
	if x < -extent {
		return -extent, -v * restitution
	}
	if x > extent {
		return extent, -v * restitution
	}
	return x, v
}
