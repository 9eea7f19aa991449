package components

// Position represents a particle's world position.
type Position struct {
	X, Y float32
}

// Velocity represents a particle's velocity in world units per second.
type Velocity struct {
	X, Y float32
}
