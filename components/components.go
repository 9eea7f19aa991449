// Package components defines ECS components for the simulation.
package components

// Particle holds per-particle identity.
type Particle struct {
	ID   uint32 // Stable across ticks; index slots are not
	Mass float32
}
