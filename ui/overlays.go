package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayBucketColors OverlayID = "bucket_colors"
	OverlayClassColors  OverlayID = "class_colors"
	OverlayCells        OverlayID = "cells"
	OverlayCollisions   OverlayID = "collisions"
	OverlayQuery        OverlayID = "query"
	OverlayInspector    OverlayID = "inspector"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "S", "V")
	Category    string      // Grouping (e.g., "color", "debug")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

func (r *OverlayRegistry) registerDefaults() {
	r.Register(OverlayDescriptor{
		ID:          OverlayBucketColors,
		Name:        "Bucket Colors",
		Description: "Color particles by bucket key",
		Key:         rl.KeyB,
		KeyLabel:    "B",
		Category:    "color",
		Exclusive:   []OverlayID{OverlayClassColors},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayClassColors,
		Name:        "Class Colors",
		Description: "Color particles by cell class",
		Key:         rl.KeyK,
		KeyLabel:    "K",
		Category:    "color",
		Exclusive:   []OverlayID{OverlayBucketColors},
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayCells,
		Name:        "Cell Grid",
		Description: "Draw cell boundaries",
		Key:         rl.KeyG,
		KeyLabel:    "G",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayCollisions,
		Name:        "Collisions",
		Description: "Highlight particles sharing a bucket with another cell",
		Key:         rl.KeyC,
		KeyLabel:    "C",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayQuery,
		Name:        "Mouse Query",
		Description: "Query neighbors around the cursor",
		Key:         rl.KeyQ,
		KeyLabel:    "Q",
		Category:    "debug",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayInspector,
		Name:        "Cell Inspector",
		Description: "Show the index entry for the cell under the cursor",
		Key:         rl.KeyI,
		KeyLabel:    "I",
		Category:    "debug",
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.enabled[desc.ID] = false
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	newState := !r.enabled[id]
	r.SetEnabled(id, newState)
	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}
