package hashgrid

import (
	"errors"
	"fmt"
)

// Configuration errors returned by Build.
var (
	ErrInvalidRadius    = errors.New("hashgrid: radius must be positive and finite")
	ErrTableSize        = errors.New("hashgrid: table size must be a power of two not below the particle count")
	ErrTooManyParticles = errors.New("hashgrid: particle count exceeds index capacity")
)

// ErrNotBuilt is returned when tables are read before a completed build.
var ErrNotBuilt = errors.New("hashgrid: index not built")

// ErrInvariant matches every *InvariantError.
var ErrInvariant = errors.New("hashgrid: invariant violated")

// Invariant names a checked property of a built index.
type Invariant string

const (
	InvariantIndexValidity Invariant = "index_validity" // invalid key iff no particle
	InvariantSorted        Invariant = "sorted"         // lookup non-decreasing by (key, class, index)
	InvariantRoundTrip     Invariant = "round_trip"     // decoded position within tolerance
	InvariantHash          Invariant = "hash"           // stored key matches current position
	InvariantOffsets       Invariant = "offsets"        // offset table points at first-of-run
	InvariantCoverage      Invariant = "coverage"       // every live particle appears exactly once
)

// InvariantError reports a violated invariant at a table slot. It is
// always fatal: it indicates a bug in hashing, quantization or the sort.
type InvariantError struct {
	Invariant Invariant
	Slot      int
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("hashgrid: invariant %s violated at slot %d: %s", e.Invariant, e.Slot, e.Detail)
}

// Is makes errors.Is(err, ErrInvariant) hold for every InvariantError.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}

func violation(inv Invariant, slot int, format string, args ...any) error {
	return &InvariantError{Invariant: inv, Slot: slot, Detail: fmt.Sprintf(format, args...)}
}
