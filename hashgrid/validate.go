package hashgrid

import (
	"cmp"
	"log/slog"
	"slices"
)

// Report is the collision telemetry of a validated snapshot. Collisions
// are expected and never an error; they only cost query time.
type Report struct {
	Slots            int     // table size T
	Live             int     // entries holding a particle
	DistinctKeys     int     // buckets with at least one entry
	CollidingBuckets int     // buckets holding two or more distinct cells
	CollidingEntries int     // entries inside colliding buckets
	MaxQuantError    float32 // worst per-axis decode error seen

	// Occupancy holds the entry count of each live bucket, in key order.
	Occupancy []float64
}

// CollisionRate returns the fraction of live buckets that collide.
func (r Report) CollisionRate() float64 {
	if r.DistinctKeys == 0 {
		return 0
	}
	return float64(r.CollidingBuckets) / float64(r.DistinctKeys)
}

// LogValue implements slog.LogValuer for structured logging.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("slots", r.Slots),
		slog.Int("live", r.Live),
		slog.Int("distinct_keys", r.DistinctKeys),
		slog.Int("colliding_buckets", r.CollidingBuckets),
		slog.Int("colliding_entries", r.CollidingEntries),
		slog.Float64("max_quant_error", float64(r.MaxQuantError)),
	)
}

// Validate checks every invariant of the snapshot against the
// authoritative positions and returns collision telemetry. The first
// violation is returned as an *InvariantError. tolerance <= 0 uses
// DefaultTolerance.
func (s Snapshot) Validate(positions []Vec, tolerance float32) (Report, error) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	size := len(s.Lookup)
	if size == 0 {
		return Report{}, ErrNotBuilt
	}
	if !IsPowerOfTwo(size) || len(s.Offsets) != size || s.N > size {
		return Report{}, violation(InvariantCoverage, -1,
			"table shape lookup=%d offsets=%d n=%d", size, len(s.Offsets), s.N)
	}
	if len(positions) != s.N {
		return Report{}, violation(InvariantCoverage, -1,
			"built for %d particles, validating against %d", s.N, len(positions))
	}

	report := Report{Slots: size}
	codec := s.Codec
	seen := make([]bool, s.N)

	for i, e := range s.Lookup {
		// I1: invalid key iff no particle
		if (e.Key == InvalidKey) != !e.Payload.HasParticle() {
			return report, violation(InvariantIndexValidity, i,
				"key %#x with particle index %#x", e.Key, e.Payload.Index())
		}
		if e.Key == InvalidKey {
			continue
		}
		if e.Key >= uint32(size) {
			return report, violation(InvariantIndexValidity, i, "key %d outside table of %d", e.Key, size)
		}

		idx := int(e.Payload.Index())
		if idx >= s.N {
			return report, violation(InvariantCoverage, i, "particle index %d outside [0, %d)", idx, s.N)
		}
		if seen[idx] {
			return report, violation(InvariantCoverage, i, "particle %d stored twice", idx)
		}
		seen[idx] = true
		report.Live++

		truePos := positions[idx]

		// I3: stored quantization decodes close to the true position
		decoded := codec.Decode(e.Payload)
		for axis := 0; axis < int(codec.Dims); axis++ {
			diff := abs32(decoded[axis] - truePos[axis])
			report.MaxQuantError = max(report.MaxQuantError, diff)
			if diff > tolerance {
				return report, violation(InvariantRoundTrip, i,
					"particle %d axis %d decoded %v, true %v", idx, axis, decoded[axis], truePos[axis])
			}
		}

		// Re-quantizing the true position must agree with the stored field
		requant := codec.Encode(truePos)
		if requant.Position() != e.Payload.Position() {
			return report, violation(InvariantRoundTrip, i,
				"particle %d stored position %#x, re-encoded %#x", idx, e.Payload.Position(), requant.Position())
		}
		if rt := codec.RoundTripError(truePos); rt > tolerance {
			return report, violation(InvariantRoundTrip, i, "particle %d round trip error %v", idx, rt)
		}

		// I4: key and class match the current position
		cell := CellOf(truePos, s.Radius, codec.Dims)
		if key := BucketKey(Hash(cell), uint32(size)); key != e.Key {
			return report, violation(InvariantHash, i,
				"particle %d stored key %d, recomputed %d from cell %v", idx, e.Key, key, cell)
		}
		if class := cell.Class(); class != e.Payload.Class() {
			return report, violation(InvariantHash, i,
				"particle %d stored class %d, recomputed %d", idx, e.Payload.Class(), class)
		}
	}

	if report.Live != s.N {
		missing := slices.Index(seen, false)
		return report, violation(InvariantCoverage, -1, "particle %d missing from lookup", missing)
	}

	// I2: compare with an independently sorted copy
	sorted := slices.Clone(s.Lookup)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(a.sortKey(), b.sortKey())
	})
	for i := range sorted {
		if s.Lookup[i] != sorted[i] {
			return report, violation(InvariantSorted, i,
				"entry key %d index %d, expected key %d index %d",
				s.Lookup[i].Key, s.Lookup[i].Payload.Index(), sorted[i].Key, sorted[i].Payload.Index())
		}
	}

	if err := s.checkOffsets(); err != nil {
		return report, err
	}

	s.countCollisions(positions, &report)
	return report, nil
}

// checkOffsets verifies that each present key points at the first slot of
// its run and that absent keys are empty. Lookup must be sorted.
func (s Snapshot) checkOffsets() error {
	want := make([]uint32, len(s.Offsets))
	for k := range want {
		want[k] = EmptyOffset
	}
	for i, e := range s.Lookup {
		if e.Key == InvalidKey {
			break
		}
		if i == 0 || s.Lookup[i-1].Key != e.Key {
			want[e.Key] = uint32(i)
		}
	}
	for k := range want {
		if s.Offsets[k] != want[k] {
			return violation(InvariantOffsets, k, "offset %d, first slot of key is %d", s.Offsets[k], want[k])
		}
	}
	return nil
}

// countCollisions counts buckets that hold more than one distinct true
// cell. Lookup must be sorted.
func (s Snapshot) countCollisions(positions []Vec, report *Report) {
	var cells []Cell
	s.eachRun(func(run []Entry) {
		report.DistinctKeys++
		report.Occupancy = append(report.Occupancy, float64(len(run)))
		cells = s.DistinctCells(cells[:0], run, positions)
		if len(cells) > 1 {
			report.CollidingBuckets++
			report.CollidingEntries += len(run)
		}
	})
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
