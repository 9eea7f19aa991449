package hashgrid

import "math"

// Snapshot is a completed build: the sorted lookup table, the offset table
// and the parameters they were built with. Snapshots from View alias
// device memory; snapshots from ReadBack are host copies.
type Snapshot struct {
	Lookup  []Entry
	Offsets []uint32
	N       int     // live particle count
	Radius  float32 // cell side length
	Codec   Codec
}

// Size returns the table size T.
func (s Snapshot) Size() int {
	return len(s.Lookup)
}

// Neighbor is a query result.
type Neighbor struct {
	Index    uint32
	Distance float32
}

// probe is a bucket to scan and the classes of the candidate cells that
// hash into it.
type probe struct {
	key     uint32
	classes uint32
}

// Query appends to dst every particle within radius of p and returns the
// updated slice. Reuse dst across calls to avoid allocations. maxResults
// caps the number appended (0 = unlimited). Results are unordered.
//
// positions must be the array the snapshot was built from. A snapshot
// that does not match it yields no results.
func (s Snapshot) Query(dst []Neighbor, positions []Vec, p Vec, radius float32, maxResults int) []Neighbor {
	if len(s.Lookup) == 0 || len(positions) != s.N || !(radius >= 0) || !(s.Radius > 0) {
		return dst
	}

	dims := s.Codec.Dims
	radiusSq := radius * radius
	found := 0

	var buf [linearProbes]probe
	probes, all := s.plan(buf[:0], p, radius)
	if all {
		// The ring covers every bucket; scan the table once
		for _, e := range s.Lookup {
			if e.Key == InvalidKey {
				break
			}
			var hit bool
			if dst, hit = appendWithin(dst, positions, e.Payload, p, radiusSq, dims); hit {
				found++
				if maxResults > 0 && found >= maxResults {
					return dst
				}
			}
		}
		return dst
	}

	for _, pr := range probes {
		start := s.Offsets[pr.key]
		if start == EmptyOffset {
			continue
		}

		for j := int(start); j < len(s.Lookup) && s.Lookup[j].Key == pr.key; j++ {
			payload := s.Lookup[j].Payload
			if pr.classes&(1<<payload.Class()) == 0 {
				continue
			}
			var hit bool
			if dst, hit = appendWithin(dst, positions, payload, p, radiusSq, dims); hit {
				found++
				// Early exit if we hit the cap
				if maxResults > 0 && found >= maxResults {
					return dst
				}
			}
		}
	}

	return dst
}

// linearProbes is the candidate count up to which probes are merged by
// linear search: one ring in 3D.
const linearProbes = 27

// plan appends to probes the candidate cells around p grouped by bucket,
// so each bucket is scanned once. all is set instead when the candidate
// cells are at least as many as the buckets.
func (s Snapshot) plan(probes []probe, p Vec, radius float32) ([]probe, bool) {
	dims := s.Codec.Dims
	size := uint32(len(s.Lookup))

	// Rings of cells to check around the center
	rings := 1.0
	if radius > s.Radius {
		rings = math.Ceil(float64(radius / s.Radius))
	}
	side := 2*rings + 1
	cells := side * side
	if dims == Dims3 {
		cells *= side
	}
	if cells >= float64(size) {
		return nil, true
	}

	r := int32(rings)
	zr := r
	if dims != Dims3 {
		zr = 0
	}

	var slots map[uint32]int
	if cells > linearProbes {
		slots = make(map[uint32]int, int(cells))
	}
	center := CellOf(p, s.Radius, dims)
	for dz := -zr; dz <= zr; dz++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				c := center.Offset(dx, dy, dz)
				key := BucketKey(Hash(c), size)
				if slots == nil {
					probes = addProbe(probes, key, c.Class())
					continue
				}
				if i, ok := slots[key]; ok {
					probes[i].classes |= 1 << c.Class()
					continue
				}
				slots[key] = len(probes)
				probes = append(probes, probe{key: key, classes: 1 << c.Class()})
			}
		}
	}
	return probes, false
}

// appendWithin appends the payload's particle to dst when it lies within
// the radius of p. Bucket membership is a hint; the distance test decides.
func appendWithin(dst []Neighbor, positions []Vec, payload PackedKey, p Vec, radiusSq float32, dims Dims) ([]Neighbor, bool) {
	if !payload.HasParticle() {
		return dst, false
	}
	idx := payload.Index()
	if int(idx) >= len(positions) {
		return dst, false
	}
	distSq := distanceSq(p, positions[idx], dims)
	if distSq > radiusSq {
		return dst, false
	}
	return append(dst, Neighbor{Index: idx, Distance: float32(math.Sqrt(float64(distSq)))}), true
}

func addProbe(probes []probe, key uint32, class uint8) []probe {
	for i := range probes {
		if probes[i].key == key {
			probes[i].classes |= 1 << class
			return probes
		}
	}
	return append(probes, probe{key: key, classes: 1 << class})
}

func distanceSq(a, b Vec, dims Dims) float32 {
	var sum float32
	for axis := 0; axis < int(dims); axis++ {
		d := b[axis] - a[axis]
		sum += d * d
	}
	return sum
}
