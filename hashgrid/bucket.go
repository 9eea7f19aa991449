package hashgrid

import "slices"

// Bucket returns the run of entries stored under key, or nil when the
// bucket is empty. The slice aliases the snapshot.
func (s Snapshot) Bucket(key uint32) []Entry {
	if int(key) >= len(s.Offsets) {
		return nil
	}
	start := s.Offsets[key]
	if start == EmptyOffset {
		return nil
	}
	end := int(start)
	for end < len(s.Lookup) && s.Lookup[end].Key == key {
		end++
	}
	return s.Lookup[start:end]
}

// Colliding reports, per particle, whether its bucket also holds a
// different cell. dst is reused when it has capacity.
func (s Snapshot) Colliding(dst []bool, positions []Vec) []bool {
	dst = slices.Grow(dst[:0], s.N)[:s.N]
	clear(dst)
	if len(positions) != s.N {
		return dst
	}

	var cells []Cell
	s.eachRun(func(run []Entry) {
		cells = s.DistinctCells(cells[:0], run, positions)
		if len(cells) < 2 {
			return
		}
		for _, e := range run {
			if idx := int(e.Payload.Index()); idx < len(dst) {
				dst[idx] = true
			}
		}
	})
	return dst
}

// eachRun calls fn for every run of live entries sharing a key, in table
// order. Lookup must be sorted.
func (s Snapshot) eachRun(fn func(run []Entry)) {
	start := 0
	for i := 1; i <= len(s.Lookup); i++ {
		if i < len(s.Lookup) && s.Lookup[i].Key == s.Lookup[start].Key {
			continue
		}
		if s.Lookup[start].Key == InvalidKey {
			return
		}
		fn(s.Lookup[start:i])
		start = i
	}
}

// DistinctCells appends the true cells of run's particles to cells,
// skipping repeats. Entries whose index is out of range are ignored.
func (s Snapshot) DistinctCells(cells []Cell, run []Entry, positions []Vec) []Cell {
	for _, e := range run {
		idx := int(e.Payload.Index())
		if idx >= len(positions) {
			continue
		}
		cell := CellOf(positions[idx], s.Radius, s.Codec.Dims)
		if !slices.Contains(cells, cell) {
			cells = append(cells, cell)
		}
	}
	return cells
}
