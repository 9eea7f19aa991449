package sim

import "github.com/pthm-cable/hashgrid/hashgrid"

// CellInfo describes the index entry for the cell containing a point.
type CellInfo struct {
	World     hashgrid.Vec
	Cell      hashgrid.Cell
	Hash      uint32
	Key       uint32
	Class     uint8
	Offset    uint32 // hashgrid.EmptyOffset when the bucket is empty
	Entries   int    // entries in the bucket
	InCell    int    // entries whose particle lies in Cell
	Cells     int    // distinct cells sharing the bucket
	Neighbors int    // particles within one cell size of World
}

// InspectCell looks up the bucket of the cell containing p in the current
// index.
func (s *Simulation) InspectCell(p hashgrid.Vec) (CellInfo, error) {
	view, err := s.index.View()
	if err != nil {
		return CellInfo{}, err
	}

	positions := s.positions.Data()
	dims := view.Codec.Dims
	cell := hashgrid.CellOf(p, view.Radius, dims)
	hash := hashgrid.Hash(cell)
	key := hashgrid.BucketKey(hash, uint32(view.Size()))

	info := CellInfo{
		World:  p,
		Cell:   cell,
		Hash:   hash,
		Key:    key,
		Class:  cell.Class(),
		Offset: view.Offsets[key],
	}

	run := view.Bucket(key)
	info.Entries = len(run)
	for _, e := range run {
		idx := int(e.Payload.Index())
		if idx < len(positions) && hashgrid.CellOf(positions[idx], view.Radius, dims) == cell {
			info.InCell++
		}
	}
	info.Cells = len(view.DistinctCells(nil, run, positions))
	info.Neighbors = len(view.Query(nil, positions, p, view.Radius, 0))
	return info, nil
}
