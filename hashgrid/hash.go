package hashgrid

import "math"

// Vec is a position. Z is ignored in 2D.
type Vec [3]float32

// Cell is a grid cell coordinate. Z is zero in 2D.
type Cell [3]int32

// Hash multipliers per axis.
const (
	primeX = 73856093
	primeY = 19349663
	primeZ = 83492791
)

// CellOf returns the grid cell containing p for cells of side radius.
func CellOf(p Vec, radius float32, dims Dims) Cell {
	var c Cell
	for axis := 0; axis < int(dims); axis++ {
		c[axis] = int32(math.Floor(float64(p[axis] / radius)))
	}
	return c
}

// Hash mixes a cell coordinate into 32 bits.
func Hash(c Cell) uint32 {
	return uint32(c[0])*primeX ^ uint32(c[1])*primeY ^ uint32(c[2])*primeZ
}

// BucketKey reduces a hash to a table slot. Distinct cells may share a
// key; a key is a hint, never a proof of adjacency.
func BucketKey(h, tableSize uint32) uint32 {
	return h % tableSize
}

// Class returns the cell's parity class: bit n is the parity of axis n.
// Cells one step apart on any axis always differ in class, so a bucket
// scan can reject entries of a colliding neighbor cell without touching
// positions.
func (c Cell) Class() uint8 {
	return uint8(c[0]&1) | uint8(c[1]&1)<<1 | uint8(c[2]&1)<<2
}

// Offset returns c translated by (dx, dy, dz).
func (c Cell) Offset(dx, dy, dz int32) Cell {
	return Cell{c[0] + dx, c[1] + dy, c[2] + dz}
}

// KeyOf returns the bucket key of the cell containing p.
func KeyOf(p Vec, radius float32, dims Dims, tableSize uint32) uint32 {
	return BucketKey(Hash(CellOf(p, radius, dims)), tableSize)
}
