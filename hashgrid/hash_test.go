package hashgrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCellOf(t *testing.T) {
	tests := []struct {
		name   string
		p      Vec
		radius float32
		dims   Dims
		want   Cell
	}{
		{"origin", Vec{0, 0}, 1, Dims2, Cell{0, 0, 0}},
		{"negative floors down", Vec{0.5, -0.5}, 1, Dims2, Cell{0, -1, 0}},
		{"small radius", Vec{2.5, 3.9}, 0.5, Dims2, Cell{5, 7, 0}},
		{"z ignored in 2D", Vec{0, 0, 7}, 1, Dims2, Cell{0, 0, 0}},
		{"z used in 3D", Vec{0, 0, -7}, 2, Dims3, Cell{0, 0, -4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellOf(tt.p, tt.radius, tt.dims))
		})
	}
}

func TestHash(t *testing.T) {
	assert.Equal(t, uint32(0), Hash(Cell{}))
	assert.Equal(t, uint32(73856093), Hash(Cell{1, 0, 0}))
	assert.Equal(t, uint32(19349663), Hash(Cell{0, 1, 0}))
	assert.Equal(t, uint32(83492791), Hash(Cell{0, 0, 1}))
	assert.Equal(t, uint32(73856093^19349663), Hash(Cell{1, 1, 0}))
	// Negative coordinates wrap as two's complement
	assert.Equal(t, uint32(4221111203), Hash(Cell{-1, 0, 0}))
}

func TestBucketKey(t *testing.T) {
	assert.Equal(t, uint32(3), BucketKey(19, 16))
	assert.Equal(t, uint32(0), BucketKey(73856093, 1))
	assert.Equal(t, KeyOf(Vec{0.3, 0.7}, 0.5, Dims2, 8), BucketKey(Hash(Cell{0, 1, 0}), 8))
}

func TestCellClass_NeighborsDiffer(t *testing.T) {
	for _, center := range []Cell{{0, 0, 0}, {3, 4, 0}, {-7, 2, 0}, {-1, -1, 5}} {
		for dz := int32(-1); dz <= 1; dz++ {
			for dy := int32(-1); dy <= 1; dy++ {
				for dx := int32(-1); dx <= 1; dx++ {
					if dx == 0 && dy == 0 && dz == 0 {
						continue
					}
					n := center.Offset(dx, dy, dz)
					assert.NotEqual(t, center.Class(), n.Class(), "cells %v and %v", center, n)
				}
			}
		}
	}
	assert.Less(t, Cell{1, 1, 1}.Class(), uint8(1<<ClassBits))
}

func TestTableSize(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {10, 16}, {16, 16}, {17, 32}, {20, 32}, {1000, 1024},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TableSize(tt.n), "TableSize(%d)", tt.n)
		assert.True(t, IsPowerOfTwo(TableSize(tt.n)))
	}
	assert.False(t, IsPowerOfTwo(0))
	assert.False(t, IsPowerOfTwo(12))
}
