package hashgrid

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/hashgrid/compute"
)

// newTestIndex returns an index on a device that always runs in parallel.
func newTestIndex(t *testing.T, opts Options) (*Index, *compute.Device) {
	t.Helper()
	dev := compute.NewDevice(compute.Options{Workers: 4, ParallelThreshold: 1})
	t.Cleanup(dev.Close)
	return NewIndex(dev, opts), dev
}

func randomPositions(rng *rand.Rand, n int, extent float32) []Vec {
	ps := make([]Vec, n)
	for i := range ps {
		ps[i] = Vec{(rng.Float32()*2 - 1) * extent, (rng.Float32()*2 - 1) * extent}
	}
	return ps
}

func buildRandom(t *testing.T, n int, radius float32, seed int64) (*Index, []Vec) {
	t.Helper()
	ix, _ := newTestIndex(t, Options{})
	positions := randomPositions(rand.New(rand.NewSource(seed)), n, 1.9)
	require.NoError(t, ix.Build(positions, radius))
	return ix, positions
}

func bruteForce(positions []Vec, p Vec, radius float32) []uint32 {
	var out []uint32
	for i, q := range positions {
		if distanceSq(p, q, Dims2) <= radius*radius {
			out = append(out, uint32(i))
		}
	}
	return out
}

func indices(ns []Neighbor) []uint32 {
	out := make([]uint32, len(ns))
	for i, n := range ns {
		out[i] = n.Index
	}
	return out
}
