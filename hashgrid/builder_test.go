package hashgrid

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ConfigErrors(t *testing.T) {
	positions := randomPositions(rand.New(rand.NewSource(1)), 10, 1)
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	tests := []struct {
		name      string
		tableSize int
		radius    float32
		want      error
	}{
		{"zero radius", 0, 0, ErrInvalidRadius},
		{"negative radius", 0, -0.5, ErrInvalidRadius},
		{"NaN radius", 0, nan, ErrInvalidRadius},
		{"infinite radius", 0, inf, ErrInvalidRadius},
		{"table not power of two", 12, 0.1, ErrTableSize},
		{"table too small", 8, 0.1, ErrTableSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, _ := newTestIndex(t, Options{TableSize: tt.tableSize})
			err := ix.Build(positions, tt.radius)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			_, err = ix.View()
			assert.True(t, errors.Is(err, ErrNotBuilt), "failed build must not expose tables")
		})
	}
}

func TestBuild_TableSizeOverride(t *testing.T) {
	ix, _ := newTestIndex(t, Options{TableSize: 64})
	positions := randomPositions(rand.New(rand.NewSource(2)), 10, 1)
	require.NoError(t, ix.Build(positions, 0.2))

	view, err := ix.View()
	require.NoError(t, err)
	assert.Equal(t, 64, view.Size())
	_, err = view.Validate(positions, 0)
	assert.NoError(t, err)
}

func TestBuild_Sorted(t *testing.T) {
	ix, _ := buildRandom(t, 1000, 0.1, 3)
	view, err := ix.View()
	require.NoError(t, err)
	require.Equal(t, 1024, view.Size())

	for i := 0; i+1 < view.Size(); i++ {
		a, b := view.Lookup[i], view.Lookup[i+1]
		require.LessOrEqual(t, a.Key, b.Key, "slot %d", i)
		if a.Key == b.Key && a.Key != InvalidKey {
			require.True(t, a.Less(b), "ties must order by class then index at slot %d", i)
		}
	}
}

func TestBuild_PaddingIsolation(t *testing.T) {
	ix, _ := buildRandom(t, 10, 0.3, 4)
	view, err := ix.View()
	require.NoError(t, err)
	require.Equal(t, 16, view.Size())

	for i := 10; i < 16; i++ {
		assert.Equal(t, InvalidKey, view.Lookup[i].Key, "slot %d", i)
		assert.Equal(t, NoParticle, view.Lookup[i].Payload.Index(), "slot %d", i)
	}
	for i := 0; i < 10; i++ {
		assert.True(t, view.Lookup[i].Payload.HasParticle(), "slot %d", i)
	}
}

func TestBuild_Offsets(t *testing.T) {
	ix, _ := buildRandom(t, 700, 0.05, 5)
	view, err := ix.View()
	require.NoError(t, err)

	counts := make(map[uint32]int)
	for _, e := range view.Lookup {
		if e.Key != InvalidKey {
			counts[e.Key]++
		}
	}

	for k, off := range view.Offsets {
		key := uint32(k)
		n, present := counts[key]
		if !present {
			assert.Equal(t, EmptyOffset, off, "absent key %d", k)
			continue
		}
		require.NotEqual(t, EmptyOffset, off, "present key %d", k)
		if off > 0 {
			assert.NotEqual(t, key, view.Lookup[off-1].Key, "offset of key %d is not first of run", k)
		}
		run := 0
		for j := int(off); j < view.Size() && view.Lookup[j].Key == key; j++ {
			run++
		}
		assert.Equal(t, n, run, "run of key %d must cover every entry with that key", k)
	}
}

func TestBuild_Resize(t *testing.T) {
	ix, _ := newTestIndex(t, Options{})
	rng := rand.New(rand.NewSource(6))

	small := randomPositions(rng, 10, 1)
	require.NoError(t, ix.Build(small, 0.2))
	assert.Equal(t, 16, ix.LastStats().Size)
	assert.True(t, ix.LastStats().Recreated)

	large := randomPositions(rng, 20, 1)
	require.NoError(t, ix.Build(large, 0.2))
	stats := ix.LastStats()
	assert.Equal(t, 32, stats.Size)
	assert.Equal(t, 20, stats.N)
	assert.True(t, stats.Recreated)

	view, err := ix.View()
	require.NoError(t, err)
	for i := 20; i < 32; i++ {
		assert.Equal(t, InvalidKey, view.Lookup[i].Key, "slot %d", i)
		assert.False(t, view.Lookup[i].Payload.HasParticle(), "slot %d", i)
	}
	seen := make(map[uint32]bool)
	for _, e := range view.Lookup[:20] {
		require.Less(t, e.Payload.Index(), uint32(20))
		require.False(t, seen[e.Payload.Index()], "index %d twice", e.Payload.Index())
		seen[e.Payload.Index()] = true
	}
	_, err = view.Validate(large, 0)
	require.NoError(t, err)

	// Same size: tables are overwritten in place
	moved := randomPositions(rng, 20, 1)
	require.NoError(t, ix.Build(moved, 0.2))
	assert.False(t, ix.LastStats().Recreated)
	_, err = ix.Validate(moved, 0)
	assert.NoError(t, err)

	// Shrinking recreates again
	require.NoError(t, ix.Build(small[:5], 0.2))
	assert.Equal(t, 8, ix.LastStats().Size)
	_, err = ix.Validate(small[:5], 0)
	assert.NoError(t, err)
}

func TestBuild_PhaseBarriers(t *testing.T) {
	ix, dev := newTestIndex(t, Options{})
	positions := randomPositions(rand.New(rand.NewSource(7)), 16, 1)

	before := dev.Dispatches()
	require.NoError(t, ix.Build(positions, 0.1))

	// log2(16) = 4 gives 4*5/2 sort rounds, plus the write and index phases
	assert.Equal(t, 10, ix.LastStats().SortRounds)
	assert.Equal(t, int64(12), dev.Dispatches()-before)
}

func TestBuild_Empty(t *testing.T) {
	ix, _ := newTestIndex(t, Options{})
	require.NoError(t, ix.Build(nil, 0.1))

	view, err := ix.View()
	require.NoError(t, err)
	assert.Equal(t, 1, view.Size())
	assert.Empty(t, view.Query(nil, nil, Vec{}, 1, 0))

	report, err := view.Validate(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Live)
	assert.Equal(t, 0, report.DistinctKeys)
}

func TestSubmit_FenceGatesTables(t *testing.T) {
	ix, _ := newTestIndex(t, Options{})
	positions := randomPositions(rand.New(rand.NewSource(8)), 300, 1.5)

	fence := ix.Submit(positions, 0.1)
	require.NoError(t, fence.Wait())
	assert.True(t, fence.Signaled())
	assert.True(t, ix.Built())

	bad := ix.Submit(positions, 0)
	assert.True(t, bad.Signaled(), "configuration errors are reported synchronously")
	assert.True(t, errors.Is(bad.Wait(), ErrInvalidRadius))
	assert.True(t, ix.Built(), "a rejected build leaves the previous tables intact")
}

func TestInvalidate(t *testing.T) {
	ix, positions := buildRandom(t, 50, 0.2, 9)
	require.NotEmpty(t, ix.Query(nil, positions, positions[0], 0.2, 0))

	ix.Invalidate()
	assert.False(t, ix.Built())
	assert.Empty(t, ix.Query(nil, positions, positions[0], 0.2, 0))
	_, err := ix.ReadBack()
	assert.True(t, errors.Is(err, ErrNotBuilt))
}

func TestBuild_3D(t *testing.T) {
	ix, _ := newTestIndex(t, Options{Codec: Codec{Bound: 2, Dims: Dims3}})
	rng := rand.New(rand.NewSource(10))
	positions := make([]Vec, 200)
	for i := range positions {
		positions[i] = Vec{rng.Float32() - 0.5, rng.Float32() - 0.5, rng.Float32() - 0.5}
	}
	radius := float32(0.2)
	require.NoError(t, ix.Build(positions, radius))

	_, err := ix.Validate(positions, 0)
	require.NoError(t, err)

	for _, q := range []int{0, 17, 199} {
		got := indices(ix.Query(nil, positions, positions[q], radius, 0))
		var want []uint32
		for i, p := range positions {
			if distanceSq(positions[q], p, Dims3) <= radius*radius {
				want = append(want, uint32(i))
			}
		}
		assert.ElementsMatch(t, want, got, "query %d", q)
	}
}
