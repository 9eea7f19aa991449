package hashgrid

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_ExactBucketScenario(t *testing.T) {
	ix, _ := newTestIndex(t, Options{})
	positions := []Vec{{0, 0}, {0.05, 0}, {0, 0.05}, {5, 5}}
	require.NoError(t, ix.Build(positions, 1))

	got := ix.Query(nil, positions, Vec{0, 0}, 1, 0)
	assert.ElementsMatch(t, []uint32{0, 1, 2}, indices(got))

	for _, n := range got {
		assert.InDelta(t, distanceSq(Vec{}, positions[n.Index], Dims2), n.Distance*n.Distance, 1e-6)
	}
}

func TestQuery_MatchesBruteForce(t *testing.T) {
	const buildRadius = 0.15
	ix, positions := buildRandom(t, 500, buildRadius, 11)
	view, err := ix.View()
	require.NoError(t, err)

	// Radii below, at and above the cell size
	for _, radius := range []float32{0.07, buildRadius, 0.3, 0.45} {
		for q := 0; q < len(positions); q += 7 {
			got := indices(view.Query(nil, positions, positions[q], radius, 0))
			want := bruteForce(positions, positions[q], radius)
			require.ElementsMatch(t, want, got, "radius %v particle %d", radius, q)
		}
	}
}

func TestQuery_ArbitraryPoints(t *testing.T) {
	ix, positions := buildRandom(t, 300, 0.2, 12)
	rng := rand.New(rand.NewSource(13))

	var dst []Neighbor
	for i := 0; i < 200; i++ {
		p := Vec{rng.Float32()*4 - 2, rng.Float32()*4 - 2}
		dst = ix.Query(dst[:0], positions, p, 0.2, 0)
		require.ElementsMatch(t, bruteForce(positions, p, 0.2), indices(dst), "point %v", p)
	}
}

func TestQuery_MaxResults(t *testing.T) {
	ix, _ := newTestIndex(t, Options{})
	positions := make([]Vec, 20)
	for i := range positions {
		positions[i] = Vec{float32(i) * 0.001, 0}
	}
	require.NoError(t, ix.Build(positions, 0.5))

	assert.Len(t, ix.Query(nil, positions, Vec{}, 0.5, 3), 3)
	assert.Len(t, ix.Query(nil, positions, Vec{}, 0.5, 0), 20)

	// The cap applies to appended results, not to the existing prefix
	prefix := []Neighbor{{Index: 99}}
	assert.Len(t, ix.Query(prefix, positions, Vec{}, 0.5, 3), 4)
}

func TestQuery_StaleOrMismatched(t *testing.T) {
	ix, positions := buildRandom(t, 40, 0.2, 14)

	assert.Empty(t, ix.Query(nil, positions[:39], positions[0], 0.2, 0))
	assert.Empty(t, ix.Query(nil, positions, positions[0], -1, 0))

	var zero Snapshot
	assert.Empty(t, zero.Query(nil, positions, positions[0], 0.2, 0))
}

func TestQuery_ConcurrentReaders(t *testing.T) {
	ix, positions := buildRandom(t, 400, 0.1, 15)
	view, err := ix.View()
	require.NoError(t, err)

	want := make([][]uint32, len(positions))
	for q := range positions {
		want[q] = indices(view.Query(nil, positions, positions[q], 0.1, 0))
	}

	var wg sync.WaitGroup
	failures := make(chan int, len(positions))
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			var dst []Neighbor
			for q := offset; q < len(positions); q += 8 {
				dst = view.Query(dst[:0], positions, positions[q], 0.1, 0)
				if !assert.ObjectsAreEqual(want[q], indices(dst)) {
					failures <- q
				}
			}
		}(w)
	}
	wg.Wait()
	close(failures)

	for q := range failures {
		t.Errorf("concurrent query for particle %d differs from sequential result", q)
	}
}

func TestQuery_NoDuplicatesWhenCellsShareBucket(t *testing.T) {
	// A tiny table forces many of the nine probed cells into one bucket.
	ix, _ := newTestIndex(t, Options{TableSize: 2})
	positions := []Vec{{0.01, 0.01}, {0.02, 0.02}}
	require.NoError(t, ix.Build(positions, 0.1))

	got := indices(ix.Query(nil, positions, Vec{0.01, 0.01}, 0.1, 0))
	assert.ElementsMatch(t, []uint32{0, 1}, got)
}

func TestQuery_LargeRadiusScansTableOnce(t *testing.T) {
	ix, positions := buildRandom(t, 2000, 0.01, 41)
	view, err := ix.View()
	require.NoError(t, err)
	require.Equal(t, 2048, view.Size())

	// 401x401 candidate cells outnumber the buckets
	probes, all := view.plan(nil, Vec{}, 2.0)
	assert.True(t, all)
	assert.Empty(t, probes)

	got := view.Query(nil, positions, Vec{}, 2.0, 0)
	assert.ElementsMatch(t, bruteForce(positions, Vec{}, 2.0), indices(got))

	capped := view.Query(nil, positions, Vec{}, 2.0, 5)
	assert.Len(t, capped, 5)
}

func TestQuery_ManyRingsMergeProbes(t *testing.T) {
	ix, positions := buildRandom(t, 2000, 0.01, 42)
	view, err := ix.View()
	require.NoError(t, err)

	// About 21x21 candidate cells, fewer than the buckets
	probes, all := view.plan(nil, Vec{0.3, -0.2}, 0.1)
	require.False(t, all)
	assert.LessOrEqual(t, len(probes), 23*23)

	seen := make(map[uint32]bool, len(probes))
	for _, pr := range probes {
		assert.False(t, seen[pr.key], "bucket %d probed twice", pr.key)
		seen[pr.key] = true
		assert.NotZero(t, pr.classes)
	}

	for _, p := range []Vec{{0.3, -0.2}, positions[7], positions[1500]} {
		got := view.Query(nil, positions, p, 0.1, 0)
		assert.ElementsMatch(t, bruteForce(positions, p, 0.1), indices(got))
	}
}
