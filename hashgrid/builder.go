package hashgrid

import (
	"fmt"
	"math"
	"time"

	"github.com/pthm-cable/hashgrid/compute"
)

// Options configures an Index.
type Options struct {
	Codec Codec

	// TableSize overrides the table size. It must be a power of two not
	// below the particle count. 0 sizes the table to TableSize(N).
	TableSize int
}

// BuildStats describes the most recent build.
type BuildStats struct {
	N          int
	Size       int
	Recreated  bool // tables were reallocated for a new size
	SortRounds int
	Write      time.Duration
	Sort       time.Duration
	Index      time.Duration
}

// Total returns the summed phase duration.
func (s BuildStats) Total() time.Duration {
	return s.Write + s.Sort + s.Index
}

// Index is a spatial hash grid over particle positions.
//
// Builds run as submissions on the device queue. Tables must not be read
// until the build's fence signaled; queries may then run concurrently
// with each other but not with the next build.
type Index struct {
	dev   *compute.Device
	opts  Options
	codec Codec

	lookup  *compute.Buffer[Entry]
	offsets *compute.Buffer[uint32]

	n      int
	radius float32
	built  bool
	stats  BuildStats
}

// NewIndex creates an empty index that builds on dev.
func NewIndex(dev *compute.Device, opts Options) *Index {
	codec := opts.Codec
	if codec.Bound <= 0 {
		codec.Bound = DefaultBound
	}
	if codec.Dims != Dims3 {
		codec.Dims = Dims2
	}
	return &Index{
		dev:     dev,
		opts:    opts,
		codec:   codec,
		lookup:  compute.NewBuffer[Entry](0),
		offsets: compute.NewBuffer[uint32](0),
	}
}

// Codec returns the codec used for payloads.
func (ix *Index) Codec() Codec {
	return ix.codec
}

// Build rebuilds the tables from positions and blocks until the build
// completed. positions must not change until Build returns.
func (ix *Index) Build(positions []Vec, radius float32) error {
	return ix.Submit(positions, radius).Wait()
}

// Submit queues a rebuild and returns its fence. Configuration errors are
// detected before queuing and returned through an already signaled fence.
// positions must not change until the fence signaled.
func (ix *Index) Submit(positions []Vec, radius float32) *compute.Fence {
	size, err := ix.checkConfig(len(positions), radius)
	if err != nil {
		return compute.CompletedFence(err)
	}

	var stats BuildStats
	var phaseStart time.Time

	return ix.dev.Submit(
		func() error {
			stats = BuildStats{N: len(positions), Size: size}
			stats.Recreated = ix.resize(size)
			ix.built = false
			phaseStart = time.Now()
			ix.writePhase(positions, radius)
			stats.Write = time.Since(phaseStart)
			return nil
		},
		func() error {
			phaseStart = time.Now()
			stats.SortRounds = bitonicSort(ix.dev, ix.lookup.Data())
			stats.Sort = time.Since(phaseStart)
			return nil
		},
		func() error {
			phaseStart = time.Now()
			ix.indexPhase()
			stats.Index = time.Since(phaseStart)

			ix.n = len(positions)
			ix.radius = radius
			ix.stats = stats
			ix.built = true
			return nil
		},
	)
}

// checkConfig validates build inputs and returns the table size.
func (ix *Index) checkConfig(n int, radius float32) (int, error) {
	if !(radius > 0) || math.IsInf(float64(radius), 1) {
		return 0, fmt.Errorf("build with radius %v: %w", radius, ErrInvalidRadius)
	}
	if n > MaxParticles {
		return 0, fmt.Errorf("build with %d particles (max %d): %w", n, MaxParticles, ErrTooManyParticles)
	}
	size := TableSize(n)
	if ix.opts.TableSize != 0 {
		size = ix.opts.TableSize
		if !IsPowerOfTwo(size) || size < n {
			return 0, fmt.Errorf("build with table size %d for %d particles: %w", size, n, ErrTableSize)
		}
	}
	return size, nil
}

// resize recreates the tables when the size changed.
func (ix *Index) resize(size int) bool {
	if ix.lookup.Len() == size {
		return false
	}
	ix.lookup = compute.NewBuffer[Entry](size)
	ix.offsets = compute.NewBuffer[uint32](size)
	return true
}

// writePhase fills every slot with its particle's key and payload, or
// padding past N, and clears the offset table.
func (ix *Index) writePhase(positions []Vec, radius float32) {
	lookup := ix.lookup.Data()
	offsets := ix.offsets.Data()
	codec := ix.codec
	n := len(positions)
	size := uint32(len(lookup))

	ix.dev.Dispatch(len(lookup), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			offsets[i] = EmptyOffset
			if i >= n {
				lookup[i] = padding
				continue
			}
			cell := CellOf(positions[i], radius, codec.Dims)
			payload := codec.Encode(positions[i]).WithClass(cell.Class()) | EncodeIndex(uint32(i))
			lookup[i] = Entry{Key: BucketKey(Hash(cell), size), Payload: payload}
		}
	})
}

// indexPhase records the first slot of each key run.
func (ix *Index) indexPhase() {
	lookup := ix.lookup.Data()
	offsets := ix.offsets.Data()

	ix.dev.Dispatch(len(lookup), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			key := lookup[i].Key
			if key == InvalidKey {
				continue
			}
			if i == 0 || lookup[i-1].Key != key {
				offsets[key] = uint32(i)
			}
		}
	})
}

// Invalidate marks the tables stale, e.g. on simulation reset. It waits
// for any outstanding build first.
func (ix *Index) Invalidate() {
	ix.dev.Submit(func() error {
		ix.built = false
		return nil
	}).Wait()
}

// Built reports whether the tables hold a completed build.
func (ix *Index) Built() bool {
	return ix.built
}

// LastStats returns statistics of the most recent completed build.
func (ix *Index) LastStats() BuildStats {
	return ix.stats
}

// View returns the current tables without copying. The slices alias
// device memory and are valid until the next build.
func (ix *Index) View() (Snapshot, error) {
	if !ix.built {
		return Snapshot{}, ErrNotBuilt
	}
	return Snapshot{
		Lookup:  ix.lookup.Data(),
		Offsets: ix.offsets.Data(),
		N:       ix.n,
		Radius:  ix.radius,
		Codec:   ix.codec,
	}, nil
}

// ReadBack copies the current tables to host memory.
func (ix *Index) ReadBack() (Snapshot, error) {
	if !ix.built {
		return Snapshot{}, ErrNotBuilt
	}
	return Snapshot{
		Lookup:  ix.lookup.ReadBack(nil),
		Offsets: ix.offsets.ReadBack(nil),
		N:       ix.n,
		Radius:  ix.radius,
		Codec:   ix.codec,
	}, nil
}

// Query finds particles within radius of p in the current tables.
// It returns dst unchanged if the index is not built.
func (ix *Index) Query(dst []Neighbor, positions []Vec, p Vec, radius float32, maxResults int) []Neighbor {
	view, err := ix.View()
	if err != nil {
		return dst
	}
	return view.Query(dst, positions, p, radius, maxResults)
}

// Validate reads the tables back and checks them against positions.
func (ix *Index) Validate(positions []Vec, tolerance float32) (Report, error) {
	snap, err := ix.ReadBack()
	if err != nil {
		return Report{}, err
	}
	return snap.Validate(positions, tolerance)
}
