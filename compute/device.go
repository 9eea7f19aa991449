// Package compute provides the data-parallel dispatch facility used by the
// grid index and the physics step: a persistent worker pool with barrier
// semantics, ordered submissions with completion fences, and device-visible
// buffers with host readback.
package compute

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// DefaultParallelThreshold is the minimum item count to use the worker pool.
// Below this, single-threaded is faster due to goroutine overhead.
const DefaultParallelThreshold = 64

// Kernel processes the half-open item range [lo, hi).
// Kernels in one dispatch must not depend on each other's writes.
type Kernel func(lo, hi int)

// Options configures a Device.
type Options struct {
	Workers           int // 0 = GOMAXPROCS
	ParallelThreshold int // 0 = DefaultParallelThreshold
}

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end int
	kernel     Kernel
}

// Device executes kernels over item ranges on a pool of persistent workers.
type Device struct {
	numWorkers int
	threshold  int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running

	dispatchMu sync.Mutex // one dispatch in flight at a time
	dispatches atomic.Int64

	// Submission queue: each submission waits for the previous fence.
	queueMu sync.Mutex
	tail    *Fence
}

// NewDevice creates a device. Workers are started lazily on the first
// parallel dispatch.
func NewDevice(opts Options) *Device {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	threshold := opts.ParallelThreshold
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	return &Device{
		numWorkers: numWorkers,
		threshold:  threshold,
	}
}

// Workers returns the worker count.
func (d *Device) Workers() int {
	return d.numWorkers
}

// Dispatches returns the number of completed dispatches (barriers) so far.
func (d *Device) Dispatches() int64 {
	return d.dispatches.Load()
}

// Dispatch runs kernel over [0, n) and returns once every chunk has
// completed. Writes made by the kernel are visible to the caller and to
// any later dispatch.
func (d *Device) Dispatch(n int, kernel Kernel) {
	if n <= 0 {
		return
	}

	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()
	defer d.dispatches.Add(1)

	// Single-threaded for small ranges
	if n < d.threshold || d.numWorkers == 1 {
		kernel(0, n)
		return
	}

	if !d.running {
		d.startWorkers()
	}

	chunkSize := (n + d.numWorkers - 1) / d.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < d.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		d.workChan <- workChunk{start: start, end: end, kernel: kernel}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-d.doneChan
	}
}

// startWorkers launches persistent worker goroutines.
func (d *Device) startWorkers() {
	d.workChan = make(chan workChunk, d.numWorkers)
	d.doneChan = make(chan struct{}, d.numWorkers)
	d.stopChan = make(chan struct{})
	d.running = true

	for i := 0; i < d.numWorkers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

// worker runs in a goroutine, processing chunks until stopped.
func (d *Device) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.stopChan:
			return
		case chunk, ok := <-d.workChan:
			if !ok {
				return
			}
			chunk.kernel(chunk.start, chunk.end)
			d.doneChan <- struct{}{}
		}
	}
}

// Close waits for outstanding submissions, then stops the workers.
// The device restarts its workers if used again.
func (d *Device) Close() {
	d.queueMu.Lock()
	tail := d.tail
	d.queueMu.Unlock()
	if tail != nil {
		<-tail.done
	}

	d.dispatchMu.Lock()
	defer d.dispatchMu.Unlock()

	if !d.running {
		return
	}

	close(d.stopChan)
	d.wg.Wait()
	close(d.workChan)
	close(d.doneChan)
	d.running = false
}
