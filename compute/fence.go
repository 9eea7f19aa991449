package compute

// Step is one unit of a submission. Steps of a submission run in order;
// the first error stops the submission.
type Step func() error

// Fence signals completion of a submission.
type Fence struct {
	done chan struct{}
	err  error
}

// Wait blocks until the submission completed and returns its error.
func (f *Fence) Wait() error {
	<-f.done
	return f.err
}

// Done returns a channel closed when the submission completed.
func (f *Fence) Done() <-chan struct{} {
	return f.done
}

// Signaled reports whether the submission completed, without blocking.
func (f *Fence) Signaled() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// CompletedFence returns an already signaled fence carrying err.
func CompletedFence(err error) *Fence {
	f := &Fence{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Submit queues steps for execution and returns immediately. Submissions
// execute one at a time in the order they were submitted. A running
// submission cannot be cancelled.
func (d *Device) Submit(steps ...Step) *Fence {
	f := &Fence{done: make(chan struct{})}

	d.queueMu.Lock()
	prev := d.tail
	d.tail = f
	d.queueMu.Unlock()

	go func() {
		defer close(f.done)
		if prev != nil {
			<-prev.done
		}
		for _, step := range steps {
			if err := step(); err != nil {
				f.err = err
				return
			}
		}
	}()

	return f
}
