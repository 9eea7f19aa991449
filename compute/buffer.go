package compute

// Buffer is a device-visible array. Kernels access it through Data; the
// host obtains a stable copy through ReadBack once the producing
// submission's fence has signaled.
type Buffer[T any] struct {
	data []T
}

// NewBuffer allocates a buffer of n zero elements.
func NewBuffer[T any](n int) *Buffer[T] {
	return &Buffer[T]{data: make([]T, n)}
}

// Len returns the element count.
func (b *Buffer[T]) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Data returns the device view. The slice aliases the buffer.
func (b *Buffer[T]) Data() []T {
	if b == nil {
		return nil
	}
	return b.data
}

// ReadBack copies the buffer into dst, reusing its capacity, and returns it.
func (b *Buffer[T]) ReadBack(dst []T) []T {
	return append(dst[:0], b.Data()...)
}

// Upload replaces the buffer contents with src, resizing if needed.
func (b *Buffer[T]) Upload(src []T) {
	if cap(b.data) < len(src) {
		b.data = make([]T, len(src))
	}
	b.data = b.data[:len(src)]
	copy(b.data, src)
}
