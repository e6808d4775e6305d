package pathcodec

import "io"

// regionWriter is a write cursor over a pre-sized region.
// It will not grow the region. If a write exceeds the available space,
// it writes as much as it can and returns io.ErrShortWrite.
type regionWriter[T any] struct {
	B []T // destination region
	N int // current write position
}

func newRegionWriter[T any](p []T) regionWriter[T] {
	return regionWriter[T]{B: p[:cap(p)]}
}

// Write copies p into the region at the cursor.
func (w *regionWriter[T]) Write(p []T) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if w.N >= len(w.B) {
		return 0, io.ErrShortWrite
	}
	n := copy(w.B[w.N:], p)
	w.N += n
	if n < len(p) {
		return n, io.ErrShortWrite
	}
	return n, nil
}

// WriteOne writes a single element.
func (w *regionWriter[T]) WriteOne(v T) error {
	if w.N >= len(w.B) {
		return io.ErrShortWrite
	}
	w.B[w.N] = v
	w.N++
	return nil
}

// Reset allows the underlying region to be reused.
func (w *regionWriter[T]) Reset() { w.N = 0 }

// Len returns the number of elements written.
func (w *regionWriter[T]) Len() int { return w.N }

// Available returns the number of elements available for writing.
func (w *regionWriter[T]) Available() int { return len(w.B) - w.N }

// Written returns a view of the written elements.
func (w *regionWriter[T]) Written() []T { return w.B[:w.N] }

// regionReader is a read cursor over a region owned by someone else.
type regionReader[T any] struct {
	B []T // source region
	N int // current read position
}

// ReadOne returns the element at the cursor, or io.EOF at the end of the region.
func (r *regionReader[T]) ReadOne() (T, error) {
	if r.N >= len(r.B) {
		var zero T
		return zero, io.EOF
	}
	v := r.B[r.N]
	r.N++
	return v, nil
}

// Next returns a view of the next n elements and advances the cursor.
// The view aliases the region.
func (r *regionReader[T]) Next(n int) ([]T, error) {
	if n < 0 || n > r.Available() {
		return nil, ErrTruncatedData
	}
	v := r.B[r.N : r.N+n]
	r.N += n
	return v, nil
}

// Available returns the number of elements left to read.
func (r *regionReader[T]) Available() int {
	length := len(r.B) - r.N
	if length <= 0 {
		return 0
	}
	return length
}
