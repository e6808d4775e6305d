package pathcodec

import (
	"fmt"
	"iter"
	"unsafe"
)

// Descriptor is the flat representation that crosses the native boundary in both
// directions: a path count, the per-path point counts and every point of every path
// concatenated in order.
//
// A descriptor produced by FlatBuffer.Flatten aliases the buffer's regions and is
// valid only until the next Flatten on that buffer. A descriptor produced by an
// Engine is owned by the engine and must be released through it exactly once.
type Descriptor[P Vertex] struct {
	Count   int64
	Lengths []int64
	Points  []P

	// handle carries engine-private pointers needed to release a native descriptor.
	handle [2]unsafe.Pointer
}

var _ Sizer = (*Descriptor[Point64])(nil)

// Size returns the byte footprint of the lengths and points regions.
func (d *Descriptor[P]) Size() int {
	var p P
	return len(d.Lengths)*int(unsafe.Sizeof(int64(0))) + len(d.Points)*int(unsafe.Sizeof(p))
}

// Validate checks count == len(lengths), every length >= 0 and sum(lengths) == len(points).
// A descriptor that fails would read out of bounds while unflattening.
func (d *Descriptor[P]) Validate() error {
	if d.Count < 0 || d.Count != int64(len(d.Lengths)) {
		return fmt.Errorf("%w: count %d with %d lengths", ErrMalformedDescriptor, d.Count, len(d.Lengths))
	}
	var total int64
	points := int64(len(d.Points))
	for i, n := range d.Lengths {
		if n < 0 {
			return fmt.Errorf("%w: negative length %d at path %d", ErrMalformedDescriptor, n, i)
		}
		// Compared against what is left so the running sum cannot wrap.
		if n > points-total {
			return fmt.Errorf("%w: length %d at path %d exceeds the %d points left", ErrMalformedDescriptor, n, i, points-total)
		}
		total += n
	}
	if total != int64(len(d.Points)) {
		return fmt.Errorf("%w: lengths sum to %d but %d points present", ErrMalformedDescriptor, total, len(d.Points))
	}
	return nil
}

// Paths iterates over the descriptor's paths as sub-slices of its points region.
// The yielded slices alias the descriptor and must not be retained past its lifetime.
// Iteration stops early if the descriptor is malformed.
func (d *Descriptor[P]) Paths() iter.Seq2[int, []P] {
	return func(yield func(int, []P) bool) {
		off := 0
		for i, n := range d.Lengths {
			if n < 0 || n > int64(len(d.Points)-off) {
				return
			}
			end := off + int(n)
			if !yield(i, d.Points[off:end]) {
				return
			}
			off = end
		}
	}
}
