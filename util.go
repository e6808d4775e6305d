package pathcodec

import "golang.org/x/exp/constraints"

// regionAlign is the byte alignment regions are rounded up to. It matches the
// alignment Arrow allocators hand out.
const regionAlign = 64

// Roundup rounds n up to the nearest multiple of align. align must be a power of two.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }

// UndersizePenalty is how much heavier a bucket below the requested capacity weighs
// than one the same distance above it. Undersized handles must grow again later;
// oversized ones only waste memory.
const UndersizePenalty = 2

// fitScore ranks a bucket capacity against a request; lower is better and 0 is exact.
// Distances beyond the request itself are scaled by how many requests they span.
func fitScore[T constraints.Integer](capacity, want T) T {
	diff := capacity - want
	if diff < 0 {
		diff = -diff * UndersizePenalty
	}
	if want > 0 {
		if ratio := diff / want; ratio > 1 {
			diff *= ratio
		}
	}
	return diff
}
