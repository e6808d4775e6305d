package pathcodec

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
)

// FillRule selects how the engine decides a polygon's interior. The ordinals match
// the native engine.
type FillRule int32

const (
	EvenOdd FillRule = iota
	NonZero
)

func (fr FillRule) String() string {
	switch fr {
	case EvenOdd:
		return "evenodd"
	case NonZero:
		return "nonzero"
	}
	return fmt.Sprintf("FillRule(%d)", int32(fr))
}

// Valid reports whether fr is a known fill rule.
func (fr FillRule) Valid() bool { return fr == EvenOdd || fr == NonZero }

// ParseFillRule accepts "evenodd"/"even-odd" and "nonzero"/"non-zero", case-insensitively.
func ParseFillRule(s string) (FillRule, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "") {
	case "evenodd":
		return EvenOdd, nil
	case "nonzero":
		return NonZero, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFillRule, s)
}

// ClipOp is a binary set operation.
type ClipOp uint8

const (
	Intersection ClipOp = iota
	Union
	Difference
	Xor
)

func (op ClipOp) String() string {
	switch op {
	case Intersection:
		return "intersect"
	case Union:
		return "union"
	case Difference:
		return "difference"
	case Xor:
		return "xor"
	}
	return fmt.Sprintf("ClipOp(%d)", uint8(op))
}

// Valid reports whether op is a known operation.
func (op ClipOp) Valid() bool { return op <= Xor }

const (
	// DefaultPrecision is the number of fractional digits the engine keeps for
	// floating-point operations unless configured otherwise.
	DefaultPrecision = 2
	// MaxPrecision is the largest precision the engine accepts.
	MaxPrecision = 8
)

// Engine is the native clipping engine. Input descriptors are borrowed for the
// duration of the call. Every returned descriptor is owned by the engine and must be
// passed to the matching Release exactly once; it must not be used afterwards.
//
// A nil clips descriptor with Union requests the unary union of subjects.
type Engine interface {
	Clip64(op ClipOp, subjects, clips *Descriptor[Point64], fr FillRule) (Descriptor[Point64], error)
	ClipD(op ClipOp, subjects, clips *Descriptor[PointD], fr FillRule, precision int) (Descriptor[PointD], error)
	TriangulateD(paths *Descriptor[PointD]) (Descriptor[PointD], error)
	Release64(d *Descriptor[Point64])
	ReleaseD(d *Descriptor[PointD])
}

// RegionAllocatorProvider is implemented by engines that need input regions from a
// particular allocator, such as C memory for a cgo engine.
type RegionAllocatorProvider interface {
	RegionAllocator() memory.Allocator
}
