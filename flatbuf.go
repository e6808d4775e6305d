package pathcodec

import (
	"fmt"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Channel names one of the four flat buffers a Bridge owns.
type Channel uint8

const (
	SubjectInt Channel = iota
	ClipInt
	SubjectFloat
	ClipFloat

	channelCount
)

func (c Channel) String() string {
	switch c {
	case SubjectInt:
		return "subject64"
	case ClipInt:
		return "clip64"
	case SubjectFloat:
		return "subjectD"
	case ClipFloat:
		return "clipD"
	}
	return "unknown"
}

// FlatBuffer owns the points and lengths regions of one channel and flattens path
// collections into them. Regions come from a memory.Allocator, grow in place when a
// call needs more room (the allocator copies existing bytes forward) and never shrink
// until Free.
//
// FlatBuffer is single-writer: a descriptor returned by Flatten stays valid only until
// the next Flatten or Free on the same buffer.
type FlatBuffer[P Vertex] struct {
	channel Channel
	alloc   memory.Allocator

	points  []byte
	lengths []byte

	pointCap int // high-water mark, in points
	pathCap  int // high-water mark, in lengths
	grows    int

	log     *zap.Logger
	bytes   prometheus.Gauge
	growths prometheus.Counter
}

// NewFlatBuffer creates an empty buffer for ch. Regions are allocated lazily on first use.
// A nil alloc uses memory.DefaultAllocator.
func NewFlatBuffer[P Vertex](ch Channel, alloc memory.Allocator) *FlatBuffer[P] {
	return newFlatBuffer[P](ch, alloc, zap.NewNop(), nil)
}

func newFlatBuffer[P Vertex](ch Channel, alloc memory.Allocator, log *zap.Logger, m *Metrics) *FlatBuffer[P] {
	if alloc == nil {
		alloc = memory.DefaultAllocator
	}
	b := &FlatBuffer[P]{channel: ch, alloc: alloc, log: log}
	if m != nil {
		b.bytes = m.RegionBytes.WithLabelValues(ch.String())
		b.growths = m.RegionGrowths.WithLabelValues(ch.String())
	}
	return b
}

func pointSize[P Vertex]() int {
	var p P
	return int(unsafe.Sizeof(p))
}

const lengthSize = int(unsafe.Sizeof(int64(0)))

// EnsureCapacity grows the points region to hold at least points points and the
// lengths region to hold at least paths lengths. It never shrinks.
func (b *FlatBuffer[P]) EnsureCapacity(points, paths int) {
	if points > b.pointCap {
		before := len(b.points)
		b.points = b.grow(b.points, Roundup(points*pointSize[P](), regionAlign))
		b.pointCap = len(b.points) / pointSize[P]()
		b.grew("points", before, len(b.points))
	}
	if paths > b.pathCap {
		before := len(b.lengths)
		b.lengths = b.grow(b.lengths, Roundup(paths*lengthSize, regionAlign))
		b.pathCap = len(b.lengths) / lengthSize
		b.grew("lengths", before, len(b.lengths))
	}
}

func (b *FlatBuffer[P]) grow(region []byte, size int) []byte {
	if region == nil {
		return b.alloc.Allocate(size)
	}
	return b.alloc.Reallocate(size, region)
}

func (b *FlatBuffer[P]) grew(region string, before, after int) {
	b.grows++
	if b.growths != nil {
		b.growths.Inc()
		b.bytes.Add(float64(after - before))
	}
	b.log.Debug("flat buffer region grown",
		zap.Stringer("channel", b.channel),
		zap.String("region", region),
		zap.Int("from", before),
		zap.Int("to", after),
	)
}

// Flatten writes paths into the buffer's regions and returns a descriptor over them.
// Nil paths are written as empty paths.
func (b *FlatBuffer[P]) Flatten(paths Paths[P]) Descriptor[P] {
	total := paths.Len()
	b.EnsureCapacity(total, len(paths))

	lw := newRegionWriter(b.lengthView(len(paths)))
	pw := newRegionWriter(b.pointView(total))
	for i, p := range paths {
		var pts Path[P]
		if p != nil {
			pts = *p
		}
		if err := lw.WriteOne(int64(len(pts))); err != nil {
			panic(fmt.Errorf("pathcodec: flatten %s path %d: %w", b.channel, i, err))
		}
		if _, err := pw.Write(pts); err != nil {
			panic(fmt.Errorf("pathcodec: flatten %s path %d: %w", b.channel, i, err))
		}
	}
	return Descriptor[P]{
		Count:   int64(len(paths)),
		Lengths: lw.Written(),
		Points:  pw.Written(),
	}
}

func (b *FlatBuffer[P]) pointView(n int) []P {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*P)(unsafe.Pointer(&b.points[0])), n)
}

func (b *FlatBuffer[P]) lengthView(n int) []int64 {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*int64)(unsafe.Pointer(&b.lengths[0])), n)
}

// Free returns both regions to the allocator. The buffer can be used again afterwards
// and will reallocate on demand.
func (b *FlatBuffer[P]) Free() {
	held := len(b.points) + len(b.lengths)
	if b.points != nil {
		b.alloc.Free(b.points)
		b.points = nil
	}
	if b.lengths != nil {
		b.alloc.Free(b.lengths)
		b.lengths = nil
	}
	b.pointCap, b.pathCap = 0, 0
	if b.bytes != nil {
		b.bytes.Sub(float64(held))
	}
}

// Channel returns the channel this buffer serves.
func (b *FlatBuffer[P]) Channel() Channel { return b.channel }

// PointCap returns how many points the buffer holds without growing.
func (b *FlatBuffer[P]) PointCap() int { return b.pointCap }

// PathCap returns how many path lengths the buffer holds without growing.
func (b *FlatBuffer[P]) PathCap() int { return b.pathCap }

// Grows returns the number of region reallocations so far.
func (b *FlatBuffer[P]) Grows() int { return b.grows }

// Size returns the bytes held by both regions.
func (b *FlatBuffer[P]) Size() int { return len(b.points) + len(b.lengths) }

var _ Flattener[Point64] = (*FlatBuffer[Point64])(nil)
