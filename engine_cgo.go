//go:build clipper2 && cgo

package pathcodec

/*
#cgo LDFLAGS: -lClipper2
#include <stdint.h>

typedef struct { int64_t x; int64_t y; } cpoint64_t;
typedef struct { double x; double y; } cpointd_t;

typedef struct {
	int64_t     pathNum;
	int64_t    *sizePtr;
	cpoint64_t *dataPtr;
} CPaths64;

typedef struct {
	int64_t    pathNum;
	int64_t   *sizePtr;
	cpointd_t *dataPtr;
} CPathsD;

// The export library takes its descriptors by const reference, which is a pointer
// at the ABI level.
CPaths64 Intersect(const CPaths64 *subjects, const CPaths64 *clips, int fillrule);
CPaths64 Union(const CPaths64 *subjects, int fillrule);
CPaths64 Union2(const CPaths64 *subjects, const CPaths64 *clips, int fillrule);
CPaths64 Difference(const CPaths64 *subjects, const CPaths64 *clips, int fillrule);
CPaths64 Xor(const CPaths64 *subjects, const CPaths64 *clips, int fillrule);
void ReleaseCPaths64(CPaths64 *data);

CPathsD Intersect_D(const CPathsD *subjects, const CPathsD *clips, int fillrule, int precision);
CPathsD Union_D(const CPathsD *subjects, int fillrule, int precision);
CPathsD Union2_D(const CPathsD *subjects, const CPathsD *clips, int fillrule, int precision);
CPathsD Difference_D(const CPathsD *subjects, const CPathsD *clips, int fillrule, int precision);
CPathsD Xor_D(const CPathsD *subjects, const CPathsD *clips, int fillrule, int precision);
void ReleaseCPathsD(CPathsD *data);

CPathsD Triangulate_EC(const CPathsD *data);
*/
import "C"

import (
	"math"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/arrow/memory/mallocator"
)

// nativeEngine calls the Clipper2 export library. Input regions must live in C
// memory, so the engine hands out a malloc-backed allocator for them.
type nativeEngine struct {
	alloc memory.Allocator
}

// NativeEngine returns the engine linked against the Clipper2 export library.
func NativeEngine() (Engine, error) {
	return &nativeEngine{alloc: mallocator.NewMallocator()}, nil
}

func (e *nativeEngine) RegionAllocator() memory.Allocator { return e.alloc }

func (e *nativeEngine) Clip64(op ClipOp, subjects, clips *Descriptor[Point64], fr FillRule) (Descriptor[Point64], error) {
	s := cpaths64(subjects)
	if op == Union && clips == nil {
		return goPaths64(C.Union(&s, C.int(fr))), nil
	}
	c := cpaths64(clips)
	var out C.CPaths64
	switch op {
	case Intersection:
		out = C.Intersect(&s, &c, C.int(fr))
	case Union:
		out = C.Union2(&s, &c, C.int(fr))
	case Difference:
		out = C.Difference(&s, &c, C.int(fr))
	case Xor:
		out = C.Xor(&s, &c, C.int(fr))
	default:
		return Descriptor[Point64]{}, ErrInvalidOp
	}
	return goPaths64(out), nil
}

func (e *nativeEngine) ClipD(op ClipOp, subjects, clips *Descriptor[PointD], fr FillRule, precision int) (Descriptor[PointD], error) {
	s := cpathsD(subjects)
	if op == Union && clips == nil {
		return goPathsD(C.Union_D(&s, C.int(fr), C.int(precision))), nil
	}
	c := cpathsD(clips)
	var out C.CPathsD
	switch op {
	case Intersection:
		out = C.Intersect_D(&s, &c, C.int(fr), C.int(precision))
	case Union:
		out = C.Union2_D(&s, &c, C.int(fr), C.int(precision))
	case Difference:
		out = C.Difference_D(&s, &c, C.int(fr), C.int(precision))
	case Xor:
		out = C.Xor_D(&s, &c, C.int(fr), C.int(precision))
	default:
		return Descriptor[PointD]{}, ErrInvalidOp
	}
	return goPathsD(out), nil
}

func (e *nativeEngine) TriangulateD(paths *Descriptor[PointD]) (Descriptor[PointD], error) {
	s := cpathsD(paths)
	return goPathsD(C.Triangulate_EC(&s)), nil
}

func (e *nativeEngine) Release64(d *Descriptor[Point64]) {
	c := C.CPaths64{
		pathNum: C.int64_t(d.Count),
		sizePtr: (*C.int64_t)(d.handle[0]),
		dataPtr: (*C.cpoint64_t)(d.handle[1]),
	}
	C.ReleaseCPaths64(&c)
	*d = Descriptor[Point64]{}
}

func (e *nativeEngine) ReleaseD(d *Descriptor[PointD]) {
	c := C.CPathsD{
		pathNum: C.int64_t(d.Count),
		sizePtr: (*C.int64_t)(d.handle[0]),
		dataPtr: (*C.cpointd_t)(d.handle[1]),
	}
	C.ReleaseCPathsD(&c)
	*d = Descriptor[PointD]{}
}

// cpaths64 views a descriptor as the C struct. The regions must be C memory.
func cpaths64(d *Descriptor[Point64]) C.CPaths64 {
	var c C.CPaths64
	if d == nil {
		return c
	}
	c.pathNum = C.int64_t(d.Count)
	if len(d.Lengths) > 0 {
		c.sizePtr = (*C.int64_t)(unsafe.Pointer(&d.Lengths[0]))
	}
	if len(d.Points) > 0 {
		c.dataPtr = (*C.cpoint64_t)(unsafe.Pointer(&d.Points[0]))
	}
	return c
}

func cpathsD(d *Descriptor[PointD]) C.CPathsD {
	var c C.CPathsD
	if d == nil {
		return c
	}
	c.pathNum = C.int64_t(d.Count)
	if len(d.Lengths) > 0 {
		c.sizePtr = (*C.int64_t)(unsafe.Pointer(&d.Lengths[0]))
	}
	if len(d.Points) > 0 {
		c.dataPtr = (*C.cpointd_t)(unsafe.Pointer(&d.Points[0]))
	}
	return c
}

func goPaths64(c C.CPaths64) Descriptor[Point64] {
	d := Descriptor[Point64]{
		Count:  int64(c.pathNum),
		handle: [2]unsafe.Pointer{unsafe.Pointer(c.sizePtr), unsafe.Pointer(c.dataPtr)},
	}
	d.Lengths, d.Points = nativeRegions[Point64](int(c.pathNum), unsafe.Pointer(c.sizePtr), unsafe.Pointer(c.dataPtr))
	return d
}

func goPathsD(c C.CPathsD) Descriptor[PointD] {
	d := Descriptor[PointD]{
		Count:  int64(c.pathNum),
		handle: [2]unsafe.Pointer{unsafe.Pointer(c.sizePtr), unsafe.Pointer(c.dataPtr)},
	}
	d.Lengths, d.Points = nativeRegions[PointD](int(c.pathNum), unsafe.Pointer(c.sizePtr), unsafe.Pointer(c.dataPtr))
	return d
}

// nativeRegions views native regions as slices. The point count is derived from the
// lengths; a malformed lengths region yields no points and fails validation later.
func nativeRegions[P Vertex](count int, sizes, data unsafe.Pointer) ([]int64, []P) {
	if count <= 0 || sizes == nil {
		return nil, nil
	}
	lengths := unsafe.Slice((*int64)(sizes), count)
	total := 0
	for _, n := range lengths {
		if n < 0 || n > int64(math.MaxInt-total) {
			return lengths, nil
		}
		total += int(n)
	}
	if total == 0 || data == nil {
		return lengths, nil
	}
	return lengths, unsafe.Slice((*P)(data), total)
}
