package pathcodec

import (
	"math"
	"slices"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pathsFromCoords pairs up coordinates into points; an odd trailing value is dropped.
func pathsFromCoords(coords [][]int64) Paths64 {
	out := make(Paths64, 0, len(coords))
	for _, c := range coords {
		p := make(Path64, 0, len(c)/2)
		for i := 0; i+1 < len(c); i += 2 {
			p = append(p, Point64{c[i], c[i+1]})
		}
		out = append(out, &p)
	}
	return out
}

func samePaths[P Vertex](a, b Paths[P]) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !slices.Equal(*a[i], *b[i]) {
			return false
		}
	}
	return true
}

func TestMarshalProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)
	coords := gen.SliceOf(gen.SliceOf(gen.Int64Range(-1<<40, 1<<40)))

	properties.Property("unflatten(flatten(paths)) == paths", prop.ForAll(
		func(c [][]int64) bool {
			in := pathsFromCoords(c)
			buf := NewFlatBuffer[Point64](SubjectInt, nil)
			defer buf.Free()
			pool := NewPool[Path64, Point64](nil)

			d := Flatten(buf, in)
			var out Paths64
			if err := Unflatten(&d, pool, &out); err != nil {
				return false
			}
			return samePaths(in, out)
		},
		coords,
	))

	properties.Property("descriptor counts match input", prop.ForAll(
		func(c [][]int64) bool {
			in := pathsFromCoords(c)
			buf := NewFlatBuffer[Point64](SubjectInt, nil)
			defer buf.Free()

			d := buf.Flatten(in)
			return d.Count == int64(len(in)) &&
				len(d.Points) == in.Len() &&
				d.Validate() == nil &&
				buf.PointCap() >= in.Len() &&
				buf.PathCap() >= len(in)
		},
		coords,
	))

	properties.Property("recycled paths round-trip again", prop.ForAll(
		func(c [][]int64) bool {
			in := pathsFromCoords(c)
			buf := NewFlatBuffer[Point64](SubjectInt, nil)
			defer buf.Free()
			paths := NewPool[Path64, Point64](&PoolOptions{CheckRecycle: true})
			sets := NewPool[Paths64, *Path64](&PoolOptions{CheckRecycle: true})

			d := buf.Flatten(in)
			out := sets.Get(len(in))
			if Unflatten(&d, paths, out) != nil {
				return false
			}
			RecyclePaths(out, paths, sets)
			if paths.Len() != len(in) || sets.Len() != 1 {
				return false
			}

			again := sets.Get(len(in))
			if Unflatten(&d, paths, again) != nil {
				return false
			}
			return samePaths(in, *again) && paths.Len() == 0
		},
		coords,
	))

	properties.TestingRun(t)
}

func TestUnflattenAppends(t *testing.T) {
	buf := NewFlatBuffer[PointD](SubjectFloat, nil)
	defer buf.Free()
	pool := NewPool[PathD, PointD](nil)

	existing := NewPath(PointD{-1, -1})
	dst := PathsD{existing}
	d := buf.Flatten(PathsD{NewPath(PointD{1, 2}, PointD{3, 4})})
	require.NoError(t, Unflatten(&d, pool, &dst))

	require.Len(t, dst, 2)
	assert.Same(t, existing, dst[0])
	assert.Equal(t, PathD{{1, 2}, {3, 4}}, *dst[1])
}

func TestUnflattenEmptyDescriptorIsNoop(t *testing.T) {
	pool := NewPool[Path64, Point64](nil)
	var dst Paths64
	require.NoError(t, Unflatten(&Descriptor[Point64]{}, pool, &dst))
	assert.Nil(t, dst)
	assert.Equal(t, uint64(0), pool.Stats().Gets)
}

func TestUnflattenMalformedLeavesDstUntouched(t *testing.T) {
	cases := map[string]Descriptor[Point64]{
		"count mismatch":  {Count: 2, Lengths: []int64{1}, Points: []Point64{{1, 1}}},
		"negative count":  {Count: -1},
		"negative length": {Count: 2, Lengths: []int64{-1, 2}, Points: []Point64{{1, 1}}},
		"short points":    {Count: 1, Lengths: []int64{3}, Points: []Point64{{1, 1}}},
		"extra points":    {Count: 1, Lengths: []int64{1}, Points: []Point64{{1, 1}, {2, 2}}},
		"overflowing lengths": {
			Count:   3,
			Lengths: []int64{math.MaxInt64, math.MaxInt64, 2},
		},
	}
	for name, d := range cases {
		t.Run(name, func(t *testing.T) {
			pool := NewPool[Path64, Point64](nil)
			keep := NewPath(Point64{5, 5})
			dst := Paths64{keep}

			err := Unflatten(&d, pool, &dst)
			require.ErrorIs(t, err, ErrMalformedDescriptor)
			assert.Equal(t, Paths64{keep}, dst)
			assert.Equal(t, uint64(0), pool.Stats().Gets)
		})
	}
}

func TestUnflattenDrawsFromPool(t *testing.T) {
	pool := NewPool[Path64, Point64](nil)
	recycled := make(Path64, 0, 4)
	pool.Recycle(&recycled)

	d := Descriptor[Point64]{Count: 1, Lengths: []int64{3}, Points: []Point64{{1, 1}, {2, 2}, {3, 3}}}
	var dst Paths64
	require.NoError(t, Unflatten(&d, pool, &dst))

	require.Len(t, dst, 1)
	assert.Same(t, &recycled, dst[0])
	assert.Equal(t, Path64{{1, 1}, {2, 2}, {3, 3}}, recycled)
}

func TestUnflattenCopiesOutOfRegion(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	buf := NewFlatBuffer[Point64](SubjectInt, mem)
	pool := NewPool[Path64, Point64](nil)

	d := buf.Flatten(Paths64{NewPath(Point64{1, 2})})
	var dst Paths64
	require.NoError(t, Unflatten(&d, pool, &dst))

	buf.Flatten(Paths64{NewPath(Point64{8, 8})})
	buf.Free()
	mem.AssertSize(t, 0)
	assert.Equal(t, Path64{{1, 2}}, *dst[0], "decoded paths must not alias the region")
}

func TestRecyclePathsWithoutSetPool(t *testing.T) {
	pool := NewPool[Path64, Point64](nil)
	a, b := NewPath(Point64{1, 1}), NewPath(Point64{2, 2}, Point64{3, 3})
	paths := Paths64{a, b}

	RecyclePaths(&paths, pool, nil)
	assert.Empty(t, paths)
	assert.Equal(t, 2, pool.Len())
	assert.Empty(t, *a)

	RecyclePaths[Point64](nil, pool, nil)
	assert.Equal(t, 2, pool.Len())
}

func TestUnflattenUncheckedPanicsOnMalformed(t *testing.T) {
	pool := NewPool[Path64, Point64](nil)
	d := Descriptor[Point64]{Count: 2, Lengths: []int64{1, 4}, Points: []Point64{{1, 1}, {2, 2}}}
	var dst Paths64

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		unflatten(&d, pool, &dst)
	}()
	err, ok := recovered.(error)
	require.True(t, ok, "expected an error panic, got %v", recovered)
	assert.ErrorIs(t, err, ErrMalformedDescriptor)
	assert.ErrorIs(t, err, ErrTruncatedData)
	assert.Equal(t, uint64(1), pool.Stats().Gets, "no path is drawn for the bad entry")
}
