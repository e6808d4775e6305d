package pathcodec

// Coord is a coordinate type whose width matches the native engine's point layout.
type Coord interface {
	~int64 | ~float64
}

// Point is a pair of coordinates. Its memory layout is two consecutive coordinates,
// identical to the native engine's point structs, so a []Point can be handed across
// the boundary without conversion.
type Point[T Coord] struct {
	X, Y T
}

type (
	// Point64 is an exact integer point.
	Point64 = Point[int64]
	// PointD is a floating-point point.
	PointD = Point[float64]
)

// Vertex is the set of point types that can cross the native boundary.
type Vertex interface {
	Point64 | PointD
}

// Path is an ordered, variable-length sequence of points. Insertion order defines
// the polygon's winding; points may repeat.
type Path[P Vertex] []P

// Paths is an ordered collection of paths: a subject set, a clip set or a result.
type Paths[P Vertex] []*Path[P]

type (
	Path64  = Path[Point64]
	PathD   = Path[PointD]
	Paths64 = Paths[Point64]
	PathsD  = Paths[PointD]
)

// Sizer is an interface for types that can report their footprint in bytes.
type Sizer interface {
	// Size returns the number of bytes the value occupies across the boundary.
	Size() int
}

// Flattener turns a collection of paths into a boundary descriptor.
type Flattener[P Vertex] interface {
	Flatten(paths Paths[P]) Descriptor[P]
}

// Len returns the total number of points over all paths. Nil paths count as empty.
func (ps Paths[P]) Len() int {
	n := 0
	for _, p := range ps {
		if p != nil {
			n += len(*p)
		}
	}
	return n
}

// NewPath is a helper that wraps points into a path handle.
func NewPath[P Vertex](pts ...P) *Path[P] {
	p := Path[P](pts)
	return &p
}
