package pathcodec

import (
	"fmt"
	"slices"
)

type (
	// PathPool recycles individual paths.
	PathPool[P Vertex] = Pool[Path[P], P]
	// SetPool recycles path collections.
	SetPool[P Vertex] = Pool[Paths[P], *Path[P]]
)

// Flatten writes paths into buf and returns a descriptor over buf's regions.
func Flatten[P Vertex](buf *FlatBuffer[P], paths Paths[P]) Descriptor[P] {
	return buf.Flatten(paths)
}

// Unflatten appends the paths of d to dst, drawing each path from pool.
//
// The descriptor is validated before anything is appended, so a malformed descriptor
// leaves dst untouched. dst is grown once to hold every new path. An empty descriptor
// is a no-op.
func Unflatten[P Vertex](d *Descriptor[P], pool *PathPool[P], dst *Paths[P]) error {
	if err := d.Validate(); err != nil {
		return err
	}
	unflatten(d, pool, dst)
	return nil
}

// unflatten is Unflatten for a descriptor already known to be valid. A descriptor that
// is not panics with ErrMalformedDescriptor before any path is drawn for the bad entry.
func unflatten[P Vertex](d *Descriptor[P], pool *PathPool[P], dst *Paths[P]) {
	if d.Count == 0 {
		return
	}
	*dst = slices.Grow(*dst, int(d.Count))

	lengths := regionReader[int64]{B: d.Lengths}
	points := regionReader[P]{B: d.Points}
	for i := range d.Count {
		n, err := lengths.ReadOne()
		if err != nil {
			panic(fmt.Errorf("%w: path %d: %w", ErrMalformedDescriptor, i, err))
		}
		pts, err := points.Next(int(n))
		if err != nil {
			panic(fmt.Errorf("%w: path %d: %w", ErrMalformedDescriptor, i, err))
		}
		path := pool.Get(len(pts))
		*path = append(*path, pts...)
		*dst = append(*dst, path)
	}
}

// RecyclePaths returns every path of paths to pathPool and the emptied collection to
// setPool. With a nil setPool the collection is only cleared. The caller forfeits
// every path it held.
func RecyclePaths[P Vertex](paths *Paths[P], pathPool *PathPool[P], setPool *SetPool[P]) {
	if paths == nil {
		return
	}
	for _, p := range *paths {
		pathPool.Recycle(p)
	}
	if setPool == nil {
		clear(*paths)
		*paths = (*paths)[:0]
		return
	}
	setPool.Recycle(paths)
}
