package pathcodec

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/google/btree"
	"go.uber.org/zap"
)

// btreeDegree is the branching factor of the bucket key index.
const btreeDegree = 8

// PoolOptions configures a Pool.
type PoolOptions struct {
	// Baseline is the bucket capacity Release shrinks the pool's storage back to.
	Baseline int
	// CheckRecycle enables the double-recycle membership check on every Recycle.
	CheckRecycle bool
}

// PoolStats counts pool activity.
type PoolStats struct {
	Gets     uint64 // requests served
	Hits     uint64 // requests served from a bucket
	Misses   uint64 // requests that allocated a fresh handle (allocations)
	Recycles uint64 // handles returned
	Held     int    // handles currently pooled
}

// Pool recycles slice handles, bucketed by capacity.
//
// Get prefers a bucket whose capacity equals the request; otherwise it takes the
// nearest bucket below or above the request, scored by fitScore, and grows the handle
// in place if it is still short. Bucket keys are kept in a sorted index, so a miss
// costs two tree descents instead of a sort.
//
// A handle obtained from Get belongs to the caller until it is passed to Recycle.
// Pool is not safe for concurrent use.
type Pool[S ~[]E, E any] struct {
	buckets  *MultiMap[int, *S]
	keys     *btree.BTreeG[int]
	options  PoolOptions
	stats    PoolStats
	counters *poolCounters
	log      *zap.Logger

	// scrub zeroes recycled handles up to their capacity, not just their length, so
	// pointer elements left behind by a caller's truncation are dropped.
	scrub bool
}

// NewPool creates an empty pool. A nil options uses the zero PoolOptions.
func NewPool[S ~[]E, E any](options *PoolOptions) *Pool[S, E] {
	if options == nil {
		options = &PoolOptions{}
	}
	return &Pool[S, E]{
		buckets: NewMultiMap[int, *S](options.Baseline),
		keys:    btree.NewOrderedG[int](btreeDegree),
		options: *options,
		scrub:   holdsPointers(reflect.TypeFor[E]()),
	}
}

// Get returns a handle with length 0 and capacity of at least minCap.
func (p *Pool[S, E]) Get(minCap int) *S {
	if minCap < 0 {
		minCap = 0
	}
	p.stats.Gets++
	if p.buckets.Len() == 0 {
		p.stats.Misses++
		if p.counters != nil {
			p.counters.misses.Inc()
		}
		if p.log != nil {
			p.log.Debug("pool miss", zap.Int("capacity", minCap), zap.Uint64("misses", p.stats.Misses))
		}
		s := make(S, 0, minCap)
		return &s
	}

	key := minCap
	switch {
	case minCap == 0:
		key, _ = p.keys.Min()
	case !p.buckets.ContainsKey(minCap):
		key = p.bestFit(minCap)
	}

	h, _ := p.buckets.TryPopLast(key)
	if !p.buckets.ContainsKey(key) {
		p.keys.Delete(key)
	}
	if cap(*h) < minCap {
		*h = slices.Grow(*h, minCap)
	}
	p.stats.Hits++
	if p.counters != nil {
		p.counters.hits.Inc()
		p.counters.held.Dec()
	}
	return h
}

// bestFit returns the held capacity closest to want, looking only at the floor and
// ceiling keys: fitScore grows monotonically away from want on either side.
func (p *Pool[S, E]) bestFit(want int) int {
	floor, hasFloor := 0, false
	p.keys.DescendLessOrEqual(want, func(k int) bool {
		floor, hasFloor = k, true
		return false
	})
	ceil, hasCeil := 0, false
	p.keys.AscendGreaterOrEqual(want, func(k int) bool {
		ceil, hasCeil = k, true
		return false
	})
	switch {
	case !hasFloor:
		return ceil
	case !hasCeil:
		return floor
	case fitScore(ceil, want) <= fitScore(floor, want):
		return ceil
	default:
		return floor
	}
}

// Recycle clears h, truncates it to length 0 and stores it under its capacity.
// The caller forfeits h. Recycling a handle the pool already holds is a programmer
// error: it panics with ErrDoubleRecycle when CheckRecycle is on and silently corrupts
// the pool otherwise.
func (p *Pool[S, E]) Recycle(h *S) {
	if h == nil {
		return
	}
	if p.options.CheckRecycle && p.buckets.ContainsValue(h) {
		panic(fmt.Errorf("%w: %p (cap %d)", ErrDoubleRecycle, h, cap(*h)))
	}
	if p.scrub {
		clear((*h)[:cap(*h)])
	} else {
		clear(*h)
	}
	*h = (*h)[:0]
	c := cap(*h)
	if !p.buckets.ContainsKey(c) {
		p.keys.ReplaceOrInsert(c)
	}
	p.buckets.Add(c, h)
	p.stats.Recycles++
	if p.counters != nil {
		p.counters.recycles.Inc()
		p.counters.held.Inc()
	}
}

// Clear drops every held handle. Bucket storage is kept for reuse.
func (p *Pool[S, E]) Clear() {
	p.dropped()
	p.buckets.Clear()
	p.keys.Clear(true)
	p.stats = PoolStats{}
}

// Release drops every held handle and the bucket storage, restarting at the
// configured baseline.
func (p *Pool[S, E]) Release() {
	p.dropped()
	p.buckets = NewMultiMap[int, *S](p.options.Baseline)
	p.keys = btree.NewOrderedG[int](btreeDegree)
	p.stats = PoolStats{}
}

func (p *Pool[S, E]) dropped() {
	if p.counters != nil {
		p.counters.held.Sub(float64(p.buckets.Len()))
	}
}

// Len returns the number of held handles.
func (p *Pool[S, E]) Len() int { return p.buckets.Len() }

// Buckets returns the number of distinct capacities held.
func (p *Pool[S, E]) Buckets() int { return p.keys.Len() }

// Stats returns the pool's counters.
func (p *Pool[S, E]) Stats() PoolStats {
	s := p.stats
	s.Held = p.buckets.Len()
	return s
}

// Capacities iterates over the held bucket capacities in ascending order.
func (p *Pool[S, E]) Capacities(yield func(int) bool) {
	p.keys.Ascend(func(k int) bool { return yield(k) })
}

// holdsPointers reports whether values of t can reference other memory.
func holdsPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Slice, reflect.Map,
		reflect.Chan, reflect.Func, reflect.Interface, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && holdsPointers(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if holdsPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
