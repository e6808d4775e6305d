package pathcodec

import (
	"errors"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of a Bridge. Collectors are always
// created; they are exported only when registered.
type Metrics struct {
	// RegionBytes tracks the bytes currently held by flat buffer regions, by channel.
	RegionBytes *prometheus.GaugeVec
	// RegionGrowths counts region reallocations, by channel.
	RegionGrowths *prometheus.CounterVec
	// AllocatorBytes counts bytes through the region allocator, by direction.
	AllocatorBytes *prometheus.CounterVec
	// PoolGets counts pool requests by kind and result (hit or miss).
	PoolGets *prometheus.CounterVec
	// PoolRecycles counts handles returned to a pool, by kind.
	PoolRecycles *prometheus.CounterVec
	// PoolHeld tracks handles currently held by a pool, by kind.
	PoolHeld *prometheus.GaugeVec
	// NativeCalls counts engine invocations, by operation and coordinate kind.
	NativeCalls *prometheus.CounterVec
	// NativeFailures counts engine invocations that returned an error, by operation and
	// coordinate kind.
	NativeFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when it is non-nil.
// Collectors already registered by an earlier Bridge on the same registerer are reused.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegionBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pathcodec_region_bytes",
			Help: "Bytes currently held by flat buffer regions",
		}, []string{"channel"}),
		RegionGrowths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathcodec_region_growths_total",
			Help: "Total number of flat buffer region reallocations",
		}, []string{"channel"}),
		AllocatorBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathcodec_allocator_bytes_total",
			Help: "Total bytes allocated and freed through the region allocator",
		}, []string{"direction"}),
		PoolGets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathcodec_pool_gets_total",
			Help: "Total number of pool requests by result",
		}, []string{"kind", "result"}),
		PoolRecycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathcodec_pool_recycles_total",
			Help: "Total number of handles returned to a pool",
		}, []string{"kind"}),
		PoolHeld: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pathcodec_pool_held",
			Help: "Handles currently held by a pool",
		}, []string{"kind"}),
		NativeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathcodec_native_calls_total",
			Help: "Total number of native engine calls",
		}, []string{"op", "kind"}),
		NativeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pathcodec_native_failures_total",
			Help: "Total number of failed native engine calls",
		}, []string{"op", "kind"}),
	}
	if reg != nil {
		m.RegionBytes = register(reg, m.RegionBytes)
		m.RegionGrowths = register(reg, m.RegionGrowths)
		m.AllocatorBytes = register(reg, m.AllocatorBytes)
		m.PoolGets = register(reg, m.PoolGets)
		m.PoolRecycles = register(reg, m.PoolRecycles)
		m.PoolHeld = register(reg, m.PoolHeld)
		m.NativeCalls = register(reg, m.NativeCalls)
		m.NativeFailures = register(reg, m.NativeFailures)
	}
	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// poolCounters are the per-kind collectors of one pool, resolved once so the hot
// path does not hash label values.
type poolCounters struct {
	hits     prometheus.Counter
	misses   prometheus.Counter
	recycles prometheus.Counter
	held     prometheus.Gauge
}

func (m *Metrics) poolCounters(kind string) *poolCounters {
	return &poolCounters{
		hits:     m.PoolGets.WithLabelValues(kind, "hit"),
		misses:   m.PoolGets.WithLabelValues(kind, "miss"),
		recycles: m.PoolRecycles.WithLabelValues(kind),
		held:     m.PoolHeld.WithLabelValues(kind),
	}
}

// trackingAllocator wraps a memory.Allocator and counts region bytes.
type trackingAllocator struct {
	memory.Allocator
	allocated prometheus.Counter
	freed     prometheus.Counter
}

func newTrackingAllocator(base memory.Allocator, m *Metrics) *trackingAllocator {
	if base == nil {
		base = memory.DefaultAllocator
	}
	return &trackingAllocator{
		Allocator: base,
		allocated: m.AllocatorBytes.WithLabelValues("allocated"),
		freed:     m.AllocatorBytes.WithLabelValues("freed"),
	}
}

func (a *trackingAllocator) Allocate(size int) []byte {
	a.allocated.Add(float64(size))
	return a.Allocator.Allocate(size)
}

func (a *trackingAllocator) Reallocate(size int, b []byte) []byte {
	a.freed.Add(float64(len(b)))
	a.allocated.Add(float64(size))
	return a.Allocator.Reallocate(size, b)
}

func (a *trackingAllocator) Free(b []byte) {
	a.freed.Add(float64(len(b)))
	a.Allocator.Free(b)
}

var _ memory.Allocator = (*trackingAllocator)(nil)
