package pathcodec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"
)

// kind groups the buffers and pools of one coordinate kind.
type kind[P Vertex] struct {
	name     string
	subjects *FlatBuffer[P]
	clips    *FlatBuffer[P]
	paths    *PathPool[P]
	sets     *SetPool[P]
}

func newKind[P Vertex](name string, subj, clip Channel, alloc memory.Allocator, log *zap.Logger, m *Metrics, options *PoolOptions) *kind[P] {
	k := &kind[P]{
		name:     name,
		subjects: newFlatBuffer[P](subj, alloc, log, m),
		clips:    newFlatBuffer[P](clip, alloc, log, m),
		paths:    NewPool[Path[P], P](options),
		sets:     NewPool[Paths[P], *Path[P]](options),
	}
	k.paths.counters = m.poolCounters("path" + name)
	k.sets.counters = m.poolCounters("paths" + name)
	k.paths.log = log.With(zap.String("pool", "path"+name))
	k.sets.log = log.With(zap.String("pool", "paths"+name))
	return k
}

func (k *kind[P]) close() {
	k.subjects.Free()
	k.clips.Free()
	k.paths.Release()
	k.sets.Release()
}

// Bridge marshals path collections to and from an Engine.
//
// A Bridge owns four flat buffers (subject and clip, for each coordinate kind) and
// the pools result paths are drawn from. Results returned by its operations belong
// to the caller; hand them back with RecyclePaths64/RecyclePathsD to reuse their
// storage.
//
// A Bridge is not safe for concurrent use. Give every worker its own, see Registry.
type Bridge struct {
	engine  Engine
	cfg     Config
	log     *zap.Logger
	metrics *Metrics

	i64 *kind[Point64]
	f64 *kind[PointD]

	closed bool
}

// NewBridge creates a Bridge over engine. A nil cfg uses DefaultConfig.
func NewBridge(engine Engine, cfg *Config) (*Bridge, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := NewMetrics(cfg.Registerer)

	alloc := cfg.Allocator
	if alloc == nil {
		if p, ok := engine.(RegionAllocatorProvider); ok {
			alloc = p.RegionAllocator()
		}
	}
	tracked := newTrackingAllocator(alloc, m)

	options := &PoolOptions{
		Baseline:     cfg.PoolBaseline,
		CheckRecycle: cfg.CheckRecycle || debugChecks,
	}
	b := &Bridge{
		engine:  engine,
		cfg:     *cfg,
		log:     log,
		metrics: m,
		i64:     newKind[Point64]("64", SubjectInt, ClipInt, tracked, log, m, options),
		f64:     newKind[PointD]("D", SubjectFloat, ClipFloat, tracked, log, m, options),
	}
	log.Debug("bridge created",
		zap.Int("precision", cfg.Precision),
		zap.Bool("check_recycle", options.CheckRecycle),
	)
	return b, nil
}

// call is one engine invocation over already flattened inputs; clips is nil for
// unary operations.
type call[P Vertex] func(subjects, clips *Descriptor[P]) (Descriptor[P], error)

// run flattens the inputs, invokes the engine once, decodes its result into dst (a
// pooled collection when dst is nil) and releases the native descriptor exactly once.
// On failure dst is not modified and nil is returned.
func run[P Vertex](b *Bridge, k *kind[P], op string, subjects Paths[P], clips *Paths[P], dst *Paths[P], invoke call[P], release func(*Descriptor[P])) (*Paths[P], error) {
	if b.closed {
		return nil, ErrClosed
	}
	sd := k.subjects.Flatten(subjects)
	var cd *Descriptor[P]
	if clips != nil {
		c := k.clips.Flatten(*clips)
		cd = &c
	}

	b.metrics.NativeCalls.WithLabelValues(op, k.name).Inc()
	out, err := invoke(&sd, cd)
	if err != nil {
		b.metrics.NativeFailures.WithLabelValues(op, k.name).Inc()
		b.log.Warn("native operation failed", zap.String("op", op), zap.String("kind", k.name), zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %w", ErrNative, op, err)
	}
	defer release(&out)

	if err := out.Validate(); err != nil {
		b.log.Error("native result rejected", zap.String("op", op), zap.String("kind", k.name), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if dst == nil {
		dst = k.sets.Get(int(out.Count))
	}
	unflatten(&out, k.paths, dst)
	return dst, nil
}

func checkArgs(op ClipOp, fr FillRule) error {
	if !op.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidOp, uint8(op))
	}
	if !fr.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidFillRule, int32(fr))
	}
	return nil
}

// Clip64 applies op to subjects and clips and appends the result to dst. A nil dst
// is replaced by a collection drawn from the bridge's pool.
func (b *Bridge) Clip64(op ClipOp, subjects, clips Paths64, fr FillRule, dst *Paths64) (*Paths64, error) {
	if err := checkArgs(op, fr); err != nil {
		return nil, err
	}
	return run(b, b.i64, op.String(), subjects, &clips, dst,
		func(s, c *Descriptor[Point64]) (Descriptor[Point64], error) {
			return b.engine.Clip64(op, s, c, fr)
		}, b.engine.Release64)
}

// Intersect64 returns the intersection of subjects and clips.
func (b *Bridge) Intersect64(subjects, clips Paths64, fr FillRule) (*Paths64, error) {
	return b.Clip64(Intersection, subjects, clips, fr, nil)
}

// Union64 returns the union of subjects and clips.
func (b *Bridge) Union64(subjects, clips Paths64, fr FillRule) (*Paths64, error) {
	return b.Clip64(Union, subjects, clips, fr, nil)
}

// Difference64 returns subjects minus clips.
func (b *Bridge) Difference64(subjects, clips Paths64, fr FillRule) (*Paths64, error) {
	return b.Clip64(Difference, subjects, clips, fr, nil)
}

// Xor64 returns the symmetric difference of subjects and clips.
func (b *Bridge) Xor64(subjects, clips Paths64, fr FillRule) (*Paths64, error) {
	return b.Clip64(Xor, subjects, clips, fr, nil)
}

// UnionSelf64 returns the union of subjects with themselves, merging overlaps.
func (b *Bridge) UnionSelf64(subjects Paths64, fr FillRule, dst *Paths64) (*Paths64, error) {
	if err := checkArgs(Union, fr); err != nil {
		return nil, err
	}
	return run(b, b.i64, Union.String(), subjects, nil, dst,
		func(s, _ *Descriptor[Point64]) (Descriptor[Point64], error) {
			return b.engine.Clip64(Union, s, nil, fr)
		}, b.engine.Release64)
}

// ClipD applies op to subjects and clips, keeping precision fractional digits, and
// appends the result to dst. A nil dst is replaced by a pooled collection.
func (b *Bridge) ClipD(op ClipOp, subjects, clips PathsD, fr FillRule, precision int, dst *PathsD) (*PathsD, error) {
	if err := checkArgs(op, fr); err != nil {
		return nil, err
	}
	if precision < 0 || precision > MaxPrecision {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPrecision, precision)
	}
	return run(b, b.f64, op.String(), subjects, &clips, dst,
		func(s, c *Descriptor[PointD]) (Descriptor[PointD], error) {
			return b.engine.ClipD(op, s, c, fr, precision)
		}, b.engine.ReleaseD)
}

// IntersectD returns the intersection of subjects and clips at the configured precision.
func (b *Bridge) IntersectD(subjects, clips PathsD, fr FillRule) (*PathsD, error) {
	return b.ClipD(Intersection, subjects, clips, fr, b.cfg.Precision, nil)
}

// UnionD returns the union of subjects and clips at the configured precision.
func (b *Bridge) UnionD(subjects, clips PathsD, fr FillRule) (*PathsD, error) {
	return b.ClipD(Union, subjects, clips, fr, b.cfg.Precision, nil)
}

// DifferenceD returns subjects minus clips at the configured precision.
func (b *Bridge) DifferenceD(subjects, clips PathsD, fr FillRule) (*PathsD, error) {
	return b.ClipD(Difference, subjects, clips, fr, b.cfg.Precision, nil)
}

// XorD returns the symmetric difference of subjects and clips at the configured precision.
func (b *Bridge) XorD(subjects, clips PathsD, fr FillRule) (*PathsD, error) {
	return b.ClipD(Xor, subjects, clips, fr, b.cfg.Precision, nil)
}

// UnionSelfD returns the union of subjects with themselves at the configured precision.
func (b *Bridge) UnionSelfD(subjects PathsD, fr FillRule, dst *PathsD) (*PathsD, error) {
	if err := checkArgs(Union, fr); err != nil {
		return nil, err
	}
	precision := b.cfg.Precision
	return run(b, b.f64, Union.String(), subjects, nil, dst,
		func(s, _ *Descriptor[PointD]) (Descriptor[PointD], error) {
			return b.engine.ClipD(Union, s, nil, fr, precision)
		}, b.engine.ReleaseD)
}

// TriangulateD splits paths into triangles, one three-point path per triangle.
func (b *Bridge) TriangulateD(paths PathsD, dst *PathsD) (*PathsD, error) {
	return run(b, b.f64, "triangulate", paths, nil, dst,
		func(s, _ *Descriptor[PointD]) (Descriptor[PointD], error) {
			return b.engine.TriangulateD(s)
		}, b.engine.ReleaseD)
}

// GetPath64 returns an empty pooled path with room for at least capacity points.
// After Close the path is freshly allocated and the pools are left untouched.
func (b *Bridge) GetPath64(capacity int) *Path64 { return getPath(b, b.i64, capacity) }

// GetPathD returns an empty pooled path with room for at least capacity points.
// After Close the path is freshly allocated and the pools are left untouched.
func (b *Bridge) GetPathD(capacity int) *PathD { return getPath(b, b.f64, capacity) }

func getPath[P Vertex](b *Bridge, k *kind[P], capacity int) *Path[P] {
	if b.closed {
		p := make(Path[P], 0, max(capacity, 0))
		return &p
	}
	return k.paths.Get(capacity)
}

// RecyclePaths64 returns paths and every path in it to the bridge's pools.
// The caller must not use any of them afterwards.
func (b *Bridge) RecyclePaths64(paths *Paths64) {
	if b.closed {
		return
	}
	RecyclePaths(paths, b.i64.paths, b.i64.sets)
}

// RecyclePathsD returns paths and every path in it to the bridge's pools.
// The caller must not use any of them afterwards.
func (b *Bridge) RecyclePathsD(paths *PathsD) {
	if b.closed {
		return
	}
	RecyclePaths(paths, b.f64.paths, b.f64.sets)
}

// RegionStats describes one flat buffer.
type RegionStats struct {
	Channel  Channel
	PointCap int
	PathCap  int
	Grows    int
	Bytes    int
}

// BridgeStats is a snapshot of a bridge's buffers and pools.
type BridgeStats struct {
	Regions [channelCount]RegionStats
	Path64  PoolStats
	Paths64 PoolStats
	PathD   PoolStats
	PathsD  PoolStats
}

func regionStats[P Vertex](b *FlatBuffer[P]) RegionStats {
	return RegionStats{
		Channel:  b.Channel(),
		PointCap: b.PointCap(),
		PathCap:  b.PathCap(),
		Grows:    b.Grows(),
		Bytes:    b.Size(),
	}
}

// Stats returns a snapshot of the bridge's buffers and pools.
func (b *Bridge) Stats() BridgeStats {
	var s BridgeStats
	s.Regions[SubjectInt] = regionStats(b.i64.subjects)
	s.Regions[ClipInt] = regionStats(b.i64.clips)
	s.Regions[SubjectFloat] = regionStats(b.f64.subjects)
	s.Regions[ClipFloat] = regionStats(b.f64.clips)
	s.Path64 = b.i64.paths.Stats()
	s.Paths64 = b.i64.sets.Stats()
	s.PathD = b.f64.paths.Stats()
	s.PathsD = b.f64.sets.Stats()
	return s
}

// Metrics returns the bridge's collectors.
func (b *Bridge) Metrics() *Metrics { return b.metrics }

// Close frees the flat buffer regions and drops pooled storage back to the baseline.
// Operations after Close return ErrClosed. Close is idempotent.
func (b *Bridge) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	stats := b.Stats()
	b.i64.close()
	b.f64.close()
	b.log.Debug("bridge closed",
		zap.Uint64("path64_misses", stats.Path64.Misses),
		zap.Uint64("pathD_misses", stats.PathD.Misses),
	)
	return nil
}
