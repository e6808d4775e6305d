package pathcodec

import (
	"errors"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// Registry hands out one Bridge per worker. Bridges are not safe for concurrent use;
// the registry is. Workers are identified by any int the caller chooses, typically a
// goroutine pool index.
type Registry struct {
	engine  Engine
	cfg     Config
	bridges *xsync.Map[int, *Bridge]
}

// NewRegistry creates a registry whose bridges share engine and cfg.
// A nil cfg uses DefaultConfig.
func NewRegistry(engine Engine, cfg *Config) (*Registry, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		engine:  engine,
		cfg:     *cfg,
		bridges: xsync.NewMap[int, *Bridge](),
	}, nil
}

// Get returns the bridge of worker, creating it on first use.
func (r *Registry) Get(worker int) (*Bridge, error) {
	if b, ok := r.bridges.Load(worker); ok {
		return b, nil
	}
	cfg := r.cfg
	if cfg.Logger != nil {
		cfg.Logger = cfg.Logger.With(zap.Int("worker", worker))
	}
	b, err := NewBridge(r.engine, &cfg)
	if err != nil {
		return nil, err
	}
	actual, loaded := r.bridges.LoadOrStore(worker, b)
	if loaded {
		_ = b.Close()
	}
	return actual, nil
}

// Drop closes and forgets the bridge of worker, if any.
func (r *Registry) Drop(worker int) error {
	if b, ok := r.bridges.LoadAndDelete(worker); ok {
		return b.Close()
	}
	return nil
}

// Len returns the number of live bridges.
func (r *Registry) Len() int { return r.bridges.Size() }

// Close closes every bridge. The registry can be reused afterwards.
func (r *Registry) Close() error {
	var errs []error
	r.bridges.Range(func(worker int, b *Bridge) bool {
		r.bridges.Delete(worker)
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	return errors.Join(errs...)
}
