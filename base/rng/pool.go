package rng

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/jackc/puddle/v2"

	"github.com/safing/bufrng/base/log"
)

// Pool hands out Locals to concurrently running goroutines. An acquired
// Local belongs to the acquiring goroutine until it is released back to the
// pool, so the single-goroutine rule of Local and its handles holds while
// still allowing any number of goroutines to draw randomness.
//
// The entropy source given to the pool is shared by all Locals of the pool
// and must be safe for concurrent use.
type Pool struct {
	pool *puddle.Pool[*Local]
	src  EntropySource
}

// PooledLocal is a Local acquired from a Pool.
type PooledLocal struct {
	res *puddle.Resource[*Local]
}

// NewPool returns a pool of at most maxSize Locals. A maxSize of zero or less
// selects the number of CPUs.
func NewPool(src EntropySource, cfg Config, maxSize int32) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if maxSize <= 0 {
		maxSize = int32(runtime.NumCPU()) //nolint:gosec
	}

	constructor := func(context.Context) (*Local, error) {
		return NewLocal(src, cfg), nil
	}
	destructor := func(l *Local) {
		if err := l.Release(); err != nil {
			log.Errorf("rng: failed to release pooled local: %s", err)
		}
	}

	pool, err := puddle.NewPool(&puddle.Config[*Local]{
		Constructor: constructor,
		Destructor:  destructor,
		MaxSize:     maxSize,
	})
	if err != nil {
		return nil, fmt.Errorf("rng: failed to create pool: %w", err)
	}
	return &Pool{pool: pool, src: src}, nil
}

// Acquire waits for a free Local. The caller must release it.
func (p *Pool) Acquire(ctx context.Context) (*PooledLocal, error) {
	res, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &PooledLocal{res: res}, nil
}

// Do runs fn with an acquired Local and releases it afterwards. fn must not
// keep any handle obtained from the Local beyond its return.
func (p *Pool) Do(ctx context.Context, fn func(l *Local) error) error {
	pl, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pl.Release()

	return fn(pl.Local())
}

// Size returns the number of Locals the pool currently holds.
func (p *Pool) Size() int {
	return int(p.pool.Stat().TotalResources())
}

// Close waits for all acquired Locals to be released, releases all Locals of
// the pool and then closes the entropy source, if it can be closed.
func (p *Pool) Close() error {
	p.pool.Close()
	if closer, ok := p.src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Local returns the acquired Local.
func (pl *PooledLocal) Local() *Local {
	return pl.res.Value()
}

// Release returns the Local to the pool.
func (pl *PooledLocal) Release() {
	pl.res.Release()
}
