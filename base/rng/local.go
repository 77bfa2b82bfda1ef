package rng

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Local holds the seed source and the generator of one goroutine. Both are
// created on first access and then handed out as clones, so that all callers
// in the goroutine share one buffer and one generator state.
//
// A Local must only be used by one goroutine at a time. Use NewContext to
// make it available to the call chain of a goroutine, or a Pool to hand out
// Locals to many goroutines.
type Local struct {
	src EntropySource
	cfg Config

	seeder    *SeedSource
	generator *Generator
}

// NewLocal returns an empty Local that builds its seed source over src and
// its generator according to cfg. A nil src selects the operating system.
// The Local never closes src: it is usually shared with other Locals, and
// its owner closes it once they are all released.
func NewLocal(src EntropySource, cfg Config) *Local {
	if src == nil {
		src = OSSource{}
	}
	return &Local{
		src: unowned{src},
		cfg: cfg.WithDefaults(),
	}
}

// SeedSource returns a clone of the goroutine's seed source.
func (l *Local) SeedSource() *SeedSource {
	if l.seeder == nil {
		l.seeder = NewSeedSource(l.src, l.cfg.BufferWords)
	}
	return l.seeder.Clone()
}

// TryGenerator returns a clone of the goroutine's generator. The first call
// seeds the generator from the seed source and may fail.
func (l *Local) TryGenerator() (*Generator, error) {
	if l.generator == nil {
		g, err := NewGenerator(l.SeedSource(), l.cfg)
		if err != nil {
			return nil, err
		}
		l.generator = g
	}
	return l.generator.Clone(), nil
}

// Generator returns a clone of the goroutine's generator. It panics if the
// initial seeding fails.
func (l *Local) Generator() *Generator {
	g, err := l.TryGenerator()
	must(err)
	return g
}

// Initialized reports whether the seed source and the generator exist yet.
func (l *Local) Initialized() (seeder, generator bool) {
	return l.seeder != nil, l.generator != nil
}

// Release drops the Local's own handles. Clones handed out earlier stay
// usable until they are released themselves. The Local starts over empty.
func (l *Local) Release() error {
	var result *multierror.Error
	if l.generator != nil {
		if err := l.generator.Release(); err != nil {
			result = multierror.Append(result, err)
		}
		l.generator = nil
	}
	if l.seeder != nil {
		if err := l.seeder.Release(); err != nil {
			result = multierror.Append(result, err)
		}
		l.seeder = nil
	}
	return result.ErrorOrNil()
}

// localContextKey is a key used for the context key/value storage.
type localContextKey struct{}

// NewContext returns a copy of ctx that carries l.
func NewContext(ctx context.Context, l *Local) context.Context {
	return context.WithValue(ctx, localContextKey{}, l)
}

// FromContext returns the Local carried by ctx, or nil.
func FromContext(ctx context.Context) *Local {
	if l, ok := ctx.Value(localContextKey{}).(*Local); ok {
		return l
	}
	return nil
}

// SeedSourceFrom returns a clone of the seed source of the Local carried by
// ctx. Without one, it returns a new, unshared default seed source, which
// costs a raw call for its first request and buffers nothing across calls.
// Bind a Local with NewContext, or use a Pool, on hot paths.
func SeedSourceFrom(ctx context.Context) *SeedSource {
	if l := FromContext(ctx); l != nil {
		return l.SeedSource()
	}
	return NewDefaultSeedSource()
}

// GeneratorFrom returns a clone of the generator of the Local carried by ctx.
// Without one, it builds a new default generator over a new seed source on
// every call, each seeded with a raw call. Bind a Local with NewContext, or
// use a Pool, on hot paths.
func GeneratorFrom(ctx context.Context) (*Generator, error) {
	if l := FromContext(ctx); l != nil {
		return l.TryGenerator()
	}
	return NewDefaultGenerator(NewDefaultSeedSource())
}
