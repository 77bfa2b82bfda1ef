package rng

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/bufrng/base/rng/rngtest"
)

func TestLocalLazy(t *testing.T) {
	t.Parallel()

	src := rngtest.NewCounterSource()
	l := NewLocal(src, Config{BufferWords: 4, ReseedThreshold: 64})

	seeder, generator := l.Initialized()
	assert.False(t, seeder)
	assert.False(t, generator)
	assert.Equal(t, 0, src.Calls())

	// The seed source exists after first access, but has not pulled yet.
	s := l.SeedSource()
	seeder, generator = l.Initialized()
	assert.True(t, seeder)
	assert.False(t, generator)
	assert.Equal(t, 0, src.Calls())

	// The generator is seeded on first access.
	g := l.Generator()
	_, generator = l.Initialized()
	assert.True(t, generator)
	assert.Equal(t, 1, src.Calls())

	// Later accesses hand out clones of the same instances.
	s2 := l.SeedSource()
	g2, err := l.TryGenerator()
	require.NoError(t, err)
	assert.Equal(t, 1, src.Calls())
	// The Local, g and g2.
	assert.Equal(t, 3, g2.Refs())

	// The Local, s, s2 and the generator's own clone.
	assert.Equal(t, 4, s.Refs())

	for _, h := range []interface{ Release() error }{s, s2, g, g2} {
		require.NoError(t, h.Release())
	}
	require.NoError(t, l.Release())
	assert.False(t, src.Closed(), "a Local must not close a source it shares")

	seeder, generator = l.Initialized()
	assert.False(t, seeder)
	assert.False(t, generator)
}

func TestLocalClonesShareState(t *testing.T) {
	t.Parallel()

	l := NewLocal(rngtest.NewCounterSource(), Config{BufferWords: 4})
	defer l.Release() //nolint:errcheck

	a := l.SeedSource()
	defer a.Release() //nolint:errcheck
	b := l.SeedSource()
	defer b.Release() //nolint:errcheck

	assert.Equal(t, word(0), a.Uint64())
	assert.Equal(t, word(8), b.Uint64())
	assert.Equal(t, word(16), a.Uint64())
}

func TestLocalsAreIndependent(t *testing.T) {
	t.Parallel()

	src := rngtest.NewCounterSource()
	one := NewLocal(src, Config{BufferWords: 4})
	defer one.Release() //nolint:errcheck
	two := NewLocal(src, Config{BufferWords: 4})
	defer two.Release() //nolint:errcheck

	a := one.SeedSource()
	defer a.Release() //nolint:errcheck
	b := two.SeedSource()
	defer b.Release() //nolint:errcheck

	// Each Local buffers its own raw call.
	assert.Equal(t, word(0), a.Uint64())
	assert.Equal(t, word(32), b.Uint64())
	assert.Equal(t, word(8), a.Uint64())
	assert.Equal(t, 2, src.Calls())
}

func TestLocalGeneratorFailure(t *testing.T) {
	t.Parallel()

	src := rngtest.NewFailingSource(0)
	l := NewLocal(src, Config{})

	_, err := l.TryGenerator()
	assert.ErrorIs(t, err, ErrEntropySource)
	_, generator := l.Initialized()
	assert.False(t, generator)

	assert.Panics(t, func() { l.Generator() })
	require.NoError(t, l.Release())
}

func TestLocalContext(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FromContext(context.Background()))

	l := NewLocal(rngtest.NewCounterSource(), Config{BufferWords: 4})
	defer l.Release() //nolint:errcheck
	ctx := NewContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))

	s := SeedSourceFrom(ctx)
	defer s.Release() //nolint:errcheck
	assert.Equal(t, word(0), s.Uint64())

	g, err := GeneratorFrom(ctx)
	require.NoError(t, err)
	defer g.Release() //nolint:errcheck
	_, generator := l.Initialized()
	assert.True(t, generator)

	// Without a Local, a fresh default instance is returned.
	fallback, err := GeneratorFrom(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fallback.Refs())
	fallback.Uint64()
	require.NoError(t, fallback.Release())
}

func TestLocalsShareSource(t *testing.T) {
	t.Parallel()

	src := rngtest.NewCounterSource()
	one := NewLocal(src, Config{BufferWords: 4})
	two := NewLocal(src, Config{BufferWords: 4})

	s := one.SeedSource()
	s.Uint64()
	require.NoError(t, s.Release())
	require.NoError(t, one.Release())
	assert.False(t, src.Closed(), "releasing one Local must leave the source open")

	// The other Local still draws from the source after the first is done.
	s = two.SeedSource()
	assert.Equal(t, word(32), s.Uint64())
	require.NoError(t, s.Release())
	require.NoError(t, two.Release())
	assert.False(t, src.Closed())
}
