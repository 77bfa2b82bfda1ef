package rng

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/bufrng/base/rng/rngtest"
)

func TestEndToEnd(t *testing.T) {
	t.Parallel()

	src := rngtest.NewCounterSource()
	seeder := NewSeedSource(src, 4)
	defer seeder.Release() //nolint:errcheck

	// At least the buffer size: one direct call, no refill.
	p := make([]byte, 40)
	seeder.FillBytes(p)
	assert.Equal(t, []int{40}, src.Requests())

	// Two smaller requests share one refill.
	p = make([]byte, 16)
	seeder.FillBytes(p)
	seeder.FillBytes(p)
	assert.Equal(t, []int{40, 32}, src.Requests())

	// A generator on top with a 64 byte threshold pulls one seed per 64 bytes.
	g, err := NewGenerator(seeder.Clone(), Config{BufferWords: 4, ReseedThreshold: 64})
	require.NoError(t, err)
	defer g.Release() //nolint:errcheck

	assert.Equal(t, []int{40, 32, 32}, src.Requests())
	g.FillBytes(make([]byte, 64))
	assert.Equal(t, 3, src.Calls())
	g.FillBytes(make([]byte, 1))
	assert.Equal(t, []int{40, 32, 32, 32}, src.Requests())
}

func TestReseedCadence(t *testing.T) {
	t.Parallel()

	// Every 32 byte seed is a direct call on a 4 word buffer, so raw calls
	// count the seeds.
	src := rngtest.NewCounterSource()
	r, err := NewReseeding(NewSeedSource(src, 4), 64, nil)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	assert.Equal(t, 1, src.Calls(), "construction pulls the initial seed")
	assert.Equal(t, uint64(64), r.Threshold())

	r.FillBytes(make([]byte, 63))
	assert.Equal(t, 1, src.Calls())
	r.FillBytes(make([]byte, 1))
	assert.Equal(t, 1, src.Calls(), "reaching the threshold does not reseed yet")
	assert.Equal(t, uint64(64), r.BytesSinceReseed())

	// The next call reseeds exactly once before producing output.
	r.FillBytes(make([]byte, 1))
	assert.Equal(t, 2, src.Calls())
	assert.Equal(t, uint64(1), r.BytesSinceReseed())

	// Empty requests neither count nor reseed.
	r.FillBytes(nil)
	assert.Equal(t, uint64(1), r.BytesSinceReseed())

	r.Uint32()
	r.Uint64()
	r.FillBytes(make([]byte, 51))
	assert.Equal(t, uint64(64), r.BytesSinceReseed())
	assert.Equal(t, 2, src.Calls())

	// One large request past the threshold still costs only one reseed.
	r.FillBytes(make([]byte, 1000))
	assert.Equal(t, 3, src.Calls())
	assert.Equal(t, uint64(1000), r.BytesSinceReseed())
	r.FillBytes(make([]byte, 1))
	assert.Equal(t, 4, src.Calls())

	require.NoError(t, r.Reseed())
	assert.Equal(t, 5, src.Calls())
	assert.Equal(t, uint64(0), r.BytesSinceReseed())
}

func TestReseedingBufferedSeeds(t *testing.T) {
	t.Parallel()

	// With the default buffer, sixteen seeds come out of one raw call.
	src := rngtest.NewCounterSource()
	r, err := NewReseeding(NewSeedSource(src, DefaultBufferWords), 8, nil)
	require.NoError(t, err)
	defer r.Close() //nolint:errcheck

	// Every request after the first one reseeds.
	for range 16 {
		r.Uint64()
	}
	assert.Equal(t, 1, src.Calls())
	r.Uint64()
	assert.Equal(t, 2, src.Calls())
	assert.Equal(t, []int{512, 512}, src.Requests())
}

func TestReseedingDeterministic(t *testing.T) {
	t.Parallel()

	for _, name := range []string{StreamChaCha20, StreamChaCha8, StreamFortunaAES, StreamFortunaSerpent} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			newStream, err := StreamFactoryFor(name)
			require.NoError(t, err)

			output := func() []byte {
				r, err := NewReseeding(NewSeedSource(rngtest.NewCounterSource(), 4), 100, newStream)
				require.NoError(t, err)
				p := make([]byte, 300)
				for i := 0; i < len(p); i += 30 {
					r.FillBytes(p[i : i+30])
				}
				return p
			}

			first, second := output(), output()
			assert.Equal(t, first, second, "same seeds must give the same output")
			assert.NotEqual(t, make([]byte, len(first)), first)
			// The output does not repeat across the reseed.
			assert.False(t, bytes.Equal(first[:100], first[100:200]))
		})
	}
}

func TestReseedingFailure(t *testing.T) {
	t.Parallel()

	src := rngtest.NewFailingSource(1)
	r, err := NewReseeding(NewSeedSource(src, 4), 64, nil)
	require.NoError(t, err)

	r.FillBytes(make([]byte, 64))

	// The due reseed fails: the error is returned and nothing is produced.
	err = r.TryFillBytes(make([]byte, 8))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEntropySource))
	assert.Equal(t, uint64(64), r.BytesSinceReseed())

	n, err := r.Read(make([]byte, 8))
	assert.Equal(t, 0, n)
	assert.True(t, errors.Is(err, ErrEntropySource))
	assert.Panics(t, func() { r.Uint64() })

	// An initial seed failure fails construction.
	_, err = NewReseeding(NewSeedSource(rngtest.NewFailingSource(0), 4), 64, nil)
	assert.True(t, errors.Is(err, ErrEntropySource))
}

func TestReseedingInvalidThreshold(t *testing.T) {
	t.Parallel()

	src := rngtest.NewCounterSource()
	_, err := NewReseeding(NewSeedSource(src, 4), 0, nil)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, 0, src.Calls())
}

func TestReseedingCloseReleasesSeeder(t *testing.T) {
	t.Parallel()

	src := rngtest.NewCounterSource()
	seeder := NewSeedSource(src, 4)
	g, err := NewGenerator(seeder.Clone(), Config{})
	require.NoError(t, err)
	assert.Equal(t, 2, seeder.Refs())

	require.NoError(t, g.Release())
	assert.Equal(t, 1, seeder.Refs())
	assert.False(t, src.Closed())

	require.NoError(t, seeder.Release())
	assert.True(t, src.Closed())
}

func TestStreamFactoryFor(t *testing.T) {
	t.Parallel()

	_, err := StreamFactoryFor("rc4")
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	newStream, err := StreamFactoryFor("")
	require.NoError(t, err)
	var seed [SeedSize]byte
	s, err := newStream(seed)
	require.NoError(t, err)

	// ChaCha20 keystream for an all zero key and nonce.
	p := make([]byte, 8)
	s.FillBytes(p)
	assert.Equal(t, []byte{0x76, 0xb8, 0xe0, 0xad, 0xa0, 0xf1, 0x3d, 0x90}, p)
}

func TestFortunaLargeRequest(t *testing.T) {
	t.Parallel()

	newStream, err := StreamFactoryFor(StreamFortunaAES)
	require.NoError(t, err)
	s, err := newStream([SeedSize]byte{1})
	require.NoError(t, err)

	p := make([]byte, fortunaChunk+100)
	s.FillBytes(p)
	assert.NotEqual(t, make([]byte, 100), p[fortunaChunk:])
}

func TestFortunaSeedOnly(t *testing.T) {
	t.Parallel()

	for _, name := range []string{StreamFortunaAES, StreamFortunaSerpent} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			newStream, err := StreamFactoryFor(name)
			require.NoError(t, err)

			seed := [SeedSize]byte{1, 2, 3}
			output := func(seed [SeedSize]byte) []byte {
				s, err := newStream(seed)
				require.NoError(t, err)
				p := make([]byte, 256)
				s.FillBytes(p)
				return p
			}

			// Equal seeds give equal output, different seeds do not.
			assert.Equal(t, output(seed), output(seed))
			assert.NotEqual(t, output(seed), output([SeedSize]byte{3, 2, 1}))
		})
	}
}

func TestFortunaRawCalls(t *testing.T) {
	t.Parallel()

	src := rngtest.NewCounterSource()
	g, err := NewGenerator(NewSeedSource(src, 4), Config{Stream: StreamFortunaAES, ReseedThreshold: 64})
	require.NoError(t, err)
	defer g.Release() //nolint:errcheck

	// The seed source is the only input: one 32 byte call per seed.
	for range 4 {
		g.FillBytes(make([]byte, 64))
	}
	assert.Equal(t, []int{32, 32, 32, 32}, src.Requests())
}

func BenchmarkGenerator(b *testing.B) {
	for _, name := range []string{StreamChaCha20, StreamChaCha8, StreamFortunaAES} {
		b.Run(name, func(b *testing.B) {
			g, err := NewGenerator(NewDefaultSeedSource(), Config{Stream: name})
			if err != nil {
				b.Fatal(err)
			}
			defer g.Release() //nolint:errcheck

			p := make([]byte, 64)
			b.SetBytes(int64(len(p)))
			b.ResetTimer()
			for range b.N {
				g.FillBytes(p)
			}
		})
	}
}
