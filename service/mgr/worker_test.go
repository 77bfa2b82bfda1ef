package mgr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safing/bufrng/base/rng"
	"github.com/safing/bufrng/base/rng/rngtest"
)

func TestWorkerLocal(t *testing.T) {
	t.Parallel()

	m := NewWithContext(context.Background(), "test", rngtest.NewCounterSource(), rng.Config{BufferWords: 4})
	defer m.Cancel()

	err := m.Do("local", func(w *WorkerCtx) error {
		// The context carries the same Local as the worker.
		assert.Same(t, w.Local(), rng.FromContext(w.Ctx()))
		assert.Same(t, w, WorkerFromCtx(w.Ctx()))

		seeder := w.SeedSource()
		defer seeder.Release() //nolint:errcheck

		g, err := w.Generator()
		if err != nil {
			return err
		}
		defer g.Release() //nolint:errcheck

		fromCtx, err := rng.GeneratorFrom(w.Ctx())
		if err != nil {
			return err
		}
		defer fromCtx.Release() //nolint:errcheck

		// Local, g and fromCtx share one generator.
		assert.Equal(t, 3, g.Refs())
		return nil
	})
	require.NoError(t, err)
}

func TestWorkersGetSeparateLocals(t *testing.T) {
	t.Parallel()

	m := New("test")
	defer m.Cancel()

	locals := make(chan *rng.Local, 2)
	release := make(chan struct{})
	for _, name := range []string{"one", "two"} {
		m.Go(name, func(w *WorkerCtx) error {
			g, err := w.Generator()
			if err != nil {
				return err
			}
			defer g.Release() //nolint:errcheck
			g.Uint64()

			locals <- w.Local()
			<-release
			return nil
		})
	}

	first, second := <-locals, <-locals
	assert.NotSame(t, first, second)
	close(release)

	assert.True(t, m.WaitForWorkers(time.Second))
	assert.Equal(t, 0, m.Workers())
}

func TestWorkerPanic(t *testing.T) {
	t.Parallel()

	m := NewWithContext(context.Background(), "test", rngtest.NewFailingSource(0), rng.Config{})
	defer m.Cancel()

	err := m.Do("failing entropy", func(w *WorkerCtx) error {
		// The infallible accessor panics, which the manager turns into an error.
		g := w.Local().Generator()
		_ = g.Uint64()
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, rng.ErrEntropySource))
}

func TestWorkerCanceled(t *testing.T) {
	t.Parallel()

	m := New("test")
	m.Cancel()

	err := m.Do("canceled", func(w *WorkerCtx) error {
		<-w.Done()
		return w.Ctx().Err()
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, m.IsDone())
}

func TestWorkersShareSource(t *testing.T) {
	t.Parallel()

	src := rngtest.NewCounterSource()
	m := NewWithContext(context.Background(), "test", src, rng.Config{BufferWords: 4})

	for _, name := range []string{"one", "two"} {
		err := m.Do(name, func(w *WorkerCtx) error {
			s := w.SeedSource()
			defer s.Release() //nolint:errcheck
			return s.TryFillBytes(make([]byte, 8))
		})
		require.NoError(t, err)
		assert.False(t, src.Closed(), "worker %s must not close the shared source", name)
	}
	assert.Equal(t, 2, src.Calls())

	require.NoError(t, m.Close(time.Second))
	assert.True(t, src.Closed())
}
