package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestGlobal(t *testing.T) {
	t.Parallel()

	b := make([]byte, 32)
	n, err := Read(b)
	require.NoError(t, err)
	assert.Equal(t, 32, n)

	n, err = Reader.Read(b)
	require.NoError(t, err)
	assert.Equal(t, 32, n)

	b, err = Bytes(1000)
	require.NoError(t, err)
	assert.Len(t, b, 1000)
	assert.NotEqual(t, make([]byte, 1000), b)

	_, err = Number(100)
	require.NoError(t, err)
}

func TestGlobalConcurrent(t *testing.T) {
	t.Parallel()

	var group errgroup.Group
	for range 32 {
		group.Go(func() error {
			for range 100 {
				if _, err := Bytes(64); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, group.Wait())
}

func TestNumberRange(t *testing.T) {
	t.Parallel()

	for _, limit := range []uint64{0, 1, 2, 9, 1<<32 + 1, 1<<63 + 1} {
		for range 100 {
			n, err := Number(limit)
			require.NoError(t, err)
			assert.LessOrEqual(t, n, limit)
		}
	}

	// The full range must not divide by zero.
	_, err := Number(^uint64(0))
	require.NoError(t, err)
}

func TestNumberRandomness(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip()
	}

	var subjects uint64 = 10
	var testSize uint64 = 10000

	results := make([]uint64, int(subjects))
	for range int(subjects * testSize) {
		n, err := Number(subjects - 1)
		require.NoError(t, err)
		results[int(n)]++
	}

	// Catch big mistakes in the number function, eg. massive % bias.
	lowerMargin := testSize - testSize/10
	upperMargin := testSize + testSize/10
	for subject, result := range results {
		if result < lowerMargin || result > upperMargin {
			t.Errorf("subject %d is outside of margins: %d", subject, result)
		}
	}
}
