package rng

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
)

var (
	// Reader provides a global instance to read from the default pool.
	Reader io.Reader = reader{}

	defaultPool     *Pool
	defaultPoolErr  error
	defaultPoolOnce sync.Once
)

// reader provides an io.Reader interface.
type reader struct{}

func getDefaultPool() (*Pool, error) {
	defaultPoolOnce.Do(func() {
		defaultPool, defaultPoolErr = NewPool(OSSource{}, DefaultConfig(), 0)
	})
	return defaultPool, defaultPoolErr
}

// Read reads random bytes into the supplied byte slice. It is safe for
// concurrent use and draws from the generator of a pooled Local.
func Read(b []byte) (n int, err error) {
	pool, err := getDefaultPool()
	if err != nil {
		return 0, err
	}

	err = pool.Do(context.Background(), func(l *Local) error {
		g, err := l.TryGenerator()
		if err != nil {
			return err
		}
		defer g.Release() //nolint:errcheck

		return g.TryFillBytes(b)
	})
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Read implements the io.Reader interface.
func (r reader) Read(b []byte) (n int, err error) {
	return Read(b)
}

// Bytes allocates a new byte slice of given length and fills it with random data.
func Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Number returns a random number from 0 to (incl.) max.
func Number(max uint64) (uint64, error) {
	var b [8]byte

	n := max + 1
	if n == 0 {
		// Full range.
		if _, err := Read(b[:]); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint64(b[:]), nil
	}

	// Reject the low values that would make the modulo biased.
	limit := -n % n
	for {
		if _, err := Read(b[:]); err != nil {
			return 0, err
		}
		candidate := binary.LittleEndian.Uint64(b[:])
		if candidate >= limit {
			return candidate % n, nil
		}
	}
}
