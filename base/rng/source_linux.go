package rng

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

const osSourceName = "getrandom"

// osFill calls getrandom(2) until p is full. Large requests are returned in
// pieces by the kernel, so one logical raw call may loop.
func osFill(p []byte) error {
	for len(p) > 0 {
		n, err := unix.Getrandom(p, 0)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return fmt.Errorf("getrandom: %w", err)
		case n <= 0:
			return errors.New("getrandom: returned no data")
		}
		p = p[n:]
	}
	return nil
}
