//go:build !linux

package rng

import (
	"crypto/rand"
	"fmt"
	"io"
)

const osSourceName = "crypto/rand"

func osFill(p []byte) error {
	if _, err := io.ReadFull(rand.Reader, p); err != nil {
		return fmt.Errorf("could not read entropy from os: %w", err)
	}
	return nil
}
