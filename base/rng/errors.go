package rng

import (
	"errors"
	"fmt"

	"github.com/safing/bufrng/base/log"
)

var (
	// ErrEntropySource is matched by every error a raw entropy source produced.
	// Use errors.Is to check for it.
	ErrEntropySource = errors.New("entropy source failure")

	// ErrAlreadyBorrowed is the panic value when a shared handle is accessed
	// while an operation on the same handle is still in progress.
	ErrAlreadyBorrowed = errors.New("rng: shared handle already borrowed")

	// ErrReleased is the panic value when a released handle is used.
	ErrReleased = errors.New("rng: shared handle already released")

	// ErrInvalidConfig is returned for unusable configuration values.
	ErrInvalidConfig = errors.New("rng: invalid configuration")
)

// EntropyError is returned when the raw entropy source fails to produce
// randomness. Every layer returns it unchanged.
type EntropyError struct {
	Err error
}

func (e *EntropyError) Error() string {
	return fmt.Sprintf("rng: entropy source failed: %s", e.Err)
}

// Unwrap returns the error of the raw source.
func (e *EntropyError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrEntropySource) work.
func (e *EntropyError) Is(target error) bool {
	return target == ErrEntropySource //nolint:errorlint
}

// asEntropyError wraps err unless it already is an *EntropyError.
func asEntropyError(err error) error {
	if err == nil {
		return nil
	}
	var ee *EntropyError
	if errors.As(err, &ee) {
		return err
	}
	entropyFailures.Inc()
	log.Warningf("rng: entropy source failed: %s", err)
	return &EntropyError{Err: err}
}

// must turns an error of a fallible call into a panic. The infallible entry
// points require the raw source to be always available.
func must(err error) {
	if err != nil {
		log.Criticalf("rng: aborting infallible request: %s", err)
		panic(err)
	}
}
