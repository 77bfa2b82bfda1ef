// Package rngtest provides predictable entropy sources for testing.
package rngtest

import (
	"errors"
	"sync"
)

// ErrExhausted is returned by a FailingSource once it has no more
// successful calls left.
var ErrExhausted = errors.New("test entropy source exhausted")

// CounterSource emits the byte sequence 0, 1, 2, ..., 255, 0, 1, ... across
// all calls and records every call. It is safe for concurrent use.
type CounterSource struct {
	mu     sync.Mutex
	offset int
	calls  []int
	closed bool
}

// NewCounterSource returns a new counter source starting at zero.
func NewCounterSource() *CounterSource {
	return &CounterSource{}
}

// TryFillBytes fills p with the next bytes of the sequence.
func (s *CounterSource) TryFillBytes(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, len(p))
	for i := range p {
		p[i] = byte(s.offset)
		s.offset++
	}
	return nil
}

// Calls returns the number of fill calls so far.
func (s *CounterSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Requests returns the requested length of every fill call so far.
func (s *CounterSource) Requests() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.calls...)
}

// Close marks the source as closed.
func (s *CounterSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *CounterSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Sequence returns n bytes of the counter sequence, starting at offset.
// This is what an unbuffered CounterSource yields for n requested bytes.
func Sequence(offset, n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(offset + i)
	}
	return b
}

// FailingSource behaves like a CounterSource for a number of calls and fails
// every call after that.
type FailingSource struct {
	CounterSource

	mu        sync.Mutex
	successes int
	Err       error
}

// NewFailingSource returns a source that succeeds successes times.
func NewFailingSource(successes int) *FailingSource {
	return &FailingSource{
		successes: successes,
		Err:       ErrExhausted,
	}
}

// TryFillBytes fills p or fails once the successful calls are used up.
func (s *FailingSource) TryFillBytes(p []byte) error {
	s.mu.Lock()
	if s.successes <= 0 {
		s.mu.Unlock()
		return s.Err
	}
	s.successes--
	s.mu.Unlock()

	return s.CounterSource.TryFillBytes(p)
}

// HookSource calls OnFill before filling from its counter sequence. Tests use
// it to call back into the consumer from within a raw source call.
type HookSource struct {
	CounterSource

	OnFill func()
}

// TryFillBytes calls OnFill and then fills p.
func (s *HookSource) TryFillBytes(p []byte) error {
	if s.OnFill != nil {
		s.OnFill()
	}
	return s.CounterSource.TryFillBytes(p)
}
