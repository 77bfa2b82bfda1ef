package rng

import (
	"io"

	"github.com/tevino/abool"
)

// Shared is a reference counted handle to one generator. All clones of a
// handle draw from the same state: one buffer and one cursor, never a copy.
//
// Shared handles must only ever be used from a single goroutine. There is no
// locking. Every operation borrows the generator for its duration, and
// borrowing it again while it is borrowed panics with ErrAlreadyBorrowed.
// This catches re-entrant use. It may catch cross-goroutine use, but that is
// not something to rely on.
type Shared[S Source] struct {
	cell *sharedCell[S]
}

type sharedCell[S Source] struct {
	inner    S
	borrowed *abool.AtomicBool
	refs     int
}

// Share wraps inner in a new handle with one reference.
func Share[S Source](inner S) *Shared[S] {
	return &Shared[S]{
		cell: &sharedCell[S]{
			inner:    inner,
			borrowed: abool.New(),
			refs:     1,
		},
	}
}

// Clone returns a new handle to the same generator state.
func (s *Shared[S]) Clone() *Shared[S] {
	c := s.liveCell()
	c.refs++
	return &Shared[S]{cell: c}
}

// Refs returns the number of live handles to the generator.
func (s *Shared[S]) Refs() int {
	return s.liveCell().refs
}

// Release drops this handle. Releasing the last handle closes the generator,
// if it can be closed, and returns the close error. The handle must not be
// used afterwards.
func (s *Shared[S]) Release() error {
	c := s.liveCell()
	if c.borrowed.IsSet() {
		panic(ErrAlreadyBorrowed)
	}
	s.cell = nil

	c.refs--
	if c.refs > 0 {
		return nil
	}
	if closer, ok := any(c.inner).(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// With gives fn exclusive access to the generator for the duration of the
// call. fn must not use any handle to the same generator.
func (s *Shared[S]) With(fn func(inner S)) {
	inner := s.borrow()
	defer s.unborrow()
	fn(inner)
}

func (s *Shared[S]) liveCell() *sharedCell[S] {
	if s.cell == nil {
		panic(ErrReleased)
	}
	return s.cell
}

func (s *Shared[S]) borrow() S {
	c := s.liveCell()
	if !c.borrowed.SetToIf(false, true) {
		panic(ErrAlreadyBorrowed)
	}
	return c.inner
}

func (s *Shared[S]) unborrow() {
	s.cell.borrowed.UnSet()
}

// Uint32 returns the next 32 random bits of the shared generator.
func (s *Shared[S]) Uint32() uint32 {
	inner := s.borrow()
	defer s.unborrow()
	return inner.Uint32()
}

// Uint64 returns the next 64 random bits of the shared generator.
func (s *Shared[S]) Uint64() uint64 {
	inner := s.borrow()
	defer s.unborrow()
	return inner.Uint64()
}

// FillBytes fills p from the shared generator. It panics if the entropy
// source fails.
func (s *Shared[S]) FillBytes(p []byte) {
	inner := s.borrow()
	defer s.unborrow()
	inner.FillBytes(p)
}

// TryFillBytes fills p from the shared generator.
func (s *Shared[S]) TryFillBytes(p []byte) error {
	inner := s.borrow()
	defer s.unborrow()
	return inner.TryFillBytes(p)
}

// Read implements io.Reader. It always fills p completely or fails.
func (s *Shared[S]) Read(p []byte) (int, error) {
	if err := s.TryFillBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
