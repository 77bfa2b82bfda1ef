package rng

import (
	"io"
)

// Source is the surface shared by every generator type in this package.
type Source interface {
	Uint32() uint32
	Uint64() uint64

	// FillBytes fills p completely. It panics if the entropy source fails.
	FillBytes(p []byte)

	// TryFillBytes fills p completely or returns an *EntropyError.
	TryFillBytes(p []byte) error
}

// EntropySource is a raw, comparatively expensive provider of randomness,
// such as an operating system call. Implementations must fill p completely
// or return an error.
type EntropySource interface {
	TryFillBytes(p []byte) error
}

// OSSource reads from the operating system's randomness facility.
// It is safe for concurrent use.
type OSSource struct{}

// TryFillBytes fills p from the operating system.
func (OSSource) TryFillBytes(p []byte) error {
	return asEntropyError(osFill(p))
}

// String returns the name of the operating system facility.
func (OSSource) String() string {
	return osSourceName
}

// unowned hides the io.Closer of a source that is shared with others, so
// that releasing one cache over it does not close it for everyone.
type unowned struct {
	EntropySource
}

// ReaderSource adapts an io.Reader as an entropy source.
type ReaderSource struct {
	r io.Reader
}

// NewReaderSource returns an entropy source that reads from r.
// The source is closed with r, if r is an io.Closer.
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{r: r}
}

// TryFillBytes fills p using io.ReadFull.
func (rs *ReaderSource) TryFillBytes(p []byte) error {
	_, err := io.ReadFull(rs.r, p)
	return asEntropyError(err)
}

// Close closes the underlying reader, if it can be closed.
func (rs *ReaderSource) Close() error {
	if c, ok := rs.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
