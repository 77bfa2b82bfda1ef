package rng

import (
	"encoding/binary"
	"fmt"

	"github.com/safing/bufrng/base/log"
)

// SeedSize is the number of bytes needed to seed a stream generator.
const SeedSize = 32

// Reseeding is a fast deterministic stream generator that replaces its own
// state with a fresh seed from its seed source once it has produced at least
// threshold bytes since the last reseed.
//
// The reseed check happens at the start of every call that produces output,
// so the call that first finds the threshold reached pulls exactly one new
// seed and then serves its request from the new state.
//
// A Reseeding is not safe for concurrent use.
type Reseeding struct {
	stream    Stream
	newStream StreamFactory
	seeder    Source

	bytesSinceReseed uint64
	threshold        uint64
}

// NewReseeding pulls an initial seed from seeder and returns a generator that
// reseeds from it after every threshold bytes of output. The generator takes
// over seeder and releases it on Close, if it is a shared handle.
func NewReseeding(seeder Source, threshold uint64, newStream StreamFactory) (*Reseeding, error) {
	if threshold == 0 {
		return nil, fmt.Errorf("%w: reseed threshold must be at least one byte", ErrInvalidConfig)
	}
	if newStream == nil {
		newStream = NewChaCha20Stream
	}

	r := &Reseeding{
		newStream: newStream,
		seeder:    seeder,
		threshold: threshold,
	}
	if err := r.Reseed(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reseed replaces the stream state with one built from 32 fresh bytes of the
// seed source and resets the output counter.
func (r *Reseeding) Reseed() error {
	var seed [SeedSize]byte
	defer clear(seed[:])

	if err := r.seeder.TryFillBytes(seed[:]); err != nil {
		return err
	}
	stream, err := r.newStream(seed)
	if err != nil {
		return fmt.Errorf("rng: failed to create stream generator: %w", err)
	}

	r.stream = stream
	r.bytesSinceReseed = 0
	reseeds.Inc()
	log.Tracef("rng: reseeded stream generator, next reseed after %d bytes", r.threshold)
	return nil
}

// BytesSinceReseed returns the number of bytes produced from the current seed.
func (r *Reseeding) BytesSinceReseed() uint64 {
	return r.bytesSinceReseed
}

// Threshold returns the number of bytes after which the generator reseeds.
func (r *Reseeding) Threshold() uint64 {
	return r.threshold
}

func (r *Reseeding) produce(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if r.bytesSinceReseed >= r.threshold {
		if err := r.Reseed(); err != nil {
			return err
		}
	}
	r.stream.FillBytes(p)
	r.bytesSinceReseed += uint64(len(p))
	return nil
}

// Uint32 returns 4 bytes of output as a little endian number.
func (r *Reseeding) Uint32() uint32 {
	var b [4]byte
	must(r.produce(b[:]))
	return binary.LittleEndian.Uint32(b[:])
}

// Uint64 returns 8 bytes of output as a little endian number.
func (r *Reseeding) Uint64() uint64 {
	var b [8]byte
	must(r.produce(b[:]))
	return binary.LittleEndian.Uint64(b[:])
}

// FillBytes fills p. It panics if a due reseed fails.
func (r *Reseeding) FillBytes(p []byte) {
	must(r.produce(p))
}

// TryFillBytes fills p. It returns the seed source's error if a due reseed
// fails; the old state is kept and the reseed is retried on the next call.
func (r *Reseeding) TryFillBytes(p []byte) error {
	return r.produce(p)
}

// Read implements io.Reader. It always fills p completely or fails.
func (r *Reseeding) Read(p []byte) (int, error) {
	if err := r.produce(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close releases the seed source, if it is a shared handle.
func (r *Reseeding) Close() error {
	if rel, ok := r.seeder.(interface{ Release() error }); ok {
		return rel.Release()
	}
	return nil
}

var _ Source = (*Reseeding)(nil)
