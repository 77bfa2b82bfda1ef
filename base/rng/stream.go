package rng

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/aead/serpent"
	"github.com/seehuhn/fortuna"
	"golang.org/x/crypto/chacha20"
)

// Stream is a deterministic generator that produces its output from a seed.
type Stream interface {
	// FillBytes overwrites p with the next len(p) bytes of output.
	FillBytes(p []byte)
}

// StreamFactory creates a stream generator from a seed.
type StreamFactory func(seed [SeedSize]byte) (Stream, error)

// Stream algorithm names.
const (
	StreamChaCha20       = "chacha20"
	StreamChaCha8        = "chacha8"
	StreamFortunaAES     = "fortuna-aes"
	StreamFortunaSerpent = "fortuna-serpent"
)

// StreamFactoryFor returns the stream factory for the given algorithm name.
// An empty name selects ChaCha20.
func StreamFactoryFor(name string) (StreamFactory, error) {
	switch name {
	case "", StreamChaCha20:
		return NewChaCha20Stream, nil
	case StreamChaCha8:
		return NewChaCha8Stream, nil
	case StreamFortunaAES:
		return newFortunaStream(aes.NewCipher), nil
	case StreamFortunaSerpent:
		return newFortunaStream(serpent.NewCipher), nil
	default:
		return nil, fmt.Errorf("%w: unknown or unsupported stream generator: %s", ErrInvalidConfig, name)
	}
}

type chacha20Stream struct {
	c *chacha20.Cipher
}

// NewChaCha20Stream returns the ChaCha20 keystream for the seed as key and an
// all-zero nonce. One seed yields at most 256 GiB; keep the reseed threshold
// below that.
func NewChaCha20Stream(seed [SeedSize]byte) (Stream, error) {
	var nonce [chacha20.NonceSize]byte
	c, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &chacha20Stream{c: c}, nil
}

func (s *chacha20Stream) FillBytes(p []byte) {
	clear(p)
	s.c.XORKeyStream(p, p)
}

type chacha8Stream struct {
	c *rand.ChaCha8
}

// NewChaCha8Stream returns the ChaCha8 generator of math/rand/v2.
func NewChaCha8Stream(seed [SeedSize]byte) (Stream, error) {
	return &chacha8Stream{c: rand.NewChaCha8(seed)}, nil
}

func (s *chacha8Stream) FillBytes(p []byte) {
	_, _ = s.c.Read(p) // ChaCha8.Read always fills p and never fails.
}

// fortunaChunk bounds a single PseudoRandomData request. Fortuna rekeys
// between requests.
const fortunaChunk = 1 << 20

type fortunaStream struct {
	gen *fortuna.Generator
}

func newFortunaStream(newCipher func(key []byte) (cipher.Block, error)) StreamFactory {
	return func(seed [SeedSize]byte) (Stream, error) {
		gen := fortuna.NewGenerator(newCipher)
		if gen == nil {
			return nil, errors.New("failed to initialize fortuna generator")
		}
		// NewGenerator mixes system entropy into the key. Start over from the
		// zero key so that the output depends on the seed only.
		gen.Seed(0)
		gen.Reseed(seed[:])
		return &fortunaStream{gen: gen}, nil
	}
}

func (s *fortunaStream) FillBytes(p []byte) {
	for len(p) > 0 {
		n := min(len(p), fortunaChunk)
		copy(p, s.gen.PseudoRandomData(uint(n)))
		p = p[n:]
	}
}
