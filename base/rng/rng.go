package rng

import (
	"fmt"
)

const (
	wordsPerSeed   = SeedSize / wordSize
	seedsPerBuffer = 16

	// DefaultBufferWords is the default seed source buffer size: 64 words,
	// or 512 bytes, which is sixteen seeds.
	DefaultBufferWords = wordsPerSeed * seedsPerBuffer

	// DefaultReseedThreshold is the default number of bytes a generator
	// produces before it reseeds.
	DefaultReseedThreshold uint64 = 1 << 16
)

// Config holds the construction time settings of a seed source and the
// generator built on top of it. Zero values select the defaults.
type Config struct {
	// BufferWords is the seed source buffer capacity in 64-bit words.
	BufferWords int `yaml:"buffer_words"`

	// ReseedThreshold is the number of bytes after which a generator reseeds.
	ReseedThreshold uint64 `yaml:"reseed_threshold"`

	// Stream selects the stream generator algorithm.
	// Possible values: "chacha20", "chacha8", "fortuna-aes", "fortuna-serpent".
	Stream string `yaml:"stream"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BufferWords:     DefaultBufferWords,
		ReseedThreshold: DefaultReseedThreshold,
		Stream:          StreamChaCha20,
	}
}

// WithDefaults returns a copy of c with all unset values set to the defaults.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.BufferWords == 0 {
		c.BufferWords = def.BufferWords
	}
	if c.ReseedThreshold == 0 {
		c.ReseedThreshold = def.ReseedThreshold
	}
	if c.Stream == "" {
		c.Stream = def.Stream
	}
	return c
}

// Validate checks the configuration, after applying the defaults.
func (c Config) Validate() error {
	c = c.WithDefaults()
	if c.BufferWords < 1 {
		return fmt.Errorf("%w: buffer needs at least one word, got %d", ErrInvalidConfig, c.BufferWords)
	}
	if _, err := StreamFactoryFor(c.Stream); err != nil {
		return err
	}
	return nil
}

// SeedSource is a shared buffering wrapper around a raw entropy source. It
// produces the same bytes as the raw source, but serves many small requests
// from the output of one raw call.
type SeedSource = Shared[*BlockCache]

// Generator is a shared reseeding stream generator.
type Generator = Shared[*Reseeding]

// NewSeedSource returns a new seed source over src with the given buffer
// capacity in words.
func NewSeedSource(src EntropySource, words int) *SeedSource {
	return Share(NewBlockCache(src, words))
}

// NewDefaultSeedSource returns a new seed source over the operating system
// with the default buffer capacity.
func NewDefaultSeedSource() *SeedSource {
	return NewSeedSource(OSSource{}, DefaultBufferWords)
}

// NewGenerator returns a new generator that is seeded and reseeded from
// seeder. The generator takes over the seeder handle, also on failure; pass
// a clone to keep using the seed source elsewhere.
func NewGenerator(seeder *SeedSource, cfg Config) (*Generator, error) {
	cfg = cfg.WithDefaults()
	newStream, err := StreamFactoryFor(cfg.Stream)
	if err != nil {
		_ = seeder.Release()
		return nil, err
	}
	r, err := NewReseeding(seeder, cfg.ReseedThreshold, newStream)
	if err != nil {
		_ = seeder.Release()
		return nil, err
	}
	return Share(r), nil
}

// NewDefaultGenerator returns a new generator with the default configuration.
func NewDefaultGenerator(seeder *SeedSource) (*Generator, error) {
	return NewGenerator(seeder, DefaultConfig())
}
