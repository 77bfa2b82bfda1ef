package rng

import (
	"io"
)

// BlockCache serves random words and bytes from a buffer that is refilled
// from the raw entropy source with one call whenever it runs empty.
//
// Requests of at least the buffer size in bytes skip the buffer and go
// directly to the raw source, leaving the buffered words for later requests.
//
// A BlockCache is not safe for concurrent use. Wrap it with Share to use it
// from multiple places within one goroutine.
type BlockCache struct {
	core bufferCore
	buf  *Buffer

	// cursor is the index of the next unused word. cursor == buf.Len() means
	// the buffer is used up.
	cursor int
	// spare is the number of unread trailing bytes of the word at cursor-1.
	// Byte requests continue there, word requests skip them.
	spare int

	half    uint32
	hasHalf bool
}

// NewBlockCache returns a cache over src holding the given number of words.
// The cache starts empty: the first request triggers the first refill.
func NewBlockCache(src EntropySource, words int) *BlockCache {
	buf := NewBuffer(words)
	return &BlockCache{
		core:   bufferCore{src: src},
		buf:    buf,
		cursor: buf.Len(),
	}
}

// Capacity returns the buffer size in bytes. Byte requests of at least this
// size bypass the buffer.
func (c *BlockCache) Capacity() int {
	return c.buf.Size()
}

// Index returns the word cursor, in [0, words].
func (c *BlockCache) Index() int {
	return c.cursor
}

// Reset marks the buffer as used up, so that the next request refills it.
func (c *BlockCache) Reset() {
	c.cursor = c.buf.Len()
	c.spare = 0
	c.hasHalf = false
}

func (c *BlockCache) refill() error {
	if err := c.core.generate(c.buf); err != nil {
		// The buffer may be half written now. It stays marked as used up.
		c.Reset()
		return err
	}
	c.cursor = 0
	c.spare = 0
	return nil
}

// TryNextWord returns the next buffered word, refilling first if needed.
func (c *BlockCache) TryNextWord() (uint64, error) {
	c.hasHalf = false
	c.spare = 0

	if c.cursor >= c.buf.Len() {
		if err := c.refill(); err != nil {
			return 0, err
		}
	}
	w := c.buf.words[c.cursor]
	c.cursor++
	return w, nil
}

// NextWord returns the next buffered word. It panics if a needed refill fails.
func (c *BlockCache) NextWord() uint64 {
	w, err := c.TryNextWord()
	must(err)
	return w
}

// Uint64 returns the next buffered word.
func (c *BlockCache) Uint64() uint64 {
	return c.NextWord()
}

// Uint32 returns the low half of a fresh word and keeps the high half for
// the following Uint32 call.
func (c *BlockCache) Uint32() uint32 {
	if c.hasHalf {
		c.hasHalf = false
		return c.half
	}
	w := c.NextWord()
	c.half = uint32(w >> 32)
	c.hasHalf = true
	return uint32(w)
}

// FillBytes fills p. It panics if the entropy source fails.
func (c *BlockCache) FillBytes(p []byte) {
	must(c.TryFillBytes(p))
}

// TryFillBytes fills p. Requests smaller than the buffer are served from the
// buffer, larger ones directly from the raw source in a single call.
func (c *BlockCache) TryFillBytes(p []byte) error {
	switch {
	case len(p) == 0:
		return nil
	case len(p) >= c.buf.Size():
		return c.core.direct(p)
	}

	c.hasHalf = false
	raw := c.buf.Bytes()
	for len(p) > 0 {
		// Finish a partially read word first.
		if c.spare > 0 {
			end := c.cursor * wordSize
			n := copy(p, raw[end-c.spare:end])
			c.spare -= n
			p = p[n:]
			continue
		}

		if c.cursor >= c.buf.Len() {
			if err := c.refill(); err != nil {
				return err
			}
		}

		n := copy(p, raw[c.cursor*wordSize:])
		used := (n + wordSize - 1) / wordSize
		c.cursor += used
		c.spare = used*wordSize - n
		p = p[n:]
	}
	return nil
}

// Read implements io.Reader. It always fills p completely or fails.
func (c *BlockCache) Read(p []byte) (int, error) {
	if err := c.TryFillBytes(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the raw entropy source, if it can be closed.
func (c *BlockCache) Close() error {
	c.Reset()
	if closer, ok := c.core.src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

var _ Source = (*BlockCache)(nil)
