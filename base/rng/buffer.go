package rng

import (
	"fmt"
	"unsafe"
)

const wordSize = 8

// Buffer is a fixed number of 64-bit words that can also be viewed as bytes.
// The capacity is set at construction and never changes.
type Buffer struct {
	words []uint64
}

// NewBuffer returns an all-zero buffer of the given number of words.
// It panics if words is smaller than one.
func NewBuffer(words int) *Buffer {
	if words < 1 {
		panic(fmt.Sprintf("rng: buffer needs at least one word, got %d", words))
	}
	return &Buffer{words: make([]uint64, words)}
}

// Len returns the capacity in words.
func (b *Buffer) Len() int {
	return len(b.words)
}

// Size returns the capacity in bytes.
func (b *Buffer) Size() int {
	return len(b.words) * wordSize
}

// Words returns the word view of the buffer.
func (b *Buffer) Words() []uint64 {
	return b.words
}

// Bytes returns a byte view over the same memory as Words. Writing to it
// changes the words in native byte order.
func (b *Buffer) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.words[0])), len(b.words)*wordSize)
}

// bufferCore owns the raw entropy source and fills whole buffers from it.
type bufferCore struct {
	src EntropySource
}

// generate overwrites buf with exactly one raw source call.
func (c bufferCore) generate(buf *Buffer) error {
	rawCalls.Inc()
	refills.Inc()
	return asEntropyError(c.src.TryFillBytes(buf.Bytes()))
}

// direct fills p with exactly one raw source call, bypassing any buffer.
func (c bufferCore) direct(p []byte) error {
	rawCalls.Inc()
	bypasses.Inc()
	return asEntropyError(c.src.TryFillBytes(p))
}
