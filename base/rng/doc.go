// Package rng provides a buffered seed source and a reseeding generator.
//
// A raw entropy source, by default the operating system, is expensive per
// call. The seed source (a BlockCache behind a Shared handle) fetches a whole
// buffer per raw call and serves small requests from it. Requests at least as
// large as the buffer go straight to the raw source.
//
// The generator is a fast stream generator (ChaCha20 by default, see
// StreamFactoryFor) that reseeds itself with 32 bytes from the seed source
// after every 64 KiB of output.
//
// Shared handles are not safe for concurrent use. Every goroutine gets its
// own seed source and generator through a Local, either bound to a context
// with NewContext or acquired from a Pool. The package level Read, Bytes,
// Number and Reader use a default Pool and are safe for concurrent use.
package rng
