// Package decoder defines the pull-based frame-source capability the
// engine's clips decode through. Concrete decoders (pkg/decoder/wav) sit
// behind this narrow interface so the producer never depends on a
// particular container or codec.
package decoder

import (
	"errors"
	"io"
	"time"
)

// Block is one contiguous chunk of interleaved float32 samples, annotated
// with the stream's format. It is transient: callers must not retain it
// across calls to Decode, since decoders are free to reuse the backing
// array.
type Block struct {
	Samples    []float32
	SampleRate int
	Channels   int
}

// Empty reports whether the block carries no samples.
func (b Block) Empty() bool { return len(b.Samples) == 0 }

// ErrResetRequired signals that the underlying stream needs a resync
// before decoding can continue. The caller should abort the current
// refill iteration and retry decoding on the next one; it is not a
// user-visible error.
var ErrResetRequired = errors.New("decoder: reset required")

// Decoder is the capability a Clip owns: pull one block of interleaved
// float32 samples at a time, and seek to an absolute position before
// decoding starts.
//
// A Decoder is not safe for concurrent use. Each Clip owns exactly one
// Decoder, used only by the producer thread.
type Decoder interface {
	// Decode returns the next interleaved float32 block. It returns
	// io.EOF when the stream is exhausted, ErrResetRequired when the
	// caller should abort this refill iteration and retry next time,
	// or any other error as fatal.
	Decode() (Block, error)

	// Seek positions the stream at the given offset in accurate mode.
	// Implementations may only guarantee this is called once, before
	// the first Decode call.
	Seek(at time.Duration) error

	// Close releases resources held by the decoder.
	Close() error
}

// IsEndOfStream reports whether err signals ordinary stream exhaustion,
// as opposed to a recoverable reset or a fatal error.
func IsEndOfStream(err error) bool {
	return errors.Is(err, io.EOF)
}
