// Package clip pairs a decoder with its scheduled start/end offsets on the
// playback timeline.
package clip

import (
	"fmt"
	"io"
	"time"

	"github.com/cravesound/craveengine/pkg/decoder"
	"github.com/cravesound/craveengine/pkg/decoder/wav"
)

// Clip is a thin aggregate over a decoder and its timeline window.
//
// Lifecycle is strictly sequential: New, then many Decode calls, then the
// clip is dropped once the inner decoder reports end-of-stream. A Clip is
// owned exclusively by the producer thread once constructed.
type Clip struct {
	Path        string
	StartOffset time.Duration
	EndOffset   time.Duration // zero means play to natural end

	dec           decoder.Decoder
	sampleRate    int
	channels      int
	framesPlayed  int64 // frames decoded since StartOffset
	framesAllowed int64 // frame budget; applies only when EndOffset is non-zero
}

// New opens path, builds a decoder for it, seeks to start, and records the
// clip's timeline window. It returns an error if start > end (when end is
// non-zero), or if the file cannot be opened and seeked.
func New(path string, start, end time.Duration) (*Clip, error) {
	if end != 0 && start > end {
		return nil, fmt.Errorf("clip %s: start offset %v is after end offset %v", path, start, end)
	}

	d, err := wav.Open(path)
	if err != nil {
		return nil, err
	}

	if err := d.Seek(start); err != nil {
		d.Close()
		return nil, fmt.Errorf("clip %s: seek to %v: %w", path, start, err)
	}

	rate, channels := d.Format()

	c := &Clip{
		Path:        path,
		StartOffset: start,
		EndOffset:   end,
		dec:         d,
		sampleRate:  rate,
		channels:    channels,
	}

	if end != 0 {
		c.framesAllowed = int64((end - start).Seconds() * float64(rate))
	}

	return c, nil
}

// Decode forwards to the inner decoder, truncating the returned block (and
// ultimately reporting io.EOF) once the clip's scheduled EndOffset has been
// reached.
func (c *Clip) Decode() (decoder.Block, error) {
	if c.EndOffset != 0 && c.framesPlayed >= c.framesAllowed {
		return decoder.Block{}, io.EOF
	}

	block, err := c.dec.Decode()
	if err != nil {
		return decoder.Block{}, err
	}

	if c.channels == 0 {
		return block, nil
	}

	frames := int64(len(block.Samples) / c.channels)
	if c.EndOffset != 0 && c.framesPlayed+frames > c.framesAllowed {
		frames = c.framesAllowed - c.framesPlayed
		block.Samples = block.Samples[:frames*int64(c.channels)]
	}
	c.framesPlayed += frames

	return block, nil
}

// Close releases the underlying decoder's resources.
func (c *Clip) Close() error {
	return c.dec.Close()
}
