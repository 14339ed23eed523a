// Package wav implements decoder.Decoder over github.com/youpy/go-wav,
// converting its per-sample PCM reads into the interleaved float32 blocks
// the engine's producer expects.
package wav

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/youpy/go-wav"

	"github.com/cravesound/craveengine/pkg/decoder"
)

// blockFrames is the number of sample frames decoded per Decode call.
const blockFrames = 4096

// Decoder wraps a go-wav reader, producing interleaved float32 blocks
// scaled to [-1, 1].
//
// Decoder is not safe for concurrent use; it is owned by exactly one
// clip and driven only by the producer thread.
type Decoder struct {
	file      *os.File
	reader    *wav.Reader
	rate      int
	channels  int
	bps       int
	fullScale float64
}

// Open opens a WAV file for decoding, validating that it is uncompressed
// PCM.
func Open(path string) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wav: open %s: %w", path, err)
	}

	reader := wav.NewReader(f)
	format, err := reader.Format()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("wav: read format of %s: %w", path, err)
	}

	if format.AudioFormat != wav.AudioFormatPCM {
		f.Close()
		return nil, fmt.Errorf("wav: unsupported audio format %d in %s (only PCM is supported)", format.AudioFormat, path)
	}

	bps := int(format.BitsPerSample)
	d := &Decoder{
		file:      f,
		reader:    reader,
		rate:      int(format.SampleRate),
		channels:  int(format.NumChannels),
		bps:       bps,
		fullScale: float64(int64(1) << uint(bps-1)),
	}

	return d, nil
}

// Format returns the stream's sample rate and channel count.
func (d *Decoder) Format() (rate, channels int) {
	return d.rate, d.channels
}

// Decode returns the next interleaved float32 block, up to blockFrames
// sample frames. It returns io.EOF once the file is exhausted.
func (d *Decoder) Decode() (decoder.Block, error) {
	samples, err := d.reader.ReadSamples(blockFrames)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return decoder.Block{}, io.EOF
		}
		return decoder.Block{}, fmt.Errorf("wav: decode: %w", err)
	}
	if len(samples) == 0 {
		return decoder.Block{}, io.EOF
	}

	out := make([]float32, 0, len(samples)*d.channels)
	for _, s := range samples {
		for ch := 0; ch < d.channels; ch++ {
			if ch >= len(s.Values) {
				out = append(out, 0)
				continue
			}
			out = append(out, float32(float64(s.Values[ch])/d.fullScale))
		}
	}

	return decoder.Block{
		Samples:    out,
		SampleRate: d.rate,
		Channels:   d.channels,
	}, nil
}

// Seek positions the stream at the given duration using accurate-mode
// decode-and-discard: go-wav exposes no native seek, so the target
// sample-frame offset is reached by reading and discarding samples. This
// is only ever called once, at clip construction, off the real-time
// path.
func (d *Decoder) Seek(at time.Duration) error {
	if at <= 0 {
		return nil
	}

	targetFrames := int(at.Seconds() * float64(d.rate))
	discarded := 0
	for discarded < targetFrames {
		want := targetFrames - discarded
		if want > blockFrames {
			want = blockFrames
		}
		samples, err := d.reader.ReadSamples(uint32(want))
		if err != nil || len(samples) == 0 {
			// Seeking past end of stream: leave the decoder positioned
			// at EOF, the next Decode call will report it.
			return nil
		}
		discarded += len(samples)
	}

	return nil
}

// Close closes the underlying file.
func (d *Decoder) Close() error {
	if d.file == nil {
		return nil
	}
	return d.file.Close()
}
