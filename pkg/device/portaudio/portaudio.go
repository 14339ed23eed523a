// Package portaudio adapts github.com/drgolem/go-portaudio/portaudio's
// callback-mode stream to the engine's device.Factory contract.
//
// The observed go-portaudio API only exposes integer PCM sample formats
// (16/24/32-bit), never float32, so this adapter opens the stream in
// 16-bit mode and converts the engine's native []float32 output buffers
// to int16 at the callback boundary, mirroring the scale-by-full-scale
// conversion pkg/decoder/wav already performs in the other direction.
package portaudio

import (
	"encoding/binary"
	"fmt"
	"math"

	pa "github.com/drgolem/go-portaudio/portaudio"

	"github.com/cravesound/craveengine/pkg/device"
)

// FramesPerBuffer is the device callback period, in sample frames.
const FramesPerBuffer = 512

// Factory opens streams against a fixed PortAudio output device index.
// Callers must have already called pa.Initialize (and defer
// pa.Terminate) before using a Factory, matching the teacher's cmd-level
// Initialize/Terminate bracketing.
type Factory struct {
	DeviceIndex int
}

// Open implements device.Factory.
func (f Factory) Open(cfg device.Config, fill device.FillFunc, onError device.ErrorFunc) (device.Stream, error) {
	s := &stream{
		channels: cfg.Channels,
		fill:     fill,
		onError:  onError,
		scratch:  make([]float32, FramesPerBuffer*cfg.Channels),
	}

	s.pa = &pa.PaStream{
		OutputParameters: &pa.PaStreamParameters{
			DeviceIndex:  f.DeviceIndex,
			ChannelCount: cfg.Channels,
			SampleFormat: pa.SampleFmtInt16,
		},
		SampleRate: float64(cfg.SampleRate),
	}

	if err := s.pa.OpenCallback(FramesPerBuffer, s.audioCallback); err != nil {
		return nil, fmt.Errorf("portaudio: open stream: %w", err)
	}

	return s, nil
}

type stream struct {
	pa       *pa.PaStream
	channels int
	fill     device.FillFunc
	onError  device.ErrorFunc
	scratch  []float32
}

// Play implements device.Stream.
func (s *stream) Play() error {
	if err := s.pa.StartStream(); err != nil {
		return fmt.Errorf("portaudio: start stream: %w", err)
	}
	return nil
}

// Close implements device.Stream. Callback-mode streams are torn down
// with CloseCallback, not Close, to release the registered callback
// (Close is only paired with the blocking-mode Open path).
func (s *stream) Close() error {
	if err := s.pa.StopStream(); err != nil {
		return fmt.Errorf("portaudio: stop stream: %w", err)
	}
	return s.pa.CloseCallback()
}

// audioCallback has the engine's Player.FillCallback fill a []float32
// scratch buffer, then converts it into the device's int16 byte buffer.
// The input buffer is not read.
func (s *stream) audioCallback(
	input, output []byte,
	frameCount uint,
	timeInfo *pa.StreamCallbackTimeInfo,
	statusFlags pa.StreamCallbackFlags,
) pa.StreamCallbackResult {
	samples := int(frameCount) * s.channels
	if cap(s.scratch) < samples {
		s.scratch = make([]float32, samples)
	}
	buf := s.scratch[:samples]

	s.fill(buf)

	if len(output) < samples*2 {
		s.onError(fmt.Errorf("portaudio: output buffer too small for %d samples", samples))
		return pa.Complete
	}

	for i, v := range buf {
		binary.LittleEndian.PutUint16(output[i*2:], floatToInt16(v))
	}

	return pa.Continue
}

func floatToInt16(v float32) uint16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return uint16(int16(math.Round(float64(v) * 32767)))
}
