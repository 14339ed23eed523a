// Package engine wires the decoder, clip, ring buffer, producer, player,
// and device packages into a runnable playback session, and drives its
// main control loop.
package engine

import "time"

// ClipSpec is one clip's construction parameters, as parsed from the CLI.
type ClipSpec struct {
	Path  string
	Start time.Duration
	End   time.Duration
}

// Config carries the compiled defaults and per-run overrides spec.md §6
// names: sample rate, channel count, lookahead (buffer depth), the clip
// list, the output device, and whether a terminal visualizer is attached.
type Config struct {
	Clips       []ClipSpec
	DeviceIndex int
	SampleRate  int
	Channels    int
	Lookahead   time.Duration
	Visualize   bool
}

// DefaultConfig returns the compiled defaults from spec.md §6:
// 44100 Hz, stereo, 30 second lookahead.
func DefaultConfig() Config {
	return Config{
		DeviceIndex: 1,
		SampleRate:  44100,
		Channels:    2,
		Lookahead:   30 * time.Second,
	}
}

// capacity, highWater, and lowWater derive the ring buffer's thresholds
// from cfg, matching spec.md §3's capacity = sample_rate * channels *
// lookahead_seconds, high_water = capacity - 1024, low_water = capacity / 2.
func (cfg Config) capacity() uint64 {
	return uint64(cfg.SampleRate) * uint64(cfg.Channels) * uint64(cfg.Lookahead.Seconds())
}

func (cfg Config) highWater() uint64 {
	c := cfg.capacity()
	if c <= 1024 {
		return 0
	}
	return c - 1024
}

func (cfg Config) lowWater() uint64 {
	return cfg.capacity() / 2
}
