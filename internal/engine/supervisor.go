package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cravesound/craveengine/internal/visualizer"
	"github.com/cravesound/craveengine/pkg/clip"
	"github.com/cravesound/craveengine/pkg/device"
	paoutput "github.com/cravesound/craveengine/pkg/device/portaudio"
	"github.com/cravesound/craveengine/pkg/player"
	"github.com/cravesound/craveengine/pkg/producer"
	"github.com/cravesound/craveengine/pkg/ringbuffer"
)

// statusPollInterval is the cadence spec.md §4.6 names for the
// supervisor's main loop.
const statusPollInterval = 100 * time.Millisecond

// Supervisor wires a playback session together and owns its shutdown.
type Supervisor struct {
	cfg Config

	clips []*clip.Clip
	prod  *producer.Producer
	plyr  *player.Player
	strm  device.Stream
	viz   *visualizer.Visualizer

	requests chan producer.Request
	status   chan producer.Status
	cmds     chan player.Command
	quit     chan struct{}
	vizStop  chan struct{}
	eos      atomic.Bool
}

// New opens every clip in cfg, builds the ring buffer and producer/player
// pair, and opens (but does not yet start) the output device stream.
func New(cfg Config) (*Supervisor, error) {
	if len(cfg.Clips) == 0 {
		return nil, fmt.Errorf("engine: at least one clip is required")
	}

	clips := make([]*clip.Clip, 0, len(cfg.Clips))
	for _, spec := range cfg.Clips {
		c, err := clip.New(spec.Path, spec.Start, spec.End)
		if err != nil {
			for _, opened := range clips {
				opened.Close()
			}
			return nil, fmt.Errorf("engine: opening %s: %w", spec.Path, err)
		}
		clips = append(clips, c)
	}

	w, r := ringbuffer.New(cfg.capacity())

	status := make(chan producer.Status, 64)
	requests := make(chan producer.Request, 4)

	s := &Supervisor{
		cfg:      cfg,
		clips:    clips,
		requests: requests,
		status:   status,
		cmds:     make(chan player.Command, 8),
		quit:     make(chan struct{}, 1),
		vizStop:  make(chan struct{}),
	}

	s.prod = producer.New(clips, w, producer.Config{HighWater: cfg.highWater()}, status, requests, &s.eos)

	var tap chan player.TapFrame
	if cfg.Visualize {
		tap = make(chan player.TapFrame, 64)
		s.viz = visualizer.New(tap)
	}

	s.plyr = player.New(r, requests, status, player.Config{
		LowWater:   cfg.lowWater(),
		SampleRate: cfg.SampleRate,
	}, tap)

	factory := paoutput.Factory{DeviceIndex: cfg.DeviceIndex}
	strm, err := factory.Open(device.Config{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
	}, s.plyr.FillCallback, s.onDeviceError)
	if err != nil {
		for _, c := range clips {
			c.Close()
		}
		return nil, fmt.Errorf("engine: opening output device: %w", err)
	}
	s.strm = strm

	return s, nil
}

func (s *Supervisor) onDeviceError(err error) {
	slog.Error("device callback error", "error", err)
}

// Run seeds one pre-play refill request, starts the producer goroutine
// and the device stream, then drives the 100ms status-poll loop until
// end_of_stream latches, a quit token arrives, or ctx is canceled.
func (s *Supervisor) Run(ctx context.Context) error {
	defer s.shutdown()

	// Seed one RequestData before device start so the buffer fills
	// before the first callback, per spec.md §4.4.
	s.requests <- producer.Request{}

	go s.prod.Run()

	if s.viz != nil {
		go s.viz.Run(s.vizStop)
	}

	input := NewInputReader(s.cmds, s.quit)
	go input.Run()

	if err := s.strm.Play(); err != nil {
		return fmt.Errorf("engine: starting stream: %w", err)
	}

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.quit:
			return nil
		case <-ticker.C:
			s.plyr.ProcessCommands(s.cmds)
			s.drainStatus()
			if s.eos.Load() {
				return nil
			}
		}
	}
}

// drainStatus logs every status currently pending without blocking.
func (s *Supervisor) drainStatus() {
	for {
		select {
		case st := <-s.status:
			slog.Info("status", "event", st.String())
		default:
			return
		}
	}
}

func (s *Supervisor) shutdown() {
	if s.viz != nil {
		close(s.vizStop)
	}
	if err := s.strm.Close(); err != nil {
		slog.Warn("error closing output stream", "error", err)
	}
	for _, c := range s.clips {
		if err := c.Close(); err != nil {
			slog.Warn("error closing clip", "path", c.Path, "error", err)
		}
	}
}
