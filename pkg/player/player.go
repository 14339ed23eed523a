// Package player implements the device output callback and transport
// control: draining the ring buffer into the hardware's fill buffer under
// a hard real-time deadline, and toggling play/pause from outside that
// callback.
package player

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cravesound/craveengine/pkg/producer"
	"github.com/cravesound/craveengine/pkg/ringbuffer"
)

// TapFrame is an optional copy of what the callback just wrote, offered to
// a visualizer or other observer on a best-effort basis.
type TapFrame struct {
	Samples    []float32
	SampleRate int
	Timestamp  time.Time
}

// Command is a transport instruction drained by ProcessCommands, off the
// real-time path.
type Command int

const (
	Play Command = iota
	Pause
	TogglePlayPause
)

// Config carries the low-water tolerance below which the callback
// requests a refill.
type Config struct {
	LowWater   uint64
	SampleRate int
}

// Player owns the ring buffer's reader half once constructed: nothing
// else may call TryPop on r.
type Player struct {
	mu     sync.Mutex
	r      *ringbuffer.Reader
	cfg    Config
	paused atomic.Bool

	requests chan<- producer.Request
	status   chan<- producer.Status
	// tap is held bidirectionally so emitTap can drain the oldest frame
	// itself on overflow; the Player is still the only writer.
	tap chan TapFrame
}

// New builds a Player over r. requests signals the producer from inside
// the callback; status reports BufferUnderrun to the supervisor; tap is
// optional (nil disables the copy-out path).
func New(r *ringbuffer.Reader, requests chan<- producer.Request, status chan<- producer.Status, cfg Config, tap chan TapFrame) *Player {
	return &Player{
		r:        r,
		cfg:      cfg,
		requests: requests,
		status:   status,
		tap:      tap,
	}
}

// FillCallback is the device output callback. It does not block unbounded
// and returns within one audio buffer period. It allocates only when a tap
// channel is attached, for the copy of data it sends there.
func (p *Player) FillCallback(data []float32) {
	if p.paused.Load() {
		for i := range data {
			data[i] = 0
		}
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.r.OccupiedLen() < p.cfg.LowWater {
		p.requestRefill()
	}

	underran := false
	for i := range data {
		if underran {
			data[i] = 0
			continue
		}
		left, ok := p.r.TryPop()
		if !ok {
			data[i] = 0
			underran = true
			continue
		}
		right, ok := p.r.TryPop()
		if !ok {
			// The discarded left sample was the last one available;
			// write silence for this slot and the rest of the fill.
			_ = left
			data[i] = 0
			underran = true
			continue
		}
		data[i] = right
	}

	if underran {
		p.reportUnderrun()
	}

	if p.tap != nil {
		p.emitTap(data)
	}
}

// requestRefill sends a non-blocking RequestData token; a full channel
// already carries a pending request, so the send is simply dropped.
func (p *Player) requestRefill() {
	select {
	case p.requests <- producer.Request{}:
	default:
	}
}

func (p *Player) reportUnderrun() {
	select {
	case p.status <- producer.BufferUnderrun:
	default:
	}
}

func (p *Player) emitTap(data []float32) {
	frame := TapFrame{
		Samples:    append([]float32(nil), data...),
		SampleRate: p.cfg.SampleRate,
		Timestamp:  time.Now(),
	}
	select {
	case p.tap <- frame:
	default:
		// oldest-drop: make room for the newest frame rather than block.
		select {
		case <-p.tap:
		default:
		}
		select {
		case p.tap <- frame:
		default:
		}
	}
}

// ProcessCommands drains pending transport commands, applying each to the
// paused flag. It is not on the real-time path and may be called from the
// supervisor's main loop.
func (p *Player) ProcessCommands(cmds <-chan Command) {
	for {
		select {
		case cmd := <-cmds:
			p.apply(cmd)
		default:
			return
		}
	}
}

func (p *Player) apply(cmd Command) {
	switch cmd {
	case Play:
		p.SetPaused(false)
	case Pause:
		p.SetPaused(true)
	case TogglePlayPause:
		p.TogglePlayPause()
	}
}

// SetPaused is an idempotent store of the paused flag.
func (p *Player) SetPaused(v bool) {
	p.paused.Store(v)
}

// TogglePlayPause flips paused with a read-then-write that observers in
// the callback see atomically and consistently.
func (p *Player) TogglePlayPause() {
	for {
		cur := p.paused.Load()
		if p.paused.CompareAndSwap(cur, !cur) {
			return
		}
	}
}

// IsPaused reports the current transport state.
func (p *Player) IsPaused() bool {
	return p.paused.Load()
}
