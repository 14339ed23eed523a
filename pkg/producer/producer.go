// Package producer implements the decode-and-mix worker: it pulls blocks
// from every active clip, additively mixes them into one interleaved
// float32 block per refill iteration, and pushes the result into the
// ring buffer's writer half.
package producer

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cravesound/craveengine/pkg/clip"
	"github.com/cravesound/craveengine/pkg/decoder"
	"github.com/cravesound/craveengine/pkg/ringbuffer"
)

// requestWait is the bounded sleep the producer uses while waiting for a
// pending refill request; it never blocks unbounded.
const requestWait = 100 * time.Millisecond

// Config carries the ring-buffer thresholds the producer needs to decide
// when to stop refilling.
type Config struct {
	HighWater uint64
}

// Producer is the decode-and-mix worker. It owns the clip list and the
// writer half of the ring buffer exclusively; nothing else may call
// Decode on these clips or PushSlice on this writer once Run has started.
type Producer struct {
	clips     []*clip.Clip
	w         *ringbuffer.Writer
	cfg       Config
	status    chan<- Status
	requests  <-chan Request
	eos       *atomic.Bool
	scratch   [][]float32
	exhausted []bool
}

// New builds a Producer over clips, publishing mixed blocks to w. status
// and eos are shared with the supervisor; requests is shared with the
// player's output callback.
func New(clips []*clip.Clip, w *ringbuffer.Writer, cfg Config, status chan<- Status, requests <-chan Request, eos *atomic.Bool) *Producer {
	return &Producer{
		clips:     clips,
		w:         w,
		cfg:       cfg,
		status:    status,
		requests:  requests,
		eos:       eos,
		scratch:   make([][]float32, len(clips)),
		exhausted: make([]bool, len(clips)),
	}
}

// Run is the producer's dedicated goroutine body. It returns once
// end_of_stream has latched true, either because every clip is exhausted
// and the ring buffer has drained, or because of a fatal decode error.
func (p *Producer) Run() {
	for {
		p.waitForRequest()
		if p.eos.Load() {
			return
		}
		if p.refillPhase() {
			return
		}
	}
}

// waitForRequest blocks up to requestWait for at least one pending
// Request, then drains any further pending requests without yielding so
// bursts of refill signals coalesce into one refill phase.
func (p *Producer) waitForRequest() {
	select {
	case <-p.requests:
	case <-time.After(requestWait):
	}

	for {
		select {
		case <-p.requests:
		default:
			return
		}
	}
}

// refillPhase runs decode_and_mix repeatedly until the buffer crosses the
// high-water mark, decoding stalls on a recoverable reset, or every clip
// is exhausted. It reports true when the caller should terminate (fatal
// error, or natural end-of-stream with a drained buffer).
func (p *Producer) refillPhase() bool {
	for {
		if p.w.OccupiedLen() > p.cfg.HighWater {
			p.sendStatus(BufferFull)
			return false
		}

		mix, anyDecoded, reset, err := p.decodeAndMix()
		if err != nil {
			p.sendStatus(DecodingDone)
			p.eos.Store(true)
			return true
		}

		if reset {
			if len(mix) > 0 {
				p.w.PushSlice(mix)
				p.sendStatus(BufferRecharge)
			}
			return false
		}

		if !anyDecoded {
			p.sendStatus(DecodingDone)
			if p.w.OccupiedLen() == 0 {
				p.eos.Store(true)
				return true
			}
			return false
		}

		p.w.PushSlice(mix)
		p.sendStatus(BufferRecharge)
	}
}

// decodeAndMix attempts one decode from each non-exhausted clip in
// order, additively mixing the results into a single interleaved block.
// It returns the mixed block, whether any clip actually produced samples,
// whether a recoverable reset cut the iteration short, and a non-nil
// error only for a fatal (non-recoverable, non-EOF) decode failure.
func (p *Producer) decodeAndMix() (mix []float32, anyDecoded bool, reset bool, err error) {
	for i, c := range p.clips {
		if p.exhausted[i] {
			continue
		}

		block, decErr := c.Decode()
		if decErr == nil {
			p.scratch[i] = append(p.scratch[i][:0], block.Samples...)
			mix = mixInto(mix, p.scratch[i])
			anyDecoded = true
			continue
		}

		if decoder.IsEndOfStream(decErr) {
			p.exhausted[i] = true
			continue
		}

		if errors.Is(decErr, decoder.ErrResetRequired) {
			return mix, anyDecoded, true, nil
		}

		return nil, false, false, fmt.Errorf("producer: clip %q decode: %w", c.Path, decErr)
	}

	return mix, anyDecoded, false, nil
}

// mixInto folds block into the running mix: if mix is empty it is
// initialized with a copy of block; otherwise shared indices accumulate
// block's contribution at half scale, and any indices past the current
// mix length are appended outright, so clips of differing block lengths
// within one iteration still combine correctly.
func mixInto(mix []float32, block []float32) []float32 {
	if len(mix) == 0 {
		out := make([]float32, len(block))
		copy(out, block)
		return out
	}

	shared := len(mix)
	if len(block) < shared {
		shared = len(block)
	}
	for i := 0; i < shared; i++ {
		mix[i] += block[i] / 2
	}
	if len(block) > len(mix) {
		mix = append(mix, block[len(mix):]...)
	}
	return mix
}

// sendStatus forwards a status value, dropping it if the supervisor isn't
// currently receiving rather than blocking the decode loop.
func (p *Producer) sendStatus(s Status) {
	select {
	case p.status <- s:
	default:
	}
}
