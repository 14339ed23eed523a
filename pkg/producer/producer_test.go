package producer

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	wavwriter "github.com/youpy/go-wav"

	"github.com/cravesound/craveengine/pkg/clip"
	"github.com/cravesound/craveengine/pkg/ringbuffer"
)

// writeConstantWAV writes a mono 16-bit PCM WAV file where every sample
// has the same value, so mixed output is easy to predict exactly.
func writeConstantWAV(t *testing.T, name string, frames int, value int16) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	data := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		data[i*2] = byte(value)
		data[i*2+1] = byte(value >> 8)
	}

	w := wavwriter.NewWriter(f, uint32(frames), 1, 44100, 16)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	return path
}

func TestMixIntoFirstClipIsCopied(t *testing.T) {
	block := []float32{0.5, -0.5, 0.25}
	mix := mixInto(nil, block)

	if len(mix) != len(block) {
		t.Fatalf("got len %d, want %d", len(mix), len(block))
	}
	for i := range block {
		if mix[i] != block[i] {
			t.Errorf("mix[%d] = %v, want %v", i, mix[i], block[i])
		}
	}
}

func TestMixIntoAccumulatesAtHalfScale(t *testing.T) {
	mix := []float32{1.0, 1.0}
	mix = mixInto(mix, []float32{0.5, 0.5})

	want := []float32{1.25, 1.25}
	for i := range want {
		if mix[i] != want[i] {
			t.Errorf("mix[%d] = %v, want %v", i, mix[i], want[i])
		}
	}
}

func TestMixIntoAppendsBeyondSharedLength(t *testing.T) {
	mix := []float32{1.0}
	mix = mixInto(mix, []float32{0.5, 0.25})

	want := []float32{1.25, 0.25}
	if len(mix) != 2 {
		t.Fatalf("got len %d, want 2", len(mix))
	}
	for i := range want {
		if mix[i] != want[i] {
			t.Errorf("mix[%d] = %v, want %v", i, mix[i], want[i])
		}
	}
}

func TestDecodeAndMixTwoClips(t *testing.T) {
	// Full-scale 16-bit value, decoded to 1.0; half-scale value decoded
	// to 0.5. Mixing clip A (1.0) then clip B (0.5) should produce
	// 1.0 + 0.5/2 = 1.25 at every shared sample.
	pathA := writeConstantWAV(t, "a.wav", 8, 32767)
	pathB := writeConstantWAV(t, "b.wav", 8, 16384)

	clipA, err := clip.New(pathA, 0, 0)
	if err != nil {
		t.Fatalf("clip A: %v", err)
	}
	defer clipA.Close()

	clipB, err := clip.New(pathB, 0, 0)
	if err != nil {
		t.Fatalf("clip B: %v", err)
	}
	defer clipB.Close()

	w, _ := ringbuffer.New(1024)
	var eos atomic.Bool
	status := make(chan Status, 8)
	requests := make(chan Request, 1)

	p := New([]*clip.Clip{clipA, clipB}, w, Config{HighWater: 900}, status, requests, &eos)

	mix, anyDecoded, reset, err := p.decodeAndMix()
	if err != nil {
		t.Fatalf("decodeAndMix: %v", err)
	}
	if reset {
		t.Fatal("unexpected reset")
	}
	if !anyDecoded {
		t.Fatal("expected anyDecoded")
	}

	for i, v := range mix {
		if v <= 1.2 || v >= 1.3 {
			t.Errorf("mix[%d] = %v, want ~1.25", i, v)
		}
	}
}

func TestRunProducesRechargeThenDecodingDone(t *testing.T) {
	path := writeConstantWAV(t, "only.wav", 4096, 1000)

	c, err := clip.New(path, 0, 0)
	if err != nil {
		t.Fatalf("clip: %v", err)
	}
	defer c.Close()

	w, r := ringbuffer.New(8192)
	var eos atomic.Bool
	status := make(chan Status, 32)
	requests := make(chan Request, 1)

	p := New([]*clip.Clip{c}, w, Config{HighWater: 8000}, status, requests, &eos)

	requests <- Request{}
	done := make(chan struct{})
	go func() {
		p.Run()
		close(done)
	}()

	// Stand in for the player: drain the ring buffer so the producer can
	// observe it empty once decoding is done, and latch end_of_stream.
	drained := make(chan int, 1)
	go func() {
		n := 0
		for {
			if _, ok := r.TryPop(); ok {
				n++
				continue
			}
			select {
			case <-done:
				drained <- n
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not terminate")
	}

	if !eos.Load() {
		t.Error("expected end_of_stream to latch true")
	}

	sawRecharge := false
	sawDone := false
	for {
		select {
		case s := <-status:
			if s == BufferRecharge {
				sawRecharge = true
			}
			if s == DecodingDone {
				sawDone = true
			}
			continue
		default:
		}
		break
	}

	if !sawRecharge {
		t.Error("expected at least one BufferRecharge status")
	}
	if !sawDone {
		t.Error("expected a DecodingDone status")
	}
	if got := <-drained; got != 4096 {
		t.Errorf("drained %d samples from the ring buffer, want 4096", got)
	}
}
