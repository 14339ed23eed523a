package player

import (
	"testing"

	"github.com/cravesound/craveengine/pkg/producer"
	"github.com/cravesound/craveengine/pkg/ringbuffer"
)

func newTestPlayer(t *testing.T, capacity uint64, lowWater uint64) (*Player, *ringbuffer.Writer, chan producer.Request, chan producer.Status) {
	t.Helper()
	w, r := ringbuffer.New(capacity)
	requests := make(chan producer.Request, 1)
	status := make(chan producer.Status, 4)
	p := New(r, requests, status, Config{LowWater: lowWater, SampleRate: 44100}, nil)
	return p, w, requests, status
}

func TestFillCallbackWritesExactLength(t *testing.T) {
	p, w, _, _ := newTestPlayer(t, 64, 8)

	samples := make([]float32, 20)
	for i := range samples {
		samples[i] = float32(i)
	}
	w.PushSlice(samples)

	data := make([]float32, 10)
	p.FillCallback(data)

	for i, v := range data {
		want := samples[i*2+1] // discard-left, keep-right
		if v != want {
			t.Errorf("data[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestFillCallbackZeroPadsOnUnderrun(t *testing.T) {
	p, w, _, status := newTestPlayer(t, 64, 8)

	w.PushSlice([]float32{1, 2, 3, 4}) // two output frames worth

	data := make([]float32, 10)
	for i := range data {
		data[i] = 99 // sentinel so untouched slots are visible
	}
	p.FillCallback(data)

	if data[0] != 2 || data[1] != 4 {
		t.Errorf("expected first two slots decoded, got %v", data[:2])
	}
	for i := 2; i < len(data); i++ {
		if data[i] != 0 {
			t.Errorf("data[%d] = %v, want 0 (silence)", i, data[i])
		}
	}

	select {
	case s := <-status:
		if s != producer.BufferUnderrun {
			t.Errorf("got status %v, want BufferUnderrun", s)
		}
	default:
		t.Error("expected a BufferUnderrun status")
	}
}

func TestFillCallbackWritesAllZeroWhenPaused(t *testing.T) {
	p, w, _, _ := newTestPlayer(t, 64, 8)
	w.PushSlice([]float32{1, 2, 3, 4, 5, 6})

	p.SetPaused(true)

	data := make([]float32, 3)
	for i := range data {
		data[i] = 99
	}
	p.FillCallback(data)

	for i, v := range data {
		if v != 0 {
			t.Errorf("data[%d] = %v, want 0 while paused", i, v)
		}
	}
}

func TestFillCallbackRequestsRefillBelowLowWater(t *testing.T) {
	p, w, requests, _ := newTestPlayer(t, 64, 8)
	w.PushSlice([]float32{1, 2}) // occupied (2) < low water (8)

	data := make([]float32, 1)
	p.FillCallback(data)

	select {
	case <-requests:
	default:
		t.Error("expected a refill request below low water")
	}
}

func TestFillCallbackDoesNotDoubleRequestOnFullChannel(t *testing.T) {
	p, w, requests, _ := newTestPlayer(t, 64, 8)
	requests <- producer.Request{} // pre-fill the channel

	w.PushSlice([]float32{1, 2})
	data := make([]float32, 1)

	p.FillCallback(data) // must not block even though channel is full
}

func TestTogglePlayPauseFlipsState(t *testing.T) {
	p, _, _, _ := newTestPlayer(t, 64, 8)

	if p.IsPaused() {
		t.Fatal("expected initial state to be playing (not paused)")
	}

	p.TogglePlayPause()
	if !p.IsPaused() {
		t.Error("expected paused after one toggle")
	}

	p.TogglePlayPause()
	if p.IsPaused() {
		t.Error("expected playing after second toggle")
	}
}

func TestSetPausedIsIdempotent(t *testing.T) {
	p, _, _, _ := newTestPlayer(t, 64, 8)

	p.SetPaused(true)
	p.SetPaused(true)
	if !p.IsPaused() {
		t.Error("expected paused")
	}

	p.SetPaused(false)
	p.SetPaused(false)
	if p.IsPaused() {
		t.Error("expected playing")
	}
}

func TestProcessCommandsDrainsAllPending(t *testing.T) {
	p, _, _, _ := newTestPlayer(t, 64, 8)

	cmds := make(chan Command, 3)
	cmds <- Pause
	cmds <- Play
	cmds <- TogglePlayPause

	p.ProcessCommands(cmds)

	if !p.IsPaused() {
		t.Error("expected paused after Pause, Play, Toggle sequence")
	}
}
