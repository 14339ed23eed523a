// Package visualizer renders a terminal bar-graph and peak-level display
// from the player's tap output, redrawn at a fixed cadence.
//
// Grounded in the original engine's AudioVisualizer (render_bars /
// render_waveform / display_visualization over a bounded sample
// history), restyled with lipgloss instead of raw ANSI escapes.
package visualizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cravesound/craveengine/pkg/player"
)

const (
	historyFrames = 64
	barCount      = 32
	refreshRate   = 50 * time.Millisecond // ~20 fps
)

var (
	barStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	peakStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
)

// Visualizer consumes TapFrames and prints a redrawn bar graph to standard
// output at roughly 20 fps until its input channel is closed or the stop
// channel passed to Run fires.
type Visualizer struct {
	tap <-chan player.TapFrame

	history []float32 // circular buffer of recent peak magnitudes
	head    int
	filled  int
}

// New builds a Visualizer reading from tap.
func New(tap <-chan player.TapFrame) *Visualizer {
	return &Visualizer{
		tap:     tap,
		history: make([]float32, historyFrames),
	}
}

// Run drains tap and redraws the terminal display on a ticker until tap
// is closed or stop is signaled. It is meant to be launched in its own
// goroutine.
func (v *Visualizer) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(refreshRate)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case frame, ok := <-v.tap:
			if !ok {
				return
			}
			v.absorb(frame)
		case <-ticker.C:
			fmt.Print(v.render())
		}
	}
}

// absorb records the peak magnitude of frame into the circular history.
func (v *Visualizer) absorb(frame player.TapFrame) {
	peak := float32(0)
	for _, s := range frame.Samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}

	v.history[v.head] = peak
	v.head = (v.head + 1) % len(v.history)
	if v.filled < len(v.history) {
		v.filled++
	}
}

// render draws a fixed-width bar graph over the most recent history,
// downsampled to barCount columns, plus a peak-level readout.
func (v *Visualizer) render() string {
	if v.filled == 0 {
		return ""
	}

	bucket := v.filled / barCount
	if bucket == 0 {
		bucket = 1
	}

	var bars strings.Builder
	peak := float32(0)
	start := (v.head - v.filled + len(v.history)) % len(v.history)

	for col := 0; col < barCount; col++ {
		var sum float32
		n := 0
		for j := 0; j < bucket; j++ {
			idx := (start + col*bucket + j) % len(v.history)
			sum += v.history[idx]
			n++
		}
		if n == 0 {
			continue
		}
		avg := sum / float32(n)
		if avg > peak {
			peak = avg
		}
		bars.WriteString(barStyle.Render(barGlyph(avg)))
	}

	return fmt.Sprintf("\r%s %s", bars.String(), peakStyle.Render(fmt.Sprintf("%.2f", peak)))
}

// barGlyph maps a [0,1] magnitude to one of eight block-height glyphs.
func barGlyph(v float32) string {
	glyphs := []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	idx := int(v * float32(len(glyphs)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(glyphs) {
		idx = len(glyphs) - 1
	}
	return glyphs[idx]
}
