package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "craveengine",
	Short: "Realtime multi-clip audio playback engine",
	Long: `craveengine plays one or more WAV clips simultaneously through a
lock-free SPSC ring buffer feeding a hardware output callback under
soft real-time deadlines.

Features:
  - Lock-free SPSC ring buffer decoupling decode from device output
  - Decode-and-mix producer goroutine with half-scale additive mixing
  - Play/pause transport control from the keyboard while running
  - Per-clip start/end offsets for trimmed playback
  - Optional terminal bar-graph visualizer

Commands:
  - play: play one or more audio files, optionally trimmed and mixed together`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
