package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	pa "github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"

	"github.com/cravesound/craveengine/internal/engine"
)

var (
	playDeviceIdx     int
	playLookaheadSecs float64
	playVisualize     bool
	playVerbose       bool
)

// playCmd represents the play command.
var playCmd = &cobra.Command{
	Use:   "play <audio_file>[:start[:end]] ...",
	Short: "Play one or more WAV clips, mixed together in real time",
	Long: `play mixes one or more WAV clips together through a lock-free SPSC
ring buffer feeding the output device at real-time cadence.

Each file argument may carry an optional start and end offset, given in
seconds, separated by colons:

  craveengine play intro.wav
  craveengine play intro.wav:2.5 pad.wav:0:10
  craveengine play a.wav b.wav c.wav

While playing, press 'p' to toggle play/pause and 'q' to quit.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntVarP(&playDeviceIdx, "device", "d", 1, "Audio output device index")
	playCmd.Flags().Float64VarP(&playLookaheadSecs, "buffer-seconds", "b", 30, "Ring buffer depth, in seconds of audio")
	playCmd.Flags().BoolVar(&playVisualize, "visualize", false, "Attach a terminal bar-graph visualizer")
	playCmd.Flags().BoolVarP(&playVerbose, "verbose", "v", false, "Verbose output (debug logging)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	logLevel := slog.LevelInfo
	if playVerbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	clips, err := parseClipArgs(args)
	if err != nil {
		return err
	}

	cfg := engine.DefaultConfig()
	cfg.Clips = clips
	cfg.DeviceIndex = playDeviceIdx
	cfg.Lookahead = time.Duration(playLookaheadSecs * float64(time.Second))
	cfg.Visualize = playVisualize

	slog.Info("initializing portaudio")
	if err := pa.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer pa.Terminate()

	slog.Info("portaudio initialized", "version", pa.GetVersion())

	sup, err := engine.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("starting playback", "clips", len(clips))
	if err := sup.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("playback: %w", err)
	}

	slog.Info("exiting")
	return nil
}

// parseClipArgs parses each path[:start[:end]] token into an
// engine.ClipSpec, offsets given in seconds.
func parseClipArgs(args []string) ([]engine.ClipSpec, error) {
	specs := make([]engine.ClipSpec, 0, len(args))
	for _, arg := range args {
		parts := strings.Split(arg, ":")

		spec := engine.ClipSpec{Path: parts[0]}
		if len(parts) >= 2 && parts[1] != "" {
			secs, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid start offset in %q: %w", arg, err)
			}
			spec.Start = time.Duration(secs * float64(time.Second))
		}
		if len(parts) >= 3 && parts[2] != "" {
			secs, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid end offset in %q: %w", arg, err)
			}
			spec.End = time.Duration(secs * float64(time.Second))
		}

		specs = append(specs, spec)
	}
	return specs, nil
}
