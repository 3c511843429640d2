package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/leandrodaf/audio2midi/internal/logger"
	"github.com/leandrodaf/audio2midi/sdk/audio2midi"
	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"github.com/spf13/cobra"
)

// settings holds the persistent flags shared by every subcommand.
type settings struct {
	configPath string
	logLevel   string
	logFile    string
	hopSize    int
	frameSize  int
	device     int
	channel    uint8
	velocity   uint8
	midiOut    string

	log   contracts.Logger
	level contracts.LogLevel
	cfg   *audio2midi.Config
}

func newRootCmd() *cobra.Command {
	s := &settings{}
	root := &cobra.Command{
		Use:   "audio2midi",
		Short: "Monophonic audio to MIDI note transcription",
		Long: `audio2midi segments a monophonic audio stream into MIDI notes with
latency-compensated onsets and offsets. Notes can be printed, written to a
Standard MIDI File or sent to a MIDI output device.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.setup()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&s.configPath, "config", "", "YAML preset with converter options")
	flags.StringVar(&s.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides the preset)")
	flags.StringVar(&s.logFile, "log-file", "", "write logs to this file instead of stderr")
	flags.IntVar(&s.hopSize, "hop-size", 0, "samples between frames (overrides the preset)")
	flags.IntVar(&s.frameSize, "frame-size", 2048, "analysis frame length in samples")
	flags.IntVar(&s.device, "device", -1, "MIDI output device index to play the notes on")
	flags.Uint8Var(&s.channel, "channel", 0, "MIDI channel (0-15)")
	flags.Uint8Var(&s.velocity, "velocity", 100, "note-on velocity (1-127)")
	flags.StringVarP(&s.midiOut, "out", "o", "", "write the notes to a Standard MIDI File")

	root.AddCommand(newTranscribeCmd(s), newDemoCmd(s), newDevicesCmd(s))
	return root
}

func (s *settings) setup() error {
	if s.channel > 15 {
		return fmt.Errorf("--channel must be in 0..15, got %d", s.channel)
	}
	if s.velocity == 0 || s.velocity > 127 {
		return fmt.Errorf("--velocity must be in 1..127, got %d", s.velocity)
	}

	level := contracts.InfoLevel
	if s.configPath != "" {
		cfg, err := audio2midi.LoadConfig(s.configPath)
		if err != nil {
			return err
		}
		s.cfg = cfg
		if l, ok := contracts.ParseLogLevel(cfg.LogLevel); ok {
			level = l
		}
	}
	if s.logLevel != "" {
		l, ok := contracts.ParseLogLevel(s.logLevel)
		if !ok {
			return fmt.Errorf("invalid --log-level %q", s.logLevel)
		}
		level = l
	}

	if s.log == nil {
		s.log = logger.NewZapLogger()
	}
	s.level = level
	s.log.SetLevel(level)
	if s.logFile != "" {
		s.log.SetDestination(contracts.FileLog, s.logFile)
	}
	return nil
}

// converterOptions resolves the converter configuration for a stream at
// sampleRate: defaults, then the preset, then command line overrides.
func (s *settings) converterOptions(sampleRate float64) []contracts.ConverterOption {
	opts := []contracts.ConverterOption{contracts.WithConverterLogger(s.log)}
	if s.cfg != nil {
		opts = append(opts, audio2midi.WithConfig(s.cfg))
	}
	opts = append(opts, contracts.WithSampleRate(sampleRate))
	if s.hopSize > 0 {
		opts = append(opts, contracts.WithHopSize(s.hopSize))
	}
	return append(opts, contracts.WithConverterLogLevel(s.level))
}

// Execute runs the root command, cancelling on interrupt.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
