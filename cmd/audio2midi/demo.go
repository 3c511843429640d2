package main

import (
	"math"

	"github.com/spf13/cobra"
)

// demoScale is a C major scale starting at C4.
var demoScale = []float64{261.63, 293.66, 329.63, 349.23, 392.00, 440.00, 493.88, 523.25}

func newDemoCmd(s *settings) *cobra.Command {
	var (
		sampleRate int
		noteLength float64
		gapLength  float64
	)
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Transcribe a synthetic C major scale",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			samples := synthScale(demoScale, float64(sampleRate), noteLength, gapLength)
			tr, err := s.transcribe(cmd.Context(), samples, float64(sampleRate))
			if err != nil {
				return err
			}
			return s.deliver(cmd.Context(), cmd.OutOrStdout(), tr)
		},
	}
	cmd.Flags().IntVar(&sampleRate, "sample-rate", 44100, "sample rate of the synthetic signal")
	cmd.Flags().Float64Var(&noteLength, "note-length", 0.4, "seconds each note sounds")
	cmd.Flags().Float64Var(&gapLength, "gap-length", 0.2, "seconds of silence after each note")
	return cmd
}

// synthScale renders each frequency as a half-amplitude sine followed by silence.
func synthScale(freqs []float64, sampleRate, noteLength, gapLength float64) []float32 {
	noteSamples := int(noteLength * sampleRate)
	gapSamples := int(gapLength * sampleRate)
	out := make([]float32, 0, len(freqs)*(noteSamples+gapSamples))
	for _, f := range freqs {
		for i := 0; i < noteSamples; i++ {
			out = append(out, float32(0.5*math.Sin(2*math.Pi*f*float64(i)/sampleRate)))
		}
		out = append(out, make([]float32, gapSamples)...)
	}
	return out
}
