package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/spf13/cobra"
)

var errNotWAV = errors.New("not a valid WAV file")

func newTranscribeCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "transcribe <file.wav>",
		Short: "Transcribe a mono WAV file into notes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, sampleRate, err := readMonoWAV(args[0])
			if err != nil {
				return err
			}
			s.log.Info("WAV file loaded",
				s.log.Field().String("path", args[0]),
				s.log.Field().Int("sampleRate", sampleRate),
				s.log.Field().Int("samples", len(samples)))

			tr, err := s.transcribe(cmd.Context(), samples, float64(sampleRate))
			if err != nil {
				return err
			}
			return s.deliver(cmd.Context(), cmd.OutOrStdout(), tr)
		},
	}
}

// readMonoWAV decodes path into samples in [-1, 1].
func readMonoWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: %w", path, errNotWAV)
	}

	var buf *audio.IntBuffer
	buf, err = decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decoding %s: %w", path, err)
	}
	if decoder.BitDepth == 0 {
		return nil, 0, fmt.Errorf("%s: %w", path, errNotWAV)
	}
	if buf.Format.NumChannels != 1 {
		return nil, 0, fmt.Errorf("expected mono (1ch), got %dch", buf.Format.NumChannels)
	}

	// AsFloat32Buffer scales by the source bit depth to full scale 1.
	samples := buf.AsFloat32Buffer().Data
	return samples, buf.Format.SampleRate, nil
}
