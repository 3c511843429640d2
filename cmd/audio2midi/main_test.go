package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/leandrodaf/audio2midi/sdk/audio2midi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/smf"
)

func writeWAV(t *testing.T, path string, channels int, freqs ...float64) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	const sampleRate = 44100
	var data []int
	for _, freq := range freqs {
		for i := 0; i < sampleRate/2; i++ {
			v := int(16000 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
			for c := 0; c < channels; c++ {
				data = append(data, v)
			}
		}
		for i := 0; i < sampleRate/4*channels; i++ {
			data = append(data, 0)
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	args = append(args, "--log-file", filepath.Join(t.TempDir(), "cli.log"))
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTranscribeWAV(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tones.wav")
	midPath := filepath.Join(dir, "tones.mid")
	writeWAV(t, wavPath, 1, 440, 523.25)

	out, err := run(t, "transcribe", wavPath, "--hop-size", "256", "--out", midPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "A4")
	assert.Contains(t, lines[2], "C5")
	assert.Contains(t, lines[3], "wrote "+midPath)

	f, err := os.Open(midPath)
	require.NoError(t, err)
	defer f.Close()
	file, err := smf.ReadFrom(f)
	require.NoError(t, err)
	assert.Len(t, file.Tracks, 1)
}

func TestReadMonoWAVFullScale(t *testing.T) {
	wavPath := filepath.Join(t.TempDir(), "a4.wav")
	writeWAV(t, wavPath, 1, 440)

	samples, sampleRate, err := readMonoWAV(wavPath)
	require.NoError(t, err)
	assert.Equal(t, 44100, sampleRate)

	var peak float32
	for _, v := range samples {
		if v > peak {
			peak = v
		}
	}
	assert.InDelta(t, 16000.0/32768.0, peak, 0.01)
}

func TestTranscribeRejectsStereo(t *testing.T) {
	wavPath := filepath.Join(t.TempDir(), "stereo.wav")
	writeWAV(t, wavPath, 2, 440)

	_, err := run(t, "transcribe", wavPath)
	assert.ErrorContains(t, err, "expected mono")
}

func TestTranscribeRejectsNonWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio at all, sorry"), 0o600))

	_, err := run(t, "transcribe", path)
	assert.ErrorIs(t, err, errNotWAV)
}

func TestDemo(t *testing.T) {
	out, err := run(t, "demo", "--log-level", "warn")
	require.NoError(t, err)

	for _, name := range []string{"C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"} {
		assert.Contains(t, out, name)
	}
}

func TestPresetAndFlagValidation(t *testing.T) {
	dir := t.TempDir()
	preset := filepath.Join(dir, "preset.yaml")
	require.NoError(t, os.WriteFile(preset, []byte("min_frequency: 900\nmax_frequency: 300\n"), 0o600))

	_, err := run(t, "demo", "--config", preset)
	assert.ErrorIs(t, err, audio2midi.ErrInvalidConfig)

	_, err = run(t, "demo", "--log-level", "loud")
	assert.ErrorContains(t, err, "--log-level")

	_, err = run(t, "demo", "--channel", "16")
	assert.ErrorContains(t, err, "--channel")

	_, err = run(t, "demo", "--velocity", "0")
	assert.ErrorContains(t, err, "--velocity")
}

func TestNoteName(t *testing.T) {
	assert.Equal(t, "C4", noteName(60))
	assert.Equal(t, "A4", noteName(69))
	assert.Equal(t, "C#-1", noteName(1))
	assert.Equal(t, "G9", noteName(127))
}
