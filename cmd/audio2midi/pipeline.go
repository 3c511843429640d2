package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/leandrodaf/audio2midi/sdk/audio2midi"
	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"github.com/leandrodaf/audio2midi/sdk/midi"
)

// transcribe runs samples through a fresh converter, frameSize samples at a
// time every hop samples, and returns the filled transcriber.
func (s *settings) transcribe(ctx context.Context, samples []float32, sampleRate float64) (*audio2midi.Transcriber, error) {
	opts := s.converterOptions(sampleRate)
	resolved := audio2midi.DefaultOptions()
	for _, opt := range opts {
		opt(&resolved)
	}
	hop := resolved.HopSize
	if s.frameSize < 2 {
		return nil, fmt.Errorf("--frame-size must be at least 2, got %d", s.frameSize)
	}

	conv, err := audio2midi.NewConverter(opts...)
	if err != nil {
		return nil, err
	}
	tr := audio2midi.NewTranscriber(conv.FrameStep())

	frame := make([]float32, s.frameSize)
	for start := 0; start+hop <= len(samples); start += hop {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n := copy(frame, samples[start:])
		clear(frame[n:])

		res, err := conv.Process(frame)
		if err != nil {
			return nil, fmt.Errorf("frame at sample %d: %w", start, err)
		}
		tr.Add(res)
	}
	tr.Close()

	s.log.Info("Transcription finished",
		s.log.Field().Int("samples", len(samples)),
		s.log.Field().Float64("seconds", tr.Now()),
		s.log.Field().Int("notes", len(tr.Notes())))
	return tr, nil
}

// deliver prints the notes and forwards the events to the requested outputs.
func (s *settings) deliver(ctx context.Context, w io.Writer, tr *audio2midi.Transcriber) error {
	printNotes(w, tr.Notes())

	if s.midiOut != "" {
		if err := s.writeSMF(tr.Events()); err != nil {
			return err
		}
		fmt.Fprintf(w, "wrote %s\n", s.midiOut)
	}
	if s.device >= 0 {
		return s.play(ctx, tr.Events())
	}
	return nil
}

func printNotes(w io.Writer, notes []audio2midi.Note) {
	fmt.Fprintf(w, "%-6s %-6s %10s %10s %10s\n", "note", "name", "onset", "offset", "duration")
	for _, n := range notes {
		fmt.Fprintf(w, "%-6d %-6s %10.3f %10.3f %10.3f\n", n.Note, noteName(n.Note), n.Onset, n.Offset, n.Duration())
	}
}

var pitchClasses = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteName renders a MIDI note in scientific pitch notation, 60 being C4.
func noteName(note int) string {
	return fmt.Sprintf("%s%d", pitchClasses[note%12], note/12-1)
}

func (s *settings) writeSMF(events []audio2midi.Event) (err error) {
	f, err := os.Create(s.midiOut)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return audio2midi.WriteSMF(f, events, s.channel, s.velocity)
}

func (s *settings) play(ctx context.Context, events []audio2midi.Event) (err error) {
	client, err := midi.NewMIDIClient(
		contracts.WithLogger(s.log),
		contracts.WithLogLevel(s.level),
		contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{
			Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
		}),
	)
	if err != nil {
		return err
	}
	defer func() {
		if serr := client.Stop(); err == nil {
			err = serr
		}
	}()

	if err := client.SelectDevice(s.device); err != nil {
		return err
	}

	messages := make([]contracts.MIDI, len(events))
	for i, ev := range events {
		messages[i] = ev.MIDI(s.channel, s.velocity)
	}
	return midi.Play(ctx, client, messages)
}
