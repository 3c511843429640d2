package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	gomidi "gitlab.com/gomidi/midi/v2"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", DebugLevel, true},
		{"info", InfoLevel, true},
		{"warning", WarnLevel, true},
		{"error", ErrorLevel, true},
		{"fatal", FatalLevel, true},
		{"verbose", InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := ParseLogLevel(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestMIDIEventFilter(t *testing.T) {
	var nilFilter *MIDIEventFilter
	assert.True(t, nilFilter.Allows(0x90))

	f := &MIDIEventFilter{Commands: []MIDICommand{NoteOff}}
	assert.True(t, f.Allows(0x8f))
	assert.False(t, f.Allows(0x90))
	assert.False(t, f.Allows(0xb0))
}

func TestMIDIMessage(t *testing.T) {
	on := MIDI{Command: byte(NoteOn), Channel: 3, Note: 60, Velocity: 90}.Message()
	assert.Equal(t, []byte{0x93, 60, 90}, on.Bytes())

	off := MIDI{Command: byte(NoteOff), Channel: 3, Note: 60, Velocity: 90}.Message()
	assert.True(t, off.Is(gomidi.NoteOffMsg))

	assert.Nil(t, MIDI{Command: 0xb0}.Message())
}

func TestResultHelpers(t *testing.T) {
	var idle Result
	assert.False(t, idle.HasMessage())

	change := Result{Messages: []MessageType{MessageNoteOff, MessageNoteOn}}
	assert.True(t, change.HasMessage())
	assert.True(t, change.Contains(MessageNoteOn))
	assert.Equal(t, NoteOff, MessageNoteOff.Command())
	assert.Equal(t, NoteOn, MessageNoteOn.Command())
}

func TestConverterOptionsFrameStep(t *testing.T) {
	opts := ConverterOptions{SampleRate: 48000, HopSize: 480}
	assert.InDelta(t, 0.01, opts.FrameStep(), 1e-12)

	WithFrequencyRange(100, 900)(&opts)
	assert.Equal(t, 100.0, opts.MinFrequency)
	assert.Equal(t, 900.0, opts.MaxFrequency)
}
