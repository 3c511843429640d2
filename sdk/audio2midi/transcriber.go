package audio2midi

import (
	"math"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
)

// Event is a note toggle message placed on the stream's timeline.
type Event struct {
	Frame    int64                 // Index of the frame that emitted the message.
	Detected float64               // Timestamp of that frame in seconds.
	Time     float64               // Compensated timestamp in seconds, never negative.
	Type     contracts.MessageType // note_on or note_off.
	Note     int                   // MIDI note the message refers to.
}

// MIDI converts the event to a MIDI message on the given channel.
func (e Event) MIDI(channel, velocity uint8) contracts.MIDI {
	m := contracts.MIDI{
		Timestamp: uint64(math.Round(e.Time * 1e9)),
		Command:   byte(e.Type.Command()),
		Channel:   channel,
		Note:      byte(e.Note),
	}
	if e.Type == contracts.MessageNoteOn {
		m.Velocity = velocity
	}
	return m
}

// Note is a reconstructed note with compensated onset and offset in seconds.
type Note struct {
	Note   int
	Onset  float64
	Offset float64
}

// Duration returns the length of the note in seconds.
func (n Note) Duration() float64 {
	return n.Offset - n.Onset
}

// Transcriber places converter results on a timeline and rebuilds the note list.
// The timestamp of frame k is (k+1)·frameStep, i.e. the end of the hop.
//
// Compensated times are kept consistent: onsets never go below zero nor before
// the previous offset, and every note lasts at least one frame step.
type Transcriber struct {
	step   float64
	frame  int64
	events []Event
	notes  []Note
	open   *Note
}

// NewTranscriber creates a transcriber for a converter with the given frame step.
func NewTranscriber(frameStep float64) *Transcriber {
	return &Transcriber{step: frameStep}
}

// Now returns the timestamp of the last added frame.
func (t *Transcriber) Now() float64 {
	return float64(t.frame) * t.step
}

// Add records the result of the next frame and returns the events it emitted.
func (t *Transcriber) Add(res contracts.Result) []Event {
	frame := t.frame
	t.frame++
	if !res.HasMessage() {
		return nil
	}

	now := t.Now()
	start := len(t.events)
	for _, m := range res.Messages {
		ev := Event{Frame: frame, Detected: now, Type: m}
		switch m {
		case contracts.MessageNoteOn:
			ev.Note = res.MidiNote[1]
			ev.Time = t.openNote(ev.Note, now-res.TimeCompensation[1])
		case contracts.MessageNoteOff:
			ev.Note = res.MidiNote[0]
			ev.Time = t.closeNote(now - res.TimeCompensation[0])
		}
		t.events = append(t.events, ev)
	}
	return t.events[start:]
}

func (t *Transcriber) openNote(note int, at float64) float64 {
	if t.open != nil {
		// note_on without note_off: close the previous note first
		t.closeNote(at)
	}
	if at < 0 {
		at = 0
	}
	if n := len(t.notes); n > 0 && at < t.notes[n-1].Offset {
		at = t.notes[n-1].Offset
	}
	t.open = &Note{Note: note, Onset: at}
	return at
}

func (t *Transcriber) closeNote(at float64) float64 {
	if t.open == nil {
		if at < 0 {
			return 0
		}
		return at
	}
	if at < t.open.Onset+t.step {
		at = t.open.Onset + t.step
	}
	t.open.Offset = at
	t.notes = append(t.notes, *t.open)
	t.open = nil
	return at
}

// Events returns every event recorded so far.
func (t *Transcriber) Events() []Event {
	return t.events
}

// Notes returns the notes closed so far.
func (t *Transcriber) Notes() []Note {
	return t.notes
}

// Sounding reports whether a note is still open.
func (t *Transcriber) Sounding() bool {
	return t.open != nil
}

// Close ends a still sounding note at the current timestamp and returns the
// complete note list.
func (t *Transcriber) Close() []Note {
	if t.open != nil {
		t.closeNote(t.Now())
	}
	return t.notes
}

// Reset clears the timeline.
func (t *Transcriber) Reset() {
	t.frame = 0
	t.events = nil
	t.notes = nil
	t.open = nil
}
