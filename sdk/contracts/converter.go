package contracts

// MessageType is the kind of note toggle message emitted by a Converter.
type MessageType string

const (
	// MessageNoteOn marks the start of a stable pitched note.
	MessageNoteOn MessageType = "note_on"
	// MessageNoteOff marks the end of a sounding note.
	MessageNoteOff MessageType = "note_off"
)

// Command returns the MIDI status command matching the message type.
func (m MessageType) Command() MIDICommand {
	if m == MessageNoteOn {
		return NoteOn
	}
	return NoteOff
}

// Observation is the per-frame analysis of one audio frame.
type Observation struct {
	PitchHz    float64 // Estimated fundamental frequency, 0 if unvoiced.
	Confidence float64 // Reliability of PitchHz in [0, 1].
	Loudness   float64 // Loudness in dBFS.
}

// Result is the output of processing a single frame.
type Result struct {
	// Pitch is the analyzed pitch of the frame in Hz.
	Pitch float64
	// Loudness is the analyzed loudness of the frame in dBFS.
	Loudness float64
	// Messages holds zero, one or two messages. A pitch change yields
	// note_off followed by note_on.
	Messages []MessageType
	// MidiNote is [previousConfirmedNote, newNote]. It is [0, 0] when no message
	// was emitted.
	MidiNote [2]int
	// TimeCompensation is [offsetLatency, onsetLatency] in seconds: how far
	// before the current frame the confirmed events actually happened.
	TimeCompensation [2]float64
}

// HasMessage reports whether the frame emitted at least one message.
func (r Result) HasMessage() bool {
	return len(r.Messages) > 0
}

// Contains reports whether the frame emitted a message of type t.
func (r Result) Contains(t MessageType) bool {
	for _, m := range r.Messages {
		if m == t {
			return true
		}
	}
	return false
}

// NoteState is a snapshot of the segmentation state machine.
type NoteState struct {
	CurrentMidiNote             int   // Currently sounding note, 0 when silent.
	PreviousMidiNote            int   // Note confirmed before the current one.
	FramesSinceLastChange       int   // Frames the current candidate note has been stable.
	FramesSinceSilenceCandidate int   // Frames the silence hold-off has been running.
	FramesProcessed             int64 // Frames accepted since construction or the last Reset.
}

// Sounding reports whether a note is currently on.
func (s NoteState) Sounding() bool {
	return s.CurrentMidiNote != 0
}

// Converter turns a stream of audio frames into note toggle messages.
// A Converter is not safe for concurrent use; use one per audio stream.
type Converter interface {
	// Process analyzes one audio frame and advances the segmentation state.
	Process(frame []float32) (Result, error)
	// ProcessObservation advances the segmentation state with an already
	// analyzed frame.
	ProcessObservation(obs Observation) (Result, error)
	// Reset returns the converter to silence with an empty history.
	Reset()
	// State returns the current note state without modifying it.
	State() NoteState
	// FrameStep is the duration of one hop in seconds.
	FrameStep() float64
}
