package contracts

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI represents a MIDI note event with a timestamp, command, channel, note, and velocity.
type MIDI struct {
	Timestamp uint64 // Timestamp in nanoseconds at which the event is scheduled (compensated onset/offset time).
	Command   byte   // Command specifies the type of MIDI event (NoteOn or NoteOff).
	Channel   uint8  // Channel is the zero-based MIDI channel (0-15).
	Note      byte   // Note represents the MIDI note number (0-127).
	Velocity  byte   // Velocity indicates the strength of the note being played (0-127).
}

// Message encodes the event as a wire-level MIDI channel message.
// Commands other than NoteOn and NoteOff yield a nil message.
func (m MIDI) Message() gomidi.Message {
	switch MIDICommand(m.Command) {
	case NoteOn:
		return gomidi.NoteOn(m.Channel&0x0f, m.Note&0x7f, m.Velocity&0x7f)
	case NoteOff:
		return gomidi.NoteOff(m.Channel&0x0f, m.Note&0x7f)
	}
	return nil
}

// ClientMIDI defines an interface for MIDI output client operations.
type ClientMIDI interface {
	Stop() error                        // Stops the MIDI client and releases resources.
	ListDevices() ([]DeviceInfo, error) // Lists all available MIDI output devices.
	SelectDevice(deviceID int) error    // Selects a MIDI output device by its ID.
	Send(event MIDI) error              // Sends a single MIDI event to the selected device.
}
