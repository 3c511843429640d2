//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"
	"sync/atomic"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
)

// ErrCoreMIDIUnavailable is returned by every device operation off macOS.
var ErrCoreMIDIUnavailable = errors.New("CoreMIDI output is not available on this platform")

// DummyMIDIClient stands in for the CoreMIDI client on other platforms.
// Sent events are counted and discarded.
type DummyMIDIClient struct {
	logger  contracts.Logger
	dropped atomic.Int64
}

// NewMIDIClient returns a client whose device operations always fail.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("Using dummy MIDI output client for non-macOS system")
	return &DummyMIDIClient{
		logger: options.Logger,
	}, nil
}

func (m *DummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, ErrCoreMIDIUnavailable
}

func (m *DummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client", m.logger.Field().Int("deviceID", deviceID))
	return ErrCoreMIDIUnavailable
}

// Send discards event and reports ErrCoreMIDIUnavailable.
func (m *DummyMIDIClient) Send(event contracts.MIDI) error {
	m.dropped.Add(1)
	m.logger.Debug("MIDI event dropped by dummy client",
		m.logger.Field().Uint8("command", event.Command),
		m.logger.Field().Uint8("note", event.Note))
	return ErrCoreMIDIUnavailable
}

// Dropped reports how many events Send has discarded.
func (m *DummyMIDIClient) Dropped() int64 {
	return m.dropped.Load()
}

func (m *DummyMIDIClient) Stop() error {
	m.logger.Info("Dummy MIDI client stopped", m.logger.Field().Int64("dropped", m.dropped.Load()))
	return nil
}
