//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
)

// ErrWinMMUnavailable is returned by every device operation off Windows.
var ErrWinMMUnavailable = errors.New("winmm MIDI output is not available on this platform")

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient initializes a dummy MIDI output client for non-Windows systems.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("Using dummy MIDI output client for non-Windows system")
	return &dummyMIDIClient{
		logger: options.Logger,
	}, nil
}

func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, ErrWinMMUnavailable
}

func (m *dummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client", m.logger.Field().Int("deviceID", deviceID))
	return ErrWinMMUnavailable
}

// Send drops event.
func (m *dummyMIDIClient) Send(event contracts.MIDI) error {
	m.logger.Debug("MIDI event dropped by dummy client", m.logger.Field().Uint8("note", event.Note))
	return ErrWinMMUnavailable
}

func (m *dummyMIDIClient) Stop() error {
	m.logger.Info("Dummy MIDI client stopped")
	return nil
}
