//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for MIDI connection and sending issues.
var (
	ErrNoMIDIDevices      = errors.New("no MIDI destinations found")
	ErrInvalidMIDIDevice  = errors.New("invalid MIDI destination")
	ErrCreateOutputPort   = errors.New("error creating output port")
	ErrNoDeviceSelected   = errors.New("no MIDI destination selected")
	ErrUnsupportedMessage = errors.New("unsupported MIDI message")
	ErrClientStopped      = errors.New("MIDI client stopped")
)

// ClientMid sends note events to a CoreMIDI destination on Darwin (macOS).
type ClientMid struct {
	logger          contracts.Logger
	client          coremidi.Client            // CoreMIDI client instance.
	outputPort      coremidi.OutputPort        // Output port used for every send.
	destination     *coremidi.Destination      // Selected destination, nil until SelectDevice.
	midiEventFilter *contracts.MIDIEventFilter // Filter for specific MIDI events.
	coreMIDIConfig  *contracts.CoreMIDIConfig  // Configuration for MIDI client.
	mu              sync.Mutex                 // Guards destination and stopped.
	stopped         bool
	stopOnce        sync.Once // Ensures Stop() is executed only once.
}

// NewMIDIClient initializes a CoreMIDI client and its output port.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}

	port, err := coremidi.NewOutputPort(client, options.CoreMIDIConfig.PortName)
	if err != nil {
		options.Logger.Error(ErrCreateOutputPort.Error())
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	options.Logger.Info("MIDI client successfully created")

	return &ClientMid{
		logger:          options.Logger,
		client:          client,
		outputPort:      port,
		midiEventFilter: options.MIDIEventFilter,
		coreMIDIConfig:  options.CoreMIDIConfig,
	}, nil
}

// ListDevices retrieves and returns available MIDI destinations.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	if len(destinations) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(destinations))
	for i, destination := range destinations {
		entity := destination.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         destination.Name(),
			EntityName:   entity.Name(),
			Manufacturer: entity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice selects the destination with the given index.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if deviceID < 0 || deviceID >= len(destinations) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	destination := destinations[deviceID]
	m.destination = &destination
	m.logger.Info("MIDI destination selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", destination.Name()))
	return nil
}

// Send writes event to the selected destination. Events rejected by the
// filter are dropped silently.
func (m *ClientMid) Send(event contracts.MIDI) error {
	if !m.midiEventFilter.Allows(event.Command) {
		return nil
	}
	data := event.Message()
	if data == nil {
		return fmt.Errorf("%w: command 0x%X", ErrUnsupportedMessage, event.Command)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrClientStopped
	}
	if m.destination == nil {
		return ErrNoDeviceSelected
	}

	// A zero timestamp asks CoreMIDI to deliver immediately.
	packet := coremidi.NewPacket(data.Bytes(), 0)
	if err := packet.Send(&m.outputPort, m.destination); err != nil {
		m.logger.Error("Failed to send MIDI packet", m.logger.Field().Error("error", err))
		return fmt.Errorf("error sending MIDI packet: %w", err)
	}
	m.logger.Debug("MIDI event sent",
		m.logger.Field().Uint8("command", event.Command),
		m.logger.Field().Uint8("note", event.Note),
		m.logger.Field().Uint64("timestamp", event.Timestamp))
	return nil
}

// Stop releases the destination. Later sends fail with ErrClientStopped.
// This function ensures it only executes once, even if called multiple times.
func (m *ClientMid) Stop() error {
	m.stopOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		m.stopped = true
		m.destination = nil
		m.logger.Info("MIDI client stopped")
	})
	return nil
}
