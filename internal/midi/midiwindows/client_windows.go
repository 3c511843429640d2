//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type HMIDIOUT windows.Handle

// Constants for open flags
const (
	CALLBACK_NULL  = 0x00000000 // No callback
	MMSYSERR_NOERR = 0
)

// Struct representing MIDI output device capabilities
type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

var (
	ErrNoDeviceSelected   = errors.New("no MIDI output device selected")
	ErrUnsupportedMessage = errors.New("unsupported MIDI message")
)

// ClientMid manages MIDI output on Windows
type ClientMid struct {
	logger          contracts.Logger
	handle          HMIDIOUT
	portConn        bool
	mu              sync.Mutex
	midiEventFilter *contracts.MIDIEventFilter
	coreMIDIConfig  *contracts.CoreMIDIConfig
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutReset      = winmm.NewProc("midiOutReset")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// NewMIDIClient creates a MIDI output client for Windows
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("MIDI output client created for Windows")

	return &ClientMid{
		logger:          options.Logger,
		midiEventFilter: options.MIDIEventFilter,
		coreMIDIConfig:  options.CoreMIDIConfig,
	}, nil
}

// ListDevices lists the available MIDI output devices
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	numDevs, _, _ := procMidiOutGetNumDevs.Call()
	if numDevs == 0 {
		m.logger.Warn("No MIDI output devices found")
		return nil, errors.New("no MIDI output devices found")
	}

	var devices []contracts.DeviceInfo
	for i := 0; i < int(numDevs); i++ {
		var caps midiOutCaps
		ret, _, _ := procMidiOutGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), uintptr(unsafe.Sizeof(caps)))
		if ret != MMSYSERR_NOERR {
			m.logger.Warn("Failed to get MIDI output device capabilities", m.logger.Field().Int("deviceID", i))
			continue
		}

		devices = append(devices, contracts.DeviceInfo{
			ID:           i,
			Name:         windows.UTF16ToString(caps.szPname[:]),
			Manufacturer: fmt.Sprintf("MID %d", caps.wMid),
			EntityName:   fmt.Sprintf("PID %d", caps.wPid),
		})
	}

	return devices, nil
}

// SelectDevice opens the MIDI output device with the given ID, closing any
// device opened before.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	numDevs, _, _ := procMidiOutGetNumDevs.Call()
	if deviceID < 0 || deviceID >= int(numDevs) {
		m.logger.Error("Invalid MIDI output device ID", m.logger.Field().Int("deviceID", deviceID))
		return fmt.Errorf("invalid MIDI output device ID: %d", deviceID)
	}

	if m.portConn {
		if err := m.closeLocked(); err != nil {
			return err
		}
	}

	var handle HMIDIOUT
	ret, _, _ := procMidiOutOpen.Call(
		uintptr(unsafe.Pointer(&handle)),
		uintptr(deviceID),
		0,
		0,
		CALLBACK_NULL,
	)
	if ret != MMSYSERR_NOERR {
		m.logger.Error("Failed to open MIDI output device", m.logger.Field().Int("deviceID", deviceID), m.logger.Field().Int("errorCode", int(ret)))
		return fmt.Errorf("failed to open MIDI output device: error code %d", ret)
	}

	m.handle = handle
	m.portConn = true
	m.logger.Info("MIDI output device selected", m.logger.Field().Int("deviceID", deviceID))
	return nil
}

// Send writes event as a short message to the open device. Events rejected
// by the filter are dropped silently.
func (m *ClientMid) Send(event contracts.MIDI) error {
	if !m.midiEventFilter.Allows(event.Command) {
		return nil
	}
	msg := event.Message()
	if len(msg) == 0 || len(msg) > 3 {
		return fmt.Errorf("%w: command 0x%X", ErrUnsupportedMessage, event.Command)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.portConn {
		return ErrNoDeviceSelected
	}

	ret, _, _ := procMidiOutShortMsg.Call(uintptr(m.handle), uintptr(packShortMessage(msg)))
	if ret != MMSYSERR_NOERR {
		m.logger.Error("Failed to send MIDI message", m.logger.Field().Int("errorCode", int(ret)))
		return fmt.Errorf("failed to send MIDI message: error code %d", ret)
	}
	m.logger.Debug("MIDI event sent",
		m.logger.Field().Uint8("command", event.Command),
		m.logger.Field().Uint8("note", event.Note),
		m.logger.Field().Uint64("timestamp", event.Timestamp))
	return nil
}

// packShortMessage lays out status, data1 and data2 in the low three bytes
// as midiOutShortMsg expects.
func packShortMessage(msg []byte) uint32 {
	var packed uint32
	for i, b := range msg {
		packed |= uint32(b) << (8 * i)
	}
	return packed
}

// Stop silences and closes the open device, if any.
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.portConn {
		m.logger.Warn("Stop called with no open MIDI output device")
		return nil
	}
	return m.closeLocked()
}

func (m *ClientMid) closeLocked() error {
	procMidiOutReset.Call(uintptr(m.handle))
	ret, _, _ := procMidiOutClose.Call(uintptr(m.handle))
	if ret != MMSYSERR_NOERR {
		m.logger.Error("Failed to close MIDI output device", m.logger.Field().Int("errorCode", int(ret)))
		return fmt.Errorf("failed to close MIDI output device: error code %d", ret)
	}
	m.portConn = false
	m.handle = 0
	m.logger.Info("MIDI output device closed")
	return nil
}
