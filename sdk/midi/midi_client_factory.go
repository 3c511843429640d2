package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/audio2midi/internal/midi/mididarwin"
	"github.com/leandrodaf/audio2midi/internal/midi/midiwindows"
	"github.com/leandrodaf/audio2midi/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system has no MIDI output backend.
var ErrUnsupportedOS = errors.New("unsupported operating system")

type clientInitializer func(*contracts.ClientOptions) (contracts.ClientMIDI, error)

// clientInitializers maps OS names to corresponding MIDI output initializers.
var clientInitializers = map[string]clientInitializer{
	"darwin":  mididarwin.NewMIDIClient,  // CoreMIDI destinations.
	"windows": midiwindows.NewMIDIClient, // winmm output devices.
}

// NewClient initializes a MIDI output client for runtime.GOOS.
func NewClient(opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return newClientFor(runtime.GOOS, opts)
}

func newClientFor(goos string, opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	if initializer, exists := clientInitializers[goos]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
}
