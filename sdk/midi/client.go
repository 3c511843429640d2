package midi

import (
	"github.com/leandrodaf/audio2midi/sdk/contracts"
)

// NewMIDIClient creates a MIDI output client for the current platform.
// Defaults are applied before the platform client is initialized.
//
// opts ...contracts.Option: A variadic list of option functions to customize the client configuration.
//
// Returns:
//   - contracts.ClientMIDI: An instance of the MIDI output client.
//   - error: ErrUnsupportedOS on platforms without an output backend, or the backend's initialization error.
func NewMIDIClient(opts ...contracts.Option) (contracts.ClientMIDI, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	return NewClient(&options)
}
