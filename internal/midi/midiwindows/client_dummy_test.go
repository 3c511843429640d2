//go:build !windows
// +build !windows

package midiwindows

import (
	"testing"

	"github.com/leandrodaf/audio2midi/internal/logger"
	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyClientIsUnavailable(t *testing.T) {
	client, err := NewMIDIClient(&contracts.ClientOptions{Logger: logger.NewNopLogger()})
	require.NoError(t, err)

	_, err = client.ListDevices()
	assert.ErrorIs(t, err, ErrWinMMUnavailable)
	assert.ErrorIs(t, client.SelectDevice(1), ErrWinMMUnavailable)
	assert.ErrorIs(t, client.Send(contracts.MIDI{Command: byte(contracts.NoteOff), Note: 60}), ErrWinMMUnavailable)
	assert.NoError(t, client.Stop())
}
