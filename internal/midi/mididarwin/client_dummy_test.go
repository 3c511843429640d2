//go:build !darwin
// +build !darwin

package mididarwin

import (
	"testing"

	"github.com/leandrodaf/audio2midi/internal/logger"
	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyClientCountsDroppedEvents(t *testing.T) {
	client, err := NewMIDIClient(&contracts.ClientOptions{Logger: logger.NewNopLogger()})
	require.NoError(t, err)
	dummy, ok := client.(*DummyMIDIClient)
	require.True(t, ok)

	_, err = dummy.ListDevices()
	assert.ErrorIs(t, err, ErrCoreMIDIUnavailable)
	assert.ErrorIs(t, dummy.SelectDevice(0), ErrCoreMIDIUnavailable)

	for i := 0; i < 3; i++ {
		err := dummy.Send(contracts.MIDI{Command: byte(contracts.NoteOn), Note: 60, Velocity: 100})
		assert.ErrorIs(t, err, ErrCoreMIDIUnavailable)
	}
	assert.Equal(t, int64(3), dummy.Dropped())
	assert.NoError(t, dummy.Stop())
}
