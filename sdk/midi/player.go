package midi

import (
	"context"
	"sort"
	"time"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"go.uber.org/multierr"
)

// Play sends events to client, spacing them by their Timestamp relative to
// the first event. Events are sorted by timestamp first; equal timestamps
// keep their order so a note-off precedes the note-on of a legato change.
//
// When ctx is cancelled, a note-off is sent for every note still sounding
// and ctx.Err() is returned.
func Play(ctx context.Context, client contracts.ClientMIDI, events []contracts.MIDI) error {
	if len(events) == 0 {
		return nil
	}
	ordered := make([]contracts.MIDI, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp < ordered[j].Timestamp
	})

	sounding := make(map[[2]uint8]bool)
	base := ordered[0].Timestamp
	start := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for _, event := range ordered {
		due := time.Duration(event.Timestamp - base)
		if wait := due - time.Since(start); wait > 0 {
			timer.Reset(wait)
			select {
			case <-ctx.Done():
				return multierr.Combine(ctx.Err(), releaseAll(client, sounding))
			case <-timer.C:
			}
		} else if err := ctx.Err(); err != nil {
			return multierr.Combine(err, releaseAll(client, sounding))
		}

		if err := client.Send(event); err != nil {
			return multierr.Combine(err, releaseAll(client, sounding))
		}
		key := [2]uint8{event.Channel, event.Note}
		switch contracts.MIDICommand(event.Command & 0xf0) {
		case contracts.NoteOn:
			sounding[key] = event.Velocity > 0
		case contracts.NoteOff:
			delete(sounding, key)
		}
	}
	return nil
}

func releaseAll(client contracts.ClientMIDI, sounding map[[2]uint8]bool) error {
	var err error
	for key, on := range sounding {
		if !on {
			continue
		}
		err = multierr.Append(err, client.Send(contracts.MIDI{
			Command: byte(contracts.NoteOff),
			Channel: key[0],
			Note:    key[1],
		}))
	}
	return err
}
