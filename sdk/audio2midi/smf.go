package audio2midi

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"
)

// SMFTempo is the tempo written into exported files. Event times are absolute
// seconds, so the tempo only fixes the tick resolution.
const SMFTempo = 120.0

// WriteSMF encodes events as a single-track Standard MIDI File. Note-ons
// use velocity; every event goes to channel.
func WriteSMF(w io.Writer, events []Event, channel, velocity uint8) error {
	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Time < ordered[j].Time
	})

	ticks := smf.MetricTicks(960)
	var track smf.Track
	track.Add(0, smf.MetaTempo(SMFTempo))

	var last uint32
	for _, ev := range ordered {
		abs := ticks.Ticks(SMFTempo, time.Duration(ev.Time*float64(time.Second)))
		if abs < last {
			abs = last
		}
		track.Add(abs-last, ev.MIDI(channel, velocity).Message())
		last = abs
	}
	track.Close(0)

	file := smf.New()
	file.TimeFormat = ticks
	if err := file.Add(track); err != nil {
		return fmt.Errorf("building MIDI file: %w", err)
	}
	if _, err := file.WriteTo(w); err != nil {
		return fmt.Errorf("writing MIDI file: %w", err)
	}
	return nil
}
