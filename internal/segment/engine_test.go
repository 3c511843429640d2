package segment

import (
	"math"
	"math/rand"
	"testing"

	"github.com/leandrodaf/audio2midi/internal/logger"
	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testOptions yields a 10 ms frame step: a 5-frame voting window, a 6-frame
// change hold-off and a 10-frame offset hold-off.
func testOptions() contracts.ConverterOptions {
	return contracts.ConverterOptions{
		SampleRate:               44100,
		HopSize:                  441,
		MidiBufferDuration:       0.05,
		MinNoteChangePeriod:      0.06,
		MinOffsetCheckPeriod:     0.1,
		MinOccurrenceRate:        0.5,
		SilenceThreshold:         0.5,
		PitchTolerance:           1,
		PitchConfidenceThreshold: 0.25,
		LoudnessThreshold:        -50,
		MinFrequency:             60,
		MaxFrequency:             2300,
		TuningFrequency:          440,
		ApplyTimeCompensation:    true,
		StreamID:                 "test",
	}
}

func newTestEngine(t *testing.T, mutate ...func(*contracts.ConverterOptions)) *Engine {
	t.Helper()
	opts := testOptions()
	for _, m := range mutate {
		m(&opts)
	}
	e, err := New(opts, logger.NewNopLogger())
	require.NoError(t, err)
	return e
}

func tone(hz float64) contracts.Observation {
	return contracts.Observation{PitchHz: hz, Confidence: 1, Loudness: -10}
}

var silence = contracts.Observation{}

type step struct {
	frame int
	res   contracts.Result
}

// feed runs obs through e and returns the frames that emitted messages.
func feed(t *testing.T, e *Engine, obs ...contracts.Observation) []step {
	t.Helper()
	var out []step
	for _, o := range obs {
		frame := int(e.State().FramesProcessed)
		res, err := e.Step(o)
		require.NoError(t, err)
		if res.HasMessage() {
			out = append(out, step{frame, res})
		}
	}
	return out
}

func repeat(o contracts.Observation, n int) []contracts.Observation {
	out := make([]contracts.Observation, n)
	for i := range out {
		out[i] = o
	}
	return out
}

func concat(parts ...[]contracts.Observation) []contracts.Observation {
	var out []contracts.Observation
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestEngineCapacityAndHoldOffs(t *testing.T) {
	e := newTestEngine(t)

	assert.Equal(t, 5, e.Capacity())
	assert.InDelta(t, 0.01, e.FrameStep(), 1e-12)
	assert.Equal(t, 6, e.changeFrames)
	assert.Equal(t, 6, e.onsetFrames, "unset onset hold-off follows the change hold-off")
	assert.Equal(t, 10, e.offsetFrames)
	assert.Equal(t, 3, e.minVotes)
}

func TestEngineMinimumCapacity(t *testing.T) {
	e := newTestEngine(t, func(o *contracts.ConverterOptions) {
		o.HopSize = 4410
		o.MidiBufferDuration = 0.005
	})
	assert.Equal(t, minCapacity, e.Capacity())
}

func TestEngineSilenceIsIdempotent(t *testing.T) {
	e := newTestEngine(t)

	for i := 0; i < 200; i++ {
		res, err := e.Step(silence)
		require.NoError(t, err)
		assert.Equal(t, contracts.Result{}, res)
	}
	assert.Equal(t, int64(200), e.State().FramesProcessed)
	assert.False(t, e.State().Sounding())
}

func TestEngineIsolatedVoicedFrameNeverTriggers(t *testing.T) {
	e := newTestEngine(t)

	var obs []contracts.Observation
	for i := 0; i < 20; i++ {
		obs = append(obs, concat(repeat(silence, 7), []contracts.Observation{tone(440)})...)
	}
	assert.Empty(t, feed(t, e, obs...))
}

func TestEngineShortBurstBelowChangePeriodNeverTriggers(t *testing.T) {
	e := newTestEngine(t)

	obs := concat(repeat(silence, 10), repeat(tone(440), 4), repeat(silence, 30))
	assert.Empty(t, feed(t, e, obs...))
}

func TestEngineToneThenSilence(t *testing.T) {
	e := newTestEngine(t)

	events := feed(t, e, concat(repeat(tone(440), 6), repeat(silence, 10))...)
	require.Len(t, events, 2)

	on := events[0]
	assert.Equal(t, 5, on.frame)
	assert.Equal(t, []contracts.MessageType{contracts.MessageNoteOn}, on.res.Messages)
	assert.Equal(t, [2]int{0, 69}, on.res.MidiNote)
	assert.InDelta(t, 0, on.res.TimeCompensation[0], 1e-9)
	assert.InDelta(t, 0.05, on.res.TimeCompensation[1], 1e-9)
	assert.Equal(t, 440.0, on.res.Pitch)

	off := events[1]
	assert.Equal(t, 15, off.frame)
	assert.Equal(t, []contracts.MessageType{contracts.MessageNoteOff}, off.res.Messages)
	assert.Equal(t, [2]int{69, 0}, off.res.MidiNote)
	assert.InDelta(t, 0.1, off.res.TimeCompensation[0], 1e-9)
	assert.InDelta(t, 0, off.res.TimeCompensation[1], 1e-9)

	state := e.State()
	assert.Equal(t, 0, state.CurrentMidiNote)
	assert.Equal(t, 69, state.PreviousMidiNote)
}

func TestEngineOffsetDebounce(t *testing.T) {
	e := newTestEngine(t)

	events := feed(t, e, concat(repeat(tone(440), 20), repeat(silence, 8), repeat(tone(440), 20))...)
	require.Len(t, events, 1)
	assert.Equal(t, []contracts.MessageType{contracts.MessageNoteOn}, events[0].res.Messages)
	assert.Equal(t, 69, e.State().CurrentMidiNote)
}

func TestEngineNoteChange(t *testing.T) {
	e := newTestEngine(t)

	events := feed(t, e, concat(repeat(tone(440), 20), repeat(tone(493.88), 20))...)
	require.Len(t, events, 2)

	change := events[1]
	assert.Equal(t, 25, change.frame)
	assert.Equal(t, []contracts.MessageType{contracts.MessageNoteOff, contracts.MessageNoteOn}, change.res.Messages)
	assert.Equal(t, [2]int{69, 71}, change.res.MidiNote)
	assert.InDelta(t, 0.05, change.res.TimeCompensation[0], 1e-9)
	assert.InDelta(t, 0.05, change.res.TimeCompensation[1], 1e-9)

	state := e.State()
	assert.Equal(t, 71, state.CurrentMidiNote)
	assert.Equal(t, 69, state.PreviousMidiNote)
}

func TestEngineOnsetReportsLastConfirmedNote(t *testing.T) {
	e := newTestEngine(t)

	events := feed(t, e, concat(
		repeat(tone(440), 20), repeat(silence, 20),
		repeat(tone(523.25), 20),
	)...)
	require.Len(t, events, 3)
	assert.Equal(t, [2]int{69, 72}, events[2].res.MidiNote)
}

func TestEngineMinorityVibratoKeepsNote(t *testing.T) {
	e := newTestEngine(t)

	obs := repeat(tone(440), 20)
	for i := 0; i < 25; i++ {
		obs = append(obs, tone(440), tone(440), tone(440), tone(466.16))
	}
	events := feed(t, e, obs...)
	require.Len(t, events, 1)
	assert.Equal(t, 69, e.State().CurrentMidiNote)
}

func TestEngineDisabledTimeCompensation(t *testing.T) {
	e := newTestEngine(t, func(o *contracts.ConverterOptions) {
		o.ApplyTimeCompensation = false
	})

	events := feed(t, e, concat(repeat(tone(440), 6), repeat(silence, 10))...)
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, [2]float64{0, 0}, ev.res.TimeCompensation)
	}
}

func TestEngineTransposition(t *testing.T) {
	e := newTestEngine(t, func(o *contracts.ConverterOptions) {
		o.Transposition = -2
	})

	events := feed(t, e, repeat(tone(440), 10)...)
	require.Len(t, events, 1)
	assert.Equal(t, 67, events[0].res.MidiNote[1])
}

func TestEngineRejectsInvalidObservationWithoutMutation(t *testing.T) {
	e := newTestEngine(t)
	feed(t, e, repeat(tone(440), 10)...)
	before := e.State()

	_, err := e.Step(contracts.Observation{PitchHz: math.NaN()})
	require.ErrorIs(t, err, ErrInvalidObservation)
	assert.Equal(t, before, e.State())
}

func TestEngineReset(t *testing.T) {
	e := newTestEngine(t)
	feed(t, e, repeat(tone(440), 10)...)
	require.True(t, e.State().Sounding())

	e.Reset()
	assert.Equal(t, contracts.NoteState{}, e.State())
	assert.Empty(t, feed(t, e, repeat(silence, 50)...))
}

func TestEngineMonophonicRandomStream(t *testing.T) {
	e := newTestEngine(t)
	rng := rand.New(rand.NewSource(42))
	pitches := []float64{0, 440, 466.16, 493.88, 523.25}

	open := 0
	for i := 0; i < 20000; i++ {
		// long runs so that notes actually get confirmed
		p := pitches[rng.Intn(len(pitches))]
		for n := rng.Intn(30); n >= 0; n-- {
			res, err := e.Step(tone(p))
			require.NoError(t, err)
			for _, m := range res.Messages {
				switch m {
				case contracts.MessageNoteOn:
					require.Zero(t, open, "note_on while a note is open")
					open = res.MidiNote[1]
				case contracts.MessageNoteOff:
					require.NotZero(t, open, "note_off without an open note")
					require.Equal(t, open, res.MidiNote[0])
					open = 0
				}
			}
			require.Equal(t, open, e.State().CurrentMidiNote)
		}
	}
}

func TestEngineOnsetHoldOffIsSeparateFromChange(t *testing.T) {
	stream := concat(repeat(tone(440), 30), repeat(tone(493.88), 30))

	base := feed(t, newTestEngine(t), stream...)
	fast := feed(t, newTestEngine(t, func(o *contracts.ConverterOptions) { o.MinOnsetCheckPeriod = 0.03 }), stream...)
	slow := feed(t, newTestEngine(t, func(o *contracts.ConverterOptions) { o.MinOnsetCheckPeriod = 0.08 }), stream...)
	require.Len(t, base, 2)
	require.Len(t, fast, 2)
	require.Len(t, slow, 2)

	assert.Equal(t, 5, base[0].frame)
	assert.Equal(t, 2, fast[0].frame)
	assert.Equal(t, 7, slow[0].frame)
	assert.Equal(t, [2]int{0, 69}, fast[0].res.MidiNote)
	assert.InDelta(t, 0.03, fast[0].res.TimeCompensation[1], 1e-9)

	// pitch changes keep using MinNoteChangePeriod
	assert.Equal(t, base[1].frame, fast[1].frame)
	assert.Equal(t, base[1].frame, slow[1].frame)
	assert.Equal(t, [2]int{69, 71}, fast[1].res.MidiNote)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(testOptions()))

	tests := []struct {
		name   string
		mutate func(*contracts.ConverterOptions)
	}{
		{"low sample rate", func(o *contracts.ConverterOptions) { o.SampleRate = 4000 }},
		{"zero hop", func(o *contracts.ConverterOptions) { o.HopSize = 0 }},
		{"buffer too long", func(o *contracts.ConverterOptions) { o.MidiBufferDuration = 0.6 }},
		{"zero change period", func(o *contracts.ConverterOptions) { o.MinNoteChangePeriod = 0 }},
		{"negative offset period", func(o *contracts.ConverterOptions) { o.MinOffsetCheckPeriod = -1 }},
		{"max below min", func(o *contracts.ConverterOptions) { o.MinFrequency, o.MaxFrequency = 500, 400 }},
		{"max above nyquist", func(o *contracts.ConverterOptions) { o.MaxFrequency = 30000 }},
		{"confidence above one", func(o *contracts.ConverterOptions) { o.PitchConfidenceThreshold = 1.2 }},
		{"nan loudness", func(o *contracts.ConverterOptions) { o.LoudnessThreshold = math.NaN() }},
		{"bad tuning", func(o *contracts.ConverterOptions) { o.TuningFrequency = 300 }},
		{"bad transposition", func(o *contracts.ConverterOptions) { o.Transposition = 50 }},
		{"zero occurrence rate", func(o *contracts.ConverterOptions) { o.MinOccurrenceRate = 0 }},
		{"zero silence threshold", func(o *contracts.ConverterOptions) { o.SilenceThreshold = 0 }},
		{"negative onset period", func(o *contracts.ConverterOptions) { o.MinOnsetCheckPeriod = -0.1 }},
		{"onset period above one", func(o *contracts.ConverterOptions) { o.MinOnsetCheckPeriod = 1.5 }},
		{"yin tolerance above one", func(o *contracts.ConverterOptions) { o.YinTolerance = 2 }},
		{"unknown pitch algorithm", func(o *contracts.ConverterOptions) { o.PitchAlgorithm = "pyin" }},
		{"unknown loudness algorithm", func(o *contracts.ConverterOptions) { o.LoudnessAlgorithm = "lufs" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			tc.mutate(&opts)
			err := Validate(opts)
			assert.ErrorIs(t, err, ErrInvalidConfig)

			_, err = New(opts, logger.NewNopLogger())
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	opts := testOptions()
	opts.HopSize = 0
	opts.TuningFrequency = 0

	err := Validate(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hopSize")
	assert.Contains(t, err.Error(), "tuningFrequency")
}
