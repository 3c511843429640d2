// Package segment implements the note segmentation state machine that turns
// per-frame pitch observations into debounced note-on / note-off messages.
//
// The engine keeps a rolling vote over the last MidiBufferDuration seconds of
// quantized frames. Entering a note (or changing pitch) requires a stable
// majority for MinNoteChangePeriod, while leaving a note requires the window to
// stay mostly silent for MinOffsetCheckPeriod. The two hold-offs are
// independent and form a hysteresis band.
//
// An Engine is owned by a single stream and must not be used concurrently.
package segment

import (
	"fmt"
	"math"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"go.uber.org/multierr"
)

// minCapacity is the smallest voting window, in frames.
const minCapacity = 3

// Engine is the note segmentation state machine.
type Engine struct {
	opts  contracts.ConverterOptions
	log   contracts.Logger
	gate  Gate
	quant Quantizer
	buf   *RollingBuffer

	step         float64
	onsetFrames  int
	changeFrames int
	offsetFrames int
	minVotes     int

	current  int // sounding note, 0 when silent
	previous int

	candidate int
	stable    int

	silenceArmed bool
	silenceRun   int
	silenceStart int64

	frame int64
}

// New validates opts and builds an engine in the silent state.
func New(opts contracts.ConverterOptions, log contracts.Logger) (*Engine, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}
	step := opts.FrameStep()
	capacity := framesFor(opts.MidiBufferDuration, step)
	if capacity < minCapacity {
		capacity = minCapacity
	}
	e := &Engine{
		opts:         opts,
		log:          log,
		gate:         NewGate(opts),
		quant:        Quantizer{TuningFrequency: opts.TuningFrequency, Transposition: opts.Transposition},
		buf:          NewRollingBuffer(capacity),
		step:         step,
		onsetFrames:  framesFor(onsetPeriod(opts), step),
		changeFrames: framesFor(opts.MinNoteChangePeriod, step),
		offsetFrames: framesFor(opts.MinOffsetCheckPeriod, step),
		minVotes:     int(math.Ceil(opts.MinOccurrenceRate*float64(capacity) - 1e-9)),
	}
	if e.minVotes < 2 {
		// A lone frame must never win the vote.
		e.minVotes = 2
	}
	return e, nil
}

// onsetPeriod returns the hold-off before a note starts from silence. It
// falls back to MinNoteChangePeriod when MinOnsetCheckPeriod is unset.
func onsetPeriod(opts contracts.ConverterOptions) float64 {
	if opts.MinOnsetCheckPeriod == 0 {
		return opts.MinNoteChangePeriod
	}
	return opts.MinOnsetCheckPeriod
}

// framesFor converts a duration to a whole number of frames, rounding up.
func framesFor(seconds, step float64) int {
	n := int(math.Ceil(seconds/step - 1e-9))
	if n < 1 {
		n = 1
	}
	return n
}

// Validate checks opts and returns every problem found, wrapped in ErrInvalidConfig.
func Validate(opts contracts.ConverterOptions) error {
	var errs error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf(format, args...))
		}
	}

	check(opts.SampleRate >= 8000 && !math.IsInf(opts.SampleRate, 0), "sampleRate %v must be at least 8000 Hz", opts.SampleRate)
	check(opts.HopSize >= 1, "hopSize %d must be positive", opts.HopSize)
	check(opts.MidiBufferDuration >= 0.005 && opts.MidiBufferDuration <= 0.5, "midiBufferDuration %v must be in [0.005, 0.5] s", opts.MidiBufferDuration)
	check(opts.MinNoteChangePeriod > 0 && opts.MinNoteChangePeriod <= 1, "minNoteChangePeriod %v must be in (0, 1] s", opts.MinNoteChangePeriod)
	check(opts.MinOnsetCheckPeriod >= 0 && opts.MinOnsetCheckPeriod <= 1, "minOnsetCheckPeriod %v must be in (0, 1] s, or 0 to follow minNoteChangePeriod", opts.MinOnsetCheckPeriod)
	check(opts.MinOffsetCheckPeriod > 0 && opts.MinOffsetCheckPeriod <= 1, "minOffsetCheckPeriod %v must be in (0, 1] s", opts.MinOffsetCheckPeriod)
	check(opts.MinOccurrenceRate > 0 && opts.MinOccurrenceRate <= 1, "minOccurrenceRate %v must be in (0, 1]", opts.MinOccurrenceRate)
	check(opts.SilenceThreshold > 0 && opts.SilenceThreshold <= 1, "silenceThreshold %v must be in (0, 1]", opts.SilenceThreshold)
	check(opts.PitchTolerance >= 0 && opts.PitchTolerance <= 12, "pitchTolerance %d must be in [0, 12] semitones", opts.PitchTolerance)
	check(opts.PitchConfidenceThreshold >= 0 && opts.PitchConfidenceThreshold <= 1, "pitchConfidenceThreshold %v must be in [0, 1]", opts.PitchConfidenceThreshold)
	check(!math.IsNaN(opts.LoudnessThreshold) && !math.IsInf(opts.LoudnessThreshold, 0), "loudnessThreshold %v must be finite", opts.LoudnessThreshold)
	check(opts.MinFrequency >= 10 && opts.MinFrequency <= 20000, "minFrequency %v must be in [10, 20000] Hz", opts.MinFrequency)
	check(opts.MaxFrequency > opts.MinFrequency, "maxFrequency %v must be above minFrequency %v", opts.MaxFrequency, opts.MinFrequency)
	check(opts.MaxFrequency <= opts.SampleRate/2, "maxFrequency %v must not exceed the Nyquist frequency %v", opts.MaxFrequency, opts.SampleRate/2)
	check(opts.YinTolerance >= 0 && opts.YinTolerance <= 1, "yinTolerance %v must be in [0, 1]", opts.YinTolerance)
	check(opts.PitchAlgorithm == "" || opts.PitchAlgorithm == contracts.PitchYinFFT || opts.PitchAlgorithm == contracts.PitchYin,
		"pitchAlgorithm %q must be %q or %q", opts.PitchAlgorithm, contracts.PitchYinFFT, contracts.PitchYin)
	check(opts.LoudnessAlgorithm == "" || opts.LoudnessAlgorithm == contracts.LoudnessRMS || opts.LoudnessAlgorithm == contracts.LoudnessStevens,
		"loudnessAlgorithm %q must be %q or %q", opts.LoudnessAlgorithm, contracts.LoudnessRMS, contracts.LoudnessStevens)
	check(opts.TuningFrequency >= 400 && opts.TuningFrequency <= 480, "tuningFrequency %v must be in [400, 480] Hz", opts.TuningFrequency)
	check(opts.Transposition > -69 && opts.Transposition < 50, "transposition %d must be in (-69, 50) semitones", opts.Transposition)

	if errs != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, errs)
	}
	return nil
}

// Capacity returns the voting window length in frames.
func (e *Engine) Capacity() int {
	return e.buf.Cap()
}

// FrameStep returns the duration of one frame in seconds.
func (e *Engine) FrameStep() float64 {
	return e.step
}

// Reset returns the engine to silence with an empty history.
func (e *Engine) Reset() {
	e.buf.Reset()
	e.current = 0
	e.previous = 0
	e.clearCandidate()
	e.disarmSilence()
	e.frame = 0
}

// State returns a snapshot of the note state.
func (e *Engine) State() contracts.NoteState {
	return contracts.NoteState{
		CurrentMidiNote:             e.current,
		PreviousMidiNote:            e.previous,
		FramesSinceLastChange:       e.stable,
		FramesSinceSilenceCandidate: e.silenceRun,
		FramesProcessed:             e.frame,
	}
}

// Step consumes one observation. On error the engine is left untouched.
func (e *Engine) Step(obs contracts.Observation) (contracts.Result, error) {
	if !validObservation(obs) {
		return contracts.Result{}, fmt.Errorf("%w: pitch=%v confidence=%v loudness=%v",
			ErrInvalidObservation, obs.PitchHz, obs.Confidence, obs.Loudness)
	}

	note := 0
	if e.gate.Voiced(obs) {
		note = e.quant.Note(obs.PitchHz)
	}
	e.buf.Push(note)
	frame := e.frame
	e.frame++

	res := contracts.Result{Pitch: obs.PitchHz, Loudness: obs.Loudness}

	if e.current != 0 && e.checkOffset(frame, note == 0) {
		lat := float64(frame-e.silenceStart+1) * e.step
		e.emit(&res, []contracts.MessageType{contracts.MessageNoteOff}, e.current, 0, lat, 0)
		return res, nil
	}

	cand, votes := e.buf.Majority()
	if votes < e.minVotes || cand == e.current {
		e.clearCandidate()
		return res, nil
	}

	e.track(cand, note)
	need := e.changeFrames
	if e.current == 0 {
		need = e.onsetFrames
	}
	if e.stable < need {
		return res, nil
	}

	lat := float64(e.buf.Age(cand)) * e.step
	if e.current == 0 {
		e.emit(&res, []contracts.MessageType{contracts.MessageNoteOn}, e.previous, cand, 0, lat)
	} else {
		e.emit(&res, []contracts.MessageType{contracts.MessageNoteOff, contracts.MessageNoteOn}, e.current, cand, lat, lat)
	}
	return res, nil
}

// track advances the stability counter of the vote winner. The counter holds
// the number of voiced frames supporting the winner. A winner within
// PitchTolerance of the tracked candidate keeps the count going; any other
// winner restarts it from its votes in the window.
func (e *Engine) track(cand, note int) {
	if e.candidate != 0 && abs(cand-e.candidate) <= e.opts.PitchTolerance {
		e.candidate = cand
		if note != 0 && abs(note-cand) <= e.opts.PitchTolerance {
			e.stable++
		}
		return
	}
	e.candidate = cand
	e.stable = e.buf.Votes(cand)
}

// checkOffset runs the silence hold-off and reports whether it just elapsed.
func (e *Engine) checkOffset(frame int64, silent bool) bool {
	if e.buf.SilenceFraction() < e.opts.SilenceThreshold {
		e.disarmSilence()
		return false
	}
	if !e.silenceArmed {
		trailing := e.buf.TrailingSilence()
		e.silenceArmed = true
		e.silenceRun = trailing
		e.silenceStart = frame - int64(trailing) + 1
	} else if silent {
		e.silenceRun++
	}
	return e.silenceRun >= e.offsetFrames
}

// emit commits a confirmed transition from note `from` to note `to` and fills res.
func (e *Engine) emit(res *contracts.Result, msgs []contracts.MessageType, from, to int, offsetLat, onsetLat float64) {
	res.Messages = msgs
	res.MidiNote = [2]int{from, to}
	if e.opts.ApplyTimeCompensation {
		res.TimeCompensation = [2]float64{offsetLat, onsetLat}
	}

	if e.current != 0 {
		e.previous = e.current
	}
	e.current = to
	e.clearCandidate()
	e.disarmSilence()

	e.log.Debug("note transition",
		e.log.Field().String("stream", e.opts.StreamID),
		e.log.Field().String("messages", joinMessages(msgs)),
		e.log.Field().Int("from", from),
		e.log.Field().Int("to", to),
		e.log.Field().Int64("frame", e.frame-1),
		e.log.Field().Float64("offsetLatency", res.TimeCompensation[0]),
		e.log.Field().Float64("onsetLatency", res.TimeCompensation[1]))
}

func (e *Engine) clearCandidate() {
	e.candidate = 0
	e.stable = 0
}

func (e *Engine) disarmSilence() {
	e.silenceArmed = false
	e.silenceRun = 0
	e.silenceStart = 0
}

func joinMessages(msgs []contracts.MessageType) string {
	s := ""
	for i, m := range msgs {
		if i > 0 {
			s += ","
		}
		s += string(m)
	}
	return s
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
