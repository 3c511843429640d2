package contracts

// PitchAlgorithm selects how the frame analyzer evaluates the YIN difference function.
type PitchAlgorithm string

const (
	// PitchYinFFT computes the difference function through an FFT cross-correlation.
	PitchYinFFT PitchAlgorithm = "yin_fft"
	// PitchYin computes the difference function directly in the time domain.
	PitchYin PitchAlgorithm = "yin"
)

// LoudnessAlgorithm selects how the frame analyzer measures loudness.
type LoudnessAlgorithm string

const (
	// LoudnessRMS reports 20·log10(rms), in dBFS.
	LoudnessRMS LoudnessAlgorithm = "rms"
	// LoudnessStevens reports Stevens' power law loudness, energy^0.67, in dB.
	// It grows with the frame length, so LoudnessThreshold must be tuned for it.
	LoudnessStevens LoudnessAlgorithm = "loudness"
)

// ConverterOptions holds the configuration of a Converter. Durations are in seconds,
// frequencies in Hz and loudness in dBFS.
type ConverterOptions struct {
	SampleRate               float64 // Sample rate of the incoming audio.
	HopSize                  int     // Samples between consecutive frames.
	MidiBufferDuration       float64 // Length of the voting window.
	MinNoteChangePeriod      float64 // Hold-off before a pitch change is confirmed.
	MinOnsetCheckPeriod      float64 // Hold-off before a note starts from silence; 0 uses MinNoteChangePeriod.
	MinOffsetCheckPeriod     float64 // Hold-off before a note-off is confirmed.
	MinOccurrenceRate        float64 // Share of the voting window a candidate note needs.
	SilenceThreshold         float64 // Share of silent slots that arms the offset hold-off.
	PitchTolerance           int     // Semitones a candidate may drift while being confirmed.
	PitchConfidenceThreshold float64 // Minimum pitch confidence of voiced evidence.
	LoudnessThreshold        float64 // Minimum loudness of voiced evidence.
	MinFrequency             float64 // Lowest accepted pitch.
	MaxFrequency             float64 // Highest accepted pitch.
	PitchAlgorithm           PitchAlgorithm
	LoudnessAlgorithm        LoudnessAlgorithm
	YinTolerance             float64 // YIN threshold on the normalized difference, in [0, 1].
	TuningFrequency          float64 // Reference frequency of MIDI note 69.
	Transposition            int     // Semitones added to every detected note.
	ApplyTimeCompensation    bool    // Report latency compensation with each message.
	StreamID                 string  // Identifier attached to every log entry.
	Logger                   Logger  // Logger for transitions and errors.
	LogLevel                 LogLevel
}

// FrameStep is the duration of one hop in seconds.
func (o ConverterOptions) FrameStep() float64 {
	return float64(o.HopSize) / o.SampleRate
}

// ConverterOption is a function that modifies ConverterOptions.
type ConverterOption func(*ConverterOptions)

// WithSampleRate sets the sample rate of the incoming audio.
func WithSampleRate(sampleRate float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.SampleRate = sampleRate
	}
}

// WithHopSize sets the number of samples between consecutive frames.
func WithHopSize(hopSize int) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.HopSize = hopSize
	}
}

// WithMidiBufferDuration sets the duration of the voting window.
func WithMidiBufferDuration(seconds float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.MidiBufferDuration = seconds
	}
}

// WithMinNoteChangePeriod sets the pitch change hold-off. It also applies to
// onsets unless WithMinOnsetCheckPeriod is given.
func WithMinNoteChangePeriod(seconds float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.MinNoteChangePeriod = seconds
	}
}

// WithMinOnsetCheckPeriod sets the hold-off before a note starts from silence.
func WithMinOnsetCheckPeriod(seconds float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.MinOnsetCheckPeriod = seconds
	}
}

// WithMinOffsetCheckPeriod sets the offset hold-off.
func WithMinOffsetCheckPeriod(seconds float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.MinOffsetCheckPeriod = seconds
	}
}

// WithMinOccurrenceRate sets the share of the voting window a candidate note needs.
func WithMinOccurrenceRate(rate float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.MinOccurrenceRate = rate
	}
}

// WithSilenceThreshold sets the share of silent slots that arms the offset hold-off.
func WithSilenceThreshold(fraction float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.SilenceThreshold = fraction
	}
}

// WithPitchTolerance sets how many semitones a candidate may drift while being confirmed.
func WithPitchTolerance(semitones int) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.PitchTolerance = semitones
	}
}

// WithPitchConfidenceThreshold sets the minimum pitch confidence of voiced evidence.
func WithPitchConfidenceThreshold(threshold float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.PitchConfidenceThreshold = threshold
	}
}

// WithLoudnessThreshold sets the minimum loudness, in dBFS, of voiced evidence.
func WithLoudnessThreshold(db float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.LoudnessThreshold = db
	}
}

// WithFrequencyRange sets the accepted pitch range.
func WithFrequencyRange(minHz, maxHz float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.MinFrequency = minHz
		opts.MaxFrequency = maxHz
	}
}

// WithPitchAlgorithm selects the frame analyzer's pitch algorithm.
func WithPitchAlgorithm(algorithm PitchAlgorithm) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.PitchAlgorithm = algorithm
	}
}

// WithLoudnessAlgorithm selects the frame analyzer's loudness measure.
func WithLoudnessAlgorithm(algorithm LoudnessAlgorithm) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.LoudnessAlgorithm = algorithm
	}
}

// WithYinTolerance sets the YIN absolute threshold. Lower values pick the
// first dip less eagerly and favor the global minimum.
func WithYinTolerance(tolerance float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.YinTolerance = tolerance
	}
}

// WithTuningFrequency sets the reference frequency of MIDI note 69.
func WithTuningFrequency(hz float64) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.TuningFrequency = hz
	}
}

// WithTransposition shifts every detected note by the given number of semitones.
func WithTransposition(semitones int) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.Transposition = semitones
	}
}

// WithTimeCompensation enables or disables latency compensation in the results.
func WithTimeCompensation(enabled bool) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.ApplyTimeCompensation = enabled
	}
}

// WithStreamID sets the identifier attached to the converter's log entries.
func WithStreamID(id string) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.StreamID = id
	}
}

// WithConverterLogger sets the logger of the converter.
func WithConverterLogger(l Logger) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.Logger = l
	}
}

// WithConverterLogLevel sets the logging level of the converter.
func WithConverterLogLevel(level LogLevel) ConverterOption {
	return func(opts *ConverterOptions) {
		opts.LogLevel = level
	}
}
