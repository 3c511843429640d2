package audio2midi

import (
	"github.com/google/uuid"
	"github.com/leandrodaf/audio2midi/internal/logger"
	"github.com/leandrodaf/audio2midi/sdk/contracts"
)

// Default configuration values.
const (
	DefaultSampleRate               = 44100.0
	DefaultHopSize                  = 128
	DefaultMidiBufferDuration       = 0.015
	DefaultMinNoteChangePeriod      = 0.030
	DefaultMinOffsetCheckPeriod     = 0.2
	DefaultMinOccurrenceRate        = 0.5
	DefaultSilenceThreshold         = 0.5
	DefaultPitchTolerance           = 1
	DefaultPitchConfidenceThreshold = 0.25
	DefaultLoudnessThreshold        = -51.0 // roughly the 0.0031 linear RMS floor
	DefaultMinFrequency             = 60.0
	DefaultMaxFrequency             = 2300.0
	DefaultTuningFrequency          = 440.0
	DefaultYinTolerance             = 0.15
	DefaultPitchAlgorithm           = contracts.PitchYinFFT
	DefaultLoudnessAlgorithm        = contracts.LoudnessRMS
)

// DefaultOptions returns the converter configuration used when no option overrides it.
func DefaultOptions() contracts.ConverterOptions {
	return contracts.ConverterOptions{
		SampleRate:               DefaultSampleRate,
		HopSize:                  DefaultHopSize,
		MidiBufferDuration:       DefaultMidiBufferDuration,
		MinNoteChangePeriod:      DefaultMinNoteChangePeriod,
		MinOffsetCheckPeriod:     DefaultMinOffsetCheckPeriod,
		MinOccurrenceRate:        DefaultMinOccurrenceRate,
		SilenceThreshold:         DefaultSilenceThreshold,
		PitchTolerance:           DefaultPitchTolerance,
		PitchConfidenceThreshold: DefaultPitchConfidenceThreshold,
		LoudnessThreshold:        DefaultLoudnessThreshold,
		MinFrequency:             DefaultMinFrequency,
		MaxFrequency:             DefaultMaxFrequency,
		TuningFrequency:          DefaultTuningFrequency,
		PitchAlgorithm:           DefaultPitchAlgorithm,
		LoudnessAlgorithm:        DefaultLoudnessAlgorithm,
		YinTolerance:             DefaultYinTolerance,
		ApplyTimeCompensation:    true,
	}
}

// applyDefaultOptions applies opts over DefaultOptions and fills in the logger,
// the log level and the stream identifier when they were not provided.
//
// opts ...contracts.ConverterOption: A variadic list of option functions that can modify ConverterOptions.
//
// Returns:
//   - contracts.ConverterOptions: The finalized converter options.
func applyDefaultOptions(opts ...contracts.ConverterOption) contracts.ConverterOptions {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.StreamID == "" {
		options.StreamID = uuid.NewString()
	}

	options.Logger.SetLevel(options.LogLevel)
	return options
}
