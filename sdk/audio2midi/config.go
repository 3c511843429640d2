package audio2midi

import (
	"fmt"
	"io"
	"os"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"gopkg.in/yaml.v3"
)

// Config is a YAML preset for a converter. Omitted keys keep their defaults.
//
//	sample_rate: 48000
//	hop_size: 64
//	midi_buffer_duration: 0.05
//	min_frequency: 103.83
//	max_frequency: 659.26
type Config struct {
	SampleRate               *float64 `yaml:"sample_rate"`
	HopSize                  *int     `yaml:"hop_size"`
	MidiBufferDuration       *float64 `yaml:"midi_buffer_duration"`
	MinNoteChangePeriod      *float64 `yaml:"min_note_change_period"`
	MinOnsetCheckPeriod      *float64 `yaml:"min_onset_check_period"`
	MinOffsetCheckPeriod     *float64 `yaml:"min_offset_check_period"`
	MinOccurrenceRate        *float64 `yaml:"min_occurrence_rate"`
	SilenceThreshold         *float64 `yaml:"silence_threshold"`
	PitchTolerance           *int     `yaml:"pitch_tolerance"`
	PitchConfidenceThreshold *float64 `yaml:"pitch_confidence_threshold"`
	LoudnessThreshold        *float64 `yaml:"loudness_threshold"`
	MinFrequency             *float64 `yaml:"min_frequency"`
	MaxFrequency             *float64 `yaml:"max_frequency"`
	PitchAlgorithm           string   `yaml:"pitch_algorithm"`
	LoudnessAlgorithm        string   `yaml:"loudness_algorithm"`
	YinTolerance             *float64 `yaml:"yin_tolerance"`
	TuningFrequency          *float64 `yaml:"tuning_frequency"`
	Transposition            *int     `yaml:"transposition"`
	ApplyTimeCompensation    *bool    `yaml:"apply_time_compensation"`
	LogLevel                 string   `yaml:"log_level"`
}

// LoadConfig reads the YAML preset at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadConfigFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadConfigFromReader decodes a YAML preset from r. Unknown keys are rejected.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.LogLevel != "" {
		if _, ok := contracts.ParseLogLevel(cfg.LogLevel); !ok {
			return nil, fmt.Errorf("config: log_level %q is invalid; valid values: debug, info, warn, error, fatal", cfg.LogLevel)
		}
	}
	return cfg, nil
}

// WithConfig applies every key set in cfg. Range checks happen when the
// converter is built, like for any other option.
func WithConfig(cfg *Config) contracts.ConverterOption {
	return func(opts *contracts.ConverterOptions) {
		if cfg == nil {
			return
		}
		setFloat(&opts.SampleRate, cfg.SampleRate)
		setInt(&opts.HopSize, cfg.HopSize)
		setFloat(&opts.MidiBufferDuration, cfg.MidiBufferDuration)
		setFloat(&opts.MinNoteChangePeriod, cfg.MinNoteChangePeriod)
		setFloat(&opts.MinOnsetCheckPeriod, cfg.MinOnsetCheckPeriod)
		setFloat(&opts.MinOffsetCheckPeriod, cfg.MinOffsetCheckPeriod)
		setFloat(&opts.MinOccurrenceRate, cfg.MinOccurrenceRate)
		setFloat(&opts.SilenceThreshold, cfg.SilenceThreshold)
		setInt(&opts.PitchTolerance, cfg.PitchTolerance)
		setFloat(&opts.PitchConfidenceThreshold, cfg.PitchConfidenceThreshold)
		setFloat(&opts.LoudnessThreshold, cfg.LoudnessThreshold)
		setFloat(&opts.MinFrequency, cfg.MinFrequency)
		setFloat(&opts.MaxFrequency, cfg.MaxFrequency)
		setFloat(&opts.YinTolerance, cfg.YinTolerance)
		if cfg.PitchAlgorithm != "" {
			opts.PitchAlgorithm = contracts.PitchAlgorithm(cfg.PitchAlgorithm)
		}
		if cfg.LoudnessAlgorithm != "" {
			opts.LoudnessAlgorithm = contracts.LoudnessAlgorithm(cfg.LoudnessAlgorithm)
		}
		setFloat(&opts.TuningFrequency, cfg.TuningFrequency)
		setInt(&opts.Transposition, cfg.Transposition)
		if cfg.ApplyTimeCompensation != nil {
			opts.ApplyTimeCompensation = *cfg.ApplyTimeCompensation
		}
		if level, ok := contracts.ParseLogLevel(cfg.LogLevel); ok {
			opts.LogLevel = level
		}
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
