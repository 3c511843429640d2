// Package audio2midi converts a stream of monophonic audio frames into
// note-on / note-off messages with latency-compensated timestamps.
package audio2midi

import (
	"fmt"

	"github.com/leandrodaf/audio2midi/internal/analysis"
	"github.com/leandrodaf/audio2midi/internal/segment"
	"github.com/leandrodaf/audio2midi/sdk/contracts"
)

// Errors returned by converters. Use errors.Is to match them.
var (
	ErrInvalidFrame       = analysis.ErrInvalidFrame
	ErrInvalidObservation = segment.ErrInvalidObservation
	ErrInvalidConfig      = segment.ErrInvalidConfig
)

// converter pairs the frame analyzer with the note segmentation engine.
type converter struct {
	opts     contracts.ConverterOptions
	logger   contracts.Logger
	analyzer *analysis.Analyzer
	engine   *segment.Engine
}

// NewConverter creates a Converter with the specified options.
// It applies default options and rejects inconsistent configurations before
// any frame is processed.
//
// opts ...contracts.ConverterOption: A variadic list of option functions to customize the converter.
//
// Returns:
//   - contracts.Converter: A converter owning its own buffer and note state.
//   - error: An error wrapping ErrInvalidConfig when the configuration is rejected.
func NewConverter(opts ...contracts.ConverterOption) (contracts.Converter, error) {
	options := applyDefaultOptions(opts...)

	engine, err := segment.New(options, options.Logger)
	if err != nil {
		options.Logger.Error("Rejected converter configuration",
			options.Logger.Field().String("stream", options.StreamID),
			options.Logger.Field().Error("error", err))
		return nil, err
	}

	options.Logger.Info("Converter created",
		options.Logger.Field().String("stream", options.StreamID),
		options.Logger.Field().Float64("sampleRate", options.SampleRate),
		options.Logger.Field().Int("hopSize", options.HopSize),
		options.Logger.Field().Int("bufferFrames", engine.Capacity()))

	return &converter{
		opts:     options,
		logger:   options.Logger,
		analyzer: analysis.NewAnalyzer(options.SampleRate, options.MinFrequency, options.MaxFrequency,
			analysis.WithTolerance(options.YinTolerance),
			analysis.WithPitchAlgorithm(options.PitchAlgorithm),
			analysis.WithLoudnessAlgorithm(options.LoudnessAlgorithm)),
		engine:   engine,
	}, nil
}

// Process analyzes one audio frame and advances the note state.
func (c *converter) Process(frame []float32) (contracts.Result, error) {
	obs, err := c.analyzer.Analyze(frame)
	if err != nil {
		return contracts.Result{}, fmt.Errorf("audio2midi: %w", err)
	}
	return c.ProcessObservation(obs)
}

// ProcessObservation advances the note state with an already analyzed frame.
func (c *converter) ProcessObservation(obs contracts.Observation) (contracts.Result, error) {
	res, err := c.engine.Step(obs)
	if err != nil {
		return contracts.Result{}, fmt.Errorf("audio2midi: %w", err)
	}
	return res, nil
}

// Reset clears the voting window and returns to silence.
func (c *converter) Reset() {
	c.engine.Reset()
	c.logger.Debug("Converter reset", c.logger.Field().String("stream", c.opts.StreamID))
}

// State returns the current note state.
func (c *converter) State() contracts.NoteState {
	return c.engine.State()
}

// FrameStep is the duration of one hop in seconds.
func (c *converter) FrameStep() float64 {
	return c.engine.FrameStep()
}
