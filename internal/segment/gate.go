package segment

import (
	"math"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
)

// Gate classifies observations as voiced evidence or silence evidence.
type Gate struct {
	MinFrequency        float64
	MaxFrequency        float64
	ConfidenceThreshold float64
	LoudnessThreshold   float64
}

// NewGate builds a Gate from converter options.
func NewGate(opts contracts.ConverterOptions) Gate {
	return Gate{
		MinFrequency:        opts.MinFrequency,
		MaxFrequency:        opts.MaxFrequency,
		ConfidenceThreshold: opts.PitchConfidenceThreshold,
		LoudnessThreshold:   opts.LoudnessThreshold,
	}
}

// Voiced reports whether obs is usable pitch evidence.
func (g Gate) Voiced(obs contracts.Observation) bool {
	return obs.PitchHz >= g.MinFrequency &&
		obs.PitchHz <= g.MaxFrequency &&
		obs.Confidence >= g.ConfidenceThreshold &&
		obs.Loudness >= g.LoudnessThreshold
}

// Quantizer maps frequencies to MIDI note numbers.
type Quantizer struct {
	TuningFrequency float64
	Transposition   int
}

// Note returns the nearest MIDI note for hz, or 0 when the result falls outside 1..127.
func (q Quantizer) Note(hz float64) int {
	if hz <= 0 {
		return 0
	}
	n := int(math.Round(12*math.Log2(hz/q.TuningFrequency))) + 69 + q.Transposition
	if n < 1 || n > 127 {
		return 0
	}
	return n
}

// validObservation rejects values no analyzer can legitimately produce.
func validObservation(obs contracts.Observation) bool {
	switch {
	case math.IsNaN(obs.PitchHz) || math.IsInf(obs.PitchHz, 0) || obs.PitchHz < 0:
		return false
	case math.IsNaN(obs.Confidence) || obs.Confidence < 0 || obs.Confidence > 1:
		return false
	case math.IsNaN(obs.Loudness) || math.IsInf(obs.Loudness, 1):
		return false
	}
	return true
}
