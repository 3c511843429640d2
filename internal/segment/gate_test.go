package segment

import (
	"math"
	"testing"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"github.com/stretchr/testify/assert"
)

func TestGateVoiced(t *testing.T) {
	g := Gate{MinFrequency: 100, MaxFrequency: 1000, ConfidenceThreshold: 0.5, LoudnessThreshold: -40}

	tests := []struct {
		name string
		obs  contracts.Observation
		want bool
	}{
		{"in range", contracts.Observation{PitchHz: 440, Confidence: 0.9, Loudness: -10}, true},
		{"at lower bounds", contracts.Observation{PitchHz: 100, Confidence: 0.5, Loudness: -40}, true},
		{"at upper frequency", contracts.Observation{PitchHz: 1000, Confidence: 1, Loudness: 0}, true},
		{"too low", contracts.Observation{PitchHz: 99.9, Confidence: 0.9, Loudness: -10}, false},
		{"too high", contracts.Observation{PitchHz: 1000.1, Confidence: 0.9, Loudness: -10}, false},
		{"low confidence", contracts.Observation{PitchHz: 440, Confidence: 0.49, Loudness: -10}, false},
		{"too quiet", contracts.Observation{PitchHz: 440, Confidence: 0.9, Loudness: -41}, false},
		{"unvoiced", contracts.Observation{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, g.Voiced(tc.obs))
		})
	}
}

func TestQuantizerNote(t *testing.T) {
	q := Quantizer{TuningFrequency: 440}

	assert.Equal(t, 69, q.Note(440))
	assert.Equal(t, 60, q.Note(261.63))
	assert.Equal(t, 70, q.Note(466.16))
	assert.Equal(t, 69, q.Note(452)) // less than half a semitone sharp
	assert.Equal(t, 0, q.Note(0))
	assert.Equal(t, 0, q.Note(-3))
	assert.Equal(t, 0, q.Note(5)) // below note 1

	q = Quantizer{TuningFrequency: 432}
	assert.Equal(t, 69, q.Note(432))

	q = Quantizer{TuningFrequency: 440, Transposition: 2}
	assert.Equal(t, 71, q.Note(440))

	q = Quantizer{TuningFrequency: 440, Transposition: 49}
	assert.Equal(t, 0, q.Note(2000))
}

func TestValidObservation(t *testing.T) {
	assert.True(t, validObservation(contracts.Observation{}))
	assert.True(t, validObservation(contracts.Observation{PitchHz: 440, Confidence: 1, Loudness: math.Inf(-1)}))
	assert.False(t, validObservation(contracts.Observation{PitchHz: math.NaN()}))
	assert.False(t, validObservation(contracts.Observation{PitchHz: -1}))
	assert.False(t, validObservation(contracts.Observation{Confidence: 1.5}))
	assert.False(t, validObservation(contracts.Observation{Loudness: math.Inf(1)}))
}
