// Package analysis estimates pitch, pitch confidence and loudness of audio frames.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/leandrodaf/audio2midi/sdk/contracts"
	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrInvalidFrame is returned for frames too short to analyze.
var ErrInvalidFrame = errors.New("invalid audio frame")

// DefaultTolerance is the YIN absolute threshold on the normalized difference.
const DefaultTolerance = 0.15

// Analyzer computes an Observation per frame: a loudness in dB and a YIN
// pitch estimate. By default loudness is RMS in dBFS and the YIN difference
// function is evaluated through an FFT cross-correlation. It caches FFT plans
// per padded length and is not safe for concurrent use.
type Analyzer struct {
	sampleRate   float64
	minFrequency float64
	maxFrequency float64
	tolerance    float64
	pitch        contracts.PitchAlgorithm
	loudness     contracts.LoudnessAlgorithm

	plans map[int]*fourier.FFT

	// scratch
	signal []float64
	padA   []float64
	padB   []float64
	energy []float64
	diff   []float64
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTolerance sets the YIN absolute threshold.
func WithTolerance(tolerance float64) Option {
	return func(a *Analyzer) {
		a.tolerance = tolerance
	}
}

// WithPitchAlgorithm selects the difference function evaluation. The empty
// value keeps the FFT path.
func WithPitchAlgorithm(algorithm contracts.PitchAlgorithm) Option {
	return func(a *Analyzer) {
		if algorithm != "" {
			a.pitch = algorithm
		}
	}
}

// WithLoudnessAlgorithm selects the loudness measure. The empty value keeps RMS.
func WithLoudnessAlgorithm(algorithm contracts.LoudnessAlgorithm) Option {
	return func(a *Analyzer) {
		if algorithm != "" {
			a.loudness = algorithm
		}
	}
}

// NewAnalyzer creates an analyzer searching pitch in [minFrequency, maxFrequency].
func NewAnalyzer(sampleRate, minFrequency, maxFrequency float64, opts ...Option) *Analyzer {
	a := &Analyzer{
		sampleRate:   sampleRate,
		minFrequency: minFrequency,
		maxFrequency: maxFrequency,
		tolerance:    DefaultTolerance,
		pitch:        contracts.PitchYinFFT,
		loudness:     contracts.LoudnessRMS,
		plans:        make(map[int]*fourier.FFT),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze returns the observation for frame. Frames shorter than two samples
// are rejected. An all-zero frame yields a zero observation.
func (a *Analyzer) Analyze(frame []float32) (contracts.Observation, error) {
	if len(frame) < 2 {
		return contracts.Observation{}, fmt.Errorf("%w: %d samples", ErrInvalidFrame, len(frame))
	}

	a.signal = grow(a.signal, len(frame))
	var sum float64
	for i, v := range frame {
		x := float64(v)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return contracts.Observation{}, fmt.Errorf("%w: non-finite sample at %d", ErrInvalidFrame, i)
		}
		a.signal[i] = x
		sum += x * x
	}
	if sum == 0 {
		return contracts.Observation{}, nil
	}

	pitch, confidence := a.yin(a.signal)
	return contracts.Observation{
		PitchHz:    pitch,
		Confidence: confidence,
		Loudness:   a.level(sum, len(frame)),
	}, nil
}

// level converts the frame energy to dB with the configured measure.
func (a *Analyzer) level(energy float64, n int) float64 {
	if a.loudness == contracts.LoudnessStevens {
		return 10 * math.Log10(math.Pow(energy, 0.67))
	}
	return 20 * math.Log10(math.Sqrt(energy/float64(n)))
}

// yin returns the pitch in Hz and its confidence, or (0, 0) when the frame is
// too short for the configured frequency range.
func (a *Analyzer) yin(x []float64) (float64, float64) {
	w := len(x) / 2
	tauMin := int(math.Floor(a.sampleRate / a.maxFrequency))
	if tauMin < 2 {
		tauMin = 2
	}
	tauMax := int(math.Ceil(a.sampleRate / a.minFrequency))
	if tauMax > w-1 {
		tauMax = w - 1
	}
	if tauMax <= tauMin {
		return 0, 0
	}

	var d []float64
	if a.pitch == contracts.PitchYin {
		d = a.directDifference(x, w, tauMax)
	} else {
		d = a.difference(x, w, tauMax)
	}

	// cumulative mean normalized difference, in place
	d[0] = 1
	var running float64
	for tau := 1; tau <= tauMax; tau++ {
		running += d[tau]
		if running == 0 {
			d[tau] = 1
			continue
		}
		d[tau] = d[tau] * float64(tau) / running
	}

	best := -1
	for tau := tauMin; tau <= tauMax; tau++ {
		if d[tau] < a.tolerance {
			for tau+1 <= tauMax && d[tau+1] < d[tau] {
				tau++
			}
			best = tau
			break
		}
	}
	if best < 0 {
		best = tauMin
		for tau := tauMin + 1; tau <= tauMax; tau++ {
			if d[tau] < d[best] {
				best = tau
			}
		}
	}

	confidence := 1 - d[best]
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	period := float64(best)
	if best > tauMin && best < tauMax {
		period += parabolicOffset(d[best-1], d[best], d[best+1])
	}
	if period <= 0 {
		return 0, 0
	}
	return a.sampleRate / period, confidence
}

// difference evaluates the YIN difference function for lags 0..tauMax over a
// window of w samples, using d(τ) = e(0) + e(τ) - 2·r(τ).
func (a *Analyzer) difference(x []float64, w, tauMax int) []float64 {
	n := nextPow2(len(x) + w)
	plan, ok := a.plans[n]
	if !ok {
		plan = fourier.NewFFT(n)
		a.plans[n] = plan
	}

	a.padA = grow(a.padA, n)
	a.padB = grow(a.padB, n)
	copy(a.padA, x)
	clear(a.padA[len(x):])
	copy(a.padB, x[:w])
	clear(a.padB[w:])

	fa := plan.Coefficients(nil, a.padA)
	fb := plan.Coefficients(nil, a.padB)
	for i := range fa {
		fa[i] *= complexConj(fb[i])
	}
	r := plan.Sequence(a.padA, fa)
	scale := 1 / float64(n)

	// energy[i] = sum of x[j]^2 for j < i
	a.energy = grow(a.energy, len(x)+1)
	a.energy[0] = 0
	for i, v := range x {
		a.energy[i+1] = a.energy[i] + v*v
	}

	a.diff = grow(a.diff, tauMax+1)
	e0 := a.energy[w]
	for tau := 0; tau <= tauMax; tau++ {
		et := a.energy[tau+w] - a.energy[tau]
		v := e0 + et - 2*r[tau]*scale
		if v < 0 {
			v = 0
		}
		a.diff[tau] = v
	}
	return a.diff
}

// directDifference evaluates the same function as difference term by term.
func (a *Analyzer) directDifference(x []float64, w, tauMax int) []float64 {
	a.diff = grow(a.diff, tauMax+1)
	for tau := 0; tau <= tauMax; tau++ {
		var v float64
		for j := 0; j < w; j++ {
			delta := x[j] - x[j+tau]
			v += delta * delta
		}
		a.diff[tau] = v
	}
	return a.diff
}

func parabolicOffset(prev, cur, next float64) float64 {
	den := prev - 2*cur + next
	if den == 0 {
		return 0
	}
	off := 0.5 * (prev - next) / den
	if off < -1 || off > 1 {
		return 0
	}
	return off
}

func complexConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func grow(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
