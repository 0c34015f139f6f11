package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// HarmonicTone generates a voice-like tone: harmonics 1..n of f0 with
// amplitude falling off as 1/k.
func HarmonicTone(f0, sampleRate, amplitude float64, harmonics, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * f0 / sampleRate
	for i := range out {
		v := 0.0
		for k := 1; k <= harmonics; k++ {
			v += math.Sin(step*float64(i)*float64(k)) / float64(k)
		}
		out[i] = amplitude * v
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Zeros returns an all-zero buffer of the given length.
func Zeros(length int) []float64 {
	return make([]float64, length)
}

// WithValue returns a copy of buf with buf[pos] replaced by v. It is used to
// inject NaN or Inf samples into otherwise valid frames.
func WithValue(buf []float64, pos int, v float64) []float64 {
	out := append([]float64(nil), buf...)
	if pos >= 0 && pos < len(out) {
		out[pos] = v
	}
	return out
}
