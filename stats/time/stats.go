// Package time provides time-domain level statistics for analysis frames.
package time

import "math"

// Level summarizes one analysis frame in a single pass.
//
//nolint:revive
type Level struct {
	Length        int
	DC            float64 // mean
	RMS           float64
	RMS_dB        float64
	Peak          float64 // max |x|
	Peak_dB       float64
	ZeroCrossings int
	// Finite is false when the frame contains NaN or ±Inf. All other fields
	// are zero in that case.
	Finite bool
}

// ampTodB converts an amplitude value to decibels: 20 * log10(|value|).
// Returns -Inf for zero values.
func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}

// Measure computes the level statistics of signal. An empty signal yields a
// finite, silent Level.
func Measure(signal []float64) Level {
	n := len(signal)
	if n == 0 {
		return Level{RMS_dB: math.Inf(-1), Peak_dB: math.Inf(-1), Finite: true}
	}

	var (
		sum           float64
		sumSq         float64
		peak          float64
		zeroCrossings int
	)

	for i, x := range signal {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return Level{Length: n}
		}

		sum += x
		sumSq += x * x

		if a := math.Abs(x); a > peak {
			peak = a
		}

		if i > 0 && signal[i-1]*x < 0 {
			zeroCrossings++
		}
	}

	nf := float64(n)
	rms := math.Sqrt(sumSq / nf)

	return Level{
		Length:        n,
		DC:            sum / nf,
		RMS:           rms,
		RMS_dB:        ampTodB(rms),
		Peak:          peak,
		Peak_dB:       ampTodB(peak),
		ZeroCrossings: zeroCrossings,
		Finite:        true,
	}
}

// RMS returns the root-mean-square of the signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// DC returns the mean (DC offset) of the signal.
func DC(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	// Kahan summation.
	var sum, c float64
	for _, x := range signal {
		y := x - c
		t := sum + y
		c = (t - sum) - y
		sum = t
	}

	return sum / float64(len(signal))
}

// Peak returns the peak absolute amplitude of the signal.
func Peak(signal []float64) float64 {
	var peak float64
	for _, x := range signal {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}

	return peak
}

// ZeroCrossings returns the number of zero crossings in the signal.
// A crossing is counted when consecutive samples have opposite signs.
func ZeroCrossings(signal []float64) int {
	var count int

	for i := 1; i < len(signal); i++ {
		if signal[i-1]*signal[i] < 0 {
			count++
		}
	}

	return count
}

// AllFinite reports whether every sample is neither NaN nor ±Inf.
func AllFinite(signal []float64) bool {
	for _, x := range signal {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}

	return true
}
