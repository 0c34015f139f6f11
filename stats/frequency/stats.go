// Package frequency provides statistics over one-sided magnitude spectra.
//
// Spectra are indexed by FFT bin. Bin i of an FFT of size fftSize sits at
// i * sampleRate / fftSize Hz.
package frequency

// BinFrequency returns the center frequency in Hz of bin i.
func BinFrequency(i int, sampleRate float64, fftSize int) float64 {
	if fftSize <= 0 {
		return 0
	}
	return float64(i) * sampleRate / float64(fftSize)
}

// Peak returns the index and value of the largest magnitude. Ties resolve to
// the lowest bin. An empty spectrum yields (-1, 0).
func Peak(magnitude []float64) (bin int, value float64) {
	if len(magnitude) == 0 {
		return -1, 0
	}

	bin = 0
	value = magnitude[0]
	for i, v := range magnitude[1:] {
		if v > value {
			bin = i + 1
			value = v
		}
	}

	return bin, value
}
