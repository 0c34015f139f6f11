package signal

import "math"

// Oscillator is a phase-continuous harmonic tone source. Successive calls to
// Fill continue the waveform where the previous call stopped, so it can feed
// a capture stream one frame at a time.
type Oscillator struct {
	step      float64
	amplitude float64
	harmonics int
	phase     float64
}

// NewOscillator returns an oscillator at freqHz. harmonics < 1 is treated as 1
// (a pure sine).
func NewOscillator(sampleRate, freqHz, amplitude float64, harmonics int) *Oscillator {
	if harmonics < 1 {
		harmonics = 1
	}
	step := 0.0
	if sampleRate > 0 {
		step = 2 * math.Pi * freqHz / sampleRate
	}
	return &Oscillator{
		step:      step,
		amplitude: amplitude,
		harmonics: harmonics,
	}
}

// Fill writes the next len(dst) samples into dst.
func (o *Oscillator) Fill(dst []float64) {
	for i := range dst {
		phase := o.phase + o.step*float64(i)
		v := 0.0
		for k := 1; k <= o.harmonics; k++ {
			v += math.Sin(phase*float64(k)) / float64(k)
		}
		dst[i] = o.amplitude * v
	}
	o.phase = math.Mod(o.phase+o.step*float64(len(dst)), 2*math.Pi)
}

// Reset rewinds the oscillator to phase zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}
