package spectrum

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/window"
)

// Analyser defaults, matching a freshly constructed Web Audio AnalyserNode.
const (
	DefaultFFTSize     = 2048
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0

	MinFFTSize = 32
	MaxFFTSize = 32768
)

// ErrInvalidAnalyser is returned for out-of-range analyser parameters.
var ErrInvalidAnalyser = errors.New("spectrum: invalid analyser configuration")

// AnalyserOption configures an [Analyser].
type AnalyserOption func(*analyserConfig)

type analyserConfig struct {
	smoothing float64
	minDB     float64
	maxDB     float64
	window    window.Type
	gainComp  bool
}

// WithSmoothing sets the smoothing time constant in [0, 1]. Zero disables
// smoothing across frames.
func WithSmoothing(tau float64) AnalyserOption {
	return func(c *analyserConfig) {
		c.smoothing = tau
	}
}

// WithDecibelRange sets the dB range mapped onto the byte scale 0..255.
func WithDecibelRange(minDB, maxDB float64) AnalyserOption {
	return func(c *analyserConfig) {
		c.minDB = minDB
		c.maxDB = maxDB
	}
}

// WithWindow replaces the default Blackman window.
func WithWindow(t window.Type) AnalyserOption {
	return func(c *analyserConfig) {
		c.window = t
	}
}

// WithGainCompensation divides magnitudes by the window's coherent gain, so
// a bin-centred sinusoid of amplitude A reads A/2 instead of A*gain/2.
// Byte and dB output then no longer match a browser analyser node.
func WithGainCompensation() AnalyserOption {
	return func(c *analyserConfig) {
		c.gainComp = true
	}
}

// Analyser turns time-domain frames into smoothed magnitude spectra.
//
// Each call to [Analyser.FloatFrequencyData] or [Analyser.ByteFrequencyData]
// analyses the most recent FFTSize samples of the frame (zero-padding
// shorter frames at the start) and blends the result into the running
// smoothed spectrum:
//
//	S[k] = tau*S_prev[k] + (1-tau)*|X[k]|/N
//
// An Analyser is not safe for concurrent use.
type Analyser struct {
	fftSize    int
	sampleRate float64
	cfg        analyserConfig

	plan   *algofft.Plan[complex128]
	coeffs []float64
	norm   float64

	frame    []float64
	in       []complex128
	out      []complex128
	mag      []float64
	smoothed []float64
}

// NewAnalyser creates an analyser for frames captured at sampleRate.
// fftSize must be a power of two in [MinFFTSize, MaxFFTSize].
func NewAnalyser(fftSize int, sampleRate float64, opts ...AnalyserOption) (*Analyser, error) {
	if fftSize < MinFFTSize || fftSize > MaxFFTSize || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("%w: fft size %d", ErrInvalidAnalyser, fftSize)
	}
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("%w: sample rate %v", ErrInvalidAnalyser, sampleRate)
	}

	cfg := analyserConfig{
		smoothing: DefaultSmoothing,
		minDB:     DefaultMinDecibels,
		maxDB:     DefaultMaxDecibels,
		window:    window.TypeBlackman,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if cfg.smoothing < 0 || cfg.smoothing > 1 || math.IsNaN(cfg.smoothing) {
		return nil, fmt.Errorf("%w: smoothing %v", ErrInvalidAnalyser, cfg.smoothing)
	}
	if !(cfg.minDB < cfg.maxDB) {
		return nil, fmt.Errorf("%w: decibel range [%v, %v]", ErrInvalidAnalyser, cfg.minDB, cfg.maxDB)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum: failed to create FFT plan: %w", err)
	}

	coeffs := window.Generate(cfg.window, fftSize, window.WithPeriodic())
	norm := 1 / float64(fftSize)
	if cfg.gainComp {
		gain, err := window.CoherentGain(coeffs)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidAnalyser, err)
		}
		norm /= gain
	}

	return &Analyser{
		fftSize:    fftSize,
		sampleRate: sampleRate,
		cfg:        cfg,
		plan:       plan,
		coeffs:     coeffs,
		norm:       norm,
		frame:      make([]float64, fftSize),
		in:         make([]complex128, fftSize),
		out:        make([]complex128, fftSize),
		mag:        make([]float64, fftSize),
		smoothed:   make([]float64, fftSize/2),
	}, nil
}

// FFTSize returns the transform length.
func (a *Analyser) FFTSize() int { return a.fftSize }

// SampleRate returns the sample rate the analyser was built for.
func (a *Analyser) SampleRate() float64 { return a.sampleRate }

// FrequencyBinCount returns FFTSize/2, the number of reported bins.
func (a *Analyser) FrequencyBinCount() int { return a.fftSize / 2 }

// MinDecibels returns the dB value mapped to byte 0.
func (a *Analyser) MinDecibels() float64 { return a.cfg.minDB }

// MaxDecibels returns the dB value mapped to byte 255.
func (a *Analyser) MaxDecibels() float64 { return a.cfg.maxDB }

// Reset clears the smoothing history.
func (a *Analyser) Reset() {
	clear(a.smoothed)
}

// FloatFrequencyData analyses frame and writes the smoothed spectrum in dB
// into dst (reallocated when shorter than FrequencyBinCount). Silent bins
// are -Inf.
func (a *Analyser) FloatFrequencyData(dst []float64, frame []float64) []float64 {
	a.process(frame)

	dst = core.EnsureLen(dst, len(a.smoothed))
	for k, v := range a.smoothed {
		dst[k] = linearToDB(v)
	}
	return dst
}

// ByteFrequencyData analyses frame and writes the smoothed spectrum on the
// byte scale:
//
//	b[k] = floor(255/(maxDB-minDB) * (dB[k]-minDB)), clamped to 0..255
func (a *Analyser) ByteFrequencyData(dst []uint8, frame []float64) []uint8 {
	a.process(frame)

	if cap(dst) < len(a.smoothed) {
		dst = make([]uint8, len(a.smoothed))
	}
	dst = dst[:len(a.smoothed)]

	scale := 255 / (a.cfg.maxDB - a.cfg.minDB)
	for k, v := range a.smoothed {
		dst[k] = toByte(scale * (linearToDB(v) - a.cfg.minDB))
	}
	return dst
}

func toByte(x float64) uint8 {
	if math.IsNaN(x) {
		return 0
	}
	return uint8(math.Floor(core.Clamp(x, 0, 255)))
}

func (a *Analyser) process(frame []float64) {
	if len(frame) > a.fftSize {
		frame = frame[len(frame)-a.fftSize:]
	}

	pad := a.fftSize - len(frame)
	clear(a.frame[:pad])
	core.CopyInto(a.frame[pad:], frame)
	for i := pad; i < a.fftSize; i++ {
		if !core.IsFinite(a.frame[i]) {
			a.frame[i] = 0
		}
	}

	// Lengths match by construction.
	_ = window.ApplyCoefficientsInPlace(a.frame, a.coeffs)
	for i, v := range a.frame {
		a.in[i] = complex(v, 0)
	}

	if err := a.plan.Forward(a.out, a.in); err != nil {
		// Keep the previous smoothed spectrum; nothing new was observed.
		return
	}

	magnitudeTo(a.mag, a.out)

	tau := a.cfg.smoothing
	for k := range a.smoothed {
		v := tau*a.smoothed[k] + (1-tau)*a.mag[k]*a.norm
		if !core.IsFinite(v) {
			v = 0
		}
		a.smoothed[k] = v
	}
}
