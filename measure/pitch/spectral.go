package pitch

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-pitch/dsp/spectrum"
	"github.com/cwbudde/algo-pitch/stats/frequency"
	timestats "github.com/cwbudde/algo-pitch/stats/time"
)

// SpectralConfig holds the parameters of the peak-bin strategy.
type SpectralConfig struct {
	// NoiseFloor rejects peaks below it. When frames are analysed through
	// [Spectral.Estimate] it is on the analyser's 0..255 byte scale.
	NoiseFloor   float64
	MinFrequency float64
	MaxFrequency float64

	// FFTSize and Smoothing configure the internal analyser used by
	// [Spectral.Estimate].
	FFTSize   int
	Smoothing float64
}

// DefaultSpectralConfig returns the canonical configuration.
func DefaultSpectralConfig() SpectralConfig {
	return SpectralConfig{
		NoiseFloor:   DefaultNoiseFloor,
		MinFrequency: DefaultMinFrequency,
		MaxFrequency: DefaultMaxFrequency,
		FFTSize:      DefaultFrameSize,
		Smoothing:    spectrum.DefaultSmoothing,
	}
}

// Validate reports every unusable field.
func (c SpectralConfig) Validate() error {
	var errs []error

	if c.NoiseFloor < 0 || math.IsNaN(c.NoiseFloor) {
		errs = append(errs, fmt.Errorf("noise floor %v must be >= 0", c.NoiseFloor))
	}
	if err := validateBand(c.MinFrequency, c.MaxFrequency); err != nil {
		errs = append(errs, err)
	}
	if c.FFTSize < spectrum.MinFFTSize || c.FFTSize > spectrum.MaxFFTSize || c.FFTSize&(c.FFTSize-1) != 0 {
		errs = append(errs, fmt.Errorf("fft size %d must be a power of two in [%d, %d]",
			c.FFTSize, spectrum.MinFFTSize, spectrum.MaxFFTSize))
	}
	if !(c.Smoothing >= 0 && c.Smoothing <= 1) {
		errs = append(errs, fmt.Errorf("smoothing %v must be in [0, 1]", c.Smoothing))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// SpectralOption mutates a SpectralConfig.
type SpectralOption func(*SpectralConfig)

// WithNoiseFloor sets the minimum accepted peak magnitude.
func WithNoiseFloor(floor float64) SpectralOption {
	return func(c *SpectralConfig) {
		c.NoiseFloor = floor
	}
}

// WithSpectralBand sets the plausible frequency range.
func WithSpectralBand(minHz, maxHz float64) SpectralOption {
	return func(c *SpectralConfig) {
		c.MinFrequency = minHz
		c.MaxFrequency = maxHz
	}
}

// WithFFTSize sets the analyser transform length.
func WithFFTSize(n int) SpectralOption {
	return func(c *SpectralConfig) {
		c.FFTSize = n
	}
}

// WithAnalyserSmoothing sets the analyser smoothing time constant.
func WithAnalyserSmoothing(tau float64) SpectralOption {
	return func(c *SpectralConfig) {
		c.Smoothing = tau
	}
}

// Spectral estimates pitch from the loudest bin of a magnitude spectrum.
//
// Time-domain frames passed to [Spectral.Estimate] go through a
// [spectrum.Analyser], so successive frames are smoothed the same way a
// browser analyser node smooths them. Use [Spectral.Reset] between
// unrelated streams.
type Spectral struct {
	cfg SpectralConfig

	analyser *spectrum.Analyser
	bytes    []uint8
	mags     []float64
}

var _ Estimator = (*Spectral)(nil)

// NewSpectral creates a peak-bin estimator.
func NewSpectral(opts ...SpectralOption) (*Spectral, error) {
	cfg := DefaultSpectralConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return NewSpectralFromConfig(cfg)
}

// NewSpectralFromConfig creates a peak-bin estimator from a complete
// configuration.
func NewSpectralFromConfig(cfg SpectralConfig) (*Spectral, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Spectral{cfg: cfg}, nil
}

// Config returns the estimator configuration.
func (s *Spectral) Config() SpectralConfig { return s.cfg }

// EstimateSpectrum picks the loudest bin of sp:
//
//	hz = bin * sampleRate / fftSize
//
// and rejects it below the noise floor or outside the band.
func (s *Spectral) EstimateSpectrum(sp Spectrum) Estimate {
	if sp.Magnitudes == nil {
		return unvoiced(ReasonNoInput)
	}
	if len(sp.Magnitudes) == 0 || sp.FFTSize <= 0 || !validRate(sp.SampleRate) {
		return unvoiced(ReasonInvalidInput)
	}
	if !timestats.AllFinite(sp.Magnitudes) {
		return unvoiced(ReasonInvalidInput)
	}

	bin, peak := frequency.Peak(sp.Magnitudes)
	est := Estimate{Bin: bin, Strength: peak}

	if peak < s.cfg.NoiseFloor {
		est.Reason = ReasonSilence
		return est
	}

	est.Frequency = frequency.BinFrequency(bin, sp.SampleRate, sp.FFTSize)
	if !inBand(est.Frequency, s.cfg.MinFrequency, s.cfg.MaxFrequency) {
		est.Reason = ReasonOutOfBand
		return est
	}

	est.Voiced = true
	return est
}

// Estimate implements [Estimator]. The frame is analysed into byte-scale
// magnitudes first; frames longer than FFTSize contribute their most recent
// FFTSize samples.
func (s *Spectral) Estimate(frame Frame) Estimate {
	if frame.Samples == nil {
		return unvoiced(ReasonNoInput)
	}
	if len(frame.Samples) == 0 || !validRate(frame.SampleRate) {
		return unvoiced(ReasonInvalidInput)
	}

	level := timestats.Measure(frame.Samples)
	if !level.Finite {
		return unvoiced(ReasonInvalidInput)
	}

	if s.analyser == nil || s.analyser.SampleRate() != frame.SampleRate {
		a, err := spectrum.NewAnalyser(s.cfg.FFTSize, frame.SampleRate,
			spectrum.WithSmoothing(s.cfg.Smoothing))
		if err != nil {
			return unvoiced(ReasonInvalidInput)
		}
		s.analyser = a
	}

	s.bytes = s.analyser.ByteFrequencyData(s.bytes, frame.Samples)
	if cap(s.mags) < len(s.bytes) {
		s.mags = make([]float64, len(s.bytes))
	}
	s.mags = s.mags[:len(s.bytes)]
	for k, b := range s.bytes {
		s.mags[k] = float64(b)
	}

	est := s.EstimateSpectrum(Spectrum{
		Magnitudes: s.mags,
		FFTSize:    s.cfg.FFTSize,
		SampleRate: frame.SampleRate,
	})
	est.Level = level.RMS
	return est
}

// Reset clears the analyser smoothing history.
func (s *Spectral) Reset() {
	if s.analyser != nil {
		s.analyser.Reset()
	}
}
