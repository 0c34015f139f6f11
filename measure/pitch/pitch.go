package pitch

import (
	"fmt"
	"math"
	"time"
)

// Canonical configuration shared by both strategies.
const (
	// DefaultMinFrequency and DefaultMaxFrequency bound the plausible vocal
	// range. Estimates outside it are reported as [ReasonOutOfBand].
	DefaultMinFrequency = 50.0
	DefaultMaxFrequency = 800.0

	// DefaultFrameSize is the analysis frame (and FFT) length in samples.
	DefaultFrameSize = 2048
)

// Autocorrelation defaults.
const (
	DefaultSilenceRMS = 0.01
	DefaultMinLag     = 15
	DefaultMaxLag     = 1000
	DefaultPeakRatio  = 0.9

	// DefaultFrameRate is the display-refresh cadence the time-domain
	// strategy is driven at.
	DefaultFrameRate = 60.0
)

// Spectral defaults.
const (
	// DefaultNoiseFloor is expressed on the 0..255 byte scale.
	DefaultNoiseFloor = 50.0

	DefaultSpectralInterval = 200 * time.Millisecond
)

// Frame is one snapshot of normalized time-domain samples.
type Frame struct {
	Samples    []float64
	SampleRate float64
}

// Spectrum is one snapshot of a one-sided magnitude spectrum. Magnitudes may
// use any scale as long as the noise floor is given in the same scale.
type Spectrum struct {
	Magnitudes []float64
	FFTSize    int
	SampleRate float64
}

// Reason explains why an estimate is unvoiced.
type Reason int

const (
	// ReasonNone marks a voiced estimate.
	ReasonNone Reason = iota
	// ReasonNoInput means the frame carried no samples at all.
	ReasonNoInput
	// ReasonInvalidInput covers empty frames, NaN or Inf samples and unusable
	// sample rates.
	ReasonInvalidInput
	// ReasonSilence means the frame RMS or spectral peak fell below the gate.
	ReasonSilence
	// ReasonNoPeak means no lag correlated positively.
	ReasonNoPeak
	// ReasonOutOfBand means a pitch was found outside the plausible band.
	ReasonOutOfBand
)

var reasonNames = [...]string{
	ReasonNone:         "none",
	ReasonNoInput:      "no input",
	ReasonInvalidInput: "invalid input",
	ReasonSilence:      "silence",
	ReasonNoPeak:       "no peak",
	ReasonOutOfBand:    "out of band",
}

func (r Reason) String() string {
	if r >= 0 && int(r) < len(reasonNames) {
		return reasonNames[r]
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Estimate is the result of analysing one frame.
type Estimate struct {
	// Frequency is the estimated fundamental in Hz. It is also filled in for
	// out-of-band estimates so callers can display it.
	Frequency float64
	Voiced    bool
	Reason    Reason

	// Lag is the winning autocorrelation lag, Bin the winning spectral bin.
	Lag int
	Bin int

	// Strength is the winning correlation score or peak magnitude.
	Strength float64
	// Level is the frame RMS.
	Level float64
}

func unvoiced(r Reason) Estimate {
	return Estimate{Reason: r}
}

func (e Estimate) String() string {
	if e.Voiced {
		return fmt.Sprintf("%.2f Hz", e.Frequency)
	}
	if e.Reason == ReasonOutOfBand {
		return fmt.Sprintf("unvoiced (%s, %.2f Hz)", e.Reason, e.Frequency)
	}
	return fmt.Sprintf("unvoiced (%s)", e.Reason)
}

// Estimator turns a frame into a pitch estimate.
type Estimator interface {
	Estimate(frame Frame) Estimate
}

// Method names an estimation strategy.
type Method int

const (
	// MethodAutocorrelation scores time-domain lags. It is the default.
	MethodAutocorrelation Method = iota
	// MethodSpectral picks the loudest bin of an analyser spectrum.
	MethodSpectral
)

func (m Method) String() string {
	switch m {
	case MethodAutocorrelation:
		return "autocorrelation"
	case MethodSpectral:
		return "spectral"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a strategy name back to its Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "autocorrelation", "acf":
		return MethodAutocorrelation, nil
	case "spectral", "fft":
		return MethodSpectral, nil
	default:
		return 0, fmt.Errorf("pitch: unknown method %q", name)
	}
}

// validRate reports whether sr is a usable sample rate.
func validRate(sr float64) bool {
	return sr > 0 && !math.IsInf(sr, 0)
}

func inBand(hz, lo, hi float64) bool {
	return hz >= lo && hz <= hi
}

// NewEstimator returns the named strategy with its canonical configuration.
func NewEstimator(m Method) (Estimator, error) {
	switch m {
	case MethodAutocorrelation:
		a, err := NewAutocorrelation()
		if err != nil {
			return nil, err
		}
		return a, nil
	case MethodSpectral:
		s, err := NewSpectral()
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("pitch: unknown method %v", m)
	}
}
