package pitch

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-pitch/dsp/conv"
	"github.com/cwbudde/algo-pitch/dsp/core"
	timestats "github.com/cwbudde/algo-pitch/stats/time"
)

// ErrInvalidConfig is returned by constructors for unusable parameters.
var ErrInvalidConfig = errors.New("pitch: invalid configuration")

// ScoreMode selects how raw lag sums are normalized before comparison.
type ScoreMode int

const (
	// ScoreOverlapMean divides each lag sum by the number of overlapping
	// samples: sum(x[i]*x[i+lag]) / (N-lag).
	ScoreOverlapMean ScoreMode = iota
	// ScoreEnergy divides each lag sum by the geometric mean of the energies
	// of the two overlapping segments, yielding a correlation coefficient
	// in [-1, 1]. It stays within one lag of the true period for low tones
	// where the overlap mean drifts.
	ScoreEnergy
)

func (m ScoreMode) String() string {
	switch m {
	case ScoreOverlapMean:
		return "overlap-mean"
	case ScoreEnergy:
		return "energy"
	default:
		return fmt.Sprintf("ScoreMode(%d)", int(m))
	}
}

// ParseScoreMode maps a score mode name back to its ScoreMode.
func ParseScoreMode(name string) (ScoreMode, error) {
	switch name {
	case "overlap-mean", "mean", "":
		return ScoreOverlapMean, nil
	case "energy":
		return ScoreEnergy, nil
	default:
		return 0, fmt.Errorf("pitch: unknown score mode %q", name)
	}
}

// AutocorrelationConfig holds the parameters of the time-domain strategy.
type AutocorrelationConfig struct {
	// SilenceRMS gates frames before correlation.
	SilenceRMS float64
	// MinLag and MaxLag bound the lag scan [MinLag, MaxLag). The scan also
	// stops at N/2 for an N-sample frame, so every lag overlaps at least
	// half the frame.
	MinLag int
	MaxLag int
	// PeakRatio picks the first local maximum reaching PeakRatio times the
	// global maximum. 1 selects the plain arg-max.
	PeakRatio float64
	Score     ScoreMode

	MinFrequency float64
	MaxFrequency float64

	// UseFFT computes lag sums through an FFT instead of the direct loop.
	UseFFT bool
}

// DefaultAutocorrelationConfig returns the canonical configuration.
func DefaultAutocorrelationConfig() AutocorrelationConfig {
	return AutocorrelationConfig{
		SilenceRMS:   DefaultSilenceRMS,
		MinLag:       DefaultMinLag,
		MaxLag:       DefaultMaxLag,
		PeakRatio:    DefaultPeakRatio,
		Score:        ScoreOverlapMean,
		MinFrequency: DefaultMinFrequency,
		MaxFrequency: DefaultMaxFrequency,
	}
}

// Validate reports every unusable field.
func (c AutocorrelationConfig) Validate() error {
	var errs []error

	if c.SilenceRMS < 0 || math.IsNaN(c.SilenceRMS) {
		errs = append(errs, fmt.Errorf("silence RMS %v must be >= 0", c.SilenceRMS))
	}
	if c.MinLag < 1 {
		errs = append(errs, fmt.Errorf("min lag %d must be >= 1", c.MinLag))
	}
	if c.MaxLag <= c.MinLag {
		errs = append(errs, fmt.Errorf("max lag %d must exceed min lag %d", c.MaxLag, c.MinLag))
	}
	if !(c.PeakRatio > 0 && c.PeakRatio <= 1) {
		errs = append(errs, fmt.Errorf("peak ratio %v must be in (0, 1]", c.PeakRatio))
	}
	if c.Score != ScoreOverlapMean && c.Score != ScoreEnergy {
		errs = append(errs, fmt.Errorf("unknown score mode %d", int(c.Score)))
	}
	if err := validateBand(c.MinFrequency, c.MaxFrequency); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func validateBand(lo, hi float64) error {
	if !(lo >= 0) || !(hi > lo) || math.IsInf(hi, 0) {
		return fmt.Errorf("band [%v, %v] must satisfy 0 <= min < max", lo, hi)
	}
	return nil
}

// AutocorrelationOption mutates an AutocorrelationConfig.
type AutocorrelationOption func(*AutocorrelationConfig)

// WithSilenceThreshold sets the RMS gate.
func WithSilenceThreshold(rms float64) AutocorrelationOption {
	return func(c *AutocorrelationConfig) {
		c.SilenceRMS = rms
	}
}

// WithLagRange sets the lag scan [minLag, maxLag).
func WithLagRange(minLag, maxLag int) AutocorrelationOption {
	return func(c *AutocorrelationConfig) {
		c.MinLag = minLag
		c.MaxLag = maxLag
	}
}

// WithPeakRatio sets the octave guard ratio.
func WithPeakRatio(ratio float64) AutocorrelationOption {
	return func(c *AutocorrelationConfig) {
		c.PeakRatio = ratio
	}
}

// WithScore selects the lag normalization.
func WithScore(mode ScoreMode) AutocorrelationOption {
	return func(c *AutocorrelationConfig) {
		c.Score = mode
	}
}

// WithBand sets the plausible frequency range.
func WithBand(minHz, maxHz float64) AutocorrelationOption {
	return func(c *AutocorrelationConfig) {
		c.MinFrequency = minHz
		c.MaxFrequency = maxHz
	}
}

// WithFFT enables FFT-backed correlation.
func WithFFT(enabled bool) AutocorrelationOption {
	return func(c *AutocorrelationConfig) {
		c.UseFFT = enabled
	}
}

// Autocorrelation estimates pitch from the strongest lag of the frame's
// autocorrelation.
type Autocorrelation struct {
	cfg AutocorrelationConfig

	ac     *conv.Autocorrelator
	raw    []float64
	scores []float64
	energy []float64
}

var _ Estimator = (*Autocorrelation)(nil)

// NewAutocorrelation creates a time-domain estimator.
func NewAutocorrelation(opts ...AutocorrelationOption) (*Autocorrelation, error) {
	cfg := DefaultAutocorrelationConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return NewAutocorrelationFromConfig(cfg)
}

// NewAutocorrelationFromConfig creates a time-domain estimator from a
// complete configuration.
func NewAutocorrelationFromConfig(cfg AutocorrelationConfig) (*Autocorrelation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Autocorrelation{cfg: cfg}, nil
}

// Config returns the estimator configuration.
func (a *Autocorrelation) Config() AutocorrelationConfig { return a.cfg }

// Estimate implements [Estimator].
func (a *Autocorrelation) Estimate(frame Frame) Estimate {
	if frame.Samples == nil {
		return unvoiced(ReasonNoInput)
	}
	x := frame.Samples
	if len(x) == 0 || !validRate(frame.SampleRate) {
		return unvoiced(ReasonInvalidInput)
	}

	level := timestats.Measure(x)
	if !level.Finite {
		return unvoiced(ReasonInvalidInput)
	}

	est := Estimate{Level: level.RMS}
	if level.RMS < a.cfg.SilenceRMS {
		est.Reason = ReasonSilence
		return est
	}

	n := len(x)
	upper := min(a.cfg.MaxLag, maxScanLag(n)+1)
	if upper <= a.cfg.MinLag {
		est.Reason = ReasonNoPeak
		return est
	}

	a.correlate(x, upper-1)
	a.score(x, upper)

	lag, strength := a.pick(upper)
	if lag < 0 {
		est.Reason = ReasonNoPeak
		return est
	}

	est.Lag = lag
	est.Strength = strength
	est.Frequency = frame.SampleRate / float64(lag)

	if !inBand(est.Frequency, a.cfg.MinFrequency, a.cfg.MaxFrequency) {
		est.Reason = ReasonOutOfBand
		return est
	}

	est.Voiced = true
	return est
}

// maxScanLag is the longest lag scanned in an n-sample frame. Means over
// shorter overlaps are too noisy to compete with the true period.
func maxScanLag(n int) int { return n / 2 }

// correlate fills a.raw with lag sums 0..maxLag.
func (a *Autocorrelation) correlate(x []float64, maxLag int) {
	if !a.cfg.UseFFT {
		a.raw = core.EnsureLen(a.raw, maxLag+1)
		for k := a.cfg.MinLag; k <= maxLag; k++ {
			var sum float64
			for i := 0; i < len(x)-k; i++ {
				sum += x[i] * x[i+k]
			}
			a.raw[k] = sum
		}
		return
	}

	if a.ac == nil || a.ac.FrameLen() < len(x) || a.ac.MaxLag() < maxLag {
		ac, err := conv.NewAutocorrelator(len(x), maxLag)
		if err != nil {
			// Only reachable with an empty frame, which Estimate rejects.
			a.raw = core.EnsureLen(a.raw, maxLag+1)
			return
		}
		a.ac = ac
	}

	a.raw = a.ac.Compute(a.raw, x)
}

// score normalizes a.raw into a.scores for lags [MinLag, upper).
func (a *Autocorrelation) score(x []float64, upper int) {
	n := len(x)
	a.scores = core.EnsureLen(a.scores, upper)

	switch a.cfg.Score {
	case ScoreEnergy:
		// energy[k] = sum(x[0:k]^2)
		a.energy = core.EnsureLen(a.energy, n+1)
		a.energy[0] = 0
		for i, v := range x {
			a.energy[i+1] = a.energy[i] + v*v
		}
		total := a.energy[n]

		for lag := a.cfg.MinLag; lag < upper; lag++ {
			head := a.energy[n-lag]
			tail := total - a.energy[lag]
			d := math.Sqrt(head * tail)
			if d > 0 {
				a.scores[lag] = a.raw[lag] / d
			} else {
				a.scores[lag] = 0
			}
		}
	default:
		for lag := a.cfg.MinLag; lag < upper; lag++ {
			a.scores[lag] = a.raw[lag] / float64(n-lag)
		}
	}
}

// pick returns the winning lag and its score, or -1 when no lag correlates
// positively.
func (a *Autocorrelation) pick(upper int) (int, float64) {
	lo := a.cfg.MinLag

	best, bestScore := -1, 0.0
	for lag := lo; lag < upper; lag++ {
		if s := a.scores[lag]; s > bestScore {
			best, bestScore = lag, s
		}
	}
	if best < 0 {
		return -1, 0
	}
	if a.cfg.PeakRatio >= 1 {
		return best, bestScore
	}

	// Octave guard: a periodic signal correlates almost equally well at
	// every multiple of its period, so take the first local maximum that is
	// nearly as strong as the global one.
	floor := a.cfg.PeakRatio * bestScore
	for lag := lo + 1; lag < upper-1; lag++ {
		s := a.scores[lag]
		if s > a.scores[lag-1] && s >= a.scores[lag+1] && s >= floor {
			return lag, s
		}
	}

	return best, bestScore
}
