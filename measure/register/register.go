package register

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-pitch/measure/pitch"
)

// DefaultThresholdHz separates the Low and High registers.
const DefaultThresholdHz = 165.0

// ErrInvalidConfig is returned by Validate for unusable thresholds.
var ErrInvalidConfig = errors.New("register: invalid configuration")

// Label is the register classification.
type Label int

const (
	// Unset is the initial state before the first valid estimate.
	Unset Label = iota
	Low
	High
)

func (l Label) String() string {
	switch l {
	case Unset:
		return "unset"
	case Low:
		return "low"
	case High:
		return "high"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Gender returns the presentation name used by the voice game: "neutral",
// "male" or "female".
func (l Label) Gender() string {
	switch l {
	case Low:
		return "male"
	case High:
		return "female"
	default:
		return "neutral"
	}
}

// ParseLabel accepts both the register and the presentation names.
func ParseLabel(name string) (Label, error) {
	switch name {
	case "unset", "neutral", "":
		return Unset, nil
	case "low", "male":
		return Low, nil
	case "high", "female":
		return High, nil
	default:
		return Unset, fmt.Errorf("register: unknown label %q", name)
	}
}

// Config holds the classification threshold and the band an estimate must
// fall in before it can change a held label.
type Config struct {
	ThresholdHz float64
	MinHz       float64
	MaxHz       float64
}

// DefaultConfig returns the canonical configuration.
func DefaultConfig() Config {
	return Config{
		ThresholdHz: DefaultThresholdHz,
		MinHz:       pitch.DefaultMinFrequency,
		MaxHz:       pitch.DefaultMaxFrequency,
	}
}

// Validate reports every unusable field.
func (c Config) Validate() error {
	var errs []error

	if !(c.MinHz >= 0) || !(c.MaxHz > c.MinHz) || math.IsInf(c.MaxHz, 0) {
		errs = append(errs, fmt.Errorf("band [%v, %v] must satisfy 0 <= min < max", c.MinHz, c.MaxHz))
	}
	if !(c.ThresholdHz > c.MinHz && c.ThresholdHz <= c.MaxHz) {
		errs = append(errs, fmt.Errorf("threshold %v Hz must lie in (%v, %v]", c.ThresholdHz, c.MinHz, c.MaxHz))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Classify returns Low for hz strictly below the threshold, High otherwise.
// It ignores the band; use [Config.InBand] or a [Tracker] to gate estimates.
func (c Config) Classify(hz float64) Label {
	if hz < c.ThresholdHz {
		return Low
	}
	return High
}

// InBand reports whether hz lies in [MinHz, MaxHz].
func (c Config) InBand(hz float64) bool {
	return hz >= c.MinHz && hz <= c.MaxHz
}

// Accepts reports whether est may update a held label.
func (c Config) Accepts(est pitch.Estimate) bool {
	return est.Voiced && c.InBand(est.Frequency)
}

// Tracker holds the last good label. It is safe for concurrent use.
type Tracker struct {
	cfg Config

	mu    sync.Mutex
	label Label
}

// NewTracker returns a Tracker in the Unset state.
func NewTracker(cfg Config) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracker{cfg: cfg}, nil
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config { return t.cfg }

// Update classifies est and returns the held label. changed reports whether
// the label differs from the one held before the call. Unvoiced and
// out-of-band estimates leave the label untouched.
func (t *Tracker) Update(est pitch.Estimate) (label Label, changed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.cfg.Accepts(est) {
		return t.label, false
	}

	next := t.cfg.Classify(est.Frequency)
	changed = next != t.label
	t.label = next
	return next, changed
}

// Label returns the held label.
func (t *Tracker) Label() Label {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.label
}

// Reset returns the tracker to Unset, as at the start of a new listening
// turn.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.label = Unset
	t.mu.Unlock()
}
