package signal

import (
	"fmt"
	"math/rand"

	"github.com/cwbudde/algo-pitch/dsp/core"
)

// Generator creates deterministic test signals from a shared configuration.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets deterministic random seed for noise generation.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...core.ProcessorOption) *Generator {
	return &Generator{
		cfg:  core.ApplyProcessorOptions(opts...),
		seed: 1,
	}
}

// NewGeneratorWithOptions creates a configured signal generator with signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := NewGenerator(coreOpts...)
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Sine generates a sine wave.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if err := g.validate("sine", samples); err != nil {
		return nil, err
	}
	out := make([]float64, samples)
	NewOscillator(g.cfg.SampleRate, freqHz, amplitude, 1).Fill(out)
	return out, nil
}

// Voiced generates a harmonic tone with fundamental f0 and the given number
// of harmonics. Harmonic k has amplitude amplitude/k, which approximates the
// spectral tilt of a sustained vowel.
func (g *Generator) Voiced(f0, amplitude float64, harmonics, samples int) ([]float64, error) {
	if err := g.validate("voiced", samples); err != nil {
		return nil, err
	}
	if harmonics <= 0 {
		return nil, fmt.Errorf("voiced harmonics must be > 0: %d", harmonics)
	}
	out := make([]float64, samples)
	NewOscillator(g.cfg.SampleRate, f0, amplitude, harmonics).Fill(out)
	return out, nil
}

// Silence returns an all-zero frame.
func (g *Generator) Silence(samples int) ([]float64, error) {
	if err := g.validate("silence", samples); err != nil {
		return nil, err
	}
	return make([]float64, samples), nil
}

// WhiteNoise generates deterministic white noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f", amplitude)
	}
	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out, nil
}

func (g *Generator) validate(kind string, samples int) error {
	if samples <= 0 {
		return fmt.Errorf("%s samples must be > 0: %d", kind, samples)
	}
	if g.cfg.SampleRate <= 0 {
		return fmt.Errorf("%s sample rate must be > 0: %f", kind, g.cfg.SampleRate)
	}
	return nil
}

// Mix returns the sample-wise sum of a and b. The shorter input is treated as
// zero-padded.
func Mix(a, b []float64) []float64 {
	n := max(len(a), len(b))
	out := make([]float64, n)
	copy(out, a)
	for i, v := range b {
		out[i] += v
	}
	return out
}
