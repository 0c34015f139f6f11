// Package config loads the YAML configuration of the pitch probe and turns
// it into estimator, register and session settings.
package config

import (
	"io"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-pitch/measure/pitch"
	"github.com/cwbudde/algo-pitch/measure/register"
	"github.com/cwbudde/algo-pitch/session"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Config is the top-level configuration document.
type Config struct {
	Log LogConfig `yaml:"log"`

	// Method selects the estimator: "autocorrelation" or "spectral".
	Method string `yaml:"method"`

	Capture         CaptureConfig         `yaml:"capture"`
	Autocorrelation AutocorrelationConfig `yaml:"autocorrelation"`
	Spectral        SpectralConfig        `yaml:"spectral"`
	Register        RegisterConfig        `yaml:"register"`
	Metrics         MetricsConfig         `yaml:"metrics"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level LogLevel `yaml:"level"`
	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// CaptureConfig describes the incoming audio and the polling cadence.
type CaptureConfig struct {
	SampleRate float64 `yaml:"sample_rate"`
	FrameSize  int     `yaml:"frame_size"`

	// Interval polls on a fixed timer. When zero, FrameRate is used, and
	// when both are zero the method's natural cadence applies.
	Interval  time.Duration `yaml:"interval"`
	FrameRate float64       `yaml:"frame_rate"`
}

// AutocorrelationConfig mirrors [pitch.AutocorrelationConfig].
type AutocorrelationConfig struct {
	SilenceRMS float64 `yaml:"silence_rms"`
	MinLag     int     `yaml:"min_lag"`
	MaxLag     int     `yaml:"max_lag"`
	PeakRatio  float64 `yaml:"peak_ratio"`
	Score      string  `yaml:"score"`
	UseFFT     bool    `yaml:"use_fft"`
}

// SpectralConfig mirrors [pitch.SpectralConfig].
type SpectralConfig struct {
	NoiseFloor float64 `yaml:"noise_floor"`
	FFTSize    int     `yaml:"fft_size"`
	Smoothing  float64 `yaml:"smoothing"`
}

// RegisterConfig holds the classification threshold and vocal band. The
// band applies to both estimators.
type RegisterConfig struct {
	ThresholdHz float64 `yaml:"threshold_hz"`
	MinHz       float64 `yaml:"min_hz"`
	MaxHz       float64 `yaml:"max_hz"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address serving /metrics. Empty disables the endpoint.
	Listen string `yaml:"listen"`
}

// Default returns the canonical configuration.
func Default() *Config {
	ac := pitch.DefaultAutocorrelationConfig()
	sp := pitch.DefaultSpectralConfig()
	reg := register.DefaultConfig()

	return &Config{
		Log:    LogConfig{Level: LogInfo, Format: "text"},
		Method: pitch.MethodAutocorrelation.String(),
		Capture: CaptureConfig{
			SampleRate: 44100,
			FrameSize:  pitch.DefaultFrameSize,
		},
		Autocorrelation: AutocorrelationConfig{
			SilenceRMS: ac.SilenceRMS,
			MinLag:     ac.MinLag,
			MaxLag:     ac.MaxLag,
			PeakRatio:  ac.PeakRatio,
			Score:      ac.Score.String(),
		},
		Spectral: SpectralConfig{
			NoiseFloor: sp.NoiseFloor,
			FFTSize:    sp.FFTSize,
			Smoothing:  sp.Smoothing,
		},
		Register: RegisterConfig{
			ThresholdHz: reg.ThresholdHz,
			MinHz:       reg.MinHz,
			MaxHz:       reg.MaxHz,
		},
	}
}

// PitchMethod returns the parsed estimator method.
func (c *Config) PitchMethod() (pitch.Method, error) {
	return pitch.ParseMethod(c.Method)
}

// RegisterConfig returns the classification settings.
func (c *Config) RegisterConfig() register.Config {
	return register.Config{
		ThresholdHz: c.Register.ThresholdHz,
		MinHz:       c.Register.MinHz,
		MaxHz:       c.Register.MaxHz,
	}
}

// AutocorrelationConfig returns the time-domain estimator settings.
func (c *Config) AutocorrelationConfig() (pitch.AutocorrelationConfig, error) {
	score, err := pitch.ParseScoreMode(c.Autocorrelation.Score)
	if err != nil {
		return pitch.AutocorrelationConfig{}, err
	}
	return pitch.AutocorrelationConfig{
		SilenceRMS:   c.Autocorrelation.SilenceRMS,
		MinLag:       c.Autocorrelation.MinLag,
		MaxLag:       c.Autocorrelation.MaxLag,
		PeakRatio:    c.Autocorrelation.PeakRatio,
		Score:        score,
		MinFrequency: c.Register.MinHz,
		MaxFrequency: c.Register.MaxHz,
		UseFFT:       c.Autocorrelation.UseFFT,
	}, nil
}

// SpectralConfig returns the peak-bin estimator settings.
func (c *Config) SpectralConfig() pitch.SpectralConfig {
	return pitch.SpectralConfig{
		NoiseFloor:   c.Spectral.NoiseFloor,
		MinFrequency: c.Register.MinHz,
		MaxFrequency: c.Register.MaxHz,
		FFTSize:      c.Spectral.FFTSize,
		Smoothing:    c.Spectral.Smoothing,
	}
}

// Estimator builds the configured estimator.
func (c *Config) Estimator() (pitch.Estimator, error) {
	m, err := c.PitchMethod()
	if err != nil {
		return nil, err
	}

	if m == pitch.MethodSpectral {
		est, err := pitch.NewSpectralFromConfig(c.SpectralConfig())
		if err != nil {
			return nil, err
		}
		return est, nil
	}

	ac, err := c.AutocorrelationConfig()
	if err != nil {
		return nil, err
	}
	est, err := pitch.NewAutocorrelationFromConfig(ac)
	if err != nil {
		return nil, err
	}
	return est, nil
}

// Cadence returns the polling cadence.
func (c *Config) Cadence() session.Cadence {
	switch {
	case c.Capture.Interval > 0:
		return session.Every(c.Capture.Interval)
	case c.Capture.FrameRate > 0:
		return session.FrameRate(c.Capture.FrameRate)
	}

	m, err := c.PitchMethod()
	if err != nil {
		m = pitch.MethodAutocorrelation
	}
	return session.DefaultCadence(m)
}

// Logger builds a slog logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Log.Level.slogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
