package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-pitch/session"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. Fields missing from the file keep their [Default] values.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. Unknown keys are rejected.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q is invalid; valid values: text, json", cfg.Log.Format))
	}

	if _, err := cfg.PitchMethod(); err != nil {
		errs = append(errs, fmt.Errorf("method: %w", err))
	}

	if !(cfg.Capture.SampleRate > 0) {
		errs = append(errs, fmt.Errorf("capture.sample_rate %v must be positive", cfg.Capture.SampleRate))
	}
	if cfg.Capture.FrameSize <= 0 {
		errs = append(errs, fmt.Errorf("capture.frame_size %d must be positive", cfg.Capture.FrameSize))
	}
	if cfg.Capture.Interval < 0 {
		errs = append(errs, fmt.Errorf("capture.interval %v must not be negative", cfg.Capture.Interval))
	}
	if !(cfg.Capture.FrameRate >= 0 && cfg.Capture.FrameRate <= session.MaxFrameRate) {
		errs = append(errs, fmt.Errorf("capture.frame_rate %v must be in [0, %d]", cfg.Capture.FrameRate, session.MaxFrameRate))
	}

	if err := cfg.RegisterConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("register: %w", err))
	}

	if ac, err := cfg.AutocorrelationConfig(); err != nil {
		errs = append(errs, fmt.Errorf("autocorrelation: %w", err))
	} else if err := ac.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("autocorrelation: %w", err))
	}

	if err := cfg.SpectralConfig().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spectral: %w", err))
	}

	return errors.Join(errs...)
}
