package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-pitch/internal/config"
	"github.com/cwbudde/algo-pitch/measure/pitch"
)

func TestLoadFromReader_EmptyUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Method != "autocorrelation" || cfg.Register.ThresholdHz != 165 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Autocorrelation.MinLag != 15 || cfg.Autocorrelation.MaxLag != 1000 {
		t.Fatalf("lag defaults: %+v", cfg.Autocorrelation)
	}
	if cfg.Spectral.NoiseFloor != 50 || cfg.Spectral.FFTSize != 2048 {
		t.Fatalf("spectral defaults: %+v", cfg.Spectral)
	}
	if got := cfg.Cadence().Interval(); got != time.Second/60 {
		t.Fatalf("default cadence %v want 1/60 s", got)
	}
}

func TestLoadFromReader_Overrides(t *testing.T) {
	t.Parallel()
	yaml := `
log:
  level: debug
  format: json
method: spectral
capture:
  sample_rate: 48000
  interval: 100ms
spectral:
  noise_floor: 100
register:
  threshold_hz: 180
  max_hz: 500
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Capture.Interval != 100*time.Millisecond {
		t.Errorf("interval=%v", cfg.Capture.Interval)
	}
	if cfg.Capture.FrameSize != 2048 {
		t.Errorf("frame size default lost: %d", cfg.Capture.FrameSize)
	}
	if got := cfg.Cadence().Interval(); got != 100*time.Millisecond {
		t.Errorf("cadence=%v", got)
	}

	reg := cfg.RegisterConfig()
	if reg.ThresholdHz != 180 || reg.MinHz != 50 || reg.MaxHz != 500 {
		t.Errorf("register=%+v", reg)
	}

	est, err := cfg.Estimator()
	if err != nil {
		t.Fatalf("Estimator: %v", err)
	}
	sp, ok := est.(*pitch.Spectral)
	if !ok {
		t.Fatalf("estimator %T want *pitch.Spectral", est)
	}
	if sp.Config().NoiseFloor != 100 || sp.Config().MaxFrequency != 500 {
		t.Errorf("spectral config=%+v", sp.Config())
	}

	var buf bytes.Buffer
	cfg.Logger(&buf).Debug("hello", "k", 1)
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("json debug log missing: %q", buf.String())
	}
}

func TestLoadFromReader_AutocorrelationEstimator(t *testing.T) {
	t.Parallel()
	yaml := `
autocorrelation:
  score: energy
  use_fft: true
  peak_ratio: 0.85
capture:
  frame_rate: 30
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	est, err := cfg.Estimator()
	if err != nil {
		t.Fatalf("Estimator: %v", err)
	}
	ac, ok := est.(*pitch.Autocorrelation)
	if !ok {
		t.Fatalf("estimator %T want *pitch.Autocorrelation", est)
	}
	got := ac.Config()
	if got.Score != pitch.ScoreEnergy || !got.UseFFT || got.PeakRatio != 0.85 || got.MaxFrequency != 800 {
		t.Errorf("autocorrelation config=%+v", got)
	}
	if cfg.Cadence().String() != "30 fps" {
		t.Errorf("cadence=%v", cfg.Cadence())
	}
}

func TestLoadFromReader_RejectsUnknownKeys(t *testing.T) {
	t.Parallel()
	yaml := `
register:
  treshold_hz: 170
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for misspelled key, got nil")
	}
	if !strings.Contains(err.Error(), "treshold_hz") {
		t.Errorf("error should name the unknown key, got: %v", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()
	yaml := `
log:
  level: loud
method: yin
capture:
  sample_rate: 0
register:
  threshold_hz: 900
autocorrelation:
  score: median
spectral:
  fft_size: 1000
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, want := range []string{"log.level", "method", "capture.sample_rate", "register", "score mode", "fft size"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %q, got: %v", want, err)
		}
	}
}

func TestValidate_InconsistentBand(t *testing.T) {
	t.Parallel()
	yaml := `
register:
  min_hz: 300
  max_hz: 200
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil || !strings.Contains(err.Error(), "band") {
		t.Fatalf("expected band error, got %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "pitch.yaml")
	if err := os.WriteFile(path, []byte("method: spectral\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Method != "spectral" {
		t.Fatalf("method=%q", cfg.Method)
	}
	if cfg.Cadence().Interval() != 200*time.Millisecond {
		t.Fatalf("spectral cadence=%v", cfg.Cadence().Interval())
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_FrameRateBounds(t *testing.T) {
	t.Parallel()

	for _, rate := range []string{"3e9", ".inf", ".nan", "-1", "1001"} {
		yaml := "capture:\n  frame_rate: " + rate + "\n"
		_, err := config.LoadFromReader(strings.NewReader(yaml))
		if err == nil || !strings.Contains(err.Error(), "capture.frame_rate") {
			t.Errorf("frame_rate %s: expected frame_rate error, got %v", rate, err)
		}
	}

	cfg, err := config.LoadFromReader(strings.NewReader("capture:\n  frame_rate: 1000\n"))
	if err != nil {
		t.Fatalf("frame_rate 1000: %v", err)
	}
	if got := cfg.Cadence().Interval(); got != time.Millisecond {
		t.Fatalf("interval=%v want 1ms", got)
	}
}
