package spectrum

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-pitch/dsp/window"
	"github.com/cwbudde/algo-pitch/internal/testutil"
	"github.com/cwbudde/algo-pitch/stats/frequency"
)

func TestNewAnalyserValidation(t *testing.T) {
	tests := []struct {
		name       string
		fftSize    int
		sampleRate float64
		opts       []AnalyserOption
	}{
		{name: "too small", fftSize: 16, sampleRate: 44100},
		{name: "too large", fftSize: 65536, sampleRate: 44100},
		{name: "not power of two", fftSize: 1000, sampleRate: 44100},
		{name: "zero rate", fftSize: 2048, sampleRate: 0},
		{name: "nan rate", fftSize: 2048, sampleRate: math.NaN()},
		{name: "smoothing above one", fftSize: 2048, sampleRate: 44100, opts: []AnalyserOption{WithSmoothing(1.5)}},
		{name: "inverted db range", fftSize: 2048, sampleRate: 44100, opts: []AnalyserOption{WithDecibelRange(-30, -100)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAnalyser(tt.fftSize, tt.sampleRate, tt.opts...)
			if !errors.Is(err, ErrInvalidAnalyser) {
				t.Fatalf("err=%v want ErrInvalidAnalyser", err)
			}
		})
	}
}

func TestAnalyserDefaults(t *testing.T) {
	a, err := NewAnalyser(DefaultFFTSize, 44100)
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}

	if a.FFTSize() != 2048 || a.FrequencyBinCount() != 1024 {
		t.Fatalf("sizes: fft=%d bins=%d", a.FFTSize(), a.FrequencyBinCount())
	}
	if a.MinDecibels() != -100 || a.MaxDecibels() != -30 {
		t.Fatalf("db range: [%v, %v]", a.MinDecibels(), a.MaxDecibels())
	}
	if a.SampleRate() != 44100 {
		t.Fatalf("sample rate=%v", a.SampleRate())
	}
}

func TestAnalyserSilenceIsZero(t *testing.T) {
	a, err := NewAnalyser(2048, 44100)
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}

	bytes := a.ByteFrequencyData(nil, testutil.Zeros(2048))
	for k, b := range bytes {
		if b != 0 {
			t.Fatalf("bin %d = %d, want 0", k, b)
		}
	}

	db := a.FloatFrequencyData(nil, testutil.Zeros(2048))
	if !math.IsInf(db[10], -1) {
		t.Fatalf("silent bin dB=%v want -Inf", db[10])
	}
}

func TestAnalyserSinePeakBin(t *testing.T) {
	const (
		sampleRate = 44100.0
		fftSize    = 2048
	)

	tests := []struct {
		freq    float64
		wantBin int
	}{
		{freq: 120, wantBin: 6},
		{freq: 300, wantBin: 14},
		{freq: 900, wantBin: 42},
	}

	for _, tt := range tests {
		a, err := NewAnalyser(fftSize, sampleRate)
		if err != nil {
			t.Fatalf("NewAnalyser: %v", err)
		}

		frame := testutil.DeterministicSine(tt.freq, sampleRate, 0.05, fftSize)

		var bytes []uint8
		for range 4 {
			bytes = a.ByteFrequencyData(bytes, frame)
		}

		mag := make([]float64, len(bytes))
		for k, b := range bytes {
			mag[k] = float64(b)
		}

		bin, value := frequency.Peak(mag)
		if bin != tt.wantBin {
			t.Fatalf("%.0f Hz: peak bin=%d want=%d", tt.freq, bin, tt.wantBin)
		}
		if value < 150 || value >= 255 {
			t.Fatalf("%.0f Hz: peak byte=%v outside (150, 255)", tt.freq, value)
		}

		hz := frequency.BinFrequency(bin, sampleRate, fftSize)
		if math.Abs(hz-tt.freq) > testutil.BinResolution(sampleRate, fftSize) {
			t.Fatalf("%.0f Hz: bin frequency %.2f more than one bin away", tt.freq, hz)
		}
	}
}

func TestAnalyserSmoothingRisesTowardSteadyState(t *testing.T) {
	a, err := NewAnalyser(2048, 44100)
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}

	frame := testutil.DeterministicSine(300, 44100, 0.05, 2048)

	first := a.FloatFrequencyData(nil, frame)[14]
	second := a.FloatFrequencyData(nil, frame)[14]
	if !(second > first) {
		t.Fatalf("smoothed level did not rise: first=%.2f second=%.2f", first, second)
	}

	// With tau=0.8 the first frame carries 20% of the steady-state level.
	a.Reset()
	noSmooth, err := NewAnalyser(2048, 44100, WithSmoothing(0))
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}
	steady := noSmooth.FloatFrequencyData(nil, frame)[14]
	again := a.FloatFrequencyData(nil, frame)[14]

	if math.Abs((steady+20*math.Log10(0.2))-again) > 0.05 {
		t.Fatalf("after Reset got %.4f dB want %.4f dB", again, steady+20*math.Log10(0.2))
	}
}

func TestAnalyserShortFrameAndNonFinite(t *testing.T) {
	a, err := NewAnalyser(256, 8000, WithWindow(window.TypeHann))
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}

	frame := testutil.DeterministicSine(1000, 8000, 0.1, 100)
	frame[10] = math.NaN()
	frame[20] = math.Inf(1)

	db := a.FloatFrequencyData(nil, frame)
	if len(db) != 128 {
		t.Fatalf("len=%d want 128", len(db))
	}
	for k, v := range db {
		if math.IsNaN(v) || math.IsInf(v, 1) {
			t.Fatalf("bin %d = %v", k, v)
		}
	}
}

func TestAnalyserReusesDestination(t *testing.T) {
	a, err := NewAnalyser(64, 8000)
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}

	dst := make([]uint8, 0, 32)
	out := a.ByteFrequencyData(dst, testutil.Zeros(64))
	if &out[0] != &dst[:1][0] {
		t.Fatal("ByteFrequencyData reallocated a large enough destination")
	}
}

func TestToByte(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{in: math.Inf(-1), want: 0},
		{in: math.NaN(), want: 0},
		{in: -3, want: 0},
		{in: 12.9, want: 12},
		{in: 254.99, want: 254},
		{in: 400, want: 255},
	}

	for _, tt := range tests {
		if got := toByte(tt.in); got != tt.want {
			t.Errorf("toByte(%v)=%d want=%d", tt.in, got, tt.want)
		}
	}
}

func BenchmarkAnalyserByteFrequencyData(b *testing.B) {
	a, err := NewAnalyser(2048, 44100)
	if err != nil {
		b.Fatalf("NewAnalyser: %v", err)
	}

	frame := testutil.DeterministicSine(220, 44100, 0.3, 2048)
	dst := make([]uint8, a.FrequencyBinCount())

	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		dst = a.ByteFrequencyData(dst, frame)
	}
}

func TestAnalyserGainCompensation(t *testing.T) {
	const sr = 44100.0
	frame := testutil.DeterministicSine(300, sr, 0.5, DefaultFFTSize)

	plain, err := NewAnalyser(DefaultFFTSize, sr, WithSmoothing(0))
	if err != nil {
		t.Fatal(err)
	}
	comp, err := NewAnalyser(DefaultFFTSize, sr, WithSmoothing(0), WithGainCompensation())
	if err != nil {
		t.Fatal(err)
	}

	gain, err := window.CoherentGain(window.Generate(window.TypeBlackman, DefaultFFTSize, window.WithPeriodic()))
	if err != nil {
		t.Fatal(err)
	}
	want := -20 * math.Log10(gain)

	p := plain.FloatFrequencyData(nil, frame)
	c := comp.FloatFrequencyData(nil, frame)
	for _, k := range []int{10, 14, 40} {
		if d := c[k] - p[k]; math.Abs(d-want) > 0.05 {
			t.Fatalf("bin %d: compensation %.3f dB want %.3f dB", k, d, want)
		}
	}

	// The rectangular window has unit gain, so compensation is a no-op.
	rect, err := NewAnalyser(DefaultFFTSize, sr, WithSmoothing(0),
		WithWindow(window.TypeRectangular), WithGainCompensation())
	if err != nil {
		t.Fatal(err)
	}
	rectPlain, err := NewAnalyser(DefaultFFTSize, sr, WithSmoothing(0), WithWindow(window.TypeRectangular))
	if err != nil {
		t.Fatal(err)
	}
	testutil.RequireSliceNearlyEqual(t,
		rect.FloatFrequencyData(nil, frame)[:64],
		rectPlain.FloatFrequencyData(nil, frame)[:64], 1e-9)
}
