package webdemo

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-pitch/dsp/spectrum"
)

func sine32(freq, sampleRate, amp float64, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/sampleRate))
	}
	return out
}

func TestEngineAnalyze(t *testing.T) {
	e, err := NewEngine(44100, "autocorrelation")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.Label() != "neutral" {
		t.Fatalf("initial label %q", e.Label())
	}

	res := e.Analyze(sine32(100, 44100, 0.5, 2048))
	if !res.Voiced || res.Gender != "male" || !res.Changed || res.Label != "low" {
		t.Fatalf("100 Hz: %+v", res)
	}
	if math.Abs(res.Frequency-100) > 0.5 {
		t.Fatalf("frequency=%v", res.Frequency)
	}

	res = e.Analyze(make([]float32, 2048))
	if res.Voiced || res.Reason != "silence" || res.Gender != "male" || res.Changed {
		t.Fatalf("silence: %+v", res)
	}

	res = e.Analyze(sine32(240, 44100, 0.5, 2048))
	if res.Gender != "female" || !res.Changed {
		t.Fatalf("240 Hz: %+v", res)
	}

	u := e.Reply("hola")
	if u.Pitch != 1.3 || u.Words != 1 {
		t.Fatalf("reply %+v", u)
	}

	e.Reset()
	if e.Label() != "neutral" {
		t.Fatalf("after Reset label %q", e.Label())
	}
}

func TestEngineSpectral(t *testing.T) {
	e, err := NewEngine(44100, "spectral")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if e.Method() != "spectral" {
		t.Fatalf("method=%q", e.Method())
	}

	res := e.Analyze(sine32(300, 44100, 0.05, 2048))
	if !res.Voiced || res.Gender != "female" {
		t.Fatalf("300 Hz: %+v", res)
	}

	bytes := e.SpectrumBytes(sine32(300, 44100, 0.05, 2048))
	if len(bytes) != 1024 || bytes[14] == 0 {
		t.Fatalf("spectrum bytes len=%d bin14=%d", len(bytes), bytes[14])
	}
}

func TestEngineSpectrumCompensatesWindowGain(t *testing.T) {
	e, err := NewEngine(44100, "autocorrelation")
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	plain, err := spectrum.NewAnalyser(spectrum.DefaultFFTSize, 44100)
	if err != nil {
		t.Fatalf("NewAnalyser: %v", err)
	}

	in := sine32(300, 44100, 0.05, 2048)
	frame := make([]float64, len(in))
	for i, v := range in {
		frame[i] = float64(v)
	}

	got := e.SpectrumBytes(in)[14]
	want := plain.ByteFrequencyData(nil, frame)[14]
	if got <= want {
		t.Fatalf("bin 14: display %d not above uncompensated %d", got, want)
	}
}

func TestNewEngineErrors(t *testing.T) {
	if _, err := NewEngine(44100, "yin"); err == nil {
		t.Fatal("expected error for unknown method")
	}
	if _, err := NewEngine(0, "spectral"); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
}
