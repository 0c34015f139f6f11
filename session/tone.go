package session

import (
	"context"
	"errors"
	"io"
	"math"

	"github.com/cwbudde/algo-pitch/dsp/core"
	"github.com/cwbudde/algo-pitch/dsp/signal"
)

// DefaultToneAmplitude is the peak amplitude of a [ToneCapture] that leaves
// Amplitude unset.
const DefaultToneAmplitude = 0.5

// ToneCapture synthesizes a voiced test tone. Each entry of Sequence is held
// for HoldFrames snapshots before moving on; a zero frequency is silence.
// After the last entry the stream ends, unless Loop is set. Noise adds
// seeded white noise of that amplitude to every frame, silent ones included.
type ToneCapture struct {
	Rate       float64
	Sequence   []float64
	HoldFrames int
	// Amplitude scales every tone. Zero means DefaultToneAmplitude; silent
	// stretches are written as 0 Hz entries in Sequence instead.
	Amplitude  float64
	Harmonics  int
	Loop       bool
	Noise      float64
	Seed       int64
}

// Open implements [Capture].
func (c ToneCapture) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !(c.Rate > 0) || math.IsInf(c.Rate, 0) {
		return nil, errors.New("tone capture: invalid sample rate")
	}
	if len(c.Sequence) == 0 {
		return nil, errors.New("tone capture: empty sequence")
	}

	hold := c.HoldFrames
	if hold <= 0 {
		hold = 1
	}
	amp := c.Amplitude
	switch {
	case amp < 0 || math.IsNaN(amp) || math.IsInf(amp, 0):
		return nil, errors.New("tone capture: invalid amplitude")
	case amp == 0:
		amp = DefaultToneAmplitude
	}
	harmonics := max(c.Harmonics, 1)

	oscs := make([]*signal.Oscillator, len(c.Sequence))
	for i, f := range c.Sequence {
		if f > 0 {
			oscs[i] = signal.NewOscillator(c.Rate, f, amp, harmonics)
		}
	}

	if c.Noise < 0 {
		return nil, errors.New("tone capture: negative noise amplitude")
	}

	return &toneStream{
		rate:  c.Rate,
		oscs:  oscs,
		hold:  hold,
		loop:  c.Loop,
		noise: c.Noise,
		seed:  c.Seed,
	}, nil
}

type toneStream struct {
	rate  float64
	oscs  []*signal.Oscillator
	hold  int
	loop  bool
	frame int

	noise float64
	seed  int64
	ticks int64
}

func (s *toneStream) SampleRate() float64 { return s.rate }

func (s *toneStream) Snapshot(dst []float64) (int, error) {
	idx := s.frame / s.hold
	if idx >= len(s.oscs) {
		if !s.loop {
			return 0, io.EOF
		}
		s.frame = 0
		idx = 0
	}
	s.frame++

	if osc := s.oscs[idx]; osc != nil {
		osc.Fill(dst)
	} else {
		clear(dst)
	}

	if s.noise > 0 && len(dst) > 0 {
		s.ticks++
		gen := signal.NewGeneratorWithOptions(
			[]core.ProcessorOption{core.WithSampleRate(s.rate)},
			signal.WithSeed(s.seed+s.ticks),
		)
		noise, err := gen.WhiteNoise(s.noise, len(dst))
		if err != nil {
			return 0, err
		}
		copy(dst, signal.Mix(dst, noise))
	}
	return len(dst), nil
}

func (s *toneStream) Close() error { return nil }
