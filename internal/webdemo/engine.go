// Package webdemo holds the browser-facing pitch engine behind the js/wasm
// bridge. It has no syscall/js dependency so it can be tested natively.
package webdemo

import (
	"fmt"

	"github.com/cwbudde/algo-pitch/dsp/spectrum"
	"github.com/cwbudde/algo-pitch/measure/pitch"
	"github.com/cwbudde/algo-pitch/measure/register"
)

// Result is one analysed buffer as the page sees it.
type Result struct {
	Frequency float64
	Voiced    bool
	Reason    string
	Label     string
	Gender    string
	Changed   bool
	Level     float64
}

// Engine runs estimation and register tracking for one page. The page owns
// the microphone and pushes time-domain buffers; buffer delivery and speech
// playback stay on the JavaScript side.
type Engine struct {
	sampleRate float64
	method     pitch.Method
	estimator  pitch.Estimator
	tracker    *register.Tracker

	// display is a separate analyser for the page's level meter, so the
	// spectral estimator's smoothing state is not disturbed. It compensates
	// the window gain so bars track the tone's amplitude.
	display *spectrum.Analyser
	bytes   []uint8
	frame   []float64
}

// NewEngine creates an engine for buffers captured at sampleRate. method is
// "autocorrelation" or "spectral".
func NewEngine(sampleRate float64, method string) (*Engine, error) {
	m, err := pitch.ParseMethod(method)
	if err != nil {
		return nil, err
	}
	est, err := pitch.NewEstimator(m)
	if err != nil {
		return nil, err
	}
	tracker, err := register.NewTracker(register.DefaultConfig())
	if err != nil {
		return nil, err
	}
	display, err := spectrum.NewAnalyser(spectrum.DefaultFFTSize, sampleRate, spectrum.WithGainCompensation())
	if err != nil {
		return nil, fmt.Errorf("webdemo: %w", err)
	}

	return &Engine{
		sampleRate: sampleRate,
		method:     m,
		estimator:  est,
		tracker:    tracker,
		display:    display,
	}, nil
}

// Method returns the estimator name.
func (e *Engine) Method() string { return e.method.String() }

// Analyze estimates the pitch of one buffer and updates the held label.
func (e *Engine) Analyze(samples []float32) Result {
	if cap(e.frame) < len(samples) {
		e.frame = make([]float64, len(samples))
	}
	e.frame = e.frame[:len(samples)]
	for i, v := range samples {
		e.frame[i] = float64(v)
	}

	est := e.estimator.Estimate(pitch.Frame{Samples: e.frame, SampleRate: e.sampleRate})
	label, changed := e.tracker.Update(est)

	reason := ""
	if !est.Voiced {
		reason = est.Reason.String()
	}

	return Result{
		Frequency: est.Frequency,
		Voiced:    est.Voiced,
		Reason:    reason,
		Label:     label.String(),
		Gender:    label.Gender(),
		Changed:   changed,
		Level:     est.Level,
	}
}

// SpectrumBytes returns the byte-scale spectrum of samples for drawing.
func (e *Engine) SpectrumBytes(samples []float32) []uint8 {
	frame := make([]float64, len(samples))
	for i, v := range samples {
		frame[i] = float64(v)
	}
	e.bytes = e.display.ByteFrequencyData(e.bytes, frame)
	return e.bytes
}

// Label returns the held label's presentation name.
func (e *Engine) Label() string {
	return e.tracker.Label().Gender()
}

// Reset starts a new listening turn.
func (e *Engine) Reset() {
	e.tracker.Reset()
	if r, ok := e.estimator.(interface{ Reset() }); ok {
		r.Reset()
	}
	e.display.Reset()
}

// Reply returns the synthesis settings for answering with text in the
// current register.
func (e *Engine) Reply(text string) register.Utterance {
	return register.Reply(text, e.tracker.Label())
}
