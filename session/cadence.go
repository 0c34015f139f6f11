package session

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-pitch/measure/pitch"
)

// Cadence decides how often a session takes a snapshot.
type Cadence interface {
	Interval() time.Duration
	String() string
}

type every time.Duration

// Every polls on a fixed timer, independent of the frame length.
func Every(d time.Duration) Cadence {
	if d <= 0 {
		d = pitch.DefaultSpectralInterval
	}
	return every(d)
}

func (e every) Interval() time.Duration { return time.Duration(e) }
func (e every) String() string          { return "every " + time.Duration(e).String() }

type frameRate float64

// MaxFrameRate is the fastest frame-synchronized cadence, in Hz.
const MaxFrameRate = 1000

// FrameRate polls at a display-refresh style rate in Hz. Rates above
// MaxFrameRate are clamped to it; non-positive or NaN rates fall back to
// the default.
func FrameRate(hz float64) Cadence {
	switch {
	case !(hz > 0):
		hz = pitch.DefaultFrameRate
	case hz > MaxFrameRate:
		hz = MaxFrameRate
	}
	return frameRate(hz)
}

func (f frameRate) Interval() time.Duration {
	return max(time.Duration(float64(time.Second)/float64(f)), time.Nanosecond)
}

func (f frameRate) String() string { return fmt.Sprintf("%g fps", float64(f)) }

// DefaultCadence returns the cadence each strategy was designed for: a
// 200 ms timer for spectral peaks, 60 Hz for autocorrelation.
func DefaultCadence(m pitch.Method) Cadence {
	if m == pitch.MethodSpectral {
		return Every(pitch.DefaultSpectralInterval)
	}
	return FrameRate(pitch.DefaultFrameRate)
}
