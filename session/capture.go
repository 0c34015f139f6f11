package session

import (
	"context"
	"errors"
)

var (
	// ErrCaptureUnavailable wraps every failure to open a capture stream,
	// whether the device is missing or access was denied.
	ErrCaptureUnavailable = errors.New("session: capture unavailable")

	// ErrNoFrame may be returned by [Stream.Snapshot] when nothing new has
	// been captured since the last call.
	ErrNoFrame = errors.New("session: no frame available")

	ErrNotStarted = errors.New("session: not started")
	ErrStopped    = errors.New("session: stopped")
)

// Capture opens audio streams.
type Capture interface {
	Open(ctx context.Context) (Stream, error)
}

// CaptureFunc adapts a function to [Capture].
type CaptureFunc func(ctx context.Context) (Stream, error)

// Open implements [Capture].
func (f CaptureFunc) Open(ctx context.Context) (Stream, error) {
	return f(ctx)
}

// Stream is an open capture source.
type Stream interface {
	// SampleRate returns the rate of the samples delivered by Snapshot.
	SampleRate() float64
	// Snapshot copies the most recent samples into dst and returns how many
	// were written. Zero samples or ErrNoFrame mean "nothing this tick";
	// io.EOF ends the session normally.
	Snapshot(dst []float64) (int, error)
	Close() error
}
