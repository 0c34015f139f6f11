// Package session drives pitch estimation from a live capture source.
//
// A [Session] owns one capture [Stream] for its lifetime. [Session.Start]
// opens it, every tick of the configured [Cadence] takes a snapshot, runs
// the [pitch.Estimator] and feeds a [register.Tracker], and [Session.Stop]
// (or cancelling the context passed to [Session.Run]) releases it again.
// Capture failure is reported once, wrapped in [ErrCaptureUnavailable], and
// ends the session; the estimator is never called without a frame.
//
// A tick with no samples is not an error. It produces an [Update] with
// NoInput set and leaves the held label unchanged.
package session
