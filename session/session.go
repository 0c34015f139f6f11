package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/algo-pitch/measure/pitch"
	"github.com/cwbudde/algo-pitch/measure/register"
)

// Update is the outcome of one tick.
type Update struct {
	Tick     uint64
	Time     time.Time
	Estimate pitch.Estimate
	// Label is the held register label after this tick.
	Label register.Label
	// Changed reports whether this tick changed the label.
	Changed bool
	// NoInput is set when the stream had nothing to deliver.
	NoInput bool
}

// Option configures a [Session].
type Option func(*Session)

// WithEstimator sets the pitch estimator. Defaults to autocorrelation.
func WithEstimator(est pitch.Estimator) Option {
	return func(s *Session) {
		if est != nil {
			s.estimator = est
		}
	}
}

// WithRegister sets the classification threshold and band.
func WithRegister(cfg register.Config) Option {
	return func(s *Session) {
		s.registerCfg = cfg
	}
}

// WithCadence sets the polling cadence used by [Session.Run]. Defaults to
// the estimator's natural cadence.
func WithCadence(c Cadence) Option {
	return func(s *Session) {
		s.cadence = c
	}
}

// WithFrameSize sets the snapshot length in samples.
func WithFrameSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.frameSize = n
		}
	}
}

// WithLogger sets the structured logger. Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metric instruments. Defaults to instruments on the
// global OpenTelemetry meter provider.
func WithMetrics(m *Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// OnUpdate registers a callback invoked after every tick, on the goroutine
// that ran the tick.
func OnUpdate(fn func(Update)) Option {
	return func(s *Session) {
		s.onUpdate = fn
	}
}

// WithClock replaces time.Now for update timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
	stateFailed
)

// Session owns one capture stream and the estimation state built on it.
// Its methods are safe for concurrent use; ticks are serialized.
type Session struct {
	capture     Capture
	estimator   pitch.Estimator
	method      string
	registerCfg register.Config
	tracker     *register.Tracker
	cadence     Cadence
	frameSize   int
	logger      *slog.Logger
	metrics     *Metrics
	onUpdate    func(Update)
	now         func() time.Time

	mu      sync.Mutex
	state   state
	err     error
	stream  Stream
	buf     []float64
	tick    uint64
	done    chan struct{}
	stopped sync.Once
}

// New builds an idle session around capture.
func New(capture Capture, opts ...Option) (*Session, error) {
	if capture == nil {
		return nil, fmt.Errorf("%w: nil capture", ErrCaptureUnavailable)
	}

	s := &Session{
		capture:     capture,
		registerCfg: register.DefaultConfig(),
		frameSize:   pitch.DefaultFrameSize,
		logger:      slog.Default(),
		now:         time.Now,
		done:        make(chan struct{}),
	}
	s.metrics = globalMetrics()

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.estimator == nil {
		est, err := pitch.NewAutocorrelation()
		if err != nil {
			return nil, err
		}
		s.estimator = est
	}
	s.method = methodName(s.estimator)

	if s.cadence == nil {
		m, _ := pitch.ParseMethod(s.method)
		s.cadence = DefaultCadence(m)
	}

	tracker, err := register.NewTracker(s.registerCfg)
	if err != nil {
		return nil, err
	}
	s.tracker = tracker
	s.buf = make([]float64, s.frameSize)
	s.logger = s.logger.With("method", s.method)

	return s, nil
}

func methodName(est pitch.Estimator) string {
	switch est.(type) {
	case *pitch.Autocorrelation:
		return pitch.MethodAutocorrelation.String()
	case *pitch.Spectral:
		return pitch.MethodSpectral.String()
	default:
		return fmt.Sprintf("%T", est)
	}
}

// Cadence returns the polling cadence.
func (s *Session) Cadence() Cadence { return s.cadence }

// Start opens the capture stream. A failure is terminal: it is wrapped in
// [ErrCaptureUnavailable] and returned again by every later call.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateRunning:
		return nil
	case stateStopped:
		return ErrStopped
	case stateFailed:
		return s.err
	}

	stream, err := s.capture.Open(ctx)
	if err == nil && stream == nil {
		err = errors.New("capture returned no stream")
	}
	if err != nil {
		s.state = stateFailed
		if errors.Is(err, ErrCaptureUnavailable) {
			s.err = err
		} else {
			s.err = fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
		}
		s.metrics.recordCaptureFailure(ctx, "open")
		s.logger.Warn("capture unavailable", "err", err)
		s.closeDone()
		return s.err
	}

	s.stream = stream
	s.state = stateRunning
	s.metrics.sessionOpened(ctx)
	s.logger.Info("capture opened",
		"sample_rate", stream.SampleRate(),
		"frame_size", s.frameSize,
		"cadence", s.cadence.String(),
	)
	return nil
}

// Step runs one tick: snapshot, estimate, classify. It returns io.EOF when
// the stream is exhausted, after releasing it.
func (s *Session) Step(ctx context.Context) (Update, error) {
	if err := ctx.Err(); err != nil {
		return Update{}, err
	}

	s.mu.Lock()
	upd, err := s.stepLocked(ctx)
	s.mu.Unlock()

	if err == nil && s.onUpdate != nil {
		s.onUpdate(upd)
	}
	return upd, err
}

func (s *Session) stepLocked(ctx context.Context) (Update, error) {
	switch s.state {
	case stateIdle:
		return Update{}, ErrNotStarted
	case stateStopped:
		return Update{}, ErrStopped
	case stateFailed:
		return Update{}, s.err
	}

	s.tick++
	upd := Update{Tick: s.tick, Time: s.now()}

	n, err := s.stream.Snapshot(s.buf)
	switch {
	case errors.Is(err, io.EOF):
		s.logger.Info("capture exhausted", "ticks", s.tick-1)
		s.releaseLocked(ctx, stateStopped)
		return Update{}, io.EOF
	case errors.Is(err, ErrNoFrame), err == nil && n <= 0:
		upd.NoInput = true
		upd.Estimate = pitch.Estimate{Reason: pitch.ReasonNoInput}
		upd.Label = s.tracker.Label()
		s.metrics.recordFrame(ctx, s.method, upd.Estimate)
		return upd, nil
	case err != nil:
		s.err = fmt.Errorf("%w: snapshot: %w", ErrCaptureUnavailable, err)
		s.metrics.recordCaptureFailure(ctx, "snapshot")
		s.logger.Warn("capture failed", "err", err)
		s.releaseLocked(ctx, stateFailed)
		return Update{}, s.err
	}

	n = min(n, len(s.buf))
	upd.Estimate = s.estimator.Estimate(pitch.Frame{
		Samples:    s.buf[:n],
		SampleRate: s.stream.SampleRate(),
	})
	upd.Label, upd.Changed = s.tracker.Update(upd.Estimate)

	s.metrics.recordFrame(ctx, s.method, upd.Estimate)
	if upd.Changed {
		s.metrics.recordLabel(ctx, upd.Label)
		s.logger.Debug("register changed",
			"label", upd.Label.String(),
			"frequency", upd.Estimate.Frequency,
			"tick", upd.Tick,
		)
	}

	return upd, nil
}

// Run starts the session if needed and ticks at the session cadence until
// ctx is cancelled, Stop is called or the stream ends. The stream is
// released on every exit path. Run returns nil on Stop and on end of
// stream, and ctx.Err() on cancellation.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Stop()

	ticker := time.NewTicker(s.cadence.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-ticker.C:
		}

		if _, err := s.Step(ctx); err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, ErrStopped):
				return nil
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				return err
			}
		}
	}
}

// Stop releases the stream. It is idempotent and safe to call at any time;
// a stopped session cannot be restarted.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateFailed || s.state == stateStopped {
		return nil
	}
	return s.releaseLocked(context.Background(), stateStopped)
}

func (s *Session) releaseLocked(ctx context.Context, next state) error {
	wasRunning := s.state == stateRunning
	s.state = next
	s.closeDone()

	if !wasRunning || s.stream == nil {
		return nil
	}

	err := s.stream.Close()
	s.stream = nil
	s.metrics.sessionClosed(ctx)
	if err != nil {
		s.logger.Warn("capture close failed", "err", err)
		return fmt.Errorf("session: close stream: %w", err)
	}
	s.logger.Info("capture closed", "ticks", s.tick)
	return nil
}

func (s *Session) closeDone() {
	s.stopped.Do(func() { close(s.done) })
}

// Done is closed once the session has stopped or failed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the terminal capture error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Label returns the held register label.
func (s *Session) Label() register.Label {
	return s.tracker.Label()
}

// Reset starts a new listening turn: the label returns to Unset and any
// estimator smoothing is cleared.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracker.Reset()
	if r, ok := s.estimator.(interface{ Reset() }); ok {
		r.Reset()
	}
	s.logger.Debug("register reset")
}
