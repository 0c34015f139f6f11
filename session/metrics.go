package session

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cwbudde/algo-pitch/measure/pitch"
	"github.com/cwbudde/algo-pitch/measure/register"
)

// meterName is the instrumentation scope of all session metrics.
const meterName = "github.com/cwbudde/algo-pitch/session"

// Metrics holds the OpenTelemetry instruments a session records into.
type Metrics struct {
	// Frames counts analysed ticks. Attributes: method, result (voiced or
	// the unvoiced reason).
	Frames metric.Int64Counter

	// LabelChanges counts register label transitions. Attribute: label.
	LabelChanges metric.Int64Counter

	// Frequency records voiced estimates in Hz.
	Frequency metric.Float64Histogram

	// CaptureFailures counts streams that could not be opened or failed
	// mid-session.
	CaptureFailures metric.Int64Counter

	// ActiveSessions tracks sessions holding an open stream.
	ActiveSessions metric.Int64UpDownCounter
}

// frequencyBuckets cover the plausible vocal band around the register
// threshold.
var frequencyBuckets = []float64{
	50, 80, 100, 120, 140, 165, 190, 220, 260, 320, 400, 500, 650, 800,
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Frames, err = m.Int64Counter("pitch.frames",
		metric.WithDescription("Analysed capture ticks by method and result."),
	); err != nil {
		return nil, err
	}
	if met.LabelChanges, err = m.Int64Counter("pitch.label.changes",
		metric.WithDescription("Register label transitions by new label."),
	); err != nil {
		return nil, err
	}
	if met.Frequency, err = m.Float64Histogram("pitch.frequency",
		metric.WithDescription("Voiced fundamental frequency estimates."),
		metric.WithUnit("Hz"),
		metric.WithExplicitBucketBoundaries(frequencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CaptureFailures, err = m.Int64Counter("pitch.capture.failures",
		metric.WithDescription("Capture streams that failed to open or broke mid-session."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("pitch.active_sessions",
		metric.WithDescription("Sessions currently holding an open capture stream."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// globalMetrics builds instruments on the global provider, which is a no-op
// until the application installs one.
func globalMetrics() *Metrics {
	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return nil
	}
	return m
}

func (m *Metrics) recordFrame(ctx context.Context, method string, est pitch.Estimate) {
	if m == nil {
		return
	}

	result := "voiced"
	if !est.Voiced {
		result = est.Reason.String()
	}
	m.Frames.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("result", result),
	))

	if est.Voiced {
		m.Frequency.Record(ctx, est.Frequency, metric.WithAttributes(
			attribute.String("method", method),
		))
	}
}

func (m *Metrics) recordLabel(ctx context.Context, label register.Label) {
	if m == nil {
		return
	}
	m.LabelChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("label", label.String())))
}

func (m *Metrics) recordCaptureFailure(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.CaptureFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", stage)))
}

func (m *Metrics) sessionOpened(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, 1)
}

func (m *Metrics) sessionClosed(ctx context.Context) {
	if m == nil {
		return
	}
	m.ActiveSessions.Add(ctx, -1)
}
