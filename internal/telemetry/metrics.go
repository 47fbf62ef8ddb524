package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of every instrument below.
const MeterName = "github.com/rendis/arazzo-graph"

// Metrics holds the instruments recorded by the editor and graph hosts.
// Without an installed SDK the global provider is a no-op.
type Metrics struct {
	mutations   metric.Int64Counter
	derivations metric.Int64Counter
	deriveTime  metric.Float64Histogram
	invalid     metric.Int64Histogram
}

// New creates instruments from the global meter provider.
func New() *Metrics {
	return NewWithProvider(otel.GetMeterProvider())
}

// NewWithProvider creates instruments from mp. Instruments that fail to
// register are left nil and skipped when recording.
func NewWithProvider(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter(MeterName)
	m := &Metrics{}
	if c, err := meter.Int64Counter("editor.mutations",
		metric.WithDescription("Count of editor mutations by kind and status"),
	); err == nil {
		m.mutations = c
	}
	if c, err := meter.Int64Counter("graph.derivations",
		metric.WithDescription("Count of graph derivations"),
	); err == nil {
		m.derivations = c
	}
	if h, err := meter.Float64Histogram("graph.derive.duration",
		metric.WithDescription("Duration of graph derivation"),
		metric.WithUnit("s"),
	); err == nil {
		m.deriveTime = h
	}
	if h, err := meter.Int64Histogram("graph.invalid_links",
		metric.WithDescription("Invalid links found per derived graph"),
	); err == nil {
		m.invalid = h
	}
	return m
}

// RecordMutation counts one editor mutation.
func (m *Metrics) RecordMutation(ctx context.Context, kind string, err error) {
	if m == nil || m.mutations == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status(err)),
	))
}

// RecordDerivation counts one derivation with its duration in seconds and
// invalid link total.
func (m *Metrics) RecordDerivation(ctx context.Context, seconds float64, invalidLinks int, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status(err)))
	if m.derivations != nil {
		m.derivations.Add(ctx, 1, attrs)
	}
	if m.deriveTime != nil {
		m.deriveTime.Record(ctx, seconds, attrs)
	}
	if m.invalid != nil && err == nil {
		m.invalid.Record(ctx, int64(invalidLinks))
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
