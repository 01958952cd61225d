package stream

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const instrumentationName = "github.com/metinatakli/movie-info-service/internal/stream"

// Metrics records delivery counts on the global OpenTelemetry meter. With no
// meter provider installed every instrument is a no-op.
type Metrics struct {
	active   metric.Int64UpDownCounter
	elements metric.Int64Counter
	finished metric.Int64Counter
}

var noopMeter = noop.NewMeterProvider().Meter(instrumentationName)

var defaultMetrics = sync.OnceValue(func() *Metrics {
	return NewMetrics(otel.Meter(instrumentationName))
})

func NewMetrics(meter metric.Meter) *Metrics {
	m := &Metrics{}

	// Instrument creation only fails on invalid names; a nil instrument
	// would panic, so fall back to no-ops on error.
	var err error

	m.active, err = meter.Int64UpDownCounter("stream.deliveries.active",
		metric.WithDescription("Deliveries currently producing"))
	if err != nil {
		m.active, _ = noopMeter.Int64UpDownCounter("stream.deliveries.active")
	}

	m.elements, err = meter.Int64Counter("stream.elements.emitted",
		metric.WithDescription("Elements written to consumers"))
	if err != nil {
		m.elements, _ = noopMeter.Int64Counter("stream.elements.emitted")
	}

	m.finished, err = meter.Int64Counter("stream.deliveries.finished",
		metric.WithDescription("Deliveries by final outcome"))
	if err != nil {
		m.finished, _ = noopMeter.Int64Counter("stream.deliveries.finished")
	}

	return m
}

func (m *Metrics) begin(ctx context.Context) {
	m.active.Add(context.WithoutCancel(ctx), 1)
}

func (m *Metrics) element(ctx context.Context) {
	m.elements.Add(context.WithoutCancel(ctx), 1)
}

func (m *Metrics) end(ctx context.Context, s State) {
	ctx = context.WithoutCancel(ctx)
	m.active.Add(ctx, -1)
	m.finished.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", s.String())))
}
