package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

// OrderMetrics records order lifecycle counters. A nil *OrderMetrics is valid
// and records nothing.
type OrderMetrics struct {
	transitions   metric.Int64Counter
	rejected      metric.Int64Counter
	sweepDuration metric.Float64Histogram
}

func NewOrderMetrics(meter metric.Meter) (*OrderMetrics, error) {
	transitions, err := meter.Int64Counter("storefront.orders.transitions",
		metric.WithDescription("Orders entering a state"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter("storefront.orders.rejected",
		metric.WithDescription("Order creations rejected by item validation"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, err
	}

	sweepDuration, err := meter.Float64Histogram("storefront.sweep.duration",
		metric.WithDescription("Duration of expiry sweeps"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &OrderMetrics{
		transitions:   transitions,
		rejected:      rejected,
		sweepDuration: sweepDuration,
	}, nil
}

func (m *OrderMetrics) RecordTransition(ctx context.Context, state domain.OrderState) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.state", string(state))))
}

func (m *OrderMetrics) RecordRejected(ctx context.Context) {
	if m == nil {
		return
	}
	m.rejected.Add(ctx, 1)
}

func (m *OrderMetrics) RecordSweep(ctx context.Context, invalidated int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.sweepDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.Int("sweep.invalidated", invalidated),
		attribute.Bool("sweep.failed", err != nil),
	))
}
