package telemetry

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

func TestOrderMetrics(t *testing.T) {
	t.Run("nil metrics are a no-op", func(t *testing.T) {
		var m *OrderMetrics
		m.RecordTransition(context.Background(), domain.OrderStatePayed)
		m.RecordRejected(context.Background())
		m.RecordSweep(context.Background(), 1, time.Second, nil)
	})

	t.Run("counts transitions per state", func(t *testing.T) {
		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

		m, err := NewOrderMetrics(mp.Meter("test"))
		if err != nil {
			t.Fatalf("failed to create metrics: %v", err)
		}

		ctx := context.Background()
		m.RecordTransition(ctx, domain.OrderStateActive)
		m.RecordTransition(ctx, domain.OrderStateActive)
		m.RecordTransition(ctx, domain.OrderStateCanceled)

		var rm metricdata.ResourceMetrics
		if err := reader.Collect(ctx, &rm); err != nil {
			t.Fatalf("failed to collect: %v", err)
		}

		var total int64
		found := false
		for _, sm := range rm.ScopeMetrics {
			for _, md := range sm.Metrics {
				if md.Name != "storefront.orders.transitions" {
					continue
				}
				found = true
				sum, ok := md.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("unexpected data type %T", md.Data)
				}
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
				if len(sum.DataPoints) != 2 {
					t.Errorf("expected 2 data points, got %d", len(sum.DataPoints))
				}
			}
		}
		if !found {
			t.Fatal("transitions metric not exported")
		}
		if total != 3 {
			t.Errorf("expected 3 transitions, got %d", total)
		}
	})
}
