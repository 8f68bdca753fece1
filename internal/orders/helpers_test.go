package orders

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
	"github.com/joao-fontenele/storefront-orders/internal/inventory"
	"github.com/joao-fontenele/storefront-orders/internal/store"
)

func intPtr(v int) *int { return &v }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(domain.OrderEvent))
	return nil
}

func (p *recordingPublisher) States() []domain.OrderState {
	p.mu.Lock()
	defer p.mu.Unlock()
	states := make([]domain.OrderState, 0, len(p.events))
	for _, e := range p.events {
		states = append(states, e.State)
	}
	return states
}

// storefront seeds the four products used across the order tests.
func storefront(t *testing.T) *store.Memory {
	t.Helper()
	s := store.NewMemory()
	products := []domain.Product{
		{ID: "p1", Name: "Test Product 1", Price: decPtr("13.12"), Quantity: intPtr(5)},
		{ID: "p2", Name: "Test Product 2", Price: decPtr("3.24"), Quantity: intPtr(3)},
		{ID: "p3", Name: "Test Product 3", Price: decPtr("1.12"), Quantity: intPtr(1)},
		{ID: "p4", Name: "Test Product 4", Price: decPtr("7.0"), Quantity: intPtr(0)},
		{ID: "draft", Name: "Draft Product"},
	}
	err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for i := range products {
			if err := tx.InsertProduct(ctx, &products[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}
	return s
}

func newTestService(s store.Store, clock *fakeClock, pub EventPublisher) *Service {
	opts := []Option{WithClock(clock.Now)}
	if pub != nil {
		opts = append(opts, WithPublisher(pub))
	}
	return NewService(s, inventory.NewLedger(discardLogger()), discardLogger(), opts...)
}

func stock(t *testing.T, s store.Store) map[string]int {
	t.Helper()
	levels := make(map[string]int)
	err := s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		products, err := tx.ListProducts(ctx)
		if err != nil {
			return err
		}
		for _, p := range products {
			if p.Quantity != nil {
				levels[p.ID] = *p.Quantity
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return levels
}

func assertStock(t *testing.T, s store.Store, want map[string]int) {
	t.Helper()
	got := stock(t, s)
	for id, q := range want {
		if got[id] != q {
			t.Errorf("product %s: expected quantity %d, got %d", id, q, got[id])
		}
	}
}

func reservationCount(t *testing.T, s store.Store, before time.Time) int {
	t.Helper()
	var n int
	_ = s.InTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		r, err := tx.ReservationsBefore(ctx, before)
		n = len(r)
		return err
	})
	return n
}

func items(pairs ...any) []ItemRequest {
	var reqs []ItemRequest
	for i := 0; i < len(pairs); i += 2 {
		req := ItemRequest{ProductID: pairs[i].(string)}
		if q, ok := pairs[i+1].(int); ok {
			req.Quantity = intPtr(q)
		}
		reqs = append(reqs, req)
	}
	return reqs
}
