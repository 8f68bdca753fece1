// Package worker runs the expiry sweeper that invalidates orders whose
// reservation outlived its time to live.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/joao-fontenele/storefront-orders/internal/telemetry"
)

// Invalidator is satisfied by orders.Service.
type Invalidator interface {
	InvalidateExpired(ctx context.Context, cutoff time.Time) ([]string, error)
}

type Sweeper struct {
	orders  Invalidator
	ttl     time.Duration
	metrics *telemetry.OrderMetrics
	logger  *slog.Logger
	now     func() time.Time
}

type Option func(*Sweeper)

func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) { s.now = now }
}

func WithMetrics(m *telemetry.OrderMetrics) Option {
	return func(s *Sweeper) { s.metrics = m }
}

func NewSweeper(orders Invalidator, ttl time.Duration, logger *slog.Logger, opts ...Option) *Sweeper {
	s := &Sweeper{
		orders: orders,
		ttl:    ttl,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep invalidates every order reserved before now minus the TTL and
// returns how many were invalidated.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	start := time.Now()
	cutoff := s.now().Add(-s.ttl)

	ids, err := s.orders.InvalidateExpired(ctx, cutoff)
	s.metrics.RecordSweep(ctx, len(ids), time.Since(start), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "expiry sweep failed", "error", err, "cutoff", cutoff)
		return 0, err
	}

	if len(ids) > 0 {
		s.logger.InfoContext(ctx, "expiry sweep finished", "invalidated", len(ids), "cutoff", cutoff)
	} else {
		s.logger.DebugContext(ctx, "expiry sweep finished", "invalidated", 0, "cutoff", cutoff)
	}
	return len(ids), nil
}

// Run sweeps on the given six-field cron schedule until ctx is done. A tick
// that fires while the previous sweep is still running is skipped.
func (s *Sweeper) Run(ctx context.Context, schedule string) error {
	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(schedule, func() { _, _ = s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	s.logger.Info("expiry sweeper started", "schedule", schedule, "ttl", s.ttl.String())

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("expiry sweeper stopped")
	return nil
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
