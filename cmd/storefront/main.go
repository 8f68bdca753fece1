package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"github.com/joao-fontenele/storefront-orders/internal/config"
	"github.com/joao-fontenele/storefront-orders/internal/idempotency"
	"github.com/joao-fontenele/storefront-orders/internal/inventory"
	"github.com/joao-fontenele/storefront-orders/internal/messaging"
	"github.com/joao-fontenele/storefront-orders/internal/orders"
	"github.com/joao-fontenele/storefront-orders/internal/store"
	"github.com/joao-fontenele/storefront-orders/internal/store/postgres"
	"github.com/joao-fontenele/storefront-orders/internal/telemetry"
	"github.com/joao-fontenele/storefront-orders/internal/worker"
	"github.com/joao-fontenele/storefront-orders/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("storefront exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.ServiceVersion)
		if err != nil {
			return err
		}
		defer func() { _ = shutdownTracer(context.Background()) }()
	}

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	orderMetrics, err := telemetry.NewOrderMetrics(otel.Meter("storefront/orders"))
	if err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := []orders.Option{orders.WithMetrics(orderMetrics)}
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderTopic)
		defer func() { _ = producer.Close() }()
		opts = append(opts, orders.WithPublisher(producer))
		logger.Info("publishing order events", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderTopic)
	}

	var idem orders.IdempotencyStore
	if cfg.RedisAddr != "" {
		rdb, err := idempotency.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer func() { _ = rdb.Close() }()
		idem = idempotency.NewStore(rdb, cfg.IdempotencyTTL)
	}

	ledger := inventory.NewLedger(logger)
	service := orders.NewService(st, ledger, logger, opts...)
	orderHandler := orders.NewHandler(service, idem, logger)
	productHandler := inventory.NewHandler(st, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /products", telemetry.WithHTTPRoute(productHandler.HandleCreate))
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(productHandler.HandleList))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(productHandler.HandleGet))
	mux.HandleFunc("PUT /products/{id}", telemetry.WithHTTPRoute(productHandler.HandleUpdate))
	mux.HandleFunc("DELETE /products/{id}", telemetry.WithHTTPRoute(productHandler.HandleDelete))
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(orderHandler.HandleCreate))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(orderHandler.HandleGet))
	mux.HandleFunc("PUT /orders/{id}/state", telemetry.WithHTTPRoute(orderHandler.HandleSetState))
	mux.HandleFunc("PUT /orders/{id}/payment", telemetry.WithHTTPRoute(orderHandler.HandlePayment))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, cfg.ServiceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 2)

	if cfg.SweeperEnabled {
		sweeper := worker.NewSweeper(service, cfg.ReservationTTL, logger, worker.WithMetrics(orderMetrics))
		go func() {
			if err := sweeper.Run(ctx, cfg.SweepSchedule); err != nil {
				errCh <- err
			}
		}()
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port, "store", cfg.StoreDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		return err
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on restart")
		return store.NewMemory(), func() {}, nil
	}

	if cfg.AutoMigrate {
		if err := migrations.Up(cfg.PostgresURL); err != nil {
			return nil, nil, err
		}
		logger.Info("migrations applied")
	}

	db, err := telemetry.OpenDB("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	return postgres.New(db), func() { _ = db.Close() }, nil
}
