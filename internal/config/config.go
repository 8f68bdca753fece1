package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Port           string
	StoreDriver    string
	PostgresURL    string
	AutoMigrate    bool
	KafkaBrokers   []string
	OrderTopic     string
	RedisAddr      string
	IdempotencyTTL time.Duration
	SweeperEnabled bool
	SweepSchedule  string
	ReservationTTL time.Duration
	TracingEnabled bool
	OTLPEndpoint   string
	ServiceName    string
	ServiceVersion string
	LogLevel       slog.Level
}

// Load reads a .env file when present and then the environment. The
// environment wins over .env.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error

	cfg := Config{
		Port:           getenv("PORT", "8080"),
		StoreDriver:    getenv("STORE_DRIVER", StoreDriverPostgres),
		PostgresURL:    os.Getenv("POSTGRES_URL"),
		AutoMigrate:    getbool("AUTO_MIGRATE", false, &errs),
		KafkaBrokers:   splitCSV(os.Getenv("KAFKA_BROKERS")),
		OrderTopic:     getenv("ORDER_EVENTS_TOPIC", "order.events"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		IdempotencyTTL: getseconds("IDEMPOTENCY_TTL_SECONDS", 24*time.Hour, &errs),
		SweeperEnabled: getbool("SWEEPER_ENABLED", true, &errs),
		SweepSchedule:  getenv("SWEEP_SCHEDULE", "*/10 * * * * *"),
		ReservationTTL: getseconds("RESERVATION_TTL_SECONDS", 30*time.Minute, &errs),
		TracingEnabled: getbool("TRACING_ENABLED", false, &errs),
		OTLPEndpoint:   getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		ServiceName:    getenv("SERVICE_NAME", "storefront"),
		ServiceVersion: getenv("SERVICE_VERSION", "dev"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}

	if err := errors.Join(append(errs, cfg.Validate())...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.PostgresURL == "" {
			errs = append(errs, errors.New("POSTGRES_URL is required when STORE_DRIVER is postgres"))
		}
	case StoreDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, c.StoreDriver))
	}

	if c.ReservationTTL <= 0 {
		errs = append(errs, errors.New("RESERVATION_TTL_SECONDS must be positive"))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL_SECONDS must be positive"))
	}
	if c.SweeperEnabled && c.SweepSchedule == "" {
		errs = append(errs, errors.New("SWEEP_SCHEDULE is required when the sweeper is enabled"))
	}

	return errors.Join(errs...)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool, errs *[]error) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return b
}

func getseconds(k string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", k, err))
		return def
	}
	return time.Duration(n) * time.Second
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
