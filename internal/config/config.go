// Package config reads the process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultGRPCAddr        = ":8080"
	DefaultQuoteBaseURL    = "https://fundgz.1234567.com.cn"
	DefaultQuoteTimeout    = 8 * time.Second
	DefaultSyncConcurrency = 4
	DefaultRetentionDays   = 3
)

// Config holds every setting of the server and the CLI
type Config struct {
	Env   string
	Store string // memory, file:<dir> or postgres
	DBURL string

	GRPCAddr string

	QuoteBaseURL    string
	QuoteTimeout    time.Duration
	SyncConcurrency int

	RetentionDays        int // 0 keeps every transaction
	EnforceTradingWindow bool
	SeedDemoFunds        bool
}

// Load reads the configuration from the process environment
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads the configuration through getenv. Unset or empty variables
// take their defaults; malformed ones are an error.
func LoadFrom(getenv func(string) string) (*Config, error) {
	env := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Env:          env("MONEYNEY_ENV", "prod"),
		Store:        env("MONEYNEY_STORE", "memory"),
		DBURL:        getenv("DB_CONN_STR"),
		GRPCAddr:     env("GRPC_ADDR", DefaultGRPCAddr),
		QuoteBaseURL: env("QUOTE_BASE_URL", DefaultQuoteBaseURL),
	}
	if cfg.DBURL == "" {
		// Build it from individual vars (Docker friendly)
		cfg.DBURL = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			env("DB_HOST", "localhost"),
			env("DB_PORT", "5432"),
			env("DB_USER", "postgres"),
			env("DB_PASSWORD", "postgres"),
			env("DB_NAME", "moneyney"),
		)
	}

	var err error
	if cfg.QuoteTimeout, err = parseDuration(env("QUOTE_TIMEOUT", ""), DefaultQuoteTimeout); err != nil {
		return nil, fmt.Errorf("QUOTE_TIMEOUT: %w", err)
	}
	if cfg.SyncConcurrency, err = parseInt(env("SYNC_CONCURRENCY", ""), DefaultSyncConcurrency, 1); err != nil {
		return nil, fmt.Errorf("SYNC_CONCURRENCY: %w", err)
	}
	if cfg.RetentionDays, err = parseInt(env("TX_RETENTION_DAYS", ""), DefaultRetentionDays, 0); err != nil {
		return nil, fmt.Errorf("TX_RETENTION_DAYS: %w", err)
	}
	if cfg.EnforceTradingWindow, err = parseBool(env("ENFORCE_TRADING_WINDOW", ""), false); err != nil {
		return nil, fmt.Errorf("ENFORCE_TRADING_WINDOW: %w", err)
	}
	if cfg.SeedDemoFunds, err = parseBool(env("SEED_DEMO_FUNDS", ""), true); err != nil {
		return nil, fmt.Errorf("SEED_DEMO_FUNDS: %w", err)
	}
	return cfg, nil
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

func parseInt(s string, fallback, least int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < least {
		return 0, fmt.Errorf("must be at least %d, got %d", least, n)
	}
	return n, nil
}

func parseBool(s string, fallback bool) (bool, error) {
	if s == "" {
		return fallback, nil
	}
	return strconv.ParseBool(s)
}
