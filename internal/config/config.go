package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig holds process-level wiring. Game tunables (fees, cooldown) live
// in the persisted Config record, not here.
type AppConfig struct {
	ListenAddr   string
	EventsAddr   string
	RedisURL     string
	DatabaseURL  string
	AdminKey     string
	CatalogDir   string
	OracleSecret string

	DelegateRetries int
	DelegateBackoff time.Duration

	ShutdownTimeout time.Duration
}

// Load reads the environment. REDIS_URL is required; DATABASE_URL is
// optional and an in-memory ledger is used when it is absent.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:      ":8080",
		EventsAddr:      ":8081",
		DelegateRetries: 8,
		DelegateBackoff: 250 * time.Millisecond,
		ShutdownTimeout: 10 * time.Second,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("EVENTS_ADDR")); v != "" {
		cfg.EventsAddr = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	cfg.AdminKey = strings.TrimSpace(os.Getenv("ADMIN_KEY"))
	cfg.CatalogDir = strings.TrimSpace(os.Getenv("CATALOG_DIR"))
	cfg.OracleSecret = strings.TrimSpace(os.Getenv("ORACLE_SECRET"))

	if v := strings.TrimSpace(os.Getenv("DELEGATE_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DelegateRetries = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("DELEGATE_BACKOFF_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DelegateBackoff = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("SHUTDOWN_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ShutdownTimeout = time.Duration(n) * time.Second
		}
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.AdminKey == "" {
		return nil, errors.New("ADMIN_KEY is required")
	}
	return cfg, nil
}
