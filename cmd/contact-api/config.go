package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// errMissingDatabaseURL é erro de configuração fatal (exit code 2).
var errMissingDatabaseURL = errors.New("DATABASE_URL is required")

type config struct {
	DatabaseURL string        `env:"DATABASE_URL"`
	DBTimeout   time.Duration `env:"DB_TIMEOUT" envDefault:"10s"`

	Host       string `env:"HOST"`
	Port       int    `env:"PORT" envDefault:"4000"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"INFO"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"http://localhost:3000"`
	BodyLimit  int64  `env:"BODY_LIMIT_BYTES" envDefault:"10240"`

	RateEnabled   bool          `env:"RATE_ENABLED" envDefault:"true"`
	RatePerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	RateKeyHeader string        `env:"RATE_KEY_HEADER"`
	TrustXFF      bool          `env:"TRUST_XFF" envDefault:"false"`
	RetryAfter    time.Duration `env:"RETRY_AFTER" envDefault:"60s"`
	AddHeaders    bool          `env:"ADD_RATELIMIT_HEADERS" envDefault:"false"`

	// sem RATE_STATS_REDIS_ADDR as estatísticas ficam em memória e saem no log do shutdown
	RateStatsEnabled       bool          `env:"RATE_STATS_ENABLED" envDefault:"false"`
	RateStatsRedisAddr     string        `env:"RATE_STATS_REDIS_ADDR"`
	RateStatsRedisPassword string        `env:"RATE_STATS_REDIS_PASSWORD"`
	RateStatsRedisDB       int           `env:"RATE_STATS_REDIS_DB" envDefault:"0"`
	RateStatsPrefix        string        `env:"RATE_STATS_PREFIX" envDefault:"contact:ratelimit"`
	RateStatsTTL           time.Duration `env:"RATE_STATS_TTL" envDefault:"24h"`
	RateStatsPerMinute     bool          `env:"RATE_STATS_PER_MINUTE" envDefault:"true"`
	RateStatsTrackKeys     bool          `env:"RATE_STATS_TRACK_KEYS" envDefault:"false"`

	ConcurrencyMax     int           `env:"CONCURRENCY_MAX" envDefault:"32"`
	ConcurrencyTimeout time.Duration `env:"CONCURRENCY_TIMEOUT" envDefault:"0s"`

	SSEPingInterval time.Duration `env:"SSE_PING_INTERVAL" envDefault:"25s"`
	SSEBufferSize   int           `env:"SSE_BUFFER_SIZE" envDefault:"64"`

	MetricsEnabled  bool          `env:"METRICS_ENABLED" envDefault:"true"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

func (c config) listenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// readConfig lê o ambiente (já com o .env carregado) e valida os valores.
func readConfig(environ map[string]string) (config, error) {
	var cfg config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.RateStatsRedisAddr = strings.TrimSpace(cfg.RateStatsRedisAddr)

	if cfg.DatabaseURL == "" {
		return config{}, errMissingDatabaseURL
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return config{}, fmt.Errorf("PORT must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.BodyLimit <= 0 {
		return config{}, errors.New("BODY_LIMIT_BYTES must be > 0")
	}
	if cfg.RateEnabled && cfg.RatePerMinute <= 0 {
		return config{}, errors.New("RATE_LIMIT_PER_MINUTE must be > 0")
	}
	if cfg.ConcurrencyMax < 0 {
		return config{}, errors.New("CONCURRENCY_MAX must be >= 0")
	}
	if cfg.SSEPingInterval <= 0 {
		return config{}, errors.New("SSE_PING_INTERVAL must be > 0")
	}
	if cfg.SSEBufferSize <= 0 {
		return config{}, errors.New("SSE_BUFFER_SIZE must be > 0")
	}
	if cfg.DBTimeout <= 0 {
		return config{}, errors.New("DB_TIMEOUT must be > 0")
	}
	return cfg, nil
}
