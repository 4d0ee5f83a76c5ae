package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"contact-stream/broadcast"
	"contact-stream/contact/application"
	"contact-stream/contact/infra"
	"contact-stream/httpapi"
	"contact-stream/metrics"
	"contact-stream/middleware/ratelimit"
	rldomain "contact-stream/middleware/ratelimit/domain"
	rlinfra "contact-stream/middleware/ratelimit/infra"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/redis/go-redis/v9"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "contact-api: %v\n", err)
	}
	os.Exit(code)
}

// loadEnv junta o .env (se existir) com o ambiente do processo; o processo vence.
func loadEnv() (map[string]string, error) {
	environ := map[string]string{}
	if _, err := os.Stat(".env"); err == nil {
		fromFile, err := godotenv.Read(".env")
		if err != nil {
			return nil, fmt.Errorf("read .env: %w", err)
		}
		environ = fromFile
	}
	for k, v := range env.ToMap(os.Environ()) {
		environ[k] = v
	}
	return environ, nil
}

func run() (int, error) {
	environ, err := loadEnv()
	if err != nil {
		return exitConfig, err
	}
	cfg, err := readConfig(environ)
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := infra.Open(ctx, cfg.DatabaseURL, infra.Options{Logger: log, QueryTimeout: cfg.DBTimeout})
	if err != nil {
		return exitRuntime, fmt.Errorf("database: %w", err)
	}
	defer func() {
		log.Info("Closing database")
		_ = store.Close()
	}()

	var (
		m       *metrics.Metrics
		hubOpts []broadcast.HubOption
		svcOpts []application.Option
	)
	if cfg.MetricsEnabled {
		m = metrics.New()
		hubOpts = append(hubOpts, broadcast.WithObserver(m))
		svcOpts = append(svcOpts, application.WithRecorder(m))
	}

	hub := broadcast.NewHub(log, hubOpts...)
	svc := application.NewService(store, hub, log, svcOpts...)

	rate, closeRate, err := buildRateLimit(ctx, cfg, log, m)
	if err != nil {
		return exitRuntime, err
	}
	defer closeRate()

	conc := ratelimit.ConcurrencyOptions{AcquireTimeout: cfg.ConcurrencyTimeout}
	if cfg.ConcurrencyMax > 0 {
		pool := rlinfra.NewChanPool(cfg.ConcurrencyMax)
		conc.Pool = pool
		if m != nil {
			if err := m.RegisterPool("db", pool.InUse, pool.Capacity()); err != nil {
				return exitRuntime, fmt.Errorf("register pool metrics: %w", err)
			}
		}
	}

	apiCfg := httpapi.Config{
		Logger:           log,
		BodyLimit:        cfg.BodyLimit,
		PingInterval:     cfg.SSEPingInterval,
		SubscriberBuffer: cfg.SSEBufferSize,
		CORSOrigin:       cfg.CORSOrigin,
		RateLimit:        rate,
		Concurrency:      conc,
	}
	if m != nil {
		apiCfg.Metrics = m.Handler()
	}

	srv := &http.Server{
		Addr:              cfg.listenAddr(),
		Handler:           httpapi.NewHandler(svc, hub, apiCfg),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	// encerra os streams para o Shutdown não esperar conexões eternas
	srv.RegisterOnShutdown(hub.Close)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Contact API running", "addr", srv.Addr, "docs", "/docs")
		log.Info("Rate limit", "enabled", rate != nil, "per_minute", cfg.RatePerMinute,
			"key_header", cfg.RateKeyHeader, "trust_xff", cfg.TrustXFF, "stats_redis", cfg.RateStatsEnabled)
		log.Info("Concurrency", "max", cfg.ConcurrencyMax, "acquire_timeout", cfg.ConcurrencyTimeout)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitRuntime, fmt.Errorf("server: %w", err)
		}
		return exitOK, nil
	case <-ctx.Done():
	}

	log.Info("Shutting down", "timeout", cfg.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown: %w", err)
	}
	return exitOK, nil
}

// buildRateLimit monta a quota por cliente e as estatísticas (Prometheus e,
// se configurado, Redis). Devolve nil quando o rate limit está desligado.
func buildRateLimit(ctx context.Context, cfg config, log *slog.Logger, m *metrics.Metrics) (*ratelimit.Options, func(), error) {
	noop := func() {}
	if !cfg.RateEnabled {
		return nil, noop, nil
	}

	store := rlinfra.NewStore(rldomain.PerMinute(cfg.RatePerMinute))
	store.StartJanitor(ctx)

	var stats rlinfra.FanOutStats
	if m != nil {
		stats = append(stats, m.RateLimitStats())
	}

	closeFn := noop
	if cfg.RateStatsEnabled && cfg.RateStatsRedisAddr == "" {
		mem := rlinfra.NewMemoryStatsStore(rlinfra.WithTrackKeys(cfg.RateStatsTrackKeys))
		stats = append(stats, mem)
		closeFn = func() { logRateStats(log, mem) }
		log.Info("Rate limit stats in memory")
	} else if cfg.RateStatsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateStatsRedisAddr,
			Password: cfg.RateStatsRedisPassword,
			DB:       cfg.RateStatsRedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis stats ping: %w", err)
		}
		closeFn = func() { _ = rdb.Close() }

		stats = append(stats, rlinfra.NewRedisStatsStore(rdb,
			rlinfra.WithStatsPrefix(cfg.RateStatsPrefix),
			rlinfra.WithStatsTTL(cfg.RateStatsTTL),
			rlinfra.WithStatsPerMinute(cfg.RateStatsPerMinute),
			rlinfra.WithStatsTrackKeys(cfg.RateStatsTrackKeys),
		))
		log.Info("Rate limit stats in Redis", "addr", cfg.RateStatsRedisAddr, "prefix", cfg.RateStatsPrefix)
	}

	opts := &ratelimit.Options{
		Store:               store,
		KeyHeader:           cfg.RateKeyHeader,
		TrustXForwardedFor:  cfg.TrustXFF,
		RetryAfter:          cfg.RetryAfter,
		AddRateLimitHeaders: cfg.AddHeaders,
		Logger:              log,
	}
	if len(stats) > 0 {
		opts.Stats = stats
	}
	return opts, closeFn, nil
}

// logRateStats escreve o acumulado das estatísticas em memória (usado no shutdown).
func logRateStats(log *slog.Logger, mem *rlinfra.MemoryStatsStore) {
	total := mem.Total()
	log.Info("Rate limit stats", "allowed", total.Allowed, "denied", total.Denied)

	byRoute := mem.ByRoute()
	routes := slices.Sorted(maps.Keys(byRoute))
	for _, route := range routes {
		c := byRoute[route]
		log.Info("Rate limit stats by route", "route", route, "allowed", c.Allowed, "denied", c.Denied)
	}
}
