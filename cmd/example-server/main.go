package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-stream/broadcast"
	"contact-stream/contact/application"
	"contact-stream/contact/infra"
	"contact-stream/httpapi"
	"contact-stream/middleware/ratelimit"
	rldomain "contact-stream/middleware/ratelimit/domain"
	rlinfra "contact-stream/middleware/ratelimit/infra"

	"github.com/go-chi/chi/v5"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	// Exemplo: montando a API de contato dentro de outro webserver, com sqlite em memória
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logs.GetLoggerFromString("DEBUG")

	store, err := infra.Open(ctx, "sqlite::memory:", infra.Options{Logger: logger})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	hub := broadcast.NewHub(logger)
	svc := application.NewService(store, hub, logger)

	limits := rlinfra.NewStore(rldomain.PerMinute(5))
	limits.StartJanitor(ctx)

	api := httpapi.NewHandler(svc, hub, httpapi.Config{
		Logger:     logger,
		CORSOrigin: "*",
		RateLimit: &ratelimit.Options{
			Store:               limits,
			KeyHeader:           "X-Api-Key", // ou vazio para usar IP
			AddRateLimitHeaders: true,
		},
		Concurrency: ratelimit.ConcurrencyOptions{Max: 4},
	})

	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Mount("/contato", api)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	srv.RegisterOnShutdown(hub.Close)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("example server listening on %s (api em /contato/api)", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
