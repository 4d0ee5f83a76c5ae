package httpapi

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"contact-stream/middleware/ratelimit"
	"contact-stream/middleware/requestlog"
	"contact-stream/middleware/security"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	DefaultBodyLimit        = 10 << 10
	DefaultPingInterval     = 25 * time.Second
	DefaultSubscriberBuffer = 64
	DefaultCORSOrigin       = "http://localhost:3000"

	// APIPrefix mantém os caminhos do serviço antigo (/api/contact, ...).
	APIPrefix = "/api"
)

type Config struct {
	Logger           *slog.Logger
	BodyLimit        int64
	PingInterval     time.Duration
	SubscriberBuffer int
	CORSOrigin       string
	// RateLimit nil desliga o rate limit.
	RateLimit *ratelimit.Options
	// Concurrency vale só para as rotas que usam o banco (POST e GET /contact).
	Concurrency ratelimit.ConcurrencyOptions
	// Metrics nil não expõe /metrics.
	Metrics http.Handler
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.BodyLimit <= 0 {
		c.BodyLimit = DefaultBodyLimit
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = DefaultSubscriberBuffer
	}
	if strings.TrimSpace(c.CORSOrigin) == "" {
		c.CORSOrigin = DefaultCORSOrigin
	}
	return c
}

// NewHandler monta o router completo: middlewares globais, rotas JSON na raiz e
// em /api, documentação e métricas.
func NewHandler(svc ContactService, hub StreamHub, cfg Config) http.Handler {
	cfg = cfg.withDefaults()

	h := &handlers{svc: svc, log: cfg.Logger, bodyLimit: cfg.BodyLimit}
	st := &streamer{hub: hub, log: cfg.Logger, ping: cfg.PingInterval, buffer: cfg.SubscriberBuffer}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestlog.Middleware(cfg.Logger))
	r.Use(security.Middleware())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.CORSOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Retry-After", "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Policy", requestlog.HeaderRequestID},
	}))
	if cfg.RateLimit != nil {
		rl := *cfg.RateLimit
		if rl.OnReject == nil {
			rl.OnReject = rejectJSON
		}
		if rl.RouteFn == nil {
			rl.RouteFn = routeLabel
		}
		if rl.Logger == nil {
			rl.Logger = cfg.Logger
		}
		r.Use(ratelimit.Middleware(rl))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	conc := cfg.Concurrency
	if conc.OnReject == nil {
		conc.OnReject = rejectJSON
	}
	limited := ratelimit.ConcurrencyMiddleware(conc)

	api := func(r chi.Router) {
		r.Get("/health", h.health)
		r.With(limited).Post("/contact", h.createContact)
		r.With(limited).Get("/contact", h.listContacts)
		r.Get("/contact/stream", st.serve)
	}
	api(r)
	r.Route(APIPrefix, api)

	r.Get("/", serveBytes("text/html; charset=utf-8", landingPage))
	r.Get("/docs", serveBytes("text/html; charset=utf-8", docsPage))
	r.Get("/docs.json", serveBytes("application/json; charset=utf-8", openAPIDoc))
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	return r
}

var knownRoutes = map[string]struct{}{
	"/":               {},
	"/health":         {},
	"/contact":        {},
	"/contact/stream": {},
	"/docs":           {},
	"/docs.json":      {},
	"/metrics":        {},
}

// routeLabel reduz o caminho a um conjunto fechado de rótulos para estatística.
func routeLabel(r *http.Request) string {
	p := r.URL.Path
	if rest, ok := strings.CutPrefix(p, APIPrefix); ok && (rest == "" || strings.HasPrefix(rest, "/")) {
		p = rest
	}
	if p == "" {
		p = "/"
	}
	if _, ok := knownRoutes[p]; ok {
		return p
	}
	return "other"
}
