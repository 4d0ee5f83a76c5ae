package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"contact-stream/middleware/ratelimit/application"
	"contact-stream/middleware/ratelimit/domain"
)

// MessageTooManyRequests é o corpo de erro do 429.
const MessageTooManyRequests = "Too many requests"

type KeyFunc func(r *http.Request) string

// RouteFunc dá o rótulo de rota usado nas estatísticas. Deve ter cardinalidade
// baixa (padrão de rota, nunca a URL crua com ids).
type RouteFunc func(r *http.Request) string

type Options struct {
	Store               domain.LimiterStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
	RouteFn             RouteFunc
	OnReject            RejectFunc
	Logger              *slog.Logger
}

type quotaInfo interface {
	Quota() domain.Quota
}

// DefaultKeyFunc escolhe a chave do cliente nesta ordem: header configurado,
// primeiro IP do X-Forwarded-For (só com trustXFF) e host do RemoteAddr.
func DefaultKeyFunc(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}
		if trustXFF {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}
		remote := strings.TrimSpace(r.RemoteAddr)
		if host, _, err := net.SplitHostPort(remote); err == nil && host != "" {
			return host
		}
		if remote != "" {
			return remote
		}
		return "unknown"
	}
}

func defaultRoute(r *http.Request) string { return r.URL.Path }

// Middleware aplica a quota por cliente antes do próximo handler.
// Bloqueado: 429 com Retry-After e corpo {"error":"Too many requests"}.
func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = application.DefaultRetryAfter
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.KeyHeader, opts.TrustXForwardedFor)
	}
	if opts.RouteFn == nil {
		opts.RouteFn = defaultRoute
	}
	if opts.OnReject == nil {
		opts.OnReject = JSONReject
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	svc := application.Service{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}
	qi, hasQuota := opts.Store.(quotaInfo)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := opts.KeyFn(r)
			dec := svc.Decide(domain.Key(key))

			if opts.AddRateLimitHeaders && hasQuota {
				q := qi.Quota()
				w.Header().Set("RateLimit-Limit", formatInt(q.Requests))
				w.Header().Set("RateLimit-Policy", formatInt(q.Requests)+";w="+formatInt(int(q.Window.Seconds())))
				if dec.Remaining >= 0 {
					w.Header().Set("RateLimit-Remaining", formatInt(dec.Remaining))
				}
			}

			if opts.Stats != nil {
				ev := domain.StatsEvent{
					Key:     domain.Key(key),
					Allowed: dec.Allowed,
					Method:  r.Method,
					Path:    opts.RouteFn(r),
					At:      time.Now(),
				}
				if err := opts.Stats.Record(r.Context(), ev); err != nil {
					opts.Logger.Debug("Rate limit stats not recorded", "err", err)
				}
			}

			if !dec.Allowed {
				w.Header().Set("Retry-After", formatInt(int(dec.RetryAfter.Seconds())))
				opts.Logger.Warn("Rate limited", "key", key, "method", r.Method, "path", r.URL.Path)
				opts.OnReject(w, r, http.StatusTooManyRequests, MessageTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
