package ratelimit

import (
	"net/http"
	"time"

	"contact-stream/middleware/ratelimit/application"
	"contact-stream/middleware/ratelimit/domain"
	"contact-stream/middleware/ratelimit/infra"
)

// MessageServerBusy é o corpo de erro quando não há vaga.
const MessageServerBusy = "Server busy"

type ConcurrencyOptions struct {
	Max            int
	AcquireTimeout time.Duration
	// Pool substitui o semáforo criado a partir de Max (ex.: para expor InUse em métricas).
	Pool     domain.SlotPool
	OnReject RejectFunc
}

// ConcurrencyMiddleware segura uma vaga do pool durante toda a requisição.
// Sem vaga dentro do prazo: 503 {"error":"Server busy"}.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Pool == nil {
		if opts.Max <= 0 {
			return func(next http.Handler) http.Handler { return next }
		}
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	if opts.OnReject == nil {
		opts.OnReject = JSONReject
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, ok := svc.Acquire(r.Context())
			if !ok {
				opts.OnReject(w, r, http.StatusServiceUnavailable, MessageServerBusy)
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
