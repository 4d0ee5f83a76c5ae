package application

import (
	"time"

	"contact-stream/middleware/ratelimit/domain"
)

// DefaultRetryAfter acompanha a janela de um minuto da quota padrão.
const DefaultRetryAfter = 60 * time.Second

// Service decide allow/deny para uma chave. Não sabe nada de HTTP.
type Service struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

func (s Service) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true, Remaining: -1}
	}
	retry := s.RetryAfter
	if retry <= 0 {
		retry = DefaultRetryAfter
	}

	lim := s.Store.Get(key)
	if lim == nil {
		return domain.Decision{Allowed: true, Remaining: -1}
	}

	allowed := lim.Allow()
	remaining := -1
	if tc, ok := lim.(domain.TokenCounter); ok {
		remaining = domain.RemainingFrom(tc.Tokens())
	}
	if allowed {
		return domain.Decision{Allowed: true, Remaining: remaining}
	}
	return domain.Decision{Allowed: false, RetryAfter: retry, Remaining: 0}
}
