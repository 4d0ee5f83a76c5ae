package domain

import (
	"math"
	"time"
)

// Key identifica o cliente limitado (IP, header de API, etc).
type Key string

// Limiter decide se o cliente pode fazer mais uma requisição agora.
type Limiter interface {
	Allow() bool
}

// TokenCounter é opcional: limiters que sabem quantas fichas restam
// permitem preencher RateLimit-Remaining.
type TokenCounter interface {
	Tokens() float64
}

// LimiterStore devolve o limiter de uma chave, criando-o na primeira vez.
type LimiterStore interface {
	Get(Key) Limiter
}

// Quota é "Requests por Window", convertida em token bucket:
// recarga contínua de Requests/Window por segundo e rajada de Requests.
type Quota struct {
	Requests int
	Window   time.Duration
}

func PerMinute(n int) Quota {
	return Quota{Requests: n, Window: time.Minute}
}

func (q Quota) RPS() float64 {
	if q.Requests <= 0 || q.Window <= 0 {
		return 0
	}
	return float64(q.Requests) / q.Window.Seconds()
}

func (q Quota) Burst() int {
	if q.Requests <= 0 {
		return 0
	}
	return q.Requests
}

type Decision struct {
	Allowed bool
	// RetryAfter só é preenchido quando a requisição é bloqueada.
	RetryAfter time.Duration
	// Remaining é -1 quando o limiter não informa fichas restantes.
	Remaining int
}

// RemainingFrom arredonda para baixo e nunca fica negativo.
func RemainingFrom(tokens float64) int {
	if tokens <= 0 {
		return 0
	}
	return int(math.Floor(tokens))
}
