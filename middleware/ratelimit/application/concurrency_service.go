package application

import (
	"context"
	"time"

	"contact-stream/middleware/ratelimit/domain"
)

// ConcurrencyService adquire uma vaga do pool, opcionalmente com prazo.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire espera por uma vaga.
// Com AcquireTimeout <= 0 espera até ctx terminar; senão desiste no prazo.
// Com ok=false nenhuma vaga foi tomada e release é nil.
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), bool) {
	if s.Pool == nil {
		return func() {}, true
	}
	if s.AcquireTimeout <= 0 {
		return s.Pool.Acquire(ctx)
	}

	acqCtx, cancel := context.WithTimeout(ctx, s.AcquireTimeout)
	defer cancel()
	return s.Pool.Acquire(acqCtx)
}
