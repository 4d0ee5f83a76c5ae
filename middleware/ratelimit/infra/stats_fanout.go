package infra

import (
	"context"
	"errors"

	"contact-stream/middleware/ratelimit/domain"
)

// FanOutStats repassa cada evento a todos os stores (ex.: Prometheus e Redis).
// Um store com erro não impede os demais; os erros voltam combinados.
type FanOutStats []domain.StatsStore

func (f FanOutStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
