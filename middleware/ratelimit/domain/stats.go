package domain

import (
	"context"
	"time"
)

// StatsEvent é uma decisão do rate limit, registrada para estatística.
//
// Cuidado com cardinalidade: Path deve ser o padrão da rota, não a URL crua,
// e Key só deve ser guardada quando o backend aguenta uma série por cliente.
type StatsEvent struct {
	Key     Key
	Allowed bool

	Method string
	Path   string

	At time.Time
}

// StatsStore grava eventos de decisão. O middleware trata erro como
// best-effort: a requisição nunca falha por causa de estatística.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
