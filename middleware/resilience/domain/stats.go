package domain

import (
	"context"
	"time"
)

// StatsEvent registra o resultado de um pedido em uma das camadas
// (admissão, timeout ou rate limit).
//
// Key só é preenchida pelo rate limit; cuidado com cardinalidade ao
// persistir por chave.
type StatsEvent struct {
	Key     Key
	Outcome Outcome

	Method string
	Path   string

	At time.Time
}

// StatsStore persiste eventos de resultado.
// Os middlewares tratam erro como best-effort (não derrubam o pedido).
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
