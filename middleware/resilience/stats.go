package resilience

import (
	"context"
	"net/http"
	"time"

	"record-gateway/middleware/resilience/domain"

	"github.com/rs/zerolog/hlog"
)

// statsTimeout limita quanto um pedido espera pelo store de stats.
var statsTimeout = 100 * time.Millisecond

// recordOutcome é best-effort: falha no store de stats só vira log, e um store
// lento custa no máximo statsTimeout ao pedido.
func recordOutcome(stats domain.StatsStore, r *http.Request, key domain.Key, o domain.Outcome) {
	if stats == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), statsTimeout)
	defer cancel()

	err := stats.Record(ctx, domain.StatsEvent{
		Key:     key,
		Outcome: o,
		Method:  r.Method,
		Path:    r.URL.Path,
		At:      time.Now(),
	})
	if err != nil {
		hlog.FromRequest(r).Debug().Err(err).Msg("stats record failed")
	}
}
