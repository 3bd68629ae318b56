package api

import (
	"net/http"
	"time"

	"record-gateway/middleware/resilience"
	"record-gateway/middleware/resilience/domain"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

type PipelineOptions struct {
	Logger   zerolog.Logger
	IDs      resilience.IDSource
	Handlers *Handlers
	// RequestTimeout é o prazo das rotas guardadas.
	RequestTimeout time.Duration

	Gate           domain.Gate
	BacklogTimeout time.Duration

	// RateLimit é opcional; Store nil desliga.
	RateLimit resilience.RateLimitOptions

	Stats domain.StatsStore
}

// NewPipeline monta a cadeia completa, de fora para dentro:
// logger -> request id -> access log -> rate limit -> admissão -> mux (timeout por rota) -> handler.
func NewPipeline(opts PipelineOptions) http.Handler {
	h := http.Handler(NewMux(opts.Handlers, opts.RequestTimeout, opts.Stats))
	h = resilience.Admission(resilience.AdmissionOptions{
		Gate:           opts.Gate,
		BacklogTimeout: opts.BacklogTimeout,
		Stats:          opts.Stats,
	})(h)

	rl := opts.RateLimit
	if rl.Stats == nil {
		rl.Stats = opts.Stats
	}
	h = resilience.RateLimit(rl)(h)

	h = resilience.AccessLog()(h)
	h = resilience.RequestID(opts.IDs)(h)
	h = hlog.NewHandler(opts.Logger)(h)
	return h
}
