package api

import (
	"net/http"
	"time"

	"record-gateway/middleware/resilience"
	"record-gateway/middleware/resilience/domain"
)

// Endpoint é a variante de handler de uma rota.
type Endpoint int

const (
	Healthcheck Endpoint = iota
	TimeoutDemo
	DelayDemo
	Upload
	Download
)

func (e Endpoint) String() string {
	switch e {
	case Healthcheck:
		return "healthcheck"
	case TimeoutDemo:
		return "timeout"
	case DelayDemo:
		return "delay"
	case Upload:
		return "upload"
	case Download:
		return "download"
	default:
		return "unknown"
	}
}

// Route liga um método e caminho a um Endpoint.
type Route struct {
	Method   string
	Path     string
	Endpoint Endpoint
	// Guarded liga o Timeout com o prazo padrão na rota.
	Guarded bool
}

// Routes é a tabela fixa (método, caminho) -> endpoint.
var Routes = []Route{
	{Method: http.MethodGet, Path: "/healthcheck", Endpoint: Healthcheck},
	{Method: http.MethodGet, Path: "/timeout", Endpoint: TimeoutDemo, Guarded: true},
	{Method: http.MethodGet, Path: "/delay", Endpoint: DelayDemo, Guarded: true},
	{Method: http.MethodPost, Path: "/upload", Endpoint: Upload, Guarded: true},
	{Method: http.MethodGet, Path: "/download", Endpoint: Download, Guarded: true},
}

func (h *Handlers) handlerFor(e Endpoint) http.Handler {
	switch e {
	case Healthcheck:
		return http.HandlerFunc(h.Healthcheck)
	case TimeoutDemo:
		return sleepThenRespond(h.TimeoutSleep)
	case DelayDemo:
		return sleepThenRespond(h.DelaySleep)
	case Upload:
		return http.HandlerFunc(h.Upload)
	case Download:
		return http.HandlerFunc(h.Download)
	default:
		return http.NotFoundHandler()
	}
}

// NewMux registra a tabela de rotas, aplicando o Timeout nas rotas guardadas.
func NewMux(h *Handlers, timeout time.Duration, stats domain.StatsStore) *http.ServeMux {
	mux := http.NewServeMux()
	for _, rt := range Routes {
		var guard time.Duration
		if rt.Guarded {
			guard = timeout
		}
		handler := resilience.Timeout(resilience.TimeoutOptions{
			Timeout: guard,
			Stats:   stats,
		})(h.handlerFor(rt.Endpoint))
		mux.Handle(rt.Method+" "+rt.Path, handler)
	}
	return mux
}
