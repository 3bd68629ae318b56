package resilience

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// HeaderRequestID é o header de resposta com a identidade do pedido.
const HeaderRequestID = "X-Request-Id"

type requestIDKey struct{}

// IDSource gera identidades de pedido.
type IDSource interface {
	NewID() string
}

// RequestID atribui uma identidade nova a cada pedido, antes da admissão, para
// que até respostas descartadas levem x-request-id. Um x-request-id de entrada
// é ignorado.
//
// Precisa rodar depois de hlog.NewHandler: o id é anexado ao logger do pedido.
func RequestID(ids IDSource) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ids.NewID()
			w.Header().Set(HeaderRequestID, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			zerolog.Ctx(ctx).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom devolve a identidade atribuída ao pedido, se houver.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// AccessLog registra uma linha por pedido com status, tamanho e duração.
func AccessLog() func(next http.Handler) http.Handler {
	return hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		ev := hlog.FromRequest(r).Info()
		if status >= http.StatusInternalServerError {
			ev = hlog.FromRequest(r).Error()
		} else if status >= http.StatusBadRequest {
			ev = hlog.FromRequest(r).Warn()
		}
		ev.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	})
}
