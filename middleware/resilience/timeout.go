package resilience

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"record-gateway/middleware/resilience/application"
	"record-gateway/middleware/resilience/domain"

	"github.com/rs/zerolog/hlog"
)

type TimeoutOptions struct {
	// Timeout <= 0 desliga o guard para a rota.
	Timeout time.Duration
	Stats   domain.StatsStore
}

// Timeout limita a duração do handler. A resposta do handler fica em buffer e
// só é copiada se ele terminar dentro do prazo; senão o cliente recebe 408 sem
// corpo e o que o handler escrever depois é descartado.
//
// Diferente de http.TimeoutHandler, que responde 503 com corpo.
func Timeout(opts TimeoutOptions) func(next http.Handler) http.Handler {
	if opts.Timeout <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	svc := application.TimeoutService{Timeout: opts.Timeout}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &timeoutWriter{header: w.Header().Clone()}

			err := svc.Run(r.Context(), func(ctx context.Context) {
				next.ServeHTTP(tw, r.WithContext(ctx))
			})

			tw.mu.Lock()
			defer tw.mu.Unlock()

			if err == nil {
				tw.flushTo(w)
				return
			}

			tw.timedOut = true
			if errors.Is(err, domain.ErrTimeout) {
				recordOutcome(opts.Stats, r, "", domain.OutcomeTimeout)
				hlog.FromRequest(r).Warn().Dur("timeout", opts.Timeout).Msg("request timed out")
				w.WriteHeader(StatusFor(err))
				return
			}
			// cliente desconectou; ninguém lê a resposta
			hlog.FromRequest(r).Debug().Err(err).Msg("request abandoned by client")
		})
	}
}

type timeoutWriter struct {
	mu          sync.Mutex
	header      http.Header
	buf         bytes.Buffer
	code        int
	wroteHeader bool
	timedOut    bool
}

func (tw *timeoutWriter) Header() http.Header { return tw.header }

func (tw *timeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.wroteHeader {
		tw.writeHeaderLocked(http.StatusOK)
	}
	return tw.buf.Write(p)
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.writeHeaderLocked(code)
}

func (tw *timeoutWriter) writeHeaderLocked(code int) {
	tw.wroteHeader = true
	tw.code = code
}

func (tw *timeoutWriter) flushTo(w http.ResponseWriter) {
	dst := w.Header()
	for k := range dst {
		if _, ok := tw.header[k]; !ok {
			delete(dst, k)
		}
	}
	for k, v := range tw.header {
		dst[k] = v
	}
	if !tw.wroteHeader {
		tw.code = http.StatusOK
	}
	w.WriteHeader(tw.code)
	_, _ = w.Write(tw.buf.Bytes())
}
