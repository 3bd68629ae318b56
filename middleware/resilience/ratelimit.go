package resilience

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"record-gateway/middleware/resilience/application"
	"record-gateway/middleware/resilience/domain"

	"github.com/rs/zerolog/hlog"
)

type KeyFunc func(r *http.Request) string

type RateLimitOptions struct {
	Store               domain.LimiterStore
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	KeyHeader           string
	TrustXForwardedFor  bool
	RetryAfter          time.Duration
	AddRateLimitHeaders bool
}

type rateInfo interface {
	RPS() float64
	Burst() int
}

// ClientKey extrai a chave do cliente: header configurado, primeiro IP do
// X-Forwarded-For (se confiável) ou RemoteAddr.
func ClientKey(keyHeader string, trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		if keyHeader != "" {
			if v := strings.TrimSpace(r.Header.Get(keyHeader)); v != "" {
				return v
			}
		}

		if trustXFF {
			if first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ","); strings.TrimSpace(first) != "" {
				return strings.TrimSpace(first)
			}
		}

		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// RateLimit aplica token bucket por cliente antes da admissão. Pedidos
// bloqueados recebem 429 sem corpo, com Retry-After.
func RateLimit(opts RateLimitOptions) func(next http.Handler) http.Handler {
	if opts.Store == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.KeyFn == nil {
		opts.KeyFn = ClientKey(opts.KeyHeader, opts.TrustXForwardedFor)
	}

	svc := application.RateService{
		Store:      opts.Store,
		RetryAfter: opts.RetryAfter,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := domain.Key(opts.KeyFn(r))

			if opts.AddRateLimitHeaders {
				if ri, ok := opts.Store.(rateInfo); ok {
					w.Header().Set("X-RateLimit-RPS", formatFloat(ri.RPS()))
					w.Header().Set("X-RateLimit-Burst", strconv.Itoa(ri.Burst()))
				}
			}

			dec := svc.Decide(key)
			if !dec.Allowed {
				recordOutcome(opts.Stats, r, key, domain.OutcomeRateLimited)
				hlog.FromRequest(r).Warn().Str("client", string(key)).Msg("request rate limited")
				w.Header().Set(headerRetryAfter, retryAfterSeconds(dec.RetryAfter))
				w.WriteHeader(StatusFor(domain.ErrRateLimited))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
