package resilience

import (
	"errors"
	"net/http"

	"record-gateway/middleware/resilience/domain"
)

const (
	headerRetryAfter = "Retry-After"
	headerShedReason = "X-Shed-Reason"
)

// StatusFor traduz um erro da camada de resiliência para status HTTP.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrOverloaded), errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// reject escreve a resposta de rejeição sem corpo.
func reject(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOverloaded):
		w.Header().Set(headerShedReason, "overloaded")
		w.Header().Set(headerRetryAfter, "1")
	case errors.Is(err, domain.ErrUnavailable):
		w.Header().Set(headerShedReason, "draining")
		w.Header().Set("Connection", "close")
	}
	w.WriteHeader(StatusFor(err))
}
