package domain

import "time"

// Key identifica o cliente para o rate limit (IP, API key, header).
type Key string

// Limiter decide se uma ação é permitida agora.
// A camada de infra usa golang.org/x/time/rate.
type Limiter interface {
	Allow() bool
}

// LimiterStore obtém um limiter por chave.
type LimiterStore interface {
	Get(Key) Limiter
}

type Decision struct {
	Allowed bool
	// RetryAfter vai no header Retry-After quando bloquear. 0 = sem recomendação.
	RetryAfter time.Duration
}
