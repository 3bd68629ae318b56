package application

import (
	"time"

	"record-gateway/middleware/resilience/domain"
)

// RateService concentra a regra do rate limit por cliente.
//
// Ele não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type RateService struct {
	Store      domain.LimiterStore
	RetryAfter time.Duration
}

func (s RateService) Decide(key domain.Key) domain.Decision {
	if s.Store == nil {
		return domain.Decision{Allowed: true}
	}
	retry := s.RetryAfter
	if retry <= 0 {
		retry = time.Second
	}

	lim := s.Store.Get(key)
	if lim == nil || lim.Allow() {
		return domain.Decision{Allowed: true}
	}
	return domain.Decision{Allowed: false, RetryAfter: retry}
}
