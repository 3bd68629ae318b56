package infra

import (
	"context"
	"sync"
	"time"

	"record-gateway/middleware/resilience/domain"

	"golang.org/x/time/rate"
)

// RateStore mantém um token bucket (x/time/rate) por chave de cliente, com
// expiração das chaves ociosas.
type RateStore struct {
	mu      sync.Mutex
	buckets map[domain.Key]*bucket
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	sweep   time.Duration
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

type RateStoreOption func(*RateStore)

func WithIdleTTL(d time.Duration) RateStoreOption {
	return func(s *RateStore) { s.idleTTL = d }
}

func WithSweepEvery(d time.Duration) RateStoreOption {
	return func(s *RateStore) { s.sweep = d }
}

func withClock(now func() time.Time) RateStoreOption {
	return func(s *RateStore) { s.now = now }
}

func NewRateStore(rps float64, burst int, opts ...RateStoreOption) *RateStore {
	s := &RateStore{
		buckets: make(map[domain.Key]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: 15 * time.Minute,
		sweep:   2 * time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RateStore) RPS() float64 { return float64(s.limit) }
func (s *RateStore) Burst() int   { return s.burst }

// Get implementa domain.LimiterStore.
func (s *RateStore) Get(key domain.Key) domain.Limiter {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.buckets[key]; ok {
		b.lastSeen = now
		return b.lim
	}
	b := &bucket{lim: rate.NewLimiter(s.limit, s.burst), lastSeen: now}
	s.buckets[key] = b
	return b.lim
}

// Len devolve quantas chaves estão em cache.
func (s *RateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buckets)
}

// Sweep remove buckets não usados há mais de idleTTL.
func (s *RateStore) Sweep() {
	cutoff := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, b := range s.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(s.buckets, k)
		}
	}
}

// StartJanitor roda Sweep periodicamente até ctx encerrar.
func (s *RateStore) StartJanitor(ctx context.Context) {
	if s.sweep <= 0 {
		return
	}

	t := time.NewTicker(s.sweep)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Sweep()
			}
		}
	}()
}
