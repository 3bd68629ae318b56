package application

import (
	"testing"
	"time"

	"record-gateway/middleware/resilience/domain"
)

type fakeLimiter struct {
	allow bool
}

func (f fakeLimiter) Allow() bool { return f.allow }

type fakeStore struct {
	lim domain.Limiter
}

func (s fakeStore) Get(domain.Key) domain.Limiter { return s.lim }

func TestRateService_AllowsWhenNoStore(t *testing.T) {
	dec := RateService{}.Decide("k")
	if !dec.Allowed || dec.RetryAfter != 0 {
		t.Fatalf("expected allowed without retry-after, got %+v", dec)
	}
}

func TestRateService_AllowsWhenLimiterAllows(t *testing.T) {
	svc := RateService{Store: fakeStore{lim: fakeLimiter{allow: true}}, RetryAfter: 5 * time.Second}
	if dec := svc.Decide("k"); !dec.Allowed {
		t.Fatalf("expected allowed")
	}
}

func TestRateService_BlocksWithDefaultRetryAfter(t *testing.T) {
	svc := RateService{Store: fakeStore{lim: fakeLimiter{allow: false}}}
	dec := svc.Decide("k")
	if dec.Allowed {
		t.Fatalf("expected blocked")
	}
	if dec.RetryAfter != time.Second {
		t.Fatalf("expected default RetryAfter=1s, got %s", dec.RetryAfter)
	}
}

func TestRateService_BlocksWithConfiguredRetryAfter(t *testing.T) {
	svc := RateService{Store: fakeStore{lim: fakeLimiter{allow: false}}, RetryAfter: 2500 * time.Millisecond}
	if dec := svc.Decide("k"); dec.Allowed || dec.RetryAfter != 2500*time.Millisecond {
		t.Fatalf("expected blocked with 2.5s, got %+v", dec)
	}
}
