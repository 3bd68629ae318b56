package resilience

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"record-gateway/middleware/resilience/domain"
	"record-gateway/middleware/resilience/infra"
)

func TestRateLimit_AllowsThenRejectsSameClient(t *testing.T) {
	store := infra.NewRateStore(0.02, 1)
	stats := infra.NewMemoryStatsStore(infra.WithTrackKeys(true))

	calls := 0
	h := RateLimit(RateLimitOptions{
		Store:               store,
		Stats:               stats,
		RetryAfter:          1500 * time.Millisecond,
		AddRateLimitHeaders: true,
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	r1 := httptest.NewRequest(http.MethodGet, "http://example/delay", nil)
	r1.RemoteAddr = "10.0.0.1:1234"
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, r1)
	if w1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w1.Code)
	}
	if w1.Header().Get("X-RateLimit-RPS") == "" || w1.Header().Get("X-RateLimit-Burst") != "1" {
		t.Fatalf("expected rate limit headers, got %v", w1.Header())
	}

	r2 := httptest.NewRequest(http.MethodGet, "http://example/delay", nil)
	r2.RemoteAddr = "10.0.0.1:4321"
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, r2)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w2.Code)
	}
	if got := w2.Header().Get("Retry-After"); got != "2" {
		t.Fatalf("expected Retry-After rounded up to 2, got %q", got)
	}
	if calls != 1 {
		t.Fatalf("expected handler called once, got %d", calls)
	}
	if got := stats.ByKey()["10.0.0.1"][domain.OutcomeRateLimited]; got != 1 {
		t.Fatalf("expected rate limited event for client, got %d", got)
	}

	// outro cliente tem o próprio bucket
	r3 := httptest.NewRequest(http.MethodGet, "http://example/delay", nil)
	r3.RemoteAddr = "10.0.0.2:1234"
	w3 := httptest.NewRecorder()
	h.ServeHTTP(w3, r3)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 for other client, got %d", w3.Code)
	}
}

func TestClientKey_PrefersHeaderWhenSet(t *testing.T) {
	fn := ClientKey("X-Client", false)

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.1:1234"
	r.Header.Set("X-Client", " client-123 ")

	if got := fn(r); got != "client-123" {
		t.Fatalf("expected header key, got %q", got)
	}
}

func TestClientKey_TrustXForwardedForUsesFirstIP(t *testing.T) {
	fn := ClientKey("", true)

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")

	if got := fn(r); got != "1.2.3.4" {
		t.Fatalf("expected first XFF ip, got %q", got)
	}
}

func TestClientKey_IgnoresXForwardedForWhenUntrusted(t *testing.T) {
	fn := ClientKey("", false)

	r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	r.Header.Set("X-Forwarded-For", "1.2.3.4")

	if got := fn(r); got != "10.0.0.9" {
		t.Fatalf("expected remote host, got %q", got)
	}
}
