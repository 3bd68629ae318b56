package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"record-gateway/middleware/resilience"
	"record-gateway/middleware/resilience/application"
	"record-gateway/middleware/resilience/domain"
	"record-gateway/middleware/resilience/infra"
	"record-gateway/records"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv   *httptest.Server
	gate  *infra.Gate
	stats *infra.MemoryStatsStore
	store *records.Store
}

type envOpts struct {
	max          int
	timeout      time.Duration
	delaySleep   time.Duration
	timeoutSleep time.Duration
	store        RecordStore
}

func newEnv(t *testing.T, o envOpts) *testEnv {
	t.Helper()
	if o.max == 0 {
		o.max = 2
	}
	if o.timeout == 0 {
		o.timeout = 200 * time.Millisecond
	}
	if o.timeoutSleep == 0 {
		o.timeoutSleep = 2 * time.Second
	}

	env := &testEnv{
		gate:  infra.NewGate(o.max, 0),
		stats: infra.NewMemoryStatsStore(),
	}
	if o.store == nil {
		s, err := records.Open(filepath.Join(t.TempDir(), "record.avro"))
		require.NoError(t, err)
		env.store = s
		o.store = s
	}

	h := NewPipeline(PipelineOptions{
		Logger: zerolog.Nop(),
		IDs:    infra.IDGenerator{},
		Handlers: &Handlers{
			Store:        o.store,
			DelaySleep:   o.delaySleep,
			TimeoutSleep: o.timeoutSleep,
		},
		RequestTimeout: o.timeout,
		Gate:           env.gate,
		Stats:          env.stats,
	})
	env.srv = httptest.NewServer(h)
	t.Cleanup(env.srv.Close)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(b)
}

func TestAPI_UploadDownloadTimeoutScenario(t *testing.T) {
	env := newEnv(t, envOpts{timeout: 50 * time.Millisecond})

	resp, body := env.do(t, http.MethodPost, "/upload", `{"content":"whatever"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
	assert.NotEmpty(t, resp.Header.Get("x-request-id"))

	resp, body = env.do(t, http.MethodGet, "/download", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"content":"whatever"}]`, body)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	resp, body = env.do(t, http.MethodGet, "/timeout", "")
	assert.Equal(t, http.StatusRequestTimeout, resp.StatusCode)
	assert.Empty(t, body)
	assert.NotEmpty(t, resp.Header.Get("x-request-id"))
}

func TestAPI_HealthcheckAndDelay(t *testing.T) {
	env := newEnv(t, envOpts{delaySleep: 10 * time.Millisecond})

	resp, body := env.do(t, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)

	resp, body = env.do(t, http.MethodGet, "/delay", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
}

func TestAPI_DownloadEmptyStore(t *testing.T) {
	env := newEnv(t, envOpts{})

	resp, body := env.do(t, http.MethodGet, "/download", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, body)
}

func TestAPI_UploadRejectsBadPayloads(t *testing.T) {
	env := newEnv(t, envOpts{})

	for name, body := range map[string]string{
		"missing content": `{}`,
		"null content":    `{"content":null}`,
		"wrong type":      `{"content":42}`,
		"unknown field":   `{"content":"x","extra":1}`,
		"not json":        `content=x`,
		"two records":     `{"content":"a"}{"content":"b"}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp, respBody := env.do(t, http.MethodPost, "/upload", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Empty(t, respBody)
		})
	}

	recs, err := env.store.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestAPI_UnknownRouteAndWrongMethod(t *testing.T) {
	env := newEnv(t, envOpts{})

	resp, _ := env.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/upload", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

type failingStore struct{ err error }

func (f failingStore) Append(context.Context, records.Record) error { return f.err }
func (f failingStore) ReadAll(context.Context) ([]records.Record, error) {
	return nil, f.err
}

func TestAPI_StoreFailuresAre500(t *testing.T) {
	for _, sentinel := range []error{records.ErrIOFailure, records.ErrCorruptData} {
		env := newEnv(t, envOpts{store: failingStore{err: sentinel}})

		resp, body := env.do(t, http.MethodGet, "/download", "")
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Empty(t, body, "no internal detail in body")

		resp, _ = env.do(t, http.MethodPost, "/upload", `{"content":"x"}`)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	}
}

func TestAPI_OverloadShedsWith503(t *testing.T) {
	const max = 2
	env := newEnv(t, envOpts{max: max, delaySleep: 150 * time.Millisecond, timeout: time.Second})

	codes := make(chan int, max+1)
	var wg sync.WaitGroup
	for i := 0; i < max; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _ := env.do(t, http.MethodGet, "/delay", "")
			codes <- resp.StatusCode
		}()
	}
	require.Eventually(t, func() bool { return env.gate.InFlight() == max }, time.Second, time.Millisecond)

	resp, _ := env.do(t, http.MethodGet, "/delay", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "overloaded", resp.Header.Get("X-Shed-Reason"))
	assert.NotEmpty(t, resp.Header.Get("x-request-id"), "identity is assigned before admission")

	wg.Wait()
	close(codes)
	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, int64(1), env.stats.Total()[domain.OutcomeOverloaded])
}

func TestAPI_DrainLetsInFlightFinish(t *testing.T) {
	const k = 2
	env := newEnv(t, envOpts{max: k, delaySleep: 100 * time.Millisecond, timeout: time.Second})

	codes := make(chan int, k)
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, _ := env.do(t, http.MethodGet, "/delay", "")
			codes <- resp.StatusCode
		}()
	}
	require.Eventually(t, func() bool { return env.gate.InFlight() == k }, time.Second, time.Millisecond)

	drained := make(chan error, 1)
	start := time.Now()
	go func() {
		drained <- application.DrainService{Gate: env.gate, Grace: time.Second}.Drain(context.Background())
	}()
	require.Eventually(t, func() bool { return env.gate.Snapshot().Draining }, time.Second, time.Millisecond)

	resp, _ := env.do(t, http.MethodGet, "/healthcheck", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "draining", resp.Header.Get("X-Shed-Reason"))

	require.NoError(t, <-drained)
	assert.Less(t, time.Since(start), time.Second)

	wg.Wait()
	close(codes)
	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}
	assert.Equal(t, int64(k), env.stats.Total()[domain.OutcomeAdmitted])
	assert.Equal(t, int64(1), env.stats.Total()[domain.OutcomeUnavailable])
}

func TestAPI_RateLimitBeforeAdmission(t *testing.T) {
	store, err := records.Open(filepath.Join(t.TempDir(), "record.avro"))
	require.NoError(t, err)
	gate := infra.NewGate(1, 0)

	h := NewPipeline(PipelineOptions{
		Logger:         zerolog.Nop(),
		IDs:            infra.IDGenerator{},
		Handlers:       &Handlers{Store: store},
		RequestTimeout: time.Second,
		Gate:           gate,
		RateLimit:      resilience.RateLimitOptions{Store: infra.NewRateStore(0.01, 1)},
	})

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "http://example/healthcheck", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "http://example/healthcheck", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get(resilience.HeaderRequestID))
}

func TestRoutes_TableIsFixed(t *testing.T) {
	got := make(map[string]Endpoint)
	for _, rt := range Routes {
		got[rt.Method+" "+rt.Path] = rt.Endpoint
	}
	assert.Equal(t, map[string]Endpoint{
		"GET /healthcheck": Healthcheck,
		"GET /timeout":     TimeoutDemo,
		"GET /delay":       DelayDemo,
		"POST /upload":     Upload,
		"GET /download":    Download,
	}, got)
	for _, rt := range Routes {
		assert.Equal(t, rt.Endpoint != Healthcheck, rt.Guarded, rt.Endpoint.String())
	}
}
