package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carewatch/internal/ratelimit/metrics"
	"carewatch/internal/ratelimit/models"
	"carewatch/internal/ratelimit/store/bucket"
	"carewatch/pkg/platform/circuit"
	"carewatch/pkg/platform/middleware/metadata"
)

type limiterFunc func(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)

func (f limiterFunc) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return f(ctx, key, limit, window)
}

var errStoreDown = errors.New("connection refused")

func failingLimiter() limiterFunc {
	return func(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
		return nil, errStoreDown
	}
}

func newServer(m *Middleware) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return metadata.ClientMetadata(m.Handler(ok))
}

func do(h http.Handler, method, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/institutions", nil)
	req.Header.Set("X-Forwarded-For", ip)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMiddleware_DeniesOverLimit(t *testing.T) {
	m := New(nil, WithLimit(models.ClassWrite, models.Limit{RequestsPerWindow: 2, Window: time.Minute}))
	h := newServer(m)

	for i := range 2 {
		rec := do(h, http.MethodPost, "192.0.2.1")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
		assert.Equal(t, "2", rec.Header().Get(HeaderLimit))
	}

	rec := do(h, http.MethodPost, "192.0.2.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get(HeaderRemaining))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit_exceeded", body["error"])

	// other clients and the read class keep their own allowance
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "192.0.2.2").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "192.0.2.1").Code)
}

func TestMiddleware_Disabled(t *testing.T) {
	m := New(failingLimiter(), WithDisabled(true), WithLimit(models.ClassRead, models.Limit{RequestsPerWindow: 1, Window: time.Minute}))
	h := newServer(m)
	for range 3 {
		rec := do(h, http.MethodGet, "192.0.2.1")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get(HeaderLimit))
	}
}

func TestMiddleware_PrimaryFailureUsesFallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	breaker := circuit.New("ratelimit-test", circuit.WithFailureThreshold(2))
	m := New(failingLimiter(),
		WithBreaker(breaker),
		WithMetrics(mt),
		WithLimit(models.ClassRead, models.Limit{RequestsPerWindow: 3, Window: time.Minute}),
	)
	h := newServer(m)

	for range 3 {
		rec := do(h, http.MethodGet, "192.0.2.1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "degraded", rec.Header().Get(HeaderStatus))
	}
	assert.True(t, breaker.IsOpen())
	assert.Equal(t, float64(1), testutil.ToFloat64(mt.Degraded))

	// the fallback still enforces the limit
	rec := do(h, http.MethodGet, "192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(mt.Decisions.WithLabelValues("read", "denied")))
}

func TestMiddleware_RecoversWhenPrimaryHeals(t *testing.T) {
	now := time.Date(2023, 11, 1, 9, 0, 0, 0, time.UTC)
	healthy := false
	store := bucket.New(bucket.WithClock(func() time.Time { return now }))
	primary := limiterFunc(func(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
		if !healthy {
			return nil, errStoreDown
		}
		return store.Allow(ctx, key, limit, window)
	})
	breaker := circuit.New("ratelimit-test",
		circuit.WithFailureThreshold(1),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Second),
		circuit.WithClock(func() time.Time { return now }),
	)
	h := newServer(New(primary, WithBreaker(breaker)))

	assert.Equal(t, "degraded", do(h, http.MethodGet, "192.0.2.1").Header().Get(HeaderStatus))
	require.True(t, breaker.IsOpen())

	healthy = true
	now = now.Add(2 * time.Second)
	rec := do(h, http.MethodGet, "192.0.2.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get(HeaderStatus))
	assert.False(t, breaker.IsOpen())
}

func TestMiddleware_FailsOpenWhenEveryLimiterFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	h := newServer(New(failingLimiter(), WithFallback(failingLimiter()), WithMetrics(mt)))

	rec := do(h, http.MethodPost, "192.0.2.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), testutil.ToFloat64(mt.Decisions.WithLabelValues("write", "error")))
}
