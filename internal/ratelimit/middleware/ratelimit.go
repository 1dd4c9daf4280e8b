// Package middleware limits requests per client IP on the public HTTP surface.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"carewatch/internal/ratelimit/metrics"
	"carewatch/internal/ratelimit/models"
	"carewatch/internal/ratelimit/store/bucket"
	dErrors "carewatch/pkg/domain-errors"
	"carewatch/pkg/platform/circuit"
	"carewatch/pkg/platform/httputil"
	"carewatch/pkg/requestcontext"
)

const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset"
	HeaderStatus    = "X-RateLimit-Status"
)

// Limiter records one request against a key and reports whether it fits.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// DefaultLimits apply when no WithLimit option overrides a class.
var DefaultLimits = map[models.EndpointClass]models.Limit{
	models.ClassRead:  {RequestsPerWindow: 300, Window: time.Minute},
	models.ClassWrite: {RequestsPerWindow: 60, Window: time.Minute},
}

type Middleware struct {
	primary  Limiter
	fallback Limiter
	breaker  *circuit.Breaker
	limits   map[models.EndpointClass]models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
	// no primary configured; the fallback is authoritative
	single bool
}

type Option func(*Middleware)

// WithDisabled turns the middleware into a pass-through (demo mode, tests).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithLimit(class models.EndpointClass, limit models.Limit) Option {
	return func(m *Middleware) {
		if limit.RequestsPerWindow > 0 && limit.Window > 0 {
			m.limits[class] = limit
		}
	}
}

func WithFallback(l Limiter) Option {
	return func(m *Middleware) {
		if l != nil {
			m.fallback = l
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(m *Middleware) {
		if b != nil {
			m.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Middleware) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

// New builds the middleware around a primary limiter. While the primary keeps
// failing the breaker opens and checks run against an in-process fallback.
// A nil primary makes the fallback the only limiter.
func New(primary Limiter, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		breaker: circuit.New("ratelimit"),
		limits:  make(map[models.EndpointClass]models.Limit, len(DefaultLimits)),
		logger:  slog.Default(),
	}
	for class, limit := range DefaultLimits {
		m.limits[class] = limit
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fallback == nil {
		m.fallback = bucket.New()
	}
	if m.primary == nil {
		m.primary = m.fallback
		m.single = true
	}
	if m.disabled {
		m.logger.Info("rate limiting disabled")
	}
	return m
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		class := models.ClassForMethod(r.Method)
		limit := m.limits[class]
		key := models.NewIPKey(requestcontext.ClientIP(ctx), class)

		result, degraded, err := m.check(ctx, key, limit)
		if err != nil {
			// fail open
			m.metrics.IncrementDecision(string(class), "error")
			m.logger.ErrorContext(ctx, "failed to check rate limit",
				"request_id", requestcontext.RequestID(ctx),
				"class", string(class),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		if degraded {
			w.Header().Set(HeaderStatus, "degraded")
		}
		addRateLimitHeaders(w, result)

		if !result.Allowed {
			m.metrics.IncrementDecision(string(class), "denied")
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"class", string(class),
				"retry_after", result.RetryAfter,
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests, please try again later").
				WithMeta("retry_after", result.RetryAfter))
			return
		}
		m.metrics.IncrementDecision(string(class), "allowed")
		next.ServeHTTP(w, r)
	})
}

// check returns degraded=true when the answer came from the fallback.
func (m *Middleware) check(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, bool, error) {
	if m.single {
		res, err := m.fallback.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
		return res, false, err
	}

	if m.breaker.Allow() {
		res, err := m.primary.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
		if err == nil {
			if _, change := m.breaker.RecordSuccess(); change.Closed {
				m.metrics.SetDegraded(false)
				m.logger.InfoContext(ctx, "rate limit store recovered", "breaker", m.breaker.Name())
			}
			return res, false, nil
		}
		_, change := m.breaker.RecordFailure()
		if change.Opened {
			m.metrics.SetDegraded(true)
			m.logger.WarnContext(ctx, "rate limit store failing, using in-process fallback",
				"breaker", m.breaker.Name(),
				"error", err,
			)
		} else {
			m.logger.WarnContext(ctx, "rate limit store error", "error", err)
		}
	}

	res, err := m.fallback.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
	return res, true, err
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set(HeaderLimit, strconv.Itoa(result.Limit))
	w.Header().Set(HeaderRemaining, strconv.Itoa(result.Remaining))
	w.Header().Set(HeaderReset, strconv.FormatInt(result.ResetAt.Unix(), 10))
}
