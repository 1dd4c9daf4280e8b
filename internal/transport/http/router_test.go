package httptransport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	accessHandler "carewatch/internal/access/handler"
	advisorHandler "carewatch/internal/advisor/handler"
	advisorService "carewatch/internal/advisor/service"
	allocationHandler "carewatch/internal/allocation/handler"
	allocationService "carewatch/internal/allocation/service"
	allocationStore "carewatch/internal/allocation/store"
	bookingHandler "carewatch/internal/booking/handler"
	bookingService "carewatch/internal/booking/service"
	bookingStore "carewatch/internal/booking/store"
	catalogHandler "carewatch/internal/catalog/handler"
	catalogService "carewatch/internal/catalog/service"
	catalogStore "carewatch/internal/catalog/store"
	donationHandler "carewatch/internal/donation/handler"
	"carewatch/internal/donation/receipt"
	donationService "carewatch/internal/donation/service"
	donationStore "carewatch/internal/donation/store"
	"carewatch/internal/platform/metrics"
	"carewatch/internal/platform/middleware"
	rateLimitMiddleware "carewatch/internal/ratelimit/middleware"
	rateLimitModels "carewatch/internal/ratelimit/models"
	"carewatch/internal/storage"
	"carewatch/pkg/platform/middleware/role"
)

type RouterSuite struct {
	suite.Suite
	router  http.Handler
	healthy error
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	s.healthy = nil

	catalog := catalogService.New(catalogStore.NewSeeded())
	donations := donationService.New(donationStore.NewInMemory(), catalog, receipt.NewURLIssuer("https://carewatch.local"))
	allocations := allocationService.New(allocationStore.NewInMemory(), storage.NewInMemory(), catalog)
	bookings := bookingService.New(bookingStore.NewInMemory(), catalog)
	advisory := advisorService.New(nil, donations)

	s.router = NewRouter(Config{
		Logger:   logger,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		HealthChecks: map[string]HealthCheck{
			"store": func(context.Context) error { return s.healthy },
		},
		Handlers: []Registrar{
			accessHandler.New(),
			catalogHandler.New(catalog, logger),
			donationHandler.New(donations, logger),
			allocationHandler.New(allocations, logger),
			bookingHandler.New(bookings, logger),
			advisorHandler.New(advisory, logger),
		},
	})
}

func (s *RouterSuite) do(method, target, body, roleHeader string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if roleHeader != "" {
		req.Header.Set(role.Header, roleHeader)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) TestHealthz() {
	s.Run("ok", func() {
		w := s.do(http.MethodGet, "/healthz", "", "")
		s.Equal(http.StatusOK, w.Code)
		s.Contains(w.Body.String(), `"status":"ok"`)
	})

	s.Run("degraded when a check fails", func() {
		s.healthy = errors.New("connection refused")
		w := s.do(http.MethodGet, "/healthz", "", "")
		s.Equal(http.StatusServiceUnavailable, w.Code)
		s.Contains(w.Body.String(), "connection refused")
	})

	s.Run("ignores the role header", func() {
		s.healthy = nil
		w := s.do(http.MethodGet, "/healthz", "", "superuser")
		s.Equal(http.StatusOK, w.Code)
	})
}

func (s *RouterSuite) TestMetricsExposeRequests() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/institutions", "", "").Code)

	w := s.do(http.MethodGet, "/metrics", "", "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `carewatch_http_requests_total{method="GET",route="/institutions",status="2xx"} 1`)
}

func (s *RouterSuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/institutions/O001", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("req-42", w.Header().Get(middleware.RequestIDHeader))
}

func (s *RouterSuite) TestUnknownRoleRejected() {
	w := s.do(http.MethodGet, "/access/capabilities", "", "superuser")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *RouterSuite) TestBookingFlow() {
	body := `{"visit_date":"2099-11-01","visitor_name":"Visitor A","time_slot":"10:00-11:00"}`
	first := s.do(http.MethodPost, "/institutions/O001/bookings", body, "")
	s.Require().Equal(http.StatusCreated, first.Code)

	dup := s.do(http.MethodPost, "/institutions/O001/bookings",
		`{"visit_date":"2099-11-01","visitor_name":"Visitor B","time_slot":"10:00-11:00"}`, "")
	s.Equal(http.StatusConflict, dup.Code)

	slots := s.do(http.MethodGet, "/institutions/O001/slots?date=2099-11-01", "", "")
	s.Require().Equal(http.StatusOK, slots.Code)
	var resp struct {
		Slots []string `json:"slots"`
	}
	s.Require().NoError(json.Unmarshal(slots.Body.Bytes(), &resp))
	s.Equal([]string{"14:00-15:00"}, resp.Slots)

	var created struct {
		ID string `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(first.Body.Bytes(), &created))
	cancel := s.do(http.MethodPost, "/bookings/"+created.ID+"/cancel", "", "")
	s.Equal(http.StatusOK, cancel.Code)
	s.Contains(cancel.Body.String(), `"status":"cancelled"`)
}

func (s *RouterSuite) TestDonationVisibility() {
	w := s.do(http.MethodPost, "/institutions/O002/donations", `{"amount":25000}`, "")
	s.Require().Equal(http.StatusCreated, w.Code)

	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/institutions/O002/donations", "", "").Code)

	list := s.do(http.MethodGet, "/institutions/O002/donations", "", "government")
	s.Require().Equal(http.StatusOK, list.Code)
	var resp struct {
		Donations []map[string]any `json:"donations"`
	}
	s.Require().NoError(json.Unmarshal(list.Body.Bytes(), &resp))
	s.Len(resp.Donations, 1)
}

func (s *RouterSuite) TestAdvisoryWithoutAdvisor() {
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/advisories/donations", "", "").Code)

	w := s.do(http.MethodPost, "/advisories/donations", "", "government")
	s.Equal(http.StatusGatewayTimeout, w.Code)
	s.Contains(w.Body.String(), `"error":"advisory_unavailable"`)
}

func TestNewRouter_RateLimitSkipsOperationalEndpoints(t *testing.T) {
	catalog := catalogService.New(catalogStore.NewSeeded())
	limiter := rateLimitMiddleware.New(nil,
		rateLimitMiddleware.WithLimit(rateLimitModels.ClassRead, rateLimitModels.Limit{RequestsPerWindow: 1, Window: time.Minute}),
	)
	router := NewRouter(Config{
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		RateLimit: limiter.Handler,
		Handlers:  []Registrar{catalogHandler.New(catalog, slog.Default())},
	})

	get := func(target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		return w
	}

	first := get("/institutions")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "0", first.Header().Get(rateLimitMiddleware.HeaderRemaining))

	second := get("/institutions")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")

	for range 3 {
		assert.Equal(t, http.StatusOK, get("/healthz").Code)
	}
}
