package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avatarctic/perfmgmt-saas/internal/core/domain/auth"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver/helpers"
	"github.com/avatarctic/perfmgmt-saas/internal/infrastructure/httpserver/middleware"
	tmocks "github.com/avatarctic/perfmgmt-saas/internal/mocks"
)

func TestJWTMiddleware_MissingTokenReturns401(t *testing.T) {
	e := echo.New()
	m := middleware.NewJWTMiddleware(&tmocks.TokenVerifierMock{}, auth.RoleAdmin, logrus.New())
	handler := m.RequireAdmin()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := handler(c)
	require.Error(t, err)
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestJWTMiddleware_SetsActorForAdmin(t *testing.T) {
	e := echo.New()
	verifier := &tmocks.TokenVerifierMock{ValidateTokenFn: func(ctx context.Context, token string) (*auth.Claims, error) {
		claims := &auth.Claims{Role: auth.RoleAdmin}
		claims.Subject = "ops-1"
		return claims, nil
	}}
	m := middleware.NewJWTMiddleware(verifier, auth.RoleAdmin, nil)
	var actor string
	handler := m.RequireAdmin()(func(c echo.Context) error {
		actor = helpers.ActorSubject(c)
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer t")
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(req, rec)))
	require.Equal(t, "ops-1", actor)
}

func TestJWTMiddleware_MalformedHeader(t *testing.T) {
	e := echo.New()
	m := middleware.NewJWTMiddleware(&tmocks.TokenVerifierMock{}, auth.RoleAdmin, nil)
	handler := m.RequireAdmin()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Basic abc")
	err := handler(e.NewContext(req, httptest.NewRecorder()))
	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, htErr.Code)
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	e := echo.New()
	e.IPExtractor = echo.ExtractIPDirect()
	limiter := &tmocks.RateLimiterServiceMock{AllowFn: func(ctx context.Context, key string) (bool, int, int, time.Time, error) {
		return true, 5, 5, time.Now(), errors.New("redis down")
	}}
	m := middleware.NewRateLimitMiddleware(limiter, logrus.New())
	called := false
	handler := m.PerClient()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.7")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, handler(c))
	require.True(t, called)
	key, ok := helpers.GetRateLimitKeyRaw(c)
	require.True(t, ok)
	// forwarding headers are ignored without trusted proxies
	require.Equal(t, "ip:192.0.2.1", key)
}

func TestRateLimitMiddleware_RejectsWithRetryAfter(t *testing.T) {
	e := echo.New()
	limiter := &tmocks.RateLimiterServiceMock{AllowFn: func(ctx context.Context, key string) (bool, int, int, time.Time, error) {
		return false, 0, 5, time.Now().Add(90 * time.Second), nil
	}}
	m := middleware.NewRateLimitMiddleware(limiter, nil)
	handler := m.PerClient()(func(c echo.Context) error {
		t.Fatal("handler must not run when rate limited")
		return nil
	})
	rec := httptest.NewRecorder()
	err := handler(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec))

	htErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, htErr.Code)
	assert.Equal(t, "5", rec.Header().Get(middleware.HeaderRateLimitLimit))
	assert.Equal(t, "0", rec.Header().Get(middleware.HeaderRateLimitRemaining))
	retry := rec.Header().Get(echo.HeaderRetryAfter)
	assert.Contains(t, []string{"89", "90"}, retry)
}

func TestRateLimitMiddleware_NilLimiterPassesThrough(t *testing.T) {
	e := echo.New()
	m := middleware.NewRateLimitMiddleware(nil, nil)
	handler := m.PerClient()(func(c echo.Context) error { return c.NoContent(http.StatusAccepted) })
	rec := httptest.NewRecorder()
	require.NoError(t, handler(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, rec.Header().Get(middleware.HeaderRateLimitLimit))
}

func newTestHTTPMetrics() middleware.HTTPMetrics {
	return middleware.HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_requests_total"}, []string{"method", "endpoint", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_request_duration_seconds"}, []string{"method", "endpoint"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{Name: "test_in_flight"}),
	}
}

func TestMetricsMiddleware_RecordsStatusFromHandlerError(t *testing.T) {
	metrics := newTestHTTPMetrics()
	e := echo.New()
	e.Use(middleware.NewMetricsMiddleware(metrics, "/health").CollectHTTPMetrics())
	e.GET("/api/v1/links/:id/validity", func(c echo.Context) error {
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.InFlight))
		return echo.NewHTTPError(http.StatusNotFound, "link not found")
	})
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/api/v1/links/a/validity", "/api/v1/links/b/validity", "/health"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "/api/v1/links/:id/validity", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.Requests.WithLabelValues(http.MethodGet, "/health", "200")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.InFlight))
}

func TestLoggingMiddleware_RecordsActorAndRateLimitKey(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	e := echo.New()
	handler := middleware.NewLoggingMiddleware(logger).RequestLogging()(func(c echo.Context) error {
		helpers.SetActorClaims(c, &auth.Claims{Role: auth.RoleAdmin, RegisteredClaims: jwt.RegisteredClaims{Subject: "admin-1"}})
		helpers.SetRateLimitKey(c, "ip:192.0.2.1")
		return c.NoContent(http.StatusNoContent)
	})
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), httptest.NewRecorder())

	require.NoError(t, handler(c))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "request handled", entry.Message)
	assert.Equal(t, "admin-1", entry.Data["actor"])
	assert.Equal(t, "ip:192.0.2.1", entry.Data["rate_limit_key"])
	assert.Equal(t, http.StatusNoContent, entry.Data["status"])
}
