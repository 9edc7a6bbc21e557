package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-ticketing/internal/config"
	"github.com/iliyamo/cinema-ticketing/internal/logging"
	"github.com/iliyamo/cinema-ticketing/internal/utils"
)

const secret = "mw-secret"

func whoami(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"id": UserID(c), "role": Role(c)})
}

func token(t *testing.T, id uint64, role string) string {
	t.Helper()
	at, err := utils.NewAccessToken(secret, id, role, time.Minute)
	require.NoError(t, err)
	return at.Token
}

func TestJWTAuth(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))
	e.GET("/admin", whoami, JWTAuth(secret), RequireRole("ADMIN"))

	cases := []struct {
		name   string
		path   string
		setup  func(r *http.Request)
		status int
	}{
		{"no token", "/me", func(*http.Request) {}, http.StatusUnauthorized},
		{"garbage", "/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
		{"bearer", "/me", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, 7, "CUSTOMER")) }, http.StatusOK},
		{"cookie", "/me", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessCookie, Value: token(t, 7, "CUSTOMER")})
		}, http.StatusOK},
		{"customer on admin route", "/admin", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+token(t, 7, "CUSTOMER"))
		}, http.StatusForbidden},
		{"admin", "/admin", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token(t, 1, "ADMIN")) }, http.StatusOK},
		{"stale cookie falls back to bearer", "/me", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessCookie, Value: "stale.garbage.token"})
			r.Header.Set("Authorization", "Bearer "+token(t, 7, "CUSTOMER"))
		}, http.StatusOK},
		{"stale cookie alone", "/me", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: AccessCookie, Value: "stale.garbage.token"})
		}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestCookieWinsOverBearer(t *testing.T) {
	e := echo.New()
	e.GET("/me", whoami, JWTAuth(secret))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: token(t, 5, "CUSTOMER")})
	req.Header.Set("Authorization", "Bearer "+token(t, 6, "CUSTOMER"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":5,"role":"CUSTOMER"}`, rec.Body.String())
}

func TestOptionalAuth(t *testing.T) {
	e := echo.New()
	e.GET("/whoami", whoami, OptionalAuth(secret))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":0,"role":""}`, rec.Body.String())
}

func TestLocalRateLimit(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 2, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: time.Hour, KeyStrategy: "ip", Prefix: "rl",
	}
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, NewRateLimiter(cfg, nil))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code, "buckets are per key")
}

func TestRateLimitPerUser(t *testing.T) {
	e := echo.New()
	cfg := config.RateLimitConfig{
		Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Hour,
		TTL: time.Hour, KeyStrategy: "user", Prefix: "rl", Debug: true,
	}
	e.Use(OptionalAuth(secret), NewRateLimiter(cfg, nil))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	hit := func(bearer string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := hit(token(t, 1, "CUSTOMER"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rl:user:1", rec.Header().Get("X-RateLimit-Key"))

	rec = hit(token(t, 2, "CUSTOMER"))
	assert.Equal(t, http.StatusNoContent, rec.Code, "another user has its own bucket")
	assert.Equal(t, "rl:user:2", rec.Header().Get("X-RateLimit-Key"))

	assert.Equal(t, http.StatusTooManyRequests, hit(token(t, 1, "CUSTOMER")).Code)

	rec = hit("")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rl:user:anon", rec.Header().Get("X-RateLimit-Key"))
}

func TestRequestContext(t *testing.T) {
	e := echo.New()
	e.Use(RequestContext(), RequestLogger())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, logging.CorrelationIDFromContext(c.Request().Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(logging.CorrelationIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Body.String())
	assert.Equal(t, "abc-123", rec.Header().Get(logging.CorrelationIDHeader))

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Contains(t, rec.Body.String(), "gen_")
}

func TestCachePayloadCodec(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"ok":true}`))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", got.Get("Content-Type"))
	assert.Equal(t, `{"ok":true}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 1})
	assert.False(t, ok)
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.overflow)
	_, _ = cw.Write([]byte("de"))
	assert.True(t, cw.overflow, "oversized bodies are not cached")
	assert.Equal(t, "abcde", rec.Body.String(), "the client still gets the whole body")
}
