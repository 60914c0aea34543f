package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sellerhub/internal/config"
)

func testRateConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl",
	}
}

func limitedEcho(mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.POST("/api/login", func(c echo.Context) error { return c.String(http.StatusOK, "ok") }, mw)
	return e
}

func post(e *echo.Echo, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucket_Memory(t *testing.T) {
	e := limitedEcho(NewTokenBucket(testRateConfig(), nil))

	assert.Equal(t, http.StatusOK, post(e, "10.0.0.1").Code)
	rec := post(e, "10.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))

	rec = post(e, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")

	assert.Equal(t, http.StatusOK, post(e, "10.0.0.2").Code, "buckets are per ip")
}

func TestTokenBucket_Disabled(t *testing.T) {
	cfg := testRateConfig()
	cfg.Enabled = false
	e := limitedEcho(NewTokenBucket(cfg, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, post(e, "10.0.0.1").Code)
	}
}

type failingBucket struct{}

func (failingBucket) take(context.Context, string, time.Time) (verdict, error) {
	return verdict{}, errors.New("redis down")
}

func TestTokenBucket_FallsBackOnError(t *testing.T) {
	cfg := testRateConfig()
	e := limitedEcho(rateLimit(cfg, failingBucket{}, newMemoryBucket(cfg)))

	assert.Equal(t, http.StatusOK, post(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, post(e, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(e, "10.0.0.1").Code)
}

func TestMemoryBucket_Refill(t *testing.T) {
	cfg := testRateConfig()
	b := newMemoryBucket(cfg)
	now := time.Now()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		v, err := b.take(ctx, "k", now)
		require.NoError(t, err)
		assert.True(t, v.allowed)
	}
	v, err := b.take(ctx, "k", now)
	require.NoError(t, err)
	assert.False(t, v.allowed)
	assert.Greater(t, v.retry, time.Duration(0))

	v, err = b.take(ctx, "k", now.Add(cfg.RefillInterval))
	require.NoError(t, err)
	assert.True(t, v.allowed)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "1.2.3.4")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/login")

	cfg := testRateConfig()
	assert.Equal(t, "rl:ip:1.2.3.4:route:POST /api/login", buildRateKey(cfg, c))

	cfg.KeyStrategy = "user"
	assert.Equal(t, "rl:user:anon", buildRateKey(cfg, c))
	c.Set(ctxUserID, uint64(42))
	assert.Equal(t, "rl:user:42", buildRateKey(cfg, c))
}

func TestRedisBucket_SharedAcrossInstances(t *testing.T) {
	rdb := testRedis(t)
	cfg := testRateConfig()
	a := limitedEcho(NewTokenBucket(cfg, rdb))
	b := limitedEcho(NewTokenBucket(cfg, rdb))

	assert.Equal(t, http.StatusOK, post(a, "10.0.0.1").Code)
	rec := post(b, "10.0.0.1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = post(a, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEqual(t, "0", rec.Header().Get("Retry-After"))
}

func TestRedisBucket_Refill(t *testing.T) {
	cfg := testRateConfig()
	b := redisBucket{cfg: cfg, rdb: testRedis(t)}
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 2; i++ {
		v, err := b.take(ctx, "rl:k", now)
		require.NoError(t, err)
		assert.True(t, v.allowed)
	}
	v, err := b.take(ctx, "rl:k", now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, v.allowed)
	assert.Equal(t, cfg.RefillInterval-time.Second, v.retry)

	v, err = b.take(ctx, "rl:k", now.Add(cfg.RefillInterval))
	require.NoError(t, err)
	assert.True(t, v.allowed)
	assert.Equal(t, int64(0), v.remaining)
}
