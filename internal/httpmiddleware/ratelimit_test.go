package httpmiddleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketExhaustsAndRefills(t *testing.T) {
	l := NewSimpleTokenBucket(2, 60)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	other, _ := l.Allow(ctx, "5.6.7.8")
	assert.True(t, other, "keys are independent")

	now = now.Add(time.Second)
	ok, _ = l.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
}

func TestTokenBucketSweepsRefilledBuckets(t *testing.T) {
	l := NewSimpleTokenBucket(3, 60) // refills in 3s
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow(ctx, "busy")
		require.True(t, ok)
	}
	ok, _ := l.Allow(ctx, "busy")
	require.False(t, ok)
	_, _ = l.Allow(ctx, "idle")

	now = now.Add(time.Second)
	_, _ = l.Allow(ctx, "late")
	assert.Len(t, l.state, 3, "nothing has refilled yet")

	now = now.Add(2 * time.Second)
	_, _ = l.Allow(ctx, "fresh")
	assert.Len(t, l.state, 2)
	assert.Contains(t, l.state, "late")
	assert.Contains(t, l.state, "fresh")

	for i := 0; i < 3; i++ {
		ok, _ := l.Allow(ctx, "busy")
		assert.True(t, ok, "swept bucket starts full")
	}
	ok, _ = l.Allow(ctx, "busy")
	assert.False(t, ok)
}

func TestRedisWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisWindow(client, 2)
	now := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "ip")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.False(t, ok)

	key := "ratelimit:ip:" + "28401120"
	assert.True(t, mr.Exists(key))
	assert.Greater(t, mr.TTL(key), time.Duration(0))

	now = now.Add(time.Minute)
	ok, err = l.Allow(ctx, "ip")
	require.NoError(t, err)
	assert.True(t, ok, "a new window starts fresh")
}

func limitedRouter(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(l, slog.New(slog.NewTextHandler(io.Discard, nil))))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestGinMiddlewareRejectsOverLimit(t *testing.T) {
	r := limitedRouter(NewSimpleTokenBucket(1, 1))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, rr.Body.String())
}

func TestGinMiddlewareFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	r := limitedRouter(NewRedisWindow(client, 1))
	for i := 0; i < 3; i++ {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	}
}
