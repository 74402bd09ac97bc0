package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func newLimiter(t *testing.T, limit int) (*RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisLimiter(client, Config{
		RequestsPerWindow: limit,
		Window:            time.Minute,
		Enabled:           true,
	}), mr
}

func TestAllowUnderLimit(t *testing.T) {
	limiter, _ := newLimiter(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "ratelimit:client:quote")
		if err != nil {
			t.Fatalf("Allow: %v", err)
		}
		if !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, err := limiter.Allow(ctx, "ratelimit:client:quote")
	if err != nil {
		t.Fatalf("Allow: %v", err)
	}
	if ok {
		t.Errorf("request over the limit should be denied")
	}
}

func TestWindowResets(t *testing.T) {
	limiter, mr := newLimiter(t, 1)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "k"); !ok {
		t.Fatal("first request should be allowed")
	}
	if ok, _ := limiter.Allow(ctx, "k"); ok {
		t.Fatal("second request should be denied")
	}

	mr.FastForward(2 * time.Minute)

	if ok, _ := limiter.Allow(ctx, "k"); !ok {
		t.Error("request after window reset should be allowed")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	limiter, _ := newLimiter(t, 1)
	ctx := context.Background()

	if ok, _ := limiter.Allow(ctx, "client-a"); !ok {
		t.Fatal("client-a should be allowed")
	}
	if ok, _ := limiter.Allow(ctx, "client-b"); !ok {
		t.Error("client-b should not share client-a's window")
	}
}

func TestMiddlewareReturns429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, _ := newLimiter(t, 1)

	router := gin.New()
	router.POST("/quotes", Middleware(limiter, limiter.config), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	do := func() int {
		req := httptest.NewRequest(http.MethodPost, "/quotes", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	if code := do(); code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", code)
	}
	if code := do(); code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", code)
	}
}

func TestMiddlewareDisabledPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.POST("/quotes", Middleware(nil, Config{Enabled: false}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/quotes", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i+1, w.Code)
		}
	}
}
