package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func newTestLimiter(rate, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	rl := NewRateLimiter(rate, burst)
	rl.now = clock.now
	rl.lastSweep = clock.t
	return rl, clock
}

func TestRateLimiterBurstAndRefill(t *testing.T) {
	rl, clock := newTestLimiter(10, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d within burst rejected", i)
		}
	}
	if rl.Allow("a") {
		t.Fatal("request past burst allowed")
	}
	if !rl.Allow("b") {
		t.Error("buckets must be per key")
	}

	// 10/s refills one token every 100ms, including sub-second gaps
	clock.t = clock.t.Add(100 * time.Millisecond)
	if !rl.Allow("a") {
		t.Error("refilled token rejected")
	}
	if rl.Allow("a") {
		t.Error("only one token should have been refilled")
	}

	clock.t = clock.t.Add(time.Hour)
	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("refill must cap at burst, request %d rejected", i)
		}
	}
	if rl.Allow("a") {
		t.Error("refill exceeded burst")
	}
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	rl, clock := newTestLimiter(1, 1)
	rl.Allow("idle")

	clock.t = clock.t.Add(bucketIdleTTL)
	rl.Allow("active")

	if _, ok := rl.buckets["idle"]; ok {
		t.Error("idle bucket should have been swept")
	}
	if _, ok := rl.buckets["active"]; !ok {
		t.Error("active bucket missing")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl, _ := newTestLimiter(1, 1)

	r := gin.New()
	r.Use(rl.RateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v, want [200 429]", codes)
	}
}
