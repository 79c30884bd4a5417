package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"absensi/internal/auth"
	"absensi/internal/metrics"
	"absensi/internal/policy"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestMemory(limit, maxKeys int) (*Memory, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC)}
	m := NewMemory(limit, time.Minute, maxKeys)
	m.now = clock.now
	return m, clock
}

func TestMemory_LimitPerWindow(t *testing.T) {
	m, clock := newTestMemory(3, 0)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if ok, _ := m.Allow(ctx, "a"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if ok, _ := m.Allow(ctx, "a"); ok {
		t.Errorf("4th request should be limited")
	}
	if ok, _ := m.Allow(ctx, "b"); !ok {
		t.Errorf("other keys have their own counter")
	}
	clock.advance(time.Minute)
	if ok, _ := m.Allow(ctx, "a"); !ok {
		t.Errorf("new window should reset the counter")
	}
}

func TestMemory_SweepDropsExpired(t *testing.T) {
	m, clock := newTestMemory(5, 0)
	ctx := context.Background()
	_, _ = m.Allow(ctx, "a")
	clock.advance(30 * time.Second)
	_, _ = m.Allow(ctx, "b")
	clock.advance(30 * time.Second)
	if n := m.Sweep(); n != 1 {
		t.Errorf("expected 1 swept, got %d", n)
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 live counter, got %d", m.Len())
	}
}

func TestMemory_BoundedKeys(t *testing.T) {
	m, clock := newTestMemory(1, 2)
	ctx := context.Background()
	_, _ = m.Allow(ctx, "a")
	clock.advance(time.Second)
	_, _ = m.Allow(ctx, "b")
	clock.advance(time.Second)
	_, _ = m.Allow(ctx, "c")
	if m.Len() != 2 {
		t.Fatalf("expected cap of 2 counters, got %d", m.Len())
	}
	// "a" was evicted, so it starts a fresh window.
	if ok, _ := m.Allow(ctx, "a"); !ok {
		t.Errorf("evicted key should start over")
	}
}

func TestMemory_RunStopsOnCancel(t *testing.T) {
	m := NewMemory(1, time.Millisecond, 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRedis_Live(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	defer rdb.Close()
	ctx := context.Background()
	key := "test:" + t.Name()
	rdb.Del(ctx, "ratelimit:"+key)

	l := NewRedis(rdb, 2, time.Minute)
	for i := 0; i < 2; i++ {
		if ok, err := l.Allow(ctx, key); err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i+1, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, key); ok {
		t.Errorf("3rd request should be limited")
	}
	if ttl := rdb.TTL(ctx, "ratelimit:"+key).Val(); ttl <= 0 || ttl > time.Minute {
		t.Errorf("counter should expire with the window, ttl=%v", ttl)
	}
}

func TestRedis_RestoresMissingTTL(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set, skipping")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	defer rdb.Close()
	ctx := context.Background()
	key := "test:" + t.Name()
	k := "ratelimit:" + key
	// Counter left over limit with no expiry, as after a failed EXPIRE.
	if err := rdb.Set(ctx, k, 5, 0).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	defer rdb.Del(ctx, k)

	l := NewRedis(rdb, 2, time.Minute)
	if ok, err := l.Allow(ctx, key); err != nil || ok {
		t.Fatalf("expected limited, got ok=%v err=%v", ok, err)
	}
	if ttl := rdb.TTL(ctx, k).Val(); ttl <= 0 || ttl > time.Minute {
		t.Errorf("counter without expiry should get one, ttl=%v", ttl)
	}
}

func TestRedis_Unreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer rdb.Close()
	if _, err := NewRedis(rdb, 1, time.Minute).Allow(context.Background(), "k"); err == nil {
		t.Errorf("expected error from unreachable redis")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, context.DeadlineExceeded
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	lim := NewMemory(1, time.Minute, 0)

	r := gin.New()
	r.GET("/anon", Middleware(lim, m), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/user/:name", func(c *gin.Context) {
		auth.SetIdentity(c, policy.Identity{Username: c.Param("name"), Role: policy.RoleStudent, Class: "X"})
	}, Middleware(lim, m), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		return w
	}

	if w := do("/anon"); w.Code != http.StatusOK {
		t.Fatalf("first anonymous request: %d", w.Code)
	}
	w := do("/anon")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error.Kind != "rate_limited" {
		t.Errorf("unexpected body %s", w.Body.String())
	}

	// Same address, but authenticated callers are counted by username.
	if w := do("/user/siswa1"); w.Code != http.StatusOK {
		t.Errorf("siswa1 first request: %d", w.Code)
	}
	if w := do("/user/siswa2"); w.Code != http.StatusOK {
		t.Errorf("siswa2 first request: %d", w.Code)
	}
	if w := do("/user/siswa1"); w.Code != http.StatusTooManyRequests {
		t.Errorf("siswa1 second request should be limited, got %d", w.Code)
	}
	if got := testutil.ToFloat64(m.RateLimitHits); got != 2 {
		t.Errorf("expected 2 rate-limit hits, got %v", got)
	}
}

func TestMiddleware_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", Middleware(failingLimiter{}, nil), func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("limiter failure should not block, got %d", w.Code)
	}
}
