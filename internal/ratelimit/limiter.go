// Package ratelimit caps requests per caller in fixed windows.
//
// Callers are keyed by username once authenticated and by client address
// before that. Counters live in Redis when one is configured and in a
// bounded in-process map otherwise.
package ratelimit

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"absensi/internal/apperr"
	"absensi/internal/auth"
	"absensi/internal/metrics"
)

// Limiter reports whether key may make another request in the current
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	count int
	start time.Time
}

// Memory is an in-process fixed-window limiter holding at most maxKeys
// counters. When full, the counter with the oldest window is evicted.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	period  time.Duration
	maxKeys int
	now     func() time.Time
}

func NewMemory(limit int, period time.Duration, maxKeys int) *Memory {
	return &Memory{
		windows: make(map[string]*window),
		limit:   limit,
		period:  period,
		maxKeys: maxKeys,
		now:     time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	w, ok := m.windows[key]
	if ok && now.Sub(w.start) >= m.period {
		w.start, w.count = now, 0
	}
	if !ok {
		if m.maxKeys > 0 && len(m.windows) >= m.maxKeys {
			m.sweepLocked(now)
			if len(m.windows) >= m.maxKeys {
				m.evictOldestLocked()
			}
		}
		w = &window{start: now}
		m.windows[key] = w
	}
	w.count++
	return w.count <= m.limit, nil
}

// Sweep drops counters whose window has ended.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

func (m *Memory) sweepLocked(now time.Time) int {
	removed := 0
	for key, w := range m.windows {
		if now.Sub(w.start) >= m.period {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}

func (m *Memory) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, w := range m.windows {
		if oldestKey == "" || w.start.Before(oldest) {
			oldestKey, oldest = key, w.start
		}
	}
	delete(m.windows, oldestKey)
}

// Len is the number of live counters.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// Run sweeps every period until ctx is done.
func (m *Memory) Run(ctx context.Context) {
	ticker := time.NewTicker(m.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				log.Printf("[RateLimit] swept %d expired counters", n)
			}
		}
	}
}

const redisKeyFmt = "ratelimit:%s"

// Redis keeps one counter per key that expires with its window, so counts
// are shared by every server instance.
type Redis struct {
	rdb    *redis.Client
	limit  int
	period time.Duration
}

func NewRedis(rdb *redis.Client, limit int, period time.Duration) *Redis {
	return &Redis{rdb: rdb, limit: limit, period: period}
}

// Allow counts the request and reads the counter's TTL in one transaction.
// A counter without a TTL gets one, whether it is new or an earlier EXPIRE
// was lost, so a key can never stay limited past its window for good.
func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := fmt.Sprintf(redisKeyFmt, key)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.TTL(ctx, k)
		return nil
	})
	if err != nil {
		return false, err
	}
	if ttl.Val() < 0 {
		if err := r.rdb.Expire(ctx, k, r.period).Err(); err != nil {
			return false, err
		}
	}
	return incr.Val() <= int64(r.limit), nil
}

// Key identifies the caller: the authenticated username, or the client
// address for anonymous requests.
func Key(c *gin.Context) string {
	if id, ok := auth.IdentityFrom(c); ok {
		return "user:" + id.Username
	}
	return "ip:" + c.ClientIP()
}

// Middleware rejects requests over the limit with 429. A limiter failure
// lets the request through.
func Middleware(l Limiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := Key(c)
		ok, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			log.Printf("[RateLimit] limiter error for %s: %v", key, err)
			c.Next()
			return
		}
		if !ok {
			if m != nil {
				m.RateLimitHits.Inc()
			}
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": gin.H{
				"kind":    apperr.KindRateLimited,
				"message": apperr.ErrRateLimited.Message,
			}})
			return
		}
		c.Next()
	}
}
