package rate

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	xrate "golang.org/x/time/rate"
)

// MemoryLimiter: token bucket por key (x/time/rate), para un solo nodo.
// Los buckets inactivos se liberan después de idleTTL.
type MemoryLimiter struct {
	limit  xrate.Limit
	burst  int
	now    func() time.Time
	mu     sync.Mutex
	bucket *gocache.Cache
}

// NewMemoryLimiter permite max requests por window, con ráfaga de max.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max <= 0 {
		max = 1
	}
	idle := 2 * window
	if idle < time.Minute {
		idle = time.Minute
	}
	return &MemoryLimiter{
		limit:  xrate.Every(window / time.Duration(max)),
		burst:  max,
		now:    time.Now,
		bucket: gocache.New(idle, idle),
	}
}

func (m *MemoryLimiter) get(key string) *xrate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.bucket.Get(key); ok {
		m.bucket.SetDefault(key, v)
		return v.(*xrate.Limiter)
	}
	l := xrate.NewLimiter(m.limit, m.burst)
	m.bucket.SetDefault(key, l)
	return l
}

func (m *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	l := m.get(key)
	now := m.now()
	r := l.ReserveN(now, 1)
	if !r.OK() {
		return Result{Allowed: false, RetryAfter: time.Second}, nil
	}
	if d := r.DelayFrom(now); d > 0 {
		r.CancelAt(now)
		return Result{Allowed: false, RetryAfter: d}, nil
	}
	rem := int64(l.TokensAt(now))
	return Result{Allowed: true, Remaining: max(rem, 0)}, nil
}
