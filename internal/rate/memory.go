package rate

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryLimiter es el mismo fixed window sobre go-cache. Los contadores no se
// comparten entre réplicas.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	mu  sync.Mutex
	c   *gocache.Cache
	now func() time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	cleanup := window
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &MemoryLimiter{
		Max:    int64(max),
		Window: window,
		c:      gocache.New(gocache.NoExpiration, cleanup),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (Result, error) {
	return l.AllowWithLimits(ctx, key, int(l.Max), l.Window)
}

func (l *MemoryLimiter) AllowWithLimits(ctx context.Context, key string, limit int, window time.Duration) (Result, error) {
	now := l.now().UTC()
	k, start := windowKey("", key, now, window)
	ttl := start.Add(window).Sub(now)

	l.mu.Lock()
	defer l.mu.Unlock()

	hits, err := l.c.IncrementInt64(k, 1)
	if err != nil {
		// primer hit de la ventana
		hits = 1
		l.c.Set(k, hits, ttl)
	}
	return result(hits, int64(limit), ttl, window), nil
}
