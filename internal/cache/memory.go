package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// memoryClient implementa Client sobre go-cache.
// Útil para desarrollo, testing y despliegues de una sola réplica.
type memoryClient struct {
	prefix string
	c      *gocache.Cache

	// takeMu serializa Take para que get+delete sea atómico.
	takeMu sync.Mutex
	hits   atomic.Int64
	misses atomic.Int64
}

// NewMemory crea un cliente de cache en memoria.
func NewMemory(prefix string, cleanup time.Duration) *memoryClient {
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &memoryClient{
		prefix: prefix,
		c:      gocache.New(gocache.NoExpiration, cleanup),
	}
}

func (c *memoryClient) key(k string) string { return prefixed(c.prefix, k) }

func expiration(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.NoExpiration
	}
	return ttl
}

func (c *memoryClient) Get(ctx context.Context, key string) (string, error) {
	v, ok := c.c.Get(c.key(key))
	if !ok {
		c.misses.Add(1)
		return "", ErrNotFound
	}
	c.hits.Add(1)
	s, _ := v.(string)
	return s, nil
}

func (c *memoryClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	c.c.Set(c.key(key), value, expiration(ttl))
	return nil
}

func (c *memoryClient) Take(ctx context.Context, key string) (string, error) {
	c.takeMu.Lock()
	defer c.takeMu.Unlock()

	k := c.key(key)
	v, ok := c.c.Get(k)
	if !ok {
		c.misses.Add(1)
		return "", ErrNotFound
	}
	c.c.Delete(k)
	c.hits.Add(1)
	s, _ := v.(string)
	return s, nil
}

func (c *memoryClient) Delete(ctx context.Context, key string) error {
	c.c.Delete(c.key(key))
	return nil
}

func (c *memoryClient) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.c.Get(c.key(key))
	return ok, nil
}

func (c *memoryClient) Ping(ctx context.Context) error {
	return nil
}

func (c *memoryClient) Close() error {
	c.c.Flush()
	return nil
}

func (c *memoryClient) Stats(ctx context.Context) (Stats, error) {
	// ItemCount incluye expirados aún no purgados; Items() filtra.
	return Stats{
		Driver: "memory",
		Keys:   int64(len(c.c.Items())),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}, nil
}

// Cleanup elimina entradas expiradas sin esperar al janitor.
func (c *memoryClient) Cleanup() {
	c.c.DeleteExpired()
}
