// Package rate implementa rate limiting fixed-window para los endpoints HTTP.
// Hay dos backends: Redis (compartido entre réplicas) y memoria (un solo nodo).
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	WindowTTL   time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// MultiLimiter permite límites distintos por endpoint sobre el mismo backend.
type MultiLimiter interface {
	AllowWithLimits(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

// Rule es un límite concreto (max requests por ventana).
type Rule struct {
	Max    int
	Window time.Duration
}

// Bind fija una Rule sobre un MultiLimiter y lo expone como Limiter.
func Bind(m MultiLimiter, r Rule) Limiter {
	return bound{m: m, r: r}
}

type bound struct {
	m MultiLimiter
	r Rule
}

func (b bound) Allow(ctx context.Context, key string) (Result, error) {
	return b.m.AllowWithLimits(ctx, key, b.r.Max, b.r.Window)
}

// windowKey arma la key de la ventana actual: prefix + key + inicio de ventana.
func windowKey(prefix, key string, now time.Time, window time.Duration) (string, time.Time) {
	start := now.Truncate(window)
	return fmt.Sprintf("%s%s:%d:%d", prefix, strings.ReplaceAll(key, " ", "_"), int64(window/time.Second), start.Unix()), start
}

func result(hits, max int64, ttl, window time.Duration) Result {
	res := Result{
		Allowed:     hits <= max,
		CurrentHits: hits,
		WindowTTL:   ttl,
	}
	if rem := max - hits; rem > 0 {
		res.Remaining = rem
	}
	if !res.Allowed {
		// Retry after: resto de la ventana
		res.RetryAfter = ttl
		if res.RetryAfter <= 0 {
			res.RetryAfter = window
		}
	}
	return res
}
