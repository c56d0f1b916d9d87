package jwt

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/sigverify/internal/metrics"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
	"github.com/dropDatabas3/sigverify/internal/security/sigerr"
)

// DefaultKeyCacheTTL es la vida de un JWKS antes de considerarlo viejo.
const DefaultKeyCacheTTL = 10 * time.Minute

// DefaultFetchTimeout acota el fetch compartido, que no depende del ctx de
// ningún caller en particular.
const DefaultFetchTimeout = 30 * time.Second

// keySnapshot es inmutable una vez publicado.
type keySnapshot struct {
	keys        map[string]KeyDescriptor
	refreshedAt time.Time
}

// KeyCache cachea el JWKS por kid con TTL.
//
// Las lecturas no toman locks: cargan el snapshot actual. Un refresh reemplaza el
// mapa completo con un único Store, así que nunca se observa un mapa parcial.
// Los refresh concurrentes se colapsan en uno (singleflight) y nadie retiene un
// lock durante el GET.
type KeyCache struct {
	fetcher      KeySetFetcher
	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	snap  atomic.Pointer[keySnapshot]
	group singleflight.Group
}

// CacheOption configura un KeyCache.
type CacheOption func(*KeyCache)

// WithTTL cambia el TTL (default 10m).
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *KeyCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithFetchTimeout cambia el límite del fetch compartido (default 30s).
func WithFetchTimeout(d time.Duration) CacheOption {
	return func(c *KeyCache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) CacheOption {
	return func(c *KeyCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewKeyCache crea un cache vacío; la primera resolución dispara el fetch.
func NewKeyCache(fetcher KeySetFetcher, opts ...CacheOption) *KeyCache {
	c := &KeyCache{
		fetcher:      fetcher,
		ttl:          DefaultKeyCacheTTL,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *KeyCache) fresh(s *keySnapshot) bool {
	return s != nil && c.now().Sub(s.refreshedAt) < c.ttl
}

// Resolve devuelve el descriptor del kid. Si no está o el cache está viejo,
// intenta exactamente un refresh; si sigue ausente devuelve missing_key.
func (c *KeyCache) Resolve(ctx context.Context, kid string) (KeyDescriptor, error) {
	const op = "jwt.KeyCache.Resolve"

	seen := c.snap.Load()
	if c.fresh(seen) {
		if d, ok := seen.keys[kid]; ok {
			return d, nil
		}
	}

	s, err := c.refresh(ctx, seen)
	if err != nil {
		return KeyDescriptor{}, err
	}
	if d, ok := s.keys[kid]; ok {
		return d, nil
	}
	logger.From(ctx).Debug("kid not published", logger.Component("jwks"), logger.KeyID(kid), logger.Count(len(s.keys)))
	return KeyDescriptor{}, sigerr.E(sigerr.MissingKey, op, fmt.Errorf("kid %q", kid))
}

// Refresh fuerza un fetch y reemplaza el set completo.
func (c *KeyCache) Refresh(ctx context.Context) error {
	_, err := c.refresh(ctx, c.snap.Load())
	return err
}

// Invalidate marca el set actual como viejo; las claves siguen disponibles como
// respaldo pero la próxima resolución vuelve a pedir el JWKS.
func (c *KeyCache) Invalidate() {
	if s := c.snap.Load(); s != nil {
		c.snap.Store(&keySnapshot{keys: s.keys})
	}
}

// Len devuelve cuántas claves tiene el snapshot actual.
func (c *KeyCache) Len() int {
	if s := c.snap.Load(); s != nil {
		return len(s.keys)
	}
	return 0
}

// LastRefreshed devuelve el instante del último refresh exitoso (zero si nunca).
func (c *KeyCache) LastRefreshed() time.Time {
	if s := c.snap.Load(); s != nil {
		return s.refreshedAt
	}
	return time.Time{}
}

// refresh ejecuta (o espera) el fetch en curso. seen es el snapshot que observó
// el caller: si otro refresh ya lo reemplazó por uno fresco, se reutiliza.
// El fetch corre desacoplado de la cancelación del caller que lo inició; cada
// caller sólo deja de esperar cuando se cancela su propio ctx.
func (c *KeyCache) refresh(ctx context.Context, seen *keySnapshot) (*keySnapshot, error) {
	const op = "jwt.KeyCache.refresh"

	if err := ctx.Err(); err != nil {
		return nil, sigerr.E(sigerr.JWKSFetchFailed, op, err)
	}

	ch := c.group.DoChan("jwks", func() (any, error) {
		if cur := c.snap.Load(); cur != seen && c.fresh(cur) {
			return cur, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return c.fetchAndSwap(fctx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*keySnapshot), nil
	case <-ctx.Done():
		return nil, sigerr.E(sigerr.JWKSFetchFailed, op, ctx.Err())
	}
}

func (c *KeyCache) fetchAndSwap(ctx context.Context) (*keySnapshot, error) {
	const op = "jwt.KeyCache.fetch"
	log := logger.From(ctx).With(logger.Component("jwks"))

	start := time.Now()
	descs, err := c.fetcher.Fetch(ctx)
	metrics.JWKSFetchLatency.Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.JWKSRefreshes.WithLabelValues("error").Inc()
		log.Warn("jwks fetch failed, keeping previous key set", logger.Err(err))
		if sigerr.KindOf(err) != sigerr.JWKSFetchFailed {
			err = sigerr.E(sigerr.JWKSFetchFailed, op, err)
		}
		return nil, err
	}

	keys := make(map[string]KeyDescriptor, len(descs))
	for _, d := range descs {
		keys[d.KeyID] = d
	}
	s := &keySnapshot{keys: keys, refreshedAt: c.now()}
	c.snap.Store(s)

	metrics.JWKSRefreshes.WithLabelValues("ok").Inc()
	metrics.JWKSKeys.Set(float64(len(keys)))
	log.Debug("jwks refreshed", logger.Count(len(keys)))
	return s, nil
}
