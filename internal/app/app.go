// Package app arma el servicio a partir de la config: cache de claves, verifier,
// store de pairing, rate limiter y router HTTP.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/sigverify/internal/cache"
	"github.com/dropDatabas3/sigverify/internal/claims"
	"github.com/dropDatabas3/sigverify/internal/config"
	healthctrl "github.com/dropDatabas3/sigverify/internal/http/controllers/health"
	pairingsctrl "github.com/dropDatabas3/sigverify/internal/http/controllers/pairings"
	signersctrl "github.com/dropDatabas3/sigverify/internal/http/controllers/signers"
	tokensctrl "github.com/dropDatabas3/sigverify/internal/http/controllers/tokens"
	"github.com/dropDatabas3/sigverify/internal/http/router"
	healthsvc "github.com/dropDatabas3/sigverify/internal/http/services/health"
	jwtx "github.com/dropDatabas3/sigverify/internal/jwt"
	"github.com/dropDatabas3/sigverify/internal/metrics"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
	"github.com/dropDatabas3/sigverify/internal/pairing"
	"github.com/dropDatabas3/sigverify/internal/rate"
)

// App es el servicio cableado.
type App struct {
	Handler http.Handler
	Keys    *jwtx.KeyCache // nil si jwks.url no está configurado
	Cache   cache.Client
}

// Options permite inyectar dependencias en tests.
type Options struct {
	Registerer prometheus.Registerer
	Fetcher    jwtx.KeySetFetcher // reemplaza el fetcher HTTP
}

// New crea y cablea la aplicación.
func New(cfg *config.Config, opts Options) (*App, error) {
	log := logger.L().With(logger.Component("app"))

	if err := metrics.Register(opts.Registerer); err != nil {
		return nil, err
	}

	// 1. Store de sesiones (memory | redis)
	store, err := cache.New(cache.Config{
		Driver:          cfg.Cache.Kind,
		Addr:            cfg.Cache.Redis.Addr,
		Password:        cfg.Cache.Redis.Password,
		DB:              cfg.Cache.Redis.DB,
		Prefix:          cfg.Cache.Redis.Prefix,
		CleanupInterval: config.Dur(cfg.Cache.Memory.CleanupInterval),
	})
	if err != nil {
		return nil, err
	}

	a := &App{Cache: store}
	deps := router.Deps{
		Signers:      signersctrl.NewSignersController(),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		DebugLogging: strings.EqualFold(cfg.App.LogLevel, "debug"),
	}

	// 2. Verificación de tokens (sólo con JWKS)
	fetcher := opts.Fetcher
	if fetcher == nil && strings.TrimSpace(cfg.JWKS.URL) != "" {
		fetcher = jwtx.NewHTTPFetcher(cfg.JWKS.URL, config.Dur(cfg.JWKS.FetchTimeout))
	}
	if fetcher != nil {
		a.Keys = jwtx.NewKeyCache(fetcher,
			jwtx.WithTTL(config.Dur(cfg.JWKS.CacheTTL)),
			jwtx.WithFetchTimeout(config.Dur(cfg.JWKS.FetchTimeout)),
		)
		deps.Tokens = tokensctrl.NewTokensController(jwtx.NewVerifier(a.Keys), PolicyFrom(cfg))
	} else {
		log.Warn("jwks.url not configured: token verification disabled")
	}

	// 3. Pairing
	deps.Pairings = pairingsctrl.NewPairingsController(pairing.NewService(store,
		pairing.WithTTL(config.Dur(cfg.Pairing.TTL)),
		pairing.WithAppName(cfg.Pairing.AppName),
	))

	// 4. Rate limiting
	if cfg.Rate.Enabled {
		window := config.Dur(cfg.Rate.Window)
		deps.RateLimiter = limiterFor(store, cfg.Rate.MaxRequests, window)
		deps.DefaultRule = rate.Rule{Max: cfg.Rate.MaxRequests, Window: window}
		// begin/complete son más caros de abusar que verify
		deps.PairingRule = rate.Rule{Max: max(1, cfg.Rate.MaxRequests/4), Window: window}
	}

	// 5. Health + métricas
	hdeps := healthsvc.Deps{
		CacheCheck:  store.Ping,
		CacheKeys: func(ctx context.Context) (int64, error) {
			st, err := store.Stats(ctx)
			return st.Keys, err
		},
		CacheDriver: strings.ToLower(cfg.Cache.Kind),
		Version:     cfg.App.Version,
	}
	if a.Keys != nil {
		hdeps.Keys = a.Keys
	}
	deps.Health = healthctrl.NewHealthController(healthsvc.NewHealthService(hdeps))
	deps.Metrics = promhttp.Handler()
	if g, ok := opts.Registerer.(prometheus.Gatherer); ok {
		deps.Metrics = promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}

	a.Handler = router.New(deps)
	return a, nil
}

// PolicyFrom devuelve la política de claims configurada, o nil si no exige nada.
func PolicyFrom(cfg *config.Config) *claims.Policy {
	p := claims.Policy{
		Issuer:        strings.TrimSpace(cfg.Claims.Issuer),
		Audience:      strings.TrimSpace(cfg.Claims.Audience),
		Leeway:        config.Dur(cfg.Claims.Leeway),
		RequireExpiry: cfg.Claims.RequireExpiry,
	}
	if !p.Enabled() {
		return nil
	}
	return &p
}

// limiterFor comparte la conexión Redis del cache si existe; si no, memoria.
func limiterFor(store cache.Client, maxReq int, window time.Duration) rate.MultiLimiter {
	if rc, ok := store.(interface{ Redis() *rdb.Client }); ok {
		return rate.NewRedisLimiter(rc.Redis(), "rl:", maxReq, window)
	}
	return rate.NewMemoryLimiter(maxReq, window)
}

// Warmup carga el JWKS al arrancar. Una falla no es fatal: el cache reintenta
// en el primer Resolve.
func (a *App) Warmup(ctx context.Context) {
	if a.Keys == nil {
		return
	}
	if err := a.Keys.Refresh(ctx); err != nil {
		logger.From(ctx).Warn("jwks warmup failed", logger.Component("app"), logger.Err(err))
	}
}

// Close libera el store.
func (a *App) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
