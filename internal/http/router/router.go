// Package router arma el chi.Router con todas las rutas del servicio.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	healthctrl "github.com/dropDatabas3/sigverify/internal/http/controllers/health"
	pairingsctrl "github.com/dropDatabas3/sigverify/internal/http/controllers/pairings"
	signersctrl "github.com/dropDatabas3/sigverify/internal/http/controllers/signers"
	tokensctrl "github.com/dropDatabas3/sigverify/internal/http/controllers/tokens"
	"github.com/dropDatabas3/sigverify/internal/http/errors"
	mw "github.com/dropDatabas3/sigverify/internal/http/middlewares"
	"github.com/dropDatabas3/sigverify/internal/rate"
)

// Deps contiene todas las dependencias del router. Un controller nil deja sus
// rutas sin registrar.
type Deps struct {
	Health   *healthctrl.HealthController
	Tokens   *tokensctrl.TokensController
	Signers  *signersctrl.SignersController
	Pairings *pairingsctrl.PairingsController

	// Metrics es el handler de /metrics (promhttp). nil = no se expone.
	Metrics http.Handler

	// RateLimiter es opcional. PairingRule endurece el límite de /v1/pairings.
	RateLimiter rate.MultiLimiter
	DefaultRule rate.Rule
	PairingRule rate.Rule

	MaxBodyBytes int64
	DebugLogging bool
}

// New registra todas las rutas.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(mw.Stack(mw.WithRecover(), mw.WithRequestID(), mw.WithMetrics())...)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		errors.WriteError(w, errors.ErrMethodNotAllowed)
	})

	// Health y métricas: sin logging ni rate limit (muy frecuentes)
	if deps.Health != nil {
		r.Get("/readyz", deps.Health.Readyz)
		r.Get("/healthz", deps.Health.Healthz)
	}
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	logging := mw.WithLogging()
	if deps.DebugLogging {
		logging = mw.WithDebugLogging()
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.Stack(logging, mw.WithMaxBody(deps.MaxBodyBytes))...)

		if deps.Tokens != nil {
			r.With(rateLimit(deps.RateLimiter, deps.DefaultRule)...).
				Post("/tokens/verify", deps.Tokens.Verify)
		}
		if deps.Signers != nil {
			r.With(rateLimit(deps.RateLimiter, deps.DefaultRule)...).
				Post("/signers/recover", deps.Signers.Recover)
		}
		if deps.Pairings != nil {
			r.Route("/pairings", func(r chi.Router) {
				r.Use(rateLimit(deps.RateLimiter, deps.PairingRule)...)
				r.Post("/", deps.Pairings.Begin)
				r.Get("/{topic}", deps.Pairings.Get)
				r.Post("/{topic}/complete", deps.Pairings.Complete)
			})
		}
	})
	return r
}

func rateLimit(l rate.MultiLimiter, rule rate.Rule) []func(http.Handler) http.Handler {
	if l == nil || rule.Max <= 0 || rule.Window <= 0 {
		return nil
	}
	return mw.Stack(mw.WithRateLimit(mw.RateLimitConfig{
		Limiter: rate.Bind(l, rule),
		KeyFunc: mw.DefaultRateKey,
	}))
}
