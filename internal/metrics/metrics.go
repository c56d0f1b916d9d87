package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Métricas de verificación de tokens, del cache JWKS y de recuperación de firmantes.
// Viven en un paquete propio para que jwt y recovery no dependan del paquete HTTP.

var (
	TokenVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sigverify_token_verifications_total",
		Help: "Verificaciones de tokens por algoritmo y resultado (ok o kind del error)",
	}, []string{"alg", "result"})

	JWKSRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sigverify_jwks_refresh_total",
		Help: "Refrescos del JWKS por resultado (ok|error)",
	}, []string{"result"})

	JWKSFetchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sigverify_jwks_fetch_latency_ms",
		Help:    "Latencia del GET al endpoint de publicación de claves en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	JWKSKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sigverify_jwks_keys",
		Help: "Cantidad de claves en el último JWKS aplicado",
	})

	SignerRecoveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sigverify_signer_recoveries_total",
		Help: "Recuperaciones de clave pública secp256k1 por resultado",
	}, []string{"result"})

	PairingSessions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sigverify_pairing_sessions_total",
		Help: "Sesiones de vinculación por etapa (begin|complete) y resultado",
	}, []string{"stage", "result"})

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Número total de requests procesadas",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Latencia de los requests HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "http_inflight_requests",
		Help: "Requests en vuelo por método",
	}, []string{"method"})
)

// Result normaliza el label de resultado: "ok" o el kind del error.
func Result(kind string) string {
	if kind == "" {
		return "ok"
	}
	return kind
}

// Register registra todas las métricas en reg (o en el default si es nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		TokenVerifications,
		JWKSRefreshes,
		JWKSFetchLatency,
		JWKSKeys,
		SignerRecoveries,
		PairingSessions,
		HTTPRequests,
		HTTPRequestDuration,
		HTTPInflight,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
