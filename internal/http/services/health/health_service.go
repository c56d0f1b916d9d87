// Package health contiene el service para health checks.
package health

import (
	"context"
	"fmt"
	"time"

	dto "github.com/dropDatabas3/sigverify/internal/http/dto/health"
	"github.com/dropDatabas3/sigverify/internal/observability/logger"
)

// HealthService define las operaciones de health check.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// KeySet abstrae el cache de claves publicadas (*jwt.KeyCache).
type KeySet interface {
	Len() int
	LastRefreshed() time.Time
	Refresh(ctx context.Context) error
}

// Deps contiene las dependencias inyectables para el health service.
type Deps struct {
	Keys        KeySet                          // nil si no hay JWKS configurado
	CacheCheck  func(ctx context.Context) error // ping del store de pairing
	CacheKeys   func(ctx context.Context) (int64, error)
	CacheDriver string
	Version     string
}

type healthService struct {
	deps Deps
}

// NewHealthService crea un nuevo service de health check.
func NewHealthService(deps Deps) HealthService {
	return &healthService{deps: deps}
}

const componentHealth = "health"

func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentHealth),
		logger.Op("Check"),
	)

	response := dto.HealthResponse{
		Version:    s.deps.Version,
		Components: make(map[string]dto.HealthStatus),
		Timestamp:  time.Now().UTC(),
	}

	hasErrors := false
	hasCriticalErrors := false

	// 1) JWKS (crítico si está configurado). Si nunca se cargó, intentamos una vez.
	if s.deps.Keys != nil {
		if s.deps.Keys.LastRefreshed().IsZero() {
			if err := s.deps.Keys.Refresh(ctx); err != nil {
				log.Error("jwks unavailable", logger.Err(err))
			}
		}
		if last := s.deps.Keys.LastRefreshed(); last.IsZero() {
			response.Components["jwks"] = dto.HealthStatus{Status: "error", Message: "key set never loaded"}
			hasCriticalErrors = true
		} else {
			response.Components["jwks"] = dto.HealthStatus{
				Status:  "ok",
				Message: fmt.Sprintf("keys=%d refreshed_at=%s", s.deps.Keys.Len(), last.UTC().Format(time.RFC3339)),
			}
		}
	} else {
		response.Components["jwks"] = dto.HealthStatus{Status: "disabled", Message: "jwks.url not configured"}
	}

	// 2) Cache de sesiones (no crítico: sólo afecta pairing)
	if s.deps.CacheCheck != nil {
		if err := s.deps.CacheCheck(ctx); err != nil {
			response.Components["cache"] = dto.HealthStatus{
				Status:  "error",
				Message: fmt.Sprintf("%s unavailable: %v", s.deps.CacheDriver, err),
			}
			hasErrors = true
			log.Error("cache unavailable", logger.Err(err))
		} else {
			msg := s.deps.CacheDriver
			if s.deps.CacheKeys != nil {
				if n, err := s.deps.CacheKeys(ctx); err == nil {
					msg = fmt.Sprintf("%s keys=%d", msg, n)
				}
			}
			response.Components["cache"] = dto.HealthStatus{Status: "ok", Message: msg}
		}
	} else {
		response.Components["cache"] = dto.HealthStatus{Status: "disabled"}
	}

	switch {
	case hasCriticalErrors:
		response.Status = "unavailable"
	case hasErrors:
		response.Status = "degraded"
	default:
		response.Status = "ready"
	}
	return response
}
