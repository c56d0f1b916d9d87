// Package audit registra eventos de seguridad (vinculaciones de wallets) en un
// logger propio, para poder rutearlos a otro sink sin tocar el resto de los logs.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/sigverify/internal/observability/logger"
)

// Eventos conocidos.
const (
	PairingStarted   = "pairing.started"
	PairingCompleted = "pairing.completed"
	PairingRejected  = "pairing.rejected"
)

// Log escribe un evento de auditoría con el logger del request (request_id incluido).
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(event, append(fields, zap.String("event", event))...)
}
