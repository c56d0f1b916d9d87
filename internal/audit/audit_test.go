package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/sigverify/internal/observability/logger"
)

func TestLog_UsesRequestLogger(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).With(logger.RequestID("rid-1")))

	Log(ctx, PairingCompleted, logger.Topic("t-1"))

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "audit", entries[0].LoggerName)
	require.Equal(t, PairingCompleted, entries[0].Message)
	fields := entries[0].ContextMap()
	require.Equal(t, "rid-1", fields["request_id"])
	require.Equal(t, "t-1", fields["topic"])
	require.Equal(t, PairingCompleted, fields["event"])
}
