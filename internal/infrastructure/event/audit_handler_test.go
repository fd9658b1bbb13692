package event

import (
	"context"
	"testing"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	h := NewAuditLogHandler(zap.New(core))
	assert.Nil(t, h.EventTypes())

	ctx, _ := logger.WithRequestID(context.Background(), zap.NewNop(), "req-1")
	channelID := uuid.New()
	ev := newTestEvent(organization.EventTypeRegisterCreated, channelID)

	require.NoError(t, h.Handle(ctx, ev))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	fields := entry.ContextMap()
	assert.Equal(t, organization.EventTypeRegisterCreated, fields["event_type"])
	assert.Equal(t, channelID.String(), fields["channel_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Contains(t, fields["payload"], `"data":"payload"`)
}
