package event

import (
	"context"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per domain event
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit handler logging under the "audit" name
func NewAuditLogHandler(l *zap.Logger) *AuditLogHandler {
	if l == nil {
		l = zap.NewNop()
	}
	return &AuditLogHandler{logger: l.Named("audit")}
}

// EventTypes returns nil: the audit log receives every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event. The payload is included so the log alone is
// enough to reconstruct what changed.
func (h *AuditLogHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	env, err := NewEnvelope(ev)
	if err != nil {
		return err
	}
	h.logger.Info("Domain event",
		zap.String("request_id", logger.GetRequestID(ctx)),
		zap.String("event_type", env.Type),
		zap.String("event_id", env.ID.String()),
		zap.String("aggregate_type", env.AggregateType),
		zap.String("aggregate_id", env.AggregateID.String()),
		logger.ChannelField(env.ChannelID),
		zap.Time("occurred_at", env.OccurredAt),
		zap.ByteString("payload", env.Payload),
	)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
