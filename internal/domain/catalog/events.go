package catalog

import (
	"github.com/facturacion/backend/internal/domain/shared"
)

const (
	EventTypeOverrideUpserted = "ClassificationOverrideUpserted"
)

// OverrideUpsertedEvent is published when a tenant creates or replaces an override
type OverrideUpsertedEvent struct {
	shared.BaseDomainEvent
	Code     string `json:"code"`
	Category string `json:"category"`
}

// NewOverrideUpsertedEvent creates a new OverrideUpsertedEvent
func NewOverrideUpsertedEvent(o *OverrideEntry) *OverrideUpsertedEvent {
	return &OverrideUpsertedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOverrideUpserted, AggregateTypeOverride, o.ID, o.ChannelID),
		Code:            o.Code,
		Category:        o.Category,
	}
}
