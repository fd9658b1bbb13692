package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Envelope is the wire form of a domain event sent to other systems
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	ChannelID     uuid.UUID       `json:"channel_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps an event, serializing the full event as payload
func NewEnvelope(ev shared.DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal %s event: %w", ev.EventType(), err)
	}
	return Envelope{
		ID:            ev.EventID(),
		Type:          ev.EventType(),
		AggregateType: ev.AggregateType(),
		AggregateID:   ev.AggregateID(),
		ChannelID:     ev.ChannelID(),
		OccurredAt:    ev.OccurredAt().UTC(),
		Payload:       payload,
	}, nil
}

// Marshal encodes the envelope as JSON
func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// DecodePayload unmarshals the payload into v
func (e Envelope) DecodePayload(v any) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}
