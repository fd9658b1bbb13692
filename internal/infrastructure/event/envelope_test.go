package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	channelID := uuid.New()
	ev := organization.NewSequenceAllocatedEvent(channelID, organization.Allocation{
		RegisterID:   uuid.New(),
		DocumentType: organization.DocumentTicket,
		Value:        42,
		AllocatedAt:  time.Now(),
	})

	env, err := NewEnvelope(ev)
	require.NoError(t, err)

	assert.Equal(t, ev.EventID(), env.ID)
	assert.Equal(t, organization.EventTypeSequenceAllocated, env.Type)
	assert.Equal(t, channelID, env.ChannelID)
	assert.Equal(t, time.UTC, env.OccurredAt.Location())

	data, err := env.Marshal()
	require.NoError(t, err)

	var decoded Envelope
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, env.ID, decoded.ID)

	var payload map[string]any
	require.NoError(t, decoded.DecodePayload(&payload))
	assert.Equal(t, organization.EventTypeSequenceAllocated, payload["type"])
}

func TestEnvelope_DecodePayloadError(t *testing.T) {
	env := Envelope{Type: "X", Payload: json.RawMessage(`{`)}
	var v map[string]any
	err := env.DecodePayload(&v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X payload")
}
