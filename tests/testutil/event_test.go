package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingEventHandler(t *testing.T) {
	handler := NewRecordingEventHandler("SequenceAllocated")
	assert.Equal(t, []string{"SequenceAllocated"}, handler.EventTypes())

	channelID := uuid.New()
	require.NoError(t, handler.Handle(context.Background(), NewTestEvent("SequenceAllocated", channelID)))
	require.NoError(t, handler.Handle(context.Background(), NewTestEvent("RegisterCreated", channelID)))

	assert.Len(t, handler.Handled(), 2)
	assert.Equal(t, 1, handler.Count("SequenceAllocated"))
	assert.Equal(t, channelID, handler.Handled()[0].ChannelID())
}

func TestRecordingEventHandler_SetErrorAndReset(t *testing.T) {
	handler := NewRecordingEventHandler()
	handler.SetError(assert.AnError)

	err := handler.Handle(context.Background(), NewTestEvent("ChannelCreated", uuid.New()))
	assert.ErrorIs(t, err, assert.AnError)

	handler.Reset()
	assert.Empty(t, handler.Handled())
	assert.NoError(t, handler.Handle(context.Background(), NewTestEvent("ChannelCreated", uuid.New())))
}

func TestNewTestEvent(t *testing.T) {
	channelID := uuid.New()
	ev := NewTestEvent("BranchCreated", channelID)

	assert.NotEqual(t, uuid.Nil, ev.EventID())
	assert.NotEqual(t, uuid.Nil, ev.AggregateID())
	assert.Equal(t, "BranchCreated", ev.EventType())
	assert.Equal(t, "TestAggregate", ev.AggregateType())
	assert.Equal(t, channelID, ev.ChannelID())
	assert.False(t, ev.OccurredAt().IsZero())
}
