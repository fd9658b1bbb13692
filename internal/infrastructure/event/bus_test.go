package event

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
	Data string `json:"data"`
}

func newTestEvent(eventType string, channelID uuid.UUID) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "Register", uuid.New(), channelID),
		Data:            "payload",
	}
}

type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panicWith  any
}

func newTestHandler(eventTypes ...string) *testHandler {
	return &testHandler{eventTypes: eventTypes}
}

func (h *testHandler) Handle(_ context.Context, ev shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev)
	if h.panicWith != nil {
		panic(h.panicWith)
	}
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Publish(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	allocations := newTestHandler(organization.EventTypeSequenceAllocated)
	everything := newTestHandler()
	bus.Subscribe(allocations)
	bus.Subscribe(everything)

	ch := uuid.New()
	err := bus.Publish(context.Background(),
		newTestEvent(organization.EventTypeSequenceAllocated, ch),
		newTestEvent(organization.EventTypeCountersOverridden, ch),
		nil,
	)

	require.NoError(t, err)
	assert.Equal(t, 1, allocations.count())
	assert.Equal(t, 2, everything.count())
	assert.Equal(t, BusStats{Published: 2}, bus.Stats())
}

func TestInMemoryEventBus_ExplicitTypesOverrideHandlerTypes(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler(organization.EventTypeBranchCreated)
	bus.Subscribe(h, organization.EventTypeRegisterCreated)

	_ = bus.Publish(context.Background(), newTestEvent(organization.EventTypeBranchCreated, uuid.New()))
	assert.Equal(t, 0, h.count())

	_ = bus.Publish(context.Background(), newTestEvent(organization.EventTypeRegisterCreated, uuid.New()))
	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_FailuresDoNotStopDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := newTestHandler("E")
	failing.err = errors.New("sink unavailable")
	panicking := newTestHandler("E")
	panicking.panicWith = "boom"
	healthy := newTestHandler("E")
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("E", uuid.New()))

	require.NoError(t, err)
	assert.Equal(t, 1, healthy.count())
	assert.Equal(t, int64(2), bus.Stats().HandlerFailures)
}

func TestInMemoryEventBus_PublishFrom(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler()
	bus.Subscribe(h)

	agg := shared.NewChannelAggregateRoot(uuid.New())
	agg.AddDomainEvent(newTestEvent("A", agg.ChannelID))
	agg.AddDomainEvent(newTestEvent("B", agg.ChannelID))

	require.NoError(t, bus.PublishFrom(context.Background(), &agg))

	assert.Equal(t, 2, h.count())
	assert.Empty(t, agg.GetDomainEvents())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	h := newTestHandler("E")
	bus.Subscribe(h)

	_ = bus.Publish(context.Background(), newTestEvent("E", uuid.New()))
	bus.Unsubscribe(h)
	_ = bus.Publish(context.Background(), newTestEvent("E", uuid.New()))

	assert.Equal(t, 1, h.count())
}

func TestInMemoryEventBus_StartStop(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.Running())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.Running())
}
