package event

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/facturacion/backend/internal/domain/shared"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when an async handler has no room for an event
	ErrQueueFull = errors.New("event queue is full")
	// ErrHandlerClosed is returned for events handed to a closed async handler
	ErrHandlerClosed = errors.New("event handler is closed")
)

// AsyncHandlerConfig holds configuration for an AsyncHandler
type AsyncHandlerConfig struct {
	QueueSize      int
	HandlerTimeout time.Duration
}

// DefaultAsyncHandlerConfig returns default configuration
func DefaultAsyncHandlerConfig() AsyncHandlerConfig {
	return AsyncHandlerConfig{
		QueueSize:      1024,
		HandlerTimeout: 5 * time.Second,
	}
}

type queuedEvent struct {
	ctx context.Context
	ev  shared.DomainEvent
}

// AsyncHandler moves a slow handler off the publishing goroutine. Events
// are queued and handed to the inner handler by one background worker, in
// publish order. The worker context keeps the publisher's values but not
// its cancellation, so a finished request does not abort delivery.
type AsyncHandler struct {
	inner  shared.EventHandler
	config AsyncHandlerConfig
	logger *zap.Logger

	queue   chan queuedEvent
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewAsyncHandler starts the worker for inner
func NewAsyncHandler(inner shared.EventHandler, config AsyncHandlerConfig, logger *zap.Logger) *AsyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultAsyncHandlerConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = defaults.HandlerTimeout
	}
	h := &AsyncHandler{
		inner:  inner,
		config: config,
		logger: logger,
		queue:  make(chan queuedEvent, config.QueueSize),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// EventTypes returns the inner handler's event types
func (h *AsyncHandler) EventTypes() []string {
	return h.inner.EventTypes()
}

// Handle queues the event without waiting for the inner handler. A full
// queue or a closed handler drops the event and reports it.
func (h *AsyncHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return ErrHandlerClosed
	}
	select {
	case h.queue <- queuedEvent{ctx: context.WithoutCancel(ctx), ev: ev}:
		return nil
	default:
		h.dropped.Add(1)
		return ErrQueueFull
	}
}

func (h *AsyncHandler) loop() {
	defer h.wg.Done()
	for item := range h.queue {
		h.deliver(item)
	}
}

func (h *AsyncHandler) deliver(item queuedEvent) {
	ctx, cancel := context.WithTimeout(item.ctx, h.config.HandlerTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			h.failed.Add(1)
			h.logger.Error("Async event handler panicked",
				zap.String("event_type", item.ev.EventType()),
				zap.Any("panic", r))
		}
	}()
	if err := h.inner.Handle(ctx, item.ev); err != nil {
		h.failed.Add(1)
		h.logger.Error("Async event handler failed",
			zap.String("event_type", item.ev.EventType()),
			zap.String("event_id", item.ev.EventID().String()),
			zap.Error(err))
	}
}

// Close stops accepting events and waits until the queued ones are
// delivered or ctx ends.
func (h *AsyncHandler) Close(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.queue)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AsyncStats holds async handler counters
type AsyncStats struct {
	Pending  int
	Dropped  int64
	Failures int64
}

// Stats returns the handler counters
func (h *AsyncHandler) Stats() AsyncStats {
	return AsyncStats{
		Pending:  len(h.queue),
		Dropped:  h.dropped.Load(),
		Failures: h.failed.Load(),
	}
}

var _ shared.EventHandler = (*AsyncHandler)(nil)
