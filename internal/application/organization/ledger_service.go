package organization

import (
	"context"
	"errors"
	"time"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/logger"
	"github.com/facturacion/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerMetrics records numbering activity
type LedgerMetrics interface {
	RecordAllocation(ctx context.Context, documentType, outcome string, d time.Duration)
	RecordCounterOverride(ctx context.Context, changed int)
}

// LedgerService hands out fiscal sequence numbers per register and
// document type. Allocation is a single atomic statement in the store and
// is never retried here; a number returned once is consumed.
type LedgerService struct {
	registers organization.RegisterRepository
	sequences organization.SequenceRepository
	guard     access.Guard
	publisher shared.EventPublisher
	metrics   LedgerMetrics
	retry     shared.RetryPolicy
	logger    *zap.Logger
}

// LedgerOption configures a LedgerService
type LedgerOption func(*LedgerService)

// WithLedgerMetrics records allocation metrics
func WithLedgerMetrics(m LedgerMetrics) LedgerOption {
	return func(s *LedgerService) {
		s.metrics = m
	}
}

// WithReadRetry sets the retry policy of read operations
func WithReadRetry(policy shared.RetryPolicy) LedgerOption {
	return func(s *LedgerService) {
		s.retry = policy
	}
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(repos Repositories, guard access.Guard, publisher shared.EventPublisher, log *zap.Logger, opts ...LedgerOption) *LedgerService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &LedgerService{
		registers: repos.Registers,
		sequences: repos.Sequences,
		guard:     guard,
		publisher: publisher,
		retry:     shared.DefaultRetryPolicy(),
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AllocateNext consumes the next number of a register's counter. An
// unknown document type is rejected before storage is touched.
func (s *LedgerService) AllocateNext(ctx context.Context, actor access.Actor, registerID uuid.UUID, documentType string) (*AllocationResponse, error) {
	docType, err := organization.ParseDocumentType(documentType)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "allocate_next",
		telemetry.WithAttribute(telemetry.SpanAttrRegisterID, registerID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrDocumentType, string(docType)),
	)
	defer span.End()

	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return nil, err
	}
	if _, err := s.findRegister(ctx, actor.ChannelID, registerID); err != nil {
		return nil, err
	}

	start := time.Now()
	allocation, err := s.sequences.Next(ctx, registerID, docType, organization.MaxSequenceValue)
	elapsed := time.Since(start)
	if err != nil {
		s.recordAllocation(ctx, docType, outcomeFor(err), elapsed)
		telemetry.RecordError(span, err)
		if errors.Is(err, shared.ErrSequenceOverflow) {
			logger.L(ctx).Error("Sequence overflow",
				logger.RegisterField(registerID),
				logger.DocTypeField(string(docType)),
			)
		}
		return nil, err
	}
	s.recordAllocation(ctx, docType, telemetry.OutcomeAllocated, elapsed)
	telemetry.SetAttributes(span, telemetry.SpanAttrSequenceValue, allocation.Value)

	s.logger.Debug("Sequence allocated",
		logger.ChannelField(actor.ChannelID),
		logger.RegisterField(registerID),
		logger.DocTypeField(string(docType)),
		zap.Uint64("value", allocation.Value),
	)
	s.publishEvents(ctx, organization.NewSequenceAllocatedEvent(actor.ChannelID, allocation))
	return ToAllocationResponse(allocation), nil
}

// Peek returns the last issued number of a counter without consuming one
func (s *LedgerService) Peek(ctx context.Context, actor access.Actor, registerID uuid.UUID, documentType string) (*CounterResponse, error) {
	docType, err := organization.ParseDocumentType(documentType)
	if err != nil {
		return nil, err
	}
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}

	value, err := shared.RetryRead(ctx, s.retry, func(ctx context.Context) (uint64, error) {
		if _, err := s.findRegister(ctx, actor.ChannelID, registerID); err != nil {
			return 0, err
		}
		return s.sequences.Current(ctx, registerID, docType)
	})
	if err != nil {
		return nil, err
	}
	return &CounterResponse{
		RegisterID:   registerID,
		DocumentType: string(docType),
		Value:        organization.FormatSequence(value),
	}, nil
}

// Numbering returns every counter of a register
func (s *LedgerService) Numbering(ctx context.Context, actor access.Actor, registerID uuid.UUID) (*NumberingResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}
	table, err := shared.RetryRead(ctx, s.retry, func(ctx context.Context) (organization.NumberingTable, error) {
		if _, err := s.findRegister(ctx, actor.ChannelID, registerID); err != nil {
			return nil, err
		}
		return s.sequences.Table(ctx, registerID)
	})
	if err != nil {
		return nil, err
	}
	return &NumberingResponse{RegisterID: registerID, Numbering: table.Strings()}, nil
}

// SetCounters overwrites counters of a register. Admins only. Values need
// not be higher than the current ones: rewinding is allowed and logged.
// Non-numeric values are ignored; unknown document types and values above
// the store's maximum are rejected before anything is written.
func (s *LedgerService) SetCounters(ctx context.Context, actor access.Actor, registerID uuid.UUID, partial map[string]string) (*NumberingResponse, error) {
	values, err := organization.ParseCounterValues(partial)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "set_counters",
		telemetry.WithAttribute(telemetry.SpanAttrRegisterID, registerID.String()))
	defer span.End()

	if _, err := access.Check(ctx, s.guard, actor, access.RequireAdmin); err != nil {
		return nil, err
	}
	if _, err := s.findRegister(ctx, actor.ChannelID, registerID); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		table, err := s.sequences.Table(ctx, registerID)
		if err != nil {
			return nil, err
		}
		return &NumberingResponse{RegisterID: registerID, Numbering: table.Strings()}, nil
	}

	previous, current, err := s.sequences.Set(ctx, registerID, values)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	log := logger.WithLogger(ctx, s.logger).With(
		logger.ChannelField(actor.ChannelID),
		logger.RegisterField(registerID),
		zap.String("user_id", actor.UserID.String()),
	)
	changed := 0
	for docType, value := range values {
		old := previous[docType]
		if old == value {
			continue
		}
		changed++
		log.Warn("Counter overridden",
			logger.DocTypeField(string(docType)),
			zap.Uint64("old_value", old),
			zap.Uint64("new_value", value),
			zap.Bool("rewind", value < old),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordCounterOverride(ctx, changed)
	}
	s.publishEvents(ctx, organization.NewCountersOverriddenEvent(actor.ChannelID, registerID, actor.UserID, previous, current))
	return &NumberingResponse{RegisterID: registerID, Numbering: current.Strings()}, nil
}

func (s *LedgerService) findRegister(ctx context.Context, channelID, id uuid.UUID) (*organization.Register, error) {
	register, err := s.registers.FindByIDForChannel(ctx, channelID, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.ErrRegisterNotFound
	}
	return register, err
}

func (s *LedgerService) recordAllocation(ctx context.Context, docType organization.DocumentType, outcome string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordAllocation(ctx, string(docType), outcome, d)
	}
}

func (s *LedgerService) publishEvents(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
}

func outcomeFor(err error) string {
	if errors.Is(err, shared.ErrSequenceOverflow) {
		return telemetry.OutcomeOverflow
	}
	return telemetry.OutcomeFailed
}
