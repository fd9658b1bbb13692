package organization

import (
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event type constants
const (
	EventTypeChannelCreated       = "ChannelCreated"
	EventTypeChannelUpdated       = "ChannelUpdated"
	EventTypeChannelStatusChanged = "ChannelStatusChanged"
	EventTypeActivityCreated      = "ActivityCreated"
	EventTypeBranchCreated        = "BranchCreated"
	EventTypeBranchCodeChanged    = "BranchCodeChanged"
	EventTypeRegisterCreated      = "RegisterCreated"
	EventTypeEntityDeleted        = "EntityDeleted"
	EventTypeSequenceAllocated    = "SequenceAllocated"
	EventTypeCountersOverridden   = "CountersOverridden"
)

// ChannelCreatedEvent is published when a channel is onboarded
type ChannelCreatedEvent struct {
	shared.BaseDomainEvent
	Code            string `json:"code"`
	LegalIdentType  string `json:"legal_ident_type"`
	LegalIdentValue string `json:"legal_ident_number"`
	Name            string `json:"name"`
}

// NewChannelCreatedEvent creates a new ChannelCreatedEvent
func NewChannelCreatedEvent(c *Channel) *ChannelCreatedEvent {
	return &ChannelCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChannelCreated, AggregateTypeChannel, c.ID, c.ID),
		Code:            c.Code,
		LegalIdentType:  string(c.LegalIdent.Type()),
		LegalIdentValue: c.LegalIdent.Number(),
		Name:            c.Name,
	}
}

// ChannelUpdatedEvent is published when contact details change
type ChannelUpdatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewChannelUpdatedEvent creates a new ChannelUpdatedEvent
func NewChannelUpdatedEvent(c *Channel) *ChannelUpdatedEvent {
	return &ChannelUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChannelUpdated, AggregateTypeChannel, c.ID, c.ID),
		Name:            c.Name,
	}
}

// ChannelStatusChangedEvent is published on activation and deactivation
type ChannelStatusChangedEvent struct {
	shared.BaseDomainEvent
	IsActive bool `json:"is_active"`
}

// NewChannelStatusChangedEvent creates a new ChannelStatusChangedEvent
func NewChannelStatusChangedEvent(c *Channel) *ChannelStatusChangedEvent {
	return &ChannelStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChannelStatusChanged, AggregateTypeChannel, c.ID, c.ID),
		IsActive:        c.IsActive,
	}
}

// ActivityCreatedEvent is published when an activity is registered
type ActivityCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
	Name string `json:"name"`
}

// NewActivityCreatedEvent creates a new ActivityCreatedEvent
func NewActivityCreatedEvent(a *Activity) *ActivityCreatedEvent {
	return &ActivityCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActivityCreated, AggregateTypeActivity, a.ID, a.ChannelID),
		Code:            a.Code,
		Name:            a.Name,
	}
}

// BranchCreatedEvent is published when a branch is created
type BranchCreatedEvent struct {
	shared.BaseDomainEvent
	ActivityID uuid.UUID `json:"activity_id"`
	Code       string    `json:"code"`
}

// NewBranchCreatedEvent creates a new BranchCreatedEvent
func NewBranchCreatedEvent(b *Branch) *BranchCreatedEvent {
	return &BranchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchCreated, AggregateTypeBranch, b.ID, b.ChannelID),
		ActivityID:      b.ActivityID,
		Code:            b.Code,
	}
}

// BranchCodeChangedEvent is published when a branch code is renamed
type BranchCodeChangedEvent struct {
	shared.BaseDomainEvent
	OldCode string `json:"old_code"`
	NewCode string `json:"new_code"`
}

// NewBranchCodeChangedEvent creates a new BranchCodeChangedEvent
func NewBranchCodeChangedEvent(b *Branch, oldCode string) *BranchCodeChangedEvent {
	return &BranchCodeChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBranchCodeChanged, AggregateTypeBranch, b.ID, b.ChannelID),
		OldCode:         oldCode,
		NewCode:         b.Code,
	}
}

// RegisterCreatedEvent is published when a register is created
type RegisterCreatedEvent struct {
	shared.BaseDomainEvent
	BranchID uuid.UUID         `json:"branch_id"`
	Number   string            `json:"number"`
	Initial  map[string]string `json:"initial_numbering"`
}

// NewRegisterCreatedEvent creates a new RegisterCreatedEvent
func NewRegisterCreatedEvent(r *Register) *RegisterCreatedEvent {
	return &RegisterCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRegisterCreated, AggregateTypeRegister, r.ID, r.ChannelID),
		BranchID:        r.BranchID,
		Number:          r.Number,
		Initial:         r.Numbering.Strings(),
	}
}

// EntityDeletedEvent is published when a channel, branch or register is deleted
type EntityDeletedEvent struct {
	shared.BaseDomainEvent
	Cascade bool `json:"cascade"`
}

// NewEntityDeletedEvent creates a new EntityDeletedEvent
func NewEntityDeletedEvent(aggType string, id, channelID uuid.UUID, cascade bool) *EntityDeletedEvent {
	return &EntityDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntityDeleted, aggType, id, channelID),
		Cascade:         cascade,
	}
}

// SequenceAllocatedEvent is published after a number is consumed
type SequenceAllocatedEvent struct {
	shared.BaseDomainEvent
	DocumentType string `json:"document_type"`
	Value        string `json:"value"`
}

// NewSequenceAllocatedEvent creates a new SequenceAllocatedEvent
func NewSequenceAllocatedEvent(channelID uuid.UUID, a Allocation) *SequenceAllocatedEvent {
	e := &SequenceAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSequenceAllocated, AggregateTypeRegister, a.RegisterID, channelID),
		DocumentType:    string(a.DocumentType),
		Value:           FormatSequence(a.Value),
	}
	e.Timestamp = a.AllocatedAt
	return e
}

// CountersOverriddenEvent is published after an administrative counter reset
type CountersOverriddenEvent struct {
	shared.BaseDomainEvent
	Previous map[string]string `json:"previous"`
	Current  map[string]string `json:"current"`
	UserID   uuid.UUID         `json:"user_id"`
}

// NewCountersOverriddenEvent creates a new CountersOverriddenEvent
func NewCountersOverriddenEvent(channelID, registerID, userID uuid.UUID, previous, current NumberingTable) *CountersOverriddenEvent {
	return &CountersOverriddenEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCountersOverridden, AggregateTypeRegister, registerID, channelID),
		Previous:        previous.Strings(),
		Current:         current.Strings(),
		UserID:          userID,
	}
}
