package shared

import (
	"github.com/google/uuid"
)

// AggregateRoot is the base interface for all aggregate roots
type AggregateRoot interface {
	Entity
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot provides common fields for aggregate roots
type BaseAggregateRoot struct {
	BaseEntity
	domainEvents []DomainEvent
}

// AddDomainEvent adds a domain event to be published
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns all pending domain events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents clears the pending domain events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// NewBaseAggregateRoot creates a new base aggregate root
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity:   NewBaseEntity(),
		domainEvents: make([]DomainEvent, 0),
	}
}

// ChannelAggregateRoot extends BaseAggregateRoot with the owning channel
type ChannelAggregateRoot struct {
	BaseAggregateRoot
	ChannelID uuid.UUID
}

// NewChannelAggregateRoot creates a new channel-scoped aggregate root
func NewChannelAggregateRoot(channelID uuid.UUID) ChannelAggregateRoot {
	return ChannelAggregateRoot{
		BaseAggregateRoot: NewBaseAggregateRoot(),
		ChannelID:         channelID,
	}
}

// BelongsTo reports whether the aggregate is owned by the given channel
func (c *ChannelAggregateRoot) BelongsTo(channelID uuid.UUID) bool {
	return c.ChannelID == channelID
}
