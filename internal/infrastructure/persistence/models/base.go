package models

import (
	"time"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// ChannelModel provides common persistence fields for channel-scoped records
type ChannelModel struct {
	BaseModel
	ChannelID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainChannelAggregateRoot populates ChannelModel from a domain ChannelAggregateRoot
func (m *ChannelModel) FromDomainChannelAggregateRoot(c shared.ChannelAggregateRoot) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.ChannelID = c.ChannelID
}

// ToChannelAggregateRoot rebuilds the domain ChannelAggregateRoot
func (m *ChannelModel) ToChannelAggregateRoot() shared.ChannelAggregateRoot {
	return shared.ChannelAggregateRoot{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.ToDomain()},
		ChannelID:         m.ChannelID,
	}
}
