package models

import (
	"time"

	"github.com/google/uuid"
)

// ChannelMembershipRecord links a user to a channel with a role.
type ChannelMembershipRecord struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ChannelID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Role      string    `gorm:"type:varchar(10);not null;default:'member'"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ChannelMembershipRecord) TableName() string {
	return "channel_memberships"
}

// All returns every model, in dependency order, for AutoMigrate in tests
// and local development.
func All() []any {
	return []any{
		&ChannelRecord{},
		&ActivityRecord{},
		&BranchRecord{},
		&RegisterRecord{},
		&SequenceRecord{},
		&ReferenceDatasetRecord{},
		&ReferenceClassificationRecord{},
		&ClassificationOverrideRecord{},
		&ChannelMembershipRecord{},
	}
}
