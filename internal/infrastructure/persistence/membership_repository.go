package persistence

import (
	"context"
	"time"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormMembershipRepository implements access.MembershipRepository using GORM
type GormMembershipRepository struct {
	db *gorm.DB
}

// NewGormMembershipRepository creates a new GormMembershipRepository
func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

type membershipRow struct {
	UserID    uuid.UUID
	ChannelID uuid.UUID
	Role      string
	IsActive  bool
}

// Find returns the membership of the user in the channel together with the
// channel's active flag
func (r *GormMembershipRepository) Find(ctx context.Context, userID, channelID uuid.UUID) (*access.Membership, error) {
	var row membershipRow
	err := r.db.WithContext(ctx).
		Table("channel_memberships AS m").
		Select("m.user_id, m.channel_id, m.role, c.is_active").
		Joins("JOIN channels c ON c.id = m.channel_id").
		Where("m.user_id = ? AND m.channel_id = ?", userID, channelID).
		Take(&row).Error
	if err != nil {
		return nil, translateError("find membership", err)
	}
	return &access.Membership{
		UserID:        row.UserID,
		ChannelID:     row.ChannelID,
		Role:          access.Role(row.Role),
		ChannelActive: row.IsActive,
	}, nil
}

// Grant creates or updates a membership
func (r *GormMembershipRepository) Grant(ctx context.Context, userID, channelID uuid.UUID, role access.Role) error {
	now := time.Now()
	record := models.ChannelMembershipRecord{
		UserID:    userID,
		ChannelID: channelID,
		Role:      string(role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "channel_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(&record).Error
	return translateError("grant membership", err)
}
