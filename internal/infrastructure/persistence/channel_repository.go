package persistence

import (
	"context"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormChannelRepository implements organization.ChannelRepository using GORM
type GormChannelRepository struct {
	db *gorm.DB
}

// NewGormChannelRepository creates a new GormChannelRepository
func NewGormChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// FindByID finds a channel by its ID
func (r *GormChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Channel, error) {
	var model models.ChannelRecord
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError("find channel", err)
	}
	return model.ToDomain(), nil
}

// ExistsByCode checks if a channel code is taken
func (r *GormChannelRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ChannelRecord{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, translateError("check channel code", err)
	}
	return count > 0, nil
}

// ExistsByLegalIdent checks if a (type, number) identification is taken
func (r *GormChannelRepository) ExistsByLegalIdent(ctx context.Context, identType, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ChannelRecord{}).
		Where("legal_ident_type = ? AND legal_ident_number = ?", identType, number).
		Count(&count).Error; err != nil {
		return false, translateError("check legal ident", err)
	}
	return count > 0, nil
}

// Create inserts a channel and grants the owner admin membership.
// A concurrent insert of the same code or identification loses on the
// unique indexes and is reported as a duplicate code.
func (r *GormChannelRepository) Create(ctx context.Context, channel *organization.Channel, ownerID uuid.UUID) error {
	model := models.ChannelRecordFromDomain(channel)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(model)
		if result.Error != nil {
			return translateUniqueError("create channel", result.Error, shared.ErrDuplicateCode)
		}
		if result.RowsAffected == 0 {
			return shared.ErrDuplicateCode.Withf("channel %s already exists", channel.Code)
		}
		membership := models.ChannelMembershipRecord{
			UserID:    ownerID,
			ChannelID: channel.ID,
			Role:      string(access.RoleAdmin),
			CreatedAt: channel.CreatedAt,
			UpdatedAt: channel.CreatedAt,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return translateError("grant owner membership", err)
		}
		return nil
	})
}

// Save updates contact fields and status. Code and legal identification
// are never written after creation.
func (r *GormChannelRepository) Save(ctx context.Context, channel *organization.Channel) error {
	model := models.ChannelRecordFromDomain(channel)
	result := r.db.WithContext(ctx).Model(&models.ChannelRecord{}).
		Where("id = ?", channel.ID).
		Updates(map[string]any{
			"name":       model.Name,
			"email":      model.Email,
			"phone":      model.Phone,
			"address":    model.Address,
			"is_active":  model.IsActive,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("save channel", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// countChannelDependents counts activities, branches and overrides of the channel
func countChannelDependents(db *gorm.DB, id uuid.UUID) (int64, error) {
	var total int64
	for _, model := range []any{&models.ActivityRecord{}, &models.BranchRecord{}, &models.ClassificationOverrideRecord{}} {
		var n int64
		if err := db.Model(model).Where("channel_id = ?", id).Count(&n).Error; err != nil {
			return 0, translateError("count channel dependents", err)
		}
		total += n
	}
	return total, nil
}

// Delete removes the channel. Without cascade it refuses while dependents
// exist; with cascade every owned record is removed in the same transaction.
func (r *GormChannelRepository) Delete(ctx context.Context, id uuid.UUID, cascade bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dependents, err := countChannelDependents(tx, id)
		if err != nil {
			return err
		}
		if dependents > 0 && !cascade {
			return shared.ErrHasDependents.Withf("channel has %d dependent records", dependents)
		}
		if cascade {
			registerIDs := tx.Model(&models.RegisterRecord{}).Select("id").Where("channel_id = ?", id)
			steps := []struct {
				model any
				query any
				args  []any
			}{
				{&models.SequenceRecord{}, "register_id IN (?)", []any{registerIDs}},
				{&models.RegisterRecord{}, "channel_id = ?", []any{id}},
				{&models.BranchRecord{}, "channel_id = ?", []any{id}},
				{&models.ActivityRecord{}, "channel_id = ?", []any{id}},
				{&models.ClassificationOverrideRecord{}, "channel_id = ?", []any{id}},
			}
			for _, step := range steps {
				if err := tx.Where(step.query, step.args...).Delete(step.model).Error; err != nil {
					return translateError("cascade channel delete", err)
				}
			}
		}
		if err := tx.Where("channel_id = ?", id).Delete(&models.ChannelMembershipRecord{}).Error; err != nil {
			return translateError("delete memberships", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.ChannelRecord{})
		if result.Error != nil {
			return translateError("delete channel", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
