package persistence

import (
	"context"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormActivityRepository implements organization.ActivityRepository using GORM
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// FindByIDForChannel finds an activity within a channel
func (r *GormActivityRepository) FindByIDForChannel(ctx context.Context, channelID, id uuid.UUID) (*organization.Activity, error) {
	var model models.ActivityRecord
	if err := r.db.WithContext(ctx).
		Scopes(channelScope(channelID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError("find activity", err)
	}
	return model.ToDomain(), nil
}

// FindAllForChannel lists the activities of a channel ordered by code
func (r *GormActivityRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]organization.Activity, error) {
	var records []models.ActivityRecord
	if err := r.db.WithContext(ctx).
		Scopes(channelScope(channelID)).
		Order("code ASC").
		Find(&records).Error; err != nil {
		return nil, translateError("list activities", err)
	}
	activities := make([]organization.Activity, len(records))
	for i := range records {
		activities[i] = *records[i].ToDomain()
	}
	return activities, nil
}

// ExistsByCode checks if the channel already registered the activity code
func (r *GormActivityRepository) ExistsByCode(ctx context.Context, channelID uuid.UUID, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ActivityRecord{}).
		Scopes(channelScope(channelID)).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, translateError("check activity code", err)
	}
	return count > 0, nil
}

// Create inserts an activity
func (r *GormActivityRepository) Create(ctx context.Context, activity *organization.Activity) error {
	model := models.ActivityRecordFromDomain(activity)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "channel_id"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return translateUniqueError("create activity", result.Error, shared.ErrDuplicateCode)
	}
	if result.RowsAffected == 0 {
		return shared.ErrDuplicateCode.Withf("activity %s already registered", activity.Code)
	}
	return nil
}
