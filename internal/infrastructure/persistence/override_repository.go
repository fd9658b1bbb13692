package persistence

import (
	"context"

	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/facturacion/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOverrideRepository implements catalog.OverrideRepository using GORM
type GormOverrideRepository struct {
	db *gorm.DB
}

// NewGormOverrideRepository creates a new GormOverrideRepository
func NewGormOverrideRepository(db *gorm.DB) *GormOverrideRepository {
	return &GormOverrideRepository{db: db}
}

// FindByCode finds the channel's override for a code
func (r *GormOverrideRepository) FindByCode(ctx context.Context, channelID uuid.UUID, code string) (*catalog.OverrideEntry, error) {
	var record models.ClassificationOverrideRecord
	if err := r.db.WithContext(ctx).
		Scopes(channelScope(channelID)).
		Where("code = ?", code).
		Take(&record).Error; err != nil {
		return nil, translateError("find override", err)
	}
	return record.ToDomain(), nil
}

// FindAllForChannel lists every override of a channel ordered by code
func (r *GormOverrideRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]catalog.OverrideEntry, error) {
	var records []models.ClassificationOverrideRecord
	if err := r.db.WithContext(ctx).
		Scopes(channelScope(channelID)).
		Order("code ASC").
		Find(&records).Error; err != nil {
		return nil, translateError("list overrides", err)
	}
	entries := make([]catalog.OverrideEntry, len(records))
	for i := range records {
		entries[i] = *records[i].ToDomain()
	}
	return entries, nil
}

// Upsert inserts or replaces the override keyed on (channel_id, code).
// The existing row keeps its id and created_at; every other column is
// overwritten, so the last writer wins.
func (r *GormOverrideRepository) Upsert(ctx context.Context, entry *catalog.OverrideEntry) error {
	record := models.ClassificationOverrideRecordFromDomain(entry)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "channel_id"}, {Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"category",
				"official_description",
				"kind",
				"useful_life",
				"import_flag",
				"discounted_goods_description",
				"updated_at",
			}),
		}).
		Create(record).Error
	return translateError("upsert override", err)
}
