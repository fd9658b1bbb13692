package persistence

import (
	"context"
	"time"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRegisterRepository implements organization.RegisterRepository using GORM
type GormRegisterRepository struct {
	db *gorm.DB
}

// NewGormRegisterRepository creates a new GormRegisterRepository
func NewGormRegisterRepository(db *gorm.DB) *GormRegisterRepository {
	return &GormRegisterRepository{db: db}
}

// FindByIDForChannel finds a register within a channel, counters included
func (r *GormRegisterRepository) FindByIDForChannel(ctx context.Context, channelID, id uuid.UUID) (*organization.Register, error) {
	var model models.RegisterRecord
	db := r.db.WithContext(ctx)
	if err := db.Scopes(channelScope(channelID)).
		Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError("find register", err)
	}
	var sequences []models.SequenceRecord
	if err := db.Where("register_id = ?", id).Find(&sequences).Error; err != nil {
		return nil, translateError("load register sequences", err)
	}
	register := model.ToDomain()
	register.Numbering = models.TableFromSequenceRecords(sequences)
	return register, nil
}

// FindAllForBranch lists the registers of a branch ordered by number
func (r *GormRegisterRepository) FindAllForBranch(ctx context.Context, branchID uuid.UUID) ([]organization.Register, error) {
	var records []models.RegisterRecord
	if err := r.db.WithContext(ctx).
		Where("branch_id = ?", branchID).
		Order("number ASC").
		Find(&records).Error; err != nil {
		return nil, translateError("list registers", err)
	}
	registers := make([]organization.Register, len(records))
	for i := range records {
		registers[i] = *records[i].ToDomain()
	}
	return registers, nil
}

// ExistsByNumber checks (number, branchID) uniqueness
func (r *GormRegisterRepository) ExistsByNumber(ctx context.Context, branchID uuid.UUID, number string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RegisterRecord{}).
		Where("branch_id = ? AND number = ?", branchID, number).
		Count(&count).Error; err != nil {
		return false, translateError("check register number", err)
	}
	return count > 0, nil
}

// Create inserts the register and one sequence row per document type in a
// single transaction.
func (r *GormRegisterRepository) Create(ctx context.Context, register *organization.Register) error {
	model := models.RegisterRecordFromDomain(register)
	sequences := models.SequenceRecordsFromTable(register.ID, register.Numbering, time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "branch_id"}, {Name: "number"}},
			DoNothing: true,
		}).Create(model)
		if result.Error != nil {
			return translateUniqueError("create register", result.Error, shared.ErrDuplicateNumber)
		}
		if result.RowsAffected == 0 {
			return shared.ErrDuplicateNumber.Withf("register %s already exists in this branch", register.Number)
		}
		if err := tx.Create(&sequences).Error; err != nil {
			return translateError("create register sequences", err)
		}
		return nil
	})
}

// Save updates the register's descriptive fields
func (r *GormRegisterRepository) Save(ctx context.Context, register *organization.Register) error {
	result := r.db.WithContext(ctx).Model(&models.RegisterRecord{}).
		Where("channel_id = ? AND id = ?", register.ChannelID, register.ID).
		Updates(map[string]any{
			"name":       register.Name,
			"updated_at": register.UpdatedAt,
		})
	if result.Error != nil {
		return translateError("save register", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the register together with its counters
func (r *GormRegisterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("register_id = ?", id).Delete(&models.SequenceRecord{}).Error; err != nil {
			return translateError("delete register sequences", err)
		}
		result := tx.Where("id = ?", id).Delete(&models.RegisterRecord{})
		if result.Error != nil {
			return translateError("delete register", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
