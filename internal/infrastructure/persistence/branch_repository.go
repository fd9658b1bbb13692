package persistence

import (
	"context"
	"fmt"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var branchSortColumns = map[string]string{
	"code":       "code",
	"name":       "name",
	"created_at": "created_at",
}

// GormBranchRepository implements organization.BranchRepository using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// FindByIDForChannel finds a branch within a channel
func (r *GormBranchRepository) FindByIDForChannel(ctx context.Context, channelID, id uuid.UUID) (*organization.Branch, error) {
	var model models.BranchRecord
	if err := r.db.WithContext(ctx).
		Scopes(channelScope(channelID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError("find branch", err)
	}
	return model.ToDomain(), nil
}

// FindAllForChannel lists branches of a channel with pagination
func (r *GormBranchRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID, filter shared.Filter) ([]organization.Branch, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BranchRecord{}).Where("channel_id = ?", channelID)
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError("count branches", err)
	}

	column := validateSortField(filter.OrderBy, branchSortColumns, "code")
	var records []models.BranchRecord
	if err := query.
		Order(fmt.Sprintf("%s %s", column, validateSortOrder(filter.OrderDir))).
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&records).Error; err != nil {
		return nil, 0, translateError("list branches", err)
	}

	branches := make([]organization.Branch, len(records))
	for i := range records {
		branches[i] = *records[i].ToDomain()
	}
	return branches, total, nil
}

// ExistsByCode checks (code, activityID) uniqueness, ignoring excludeID when set
func (r *GormBranchRepository) ExistsByCode(ctx context.Context, activityID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.BranchRecord{}).
		Where("activity_id = ? AND code = ?", activityID, code)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, translateError("check branch code", err)
	}
	return count > 0, nil
}

// Create inserts a branch. Losing a race on (activity_id, code) reports a duplicate code.
func (r *GormBranchRepository) Create(ctx context.Context, branch *organization.Branch) error {
	model := models.BranchRecordFromDomain(branch)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "activity_id"}, {Name: "code"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return translateUniqueError("create branch", result.Error, shared.ErrDuplicateCode)
	}
	if result.RowsAffected == 0 {
		return shared.ErrDuplicateCode.Withf("branch code %s already exists for this activity", branch.Code)
	}
	return nil
}

// Save updates a branch
func (r *GormBranchRepository) Save(ctx context.Context, branch *organization.Branch) error {
	model := models.BranchRecordFromDomain(branch)
	result := r.db.WithContext(ctx).Model(&models.BranchRecord{}).
		Where("channel_id = ? AND id = ?", branch.ChannelID, branch.ID).
		Updates(map[string]any{
			"code":       model.Code,
			"name":       model.Name,
			"email":      model.Email,
			"phone":      model.Phone,
			"address":    model.Address,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return translateUniqueError("save branch", result.Error, shared.ErrDuplicateCode)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes the branch. With cascade, its registers and their counters go too.
func (r *GormBranchRepository) Delete(ctx context.Context, id uuid.UUID, cascade bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var registers int64
		if err := tx.Model(&models.RegisterRecord{}).Where("branch_id = ?", id).Count(&registers).Error; err != nil {
			return translateError("count registers", err)
		}
		if registers > 0 {
			if !cascade {
				return shared.ErrHasDependents.Withf("branch has %d registers", registers)
			}
			registerIDs := tx.Model(&models.RegisterRecord{}).Select("id").Where("branch_id = ?", id)
			if err := tx.Where("register_id IN (?)", registerIDs).Delete(&models.SequenceRecord{}).Error; err != nil {
				return translateError("delete register sequences", err)
			}
			if err := tx.Where("branch_id = ?", id).Delete(&models.RegisterRecord{}).Error; err != nil {
				return translateError("delete registers", err)
			}
		}
		result := tx.Where("id = ?", id).Delete(&models.BranchRecord{})
		if result.Error != nil {
			return translateError("delete branch", result.Error)
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}
