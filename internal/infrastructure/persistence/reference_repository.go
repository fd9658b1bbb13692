package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// referenceBatchSize bounds the rows per INSERT when loading a dataset
const referenceBatchSize = 500

// GormReferenceRepository implements catalog.ReferenceRepository using GORM
type GormReferenceRepository struct {
	db *gorm.DB
}

// NewGormReferenceRepository creates a new GormReferenceRepository
func NewGormReferenceRepository(db *gorm.DB) *GormReferenceRepository {
	return &GormReferenceRepository{db: db}
}

// FindByCode finds a reference entry by code
func (r *GormReferenceRepository) FindByCode(ctx context.Context, code string) (*catalog.ReferenceEntry, error) {
	var record models.ReferenceClassificationRecord
	if err := r.db.WithContext(ctx).Where("code = ?", code).Take(&record).Error; err != nil {
		return nil, translateError("find reference entry", err)
	}
	entry := record.ToDomain()
	return &entry, nil
}

// FindByCodes returns the reference entries for the given codes
func (r *GormReferenceRepository) FindByCodes(ctx context.Context, codes []string) ([]catalog.ReferenceEntry, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var records []models.ReferenceClassificationRecord
	if err := r.db.WithContext(ctx).Where("code IN ?", codes).Find(&records).Error; err != nil {
		return nil, translateError("find reference entries", err)
	}
	entries := make([]catalog.ReferenceEntry, len(records))
	for i := range records {
		entries[i] = records[i].ToDomain()
	}
	return entries, nil
}

type valueCount struct {
	Value string
	Total int
}

// ValueCounts groups the reference catalog by the field's raw value
func (r *GormReferenceRepository) ValueCounts(ctx context.Context, field catalog.Field) (map[string]int, error) {
	column := field.Column()
	if column == "" {
		return nil, shared.ErrUnsupportedField.Withf("field %q cannot be listed", field)
	}
	var rows []valueCount
	if err := r.db.WithContext(ctx).Model(&models.ReferenceClassificationRecord{}).
		Select(fmt.Sprintf("%s AS value, COUNT(*) AS total", column)).
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, translateError("count reference values", err)
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Value] += row.Total
	}
	return counts, nil
}

// ActiveDataset returns the dataset currently loaded
func (r *GormReferenceRepository) ActiveDataset(ctx context.Context) (*catalog.Dataset, error) {
	var record models.ReferenceDatasetRecord
	if err := r.db.WithContext(ctx).Where("is_active = ?", true).Take(&record).Error; err != nil {
		return nil, translateError("find active dataset", err)
	}
	return record.ToDomain(), nil
}

// ReplaceDataset swaps the catalog contents for a new dataset in one
// transaction. Readers see either the old or the new dataset, never a mix.
func (r *GormReferenceRepository) ReplaceDataset(ctx context.Context, dataset *catalog.Dataset, entries []catalog.ReferenceEntry) error {
	records := make([]models.ReferenceClassificationRecord, len(entries))
	for i, e := range entries {
		e.DatasetVersion = dataset.Version
		records[i] = models.ReferenceClassificationRecordFromDomain(e)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.ReferenceClassificationRecord{}).Error; err != nil {
			return translateError("clear reference catalog", err)
		}
		if len(records) > 0 {
			if err := tx.CreateInBatches(records, referenceBatchSize).Error; err != nil {
				return translateUniqueError("load reference catalog", err,
					shared.ErrDuplicateCode.WithMessage("dataset contains duplicate classification codes"))
			}
		}
		if err := tx.Model(&models.ReferenceDatasetRecord{}).
			Where("is_active = ?", true).
			Update("is_active", false).Error; err != nil {
			return translateError("deactivate previous dataset", err)
		}

		importedAt := dataset.ImportedAt
		if importedAt.IsZero() {
			importedAt = time.Now()
		}
		record := models.ReferenceDatasetRecord{
			Version:    dataset.Version,
			Source:     dataset.Source,
			Checksum:   dataset.Checksum,
			RowCount:   len(records),
			ImportedAt: importedAt,
			IsActive:   true,
		}
		if err := tx.Save(&record).Error; err != nil {
			return translateError("record dataset", err)
		}
		dataset.RowCount = record.RowCount
		dataset.ImportedAt = importedAt
		dataset.IsActive = true
		return nil
	})
}
