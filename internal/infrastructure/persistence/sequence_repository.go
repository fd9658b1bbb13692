package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// incrementSequenceSQL bumps one counter and returns the new value. The
	// row lock taken by the UPDATE serializes concurrent allocations of the
	// same (register, document type) pair.
	incrementSequenceSQL = `UPDATE register_sequences SET value = value + 1, updated_at = ? ` +
		`WHERE register_id = ? AND document_type = ? AND value < ? RETURNING value`

	// upsertSequenceSQL covers registers created before a document type
	// existed: the first allocation inserts the row with value 1.
	upsertSequenceSQL = `INSERT INTO register_sequences (register_id, document_type, value, updated_at) ` +
		`VALUES (?, ?, 1, ?) ON CONFLICT (register_id, document_type) ` +
		`DO UPDATE SET value = register_sequences.value + 1, updated_at = excluded.updated_at ` +
		`WHERE register_sequences.value < ? RETURNING value`
)

// GormSequenceRepository implements organization.SequenceRepository using GORM
type GormSequenceRepository struct {
	db *gorm.DB
}

// NewGormSequenceRepository creates a new GormSequenceRepository
func NewGormSequenceRepository(db *gorm.DB) *GormSequenceRepository {
	return &GormSequenceRepository{db: db}
}

// Next increments the counter in one statement. When nothing is updated it
// works out why: missing register, counter at max, or a missing row.
func (r *GormSequenceRepository) Next(ctx context.Context, registerID uuid.UUID, docType organization.DocumentType, max uint64) (organization.Allocation, error) {
	if max > organization.MaxSequenceValue {
		max = organization.MaxSequenceValue
	}
	now := time.Now()
	db := r.db.WithContext(ctx)

	value, ok, err := queryCounter(db, incrementSequenceSQL, now, registerID, string(docType), int64(max))
	if err != nil {
		return organization.Allocation{}, translateError("allocate sequence", err)
	}
	if ok {
		return newAllocation(registerID, docType, value, now), nil
	}

	exists, err := r.registerExists(db, registerID)
	if err != nil {
		return organization.Allocation{}, err
	}
	if !exists {
		return organization.Allocation{}, shared.ErrRegisterNotFound.Withf("register %s not found", registerID)
	}

	var current models.SequenceRecord
	err = db.Where("register_id = ? AND document_type = ?", registerID, string(docType)).Take(&current).Error
	switch {
	case err == nil && uint64(current.Value) >= max:
		return organization.Allocation{}, overflowError(docType, max)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return organization.Allocation{}, translateError("inspect sequence", err)
	}

	value, ok, err = queryCounter(db, upsertSequenceSQL, registerID, string(docType), now, int64(max))
	if err != nil {
		return organization.Allocation{}, translateError("allocate sequence", err)
	}
	if !ok {
		return organization.Allocation{}, overflowError(docType, max)
	}
	return newAllocation(registerID, docType, value, now), nil
}

// Current returns the last issued value. A register without a row for the
// type has issued nothing yet.
func (r *GormSequenceRepository) Current(ctx context.Context, registerID uuid.UUID, docType organization.DocumentType) (uint64, error) {
	db := r.db.WithContext(ctx)
	var record models.SequenceRecord
	err := db.Where("register_id = ? AND document_type = ?", registerID, string(docType)).Take(&record).Error
	if err == nil {
		return uint64(record.Value), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, translateError("read sequence", err)
	}
	exists, err := r.registerExists(db, registerID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, shared.ErrRegisterNotFound.Withf("register %s not found", registerID)
	}
	return 0, nil
}

// Table returns every counter of the register
func (r *GormSequenceRepository) Table(ctx context.Context, registerID uuid.UUID) (organization.NumberingTable, error) {
	db := r.db.WithContext(ctx)
	exists, err := r.registerExists(db, registerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrRegisterNotFound.Withf("register %s not found", registerID)
	}
	var records []models.SequenceRecord
	if err := db.Where("register_id = ?", registerID).Find(&records).Error; err != nil {
		return nil, translateError("read numbering table", err)
	}
	return models.TableFromSequenceRecords(records), nil
}

// Set overwrites the given counters in one transaction. No monotonicity
// check is made: administrators may rewind a counter.
func (r *GormSequenceRepository) Set(ctx context.Context, registerID uuid.UUID, values map[organization.DocumentType]uint64) (organization.NumberingTable, organization.NumberingTable, error) {
	var previous, current organization.NumberingTable
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		exists, err := r.registerExists(tx, registerID)
		if err != nil {
			return err
		}
		if !exists {
			return shared.ErrRegisterNotFound.Withf("register %s not found", registerID)
		}

		var before []models.SequenceRecord
		if err := tx.Where("register_id = ?", registerID).Find(&before).Error; err != nil {
			return translateError("read numbering table", err)
		}
		previous = models.TableFromSequenceRecords(before)

		now := time.Now()
		for _, dt := range organization.AllDocumentTypes() {
			v, ok := values[dt]
			if !ok {
				continue
			}
			record := models.SequenceRecord{
				RegisterID:   registerID,
				DocumentType: string(dt),
				Value:        int64(v),
				UpdatedAt:    now,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "register_id"}, {Name: "document_type"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			}).Create(&record).Error; err != nil {
				return translateError("set sequence", err)
			}
		}
		current = previous.Merge(values)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return previous, current, nil
}

func (r *GormSequenceRepository) registerExists(db *gorm.DB, registerID uuid.UUID) (bool, error) {
	var count int64
	if err := db.Model(&models.RegisterRecord{}).Where("id = ?", registerID).Count(&count).Error; err != nil {
		return false, translateError("check register", err)
	}
	return count > 0, nil
}

// queryCounter runs a statement returning at most one counter value
func queryCounter(db *gorm.DB, sql string, args ...any) (int64, bool, error) {
	rows, err := db.Raw(sql, args...).Rows()
	if err != nil {
		return 0, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, false, rows.Err()
	}
	var value int64
	if err := rows.Scan(&value); err != nil {
		return 0, false, err
	}
	return value, true, rows.Err()
}

func newAllocation(registerID uuid.UUID, docType organization.DocumentType, value int64, at time.Time) organization.Allocation {
	return organization.Allocation{
		RegisterID:   registerID,
		DocumentType: docType,
		Value:        uint64(value),
		AllocatedAt:  at,
	}
}

func overflowError(docType organization.DocumentType, max uint64) error {
	return shared.ErrSequenceOverflow.Withf("counter for document type %s reached %d", docType, max)
}
