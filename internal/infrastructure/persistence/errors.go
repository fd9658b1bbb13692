package persistence

import (
	"errors"

	"github.com/facturacion/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps driver and GORM errors to the domain taxonomy.
// Domain errors pass through untouched; anything unrecognized is a
// storage error so read paths can retry it.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.ErrHasDependents
	default:
		return shared.NewStorageError(op, err)
	}
}

// translateUniqueError is translateError for writes where a unique
// violation has a specific meaning.
func translateUniqueError(op string, err error, onDuplicate *shared.DomainError) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return onDuplicate
	}
	return translateError(op, err)
}
