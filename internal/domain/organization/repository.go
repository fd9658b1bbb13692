package organization

import (
	"context"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ChannelRepository defines the interface for channel persistence
type ChannelRepository interface {
	// FindByID finds a channel by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Channel, error)

	// ExistsByCode checks if a channel code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// ExistsByLegalIdent checks if a (type, number) identification is taken
	ExistsByLegalIdent(ctx context.Context, identType, number string) (bool, error)

	// Create inserts a channel and grants the owner admin membership
	Create(ctx context.Context, channel *Channel, ownerID uuid.UUID) error

	// Save updates contact fields and status
	Save(ctx context.Context, channel *Channel) error

	// Delete removes the channel. Without cascade it fails HAS_DEPENDENTS
	// while activities, branches or overrides exist; with cascade they go too.
	Delete(ctx context.Context, id uuid.UUID, cascade bool) error
}

// ActivityRepository defines the interface for activity persistence
type ActivityRepository interface {
	// FindByIDForChannel finds an activity within a channel
	FindByIDForChannel(ctx context.Context, channelID, id uuid.UUID) (*Activity, error)

	// FindAllForChannel lists the activities of a channel
	FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]Activity, error)

	// ExistsByCode checks if the channel already registered the activity code
	ExistsByCode(ctx context.Context, channelID uuid.UUID, code string) (bool, error)

	// Create inserts an activity
	Create(ctx context.Context, activity *Activity) error
}

// BranchRepository defines the interface for branch persistence
type BranchRepository interface {
	// FindByIDForChannel finds a branch within a channel
	FindByIDForChannel(ctx context.Context, channelID, id uuid.UUID) (*Branch, error)

	// FindAllForChannel lists branches of a channel
	FindAllForChannel(ctx context.Context, channelID uuid.UUID, filter shared.Filter) ([]Branch, int64, error)

	// ExistsByCode checks (code, activityID) uniqueness, ignoring excludeID when set
	ExistsByCode(ctx context.Context, activityID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error)

	// Create inserts a branch
	Create(ctx context.Context, branch *Branch) error

	// Save updates a branch
	Save(ctx context.Context, branch *Branch) error

	// Delete removes the branch. With cascade, its registers and their counters go too.
	Delete(ctx context.Context, id uuid.UUID, cascade bool) error
}

// RegisterRepository defines the interface for register persistence
type RegisterRepository interface {
	// FindByIDForChannel finds a register within a channel
	FindByIDForChannel(ctx context.Context, channelID, id uuid.UUID) (*Register, error)

	// FindAllForBranch lists the registers of a branch
	FindAllForBranch(ctx context.Context, branchID uuid.UUID) ([]Register, error)

	// ExistsByNumber checks (number, branchID) uniqueness
	ExistsByNumber(ctx context.Context, branchID uuid.UUID, number string) (bool, error)

	// Create inserts the register and its full numbering table atomically
	Create(ctx context.Context, register *Register) error

	// Save updates the register's descriptive fields
	Save(ctx context.Context, register *Register) error

	// Delete removes the register together with its counters
	Delete(ctx context.Context, id uuid.UUID) error
}

// SequenceRepository stores the per-register counters
type SequenceRepository interface {
	// Next increments the counter and returns the new value in a single
	// atomic statement. Returns ErrRegisterNotFound when the register does
	// not exist and ErrSequenceOverflow when the counter is at max.
	Next(ctx context.Context, registerID uuid.UUID, docType DocumentType, max uint64) (Allocation, error)

	// Current returns the last issued value without changing it
	Current(ctx context.Context, registerID uuid.UUID, docType DocumentType) (uint64, error)

	// Table returns every counter of the register
	Table(ctx context.Context, registerID uuid.UUID) (NumberingTable, error)

	// Set overwrites the given counters in one transaction and returns the
	// table as it was before and after the change
	Set(ctx context.Context, registerID uuid.UUID, values map[DocumentType]uint64) (previous, current NumberingTable, err error)
}
