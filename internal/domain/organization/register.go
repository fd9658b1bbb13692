package organization

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeRegister = "Register"

// Register is a cash register or terminal of a branch. It owns one counter
// per document type. (Number, BranchID) is unique.
type Register struct {
	shared.ChannelAggregateRoot
	BranchID  uuid.UUID
	Number    string
	Name      string
	Numbering NumberingTable
}

// NewRegister creates a register with every counter at zero, then applies
// the initial values, if any.
func NewRegister(branch *Branch, number, name string, initial map[DocumentType]uint64) (*Register, error) {
	if branch == nil {
		return nil, shared.NewDomainError("INVALID_BRANCH", "Branch is required")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.ErrInvalidCode.WithMessage("Register number cannot be empty")
	}
	if len(number) > 20 {
		return nil, shared.ErrInvalidCode.WithMessage("Register number cannot exceed 20 characters")
	}
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > 100 {
		return nil, shared.NewDomainError("INVALID_NAME", "Register name cannot exceed 100 characters")
	}
	for t, v := range initial {
		if !t.IsValid() {
			return nil, shared.ErrUnknownDocumentType.Withf("unknown document type %q", t)
		}
		if v > MaxSequenceValue {
			return nil, shared.ErrCounterOutOfRange
		}
	}

	r := &Register{
		ChannelAggregateRoot: shared.NewChannelAggregateRoot(branch.ChannelID),
		BranchID:             branch.ID,
		Number:               number,
		Name:                 name,
		Numbering:            NewNumberingTable().Merge(initial),
	}
	r.AddDomainEvent(NewRegisterCreatedEvent(r))
	return r, nil
}

// Rename changes the display name
func (r *Register) Rename(name string) error {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Register name cannot exceed 100 characters")
	}
	r.Name = name
	r.UpdatedAt = time.Now()
	return nil
}

// Allocation is a number handed out by the ledger. Once returned it is
// consumed whether or not the caller uses it.
type Allocation struct {
	RegisterID   uuid.UUID
	DocumentType DocumentType
	Value        uint64
	AllocatedAt  time.Time
}
