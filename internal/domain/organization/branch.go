package organization

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

const AggregateTypeBranch = "Branch"

// BranchCodeLength is the fixed width of a branch code on fiscal documents
const BranchCodeLength = 3

// Branch is a physical or administrative location of a channel.
// (Code, ActivityID) is unique.
type Branch struct {
	shared.ChannelAggregateRoot
	ActivityID uuid.UUID
	Code       string
	Name       string
	Email      string
	Phone      string
	Address    valueobject.Address
}

// BranchDetails holds the mutable descriptive fields of a branch
type BranchDetails struct {
	Name    string
	Email   string
	Phone   string
	Address valueobject.Address
}

// ValidateBranchCode checks that code is exactly three ASCII digits
func ValidateBranchCode(code string) error {
	if len(code) != BranchCodeLength || !valueobject.IsDigits(code) {
		return shared.ErrInvalidCode.Withf("branch code %q must be exactly %d digits", code, BranchCodeLength)
	}
	return nil
}

// NewBranch creates a branch under an activity of the channel
func NewBranch(activity *Activity, code string, details BranchDetails) (*Branch, error) {
	if activity == nil {
		return nil, shared.NewDomainError("INVALID_ACTIVITY", "Activity is required")
	}
	if err := ValidateBranchCode(code); err != nil {
		return nil, err
	}
	if err := validateBranchDetails(details); err != nil {
		return nil, err
	}

	b := &Branch{
		ChannelAggregateRoot: shared.NewChannelAggregateRoot(activity.ChannelID),
		ActivityID:           activity.ID,
		Code:                 code,
	}
	b.applyDetails(details)
	b.AddDomainEvent(NewBranchCreatedEvent(b))
	return b, nil
}

// UpdateDetails replaces the descriptive fields
func (b *Branch) UpdateDetails(details BranchDetails) error {
	if err := validateBranchDetails(details); err != nil {
		return err
	}
	b.applyDetails(details)
	b.UpdatedAt = time.Now()
	return nil
}

// ChangeCode sets a new branch code. Uniqueness is checked by the caller.
func (b *Branch) ChangeCode(code string) error {
	if err := ValidateBranchCode(code); err != nil {
		return err
	}
	if code == b.Code {
		return nil
	}
	old := b.Code
	b.Code = code
	b.UpdatedAt = time.Now()
	b.AddDomainEvent(NewBranchCodeChangedEvent(b, old))
	return nil
}

func (b *Branch) applyDetails(details BranchDetails) {
	b.Name = strings.TrimSpace(details.Name)
	b.Email = strings.TrimSpace(details.Email)
	b.Phone = strings.TrimSpace(details.Phone)
	b.Address = details.Address
}

func validateBranchDetails(details BranchDetails) error {
	if utf8.RuneCountInString(strings.TrimSpace(details.Name)) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Branch name cannot exceed 100 characters")
	}
	if len(details.Email) > 160 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 160 characters")
	}
	if len(details.Phone) > 20 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 20 characters")
	}
	return nil
}
