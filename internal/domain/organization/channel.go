package organization

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/domain/shared/valueobject"
)

const AggregateTypeChannel = "Channel"

var channelCodePattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]{1,19}$`)

// Channel is a tenant. Code and LegalIdent are fixed at onboarding.
type Channel struct {
	shared.BaseAggregateRoot
	Code       string
	LegalIdent valueobject.LegalIdent
	Name       string
	Email      string
	Phone      string
	Address    valueobject.Address
	IsActive   bool
}

// ChannelContact holds the mutable contact details of a channel
type ChannelContact struct {
	Name    string
	Email   string
	Phone   string
	Address valueobject.Address
}

// NewChannel creates an active channel
func NewChannel(code string, legalIdent valueobject.LegalIdent, contact ChannelContact) (*Channel, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !channelCodePattern.MatchString(code) {
		return nil, shared.ErrInvalidCode.Withf("channel code %q must be 2-20 letters, digits, '-' or '_'", code)
	}
	if legalIdent.Number() == "" {
		return nil, shared.NewDomainError("INVALID_LEGAL_IDENT", "Legal identification is required")
	}
	if err := validateContact(contact); err != nil {
		return nil, err
	}

	ch := &Channel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		LegalIdent:        legalIdent,
		IsActive:          true,
	}
	ch.applyContact(contact)
	ch.AddDomainEvent(NewChannelCreatedEvent(ch))
	return ch, nil
}

// UpdateContact replaces the contact details
func (c *Channel) UpdateContact(contact ChannelContact) error {
	if err := validateContact(contact); err != nil {
		return err
	}
	c.applyContact(contact)
	c.UpdatedAt = time.Now()
	c.AddDomainEvent(NewChannelUpdatedEvent(c))
	return nil
}

// Activate re-enables a deactivated channel
func (c *Channel) Activate() error {
	if c.IsActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Channel is already active")
	}
	c.IsActive = true
	c.UpdatedAt = time.Now()
	c.AddDomainEvent(NewChannelStatusChangedEvent(c))
	return nil
}

// Deactivate soft-deactivates the channel. Nothing is deleted.
func (c *Channel) Deactivate() error {
	if !c.IsActive {
		return shared.NewDomainError("ALREADY_INACTIVE", "Channel is already inactive")
	}
	c.IsActive = false
	c.UpdatedAt = time.Now()
	c.AddDomainEvent(NewChannelStatusChangedEvent(c))
	return nil
}

func (c *Channel) applyContact(contact ChannelContact) {
	c.Name = strings.TrimSpace(contact.Name)
	c.Email = strings.TrimSpace(contact.Email)
	c.Phone = strings.TrimSpace(contact.Phone)
	c.Address = contact.Address
}

func validateContact(contact ChannelContact) error {
	name := strings.TrimSpace(contact.Name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Channel name cannot be empty")
	}
	if utf8.RuneCountInString(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Channel name cannot exceed 100 characters")
	}
	if len(contact.Email) > 160 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 160 characters")
	}
	if email := strings.TrimSpace(contact.Email); email != "" && !strings.Contains(email, "@") {
		return shared.NewDomainError("INVALID_EMAIL", "Email is not valid")
	}
	if len(contact.Phone) > 20 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 20 characters")
	}
	return nil
}
