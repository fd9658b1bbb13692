package organization

import (
	"time"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AddressInput carries the territorial division codes and free-text detail
type AddressInput struct {
	Province string `json:"province" binding:"omitempty,digits,len=1"`
	Canton   string `json:"canton" binding:"omitempty,digits,len=2"`
	District string `json:"district" binding:"omitempty,digits,len=2"`
	Detail   string `json:"detail" binding:"max=250"`
}

func (a AddressInput) toAddress() (valueobject.Address, error) {
	return valueobject.NewAddress(a.Province, a.Canton, a.District, a.Detail)
}

// CreateChannelRequest onboards a new channel
type CreateChannelRequest struct {
	Code             string       `json:"code" binding:"required,min=2,max=20"`
	LegalIdentType   string       `json:"legal_ident_type" binding:"required,oneof=01 02 03 04"`
	LegalIdentNumber string       `json:"legal_ident_number" binding:"required,digits,min=9,max=12"`
	Name             string       `json:"name" binding:"required,min=1,max=100"`
	Email            string       `json:"email" binding:"omitempty,email,max=160"`
	Phone            string       `json:"phone" binding:"max=20"`
	Address          AddressInput `json:"address"`
}

// UpdateChannelRequest replaces the contact details of the acting channel
type UpdateChannelRequest struct {
	Name    string       `json:"name" binding:"required,min=1,max=100"`
	Email   string       `json:"email" binding:"omitempty,email,max=160"`
	Phone   string       `json:"phone" binding:"max=20"`
	Address AddressInput `json:"address"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID               uuid.UUID           `json:"id"`
	Code             string              `json:"code"`
	LegalIdentType   string              `json:"legal_ident_type"`
	LegalIdentNumber string              `json:"legal_ident_number"`
	Name             string              `json:"name"`
	Email            string              `json:"email"`
	Phone            string              `json:"phone"`
	Address          valueobject.Address `json:"address"`
	IsActive         bool                `json:"is_active"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// ToChannelResponse converts a domain channel
func ToChannelResponse(c *organization.Channel) *ChannelResponse {
	return &ChannelResponse{
		ID:               c.ID,
		Code:             c.Code,
		LegalIdentType:   string(c.LegalIdent.Type()),
		LegalIdentNumber: c.LegalIdent.Number(),
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		Address:          c.Address,
		IsActive:         c.IsActive,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// CreateActivityRequest registers an economic activity for the channel
type CreateActivityRequest struct {
	Code string `json:"code" binding:"required,digits,max=10"`
	Name string `json:"name" binding:"required,min=1,max=160"`
}

// ActivityResponse represents an activity in API responses
type ActivityResponse struct {
	ID        uuid.UUID `json:"id"`
	ChannelID uuid.UUID `json:"channel_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ToActivityResponse converts a domain activity
func ToActivityResponse(a *organization.Activity) ActivityResponse {
	return ActivityResponse{
		ID:        a.ID,
		ChannelID: a.ChannelID,
		Code:      a.Code,
		Name:      a.Name,
		CreatedAt: a.CreatedAt,
	}
}

// CreateBranchRequest creates a branch under one of the channel's activities.
// The code format is checked by the service so the caller gets INVALID_CODE.
type CreateBranchRequest struct {
	ActivityID uuid.UUID    `json:"activity_id" binding:"required"`
	Code       string       `json:"code" binding:"required"`
	Name       string       `json:"name" binding:"max=100"`
	Email      string       `json:"email" binding:"omitempty,email,max=160"`
	Phone      string       `json:"phone" binding:"max=20"`
	Address    AddressInput `json:"address"`
}

// UpdateBranchRequest replaces the descriptive fields of a branch
type UpdateBranchRequest struct {
	Name    string       `json:"name" binding:"max=100"`
	Email   string       `json:"email" binding:"omitempty,email,max=160"`
	Phone   string       `json:"phone" binding:"max=20"`
	Address AddressInput `json:"address"`
}

// RenameBranchCodeRequest changes a branch code
type RenameBranchCodeRequest struct {
	Code string `json:"code" binding:"required,branchcode"`
}

// BranchListFilter holds the query parameters of a branch listing
type BranchListFilter struct {
	Search   string `form:"search" binding:"max=100"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=code name created_at"`
	SortDir  string `form:"sort_dir" binding:"omitempty,oneof=asc desc"`
}

// BranchResponse represents a branch in API responses
type BranchResponse struct {
	ID         uuid.UUID           `json:"id"`
	ChannelID  uuid.UUID           `json:"channel_id"`
	ActivityID uuid.UUID           `json:"activity_id"`
	Code       string              `json:"code"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Phone      string              `json:"phone"`
	Address    valueobject.Address `json:"address"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// ToBranchResponse converts a domain branch
func ToBranchResponse(b *organization.Branch) BranchResponse {
	return BranchResponse{
		ID:         b.ID,
		ChannelID:  b.ChannelID,
		ActivityID: b.ActivityID,
		Code:       b.Code,
		Name:       b.Name,
		Email:      b.Email,
		Phone:      b.Phone,
		Address:    b.Address,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

// CreateRegisterRequest creates a register. Numbering optionally seeds
// counters: keys are document type codes, values decimal strings.
type CreateRegisterRequest struct {
	Number    string            `json:"number" binding:"required,max=20"`
	Name      string            `json:"name" binding:"max=100"`
	Numbering map[string]string `json:"numbering"`
}

// RenameRegisterRequest changes a register's display name
type RenameRegisterRequest struct {
	Name string `json:"name" binding:"max=100"`
}

// RegisterResponse represents a register in API responses
type RegisterResponse struct {
	ID        uuid.UUID         `json:"id"`
	ChannelID uuid.UUID         `json:"channel_id"`
	BranchID  uuid.UUID         `json:"branch_id"`
	Number    string            `json:"number"`
	Name      string            `json:"name"`
	Numbering map[string]string `json:"numbering,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ToRegisterResponse converts a domain register. The numbering table is
// included only when it was loaded.
func ToRegisterResponse(r *organization.Register) RegisterResponse {
	resp := RegisterResponse{
		ID:        r.ID,
		ChannelID: r.ChannelID,
		BranchID:  r.BranchID,
		Number:    r.Number,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Numbering) > 0 {
		resp.Numbering = r.Numbering.Strings()
	}
	return resp
}

// SetCountersRequest overwrites some counters of a register
type SetCountersRequest struct {
	Numbering map[string]string `json:"numbering" binding:"required"`
}

// AllocationResponse is a number handed out by the ledger. Value is a
// decimal string so clients never lose precision.
type AllocationResponse struct {
	RegisterID   uuid.UUID `json:"register_id"`
	DocumentType string    `json:"document_type"`
	Value        string    `json:"value"`
	AllocatedAt  time.Time `json:"allocated_at"`
}

// ToAllocationResponse converts a domain allocation
func ToAllocationResponse(a organization.Allocation) *AllocationResponse {
	return &AllocationResponse{
		RegisterID:   a.RegisterID,
		DocumentType: string(a.DocumentType),
		Value:        organization.FormatSequence(a.Value),
		AllocatedAt:  a.AllocatedAt,
	}
}

// CounterResponse is the last issued value of one counter
type CounterResponse struct {
	RegisterID   uuid.UUID `json:"register_id"`
	DocumentType string    `json:"document_type"`
	Value        string    `json:"value"`
}

// NumberingResponse is the full numbering table of a register
type NumberingResponse struct {
	RegisterID uuid.UUID         `json:"register_id"`
	Numbering  map[string]string `json:"numbering"`
}

// DocumentTypeResponse describes a document type
type DocumentTypeResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// DocumentTypes lists every document type in code order
func DocumentTypes() []DocumentTypeResponse {
	types := organization.AllDocumentTypes()
	out := make([]DocumentTypeResponse, len(types))
	for i, t := range types {
		out[i] = DocumentTypeResponse{Code: string(t), Name: t.Name()}
	}
	return out
}
