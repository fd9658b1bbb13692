package catalog

import (
	"time"

	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// EntryResponse is a classification code resolved for a channel
type EntryResponse struct {
	Code                       string     `json:"code"`
	Source                     string     `json:"source"`
	OfficialDescription        string     `json:"official_description"`
	Kind                       string     `json:"kind"`
	Category                   string     `json:"category"`
	UsefulLife                 string     `json:"useful_life"`
	ImportFlag                 string     `json:"import_flag"`
	DiscountedGoodsDescription string     `json:"discounted_goods_description"`
	DatasetVersion             string     `json:"dataset_version,omitempty"`
	UpdatedAt                  *time.Time `json:"updated_at,omitempty"`
}

// ToEntryResponse converts a resolved entry
func ToEntryResponse(e catalog.Entry) *EntryResponse {
	return &EntryResponse{
		Code:                       e.Code,
		Source:                     string(e.Source),
		OfficialDescription:        e.OfficialDescription,
		Kind:                       e.Kind,
		Category:                   e.Category,
		UsefulLife:                 e.UsefulLife,
		ImportFlag:                 e.ImportFlag,
		DiscountedGoodsDescription: e.DiscountedGoodsDescription,
		DatasetVersion:             e.DatasetVersion,
		UpdatedAt:                  e.UpdatedAt,
	}
}

// OptionsResponse lists the distinct values of a field visible to a channel
type OptionsResponse struct {
	Field  string   `json:"field"`
	Values []string `json:"values"`
}

// KindOptionsResponse lists document kinds with where they came from
type KindOptionsResponse struct {
	Values           []string `json:"values"`
	TenantSourced    int      `json:"tenant_sourced"`
	ReferenceSourced int      `json:"reference_sourced"`
	OverriddenCodes  int      `json:"overridden_codes"`
}

// UpsertOverrideRequest is the closed set of fields a channel may override.
// Unknown JSON keys are rejected when the body is decoded.
type UpsertOverrideRequest struct {
	Category                   string  `json:"category" binding:"required,max=2000"`
	OfficialDescription        *string `json:"official_description" binding:"omitempty,max=2000"`
	Kind                       *string `json:"kind" binding:"omitempty,max=2000"`
	UsefulLife                 *string `json:"useful_life" binding:"omitempty,max=2000"`
	ImportFlag                 *string `json:"import_flag" binding:"omitempty,max=2000"`
	DiscountedGoodsDescription *string `json:"discounted_goods_description" binding:"omitempty,max=2000"`
}

func (r UpsertOverrideRequest) fields() catalog.OverrideFields {
	return catalog.OverrideFields{
		Category:                   r.Category,
		OfficialDescription:        r.OfficialDescription,
		Kind:                       r.Kind,
		UsefulLife:                 r.UsefulLife,
		ImportFlag:                 r.ImportFlag,
		DiscountedGoodsDescription: r.DiscountedGoodsDescription,
	}
}

// OverrideResponse represents a tenant override in API responses
type OverrideResponse struct {
	ID                         uuid.UUID `json:"id"`
	ChannelID                  uuid.UUID `json:"channel_id"`
	Code                       string    `json:"code"`
	Category                   string    `json:"category"`
	OfficialDescription        *string   `json:"official_description"`
	Kind                       *string   `json:"kind"`
	UsefulLife                 *string   `json:"useful_life"`
	ImportFlag                 *string   `json:"import_flag"`
	DiscountedGoodsDescription *string   `json:"discounted_goods_description"`
	CreatedAt                  time.Time `json:"created_at"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

// ToOverrideResponse converts a domain override
func ToOverrideResponse(o *catalog.OverrideEntry) OverrideResponse {
	return OverrideResponse{
		ID:                         o.ID,
		ChannelID:                  o.ChannelID,
		Code:                       o.Code,
		Category:                   o.Category,
		OfficialDescription:        o.OfficialDescription,
		Kind:                       o.Kind,
		UsefulLife:                 o.UsefulLife,
		ImportFlag:                 o.ImportFlag,
		DiscountedGoodsDescription: o.DiscountedGoodsDescription,
		CreatedAt:                  o.CreatedAt,
		UpdatedAt:                  o.UpdatedAt,
	}
}

// DatasetResponse describes the active reference dataset
type DatasetResponse struct {
	Version    string    `json:"version"`
	Source     string    `json:"source"`
	Checksum   string    `json:"checksum"`
	RowCount   int       `json:"row_count"`
	ImportedAt time.Time `json:"imported_at"`
}

// ToDatasetResponse converts a domain dataset
func ToDatasetResponse(d *catalog.Dataset) *DatasetResponse {
	return &DatasetResponse{
		Version:    d.Version,
		Source:     d.Source,
		Checksum:   d.Checksum,
		RowCount:   d.RowCount,
		ImportedAt: d.ImportedAt,
	}
}
