package models

import (
	"time"

	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ReferenceClassificationRecord is a row of the shared reference catalog.
type ReferenceClassificationRecord struct {
	Code                       string `gorm:"type:varchar(20);primaryKey"`
	OfficialDescription        string `gorm:"type:text;not null;default:''"`
	Kind                       string `gorm:"type:varchar(100);not null;default:'';index"`
	Category                   string `gorm:"type:varchar(255);not null;default:''"`
	UsefulLife                 string `gorm:"type:varchar(50);not null;default:''"`
	ImportFlag                 string `gorm:"type:varchar(20);not null;default:''"`
	DiscountedGoodsDescription string `gorm:"type:text;not null;default:''"`
	DatasetVersion             string `gorm:"type:varchar(40);not null"`
}

// TableName returns the table name for GORM
func (ReferenceClassificationRecord) TableName() string {
	return "reference_classifications"
}

// ToDomain converts the record to a domain ReferenceEntry.
func (m *ReferenceClassificationRecord) ToDomain() catalog.ReferenceEntry {
	return catalog.ReferenceEntry{
		Code:                       m.Code,
		OfficialDescription:        m.OfficialDescription,
		Kind:                       m.Kind,
		Category:                   m.Category,
		UsefulLife:                 m.UsefulLife,
		ImportFlag:                 m.ImportFlag,
		DiscountedGoodsDescription: m.DiscountedGoodsDescription,
		DatasetVersion:             m.DatasetVersion,
	}
}

// ReferenceClassificationRecordFromDomain creates a record from a domain ReferenceEntry.
func ReferenceClassificationRecordFromDomain(e catalog.ReferenceEntry) ReferenceClassificationRecord {
	return ReferenceClassificationRecord{
		Code:                       e.Code,
		OfficialDescription:        e.OfficialDescription,
		Kind:                       e.Kind,
		Category:                   e.Category,
		UsefulLife:                 e.UsefulLife,
		ImportFlag:                 e.ImportFlag,
		DiscountedGoodsDescription: e.DiscountedGoodsDescription,
		DatasetVersion:             e.DatasetVersion,
	}
}

// ReferenceDatasetRecord records an imported dataset version.
type ReferenceDatasetRecord struct {
	Version    string    `gorm:"type:varchar(40);primaryKey"`
	Source     string    `gorm:"type:varchar(500);not null"`
	Checksum   string    `gorm:"type:varchar(64);not null"`
	RowCount   int       `gorm:"not null"`
	ImportedAt time.Time `gorm:"not null"`
	IsActive   bool      `gorm:"not null;default:false;index"`
}

// TableName returns the table name for GORM
func (ReferenceDatasetRecord) TableName() string {
	return "reference_datasets"
}

// ToDomain converts the record to a domain Dataset.
func (m *ReferenceDatasetRecord) ToDomain() *catalog.Dataset {
	return &catalog.Dataset{
		Version:    m.Version,
		Source:     m.Source,
		Checksum:   m.Checksum,
		RowCount:   m.RowCount,
		ImportedAt: m.ImportedAt,
		IsActive:   m.IsActive,
	}
}

// ClassificationOverrideRecord is a tenant override.
type ClassificationOverrideRecord struct {
	BaseModel
	ChannelID                  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_overrides_channel_code,priority:1"`
	Code                       string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_overrides_channel_code,priority:2"`
	Category                   string    `gorm:"type:varchar(255);not null"`
	OfficialDescription        *string   `gorm:"type:text"`
	Kind                       *string   `gorm:"type:varchar(100)"`
	UsefulLife                 *string   `gorm:"type:varchar(50)"`
	ImportFlag                 *string   `gorm:"type:varchar(20)"`
	DiscountedGoodsDescription *string   `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ClassificationOverrideRecord) TableName() string {
	return "classification_overrides"
}

// ToDomain converts the record to a domain OverrideEntry.
func (m *ClassificationOverrideRecord) ToDomain() *catalog.OverrideEntry {
	return &catalog.OverrideEntry{
		ChannelAggregateRoot: shared.ChannelAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
			ChannelID:         m.ChannelID,
		},
		Code: m.Code,
		OverrideFields: catalog.OverrideFields{
			Category:                   m.Category,
			OfficialDescription:        m.OfficialDescription,
			Kind:                       m.Kind,
			UsefulLife:                 m.UsefulLife,
			ImportFlag:                 m.ImportFlag,
			DiscountedGoodsDescription: m.DiscountedGoodsDescription,
		},
	}
}

// ClassificationOverrideRecordFromDomain creates a record from a domain OverrideEntry.
func ClassificationOverrideRecordFromDomain(o *catalog.OverrideEntry) *ClassificationOverrideRecord {
	m := &ClassificationOverrideRecord{
		ChannelID:                  o.ChannelID,
		Code:                       o.Code,
		Category:                   o.Category,
		OfficialDescription:        o.OfficialDescription,
		Kind:                       o.Kind,
		UsefulLife:                 o.UsefulLife,
		ImportFlag:                 o.ImportFlag,
		DiscountedGoodsDescription: o.DiscountedGoodsDescription,
	}
	m.FromDomainBaseEntity(o.BaseEntity)
	return m
}
