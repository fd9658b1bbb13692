package models

import (
	"time"

	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ChannelRecord is the persistence model for the Channel aggregate.
type ChannelRecord struct {
	BaseModel
	Code             string              `gorm:"type:varchar(20);not null;uniqueIndex:uq_channels_code"`
	LegalIdentType   string              `gorm:"type:varchar(2);not null;uniqueIndex:uq_channels_legal_ident,priority:1"`
	LegalIdentNumber string              `gorm:"type:varchar(12);not null;uniqueIndex:uq_channels_legal_ident,priority:2"`
	Name             string              `gorm:"type:varchar(100);not null"`
	Email            string              `gorm:"type:varchar(160)"`
	Phone            string              `gorm:"type:varchar(20)"`
	Address          valueobject.Address `gorm:"type:text"`
	IsActive         bool                `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (ChannelRecord) TableName() string {
	return "channels"
}

// ToDomain converts the persistence model to a domain Channel.
// The legal identification was validated on the way in.
func (m *ChannelRecord) ToDomain() *organization.Channel {
	li, _ := valueobject.NewLegalIdent(m.LegalIdentType, m.LegalIdentNumber)
	return &organization.Channel{
		BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
		Code:              m.Code,
		LegalIdent:        li,
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		Address:           m.Address,
		IsActive:          m.IsActive,
	}
}

// ChannelRecordFromDomain creates a persistence model from a domain Channel.
func ChannelRecordFromDomain(c *organization.Channel) *ChannelRecord {
	m := &ChannelRecord{
		Code:             c.Code,
		LegalIdentType:   string(c.LegalIdent.Type()),
		LegalIdentNumber: c.LegalIdent.Number(),
		Name:             c.Name,
		Email:            c.Email,
		Phone:            c.Phone,
		Address:          c.Address,
		IsActive:         c.IsActive,
	}
	m.FromDomainBaseEntity(c.BaseEntity)
	return m
}

// ActivityRecord is the persistence model for Activity.
type ActivityRecord struct {
	BaseModel
	ChannelID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_activities_channel_code,priority:1"`
	Code      string    `gorm:"type:varchar(10);not null;uniqueIndex:uq_activities_channel_code,priority:2"`
	Name      string    `gorm:"type:varchar(160);not null"`
}

// TableName returns the table name for GORM
func (ActivityRecord) TableName() string {
	return "activities"
}

// ToDomain converts the persistence model to a domain Activity.
func (m *ActivityRecord) ToDomain() *organization.Activity {
	return &organization.Activity{
		ChannelAggregateRoot: shared.ChannelAggregateRoot{
			BaseAggregateRoot: shared.BaseAggregateRoot{BaseEntity: m.BaseModel.ToDomain()},
			ChannelID:         m.ChannelID,
		},
		Code: m.Code,
		Name: m.Name,
	}
}

// ActivityRecordFromDomain creates a persistence model from a domain Activity.
func ActivityRecordFromDomain(a *organization.Activity) *ActivityRecord {
	m := &ActivityRecord{ChannelID: a.ChannelID, Code: a.Code, Name: a.Name}
	m.FromDomainBaseEntity(a.BaseEntity)
	return m
}

// BranchRecord is the persistence model for Branch.
type BranchRecord struct {
	ChannelModel
	ActivityID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex:uq_branches_activity_code,priority:1"`
	Code       string              `gorm:"type:varchar(3);not null;uniqueIndex:uq_branches_activity_code,priority:2"`
	Name       string              `gorm:"type:varchar(100)"`
	Email      string              `gorm:"type:varchar(160)"`
	Phone      string              `gorm:"type:varchar(20)"`
	Address    valueobject.Address `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BranchRecord) TableName() string {
	return "branches"
}

// ToDomain converts the persistence model to a domain Branch.
func (m *BranchRecord) ToDomain() *organization.Branch {
	return &organization.Branch{
		ChannelAggregateRoot: m.ToChannelAggregateRoot(),
		ActivityID:           m.ActivityID,
		Code:                 m.Code,
		Name:                 m.Name,
		Email:                m.Email,
		Phone:                m.Phone,
		Address:              m.Address,
	}
}

// BranchRecordFromDomain creates a persistence model from a domain Branch.
func BranchRecordFromDomain(b *organization.Branch) *BranchRecord {
	m := &BranchRecord{
		ActivityID: b.ActivityID,
		Code:       b.Code,
		Name:       b.Name,
		Email:      b.Email,
		Phone:      b.Phone,
		Address:    b.Address,
	}
	m.FromDomainChannelAggregateRoot(b.ChannelAggregateRoot)
	return m
}

// RegisterRecord is the persistence model for Register.
type RegisterRecord struct {
	ChannelModel
	BranchID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_registers_branch_number,priority:1"`
	Number   string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_registers_branch_number,priority:2"`
	Name     string    `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (RegisterRecord) TableName() string {
	return "registers"
}

// ToDomain converts the persistence model to a domain Register without its counters.
func (m *RegisterRecord) ToDomain() *organization.Register {
	return &organization.Register{
		ChannelAggregateRoot: m.ToChannelAggregateRoot(),
		BranchID:             m.BranchID,
		Number:               m.Number,
		Name:                 m.Name,
	}
}

// RegisterRecordFromDomain creates a persistence model from a domain Register.
func RegisterRecordFromDomain(r *organization.Register) *RegisterRecord {
	m := &RegisterRecord{BranchID: r.BranchID, Number: r.Number, Name: r.Name}
	m.FromDomainChannelAggregateRoot(r.ChannelAggregateRoot)
	return m
}

// SequenceRecord is one counter of a register's numbering table.
type SequenceRecord struct {
	RegisterID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	DocumentType string    `gorm:"type:varchar(2);primaryKey"`
	Value        int64     `gorm:"type:bigint;not null;default:0"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceRecord) TableName() string {
	return "register_sequences"
}

// SequenceRecordsFromTable expands a numbering table into one row per document type.
func SequenceRecordsFromTable(registerID uuid.UUID, table organization.NumberingTable, now time.Time) []SequenceRecord {
	records := make([]SequenceRecord, 0, len(table))
	for _, dt := range organization.AllDocumentTypes() {
		records = append(records, SequenceRecord{
			RegisterID:   registerID,
			DocumentType: string(dt),
			Value:        int64(table[dt]),
			UpdatedAt:    now,
		})
	}
	return records
}

// TableFromSequenceRecords folds rows back into a numbering table. Types
// without a row read as zero.
func TableFromSequenceRecords(records []SequenceRecord) organization.NumberingTable {
	table := organization.NewNumberingTable()
	for _, r := range records {
		dt := organization.DocumentType(r.DocumentType)
		if dt.IsValid() && r.Value >= 0 {
			table[dt] = uint64(r.Value)
		}
	}
	return table
}
