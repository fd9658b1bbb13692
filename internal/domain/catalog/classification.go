package catalog

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeOverride = "ClassificationOverride"

var codePattern = regexp.MustCompile(`^[0-9A-Za-z-]{1,20}$`)

// Source tells which catalog tier produced a resolved entry
type Source string

const (
	SourceOverride  Source = "override"
	SourceReference Source = "reference"
)

// NormalizeCode trims a classification code and validates its shape
func NormalizeCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if !codePattern.MatchString(code) {
		return "", shared.ErrInvalidCode.Withf("classification code %q is not valid", code)
	}
	return code, nil
}

// ReferenceEntry is a row of the shared, read-only classification dataset
type ReferenceEntry struct {
	Code                       string
	OfficialDescription        string
	Kind                       string
	Category                   string
	UsefulLife                 string
	ImportFlag                 string
	DiscountedGoodsDescription string
	DatasetVersion             string
}

// Value returns the raw value of an enumerable field
func (r ReferenceEntry) Value(f Field) string {
	switch f {
	case FieldKind:
		return r.Kind
	case FieldCategory:
		return r.Category
	case FieldOfficialDescription:
		return r.OfficialDescription
	case FieldDiscountedGoodsDescription:
		return r.DiscountedGoodsDescription
	}
	return ""
}

// OverrideFields is the closed set of attributes a tenant can override.
// Category is mandatory; nil pointers mean the attribute is not set.
type OverrideFields struct {
	Category                   string
	OfficialDescription        *string
	Kind                       *string
	UsefulLife                 *string
	ImportFlag                 *string
	DiscountedGoodsDescription *string
}

// OverrideEntry is a tenant's private replacement for a classification code.
// When present it supersedes the reference entry in full.
type OverrideEntry struct {
	shared.ChannelAggregateRoot
	Code string
	OverrideFields
}

// NewOverrideEntry creates an override for the channel
func NewOverrideEntry(channelID uuid.UUID, code string, fields OverrideFields) (*OverrideEntry, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	o := &OverrideEntry{
		ChannelAggregateRoot: shared.NewChannelAggregateRoot(channelID),
		Code:                 code,
	}
	if err := o.Apply(fields); err != nil {
		return nil, err
	}
	return o, nil
}

// Apply replaces every field of the override
func (o *OverrideEntry) Apply(fields OverrideFields) error {
	fields.Category = strings.TrimSpace(fields.Category)
	if fields.Category == "" {
		return shared.NewDomainError("INVALID_CATEGORY", "Category is required")
	}
	for _, v := range []string{fields.Category, deref(fields.OfficialDescription), deref(fields.Kind), deref(fields.UsefulLife), deref(fields.ImportFlag), deref(fields.DiscountedGoodsDescription)} {
		if utf8.RuneCountInString(v) > 2000 {
			return shared.NewDomainError("INVALID_FIELD", "Field values cannot exceed 2000 characters")
		}
	}
	o.OverrideFields = fields
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOverrideUpsertedEvent(o))
	return nil
}

// Value returns the raw value of an enumerable field, empty when unset
func (o OverrideEntry) Value(f Field) string {
	switch f {
	case FieldKind:
		return deref(o.Kind)
	case FieldCategory:
		return o.Category
	case FieldOfficialDescription:
		return deref(o.OfficialDescription)
	case FieldDiscountedGoodsDescription:
		return deref(o.DiscountedGoodsDescription)
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Entry is the resolved view of a classification code for a channel
type Entry struct {
	Code                       string
	Source                     Source
	ChannelID                  *uuid.UUID
	OfficialDescription        string
	Kind                       string
	Category                   string
	UsefulLife                 string
	ImportFlag                 string
	DiscountedGoodsDescription string
	DatasetVersion             string
	UpdatedAt                  *time.Time
}

// Dataset describes an imported version of the reference catalog
type Dataset struct {
	Version    string
	Source     string
	Checksum   string
	RowCount   int
	ImportedAt time.Time
	IsActive   bool
}

// cacheKeyChecksumLen is how much of the checksum a cache key carries
const cacheKeyChecksumLen = 12

// CacheKey identifies the dataset contents. Re-importing different data
// under the same version yields a different key.
func (d *Dataset) CacheKey() string {
	if d.Checksum == "" {
		return d.Version
	}
	sum := d.Checksum
	if len(sum) > cacheKeyChecksumLen {
		sum = sum[:cacheKeyChecksumLen]
	}
	return d.Version + "@" + sum
}

// SameDataset reports whether two reads observed the same dataset contents.
// A nil dataset stands for an empty catalog.
func SameDataset(a, b *Dataset) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.CacheKey() == b.CacheKey()
}

// BelongToDataset reports whether every entry was loaded by the dataset
func BelongToDataset(entries []ReferenceEntry, d *Dataset) bool {
	for _, e := range entries {
		if d == nil || e.DatasetVersion != d.Version {
			return false
		}
	}
	return true
}
