package catalog

import (
	"sort"
	"strings"

	"github.com/facturacion/backend/internal/domain/shared"
	"golang.org/x/text/unicode/norm"
)

// placeholder is the dataset's marker for "no value"
const placeholder = "-"

// Resolve applies catalog precedence for one code: a tenant override wins in
// full, otherwise the reference entry, otherwise not found. Fields are never
// merged across tiers.
func Resolve(override *OverrideEntry, reference *ReferenceEntry) (Entry, error) {
	if override != nil {
		channelID := override.ChannelID
		updatedAt := override.UpdatedAt
		return Entry{
			Code:                       override.Code,
			Source:                     SourceOverride,
			ChannelID:                  &channelID,
			OfficialDescription:        deref(override.OfficialDescription),
			Kind:                       deref(override.Kind),
			Category:                   override.Category,
			UsefulLife:                 deref(override.UsefulLife),
			ImportFlag:                 deref(override.ImportFlag),
			DiscountedGoodsDescription: deref(override.DiscountedGoodsDescription),
			UpdatedAt:                  &updatedAt,
		}, nil
	}
	if reference != nil {
		return Entry{
			Code:                       reference.Code,
			Source:                     SourceReference,
			OfficialDescription:        reference.OfficialDescription,
			Kind:                       reference.Kind,
			Category:                   reference.Category,
			UsefulLife:                 reference.UsefulLife,
			ImportFlag:                 reference.ImportFlag,
			DiscountedGoodsDescription: reference.DiscountedGoodsDescription,
			DatasetVersion:             reference.DatasetVersion,
		}, nil
	}
	return Entry{}, shared.ErrNotFound.WithMessage("Classification code not found")
}

// NormalizeOption trims and NFC-normalizes an option value. It reports false
// for blanks and the "-" placeholder, which never appear in option lists.
func NormalizeOption(v string) (string, bool) {
	v = norm.NFC.String(strings.TrimSpace(v))
	if v == "" || v == placeholder {
		return "", false
	}
	return v, true
}

// Histogram counts how many reference codes carry each option value
type Histogram map[string]int

// NewHistogram normalizes raw grouped counts. Raw values that normalize to
// the same option are summed; blanks and placeholders are dropped.
func NewHistogram(raw map[string]int) Histogram {
	h := make(Histogram, len(raw))
	for v, n := range raw {
		if key, ok := NormalizeOption(v); ok && n > 0 {
			h[key] += n
		}
	}
	return h
}

// OptionSet is the result of listing the values of one field for a channel
type OptionSet struct {
	Field            Field
	Values           []string
	TenantSourced    int
	ReferenceSourced int
	OverriddenCodes  int
}

// MergeOptions computes the distinct option values visible to a channel.
// reference is the histogram of the whole reference catalog; suppressed are
// the reference entries whose codes the channel overrides, so their values
// are discounted before the reference side is taken. Override values are
// always included. The result is sorted and deduplicated.
func MergeOptions(field Field, reference Histogram, suppressed []ReferenceEntry, overrides []OverrideEntry) OptionSet {
	remaining := make(Histogram, len(reference))
	for v, n := range reference {
		remaining[v] = n
	}
	seen := make(map[string]struct{}, len(suppressed))
	for _, entry := range suppressed {
		if _, dup := seen[entry.Code]; dup {
			continue
		}
		seen[entry.Code] = struct{}{}
		if v, ok := NormalizeOption(entry.Value(field)); ok {
			remaining[v]--
		}
	}

	tenant := make(map[string]struct{})
	for _, o := range overrides {
		if v, ok := NormalizeOption(o.Value(field)); ok {
			tenant[v] = struct{}{}
		}
	}

	values := make(map[string]struct{}, len(remaining)+len(tenant))
	referenceSourced := 0
	for v, n := range remaining {
		if n > 0 {
			values[v] = struct{}{}
			referenceSourced++
		}
	}
	for v := range tenant {
		values[v] = struct{}{}
	}

	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	sort.Strings(out)

	return OptionSet{
		Field:            field,
		Values:           out,
		TenantSourced:    len(tenant),
		ReferenceSourced: referenceSourced,
		OverriddenCodes:  len(overrides),
	}
}

// OverriddenCodes returns the codes of the given overrides
func OverriddenCodes(overrides []OverrideEntry) []string {
	codes := make([]string, 0, len(overrides))
	for _, o := range overrides {
		codes = append(codes, o.Code)
	}
	return codes
}
