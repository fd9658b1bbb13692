package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ReferenceRepository reads the shared reference catalog. Only the import
// tooling writes to it.
type ReferenceRepository interface {
	// FindByCode finds a reference entry by code
	FindByCode(ctx context.Context, code string) (*ReferenceEntry, error)

	// FindByCodes returns the reference entries for the given codes; missing codes are skipped
	FindByCodes(ctx context.Context, codes []string) ([]ReferenceEntry, error)

	// ValueCounts groups the reference catalog by the field's raw value
	ValueCounts(ctx context.Context, field Field) (map[string]int, error)

	// ActiveDataset returns the dataset currently loaded
	ActiveDataset(ctx context.Context) (*Dataset, error)

	// ReplaceDataset swaps the catalog contents for a new dataset in one transaction
	ReplaceDataset(ctx context.Context, dataset *Dataset, entries []ReferenceEntry) error
}

// OverrideRepository persists tenant overrides
type OverrideRepository interface {
	// FindByCode finds the channel's override for a code
	FindByCode(ctx context.Context, channelID uuid.UUID, code string) (*OverrideEntry, error)

	// FindAllForChannel lists every override of a channel ordered by code
	FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]OverrideEntry, error)

	// Upsert inserts or replaces the override keyed on (code, channel).
	// Concurrent writers resolve last-writer-wins.
	Upsert(ctx context.Context, entry *OverrideEntry) error
}

// HistogramCache caches reference histograms keyed by Dataset.CacheKey
type HistogramCache interface {
	// Get returns the cached histogram, reporting whether it was present
	Get(ctx context.Context, datasetKey string, field Field) (Histogram, bool, error)

	// Set stores a histogram
	Set(ctx context.Context, datasetKey string, field Field, h Histogram) error

	// Invalidate drops every cached histogram of the dataset key
	Invalidate(ctx context.Context, datasetKey string) error
}
