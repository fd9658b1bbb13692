package catalog

import (
	"context"
	"errors"
	"sync"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// lookupMiss is the metric source of a code found in neither tier
const lookupMiss = "miss"

// maxSnapshotAttempts bounds how often an option listing restarts when an
// import swaps the reference dataset underneath it
const maxSnapshotAttempts = 3

var errDatasetChanged = errors.New("reference dataset changed during read")

// CatalogMetrics records catalog resolution activity
type CatalogMetrics interface {
	RecordLookup(ctx context.Context, source string)
	RecordOptionListing(ctx context.Context, field string, cacheHit bool)
}

// ResolverService resolves classification codes and option lists for a
// channel by layering its overrides over the shared reference catalog.
//
// The reference side of option lists comes from histograms cached per
// dataset contents. The active dataset is read on every listing, so an
// import by another process is picked up without a refresh.
type ResolverService struct {
	reference catalog.ReferenceRepository
	overrides catalog.OverrideRepository
	cache     catalog.HistogramCache
	guard     access.Guard
	publisher shared.EventPublisher
	metrics   CatalogMetrics
	retry     shared.RetryPolicy
	logger    *zap.Logger

	mu         sync.Mutex
	datasetKey string
}

// ResolverOption configures a ResolverService
type ResolverOption func(*ResolverService)

// WithCatalogMetrics records lookup and listing metrics
func WithCatalogMetrics(m CatalogMetrics) ResolverOption {
	return func(s *ResolverService) {
		s.metrics = m
	}
}

// WithReadRetry sets the retry policy of read operations
func WithReadRetry(policy shared.RetryPolicy) ResolverOption {
	return func(s *ResolverService) {
		s.retry = policy
	}
}

// WithEventPublisher publishes override changes
func WithEventPublisher(p shared.EventPublisher) ResolverOption {
	return func(s *ResolverService) {
		s.publisher = p
	}
}

// NewResolverService creates a new ResolverService. A nil cache disables
// histogram caching.
func NewResolverService(
	reference catalog.ReferenceRepository,
	overrides catalog.OverrideRepository,
	cache catalog.HistogramCache,
	guard access.Guard,
	logger *zap.Logger,
	opts ...ResolverOption,
) *ResolverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ResolverService{
		reference: reference,
		overrides: overrides,
		cache:     cache,
		guard:     guard,
		retry:     shared.DefaultRetryPolicy(),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup resolves a code for the actor's channel: the channel's override
// wins in full, otherwise the reference entry, otherwise NOT_FOUND.
func (s *ResolverService) Lookup(ctx context.Context, actor access.Actor, code string) (*EntryResponse, error) {
	code, err := catalog.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "lookup",
		telemetry.WithAttribute(telemetry.SpanAttrCode, code))
	defer span.End()

	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}

	entry, err := shared.RetryRead(ctx, s.retry, func(ctx context.Context) (catalog.Entry, error) {
		return s.resolve(ctx, actor.ChannelID, code)
	})
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.recordLookup(ctx, lookupMiss)
		} else {
			telemetry.RecordError(span, err)
		}
		return nil, err
	}
	s.recordLookup(ctx, string(entry.Source))
	telemetry.SetAttributes(span, telemetry.SpanAttrCatalogSource, string(entry.Source))
	return ToEntryResponse(entry), nil
}

func (s *ResolverService) resolve(ctx context.Context, channelID uuid.UUID, code string) (catalog.Entry, error) {
	override, err := s.overrides.FindByCode(ctx, channelID, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return catalog.Entry{}, err
	}
	if override != nil {
		return catalog.Resolve(override, nil)
	}
	reference, err := s.reference.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return catalog.Entry{}, err
	}
	return catalog.Resolve(nil, reference)
}

// ListOptions returns the distinct, sorted values of a field across the
// channel's overrides and the reference entries it does not override.
// Blanks and the "-" placeholder are never listed.
func (s *ResolverService) ListOptions(ctx context.Context, actor access.Actor, fieldName string) (*OptionsResponse, error) {
	field, err := catalog.ParseField(fieldName)
	if err != nil {
		return nil, err
	}
	set, err := s.options(ctx, actor, field)
	if err != nil {
		return nil, err
	}
	return &OptionsResponse{Field: string(field), Values: set.Values}, nil
}

// ListDocumentKinds lists the kind values with their provenance counts
func (s *ResolverService) ListDocumentKinds(ctx context.Context, actor access.Actor) (*KindOptionsResponse, error) {
	set, err := s.options(ctx, actor, catalog.FieldKind)
	if err != nil {
		return nil, err
	}
	return &KindOptionsResponse{
		Values:           set.Values,
		TenantSourced:    set.TenantSourced,
		ReferenceSourced: set.ReferenceSourced,
		OverriddenCodes:  set.OverriddenCodes,
	}, nil
}

func (s *ResolverService) options(ctx context.Context, actor access.Actor, field catalog.Field) (catalog.OptionSet, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "catalog", "list_options",
		telemetry.WithAttribute(telemetry.SpanAttrCatalogField, string(field)))
	defer span.End()

	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return catalog.OptionSet{}, err
	}

	set, err := shared.RetryRead(ctx, s.retry, func(ctx context.Context) (catalog.OptionSet, error) {
		overrides, err := s.overrides.FindAllForChannel(ctx, actor.ChannelID)
		if err != nil {
			return catalog.OptionSet{}, err
		}
		for attempt := 1; ; attempt++ {
			set, consistent, err := s.mergeSnapshot(ctx, field, overrides)
			if err != nil || consistent {
				return set, err
			}
			if attempt == maxSnapshotAttempts {
				return catalog.OptionSet{}, shared.NewStorageError("list options", errDatasetChanged)
			}
		}
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return catalog.OptionSet{}, err
	}
	return set, nil
}

// mergeSnapshot merges the overrides with the reference side of one
// dataset. The histogram and the suppressed entries must come from the same
// dataset, so the active dataset is read before and after them; the result
// is reported inconsistent when an import swapped it in between.
func (s *ResolverService) mergeSnapshot(ctx context.Context, field catalog.Field, overrides []catalog.OverrideEntry) (catalog.OptionSet, bool, error) {
	dataset, err := s.activeDataset(ctx)
	if err != nil {
		return catalog.OptionSet{}, false, err
	}
	histogram, cached, err := s.histogram(ctx, dataset, field)
	if err != nil {
		return catalog.OptionSet{}, false, err
	}
	var suppressed []catalog.ReferenceEntry
	if len(overrides) > 0 {
		suppressed, err = s.reference.FindByCodes(ctx, catalog.OverriddenCodes(overrides))
		if err != nil {
			return catalog.OptionSet{}, false, err
		}
	}
	after, err := s.activeDataset(ctx)
	if err != nil {
		return catalog.OptionSet{}, false, err
	}
	if !catalog.SameDataset(dataset, after) || !catalog.BelongToDataset(suppressed, dataset) {
		s.logger.Debug("Reference dataset changed while listing options", zap.String("field", string(field)))
		return catalog.OptionSet{}, false, nil
	}

	s.observe(ctx, dataset)
	if !cached && dataset != nil && s.cache != nil {
		if err := s.cache.Set(ctx, dataset.CacheKey(), field, histogram); err != nil {
			s.logger.Warn("Histogram cache write failed",
				zap.String("dataset_key", dataset.CacheKey()),
				zap.String("field", string(field)),
				zap.Error(err),
			)
		}
	}
	return catalog.MergeOptions(field, histogram, suppressed, overrides), true, nil
}

// histogram returns the reference histogram of the dataset, from the cache
// when possible, reporting whether it was cached. Cache failures fall back
// to the database. An empty catalog is never cached.
func (s *ResolverService) histogram(ctx context.Context, dataset *catalog.Dataset, field catalog.Field) (catalog.Histogram, bool, error) {
	if dataset != nil && s.cache != nil {
		h, ok, err := s.cache.Get(ctx, dataset.CacheKey(), field)
		if err != nil {
			s.logger.Warn("Histogram cache read failed",
				zap.String("dataset_key", dataset.CacheKey()),
				zap.String("field", string(field)),
				zap.Error(err),
			)
		}
		if ok {
			s.recordListing(ctx, field, true)
			return h, true, nil
		}
	}

	raw, err := s.reference.ValueCounts(ctx, field)
	if err != nil {
		return nil, false, err
	}
	s.recordListing(ctx, field, false)
	return catalog.NewHistogram(raw), false, nil
}

// activeDataset returns the active dataset, or nil for an empty catalog
func (s *ResolverService) activeDataset(ctx context.Context) (*catalog.Dataset, error) {
	dataset, err := s.reference.ActiveDataset(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return dataset, err
}

// observe records the dataset key in use and drops cached histograms of the
// one it replaces. It returns the replaced key.
func (s *ResolverService) observe(ctx context.Context, dataset *catalog.Dataset) string {
	if dataset == nil {
		return ""
	}
	key := dataset.CacheKey()
	s.mu.Lock()
	previous := s.datasetKey
	s.datasetKey = key
	s.mu.Unlock()

	if previous != "" && previous != key && s.cache != nil {
		if err := s.cache.Invalidate(ctx, previous); err != nil {
			s.logger.Warn("Failed to drop cached histograms",
				zap.String("dataset_key", previous),
				zap.Error(err),
			)
		}
	}
	return previous
}

// RefreshReference re-reads the active dataset and drops cached
// histograms of the dataset it replaces. Admins only.
func (s *ResolverService) RefreshReference(ctx context.Context, actor access.Actor) (*DatasetResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireAdmin); err != nil {
		return nil, err
	}
	dataset, err := s.reference.ActiveDataset(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound.WithMessage("No reference dataset has been imported")
		}
		return nil, err
	}

	previous := s.observe(ctx, dataset)
	s.logger.Info("Reference catalog refreshed",
		zap.String("previous_dataset_key", previous),
		zap.String("dataset_key", dataset.CacheKey()),
		zap.Int("row_count", dataset.RowCount),
	)
	return ToDatasetResponse(dataset), nil
}

// UpsertOverride creates or replaces the channel's override for a code.
// Concurrent writers resolve last-writer-wins.
func (s *ResolverService) UpsertOverride(ctx context.Context, actor access.Actor, code string, req UpsertOverrideRequest) (*OverrideResponse, error) {
	code, err := catalog.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	if _, err := access.Check(ctx, s.guard, actor, access.RequireMember); err != nil {
		return nil, err
	}

	existing, err := s.overrides.FindByCode(ctx, actor.ChannelID, code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	var entry *catalog.OverrideEntry
	if existing != nil {
		entry = existing
		err = entry.Apply(req.fields())
	} else {
		entry, err = catalog.NewOverrideEntry(actor.ChannelID, code, req.fields())
	}
	if err != nil {
		return nil, err
	}

	if err := s.overrides.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	s.logger.Info("Classification override saved",
		zap.String("channel_id", actor.ChannelID.String()),
		zap.String("code", code),
	)
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, entry.GetDomainEvents()...)
	}
	entry.ClearDomainEvents()
	resp := ToOverrideResponse(entry)
	return &resp, nil
}

// GetOverride returns the channel's override for a code
func (s *ResolverService) GetOverride(ctx context.Context, actor access.Actor, code string) (*OverrideResponse, error) {
	code, err := catalog.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}
	entry, err := s.overrides.FindByCode(ctx, actor.ChannelID, code)
	if err != nil {
		return nil, err
	}
	resp := ToOverrideResponse(entry)
	return &resp, nil
}

// ListOverrides lists every override of the channel ordered by code
func (s *ResolverService) ListOverrides(ctx context.Context, actor access.Actor) ([]OverrideResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}
	entries, err := shared.RetryRead(ctx, s.retry, func(ctx context.Context) ([]catalog.OverrideEntry, error) {
		return s.overrides.FindAllForChannel(ctx, actor.ChannelID)
	})
	if err != nil {
		return nil, err
	}
	out := make([]OverrideResponse, len(entries))
	for i := range entries {
		out[i] = ToOverrideResponse(&entries[i])
	}
	return out, nil
}

func (s *ResolverService) recordLookup(ctx context.Context, source string) {
	if s.metrics != nil {
		s.metrics.RecordLookup(ctx, source)
	}
}

func (s *ResolverService) recordListing(ctx context.Context, field catalog.Field, hit bool) {
	if s.metrics != nil {
		s.metrics.RecordOptionListing(ctx, string(field), hit)
	}
}
