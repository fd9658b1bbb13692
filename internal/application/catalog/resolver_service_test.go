package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReferenceRepository is a mock implementation of ReferenceRepository
type MockReferenceRepository struct {
	mock.Mock
}

func (m *MockReferenceRepository) FindByCode(ctx context.Context, code string) (*catalog.ReferenceEntry, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.ReferenceEntry), args.Error(1)
}

func (m *MockReferenceRepository) FindByCodes(ctx context.Context, codes []string) ([]catalog.ReferenceEntry, error) {
	args := m.Called(ctx, codes)
	return args.Get(0).([]catalog.ReferenceEntry), args.Error(1)
}

func (m *MockReferenceRepository) ValueCounts(ctx context.Context, field catalog.Field) (map[string]int, error) {
	args := m.Called(ctx, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockReferenceRepository) ActiveDataset(ctx context.Context) (*catalog.Dataset, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Dataset), args.Error(1)
}

func (m *MockReferenceRepository) ReplaceDataset(ctx context.Context, dataset *catalog.Dataset, entries []catalog.ReferenceEntry) error {
	args := m.Called(ctx, dataset, entries)
	return args.Error(0)
}

// MockOverrideRepository is a mock implementation of OverrideRepository
type MockOverrideRepository struct {
	mock.Mock
}

func (m *MockOverrideRepository) FindByCode(ctx context.Context, channelID uuid.UUID, code string) (*catalog.OverrideEntry, error) {
	args := m.Called(ctx, channelID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.OverrideEntry), args.Error(1)
}

func (m *MockOverrideRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]catalog.OverrideEntry, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).([]catalog.OverrideEntry), args.Error(1)
}

func (m *MockOverrideRepository) Upsert(ctx context.Context, entry *catalog.OverrideEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockGuard is a mock implementation of access.Guard
type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Authorize(ctx context.Context, userID, channelID uuid.UUID) (access.Decision, error) {
	args := m.Called(ctx, userID, channelID)
	return args.Get(0).(access.Decision), args.Error(1)
}

type mapHistogramCache struct {
	mu          sync.Mutex
	entries     map[string]catalog.Histogram
	invalidated []string
}

func newMapHistogramCache() *mapHistogramCache {
	return &mapHistogramCache{entries: make(map[string]catalog.Histogram)}
}

func (c *mapHistogramCache) Get(_ context.Context, version string, field catalog.Field) (catalog.Histogram, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.entries[version+"/"+string(field)]
	return h, ok, nil
}

func (c *mapHistogramCache) Set(_ context.Context, version string, field catalog.Field, h catalog.Histogram) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[version+"/"+string(field)] = h
	return nil
}

func (c *mapHistogramCache) Invalidate(_ context.Context, version string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, version)
	return nil
}

type recordingMetrics struct {
	lookups  []string
	listings []bool
}

func (m *recordingMetrics) RecordLookup(_ context.Context, source string) {
	m.lookups = append(m.lookups, source)
}

func (m *recordingMetrics) RecordOptionListing(_ context.Context, _ string, hit bool) {
	m.listings = append(m.listings, hit)
}

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

type resolverFixture struct {
	reference *MockReferenceRepository
	overrides *MockOverrideRepository
	guard     *MockGuard
	cache     *mapHistogramCache
	metrics   *recordingMetrics
	publisher *recordingPublisher
	actor     access.Actor
}

func newResolverFixture() *resolverFixture {
	f := &resolverFixture{
		reference: new(MockReferenceRepository),
		overrides: new(MockOverrideRepository),
		guard:     new(MockGuard),
		cache:     newMapHistogramCache(),
		metrics:   &recordingMetrics{},
		publisher: &recordingPublisher{},
		actor:     access.Actor{UserID: uuid.New(), ChannelID: uuid.New()},
	}
	f.guard.On("Authorize", mock.Anything, mock.Anything, mock.Anything).
		Return(access.Decision{Member: true, IsAdmin: true, ChannelActive: true}, nil)
	return f
}

func (f *resolverFixture) service() *ResolverService {
	return NewResolverService(f.reference, f.overrides, f.cache, f.guard, nil,
		WithCatalogMetrics(f.metrics),
		WithEventPublisher(f.publisher),
		WithReadRetry(shared.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}),
	)
}

func strPtr(s string) *string { return &s }

func override(channelID uuid.UUID, code, kind string) catalog.OverrideEntry {
	o, err := catalog.NewOverrideEntry(channelID, code, catalog.OverrideFields{Category: "Servicios", Kind: strPtr(kind)})
	if err != nil {
		panic(err)
	}
	o.ClearDomainEvents()
	return *o
}

func TestResolverService_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("override wins in full", func(t *testing.T) {
		f := newResolverFixture()
		o := override(f.actor.ChannelID, "1234", "Servicio")
		f.overrides.On("FindByCode", mock.Anything, f.actor.ChannelID, "1234").Return(&o, nil)

		entry, err := f.service().Lookup(ctx, f.actor, "1234")
		require.NoError(t, err)
		assert.Equal(t, "override", entry.Source)
		assert.Equal(t, "Servicio", entry.Kind)
		assert.Empty(t, entry.OfficialDescription, "no fields are merged from the reference")
		f.reference.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
		assert.Equal(t, []string{"override"}, f.metrics.lookups)
	})

	t.Run("falls back to the reference", func(t *testing.T) {
		f := newResolverFixture()
		f.overrides.On("FindByCode", mock.Anything, f.actor.ChannelID, "1234").Return(nil, shared.ErrNotFound)
		f.reference.On("FindByCode", mock.Anything, "1234").Return(&catalog.ReferenceEntry{Code: "1234", Kind: "Bien", DatasetVersion: "2024.1"}, nil)

		entry, err := f.service().Lookup(ctx, f.actor, "1234")
		require.NoError(t, err)
		assert.Equal(t, "reference", entry.Source)
		assert.Equal(t, "Bien", entry.Kind)
		assert.Equal(t, "2024.1", entry.DatasetVersion)
	})

	t.Run("not found in either tier", func(t *testing.T) {
		f := newResolverFixture()
		f.overrides.On("FindByCode", mock.Anything, f.actor.ChannelID, "9999").Return(nil, shared.ErrNotFound)
		f.reference.On("FindByCode", mock.Anything, "9999").Return(nil, shared.ErrNotFound)

		_, err := f.service().Lookup(ctx, f.actor, "9999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.Equal(t, []string{lookupMiss}, f.metrics.lookups)
		f.overrides.AssertNumberOfCalls(t, "FindByCode", 1)
	})

	t.Run("storage failures are retried", func(t *testing.T) {
		f := newResolverFixture()
		f.overrides.On("FindByCode", mock.Anything, f.actor.ChannelID, "1234").
			Return(nil, shared.NewStorageError("find override", errors.New("timeout"))).Once()
		f.overrides.On("FindByCode", mock.Anything, f.actor.ChannelID, "1234").Return(nil, shared.ErrNotFound).Once()
		f.reference.On("FindByCode", mock.Anything, "1234").Return(&catalog.ReferenceEntry{Code: "1234", Kind: "Bien"}, nil)

		entry, err := f.service().Lookup(ctx, f.actor, "1234")
		require.NoError(t, err)
		assert.Equal(t, "reference", entry.Source)
	})

	t.Run("malformed code", func(t *testing.T) {
		f := newResolverFixture()
		_, err := f.service().Lookup(ctx, f.actor, "12 34")
		assert.ErrorIs(t, err, shared.ErrInvalidCode)
	})
}

// Two channels share a reference catalog where code 1234 is a "Bien".
// C1 overrides 1234 as a "Servicio"; C2 does not.
func TestResolverService_ListOptions_OverrideSuppressesReference(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture()
	c1 := f.actor
	c2 := access.Actor{UserID: c1.UserID, ChannelID: uuid.New()}

	f.reference.On("ActiveDataset", mock.Anything).Return(&catalog.Dataset{Version: "2024.1"}, nil)
	f.reference.On("ValueCounts", mock.Anything, catalog.FieldKind).
		Return(map[string]int{"Bien": 1, "-": 4, "  ": 2}, nil).Once()
	f.reference.On("FindByCodes", mock.Anything, []string{"1234"}).
		Return([]catalog.ReferenceEntry{{Code: "1234", Kind: "Bien", DatasetVersion: "2024.1"}}, nil)
	f.overrides.On("FindAllForChannel", mock.Anything, c1.ChannelID).
		Return([]catalog.OverrideEntry{override(c1.ChannelID, "1234", "Servicio")}, nil)
	f.overrides.On("FindAllForChannel", mock.Anything, c2.ChannelID).Return([]catalog.OverrideEntry{}, nil)

	svc := f.service()

	kinds, err := svc.ListDocumentKinds(ctx, c1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Servicio"}, kinds.Values)
	assert.Equal(t, 1, kinds.TenantSourced)
	assert.Equal(t, 0, kinds.ReferenceSourced)
	assert.Equal(t, 1, kinds.OverriddenCodes)

	options, err := svc.ListOptions(ctx, c2, "kind")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bien"}, options.Values)

	f.reference.AssertNumberOfCalls(t, "ValueCounts", 1)
	assert.Equal(t, []bool{false, true}, f.metrics.listings)
}

func TestResolverService_ListOptions_UnsupportedField(t *testing.T) {
	f := newResolverFixture()
	_, err := f.service().ListOptions(context.Background(), f.actor, "usefulLife")
	assert.ErrorIs(t, err, shared.ErrUnsupportedField)
	assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	f.guard.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolverService_ListOptions_EmptyCatalogIsNotCached(t *testing.T) {
	f := newResolverFixture()
	f.reference.On("ActiveDataset", mock.Anything).Return(nil, shared.ErrNotFound)
	f.reference.On("ValueCounts", mock.Anything, catalog.FieldCategory).Return(map[string]int{}, nil)
	f.overrides.On("FindAllForChannel", mock.Anything, f.actor.ChannelID).Return([]catalog.OverrideEntry{}, nil)

	svc := f.service()
	for i := 0; i < 2; i++ {
		options, err := svc.ListOptions(context.Background(), f.actor, "category")
		require.NoError(t, err)
		assert.Empty(t, options.Values)
	}
	assert.Empty(t, f.cache.entries)
	f.reference.AssertNumberOfCalls(t, "ActiveDataset", 4)
}

// memoryReference is a reference catalog whose dataset can be swapped the way
// the import command does it from another process.
type memoryReference struct {
	mu      sync.Mutex
	dataset *catalog.Dataset
	entries map[string]catalog.ReferenceEntry

	// afterValueCounts runs once, between the histogram read and the rest
	afterValueCounts func()
	valueCounts      int
}

func newMemoryReference(version, checksum string, kinds map[string]string) *memoryReference {
	r := &memoryReference{}
	r.load(version, checksum, kinds)
	return r
}

func (r *memoryReference) load(version, checksum string, kinds map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dataset = &catalog.Dataset{Version: version, Checksum: checksum, RowCount: len(kinds), IsActive: true}
	r.entries = make(map[string]catalog.ReferenceEntry, len(kinds))
	for code, kind := range kinds {
		r.entries[code] = catalog.ReferenceEntry{Code: code, Kind: kind, Category: "General", DatasetVersion: version}
	}
}

func (r *memoryReference) FindByCode(_ context.Context, code string) (*catalog.ReferenceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[code]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &e, nil
}

func (r *memoryReference) FindByCodes(_ context.Context, codes []string) ([]catalog.ReferenceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []catalog.ReferenceEntry
	for _, code := range codes {
		if e, ok := r.entries[code]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryReference) ValueCounts(_ context.Context, field catalog.Field) (map[string]int, error) {
	r.mu.Lock()
	counts := make(map[string]int)
	for _, e := range r.entries {
		counts[e.Value(field)]++
	}
	r.valueCounts++
	hook := r.afterValueCounts
	r.afterValueCounts = nil
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return counts, nil
}

func (r *memoryReference) ActiveDataset(context.Context) (*catalog.Dataset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dataset == nil {
		return nil, shared.ErrNotFound
	}
	d := *r.dataset
	return &d, nil
}

func (r *memoryReference) ReplaceDataset(context.Context, *catalog.Dataset, []catalog.ReferenceEntry) error {
	return errors.New("read only")
}

func (f *resolverFixture) serviceOver(reference catalog.ReferenceRepository) *ResolverService {
	return NewResolverService(reference, f.overrides, f.cache, f.guard, nil,
		WithReadRetry(shared.RetryPolicy{Attempts: 3, Backoff: time.Millisecond}),
	)
}

func TestResolverService_ListOptions_FollowsImportWithoutRefresh(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture()
	f.overrides.On("FindAllForChannel", mock.Anything, f.actor.ChannelID).
		Return([]catalog.OverrideEntry{override(f.actor.ChannelID, "1000", "Propio")}, nil)

	reference := newMemoryReference("2024.1", "aaaaaaaaaaaaaaaa", map[string]string{"1000": "Bien", "2000": "Servicio"})
	svc := f.serviceOver(reference)

	options, err := svc.ListOptions(ctx, f.actor, "kind")
	require.NoError(t, err)
	assert.Equal(t, []string{"Propio", "Servicio"}, options.Values)

	reference.load("2024.2", "bbbbbbbbbbbbbbbb", map[string]string{"1000": "Nuevo", "2000": "Servicio"})

	options, err = svc.ListOptions(ctx, f.actor, "kind")
	require.NoError(t, err)
	assert.Equal(t, []string{"Propio", "Servicio"}, options.Values, "code 1000 is overridden in every dataset")
	assert.Equal(t, 2, reference.valueCounts)
	assert.Equal(t, []string{"2024.1@aaaaaaaaaaaa"}, f.cache.invalidated)
}

func TestResolverService_ListOptions_ForcedReimportSameVersion(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture()
	f.overrides.On("FindAllForChannel", mock.Anything, f.actor.ChannelID).
		Return([]catalog.OverrideEntry{override(f.actor.ChannelID, "1000", "Propio")}, nil)

	reference := newMemoryReference("2024.1", "aaaaaaaaaaaaaaaa", map[string]string{"1000": "Bien", "2000": "Servicio"})
	svc := f.serviceOver(reference)

	_, err := svc.ListOptions(ctx, f.actor, "kind")
	require.NoError(t, err)

	reference.load("2024.1", "cccccccccccccccc", map[string]string{"1000": "Nuevo", "2000": "Intangible"})

	options, err := svc.ListOptions(ctx, f.actor, "kind")
	require.NoError(t, err)
	assert.Equal(t, []string{"Intangible", "Propio"}, options.Values)

	resp, err := svc.RefreshReference(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "2024.1", resp.Version)
	assert.Equal(t, []string{"2024.1@aaaaaaaaaaaa"}, f.cache.invalidated)
}

func TestResolverService_ListOptions_DatasetSwappedDuringRead(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture()
	f.overrides.On("FindAllForChannel", mock.Anything, f.actor.ChannelID).
		Return([]catalog.OverrideEntry{override(f.actor.ChannelID, "1000", "Propio")}, nil)

	reference := newMemoryReference("2024.1", "aaaaaaaaaaaaaaaa", map[string]string{"1000": "Bien", "2000": "Servicio"})
	reference.afterValueCounts = func() {
		reference.load("2024.2", "bbbbbbbbbbbbbbbb", map[string]string{"1000": "Nuevo", "2000": "Servicio"})
	}
	svc := f.serviceOver(reference)

	options, err := svc.ListOptions(ctx, f.actor, "kind")
	require.NoError(t, err)
	assert.Equal(t, []string{"Propio", "Servicio"}, options.Values)
	assert.Equal(t, 2, reference.valueCounts, "the listing restarts on the new dataset")

	_, stale, _ := f.cache.Get(ctx, "2024.1@aaaaaaaaaaaa", catalog.FieldKind)
	assert.False(t, stale, "a histogram read across a swap is not cached")
	cached, ok, _ := f.cache.Get(ctx, "2024.2@bbbbbbbbbbbb", catalog.FieldKind)
	require.True(t, ok)
	assert.Equal(t, catalog.Histogram{"Nuevo": 1, "Servicio": 1}, cached)
}

func TestResolverService_RefreshReference(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture()
	f.reference.On("ActiveDataset", mock.Anything).Return(&catalog.Dataset{Version: "2024.1"}, nil).Once()
	f.reference.On("ActiveDataset", mock.Anything).Return(&catalog.Dataset{Version: "2024.2", RowCount: 10}, nil).Once()
	svc := f.service()

	_, err := svc.RefreshReference(ctx, f.actor)
	require.NoError(t, err)
	assert.Empty(t, f.cache.invalidated)

	resp, err := svc.RefreshReference(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "2024.2", resp.Version)
	assert.Equal(t, []string{"2024.1"}, f.cache.invalidated)
}

func TestResolverService_UpsertOverride(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a new override", func(t *testing.T) {
		f := newResolverFixture()
		f.overrides.On("FindByCode", mock.Anything, f.actor.ChannelID, "1234").Return(nil, shared.ErrNotFound)
		f.overrides.On("Upsert", mock.Anything, mock.MatchedBy(func(o *catalog.OverrideEntry) bool {
			return o.Code == "1234" && o.Category == "Servicios" && *o.Kind == "Servicio"
		})).Return(nil)

		resp, err := f.service().UpsertOverride(ctx, f.actor, "1234", UpsertOverrideRequest{Category: "Servicios", Kind: strPtr("Servicio")})
		require.NoError(t, err)
		assert.Equal(t, f.actor.ChannelID, resp.ChannelID)
		require.Len(t, f.publisher.events, 1)
		assert.Equal(t, catalog.EventTypeOverrideUpserted, f.publisher.events[0].EventType())
	})

	t.Run("replaces every field of an existing override", func(t *testing.T) {
		f := newResolverFixture()
		existing := override(f.actor.ChannelID, "1234", "Servicio")
		existing.OfficialDescription = strPtr("old")
		f.overrides.On("FindByCode", mock.Anything, f.actor.ChannelID, "1234").Return(&existing, nil)
		f.overrides.On("Upsert", mock.Anything, &existing).Return(nil)

		resp, err := f.service().UpsertOverride(ctx, f.actor, "1234", UpsertOverrideRequest{Category: "Bienes"})
		require.NoError(t, err)
		assert.Equal(t, existing.ID, resp.ID)
		assert.Equal(t, "Bienes", resp.Category)
		assert.Nil(t, resp.OfficialDescription)
		assert.Nil(t, resp.Kind)
	})

	t.Run("category is required", func(t *testing.T) {
		f := newResolverFixture()
		f.overrides.On("FindByCode", mock.Anything, f.actor.ChannelID, "1234").Return(nil, shared.ErrNotFound)

		_, err := f.service().UpsertOverride(ctx, f.actor, "1234", UpsertOverrideRequest{Category: "  "})
		require.Error(t, err)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
		f.overrides.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})
}

func TestResolverService_ListOverrides(t *testing.T) {
	f := newResolverFixture()
	f.overrides.On("FindAllForChannel", mock.Anything, f.actor.ChannelID).Return([]catalog.OverrideEntry{
		override(f.actor.ChannelID, "1000", "Bien"),
		override(f.actor.ChannelID, "2000", "Servicio"),
	}, nil)

	items, err := f.service().ListOverrides(context.Background(), f.actor)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1000", items[0].Code)
}
