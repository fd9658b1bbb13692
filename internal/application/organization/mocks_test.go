package organization

import (
	"context"
	"sync"
	"time"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockChannelRepository is a mock implementation of ChannelRepository
type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Channel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Channel), args.Error(1)
}

func (m *MockChannelRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockChannelRepository) ExistsByLegalIdent(ctx context.Context, identType, number string) (bool, error) {
	args := m.Called(ctx, identType, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockChannelRepository) Create(ctx context.Context, channel *organization.Channel, ownerID uuid.UUID) error {
	args := m.Called(ctx, channel, ownerID)
	return args.Error(0)
}

func (m *MockChannelRepository) Save(ctx context.Context, channel *organization.Channel) error {
	args := m.Called(ctx, channel)
	return args.Error(0)
}

func (m *MockChannelRepository) Delete(ctx context.Context, id uuid.UUID, cascade bool) error {
	args := m.Called(ctx, id, cascade)
	return args.Error(0)
}

// MockActivityRepository is a mock implementation of ActivityRepository
type MockActivityRepository struct {
	mock.Mock
}

func (m *MockActivityRepository) FindByIDForChannel(ctx context.Context, channelID, id uuid.UUID) (*organization.Activity, error) {
	args := m.Called(ctx, channelID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Activity), args.Error(1)
}

func (m *MockActivityRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]organization.Activity, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).([]organization.Activity), args.Error(1)
}

func (m *MockActivityRepository) ExistsByCode(ctx context.Context, channelID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, channelID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockActivityRepository) Create(ctx context.Context, activity *organization.Activity) error {
	args := m.Called(ctx, activity)
	return args.Error(0)
}

// MockBranchRepository is a mock implementation of BranchRepository
type MockBranchRepository struct {
	mock.Mock
}

func (m *MockBranchRepository) FindByIDForChannel(ctx context.Context, channelID, id uuid.UUID) (*organization.Branch, error) {
	args := m.Called(ctx, channelID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Branch), args.Error(1)
}

func (m *MockBranchRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID, filter shared.Filter) ([]organization.Branch, int64, error) {
	args := m.Called(ctx, channelID, filter)
	return args.Get(0).([]organization.Branch), args.Get(1).(int64), args.Error(2)
}

func (m *MockBranchRepository) ExistsByCode(ctx context.Context, activityID uuid.UUID, code string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, activityID, code, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBranchRepository) Create(ctx context.Context, branch *organization.Branch) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

func (m *MockBranchRepository) Save(ctx context.Context, branch *organization.Branch) error {
	args := m.Called(ctx, branch)
	return args.Error(0)
}

func (m *MockBranchRepository) Delete(ctx context.Context, id uuid.UUID, cascade bool) error {
	args := m.Called(ctx, id, cascade)
	return args.Error(0)
}

// MockRegisterRepository is a mock implementation of RegisterRepository
type MockRegisterRepository struct {
	mock.Mock
}

func (m *MockRegisterRepository) FindByIDForChannel(ctx context.Context, channelID, id uuid.UUID) (*organization.Register, error) {
	args := m.Called(ctx, channelID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.Register), args.Error(1)
}

func (m *MockRegisterRepository) FindAllForBranch(ctx context.Context, branchID uuid.UUID) ([]organization.Register, error) {
	args := m.Called(ctx, branchID)
	return args.Get(0).([]organization.Register), args.Error(1)
}

func (m *MockRegisterRepository) ExistsByNumber(ctx context.Context, branchID uuid.UUID, number string) (bool, error) {
	args := m.Called(ctx, branchID, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegisterRepository) Create(ctx context.Context, register *organization.Register) error {
	args := m.Called(ctx, register)
	return args.Error(0)
}

func (m *MockRegisterRepository) Save(ctx context.Context, register *organization.Register) error {
	args := m.Called(ctx, register)
	return args.Error(0)
}

func (m *MockRegisterRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSequenceRepository is a mock implementation of SequenceRepository
type MockSequenceRepository struct {
	mock.Mock
}

func (m *MockSequenceRepository) Next(ctx context.Context, registerID uuid.UUID, docType organization.DocumentType, max uint64) (organization.Allocation, error) {
	args := m.Called(ctx, registerID, docType, max)
	return args.Get(0).(organization.Allocation), args.Error(1)
}

func (m *MockSequenceRepository) Current(ctx context.Context, registerID uuid.UUID, docType organization.DocumentType) (uint64, error) {
	args := m.Called(ctx, registerID, docType)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockSequenceRepository) Table(ctx context.Context, registerID uuid.UUID) (organization.NumberingTable, error) {
	args := m.Called(ctx, registerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(organization.NumberingTable), args.Error(1)
}

func (m *MockSequenceRepository) Set(ctx context.Context, registerID uuid.UUID, values map[organization.DocumentType]uint64) (organization.NumberingTable, organization.NumberingTable, error) {
	args := m.Called(ctx, registerID, values)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(organization.NumberingTable), args.Get(1).(organization.NumberingTable), args.Error(2)
}

// MockGuard is a mock implementation of access.Guard
type MockGuard struct {
	mock.Mock
}

func (m *MockGuard) Authorize(ctx context.Context, userID, channelID uuid.UUID) (access.Decision, error) {
	args := m.Called(ctx, userID, channelID)
	return args.Get(0).(access.Decision), args.Error(1)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// recordingMetrics captures ledger metrics
type recordingMetrics struct {
	outcomes  []string
	overrides []int
}

func (m *recordingMetrics) RecordAllocation(_ context.Context, _ string, outcome string, _ time.Duration) {
	m.outcomes = append(m.outcomes, outcome)
}

func (m *recordingMetrics) RecordCounterOverride(_ context.Context, changed int) {
	m.overrides = append(m.overrides, changed)
}

var (
	memberDecision = access.Decision{Member: true, ChannelActive: true}
	adminDecision  = access.Decision{Member: true, IsAdmin: true, ChannelActive: true}
)

type fixture struct {
	channels   *MockChannelRepository
	activities *MockActivityRepository
	branches   *MockBranchRepository
	registers  *MockRegisterRepository
	sequences  *MockSequenceRepository
	guard      *MockGuard
	publisher  *recordingPublisher
	actor      access.Actor
}

func newFixture() *fixture {
	return &fixture{
		channels:   new(MockChannelRepository),
		activities: new(MockActivityRepository),
		branches:   new(MockBranchRepository),
		registers:  new(MockRegisterRepository),
		sequences:  new(MockSequenceRepository),
		guard:      new(MockGuard),
		publisher:  &recordingPublisher{},
		actor:      access.Actor{UserID: uuid.New(), ChannelID: uuid.New()},
	}
}

func (f *fixture) repos() Repositories {
	return Repositories{
		Channels:   f.channels,
		Activities: f.activities,
		Branches:   f.branches,
		Registers:  f.registers,
		Sequences:  f.sequences,
	}
}

func (f *fixture) allow(d access.Decision) {
	f.guard.On("Authorize", mock.Anything, f.actor.UserID, f.actor.ChannelID).Return(d, nil)
}

func (f *fixture) hierarchy() *HierarchyService {
	return NewHierarchyService(f.repos(), f.guard, f.publisher, nil)
}

func (f *fixture) activity() *organization.Activity {
	a, err := organization.NewActivity(f.actor.ChannelID, "620100", "Software")
	if err != nil {
		panic(err)
	}
	a.ClearDomainEvents()
	return a
}

func (f *fixture) branch(code string) *organization.Branch {
	b, err := organization.NewBranch(f.activity(), code, organization.BranchDetails{Name: "Central"})
	if err != nil {
		panic(err)
	}
	b.ClearDomainEvents()
	return b
}

func (f *fixture) register() *organization.Register {
	r, err := organization.NewRegister(f.branch("001"), "00001", "Caja 1", nil)
	if err != nil {
		panic(err)
	}
	r.ClearDomainEvents()
	return r
}
