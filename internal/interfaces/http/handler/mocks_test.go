package handler

import (
	"context"

	accessapp "github.com/facturacion/backend/internal/application/access"
	"github.com/facturacion/backend/internal/application/catalog"
	"github.com/facturacion/backend/internal/application/organization"
	"github.com/facturacion/backend/internal/domain/access"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockChannelService is a mock implementation of ChannelService
type MockChannelService struct {
	mock.Mock
}

func (m *MockChannelService) CreateChannel(ctx context.Context, userID uuid.UUID, req organization.CreateChannelRequest) (*organization.ChannelResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.ChannelResponse), args.Error(1)
}

func (m *MockChannelService) GetChannel(ctx context.Context, actor access.Actor) (*organization.ChannelResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.ChannelResponse), args.Error(1)
}

func (m *MockChannelService) UpdateChannel(ctx context.Context, actor access.Actor, req organization.UpdateChannelRequest) (*organization.ChannelResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.ChannelResponse), args.Error(1)
}

func (m *MockChannelService) ActivateChannel(ctx context.Context, actor access.Actor) (*organization.ChannelResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.ChannelResponse), args.Error(1)
}

func (m *MockChannelService) DeactivateChannel(ctx context.Context, actor access.Actor) (*organization.ChannelResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.ChannelResponse), args.Error(1)
}

func (m *MockChannelService) DeleteChannel(ctx context.Context, actor access.Actor, force bool) error {
	return m.Called(ctx, actor, force).Error(0)
}

func (m *MockChannelService) CreateActivity(ctx context.Context, actor access.Actor, req organization.CreateActivityRequest) (*organization.ActivityResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.ActivityResponse), args.Error(1)
}

func (m *MockChannelService) ListActivities(ctx context.Context, actor access.Actor) ([]organization.ActivityResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]organization.ActivityResponse), args.Error(1)
}

// MockBranchService is a mock implementation of BranchService
type MockBranchService struct {
	mock.Mock
}

func (m *MockBranchService) CreateBranch(ctx context.Context, actor access.Actor, req organization.CreateBranchRequest) (*organization.BranchResponse, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.BranchResponse), args.Error(1)
}

func (m *MockBranchService) GetBranch(ctx context.Context, actor access.Actor, id uuid.UUID) (*organization.BranchResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.BranchResponse), args.Error(1)
}

func (m *MockBranchService) ListBranches(ctx context.Context, actor access.Actor, filter organization.BranchListFilter) ([]organization.BranchResponse, int64, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]organization.BranchResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockBranchService) UpdateBranch(ctx context.Context, actor access.Actor, id uuid.UUID, req organization.UpdateBranchRequest) (*organization.BranchResponse, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.BranchResponse), args.Error(1)
}

func (m *MockBranchService) RenameBranchCode(ctx context.Context, actor access.Actor, id uuid.UUID, code string) (*organization.BranchResponse, error) {
	args := m.Called(ctx, actor, id, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.BranchResponse), args.Error(1)
}

func (m *MockBranchService) DeleteBranch(ctx context.Context, actor access.Actor, id uuid.UUID, force bool) error {
	return m.Called(ctx, actor, id, force).Error(0)
}

func (m *MockBranchService) CreateRegister(ctx context.Context, actor access.Actor, branchID uuid.UUID, req organization.CreateRegisterRequest) (*organization.RegisterResponse, error) {
	args := m.Called(ctx, actor, branchID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.RegisterResponse), args.Error(1)
}

func (m *MockBranchService) GetRegister(ctx context.Context, actor access.Actor, id uuid.UUID) (*organization.RegisterResponse, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.RegisterResponse), args.Error(1)
}

func (m *MockBranchService) ListRegisters(ctx context.Context, actor access.Actor, branchID uuid.UUID) ([]organization.RegisterResponse, error) {
	args := m.Called(ctx, actor, branchID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]organization.RegisterResponse), args.Error(1)
}

func (m *MockBranchService) RenameRegister(ctx context.Context, actor access.Actor, id uuid.UUID, req organization.RenameRegisterRequest) (*organization.RegisterResponse, error) {
	args := m.Called(ctx, actor, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.RegisterResponse), args.Error(1)
}

func (m *MockBranchService) DeleteRegister(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockLedgerService is a mock implementation of LedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) AllocateNext(ctx context.Context, actor access.Actor, registerID uuid.UUID, documentType string) (*organization.AllocationResponse, error) {
	args := m.Called(ctx, actor, registerID, documentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.AllocationResponse), args.Error(1)
}

func (m *MockLedgerService) Peek(ctx context.Context, actor access.Actor, registerID uuid.UUID, documentType string) (*organization.CounterResponse, error) {
	args := m.Called(ctx, actor, registerID, documentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.CounterResponse), args.Error(1)
}

func (m *MockLedgerService) Numbering(ctx context.Context, actor access.Actor, registerID uuid.UUID) (*organization.NumberingResponse, error) {
	args := m.Called(ctx, actor, registerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.NumberingResponse), args.Error(1)
}

func (m *MockLedgerService) SetCounters(ctx context.Context, actor access.Actor, registerID uuid.UUID, partial map[string]string) (*organization.NumberingResponse, error) {
	args := m.Called(ctx, actor, registerID, partial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*organization.NumberingResponse), args.Error(1)
}

// MockCatalogService is a mock implementation of CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Lookup(ctx context.Context, actor access.Actor, code string) (*catalog.EntryResponse, error) {
	args := m.Called(ctx, actor, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.EntryResponse), args.Error(1)
}

func (m *MockCatalogService) ListOptions(ctx context.Context, actor access.Actor, field string) (*catalog.OptionsResponse, error) {
	args := m.Called(ctx, actor, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.OptionsResponse), args.Error(1)
}

func (m *MockCatalogService) ListDocumentKinds(ctx context.Context, actor access.Actor) (*catalog.KindOptionsResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.KindOptionsResponse), args.Error(1)
}

func (m *MockCatalogService) RefreshReference(ctx context.Context, actor access.Actor) (*catalog.DatasetResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.DatasetResponse), args.Error(1)
}

func (m *MockCatalogService) UpsertOverride(ctx context.Context, actor access.Actor, code string, req catalog.UpsertOverrideRequest) (*catalog.OverrideResponse, error) {
	args := m.Called(ctx, actor, code, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.OverrideResponse), args.Error(1)
}

func (m *MockCatalogService) GetOverride(ctx context.Context, actor access.Actor, code string) (*catalog.OverrideResponse, error) {
	args := m.Called(ctx, actor, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.OverrideResponse), args.Error(1)
}

func (m *MockCatalogService) ListOverrides(ctx context.Context, actor access.Actor) ([]catalog.OverrideResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.OverrideResponse), args.Error(1)
}

// MockMembershipService is a mock implementation of MembershipService
type MockMembershipService struct {
	mock.Mock
}

func (m *MockMembershipService) Grant(ctx context.Context, actor access.Actor, userID uuid.UUID, req accessapp.GrantMembershipRequest) (*accessapp.MembershipResponse, error) {
	args := m.Called(ctx, actor, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accessapp.MembershipResponse), args.Error(1)
}

func (m *MockMembershipService) Me(ctx context.Context, actor access.Actor) (*accessapp.MembershipResponse, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accessapp.MembershipResponse), args.Error(1)
}
