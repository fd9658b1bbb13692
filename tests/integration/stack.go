package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	accessapp "github.com/facturacion/backend/internal/application/access"
	catalogapp "github.com/facturacion/backend/internal/application/catalog"
	organizationapp "github.com/facturacion/backend/internal/application/organization"
	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/catalog"
	"github.com/facturacion/backend/internal/infrastructure/cache"
	"github.com/facturacion/backend/internal/infrastructure/event"
	"github.com/facturacion/backend/internal/infrastructure/persistence"
	"github.com/facturacion/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Stack wires the application services to PostgreSQL the way the server does
type Stack struct {
	Hierarchy   *organizationapp.HierarchyService
	Ledger      *organizationapp.LedgerService
	Resolver    *catalogapp.ResolverService
	Memberships *accessapp.MembershipService
	Reference   catalog.ReferenceRepository
	Histograms  catalog.HistogramCache
	Events      *testutil.RecordingEventHandler
}

// NewStack builds services over db. A nil histograms cache uses an in-memory one.
func NewStack(t *testing.T, db *gorm.DB, histograms catalog.HistogramCache) *Stack {
	t.Helper()
	log := zap.NewNop()

	decisions := cache.NewDecisionCache(time.Minute)
	t.Cleanup(decisions.Stop)

	if histograms == nil {
		histograms = cache.NewInMemoryHistogramCache()
	}

	memberships := persistence.NewGormMembershipRepository(db)
	reference := persistence.NewGormReferenceRepository(db)
	guard := accessapp.NewMembershipGuard(memberships, decisions, log)

	recorder := testutil.NewRecordingEventHandler()
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(guard)
	bus.Subscribe(recorder)
	require.NoError(t, bus.Start(context.Background()))

	repos := organizationapp.Repositories{
		Channels:   persistence.NewGormChannelRepository(db),
		Activities: persistence.NewGormActivityRepository(db),
		Branches:   persistence.NewGormBranchRepository(db),
		Registers:  persistence.NewGormRegisterRepository(db),
		Sequences:  persistence.NewGormSequenceRepository(db),
	}

	return &Stack{
		Hierarchy:   organizationapp.NewHierarchyService(repos, guard, bus, log),
		Ledger:      organizationapp.NewLedgerService(repos, guard, bus, log),
		Resolver:    catalogapp.NewResolverService(reference, persistence.NewGormOverrideRepository(db), histograms, guard, log, catalogapp.WithEventPublisher(bus)),
		Memberships: accessapp.NewMembershipService(memberships, guard, bus, log),
		Reference:   reference,
		Histograms:  histograms,
		Events:      recorder,
	}
}

// Tenant is a channel with one activity, branch and register
type Tenant struct {
	Admin      access.Actor
	ActivityID uuid.UUID
	BranchID   uuid.UUID
	RegisterID uuid.UUID
}

// NewTenant onboards a channel owned by a fresh user. seq keeps codes and
// legal identifiers unique within a database.
func (s *Stack) NewTenant(t *testing.T, seq int) Tenant {
	t.Helper()
	ctx := context.Background()
	userID := uuid.New()

	channel, err := s.Hierarchy.CreateChannel(ctx, userID, organizationapp.CreateChannelRequest{
		Code:             fmt.Sprintf("CH%04d", seq),
		LegalIdentType:   "02",
		LegalIdentNumber: fmt.Sprintf("31%08d", seq),
		Name:             fmt.Sprintf("Channel %d", seq),
		Address:          organizationapp.AddressInput{Province: "1", Canton: "01", District: "01", Detail: "Centro"},
	})
	require.NoError(t, err)

	admin := access.Actor{UserID: userID, ChannelID: channel.ID}
	activity, err := s.Hierarchy.CreateActivity(ctx, admin, organizationapp.CreateActivityRequest{Code: "620100", Name: "Software"})
	require.NoError(t, err)

	branch, err := s.Hierarchy.CreateBranch(ctx, admin, organizationapp.CreateBranchRequest{
		ActivityID: activity.ID,
		Code:       "001",
		Name:       "Casa matriz",
	})
	require.NoError(t, err)

	register, err := s.Hierarchy.CreateRegister(ctx, admin, branch.ID, organizationapp.CreateRegisterRequest{
		Number: "00001",
		Name:   "Caja 1",
	})
	require.NoError(t, err)

	return Tenant{
		Admin:      admin,
		ActivityID: activity.ID,
		BranchID:   branch.ID,
		RegisterID: register.ID,
	}
}
