package integration

import (
	"context"
	"testing"

	accessapp "github.com/facturacion/backend/internal/application/access"
	organizationapp "github.com/facturacion/backend/internal/application/organization"
	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHierarchy_UniqueCodes(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	stack := NewStack(t, tdb.DB, nil)
	ctx := context.Background()
	tenant := stack.NewTenant(t, 10)

	_, err := stack.Hierarchy.CreateBranch(ctx, tenant.Admin, organizationapp.CreateBranchRequest{
		ActivityID: tenant.ActivityID,
		Code:       "001",
	})
	assert.ErrorIs(t, err, shared.ErrDuplicateCode)

	_, err = stack.Hierarchy.CreateRegister(ctx, tenant.Admin, tenant.BranchID, organizationapp.CreateRegisterRequest{Number: "00001"})
	assert.ErrorIs(t, err, shared.ErrDuplicateNumber)

	// Same codes are fine in another channel
	other := stack.NewTenant(t, 11)
	assert.NotEqual(t, tenant.BranchID, other.BranchID)

	_, err = stack.Hierarchy.CreateChannel(ctx, uuid.New(), organizationapp.CreateChannelRequest{
		Code:             "CH0010",
		LegalIdentType:   "02",
		LegalIdentNumber: "3199999999",
		Name:             "Copycat",
	})
	assert.ErrorIs(t, err, shared.ErrDuplicateCode)
}

func TestHierarchy_DeleteBranchRequiresForce(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	stack := NewStack(t, tdb.DB, nil)
	ctx := context.Background()
	tenant := stack.NewTenant(t, 12)

	_, err := stack.Ledger.AllocateNext(ctx, tenant.Admin, tenant.RegisterID, "01")
	require.NoError(t, err)

	err = stack.Hierarchy.DeleteBranch(ctx, tenant.Admin, tenant.BranchID, false)
	assert.ErrorIs(t, err, shared.ErrHasDependents)

	_, err = stack.Hierarchy.GetRegister(ctx, tenant.Admin, tenant.RegisterID)
	require.NoError(t, err)

	require.NoError(t, stack.Hierarchy.DeleteBranch(ctx, tenant.Admin, tenant.BranchID, true))

	_, err = stack.Hierarchy.GetBranch(ctx, tenant.Admin, tenant.BranchID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = stack.Ledger.Peek(ctx, tenant.Admin, tenant.RegisterID, "01")
	assert.ErrorIs(t, err, shared.ErrRegisterNotFound)

	var sequences int64
	require.NoError(t, tdb.DB.Table("register_sequences").Where("register_id = ?", tenant.RegisterID).Count(&sequences).Error)
	assert.Zero(t, sequences)
}

func TestHierarchy_MembershipRoles(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	stack := NewStack(t, tdb.DB, nil)
	ctx := context.Background()
	tenant := stack.NewTenant(t, 13)

	cashier := access.Actor{UserID: uuid.New(), ChannelID: tenant.Admin.ChannelID}
	_, err := stack.Ledger.AllocateNext(ctx, cashier, tenant.RegisterID, "01")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	granted, err := stack.Memberships.Grant(ctx, tenant.Admin, cashier.UserID, accessapp.GrantMembershipRequest{Role: "member"})
	require.NoError(t, err)
	assert.Equal(t, "member", granted.Role)

	// The guard drops its cached denial when the grant event arrives
	allocation, err := stack.Ledger.AllocateNext(ctx, cashier, tenant.RegisterID, "01")
	require.NoError(t, err)
	assert.Equal(t, "1", allocation.Value)

	_, err = stack.Ledger.SetCounters(ctx, cashier, tenant.RegisterID, map[string]string{"01": "0"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	_, err = stack.Memberships.Grant(ctx, cashier, uuid.New(), accessapp.GrantMembershipRequest{Role: "admin"})
	assert.ErrorIs(t, err, shared.ErrForbidden)

	me, err := stack.Memberships.Me(ctx, cashier)
	require.NoError(t, err)
	assert.Equal(t, tenant.Admin.ChannelID, me.ChannelID)
}
