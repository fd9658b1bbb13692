package integration

import (
	"context"
	"errors"
	"os"
	"sort"
	"strconv"
	"sync"
	"testing"

	organizationapp "github.com/facturacion/backend/internal/application/organization"
	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

func TestLedger_ConcurrentAllocationIsGapFree(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	stack := NewStack(t, tdb.DB, nil)
	tenant := stack.NewTenant(t, 1)
	ctx := context.Background()

	const workers = 16
	const perWorker = 25

	var (
		mu     sync.Mutex
		values []uint64
		wg     sync.WaitGroup
	)
	errs := make(chan error, workers*perWorker)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				resp, err := stack.Ledger.AllocateNext(ctx, tenant.Admin, tenant.RegisterID, "01")
				if err != nil {
					errs <- err
					continue
				}
				v, err := strconv.ParseUint(resp.Value, 10, 64)
				if err != nil {
					errs <- err
					continue
				}
				mu.Lock()
				values = append(values, v)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Len(t, values, workers*perWorker)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	for i, v := range values {
		assert.Equal(t, uint64(i+1), v, "values must be 1..n without gaps or duplicates")
	}

	peek, err := stack.Ledger.Peek(ctx, tenant.Admin, tenant.RegisterID, "01")
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(workers*perWorker), peek.Value)

	// Other document types are untouched
	other, err := stack.Ledger.Peek(ctx, tenant.Admin, tenant.RegisterID, "04")
	require.NoError(t, err)
	assert.Equal(t, "0", other.Value)

	assert.Equal(t, workers*perWorker, stack.Events.Count(organization.EventTypeSequenceAllocated))
}

func TestLedger_RegistersAreIndependent(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	stack := NewStack(t, tdb.DB, nil)
	ctx := context.Background()

	tenant := stack.NewTenant(t, 2)
	second, err := stack.Hierarchy.CreateRegister(ctx, tenant.Admin, tenant.BranchID, organizationapp.CreateRegisterRequest{
		Number:    "00002",
		Numbering: map[string]string{"01": "100"},
	})
	require.NoError(t, err)

	first, err := stack.Ledger.AllocateNext(ctx, tenant.Admin, tenant.RegisterID, "01")
	require.NoError(t, err)
	assert.Equal(t, "1", first.Value)

	next, err := stack.Ledger.AllocateNext(ctx, tenant.Admin, second.ID, "01")
	require.NoError(t, err)
	assert.Equal(t, "101", next.Value)
}

func TestLedger_TenantIsolation(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	stack := NewStack(t, tdb.DB, nil)
	ctx := context.Background()

	owner := stack.NewTenant(t, 3)
	intruder := stack.NewTenant(t, 4)

	_, err := stack.Ledger.AllocateNext(ctx, intruder.Admin, owner.RegisterID, "01")
	assert.ErrorIs(t, err, shared.ErrRegisterNotFound)

	// A user acting in a channel they do not belong to is rejected
	stranger := access.Actor{UserID: uuid.New(), ChannelID: owner.Admin.ChannelID}
	_, err = stack.Ledger.AllocateNext(ctx, stranger, owner.RegisterID, "01")
	assert.ErrorIs(t, err, shared.ErrForbidden)

	peek, err := stack.Ledger.Peek(ctx, owner.Admin, owner.RegisterID, "01")
	require.NoError(t, err)
	assert.Equal(t, "0", peek.Value)
}

func TestLedger_SetCountersAndOverflow(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	stack := NewStack(t, tdb.DB, nil)
	ctx := context.Background()
	tenant := stack.NewTenant(t, 5)

	max := strconv.FormatUint(organization.MaxSequenceValue, 10)
	numbering, err := stack.Ledger.SetCounters(ctx, tenant.Admin, tenant.RegisterID, map[string]string{"01": max, "04": "41"})
	require.NoError(t, err)
	assert.Equal(t, max, numbering.Numbering["01"])
	assert.Equal(t, "41", numbering.Numbering["04"])
	assert.Equal(t, "0", numbering.Numbering["08"])

	_, err = stack.Ledger.AllocateNext(ctx, tenant.Admin, tenant.RegisterID, "01")
	require.Error(t, err)
	var derr *shared.DomainError
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, shared.KindOverflow, derr.Kind)

	peek, err := stack.Ledger.Peek(ctx, tenant.Admin, tenant.RegisterID, "01")
	require.NoError(t, err)
	assert.Equal(t, max, peek.Value, "a failed allocation leaves the counter unchanged")

	next, err := stack.Ledger.AllocateNext(ctx, tenant.Admin, tenant.RegisterID, "04")
	require.NoError(t, err)
	assert.Equal(t, "42", next.Value)

	_, err = stack.Ledger.AllocateNext(ctx, tenant.Admin, tenant.RegisterID, "11")
	assert.ErrorIs(t, err, shared.ErrUnknownDocumentType)
}
