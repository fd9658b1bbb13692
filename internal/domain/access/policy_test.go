package access

import (
	"context"
	"errors"
	"testing"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGuard struct {
	decision Decision
	err      error
	calls    int
}

func (g *stubGuard) Authorize(context.Context, uuid.UUID, uuid.UUID) (Decision, error) {
	g.calls++
	return g.decision, g.err
}

func TestDecision_Satisfies(t *testing.T) {
	member := Decision{Member: true, ChannelActive: true}
	admin := Decision{Member: true, IsAdmin: true, ChannelActive: true}
	inactiveAdmin := Decision{Member: true, IsAdmin: true}
	inactiveMember := Decision{Member: true}

	tests := []struct {
		name     string
		decision Decision
		req      Requirement
		want     bool
	}{
		{"non member cannot read", Decision{}, RequireRead, false},
		{"member reads", member, RequireRead, true},
		{"member mutates", member, RequireMember, true},
		{"member is not admin", member, RequireAdmin, false},
		{"admin administers", admin, RequireAdmin, true},
		{"inactive member reads", inactiveMember, RequireRead, true},
		{"inactive member cannot mutate", inactiveMember, RequireMember, false},
		{"inactive admin cannot administer", inactiveAdmin, RequireAdmin, false},
		{"inactive admin can reactivate", inactiveAdmin, RequireAdminAnyStatus, true},
		{"inactive member cannot reactivate", inactiveMember, RequireAdminAnyStatus, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.decision.Satisfies(tt.req))
		})
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	actor := Actor{UserID: uuid.New(), ChannelID: uuid.New()}

	t.Run("grants", func(t *testing.T) {
		g := &stubGuard{decision: Decision{Member: true, IsAdmin: true, ChannelActive: true}}
		d, err := Check(ctx, g, actor, RequireAdmin)
		require.NoError(t, err)
		assert.True(t, d.IsAdmin)
	})

	t.Run("missing channel is forbidden without asking the guard", func(t *testing.T) {
		g := &stubGuard{}
		_, err := Check(ctx, g, Actor{UserID: actor.UserID}, RequireRead)
		assert.ErrorIs(t, err, shared.ErrForbidden)
		assert.Zero(t, g.calls)
	})

	t.Run("non member", func(t *testing.T) {
		_, err := Check(ctx, &stubGuard{}, actor, RequireRead)
		require.ErrorIs(t, err, shared.ErrForbidden)
		assert.Contains(t, err.Error(), "not a member")
	})

	t.Run("deactivated channel", func(t *testing.T) {
		g := &stubGuard{decision: Decision{Member: true, IsAdmin: true}}
		_, err := Check(ctx, g, actor, RequireMember)
		require.ErrorIs(t, err, shared.ErrForbidden)
		assert.Contains(t, err.Error(), "deactivated")
	})

	t.Run("admin required", func(t *testing.T) {
		g := &stubGuard{decision: Decision{Member: true, ChannelActive: true}}
		_, err := Check(ctx, g, actor, RequireAdmin)
		require.ErrorIs(t, err, shared.ErrForbidden)
		assert.Equal(t, shared.KindAuthorization, shared.KindOf(err))
	})

	t.Run("guard failure passes through", func(t *testing.T) {
		boom := shared.NewStorageError("find membership", errors.New("conn reset"))
		_, err := Check(ctx, &stubGuard{err: boom}, actor, RequireRead)
		assert.True(t, shared.IsKind(err, shared.KindStorage))
	})
}
