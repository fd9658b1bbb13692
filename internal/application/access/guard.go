package access

import (
	"context"
	"errors"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/organization"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DecisionCache stores recent authorization decisions
type DecisionCache interface {
	Get(userID, channelID uuid.UUID) (access.Decision, bool)
	Set(userID, channelID uuid.UUID, d access.Decision)
	ForgetChannel(channelID uuid.UUID)
}

// MembershipGuard authorizes users from their channel memberships.
// It also handles channel lifecycle events so cached decisions never
// outlive a status change or a deletion.
type MembershipGuard struct {
	memberships access.MembershipRepository
	cache       DecisionCache
	logger      *zap.Logger
}

var (
	_ access.Guard        = (*MembershipGuard)(nil)
	_ shared.EventHandler = (*MembershipGuard)(nil)
)

// NewMembershipGuard creates a new MembershipGuard. cache may be nil.
func NewMembershipGuard(memberships access.MembershipRepository, cache DecisionCache, logger *zap.Logger) *MembershipGuard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipGuard{
		memberships: memberships,
		cache:       cache,
		logger:      logger,
	}
}

// Authorize returns the user's standing in the channel. A missing
// membership is a negative decision, not an error.
func (g *MembershipGuard) Authorize(ctx context.Context, userID, channelID uuid.UUID) (access.Decision, error) {
	if g.cache != nil {
		if d, ok := g.cache.Get(userID, channelID); ok {
			return d, nil
		}
	}

	m, err := g.memberships.Find(ctx, userID, channelID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		g.logger.Warn("Membership lookup failed",
			zap.String("user_id", userID.String()),
			zap.String("channel_id", channelID.String()),
			zap.Error(err),
		)
		return access.Decision{}, err
	}

	var d access.Decision
	if m != nil {
		d = access.Decision{
			Member:        true,
			IsAdmin:       m.Role == access.RoleAdmin,
			ChannelActive: m.ChannelActive,
		}
	}
	if g.cache != nil {
		g.cache.Set(userID, channelID, d)
	}
	return d, nil
}

// Forget drops the cached decisions of a channel
func (g *MembershipGuard) Forget(channelID uuid.UUID) {
	if g.cache != nil {
		g.cache.ForgetChannel(channelID)
	}
}

// EventTypes returns the events that change authorization outcomes
func (g *MembershipGuard) EventTypes() []string {
	return []string{
		organization.EventTypeChannelStatusChanged,
		organization.EventTypeEntityDeleted,
		access.EventTypeMembershipGranted,
	}
}

// Handle invalidates cached decisions of the event's channel
func (g *MembershipGuard) Handle(_ context.Context, event shared.DomainEvent) error {
	if event.EventType() == organization.EventTypeEntityDeleted && event.AggregateType() != organization.AggregateTypeChannel {
		return nil
	}
	g.Forget(event.ChannelID())
	return nil
}
