package access

import (
	"context"

	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Requirement is the level of access an operation needs
type Requirement int

const (
	// RequireRead needs membership. Deactivated channels stay readable.
	RequireRead Requirement = iota
	// RequireMember needs membership of an active channel
	RequireMember
	// RequireAdmin needs the admin role in an active channel
	RequireAdmin
	// RequireAdminAnyStatus needs the admin role; the channel may be
	// deactivated. Only re-activation uses it.
	RequireAdminAnyStatus
)

// Satisfies reports whether the decision grants the requirement
func (d Decision) Satisfies(req Requirement) bool {
	if !d.Member {
		return false
	}
	switch req {
	case RequireRead:
		return true
	case RequireMember:
		return d.ChannelActive
	case RequireAdmin:
		return d.IsAdmin && d.ChannelActive
	case RequireAdminAnyStatus:
		return d.IsAdmin
	}
	return false
}

// Check authorizes the actor through the guard. Denials are FORBIDDEN
// authorization errors; guard failures are returned as is.
func Check(ctx context.Context, guard Guard, actor Actor, req Requirement) (Decision, error) {
	if actor.UserID == uuid.Nil || actor.ChannelID == uuid.Nil {
		return Decision{}, shared.ErrForbidden.WithMessage("No channel selected for this request")
	}
	d, err := guard.Authorize(ctx, actor.UserID, actor.ChannelID)
	if err != nil {
		return Decision{}, err
	}
	if d.Satisfies(req) {
		return d, nil
	}
	switch {
	case !d.Member:
		return d, shared.ErrForbidden.WithMessage("User is not a member of this channel")
	case !d.ChannelActive && req != RequireRead && req != RequireAdminAnyStatus:
		return d, shared.ErrForbidden.WithMessage("Channel is deactivated")
	default:
		return d, shared.ErrForbidden.WithMessage("Administrator role required")
	}
}
