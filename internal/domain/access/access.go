package access

import (
	"context"

	"github.com/google/uuid"
)

// Role is a user's role within a channel
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// IsValid returns true for known roles
func (r Role) IsValid() bool {
	return r == RoleMember || r == RoleAdmin
}

// Actor is the authenticated caller acting within a channel
type Actor struct {
	UserID    uuid.UUID
	ChannelID uuid.UUID
}

// Decision is the outcome of an authorization check
type Decision struct {
	Member  bool
	IsAdmin bool
	// ChannelActive is false when the channel has been deactivated
	ChannelActive bool
}

// Guard decides whether a user may act within a channel.
// Mutations require Member; privileged mutations additionally require IsAdmin.
type Guard interface {
	Authorize(ctx context.Context, userID, channelID uuid.UUID) (Decision, error)
}

// Membership links a user to a channel
type Membership struct {
	UserID    uuid.UUID
	ChannelID uuid.UUID
	Role      Role
	// ChannelActive is false when the channel has been deactivated
	ChannelActive bool
}

// MembershipRepository reads channel memberships
type MembershipRepository interface {
	// Find returns the membership of the user in the channel, or ErrNotFound
	Find(ctx context.Context, userID, channelID uuid.UUID) (*Membership, error)

	// Grant creates or updates a membership
	Grant(ctx context.Context, userID, channelID uuid.UUID, role Role) error
}
