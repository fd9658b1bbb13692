package access

import (
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	AggregateTypeMembership = "ChannelMembership"

	EventTypeMembershipGranted = "MembershipGranted"
)

// MembershipGrantedEvent is published when a user's role in a channel is set
type MembershipGrantedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	GrantedBy uuid.UUID `json:"granted_by"`
}

// NewMembershipGrantedEvent creates a new MembershipGrantedEvent
func NewMembershipGrantedEvent(channelID, userID, grantedBy uuid.UUID, role Role) *MembershipGrantedEvent {
	return &MembershipGrantedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMembershipGranted, AggregateTypeMembership, userID, channelID),
		UserID:          userID,
		Role:            string(role),
		GrantedBy:       grantedBy,
	}
}
