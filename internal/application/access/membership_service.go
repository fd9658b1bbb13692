package access

import (
	"context"

	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GrantMembershipRequest sets a user's role in the acting channel
type GrantMembershipRequest struct {
	Role string `json:"role" binding:"required,oneof=member admin"`
}

// MembershipResponse represents a membership in API responses
type MembershipResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	ChannelID uuid.UUID `json:"channel_id"`
	Role      string    `json:"role"`
}

// MembershipService manages who may act within a channel
type MembershipService struct {
	memberships access.MembershipRepository
	guard       access.Guard
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(memberships access.MembershipRepository, guard access.Guard, publisher shared.EventPublisher, logger *zap.Logger) *MembershipService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{
		memberships: memberships,
		guard:       guard,
		publisher:   publisher,
		logger:      logger,
	}
}

// Grant gives a user a role in the actor's channel. Admins only. An admin
// cannot change their own role, so a channel always keeps one admin.
func (s *MembershipService) Grant(ctx context.Context, actor access.Actor, userID uuid.UUID, req GrantMembershipRequest) (*MembershipResponse, error) {
	role := access.Role(req.Role)
	if !role.IsValid() {
		return nil, shared.NewDomainError("INVALID_ROLE", "Role must be member or admin")
	}
	if userID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("User ID is required")
	}
	if _, err := access.Check(ctx, s.guard, actor, access.RequireAdmin); err != nil {
		return nil, err
	}
	if userID == actor.UserID {
		return nil, shared.ErrInvalidState.WithMessage("Administrators cannot change their own role")
	}

	if err := s.memberships.Grant(ctx, userID, actor.ChannelID, role); err != nil {
		return nil, err
	}
	s.logger.Info("Membership granted",
		zap.String("channel_id", actor.ChannelID.String()),
		zap.String("user_id", userID.String()),
		zap.String("role", string(role)),
		zap.String("granted_by", actor.UserID.String()),
	)
	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, access.NewMembershipGrantedEvent(actor.ChannelID, userID, actor.UserID, role))
	}

	return &MembershipResponse{UserID: userID, ChannelID: actor.ChannelID, Role: string(role)}, nil
}

// Me returns the caller's own membership in the acting channel
func (s *MembershipService) Me(ctx context.Context, actor access.Actor) (*MembershipResponse, error) {
	if _, err := access.Check(ctx, s.guard, actor, access.RequireRead); err != nil {
		return nil, err
	}
	m, err := s.memberships.Find(ctx, actor.UserID, actor.ChannelID)
	if err != nil {
		return nil, err
	}
	return &MembershipResponse{UserID: m.UserID, ChannelID: m.ChannelID, Role: string(m.Role)}, nil
}
