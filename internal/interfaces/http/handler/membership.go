package handler

import (
	"context"

	accessapp "github.com/facturacion/backend/internal/application/access"
	"github.com/facturacion/backend/internal/domain/access"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MembershipService manages channel memberships
type MembershipService interface {
	Grant(ctx context.Context, actor access.Actor, userID uuid.UUID, req accessapp.GrantMembershipRequest) (*accessapp.MembershipResponse, error)
	Me(ctx context.Context, actor access.Actor) (*accessapp.MembershipResponse, error)
}

// MembershipHandler handles membership endpoints
type MembershipHandler struct {
	BaseHandler
	service MembershipService
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(service MembershipService) *MembershipHandler {
	return &MembershipHandler{service: service}
}

// Grant sets the role of a user in the channel
func (h *MembershipHandler) Grant(c *gin.Context) {
	userID, ok := h.uuidParam(c, "userId")
	if !ok {
		return
	}
	var req accessapp.GrantMembershipRequest
	if !h.bindJSON(c, &req) {
		return
	}

	membership, err := h.service.Grant(c.Request.Context(), actor(c), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, membership)
}

// Me returns the caller's membership in the channel
func (h *MembershipHandler) Me(c *gin.Context) {
	membership, err := h.service.Me(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, membership)
}
