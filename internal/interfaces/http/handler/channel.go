package handler

import (
	"context"

	"github.com/facturacion/backend/internal/application/organization"
	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChannelService is the part of the hierarchy service that manages the
// acting channel and its activities
type ChannelService interface {
	CreateChannel(ctx context.Context, userID uuid.UUID, req organization.CreateChannelRequest) (*organization.ChannelResponse, error)
	GetChannel(ctx context.Context, actor access.Actor) (*organization.ChannelResponse, error)
	UpdateChannel(ctx context.Context, actor access.Actor, req organization.UpdateChannelRequest) (*organization.ChannelResponse, error)
	ActivateChannel(ctx context.Context, actor access.Actor) (*organization.ChannelResponse, error)
	DeactivateChannel(ctx context.Context, actor access.Actor) (*organization.ChannelResponse, error)
	DeleteChannel(ctx context.Context, actor access.Actor, force bool) error
	CreateActivity(ctx context.Context, actor access.Actor, req organization.CreateActivityRequest) (*organization.ActivityResponse, error)
	ListActivities(ctx context.Context, actor access.Actor) ([]organization.ActivityResponse, error)
}

// ChannelHandler handles channel and activity endpoints
type ChannelHandler struct {
	BaseHandler
	service ChannelService
}

// NewChannelHandler creates a new ChannelHandler
func NewChannelHandler(service ChannelService) *ChannelHandler {
	return &ChannelHandler{service: service}
}

// Create onboards a channel. The caller becomes its first admin.
func (h *ChannelHandler) Create(c *gin.Context) {
	a, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req organization.CreateChannelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	channel, err := h.service.CreateChannel(c.Request.Context(), a.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, channel)
}

// GetCurrent returns the channel of the token
func (h *ChannelHandler) GetCurrent(c *gin.Context) {
	channel, err := h.service.GetChannel(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channel)
}

// UpdateCurrent replaces the contact details of the channel
func (h *ChannelHandler) UpdateCurrent(c *gin.Context) {
	var req organization.UpdateChannelRequest
	if !h.bindJSON(c, &req) {
		return
	}

	channel, err := h.service.UpdateChannel(c.Request.Context(), actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channel)
}

// Activate reactivates the channel
func (h *ChannelHandler) Activate(c *gin.Context) {
	channel, err := h.service.ActivateChannel(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channel)
}

// Deactivate suspends the channel
func (h *ChannelHandler) Deactivate(c *gin.Context) {
	channel, err := h.service.DeactivateChannel(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, channel)
}

// DeleteCurrent removes the channel. Without ?force=true it is refused
// while activities or branches remain.
func (h *ChannelHandler) DeleteCurrent(c *gin.Context) {
	var q dto.ForceQuery
	if !h.bindQuery(c, &q) {
		return
	}
	if err := h.service.DeleteChannel(c.Request.Context(), actor(c), q.Force); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateActivity registers an economic activity
func (h *ChannelHandler) CreateActivity(c *gin.Context) {
	var req organization.CreateActivityRequest
	if !h.bindJSON(c, &req) {
		return
	}

	activity, err := h.service.CreateActivity(c.Request.Context(), actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, activity)
}

// ListActivities lists the activities of the channel
func (h *ChannelHandler) ListActivities(c *gin.Context) {
	activities, err := h.service.ListActivities(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, activities)
}
