package handler

import (
	"context"

	"github.com/facturacion/backend/internal/application/catalog"
	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CatalogService resolves classification codes against the reference
// dataset and the channel's overrides
type CatalogService interface {
	Lookup(ctx context.Context, actor access.Actor, code string) (*catalog.EntryResponse, error)
	ListOptions(ctx context.Context, actor access.Actor, field string) (*catalog.OptionsResponse, error)
	ListDocumentKinds(ctx context.Context, actor access.Actor) (*catalog.KindOptionsResponse, error)
	RefreshReference(ctx context.Context, actor access.Actor) (*catalog.DatasetResponse, error)
	UpsertOverride(ctx context.Context, actor access.Actor, code string, req catalog.UpsertOverrideRequest) (*catalog.OverrideResponse, error)
	GetOverride(ctx context.Context, actor access.Actor, code string) (*catalog.OverrideResponse, error)
	ListOverrides(ctx context.Context, actor access.Actor) ([]catalog.OverrideResponse, error)
}

// CatalogHandler handles classification lookups and overrides
type CatalogHandler struct {
	BaseHandler
	service CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(service CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Lookup resolves one classification code
func (h *CatalogHandler) Lookup(c *gin.Context) {
	entry, err := h.service.Lookup(c.Request.Context(), actor(c), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// ListOptions returns the distinct values of an option field
func (h *CatalogHandler) ListOptions(c *gin.Context) {
	options, err := h.service.ListOptions(c.Request.Context(), actor(c), c.Param("field"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, options)
}

// ListKinds returns the document kinds visible to the channel
func (h *CatalogHandler) ListKinds(c *gin.Context) {
	kinds, err := h.service.ListDocumentKinds(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, kinds)
}

// RefreshReference reloads the active reference dataset and drops the
// cached option histograms of the previous one
func (h *CatalogHandler) RefreshReference(c *gin.Context) {
	dataset, err := h.service.RefreshReference(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dataset)
}

// UpsertOverride creates or replaces the channel's override of a code.
// Unknown body fields are rejected.
func (h *CatalogHandler) UpsertOverride(c *gin.Context) {
	var req catalog.UpsertOverrideRequest
	if err := middleware.BindStrictJSON(c, &req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	override, err := h.service.UpsertOverride(c.Request.Context(), actor(c), c.Param("code"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, override)
}

// GetOverride returns the channel's override of a code
func (h *CatalogHandler) GetOverride(c *gin.Context) {
	override, err := h.service.GetOverride(c.Request.Context(), actor(c), c.Param("code"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, override)
}

// ListOverrides lists every override of the channel
func (h *CatalogHandler) ListOverrides(c *gin.Context) {
	overrides, err := h.service.ListOverrides(c.Request.Context(), actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, overrides)
}
