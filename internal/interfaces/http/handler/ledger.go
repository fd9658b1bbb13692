package handler

import (
	"context"

	"github.com/facturacion/backend/internal/application/organization"
	"github.com/facturacion/backend/internal/domain/access"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerService hands out and inspects register sequence numbers
type LedgerService interface {
	AllocateNext(ctx context.Context, actor access.Actor, registerID uuid.UUID, documentType string) (*organization.AllocationResponse, error)
	Peek(ctx context.Context, actor access.Actor, registerID uuid.UUID, documentType string) (*organization.CounterResponse, error)
	Numbering(ctx context.Context, actor access.Actor, registerID uuid.UUID) (*organization.NumberingResponse, error)
	SetCounters(ctx context.Context, actor access.Actor, registerID uuid.UUID, partial map[string]string) (*organization.NumberingResponse, error)
}

// LedgerHandler handles the register sequence endpoints
type LedgerHandler struct {
	BaseHandler
	service LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(service LedgerService) *LedgerHandler {
	return &LedgerHandler{service: service}
}

// Next allocates the next number of a document type. Every successful call
// consumes a number; the request is never retried on the server.
func (h *LedgerHandler) Next(c *gin.Context) {
	registerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	allocation, err := h.service.AllocateNext(c.Request.Context(), actor(c), registerID, c.Param("type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allocation)
}

// Peek returns the last issued number of a document type
func (h *LedgerHandler) Peek(c *gin.Context) {
	registerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	counter, err := h.service.Peek(c.Request.Context(), actor(c), registerID, c.Param("type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counter)
}

// Numbering returns every counter of the register
func (h *LedgerHandler) Numbering(c *gin.Context) {
	registerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	numbering, err := h.service.Numbering(c.Request.Context(), actor(c), registerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, numbering)
}

// SetCounters overwrites the counters named in the body and leaves the
// rest untouched
func (h *LedgerHandler) SetCounters(c *gin.Context) {
	registerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req organization.SetCountersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	numbering, err := h.service.SetCounters(c.Request.Context(), actor(c), registerID, req.Numbering)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, numbering)
}
