package handler

import (
	"context"

	"github.com/facturacion/backend/internal/application/organization"
	"github.com/facturacion/backend/internal/domain/access"
	"github.com/facturacion/backend/internal/domain/shared"
	"github.com/facturacion/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BranchService is the part of the hierarchy service that manages
// branches and their registers
type BranchService interface {
	CreateBranch(ctx context.Context, actor access.Actor, req organization.CreateBranchRequest) (*organization.BranchResponse, error)
	GetBranch(ctx context.Context, actor access.Actor, id uuid.UUID) (*organization.BranchResponse, error)
	ListBranches(ctx context.Context, actor access.Actor, filter organization.BranchListFilter) ([]organization.BranchResponse, int64, error)
	UpdateBranch(ctx context.Context, actor access.Actor, id uuid.UUID, req organization.UpdateBranchRequest) (*organization.BranchResponse, error)
	RenameBranchCode(ctx context.Context, actor access.Actor, id uuid.UUID, code string) (*organization.BranchResponse, error)
	DeleteBranch(ctx context.Context, actor access.Actor, id uuid.UUID, force bool) error
	CreateRegister(ctx context.Context, actor access.Actor, branchID uuid.UUID, req organization.CreateRegisterRequest) (*organization.RegisterResponse, error)
	GetRegister(ctx context.Context, actor access.Actor, id uuid.UUID) (*organization.RegisterResponse, error)
	ListRegisters(ctx context.Context, actor access.Actor, branchID uuid.UUID) ([]organization.RegisterResponse, error)
	RenameRegister(ctx context.Context, actor access.Actor, id uuid.UUID, req organization.RenameRegisterRequest) (*organization.RegisterResponse, error)
	DeleteRegister(ctx context.Context, actor access.Actor, id uuid.UUID) error
}

// BranchHandler handles branch and register endpoints
type BranchHandler struct {
	BaseHandler
	service BranchService
}

// NewBranchHandler creates a new BranchHandler
func NewBranchHandler(service BranchService) *BranchHandler {
	return &BranchHandler{service: service}
}

// Create creates a branch under one of the channel's activities
func (h *BranchHandler) Create(c *gin.Context) {
	var req organization.CreateBranchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	branch, err := h.service.CreateBranch(c.Request.Context(), actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, branch)
}

// GetByID returns one branch of the channel
func (h *BranchHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	branch, err := h.service.GetBranch(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}

// List lists branches with search, sorting and pagination
func (h *BranchHandler) List(c *gin.Context) {
	var filter organization.BranchListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	branches, total, err := h.service.ListBranches(c.Request.Context(), actor(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := filter.Page, filter.PageSize
	if page == 0 {
		page = shared.DefaultFilter().Page
	}
	if pageSize == 0 {
		pageSize = shared.DefaultFilter().PageSize
	}
	h.SuccessWithMeta(c, branches, total, page, pageSize)
}

// Update replaces the descriptive fields of a branch
func (h *BranchHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req organization.UpdateBranchRequest
	if !h.bindJSON(c, &req) {
		return
	}

	branch, err := h.service.UpdateBranch(c.Request.Context(), actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}

// UpdateCode changes the 3 digit code of a branch
func (h *BranchHandler) UpdateCode(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req organization.RenameBranchCodeRequest
	if !h.bindJSON(c, &req) {
		return
	}

	branch, err := h.service.RenameBranchCode(c.Request.Context(), actor(c), id, req.Code)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, branch)
}

// Delete removes a branch. Without ?force=true it is refused while the
// branch still has registers.
func (h *BranchHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var q dto.ForceQuery
	if !h.bindQuery(c, &q) {
		return
	}

	if err := h.service.DeleteBranch(c.Request.Context(), actor(c), id, q.Force); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateRegister creates a register under the branch in the path
func (h *BranchHandler) CreateRegister(c *gin.Context) {
	branchID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req organization.CreateRegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	register, err := h.service.CreateRegister(c.Request.Context(), actor(c), branchID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, register)
}

// ListRegisters lists the registers of a branch
func (h *BranchHandler) ListRegisters(c *gin.Context) {
	branchID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	registers, err := h.service.ListRegisters(c.Request.Context(), actor(c), branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, registers)
}

// GetRegister returns one register with its numbering table
func (h *BranchHandler) GetRegister(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	register, err := h.service.GetRegister(c.Request.Context(), actor(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, register)
}

// RenameRegister changes the display name of a register
func (h *BranchHandler) RenameRegister(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req organization.RenameRegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	register, err := h.service.RenameRegister(c.Request.Context(), actor(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, register)
}

// DeleteRegister removes a register together with its counters
func (h *BranchHandler) DeleteRegister(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteRegister(c.Request.Context(), actor(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
