package handlers

import (
	"errors"
	"strconv"

	"coopfin-backend/internal/core/services"
	"coopfin-backend/internal/pkg/pagination"
	"coopfin-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DueHandler handles due template endpoints
type DueHandler struct {
	dueService *services.DueService
}

// NewDueHandler creates a new due handler
func NewDueHandler(dueService *services.DueService) *DueHandler {
	return &DueHandler{dueService: dueService}
}

// TemplateRequest represents due/levy template request body
type TemplateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"due_date"`
}

// AssignRequest represents obligation assignment request body
type AssignRequest struct {
	MemberIDs []uint `json:"member_ids"`
}

// Create handles due creation
// @Summary Create due
// @Description Create a due template to assign across members
// @Tags Dues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TemplateRequest true "Due data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /dues [post]
func (h *DueHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.TemplateInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
	}

	due, err := h.dueService.Create(c.Context(), input, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTitleRequired):
			return response.BadRequest(c, "Title is required")
		case errors.Is(err, services.ErrAmountNotPositive):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, services.ErrInvalidDueDate):
			return response.BadRequest(c, "Invalid due date, use YYYY-MM-DD")
		default:
			return response.InternalServerError(c, "Failed to create due")
		}
	}

	return response.Created(c, "Due created successfully", fiber.Map{"due": due})
}

// List handles due listing
// @Summary List dues
// @Description List due templates with pagination
// @Tags Dues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /dues [get]
func (h *DueHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	dues, total, err := h.dueService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list dues")
	}

	return response.Success(c, "Dues retrieved successfully", pagination.NewResponse(dues, params, total))
}

// Get handles fetching one due
// @Summary Get due
// @Description Get a due template by ID
// @Tags Dues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Due ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /dues/{id} [get]
func (h *DueHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid due ID")
	}

	due, err := h.dueService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrDueNotFound) {
			return response.NotFound(c, "Due not found")
		}
		return response.InternalServerError(c, "Failed to get due")
	}

	return response.Success(c, "Due retrieved successfully", fiber.Map{"due": due})
}

// Update handles due updates
// @Summary Update due
// @Description Update a due template; existing assignments keep their amounts
// @Tags Dues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Due ID"
// @Param body body TemplateRequest true "Due data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /dues/{id} [put]
func (h *DueHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid due ID")
	}

	var req TemplateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.TemplateInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
	}

	due, err := h.dueService.Update(c.Context(), uint(id), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDueNotFound):
			return response.NotFound(c, "Due not found")
		case errors.Is(err, services.ErrInvalidDueDate):
			return response.BadRequest(c, "Invalid due date, use YYYY-MM-DD")
		default:
			return response.InternalServerError(c, "Failed to update due")
		}
	}

	return response.Success(c, "Due updated successfully", fiber.Map{"due": due})
}

// Delete handles due deletion
// @Summary Delete due
// @Description Soft-delete a due template; assigned member dues stay
// @Tags Dues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Due ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /dues/{id} [delete]
func (h *DueHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid due ID")
	}

	if err := h.dueService.Delete(c.Context(), uint(id)); err != nil {
		if errors.Is(err, services.ErrDueNotFound) {
			return response.NotFound(c, "Due not found")
		}
		return response.InternalServerError(c, "Failed to delete due")
	}

	return response.Success(c, "Due deleted successfully", nil)
}

// Assign handles due assignment
// @Summary Assign due
// @Description Assign a due to listed members, or all active members when the list is empty
// @Tags Dues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Due ID"
// @Param body body AssignRequest true "Target members"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /dues/{id}/assign [post]
func (h *DueHandler) Assign(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid due ID")
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.dueService.Assign(c.Context(), uint(id), &services.AssignInput{MemberIDs: req.MemberIDs})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDueNotFound):
			return response.NotFound(c, "Due not found")
		case errors.Is(err, services.ErrNoAssignTargets):
			return response.BadRequest(c, "No members to assign")
		default:
			return response.InternalServerError(c, "Failed to assign due")
		}
	}

	return response.Success(c, "Due assigned successfully", result)
}

// Members handles listing member dues under one template
// @Summary List due members
// @Description List the member dues created from one template
// @Tags Dues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Due ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /dues/{id}/members [get]
func (h *DueHandler) Members(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid due ID")
	}

	params := pagination.GetParams(c)

	memberDues, total, err := h.dueService.ListMembers(c.Context(), uint(id), params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, services.ErrDueNotFound) {
			return response.NotFound(c, "Due not found")
		}
		return response.InternalServerError(c, "Failed to list member dues")
	}

	return response.Success(c, "Member dues retrieved successfully", pagination.NewResponse(memberDues, params, total))
}

// MyDues handles listing the caller's dues
// @Summary List my dues
// @Description List the authenticated member's assigned dues with balances
// @Tags Dues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dues/members/my-dues [get]
func (h *DueHandler) MyDues(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	memberDues, err := h.dueService.ListMyDues(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list dues")
	}

	return response.Success(c, "Dues retrieved successfully", fiber.Map{"dues": memberDues})
}
