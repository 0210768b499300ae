package handlers

import (
	"errors"
	"strconv"

	"coopfin-backend/internal/core/services"
	"coopfin-backend/internal/pkg/pagination"
	"coopfin-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// LevyHandler handles levy template endpoints
type LevyHandler struct {
	levyService *services.LevyService
}

// NewLevyHandler creates a new levy handler
func NewLevyHandler(levyService *services.LevyService) *LevyHandler {
	return &LevyHandler{levyService: levyService}
}

// Create handles levy creation
// @Summary Create levy
// @Description Create a levy template to assign across members
// @Tags Levies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TemplateRequest true "Levy data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /levies [post]
func (h *LevyHandler) Create(c *fiber.Ctx) error {
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

	levy, err := h.levyService.Create(c.Context(), input, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTitleRequired):
			return response.BadRequest(c, "Title is required")
		case errors.Is(err, services.ErrAmountNotPositive):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, services.ErrInvalidDueDate):
			return response.BadRequest(c, "Invalid due date, use YYYY-MM-DD")
		default:
			return response.InternalServerError(c, "Failed to create levy")
		}
	}

	return response.Created(c, "Levy created successfully", fiber.Map{"levy": levy})
}

// List handles levy listing
// @Summary List levies
// @Description List levy templates with pagination
// @Tags Levies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /levies [get]
func (h *LevyHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	levies, total, err := h.levyService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list levies")
	}

	return response.Success(c, "Levies retrieved successfully", pagination.NewResponse(levies, params, total))
}

// Get handles fetching one levy
// @Summary Get levy
// @Description Get a levy template by ID
// @Tags Levies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Levy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /levies/{id} [get]
func (h *LevyHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid levy ID")
	}

	levy, err := h.levyService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrLevyNotFound) {
			return response.NotFound(c, "Levy not found")
		}
		return response.InternalServerError(c, "Failed to get levy")
	}

	return response.Success(c, "Levy retrieved successfully", fiber.Map{"levy": levy})
}

// Update handles levy updates
// @Summary Update levy
// @Description Update a levy template; existing assignments keep their amounts
// @Tags Levies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Levy ID"
// @Param body body TemplateRequest true "Levy data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /levies/{id} [put]
func (h *LevyHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid levy ID")
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

	levy, err := h.levyService.Update(c.Context(), uint(id), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLevyNotFound):
			return response.NotFound(c, "Levy not found")
		case errors.Is(err, services.ErrInvalidDueDate):
			return response.BadRequest(c, "Invalid due date, use YYYY-MM-DD")
		default:
			return response.InternalServerError(c, "Failed to update levy")
		}
	}

	return response.Success(c, "Levy updated successfully", fiber.Map{"levy": levy})
}

// Delete handles levy deletion
// @Summary Delete levy
// @Description Soft-delete a levy template; assigned member levies stay
// @Tags Levies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Levy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /levies/{id} [delete]
func (h *LevyHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid levy ID")
	}

	if err := h.levyService.Delete(c.Context(), uint(id)); err != nil {
		if errors.Is(err, services.ErrLevyNotFound) {
			return response.NotFound(c, "Levy not found")
		}
		return response.InternalServerError(c, "Failed to delete levy")
	}

	return response.Success(c, "Levy deleted successfully", nil)
}

// Assign handles levy assignment
// @Summary Assign levy
// @Description Assign a levy to listed members, or all active members when the list is empty
// @Tags Levies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Levy ID"
// @Param body body AssignRequest true "Target members"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /levies/{id}/assign [post]
func (h *LevyHandler) Assign(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid levy ID")
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.levyService.Assign(c.Context(), uint(id), &services.AssignInput{MemberIDs: req.MemberIDs})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLevyNotFound):
			return response.NotFound(c, "Levy not found")
		case errors.Is(err, services.ErrNoAssignTargets):
			return response.BadRequest(c, "No members to assign")
		default:
			return response.InternalServerError(c, "Failed to assign levy")
		}
	}

	return response.Success(c, "Levy assigned successfully", result)
}

// Members handles listing member levies under one template
// @Summary List levy members
// @Description List the member levies created from one template
// @Tags Levies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Levy ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /levies/{id}/members [get]
func (h *LevyHandler) Members(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid levy ID")
	}

	params := pagination.GetParams(c)

	memberLevies, total, err := h.levyService.ListMembers(c.Context(), uint(id), params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, services.ErrLevyNotFound) {
			return response.NotFound(c, "Levy not found")
		}
		return response.InternalServerError(c, "Failed to list member levies")
	}

	return response.Success(c, "Member levies retrieved successfully", pagination.NewResponse(memberLevies, params, total))
}

// MyLevies handles listing the caller's levies
// @Summary List my levies
// @Description List the authenticated member's assigned levies with balances
// @Tags Levies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /levies/members/my-levies [get]
func (h *LevyHandler) MyLevies(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	memberLevies, err := h.levyService.ListMyLevies(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list levies")
	}

	return response.Success(c, "Levies retrieved successfully", fiber.Map{"levies": memberLevies})
}
