package handlers

import (
	"errors"
	"strconv"

	"coopfin-backend/internal/core/authz"
	"coopfin-backend/internal/core/services"
	"coopfin-backend/internal/pkg/pagination"
	"coopfin-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PledgeHandler handles pledge endpoints
type PledgeHandler struct {
	pledgeService *services.PledgeService
}

// NewPledgeHandler creates a new pledge handler
func NewPledgeHandler(pledgeService *services.PledgeService) *PledgeHandler {
	return &PledgeHandler{pledgeService: pledgeService}
}

// CreatePledgeRequest represents pledge creation request body
type CreatePledgeRequest struct {
	Title       string  `json:"title"`
	Amount      float64 `json:"amount"`
	FulfillDate string  `json:"fulfill_date"`
}

// Create handles pledge creation
// @Summary Create pledge
// @Description Declare a future contribution commitment
// @Tags Pledges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePledgeRequest true "Pledge data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /pledges [post]
func (h *PledgeHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreatePledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.CreatePledgeInput{
		Title:       req.Title,
		Amount:      req.Amount,
		FulfillDate: req.FulfillDate,
	}

	pledge, err := h.pledgeService.Create(c.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTitleRequired):
			return response.BadRequest(c, "Title is required")
		case errors.Is(err, services.ErrAmountNotPositive):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, services.ErrInvalidDueDate):
			return response.BadRequest(c, "Invalid fulfill date, use YYYY-MM-DD")
		default:
			return response.InternalServerError(c, "Failed to create pledge")
		}
	}

	return response.Created(c, "Pledge created successfully", fiber.Map{"pledge": pledge})
}

// List handles admin pledge listing
// @Summary List pledges
// @Description List pledges for review, optionally by status
// @Tags Pledges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Response
// @Router /pledges [get]
func (h *PledgeHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	pledges, total, err := h.pledgeService.List(c.Context(), c.Query("status"), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list pledges")
	}

	return response.Success(c, "Pledges retrieved successfully", pagination.NewResponse(pledges, params, total))
}

// MyPledges handles listing the caller's pledges
// @Summary List my pledges
// @Description List the authenticated member's pledges
// @Tags Pledges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /pledges/my-pledges [get]
func (h *PledgeHandler) MyPledges(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	pledges, err := h.pledgeService.ListByUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list pledges")
	}

	return response.Success(c, "Pledges retrieved successfully", fiber.Map{"pledges": pledges})
}

// Get handles fetching one pledge
// @Summary Get pledge
// @Description Get a pledge by ID; members can only see their own
// @Tags Pledges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pledge ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /pledges/{id} [get]
func (h *PledgeHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid pledge ID")
	}

	pledge, err := h.pledgeService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrPledgeNotFound) {
			return response.NotFound(c, "Pledge not found")
		}
		return response.InternalServerError(c, "Failed to get pledge")
	}

	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)
	if pledge.UserID != userID && !authz.Allows(role, authz.CapPledgesReview) {
		return response.Forbidden(c, "Record does not belong to you")
	}

	return response.Success(c, "Pledge retrieved successfully", fiber.Map{"pledge": pledge})
}

// Reject handles pledge rejection
// @Summary Reject pledge
// @Description Decline a pending pledge with a reason
// @Tags Pledges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Pledge ID"
// @Param body body RejectRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /pledges/{id}/reject [put]
func (h *PledgeHandler) Reject(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid pledge ID")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Reason == "" {
		return response.BadRequest(c, "Rejection reason is required")
	}

	pledge, err := h.pledgeService.Reject(c.Context(), uint(id), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPledgeNotFound):
			return response.NotFound(c, "Pledge not found")
		case errors.Is(err, services.ErrPledgeNotPending):
			return response.Conflict(c, "Pledge is already reviewed")
		default:
			return response.InternalServerError(c, "Failed to reject pledge")
		}
	}

	return response.Success(c, "Pledge rejected", fiber.Map{"pledge": pledge})
}
