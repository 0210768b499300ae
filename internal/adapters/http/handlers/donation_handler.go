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

// DonationHandler handles donation endpoints
type DonationHandler struct {
	donationService *services.DonationService
}

// NewDonationHandler creates a new donation handler
func NewDonationHandler(donationService *services.DonationService) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

// CreateDonationRequest represents donation creation request body
type CreateDonationRequest struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
}

// Create handles donation recording
// @Summary Record donation
// @Description Record a donation, fully paid at creation and pending admin approval
// @Tags Donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateDonationRequest true "Donation data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /donations [post]
func (h *DonationHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreateDonationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.CreateDonationInput{
		Title:  req.Title,
		Amount: req.Amount,
	}

	donation, err := h.donationService.Create(c.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTitleRequired):
			return response.BadRequest(c, "Title is required")
		case errors.Is(err, services.ErrAmountNotPositive):
			return response.BadRequest(c, "Amount must be greater than zero")
		default:
			return response.InternalServerError(c, "Failed to record donation")
		}
	}

	return response.Created(c, "Donation recorded successfully", fiber.Map{"donation": donation})
}

// List handles admin donation listing
// @Summary List donations
// @Description List donations for review, optionally by status
// @Tags Donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Response
// @Router /donations [get]
func (h *DonationHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	donations, total, err := h.donationService.List(c.Context(), c.Query("status"), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list donations")
	}

	return response.Success(c, "Donations retrieved successfully", pagination.NewResponse(donations, params, total))
}

// MyDonations handles listing the caller's donations
// @Summary List my donations
// @Description List the authenticated member's donations
// @Tags Donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /donations/my-donations [get]
func (h *DonationHandler) MyDonations(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	donations, err := h.donationService.ListByUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list donations")
	}

	return response.Success(c, "Donations retrieved successfully", fiber.Map{"donations": donations})
}

// Get handles fetching one donation
// @Summary Get donation
// @Description Get a donation by ID; members can only see their own
// @Tags Donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Donation ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /donations/{id} [get]
func (h *DonationHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid donation ID")
	}

	donation, err := h.donationService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrDonationNotFound) {
			return response.NotFound(c, "Donation not found")
		}
		return response.InternalServerError(c, "Failed to get donation")
	}

	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)
	if donation.UserID != userID && !authz.Allows(role, authz.CapDonationsReview) {
		return response.Forbidden(c, "Record does not belong to you")
	}

	return response.Success(c, "Donation retrieved successfully", fiber.Map{"donation": donation})
}

// Reject handles donation rejection
// @Summary Reject donation
// @Description Decline a pending donation declaration with a reason
// @Tags Donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Donation ID"
// @Param body body RejectRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /donations/{id}/reject [put]
func (h *DonationHandler) Reject(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid donation ID")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Reason == "" {
		return response.BadRequest(c, "Rejection reason is required")
	}

	donation, err := h.donationService.Reject(c.Context(), uint(id), req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDonationNotFound):
			return response.NotFound(c, "Donation not found")
		case errors.Is(err, services.ErrDonationNotPending):
			return response.Conflict(c, "Donation is already reviewed")
		default:
			return response.InternalServerError(c, "Failed to reject donation")
		}
	}

	return response.Success(c, "Donation rejected", fiber.Map{"donation": donation})
}
