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

// LoanHandler handles loan endpoints
type LoanHandler struct {
	loanService *services.LoanService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(loanService *services.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// ApplyLoanRequest represents loan application request body
type ApplyLoanRequest struct {
	Amount  float64 `json:"amount"`
	Purpose string  `json:"purpose"`
}

// ApproveLoanRequest represents loan approval request body
type ApproveLoanRequest struct {
	InterestRate float64 `json:"interest_rate"`
}

// Apply handles loan applications
// @Summary Apply for loan
// @Description File a loan application for review
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ApplyLoanRequest true "Loan application"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Apply(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ApplyLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Apply(c.Context(), userID, &services.ApplyLoanInput{
		Amount:  req.Amount,
		Purpose: req.Purpose,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAmountNotPositive):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, services.ErrLoanOutstanding):
			return response.Conflict(c, "You already have an outstanding loan")
		default:
			return response.InternalServerError(c, "Failed to file loan application")
		}
	}

	return response.Created(c, "Loan application filed successfully", fiber.Map{"loan": loan})
}

// List handles admin loan listing
// @Summary List loans
// @Description List loan applications, optionally by status
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	loans, total, err := h.loanService.List(c.Context(), c.Query("status"), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// MyLoans handles listing the caller's loans
// @Summary List my loans
// @Description List the authenticated member's loan applications
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /loans/my-loans [get]
func (h *LoanHandler) MyLoans(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loans, err := h.loanService.ListByUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", fiber.Map{"loans": loans})
}

// Get handles fetching one loan
// @Summary Get loan
// @Description Get a loan by ID; members see only their own, admins need loan privileges
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrLoanNotFound) {
			return response.NotFound(c, "Loan not found")
		}
		return response.InternalServerError(c, "Failed to get loan")
	}

	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)
	if loan.UserID != userID && !authz.Allows(role, authz.CapLoansManage) {
		return response.Forbidden(c, "Record does not belong to you")
	}

	return response.Success(c, "Loan retrieved successfully", fiber.Map{"loan": loan})
}

// Approve handles loan approval
// @Summary Approve loan
// @Description Grant a pending loan application
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body ApproveLoanRequest true "Approval data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/approve [put]
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req ApproveLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	loan, err := h.loanService.Approve(c.Context(), uint(id), userID, &services.ApproveLoanInput{
		InterestRate: req.InterestRate,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrLoanNotPending):
			return response.Conflict(c, "Loan is already reviewed")
		default:
			return response.InternalServerError(c, "Failed to approve loan")
		}
	}

	return response.Success(c, "Loan approved successfully", fiber.Map{"loan": loan})
}

// Reject handles loan rejection
// @Summary Reject loan
// @Description Decline a pending loan application with a reason
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Param body body RejectRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/reject [put]
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Reason == "" {
		return response.BadRequest(c, "Rejection reason is required")
	}

	loan, err := h.loanService.Reject(c.Context(), uint(id), userID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrLoanNotPending):
			return response.Conflict(c, "Loan is already reviewed")
		default:
			return response.InternalServerError(c, "Failed to reject loan")
		}
	}

	return response.Success(c, "Loan rejected", fiber.Map{"loan": loan})
}

// MarkPaid handles settling an approved loan
// @Summary Mark loan paid
// @Description Settle an approved loan repaid outside the payment flow
// @Tags Loans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Loan ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /loans/{id}/mark-paid [put]
func (h *LoanHandler) MarkPaid(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid loan ID")
	}

	loan, err := h.loanService.MarkPaid(c.Context(), uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, services.ErrLoanNotApproved):
			return response.Conflict(c, "Loan is not approved")
		default:
			return response.InternalServerError(c, "Failed to mark loan paid")
		}
	}

	return response.Success(c, "Loan marked as paid", fiber.Map{"loan": loan})
}
