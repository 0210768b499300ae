package handlers

import (
	"errors"
	"strconv"

	"coopfin-backend/internal/core/authz"
	"coopfin-backend/internal/core/services"
	"coopfin-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
	authService    *services.AuthService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService, authService *services.AuthService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		authService:    authService,
	}
}

// RecordPaymentRequest represents record payment request body
type RecordPaymentRequest struct {
	MemberID      uint    `json:"member_id"`
	Amount        float64 `json:"amount"`
	PaymentType   string  `json:"payment_type"`
	RelatedID     *uint   `json:"related_id"`
	Description   string  `json:"description"`
	PaymentMethod string  `json:"payment_method"`
	PaymentDate   string  `json:"payment_date"`
}

// RejectRequest represents a rejection request body
type RejectRequest struct {
	Reason string `json:"reason"`
}

// Record handles payment recording
// @Summary Record a payment
// @Description Record a pending payment against an obligation; no balance changes until approval
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body RecordPaymentRequest true "Payment data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments [post]
func (h *PaymentHandler) Record(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if req.Amount <= 0 {
		return response.BadRequest(c, "Amount must be greater than zero")
	}
	if req.PaymentType == "" {
		return response.BadRequest(c, "Payment type is required")
	}

	actor, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	input := &services.RecordPaymentInput{
		MemberID:      req.MemberID,
		Amount:        req.Amount,
		PaymentType:   req.PaymentType,
		RelatedID:     req.RelatedID,
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
		PaymentDate:   req.PaymentDate,
	}

	payment, err := h.paymentService.Record(c.Context(), input, actor)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAmountNotPositive):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, services.ErrInvalidPaymentType):
			return response.BadRequest(c, "Invalid payment type")
		case errors.Is(err, services.ErrRelatedItemRequired):
			return response.BadRequest(c, "Related item is required for this payment type")
		case errors.Is(err, services.ErrRelatedItemNotFound):
			return response.NotFound(c, "Related item not found")
		case errors.Is(err, services.ErrNotRecordOwner):
			return response.Forbidden(c, "Record does not belong to you")
		default:
			return response.InternalServerError(c, "Failed to record payment")
		}
	}

	return response.Created(c, "Payment recorded successfully", fiber.Map{
		"payment": payment.ToResponse(),
	})
}

// List handles admin payment listing
// @Summary List payments
// @Description List payments with optional status, type and member filters
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Param status query string false "Filter by status"
// @Param payment_type query string false "Filter by payment type"
// @Param member_id query int false "Filter by member"
// @Success 200 {object} response.Response
// @Router /payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	input := &services.ListInput{
		Page:        c.QueryInt("page", 1),
		Limit:       c.QueryInt("limit", 20),
		Status:      c.Query("status"),
		PaymentType: c.Query("payment_type"),
	}

	if memberID := c.QueryInt("member_id", 0); memberID > 0 {
		id := uint(memberID)
		input.UserID = &id
	}

	// Level 1 admins never see loan repayments: asking for them outright is
	// forbidden, and unfiltered listings exclude them
	role, _ := c.Locals("role").(string)
	if !authz.Allows(role, authz.CapLoansManage) {
		if input.PaymentType == "loan_repayment" {
			return response.Forbidden(c, "You don't have permission to access loan repayments")
		}
		input.ExcludeType = "loan_repayment"
	}

	result, err := h.paymentService.List(c.Context(), input)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", result)
}

// MyPayments handles member payment history
// @Summary List my payments
// @Description List the authenticated member's payments
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /payments/my-payments [get]
func (h *PaymentHandler) MyPayments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	payments, err := h.paymentService.ListByUser(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	responses := make([]interface{}, len(payments))
	for i, p := range payments {
		responses[i] = p.ToResponse()
	}

	return response.Success(c, "Payments retrieved successfully", fiber.Map{
		"payments": responses,
	})
}

// Get handles fetching one payment
// @Summary Get payment
// @Description Get a payment by ID; members can only see their own
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments/{id} [get]
func (h *PaymentHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
	}

	payment, err := h.paymentService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return response.NotFound(c, "Payment not found")
		}
		return response.InternalServerError(c, "Failed to get payment")
	}

	// Ownership check for non-admin callers
	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)
	if payment.UserID != userID && !authz.Allows(role, authz.CapPaymentsReview) {
		return response.Forbidden(c, "Record does not belong to you")
	}
	if payment.PaymentType == "loan_repayment" && payment.UserID != userID &&
		!authz.Allows(role, authz.CapLoansManage) {
		return response.Forbidden(c, "You don't have permission to access loan repayments")
	}

	return response.Success(c, "Payment retrieved successfully", fiber.Map{
		"payment": payment.ToResponse(),
	})
}

// Approve handles payment approval
// @Summary Approve payment
// @Description Approve a pending payment and apply its effect to the related obligation
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /payments/{id}/approve [put]
func (h *PaymentHandler) Approve(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
	}

	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	approver, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	payment, err := h.paymentService.Approve(c.Context(), uint(id), approver)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, services.ErrPaymentTerminal):
			return response.Conflict(c, "Payment is already reviewed")
		case errors.Is(err, services.ErrInvalidAmount):
			return response.BadRequest(c, "Amount exceeds outstanding balance")
		case errors.Is(err, services.ErrSelfApproval):
			return response.Forbidden(c, "You cannot approve your own payment")
		case errors.Is(err, services.ErrApproverNotAllowed):
			return response.Forbidden(c, "You don't have permission to approve this payment")
		case errors.Is(err, services.ErrRelatedItemNotFound):
			return response.NotFound(c, "Related item not found")
		case errors.Is(err, services.ErrItemNotPending):
			return response.Conflict(c, "Related item is not awaiting settlement")
		case errors.Is(err, services.ErrLoanNotOutstanding):
			return response.Conflict(c, "Loan has no outstanding balance")
		default:
			return response.InternalServerError(c, "Failed to approve payment")
		}
	}

	return response.Success(c, "Payment approved successfully", fiber.Map{
		"payment": payment.ToResponse(),
	})
}

// Reject handles payment rejection
// @Summary Reject payment
// @Description Reject a pending payment with a reason; balances stay untouched
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Payment ID"
// @Param body body RejectRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /payments/{id}/reject [put]
func (h *PaymentHandler) Reject(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid payment ID")
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

	approver, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return response.Unauthorized(c, "Unauthorized")
	}

	payment, err := h.paymentService.Reject(c.Context(), uint(id), approver, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, services.ErrPaymentTerminal):
			return response.Conflict(c, "Payment is already reviewed")
		case errors.Is(err, services.ErrSelfApproval):
			return response.Forbidden(c, "You cannot review your own payment")
		case errors.Is(err, services.ErrApproverNotAllowed):
			return response.Forbidden(c, "You don't have permission to reject this payment")
		default:
			return response.InternalServerError(c, "Failed to reject payment")
		}
	}

	return response.Success(c, "Payment rejected", fiber.Map{
		"payment": payment.ToResponse(),
	})
}
