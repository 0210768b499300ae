package handlers

import (
	"errors"
	"strconv"

	"coopfin-backend/internal/core/services"
	"coopfin-backend/internal/pkg/pagination"
	"coopfin-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// TransactionHandler handles organizational transaction endpoints
type TransactionHandler struct {
	transactionService *services.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactionService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRequest represents create/update transaction request body
type TransactionRequest struct {
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
	Date        string  `json:"date"`
}

// Create handles transaction creation
// @Summary Create transaction
// @Description Record an organizational income or expense entry
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TransactionRequest true "Transaction data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	tx, err := h.transactionService.Create(c.Context(), &services.CreateTransactionInput{
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	}, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTxType):
			return response.BadRequest(c, "Type must be income or expense")
		case errors.Is(err, services.ErrAmountNotPositive):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, services.ErrInvalidDateRange):
			return response.BadRequest(c, "Invalid transaction date, use YYYY-MM-DD")
		default:
			return response.InternalServerError(c, "Failed to create transaction")
		}
	}

	return response.Created(c, "Transaction created successfully", fiber.Map{"transaction": tx})
}

// List handles transaction listing
// @Summary List transactions
// @Description List organizational transactions filtered by type and date range
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type query string false "Transaction type (income, expense)"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	txs, total, err := h.transactionService.List(c.Context(), &services.ListTransactionsInput{
		Type:   c.Query("type"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Offset: params.Offset,
		Limit:  params.Limit,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidTxType):
			return response.BadRequest(c, "Type must be income or expense")
		case errors.Is(err, services.ErrInvalidDateRange):
			return response.BadRequest(c, "Invalid date range, use YYYY-MM-DD")
		default:
			return response.InternalServerError(c, "Failed to list transactions")
		}
	}

	return response.Success(c, "Transactions retrieved successfully", pagination.NewResponse(txs, params, total))
}

// Get handles fetching one transaction
// @Summary Get transaction
// @Description Get an organizational transaction by ID
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	tx, err := h.transactionService.GetByID(c.Context(), uint(id))
	if err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			return response.NotFound(c, "Transaction not found")
		}
		return response.InternalServerError(c, "Failed to get transaction")
	}

	return response.Success(c, "Transaction retrieved successfully", fiber.Map{"transaction": tx})
}

// Update handles transaction updates
// @Summary Update transaction
// @Description Update an organizational transaction
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Param body body TransactionRequest true "Transaction data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [put]
func (h *TransactionHandler) Update(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	var req TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	tx, err := h.transactionService.Update(c.Context(), uint(id), &services.CreateTransactionInput{
		Type:        req.Type,
		Category:    req.Category,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTransactionNotFound):
			return response.NotFound(c, "Transaction not found")
		case errors.Is(err, services.ErrInvalidTxType):
			return response.BadRequest(c, "Type must be income or expense")
		case errors.Is(err, services.ErrAmountNotPositive):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, services.ErrInvalidDateRange):
			return response.BadRequest(c, "Invalid transaction date, use YYYY-MM-DD")
		default:
			return response.InternalServerError(c, "Failed to update transaction")
		}
	}

	return response.Success(c, "Transaction updated successfully", fiber.Map{"transaction": tx})
}

// Delete handles transaction deletion
// @Summary Delete transaction
// @Description Delete an organizational transaction
// @Tags Transactions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid transaction ID")
	}

	if err := h.transactionService.Delete(c.Context(), uint(id)); err != nil {
		if errors.Is(err, services.ErrTransactionNotFound) {
			return response.NotFound(c, "Transaction not found")
		}
		return response.InternalServerError(c, "Failed to delete transaction")
	}

	return response.Success(c, "Transaction deleted successfully", nil)
}
