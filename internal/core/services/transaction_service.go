package services

import (
	"context"
	"errors"
	"time"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Transaction service errors
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidTxType       = errors.New("transaction type must be income or expense")
	ErrInvalidDateRange    = errors.New("invalid date range, use YYYY-MM-DD")
)

// TransactionService records organizational income and expenses outside
// the member obligation ledger
type TransactionService struct {
	txRepo *repositories.TransactionRepository
}

// NewTransactionService creates a new transaction service
func NewTransactionService(txRepo *repositories.TransactionRepository) *TransactionService {
	return &TransactionService{txRepo: txRepo}
}

// CreateTransactionInput represents transaction input
type CreateTransactionInput struct {
	Type        string  `json:"type" validate:"required"`
	Category    string  `json:"category,omitempty"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date,omitempty"`
}

// Create records an income or expense entry
func (s *TransactionService) Create(ctx context.Context, input *CreateTransactionInput, recordedBy uint) (*models.Transaction, error) {
	if input.Type != models.TxTypeIncome && input.Type != models.TxTypeExpense {
		return nil, ErrInvalidTxType
	}
	if input.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}

	date := time.Now()
	if input.Date != "" {
		parsed, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return nil, ErrInvalidDateRange
		}
		date = parsed
	}

	tx := &models.Transaction{
		Type:        input.Type,
		Category:    input.Category,
		Amount:      input.Amount,
		Description: input.Description,
		Date:        date,
		RecordedBy:  recordedBy,
	}

	if err := s.txRepo.Create(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// GetByID gets a transaction
func (s *TransactionService) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return tx, nil
}

// ListTransactionsInput represents transaction list filters
type ListTransactionsInput struct {
	Type   string
	From   string
	To     string
	Offset int
	Limit  int
}

// List lists transactions with optional type and date range filters
func (s *TransactionService) List(ctx context.Context, input *ListTransactionsInput) ([]*models.Transaction, int64, error) {
	if input.Type != "" && input.Type != models.TxTypeIncome && input.Type != models.TxTypeExpense {
		return nil, 0, ErrInvalidTxType
	}

	from, to, err := parseDateRange(input.From, input.To)
	if err != nil {
		return nil, 0, err
	}

	if input.Limit < 1 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	return s.txRepo.List(ctx, input.Type, from, to, input.Offset, input.Limit)
}

// Update updates a transaction entry
func (s *TransactionService) Update(ctx context.Context, id uint, input *CreateTransactionInput) (*models.Transaction, error) {
	tx, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Type != "" {
		if input.Type != models.TxTypeIncome && input.Type != models.TxTypeExpense {
			return nil, ErrInvalidTxType
		}
		tx.Type = input.Type
	}
	if input.Category != "" {
		tx.Category = input.Category
	}
	if input.Amount > 0 {
		tx.Amount = input.Amount
	}
	if input.Description != "" {
		tx.Description = input.Description
	}
	if input.Date != "" {
		parsed, err := time.Parse("2006-01-02", input.Date)
		if err != nil {
			return nil, ErrInvalidDateRange
		}
		tx.Date = parsed
	}

	if err := s.txRepo.Update(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Delete soft-deletes a transaction entry
func (s *TransactionService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.txRepo.Delete(ctx, id)
}

func parseDateRange(fromStr, toStr string) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return nil, nil, ErrInvalidDateRange
		}
		from = &parsed
	}
	if toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return nil, nil, ErrInvalidDateRange
		}
		// inclusive end of day
		end := parsed.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	return from, to, nil
}
