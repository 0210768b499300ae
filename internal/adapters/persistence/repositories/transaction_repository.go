package repositories

import (
	"context"
	"time"

	"coopfin-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// TransactionRepository handles the organizational income/expense ledger
type TransactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// Create creates a new transaction
func (r *TransactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID gets a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).Preload("Recorder").First(&tx, id).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// List lists transactions with pagination, optionally filtered by type and date range
func (r *TransactionRepository) List(ctx context.Context, txType string, from, to *time.Time, offset, limit int) ([]*models.Transaction, int64, error) {
	var txs []*models.Transaction
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Transaction{})
	if txType != "" {
		q = q.Where("type = ?", txType)
	}
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}
	q.Count(&total)

	err := q.
		Preload("Recorder").
		Order("date DESC").
		Offset(offset).
		Limit(limit).
		Find(&txs).Error

	return txs, total, err
}

// Update updates a transaction
func (r *TransactionRepository) Update(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

// Delete soft deletes a transaction
func (r *TransactionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Transaction{}, id).Error
}

// SumByType sums transaction amounts per type within an optional date range
func (r *TransactionRepository) SumByType(ctx context.Context, txType string, from, to *time.Time) (float64, error) {
	var sum float64
	q := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("type = ?", txType)
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}
	err := q.Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return sum, err
}
