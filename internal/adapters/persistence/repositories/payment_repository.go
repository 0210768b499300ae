package repositories

import (
	"context"

	"coopfin-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PaymentRepository handles payment data access
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *PaymentRepository) WithTx(tx *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: tx}
}

// Create creates a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// GetByID gets a payment by ID with relations
func (r *PaymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Approver").
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByIDForUpdate locks the payment row for the duration of the
// surrounding transaction
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, id).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// ListFilter narrows payment listings. ExcludeType drops one payment type
// from the results regardless of the other filters.
type ListFilter struct {
	UserID      *uint
	Status      string
	PaymentType string
	ExcludeType string
}

// List lists payments with pagination and optional filters
func (r *PaymentRepository) List(ctx context.Context, filter *ListFilter, offset, limit int) ([]*models.Payment, int64, error) {
	var payments []*models.Payment
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Payment{})
	if filter != nil {
		if filter.UserID != nil {
			q = q.Where("user_id = ?", *filter.UserID)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.PaymentType != "" {
			q = q.Where("payment_type = ?", filter.PaymentType)
		}
		if filter.ExcludeType != "" {
			q = q.Where("payment_type <> ?", filter.ExcludeType)
		}
	}

	q.Count(&total)

	err := q.
		Preload("User").
		Preload("Approver").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&payments).Error

	return payments, total, err
}

// ListByUser lists all payments for one member
func (r *PaymentRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error) {
	var payments []*models.Payment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&payments).Error
	return payments, err
}

// Update updates a payment
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}
