package repositories

import (
	"context"

	"coopfin-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanRepository handles loan data access
type LoanRepository struct {
	db *gorm.DB
}

// NewLoanRepository creates a new loan repository
func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *LoanRepository) WithTx(tx *gorm.DB) *LoanRepository {
	return &LoanRepository{db: tx}
}

// Create creates a new loan application
func (r *LoanRepository) Create(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

// GetByID gets a loan by ID with relations
func (r *LoanRepository) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Approver").
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// GetByIDForUpdate locks the loan row for the duration of the
// surrounding transaction
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Loan, error) {
	var loan models.Loan
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&loan, id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// ListByUser lists loans for one member
func (r *LoanRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Loan, error) {
	var loans []*models.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&loans).Error
	return loans, err
}

// List lists loans with pagination, optionally filtered by status
func (r *LoanRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	var loans []*models.Loan
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Loan{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q.Count(&total)

	err := q.
		Preload("User").
		Preload("Approver").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&loans).Error

	return loans, total, err
}

// Update updates a loan
func (r *LoanRepository) Update(ctx context.Context, loan *models.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}
