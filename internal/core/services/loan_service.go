package services

import (
	"context"
	"errors"
	"log"
	"time"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Loan service errors
var (
	ErrLoanNotFound    = errors.New("loan not found")
	ErrLoanNotPending  = errors.New("loan is not pending")
	ErrLoanNotApproved = errors.New("loan is not approved")
	ErrLoanOutstanding = errors.New("member already has an outstanding loan")
)

// LoanService handles member loan applications and their review.
// Repayment settlement happens through the payment approval flow.
type LoanService struct {
	loanRepo      *repositories.LoanRepository
	notifyService *NotificationService
}

// NewLoanService creates a new loan service
func NewLoanService(loanRepo *repositories.LoanRepository, notifyService *NotificationService) *LoanService {
	return &LoanService{
		loanRepo:      loanRepo,
		notifyService: notifyService,
	}
}

// ApplyLoanInput represents loan application input
type ApplyLoanInput struct {
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	Purpose string  `json:"purpose,omitempty"`
}

// ApproveLoanInput represents loan approval input
type ApproveLoanInput struct {
	InterestRate float64 `json:"interest_rate,omitempty"`
}

// Apply files a new loan application. A member with a pending or approved
// loan cannot apply again until it is settled.
func (s *LoanService) Apply(ctx context.Context, userID uint, input *ApplyLoanInput) (*models.Loan, error) {
	if input.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}

	existing, err := s.loanRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, loan := range existing {
		if loan.Status == models.StatusPending || loan.Status == models.StatusApproved {
			return nil, ErrLoanOutstanding
		}
	}

	loan := &models.Loan{
		UserID:  userID,
		Amount:  input.Amount,
		Purpose: input.Purpose,
		Status:  models.StatusPending,
	}

	if err := s.loanRepo.Create(ctx, loan); err != nil {
		return nil, err
	}

	log.Printf("✅ Loan application filed: #%d %.2f by member #%d", loan.ID, loan.Amount, userID)
	return loan, nil
}

// GetByID gets a loan
func (s *LoanService) GetByID(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.loanRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return loan, nil
}

// List lists loans for admin review, optionally by status
func (s *LoanService) List(ctx context.Context, status string, offset, limit int) ([]*models.Loan, int64, error) {
	return s.loanRepo.List(ctx, status, offset, limit)
}

// ListByUser lists one member's loans
func (s *LoanService) ListByUser(ctx context.Context, userID uint) ([]*models.Loan, error) {
	return s.loanRepo.ListByUser(ctx, userID)
}

// Approve grants a pending loan
func (s *LoanService) Approve(ctx context.Context, id uint, approverID uint, input *ApproveLoanInput) (*models.Loan, error) {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.StatusPending {
		return nil, ErrLoanNotPending
	}

	now := time.Now()
	loan.Status = models.StatusApproved
	loan.ApprovedBy = &approverID
	loan.ApprovedAt = &now
	if input != nil && input.InterestRate > 0 {
		loan.InterestRate = input.InterestRate
	}

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	log.Printf("✅ Loan approved: #%d %.2f (by admin ID: %d)", loan.ID, loan.Amount, approverID)

	if s.notifyService != nil {
		s.notifyService.NotifyLoanDecision(ctx, loan, true, "")
	}

	return loan, nil
}

// Reject declines a pending loan with a reason
func (s *LoanService) Reject(ctx context.Context, id uint, approverID uint, reason string) (*models.Loan, error) {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.StatusPending {
		return nil, ErrLoanNotPending
	}

	now := time.Now()
	loan.Status = models.StatusRejected
	loan.RejectionReason = reason
	loan.ApprovedBy = &approverID
	loan.ApprovedAt = &now

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	if s.notifyService != nil {
		s.notifyService.NotifyLoanDecision(ctx, loan, false, reason)
	}

	return loan, nil
}

// MarkPaid settles an approved loan directly, for repayments collected
// outside the payment flow
func (s *LoanService) MarkPaid(ctx context.Context, id uint) (*models.Loan, error) {
	loan, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if loan.Status != models.StatusApproved {
		return nil, ErrLoanNotApproved
	}

	now := time.Now()
	loan.Status = models.StatusPaid
	loan.PaidAt = &now

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return nil, err
	}

	log.Printf("✅ Loan settled: #%d %.2f", loan.ID, loan.Amount)
	return loan, nil
}
