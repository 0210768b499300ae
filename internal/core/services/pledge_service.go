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

// Pledge service errors
var (
	ErrPledgeNotFound   = errors.New("pledge not found")
	ErrPledgeNotPending = errors.New("pledge is not pending")
)

// PledgeService manages member pledges. Fulfillment happens through the
// payment approval flow; this service only creates, lists and rejects.
type PledgeService struct {
	pledgeRepo *repositories.PledgeRepository
}

// NewPledgeService creates a new pledge service
func NewPledgeService(pledgeRepo *repositories.PledgeRepository) *PledgeService {
	return &PledgeService{pledgeRepo: pledgeRepo}
}

// CreatePledgeInput represents pledge creation input
type CreatePledgeInput struct {
	Title       string  `json:"title" validate:"required"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	FulfillDate string  `json:"fulfill_date,omitempty"`
}

// Create declares a new pledge for the calling member
func (s *PledgeService) Create(ctx context.Context, userID uint, input *CreatePledgeInput) (*models.Pledge, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}
	if input.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}

	var fulfillDate *time.Time
	if input.FulfillDate != "" {
		parsed, err := time.Parse("2006-01-02", input.FulfillDate)
		if err != nil {
			return nil, ErrInvalidDueDate
		}
		fulfillDate = &parsed
	}

	pledge := &models.Pledge{
		UserID:      userID,
		Title:       input.Title,
		Amount:      input.Amount,
		FulfillDate: fulfillDate,
		Status:      models.StatusPending,
	}

	if err := s.pledgeRepo.Create(ctx, pledge); err != nil {
		return nil, err
	}

	log.Printf("✅ Pledge created: '%s' %.2f by member #%d", pledge.Title, pledge.Amount, userID)
	return pledge, nil
}

// GetByID gets a pledge
func (s *PledgeService) GetByID(ctx context.Context, id uint) (*models.Pledge, error) {
	pledge, err := s.pledgeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPledgeNotFound
		}
		return nil, err
	}
	return pledge, nil
}

// List lists pledges for admin review, optionally by status
func (s *PledgeService) List(ctx context.Context, status string, offset, limit int) ([]*models.Pledge, int64, error) {
	return s.pledgeRepo.List(ctx, status, offset, limit)
}

// ListByUser lists one member's pledges
func (s *PledgeService) ListByUser(ctx context.Context, userID uint) ([]*models.Pledge, error) {
	return s.pledgeRepo.ListByUser(ctx, userID)
}

// Reject declines a pending pledge with a reason
func (s *PledgeService) Reject(ctx context.Context, id uint, reason string) (*models.Pledge, error) {
	pledge, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if pledge.Status != models.StatusPending {
		return nil, ErrPledgeNotPending
	}

	pledge.Status = models.StatusRejected
	pledge.RejectionReason = reason
	if err := s.pledgeRepo.Update(ctx, pledge); err != nil {
		return nil, err
	}

	return pledge, nil
}
