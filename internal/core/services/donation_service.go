package services

import (
	"context"
	"errors"
	"log"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Donation service errors
var (
	ErrDonationNotFound   = errors.New("donation not found")
	ErrDonationNotPending = errors.New("donation is not pending")
)

// DonationService manages member donations. A donation is declared fully
// paid at creation; admins then approve or reject the declaration.
type DonationService struct {
	donationRepo *repositories.DonationRepository
}

// NewDonationService creates a new donation service
func NewDonationService(donationRepo *repositories.DonationRepository) *DonationService {
	return &DonationService{donationRepo: donationRepo}
}

// CreateDonationInput represents donation creation input
type CreateDonationInput struct {
	Title  string  `json:"title" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// Create records a new donation for the calling member
func (s *DonationService) Create(ctx context.Context, userID uint, input *CreateDonationInput) (*models.Donation, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}
	if input.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}

	donation := &models.Donation{
		UserID: userID,
		Title:  input.Title,
		Amount: input.Amount,
		Status: models.StatusPending,
	}

	if err := s.donationRepo.Create(ctx, donation); err != nil {
		return nil, err
	}

	log.Printf("✅ Donation recorded: '%s' %.2f by member #%d", donation.Title, donation.Amount, userID)
	return donation, nil
}

// GetByID gets a donation
func (s *DonationService) GetByID(ctx context.Context, id uint) (*models.Donation, error) {
	donation, err := s.donationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}
	return donation, nil
}

// List lists donations for admin review, optionally by status
func (s *DonationService) List(ctx context.Context, status string, offset, limit int) ([]*models.Donation, int64, error) {
	return s.donationRepo.List(ctx, status, offset, limit)
}

// ListByUser lists one member's donations
func (s *DonationService) ListByUser(ctx context.Context, userID uint) ([]*models.Donation, error) {
	return s.donationRepo.ListByUser(ctx, userID)
}

// Reject declines a pending donation declaration with a reason
func (s *DonationService) Reject(ctx context.Context, id uint, reason string) (*models.Donation, error) {
	donation, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if donation.Status != models.StatusPending {
		return nil, ErrDonationNotPending
	}

	donation.Status = models.StatusRejected
	donation.RejectionReason = reason
	if err := s.donationRepo.Update(ctx, donation); err != nil {
		return nil, err
	}

	return donation, nil
}
