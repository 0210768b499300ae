package services

import (
	"context"
	"errors"
	"log"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Levy service errors
var (
	ErrLevyNotFound = errors.New("levy not found")
)

// LevyService manages levy templates and their per-member assignments.
// Levies behave exactly like dues but are tracked as a separate category.
type LevyService struct {
	levyRepo       *repositories.LevyRepository
	memberLevyRepo *repositories.MemberLevyRepository
	userRepo       repositories.UserRepository
	notifyService  *NotificationService
}

// NewLevyService creates a new levy service
func NewLevyService(
	levyRepo *repositories.LevyRepository,
	memberLevyRepo *repositories.MemberLevyRepository,
	userRepo repositories.UserRepository,
	notifyService *NotificationService,
) *LevyService {
	return &LevyService{
		levyRepo:       levyRepo,
		memberLevyRepo: memberLevyRepo,
		userRepo:       userRepo,
		notifyService:  notifyService,
	}
}

// Create creates a levy template
func (s *LevyService) Create(ctx context.Context, input *TemplateInput, createdBy uint) (*models.Levy, error) {
	if input.Title == "" {
		return nil, ErrTitleRequired
	}
	if input.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}

	dueDate, err := parseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	levy := &models.Levy{
		Title:       input.Title,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     dueDate,
		CreatedBy:   createdBy,
	}

	if err := s.levyRepo.Create(ctx, levy); err != nil {
		return nil, err
	}

	log.Printf("✅ Levy created: %s (%.2f)", levy.Title, levy.Amount)
	return levy, nil
}

// GetByID gets a levy template
func (s *LevyService) GetByID(ctx context.Context, id uint) (*models.Levy, error) {
	levy, err := s.levyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLevyNotFound
		}
		return nil, err
	}
	return levy, nil
}

// List lists levy templates with pagination
func (s *LevyService) List(ctx context.Context, offset, limit int) ([]*models.Levy, int64, error) {
	return s.levyRepo.List(ctx, offset, limit)
}

// Update updates a levy template; existing member levies keep their amount
func (s *LevyService) Update(ctx context.Context, id uint, input *TemplateInput) (*models.Levy, error) {
	levy, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != "" {
		levy.Title = input.Title
	}
	if input.Description != "" {
		levy.Description = input.Description
	}
	if input.Amount > 0 {
		levy.Amount = input.Amount
	}
	if input.DueDate != "" {
		dueDate, err := parseDueDate(input.DueDate)
		if err != nil {
			return nil, err
		}
		levy.DueDate = dueDate
	}

	if err := s.levyRepo.Update(ctx, levy); err != nil {
		return nil, err
	}
	return levy, nil
}

// Delete soft-deletes a levy template
func (s *LevyService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.levyRepo.Delete(ctx, id)
}

// Assign instantiates the levy for each target member, idempotently
func (s *LevyService) Assign(ctx context.Context, levyID uint, input *AssignInput) (*AssignResult, error) {
	levy, err := s.GetByID(ctx, levyID)
	if err != nil {
		return nil, err
	}

	targets := input.MemberIDs
	if len(targets) == 0 {
		targets, err = s.userRepo.ListActiveIDs(ctx)
		if err != nil {
			return nil, err
		}
	}
	if len(targets) == 0 {
		return nil, ErrNoAssignTargets
	}

	result := &AssignResult{}
	for _, userID := range targets {
		exists, err := s.memberLevyRepo.Exists(ctx, levy.ID, userID)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		ml := &models.MemberLevy{
			LevyID:  levy.ID,
			UserID:  userID,
			Amount:  levy.Amount,
			Balance: levy.Amount,
			Status:  models.StatusPending,
		}
		if err := s.memberLevyRepo.Create(ctx, ml); err != nil {
			return nil, err
		}
		result.Assigned++
	}

	log.Printf("✅ Levy '%s' assigned: %d new, %d skipped", levy.Title, result.Assigned, result.Skipped)

	if s.notifyService != nil && result.Assigned > 0 {
		s.notifyService.NotifyObligationAssigned(ctx, "Levy", levy.Title, levy.Amount, result.Assigned)
	}

	return result, nil
}

// ListMembers lists the member levies under one template
func (s *LevyService) ListMembers(ctx context.Context, levyID uint, offset, limit int) ([]*models.MemberLevy, int64, error) {
	if _, err := s.GetByID(ctx, levyID); err != nil {
		return nil, 0, err
	}
	return s.memberLevyRepo.ListByLevy(ctx, levyID, offset, limit)
}

// ListMyLevies lists one member's assigned levies with balances
func (s *LevyService) ListMyLevies(ctx context.Context, userID uint) ([]*models.MemberLevy, error) {
	return s.memberLevyRepo.ListByUser(ctx, userID)
}
