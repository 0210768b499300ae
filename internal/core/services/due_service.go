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

// Due service errors
var (
	ErrDueNotFound     = errors.New("due not found")
	ErrNoAssignTargets = errors.New("no members to assign")
	ErrInvalidDueDate  = errors.New("invalid due date, use YYYY-MM-DD")
	ErrTitleRequired   = errors.New("title is required")
)

// DueService manages due templates and their per-member assignments
type DueService struct {
	dueRepo       *repositories.DueRepository
	memberDueRepo *repositories.MemberDueRepository
	userRepo      repositories.UserRepository
	notifyService *NotificationService
}

// NewDueService creates a new due service
func NewDueService(
	dueRepo *repositories.DueRepository,
	memberDueRepo *repositories.MemberDueRepository,
	userRepo repositories.UserRepository,
	notifyService *NotificationService,
) *DueService {
	return &DueService{
		dueRepo:       dueRepo,
		memberDueRepo: memberDueRepo,
		userRepo:      userRepo,
		notifyService: notifyService,
	}
}

// TemplateInput represents due/levy template input
type TemplateInput struct {
	Title       string  `json:"title" validate:"required"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	DueDate     string  `json:"due_date,omitempty"`
}

// AssignInput represents obligation assignment input
type AssignInput struct {
	// MemberIDs lists the targets; empty means every active member
	MemberIDs []uint `json:"member_ids,omitempty"`
}

// AssignResult reports how an assignment batch went
type AssignResult struct {
	Assigned int `json:"assigned"`
	Skipped  int `json:"skipped"`
}

func parseDueDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, ErrInvalidDueDate
	}
	return &parsed, nil
}

// Create creates a due template
func (s *DueService) Create(ctx context.Context, input *TemplateInput, createdBy uint) (*models.Due, error) {
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

	due := &models.Due{
		Title:       input.Title,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     dueDate,
		CreatedBy:   createdBy,
	}

	if err := s.dueRepo.Create(ctx, due); err != nil {
		return nil, err
	}

	log.Printf("✅ Due created: %s (%.2f)", due.Title, due.Amount)
	return due, nil
}

// GetByID gets a due template
func (s *DueService) GetByID(ctx context.Context, id uint) (*models.Due, error) {
	due, err := s.dueRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDueNotFound
		}
		return nil, err
	}
	return due, nil
}

// List lists due templates with pagination
func (s *DueService) List(ctx context.Context, offset, limit int) ([]*models.Due, int64, error) {
	return s.dueRepo.List(ctx, offset, limit)
}

// Update updates a due template. Amount changes affect future assignments
// only; existing member dues keep the amount they were created with.
func (s *DueService) Update(ctx context.Context, id uint, input *TemplateInput) (*models.Due, error) {
	due, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != "" {
		due.Title = input.Title
	}
	if input.Description != "" {
		due.Description = input.Description
	}
	if input.Amount > 0 {
		due.Amount = input.Amount
	}
	if input.DueDate != "" {
		dueDate, err := parseDueDate(input.DueDate)
		if err != nil {
			return nil, err
		}
		due.DueDate = dueDate
	}

	if err := s.dueRepo.Update(ctx, due); err != nil {
		return nil, err
	}
	return due, nil
}

// Delete soft-deletes a due template. Member dues already assigned stay.
func (s *DueService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	return s.dueRepo.Delete(ctx, id)
}

// Assign instantiates the template for each target member. Assignment is
// idempotent: a member already holding this due is skipped, never duplicated.
func (s *DueService) Assign(ctx context.Context, dueID uint, input *AssignInput) (*AssignResult, error) {
	due, err := s.GetByID(ctx, dueID)
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
		exists, err := s.memberDueRepo.Exists(ctx, due.ID, userID)
		if err != nil {
			return nil, err
		}
		if exists {
			result.Skipped++
			continue
		}

		md := &models.MemberDue{
			DueID:   due.ID,
			UserID:  userID,
			Amount:  due.Amount,
			Balance: due.Amount,
			Status:  models.StatusPending,
		}
		if err := s.memberDueRepo.Create(ctx, md); err != nil {
			return nil, err
		}
		result.Assigned++
	}

	log.Printf("✅ Due '%s' assigned: %d new, %d skipped", due.Title, result.Assigned, result.Skipped)

	if s.notifyService != nil && result.Assigned > 0 {
		s.notifyService.NotifyObligationAssigned(ctx, "Due", due.Title, due.Amount, result.Assigned)
	}

	return result, nil
}

// ListMembers lists the member dues under one template
func (s *DueService) ListMembers(ctx context.Context, dueID uint, offset, limit int) ([]*models.MemberDue, int64, error) {
	if _, err := s.GetByID(ctx, dueID); err != nil {
		return nil, 0, err
	}
	return s.memberDueRepo.ListByDue(ctx, dueID, offset, limit)
}

// ListMyDues lists one member's assigned dues with balances
func (s *DueService) ListMyDues(ctx context.Context, userID uint) ([]*models.MemberDue, error) {
	return s.memberDueRepo.ListByUser(ctx, userID)
}
