package services

import (
	"context"
	"errors"
	"log"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
)

// Setting service errors
var (
	ErrInvalidReminderHour = errors.New("reminder hour must be between 0 and 23")
)

// SettingService manages the single persisted configuration record
type SettingService struct {
	settingRepo *repositories.SettingRepository
}

// NewSettingService creates a new setting service
func NewSettingService(settingRepo *repositories.SettingRepository) *SettingService {
	return &SettingService{settingRepo: settingRepo}
}

// UpdateSettingsInput represents settings update input
type UpdateSettingsInput struct {
	NotifyOnApproval   *bool `json:"notify_on_approval"`
	NotifyOnRejection  *bool `json:"notify_on_rejection"`
	NotifyOnAssignment *bool `json:"notify_on_assignment"`
	ReminderHour       *int  `json:"reminder_hour"`
}

// Get returns the current settings
func (s *SettingService) Get(ctx context.Context) (*models.Setting, error) {
	return s.settingRepo.Get(ctx)
}

// Update applies partial changes to the settings record
func (s *SettingService) Update(ctx context.Context, input *UpdateSettingsInput, updatedBy uint) (*models.Setting, error) {
	setting, err := s.settingRepo.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.NotifyOnApproval != nil {
		setting.NotifyOnApproval = *input.NotifyOnApproval
	}
	if input.NotifyOnRejection != nil {
		setting.NotifyOnRejection = *input.NotifyOnRejection
	}
	if input.NotifyOnAssignment != nil {
		setting.NotifyOnAssignment = *input.NotifyOnAssignment
	}
	if input.ReminderHour != nil {
		if *input.ReminderHour < 0 || *input.ReminderHour > 23 {
			return nil, ErrInvalidReminderHour
		}
		setting.ReminderHour = *input.ReminderHour
	}

	setting.UpdatedBy = &updatedBy
	if err := s.settingRepo.Update(ctx, setting); err != nil {
		return nil, err
	}

	log.Printf("✅ Settings updated by admin ID: %d", updatedBy)
	return setting, nil
}
