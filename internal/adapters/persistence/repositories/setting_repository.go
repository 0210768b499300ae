package repositories

import (
	"context"
	"errors"

	"coopfin-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SettingRepository handles the persisted system configuration record
type SettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository
func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get returns the settings row, creating it with defaults if absent
func (r *SettingRepository) Get(ctx context.Context) (*models.Setting, error) {
	var setting models.Setting
	err := r.db.WithContext(ctx).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.Setting{
			NotifyOnApproval:   true,
			NotifyOnRejection:  true,
			NotifyOnAssignment: true,
			ReminderHour:       8,
		}
		if err := r.db.WithContext(ctx).Create(&setting).Error; err != nil {
			return nil, err
		}
		return &setting, nil
	}
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

// Update saves the settings row
func (r *SettingRepository) Update(ctx context.Context, setting *models.Setting) error {
	return r.db.WithContext(ctx).Save(setting).Error
}
