package repositories

import (
	"context"

	"coopfin-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LevyRepository handles levy template data access
type LevyRepository struct {
	db *gorm.DB
}

// NewLevyRepository creates a new levy repository
func NewLevyRepository(db *gorm.DB) *LevyRepository {
	return &LevyRepository{db: db}
}

// Create creates a new levy template
func (r *LevyRepository) Create(ctx context.Context, levy *models.Levy) error {
	return r.db.WithContext(ctx).Create(levy).Error
}

// GetByID gets a levy template by ID
func (r *LevyRepository) GetByID(ctx context.Context, id uint) (*models.Levy, error) {
	var levy models.Levy
	err := r.db.WithContext(ctx).First(&levy, id).Error
	if err != nil {
		return nil, err
	}
	return &levy, nil
}

// List lists levy templates with pagination
func (r *LevyRepository) List(ctx context.Context, offset, limit int) ([]*models.Levy, int64, error) {
	var levies []*models.Levy
	var total int64

	r.db.WithContext(ctx).Model(&models.Levy{}).Count(&total)

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&levies).Error

	return levies, total, err
}

// Update updates a levy template
func (r *LevyRepository) Update(ctx context.Context, levy *models.Levy) error {
	return r.db.WithContext(ctx).Save(levy).Error
}

// Delete soft deletes a levy template
func (r *LevyRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Levy{}, id).Error
}

// MemberLevyRepository handles per-member levy data access
type MemberLevyRepository struct {
	db *gorm.DB
}

// NewMemberLevyRepository creates a new member levy repository
func NewMemberLevyRepository(db *gorm.DB) *MemberLevyRepository {
	return &MemberLevyRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *MemberLevyRepository) WithTx(tx *gorm.DB) *MemberLevyRepository {
	return &MemberLevyRepository{db: tx}
}

// Create creates a new member levy
func (r *MemberLevyRepository) Create(ctx context.Context, ml *models.MemberLevy) error {
	return r.db.WithContext(ctx).Create(ml).Error
}

// GetByID gets a member levy by ID
func (r *MemberLevyRepository) GetByID(ctx context.Context, id uint) (*models.MemberLevy, error) {
	var ml models.MemberLevy
	err := r.db.WithContext(ctx).Preload("Levy").First(&ml, id).Error
	if err != nil {
		return nil, err
	}
	return &ml, nil
}

// GetByIDForUpdate locks the member levy row for the duration of the
// surrounding transaction
func (r *MemberLevyRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.MemberLevy, error) {
	var ml models.MemberLevy
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ml, id).Error
	if err != nil {
		return nil, err
	}
	return &ml, nil
}

// Exists checks for an existing (levy, user) assignment
func (r *MemberLevyRepository) Exists(ctx context.Context, levyID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MemberLevy{}).
		Where("levy_id = ? AND user_id = ?", levyID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser lists member levies for one member
func (r *MemberLevyRepository) ListByUser(ctx context.Context, userID uint) ([]*models.MemberLevy, error) {
	var levies []*models.MemberLevy
	err := r.db.WithContext(ctx).
		Preload("Levy").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&levies).Error
	return levies, err
}

// ListByLevy lists member levies for one template with pagination
func (r *MemberLevyRepository) ListByLevy(ctx context.Context, levyID uint, offset, limit int) ([]*models.MemberLevy, int64, error) {
	var levies []*models.MemberLevy
	var total int64

	r.db.WithContext(ctx).Model(&models.MemberLevy{}).Where("levy_id = ?", levyID).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("levy_id = ?", levyID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&levies).Error

	return levies, total, err
}

// Update updates a member levy
func (r *MemberLevyRepository) Update(ctx context.Context, ml *models.MemberLevy) error {
	return r.db.WithContext(ctx).Save(ml).Error
}
