package repositories

import (
	"context"

	"coopfin-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DueRepository handles due template data access
type DueRepository struct {
	db *gorm.DB
}

// NewDueRepository creates a new due repository
func NewDueRepository(db *gorm.DB) *DueRepository {
	return &DueRepository{db: db}
}

// Create creates a new due template
func (r *DueRepository) Create(ctx context.Context, due *models.Due) error {
	return r.db.WithContext(ctx).Create(due).Error
}

// GetByID gets a due template by ID
func (r *DueRepository) GetByID(ctx context.Context, id uint) (*models.Due, error) {
	var due models.Due
	err := r.db.WithContext(ctx).First(&due, id).Error
	if err != nil {
		return nil, err
	}
	return &due, nil
}

// List lists due templates with pagination
func (r *DueRepository) List(ctx context.Context, offset, limit int) ([]*models.Due, int64, error) {
	var dues []*models.Due
	var total int64

	r.db.WithContext(ctx).Model(&models.Due{}).Count(&total)

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&dues).Error

	return dues, total, err
}

// Update updates a due template
func (r *DueRepository) Update(ctx context.Context, due *models.Due) error {
	return r.db.WithContext(ctx).Save(due).Error
}

// Delete soft deletes a due template
func (r *DueRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Due{}, id).Error
}

// MemberDueRepository handles per-member due data access
type MemberDueRepository struct {
	db *gorm.DB
}

// NewMemberDueRepository creates a new member due repository
func NewMemberDueRepository(db *gorm.DB) *MemberDueRepository {
	return &MemberDueRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *MemberDueRepository) WithTx(tx *gorm.DB) *MemberDueRepository {
	return &MemberDueRepository{db: tx}
}

// Create creates a new member due
func (r *MemberDueRepository) Create(ctx context.Context, md *models.MemberDue) error {
	return r.db.WithContext(ctx).Create(md).Error
}

// GetByID gets a member due by ID
func (r *MemberDueRepository) GetByID(ctx context.Context, id uint) (*models.MemberDue, error) {
	var md models.MemberDue
	err := r.db.WithContext(ctx).Preload("Due").First(&md, id).Error
	if err != nil {
		return nil, err
	}
	return &md, nil
}

// GetByIDForUpdate locks the member due row for the duration of the
// surrounding transaction. Callers must be inside db.Transaction.
func (r *MemberDueRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.MemberDue, error) {
	var md models.MemberDue
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&md, id).Error
	if err != nil {
		return nil, err
	}
	return &md, nil
}

// Exists checks for an existing (due, user) assignment
func (r *MemberDueRepository) Exists(ctx context.Context, dueID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MemberDue{}).
		Where("due_id = ? AND user_id = ?", dueID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListByUser lists member dues for one member
func (r *MemberDueRepository) ListByUser(ctx context.Context, userID uint) ([]*models.MemberDue, error) {
	var dues []*models.MemberDue
	err := r.db.WithContext(ctx).
		Preload("Due").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&dues).Error
	return dues, err
}

// ListByDue lists member dues for one template with pagination
func (r *MemberDueRepository) ListByDue(ctx context.Context, dueID uint, offset, limit int) ([]*models.MemberDue, int64, error) {
	var dues []*models.MemberDue
	var total int64

	r.db.WithContext(ctx).Model(&models.MemberDue{}).Where("due_id = ?", dueID).Count(&total)

	err := r.db.WithContext(ctx).
		Preload("User").
		Where("due_id = ?", dueID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&dues).Error

	return dues, total, err
}

// Update updates a member due
func (r *MemberDueRepository) Update(ctx context.Context, md *models.MemberDue) error {
	return r.db.WithContext(ctx).Save(md).Error
}

// ListOverdue lists unsettled member dues whose template due date has passed
func (r *MemberDueRepository) ListOverdue(ctx context.Context) ([]*models.MemberDue, error) {
	var dues []*models.MemberDue
	err := r.db.WithContext(ctx).
		Preload("Due").
		Preload("User").
		Joins("JOIN dues ON dues.id = member_dues.due_id").
		Where("member_dues.balance > 0").
		Where("dues.due_date IS NOT NULL AND dues.due_date < CURRENT_DATE").
		Find(&dues).Error
	return dues, err
}
