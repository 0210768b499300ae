package repositories

import (
	"context"

	"coopfin-backend/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PledgeRepository handles pledge data access
type PledgeRepository struct {
	db *gorm.DB
}

// NewPledgeRepository creates a new pledge repository
func NewPledgeRepository(db *gorm.DB) *PledgeRepository {
	return &PledgeRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *PledgeRepository) WithTx(tx *gorm.DB) *PledgeRepository {
	return &PledgeRepository{db: tx}
}

// Create creates a new pledge
func (r *PledgeRepository) Create(ctx context.Context, pledge *models.Pledge) error {
	return r.db.WithContext(ctx).Create(pledge).Error
}

// GetByID gets a pledge by ID
func (r *PledgeRepository) GetByID(ctx context.Context, id uint) (*models.Pledge, error) {
	var pledge models.Pledge
	err := r.db.WithContext(ctx).Preload("User").First(&pledge, id).Error
	if err != nil {
		return nil, err
	}
	return &pledge, nil
}

// GetByIDForUpdate locks the pledge row for the duration of the
// surrounding transaction
func (r *PledgeRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Pledge, error) {
	var pledge models.Pledge
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&pledge, id).Error
	if err != nil {
		return nil, err
	}
	return &pledge, nil
}

// ListByUser lists pledges for one member
func (r *PledgeRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Pledge, error) {
	var pledges []*models.Pledge
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&pledges).Error
	return pledges, err
}

// List lists pledges with pagination, optionally filtered by status
func (r *PledgeRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Pledge, int64, error) {
	var pledges []*models.Pledge
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Pledge{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q.Count(&total)

	err := q.
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&pledges).Error

	return pledges, total, err
}

// Update updates a pledge
func (r *PledgeRepository) Update(ctx context.Context, pledge *models.Pledge) error {
	return r.db.WithContext(ctx).Save(pledge).Error
}

// DonationRepository handles donation data access
type DonationRepository struct {
	db *gorm.DB
}

// NewDonationRepository creates a new donation repository
func NewDonationRepository(db *gorm.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *DonationRepository) WithTx(tx *gorm.DB) *DonationRepository {
	return &DonationRepository{db: tx}
}

// Create creates a new donation
func (r *DonationRepository) Create(ctx context.Context, donation *models.Donation) error {
	return r.db.WithContext(ctx).Create(donation).Error
}

// GetByID gets a donation by ID
func (r *DonationRepository) GetByID(ctx context.Context, id uint) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).Preload("User").First(&donation, id).Error
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// GetByIDForUpdate locks the donation row for the duration of the
// surrounding transaction
func (r *DonationRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&donation, id).Error
	if err != nil {
		return nil, err
	}
	return &donation, nil
}

// ListByUser lists donations for one member
func (r *DonationRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Donation, error) {
	var donations []*models.Donation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&donations).Error
	return donations, err
}

// List lists donations with pagination, optionally filtered by status
func (r *DonationRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Donation, int64, error) {
	var donations []*models.Donation
	var total int64

	q := r.db.WithContext(ctx).Model(&models.Donation{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q.Count(&total)

	err := q.
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&donations).Error

	return donations, total, err
}

// Update updates a donation
func (r *DonationRepository) Update(ctx context.Context, donation *models.Donation) error {
	return r.db.WithContext(ctx).Save(donation).Error
}
