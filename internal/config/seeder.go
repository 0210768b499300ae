package config

import (
	"log"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedSuperAdmin(); err != nil {
		log.Printf("⚠️ Super admin seeder skipped: %v", err)
	}
	if err := s.seedSettings(); err != nil {
		log.Printf("⚠️ Settings seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedSuperAdmin seeds the default super admin user.
// For development only; in production create the account through a secure process.
func (s *Seeder) seedSuperAdmin() error {
	var count int64
	s.db.Model(&models.User{}).Where("role = ?", models.RoleSuperAdmin).Count(&count)
	if count > 0 {
		return nil
	}

	hashedPassword, err := password.Hash("superadmin123")
	if err != nil {
		return err
	}

	admin := &models.User{
		MemberNo: "SA0001",
		Username: "superadmin",
		Email:    "admin@coopfin.org",
		Password: hashedPassword,
		FullName: "System Administrator",
		Role:     models.RoleSuperAdmin,
		IsActive: true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Super admin created: %s", admin.Username)
	return nil
}

// seedSettings ensures the single settings row exists so notification
// defaults are read from the database, never from process memory
func (s *Seeder) seedSettings() error {
	var count int64
	s.db.Model(&models.Setting{}).Count(&count)
	if count > 0 {
		return nil
	}

	setting := &models.Setting{
		NotifyOnApproval:   true,
		NotifyOnRejection:  true,
		NotifyOnAssignment: true,
		ReminderHour:       8,
	}

	return s.db.Create(setting).Error
}
