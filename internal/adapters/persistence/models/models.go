package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles
const (
	RoleMember      = "member"
	RoleAdminL1     = "admin_level_1"
	RoleAdminL2     = "admin_level_2"
	RoleSuperAdmin  = "super_admin"
	RoleLegacyAdmin = "admin" // treated as admin_level_1 everywhere
)

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	MemberNo  string         `gorm:"uniqueIndex;size:20;not null" json:"member_no"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	FullName  string         `gorm:"size:100" json:"full_name"`
	Phone     string         `gorm:"size:20" json:"phone"`
	Role      string         `gorm:"size:20;default:'member'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// NormalizedRole maps the legacy "admin" role onto admin_level_1
func (u *User) NormalizedRole() string {
	if u.Role == RoleLegacyAdmin {
		return RoleAdminL1
	}
	return u.Role
}

// UserResponse DTO
type UserResponse struct {
	ID           uint      `json:"id"`
	MemberNo     string    `json:"member_no"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	Capabilities []string  `json:"capabilities,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		MemberNo:  u.MemberNo,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Phone:     u.Phone,
		Role:      u.NormalizedRole(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// Setting is the persisted system configuration record (single row).
// Notification defaults live here, not in process memory.
type Setting struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	NotifyOnApproval   bool      `gorm:"default:true" json:"notify_on_approval"`
	NotifyOnRejection  bool      `gorm:"default:true" json:"notify_on_rejection"`
	NotifyOnAssignment bool      `gorm:"default:true" json:"notify_on_assignment"`
	ReminderHour       int       `gorm:"default:8" json:"reminder_hour"`
	UpdatedBy          *uint     `json:"updated_by"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Setting) TableName() string {
	return "settings"
}

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Setting{},
		&Due{},
		&Levy{},
		&MemberDue{},
		&MemberLevy{},
		&Pledge{},
		&Donation{},
		&Loan{},
		&Payment{},
		&Transaction{},
	)
}
