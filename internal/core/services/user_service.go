package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
	"coopfin-backend/internal/core/authz"
	"coopfin-backend/internal/pkg/password"

	"gorm.io/gorm"
)

// User service errors
var (
	ErrUserNotFoundSvc     = errors.New("user not found")
	ErrEmailAlreadyExists  = errors.New("email already exists")
	ErrOldPasswordWrong    = errors.New("old password is incorrect")
	ErrCannotChangeOwnRole = errors.New("cannot change your own role")
	ErrInvalidRole         = errors.New("invalid role")
	ErrImportHeader        = errors.New("import file must start with a member_no,username,email header")
)

// UserService handles member account management
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new user service
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsersInput represents list users input
type ListUsersInput struct {
	Page  int
	Limit int
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users      []*models.UserResponse `json:"users"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	Limit      int                    `json:"limit"`
	TotalPages int                    `json:"total_pages"`
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
	IsActive *bool   `json:"is_active"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
	Phone    *string `json:"phone"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, input *ListUsersInput) (*ListUsersOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	offset := (input.Page - 1) * input.Limit

	users, total, err := s.userRepo.List(ctx, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	userResponses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		userResponses[i] = user.ToResponse()
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListUsersOutput{
		Users:      userResponses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFoundSvc
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateUserByAdmin updates a user's profile fields or active flag.
// Role changes go through SetRole only.
func (s *UserService) UpdateUserByAdmin(ctx context.Context, id uint, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFoundSvc
		}
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, _ := s.userRepo.ExistsByEmail(ctx, *input.Email)
		if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// Deactivate marks an account inactive. The record and its history stay;
// the account just cannot log in or be assigned new obligations.
func (s *UserService) Deactivate(ctx context.Context, id uint) error {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFoundSvc
		}
		return err
	}

	user.IsActive = false
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}

	log.Printf("⚠️ User deactivated: %s (ID: %d)", user.Username, user.ID)
	return nil
}

// GetProfile gets own profile with the caller's capability list
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFoundSvc
		}
		return nil, err
	}

	response := user.ToResponse()
	response.Capabilities = authz.CapabilitiesFor(user.Role)
	return response, nil
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFoundSvc
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, _ := s.userRepo.ExistsByEmail(ctx, *input.Email)
		if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFoundSvc
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	if !password.Validate(input.NewPassword) {
		return ErrWeakPassword
	}

	hashedPassword, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashedPassword
	return s.userRepo.Update(ctx, user)
}

// SetRole assigns a role. Super admin only; an admin can never change their
// own role, so at least one super admin always remains.
func (s *UserService) SetRole(ctx context.Context, userID uint, actorID uint, role string) (*models.UserResponse, error) {
	if userID == actorID {
		return nil, ErrCannotChangeOwnRole
	}
	if !authz.IsValidRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFoundSvc
		}
		return nil, err
	}

	user.Role = authz.NormalizeRole(role)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Role changed: %s -> %s (by admin ID: %d)", user.Username, user.Role, actorID)

	response := user.ToResponse()
	response.Capabilities = authz.CapabilitiesFor(user.Role)
	return response, nil
}

// ImportResult reports the outcome of a member import
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// ImportMembers bulk-creates member accounts from a CSV stream with a
// member_no,username,email[,full_name[,phone]] header. Existing member
// numbers, usernames and emails are skipped, not overwritten. Each new
// account gets a random temporary password the member must change.
func (s *UserService) ImportMembers(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, ErrImportHeader
	}
	if len(header) < 3 ||
		strings.TrimSpace(strings.ToLower(header[0])) != "member_no" ||
		strings.TrimSpace(strings.ToLower(header[1])) != "username" ||
		strings.TrimSpace(strings.ToLower(header[2])) != "email" {
		return nil, ErrImportHeader
	}

	result := &ImportResult{}
	line := 1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if len(record) < 3 {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: expected at least 3 fields", line))
			continue
		}

		memberNo := strings.TrimSpace(record[0])
		username := strings.TrimSpace(record[1])
		email := strings.TrimSpace(record[2])
		if memberNo == "" || username == "" || email == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: empty member_no, username or email", line))
			continue
		}

		exists, err := s.userRepo.ExistsByMemberNo(ctx, memberNo)
		if err != nil {
			return nil, err
		}
		if !exists {
			exists, err = s.userRepo.ExistsByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
		}
		if !exists {
			exists, err = s.userRepo.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
		}
		if exists {
			result.Skipped++
			continue
		}

		temp, err := password.GenerateTemporary()
		if err != nil {
			return nil, err
		}
		hashed, err := password.Hash(temp)
		if err != nil {
			return nil, err
		}

		user := &models.User{
			MemberNo: memberNo,
			Username: username,
			Email:    email,
			Password: hashed,
			Role:     models.RoleMember,
			IsActive: true,
		}
		if len(record) > 3 {
			user.FullName = strings.TrimSpace(record[3])
		}
		if len(record) > 4 {
			user.Phone = strings.TrimSpace(record[4])
		}

		if err := s.userRepo.Create(ctx, user); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Created++
	}

	log.Printf("✅ Member import: %d created, %d skipped, %d errors",
		result.Created, result.Skipped, len(result.Errors))

	return result, nil
}
