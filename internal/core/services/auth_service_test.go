package services

import (
	"context"
	"errors"
	"testing"

	"coopfin-backend/internal/adapters/persistence/repositories"
	"coopfin-backend/internal/config"

	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
}

func newTestAuthService(db *gorm.DB) *AuthService {
	return NewAuthService(
		repositories.NewUserRepository(db),
		repositories.NewRefreshTokenRepository(db),
		testConfig(),
	)
}

func TestRegisterAndLogin(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterInput{
		MemberNo: "M100",
		Username: "adaeze",
		Email:    "adaeze@test.local",
		Password: "longenough1",
		FullName: "Adaeze O.",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.User.Role != "member" {
		t.Errorf("self-registration role = %s, want member", resp.User.Role)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("tokens not issued on register")
	}
	if len(resp.User.Capabilities) != 0 {
		t.Errorf("member capabilities = %v, want none", resp.User.Capabilities)
	}

	login, err := svc.Login(ctx, &LoginInput{Username: "adaeze", Password: "longenough1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.User.MemberNo != "M100" {
		t.Errorf("login member_no = %s", login.User.MemberNo)
	}

	if _, err := svc.Login(ctx, &LoginInput{Username: "adaeze", Password: "wrongpass1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password: got %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginByMemberNoAndEmail(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, &RegisterInput{
		MemberNo: "M100", Username: "adaeze", Email: "adaeze@test.local", Password: "longenough1",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, identifier := range []string{"M100", "adaeze@test.local"} {
		resp, err := svc.Login(ctx, &LoginInput{Username: identifier, Password: "longenough1"})
		if err != nil {
			t.Fatalf("Login as %q: %v", identifier, err)
		}
		if resp.User.Username != "adaeze" {
			t.Errorf("Login as %q resolved to %s", identifier, resp.User.Username)
		}
	}

	if _, err := svc.Login(ctx, &LoginInput{Username: "nobody@test.local", Password: "longenough1"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown identifier: got %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterRejectsDuplicatesAndWeakPasswords(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	base := &RegisterInput{MemberNo: "M100", Username: "adaeze", Email: "adaeze@test.local", Password: "longenough1"}
	if _, err := svc.Register(ctx, base); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := svc.Register(ctx, &RegisterInput{
		MemberNo: "M100", Username: "other", Email: "other@test.local", Password: "longenough1",
	}); !errors.Is(err, ErrMemberNoTaken) {
		t.Errorf("duplicate member_no: got %v, want ErrMemberNoTaken", err)
	}

	if _, err := svc.Register(ctx, &RegisterInput{
		MemberNo: "M101", Username: "adaeze", Email: "other@test.local", Password: "longenough1",
	}); !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("duplicate username: got %v, want ErrUserAlreadyExists", err)
	}

	if _, err := svc.Register(ctx, &RegisterInput{
		MemberNo: "M102", Username: "third", Email: "third@test.local", Password: "short",
	}); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak password: got %v, want ErrWeakPassword", err)
	}
}

func TestRefreshTokenRotation(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterInput{
		MemberNo: "M100", Username: "adaeze", Email: "adaeze@test.local", Password: "longenough1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	refreshed, err := svc.RefreshToken(ctx, resp.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if refreshed.RefreshToken == resp.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The old token is revoked after rotation
	if _, err := svc.RefreshToken(ctx, resp.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("reusing rotated token: got %v, want ErrTokenRevoked", err)
	}

	// The new one still works
	if _, err := svc.RefreshToken(ctx, refreshed.RefreshToken); err != nil {
		t.Errorf("fresh token refresh: %v", err)
	}
}

func TestLogoutAllRevokesEverySession(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterInput{
		MemberNo: "M100", Username: "adaeze", Email: "adaeze@test.local", Password: "longenough1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	second, err := svc.Login(ctx, &LoginInput{Username: "adaeze", Password: "longenough1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.LogoutAll(ctx, resp.User.ID); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}

	if _, err := svc.RefreshToken(ctx, resp.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("first session after logout-all: got %v, want ErrTokenRevoked", err)
	}
	if _, err := svc.RefreshToken(ctx, second.RefreshToken); !errors.Is(err, ErrTokenRevoked) {
		t.Errorf("second session after logout-all: got %v, want ErrTokenRevoked", err)
	}
}

func TestInactiveUserCannotLogin(t *testing.T) {
	db := openTestDB(t)
	svc := newTestAuthService(db)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &RegisterInput{
		MemberNo: "M100", Username: "adaeze", Email: "adaeze@test.local", Password: "longenough1",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	db.Table("users").Where("id = ?", resp.User.ID).Update("is_active", false)

	if _, err := svc.Login(ctx, &LoginInput{Username: "adaeze", Password: "longenough1"}); !errors.Is(err, ErrUserInactive) {
		t.Errorf("inactive login: got %v, want ErrUserInactive", err)
	}
	if _, err := svc.RefreshToken(ctx, resp.RefreshToken); !errors.Is(err, ErrUserInactive) {
		t.Errorf("inactive refresh: got %v, want ErrUserInactive", err)
	}
}
