package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"coopfin-backend/internal/config"
	"coopfin-backend/internal/core/authz"
	"coopfin-backend/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
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

func newTestApp(cfg *config.Config) *fiber.App {
	app := fiber.New()
	protected := app.Group("", AuthMiddleware(cfg))
	protected.Get("/open", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	protected.Get("/loans", RequireCapability(authz.CapLoansManage), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func tokenFor(t *testing.T, cfg *config.Config, role string) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(1, "M001", "tester", role, cfg.JWT.Secret, cfg.JWT.AccessTokenMins)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, app *fiber.App, path, bearer string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	return resp
}

func TestAuthMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	cfg := testConfig()
	app := newTestApp(cfg)

	if resp := doRequest(t, app, "/open", ""); resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", resp.StatusCode)
	}
	if resp := doRequest(t, app, "/open", "not-a-jwt"); resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", resp.StatusCode)
	}

	wrongKey, err := jwt.GenerateAccessToken(1, "M001", "tester", "member", "other-secret", 15)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if resp := doRequest(t, app, "/open", wrongKey); resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("wrong signing key: status %d, want 401", resp.StatusCode)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	cfg := testConfig()
	app := newTestApp(cfg)

	resp := doRequest(t, app, "/open", tokenFor(t, cfg, "member"))
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("valid token: status %d, want 200", resp.StatusCode)
	}
}

func TestAuthMiddlewareReadsCookie(t *testing.T) {
	cfg := testConfig()
	app := newTestApp(cfg)

	req := httptest.NewRequest(http.MethodGet, "/open", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: tokenFor(t, cfg, "member")})
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("cookie token: status %d, want 200", resp.StatusCode)
	}
}

func TestRequireCapabilityTierGate(t *testing.T) {
	cfg := testConfig()
	app := newTestApp(cfg)

	tests := []struct {
		role string
		want int
	}{
		{"member", fiber.StatusForbidden},
		{"admin_level_1", fiber.StatusForbidden},
		{"admin", fiber.StatusForbidden},
		{"admin_level_2", fiber.StatusOK},
		{"super_admin", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			resp := doRequest(t, app, "/loans", tokenFor(t, cfg, tt.role))
			if resp.StatusCode != tt.want {
				t.Errorf("role %s on loans route: status %d, want %d", tt.role, resp.StatusCode, tt.want)
			}
		})
	}
}
