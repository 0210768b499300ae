package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
	"coopfin-backend/internal/config"
	"coopfin-backend/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

func seedHandlerUser(t *testing.T, db *gorm.DB, memberNo, role string) *models.User {
	t.Helper()
	user := &models.User{
		MemberNo: memberNo,
		Username: "user-" + memberNo,
		Email:    fmt.Sprintf("%s@test.local", memberNo),
		Password: "x",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedHandlerPayment(t *testing.T, db *gorm.DB, userID uint, paymentType string, amount float64) *models.Payment {
	t.Helper()
	payment := &models.Payment{
		Reference:   fmt.Sprintf("PAY-%s-%d", paymentType, userID),
		UserID:      userID,
		Amount:      amount,
		PaymentType: paymentType,
		PaymentDate: time.Now(),
		Status:      models.StatusPending,
	}
	if err := db.Create(payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	return payment
}

// newPaymentTestApp wires the payment routes behind a stub auth layer so
// handler-level authorization can be exercised per role.
func newPaymentTestApp(db *gorm.DB, userID uint, role string) *fiber.App {
	paymentSvc := services.NewPaymentService(
		db,
		repositories.NewPaymentRepository(db),
		repositories.NewMemberDueRepository(db),
		repositories.NewMemberLevyRepository(db),
		repositories.NewPledgeRepository(db),
		repositories.NewDonationRepository(db),
		repositories.NewLoanRepository(db),
		nil,
	)
	authSvc := services.NewAuthService(
		repositories.NewUserRepository(db),
		repositories.NewRefreshTokenRepository(db),
		&config.Config{JWT: config.JWTConfig{Secret: "s", RefreshSecret: "r", AccessTokenMins: 15, RefreshTokenDays: 7}},
	)
	handler := NewPaymentHandler(paymentSvc, authSvc)

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", userID)
		c.Locals("role", role)
		return c.Next()
	})
	app.Get("/payments", handler.List)
	app.Get("/payments/:id", handler.Get)
	return app
}

func getBody(t *testing.T, app *fiber.App, path string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestListHidesLoanRepaymentsFromLevel1(t *testing.T) {
	db := openHandlerTestDB(t)
	member := seedHandlerUser(t, db, "M001", models.RoleMember)
	level1 := seedHandlerUser(t, db, "A001", models.RoleAdminL1)
	level2 := seedHandlerUser(t, db, "A002", models.RoleAdminL2)

	seedHandlerPayment(t, db, member.ID, models.PaymentTypeDue, 1000)
	seedHandlerPayment(t, db, member.ID, models.PaymentTypeLoanRepayment, 8000)

	// Unfiltered listing as level 1 must not surface loan repayments
	status, body := getBody(t, newPaymentTestApp(db, level1.ID, level1.Role), "/payments")
	if status != fiber.StatusOK {
		t.Fatalf("level 1 list: status %d, want 200", status)
	}
	if strings.Contains(body, models.PaymentTypeLoanRepayment) {
		t.Error("level 1 unfiltered listing surfaced a loan repayment")
	}
	if !strings.Contains(body, models.PaymentTypeDue) {
		t.Error("level 1 listing missing the due payment")
	}

	// Asking for them outright is forbidden
	status, _ = getBody(t, newPaymentTestApp(db, level1.ID, level1.Role), "/payments?payment_type=loan_repayment")
	if status != fiber.StatusForbidden {
		t.Errorf("level 1 explicit filter: status %d, want 403", status)
	}

	// Level 2 sees the full listing
	status, body = getBody(t, newPaymentTestApp(db, level2.ID, level2.Role), "/payments")
	if status != fiber.StatusOK {
		t.Fatalf("level 2 list: status %d, want 200", status)
	}
	if !strings.Contains(body, models.PaymentTypeLoanRepayment) {
		t.Error("level 2 listing missing the loan repayment")
	}
}

func TestGetLoanRepaymentDeniedToLevel1(t *testing.T) {
	db := openHandlerTestDB(t)
	member := seedHandlerUser(t, db, "M001", models.RoleMember)
	level1 := seedHandlerUser(t, db, "A001", models.RoleAdminL1)
	level2 := seedHandlerUser(t, db, "A002", models.RoleAdminL2)

	payment := seedHandlerPayment(t, db, member.ID, models.PaymentTypeLoanRepayment, 8000)
	path := fmt.Sprintf("/payments/%d", payment.ID)

	if status, _ := getBody(t, newPaymentTestApp(db, level1.ID, level1.Role), path); status != fiber.StatusForbidden {
		t.Errorf("level 1 get: status %d, want 403", status)
	}
	if status, _ := getBody(t, newPaymentTestApp(db, level2.ID, level2.Role), path); status != fiber.StatusOK {
		t.Errorf("level 2 get: status %d, want 200", status)
	}
}
