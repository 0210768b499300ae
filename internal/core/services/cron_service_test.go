package services

import (
	"context"
	"testing"
	"time"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
)

func TestOverdueSweepMarksPastDueObligations(t *testing.T) {
	db := openTestDB(t)
	svc := NewCronService(db, repositories.NewSettingRepository(db), repositories.NewRefreshTokenRepository(db), nil)

	member := seedUser(t, db, "M001", models.RoleMember)

	past := time.Now().AddDate(0, 0, -7)
	future := time.Now().AddDate(0, 0, 7)

	pastDue := &models.Due{Title: "Old dues", Amount: 1000, DueDate: &past, CreatedBy: 1}
	futureDue := &models.Due{Title: "Next dues", Amount: 1000, DueDate: &future, CreatedBy: 1}
	db.Create(pastDue)
	db.Create(futureDue)

	overdue := &models.MemberDue{DueID: pastDue.ID, UserID: member.ID, Amount: 1000, Balance: 600, AmountPaid: 400, Status: models.StatusPartial}
	current := &models.MemberDue{DueID: futureDue.ID, UserID: member.ID, Amount: 1000, Balance: 1000, Status: models.StatusPending}
	db.Create(overdue)
	db.Create(current)

	svc.runOverdueSweep()

	var fresh models.MemberDue
	db.First(&fresh, overdue.ID)
	if fresh.Status != models.StatusOverdue {
		t.Errorf("past-due status = %s, want overdue", fresh.Status)
	}
	if fresh.Balance != 600 || fresh.AmountPaid != 400 {
		t.Errorf("sweep touched balances: balance=%.2f paid=%.2f", fresh.Balance, fresh.AmountPaid)
	}

	fresh = models.MemberDue{}
	db.First(&fresh, current.ID)
	if fresh.Status != models.StatusPending {
		t.Errorf("future-due status = %s, want still pending", fresh.Status)
	}
}

func TestTokenCleanupDeletesOnlyExpired(t *testing.T) {
	db := openTestDB(t)
	svc := NewCronService(db, repositories.NewSettingRepository(db), repositories.NewRefreshTokenRepository(db), nil)

	member := seedUser(t, db, "M001", models.RoleMember)

	expired := &models.RefreshToken{UserID: member.ID, TokenHash: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	valid := &models.RefreshToken{UserID: member.ID, TokenHash: "new", ExpiresAt: time.Now().Add(time.Hour)}
	db.Create(expired)
	db.Create(valid)

	svc.runTokenCleanup()

	var count int64
	db.WithContext(context.Background()).Model(&models.RefreshToken{}).Count(&count)
	if count != 1 {
		t.Fatalf("token rows = %d, want 1", count)
	}
	var remaining models.RefreshToken
	db.First(&remaining)
	if remaining.TokenHash != "new" {
		t.Errorf("remaining token = %s, want the unexpired one", remaining.TokenHash)
	}
}
