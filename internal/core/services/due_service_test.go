package services

import (
	"context"
	"errors"
	"testing"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

func newTestDueService(db *gorm.DB) *DueService {
	return NewDueService(
		repositories.NewDueRepository(db),
		repositories.NewMemberDueRepository(db),
		repositories.NewUserRepository(db),
		nil,
	)
}

func TestDueCreateValidation(t *testing.T) {
	db := openTestDB(t)
	svc := newTestDueService(db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &TemplateInput{Amount: 100}, 1); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("missing title: got %v, want ErrTitleRequired", err)
	}
	if _, err := svc.Create(ctx, &TemplateInput{Title: "Annual dues"}, 1); !errors.Is(err, ErrAmountNotPositive) {
		t.Errorf("zero amount: got %v, want ErrAmountNotPositive", err)
	}
	if _, err := svc.Create(ctx, &TemplateInput{Title: "Annual dues", Amount: 100, DueDate: "03/15/2026"}, 1); !errors.Is(err, ErrInvalidDueDate) {
		t.Errorf("bad date: got %v, want ErrInvalidDueDate", err)
	}

	due, err := svc.Create(ctx, &TemplateInput{Title: "Annual dues", Amount: 5000, DueDate: "2026-12-31"}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if due.DueDate == nil {
		t.Error("due date not parsed")
	}
}

func TestAssignIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	svc := newTestDueService(db)
	ctx := context.Background()

	m1 := seedUser(t, db, "M001", models.RoleMember)
	m2 := seedUser(t, db, "M002", models.RoleMember)

	due, err := svc.Create(ctx, &TemplateInput{Title: "Annual dues", Amount: 5000}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.Assign(ctx, due.ID, &AssignInput{MemberIDs: []uint{m1.ID, m2.ID}})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if result.Assigned != 2 || result.Skipped != 0 {
		t.Errorf("first assign: %+v, want 2 assigned", result)
	}

	// Re-assigning must not duplicate
	result, err = svc.Assign(ctx, due.ID, &AssignInput{MemberIDs: []uint{m1.ID, m2.ID}})
	if err != nil {
		t.Fatalf("Assign again: %v", err)
	}
	if result.Assigned != 0 || result.Skipped != 2 {
		t.Errorf("second assign: %+v, want 2 skipped", result)
	}

	var count int64
	db.Model(&models.MemberDue{}).Where("due_id = ?", due.ID).Count(&count)
	if count != 2 {
		t.Errorf("member due rows = %d, want 2", count)
	}
}

func TestAssignDefaultsToActiveMembers(t *testing.T) {
	db := openTestDB(t)
	svc := newTestDueService(db)
	ctx := context.Background()

	seedUser(t, db, "M001", models.RoleMember)
	inactive := seedUser(t, db, "M002", models.RoleMember)
	db.Model(inactive).Update("is_active", false)

	due, err := svc.Create(ctx, &TemplateInput{Title: "Harmattan levy", Amount: 500}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.Assign(ctx, due.ID, &AssignInput{})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if result.Assigned != 1 {
		t.Errorf("assigned = %d, want 1 (inactive member excluded)", result.Assigned)
	}
}

func TestAssignCopiesAmountAtAssignmentTime(t *testing.T) {
	db := openTestDB(t)
	svc := newTestDueService(db)
	ctx := context.Background()

	m1 := seedUser(t, db, "M001", models.RoleMember)
	m2 := seedUser(t, db, "M002", models.RoleMember)

	due, err := svc.Create(ctx, &TemplateInput{Title: "Annual dues", Amount: 5000}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Assign(ctx, due.ID, &AssignInput{MemberIDs: []uint{m1.ID}}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	// Raising the template must not touch existing assignments
	if _, err := svc.Update(ctx, due.ID, &TemplateInput{Amount: 6000}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := svc.Assign(ctx, due.ID, &AssignInput{MemberIDs: []uint{m2.ID}}); err != nil {
		t.Fatalf("Assign second: %v", err)
	}

	var first, second models.MemberDue
	db.Where("due_id = ? AND user_id = ?", due.ID, m1.ID).First(&first)
	db.Where("due_id = ? AND user_id = ?", due.ID, m2.ID).First(&second)
	if first.Amount != 5000 || first.Balance != 5000 {
		t.Errorf("earlier assignment changed: amount=%.2f balance=%.2f", first.Amount, first.Balance)
	}
	if second.Amount != 6000 {
		t.Errorf("later assignment amount = %.2f, want 6000", second.Amount)
	}
}
