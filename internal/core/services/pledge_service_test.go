package services

import (
	"context"
	"errors"
	"testing"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
)

func TestPledgeLifecycle(t *testing.T) {
	db := openTestDB(t)
	svc := NewPledgeService(repositories.NewPledgeRepository(db))
	ctx := context.Background()

	member := seedUser(t, db, "M001", models.RoleMember)

	if _, err := svc.Create(ctx, member.ID, &CreatePledgeInput{Amount: 100}); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("missing title: got %v, want ErrTitleRequired", err)
	}
	if _, err := svc.Create(ctx, member.ID, &CreatePledgeInput{Title: "Building fund"}); !errors.Is(err, ErrAmountNotPositive) {
		t.Errorf("zero amount: got %v, want ErrAmountNotPositive", err)
	}

	pledge, err := svc.Create(ctx, member.ID, &CreatePledgeInput{
		Title: "Building fund", Amount: 2500, FulfillDate: "2026-11-30",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if pledge.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", pledge.Status)
	}
	if pledge.FulfillDate == nil {
		t.Error("fulfill date not parsed")
	}

	rejected, err := svc.Reject(ctx, pledge.ID, "duplicate of an earlier pledge")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}

	if _, err := svc.Reject(ctx, pledge.ID, "again"); !errors.Is(err, ErrPledgeNotPending) {
		t.Errorf("re-reject: got %v, want ErrPledgeNotPending", err)
	}
}

func TestPledgeListByStatus(t *testing.T) {
	db := openTestDB(t)
	svc := NewPledgeService(repositories.NewPledgeRepository(db))
	ctx := context.Background()

	member := seedUser(t, db, "M001", models.RoleMember)

	p1, _ := svc.Create(ctx, member.ID, &CreatePledgeInput{Title: "Building fund", Amount: 2500})
	svc.Create(ctx, member.ID, &CreatePledgeInput{Title: "Scholarship fund", Amount: 1000})
	svc.Reject(ctx, p1.ID, "withdrawn")

	pending, total, err := svc.List(ctx, models.StatusPending, 0, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(pending) != 1 {
		t.Errorf("pending = %d, want 1", total)
	}

	mine, err := svc.ListByUser(ctx, member.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("member pledges = %d, want 2", len(mine))
	}
}
