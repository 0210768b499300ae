package services

import (
	"context"
	"errors"
	"testing"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
)

func TestDonationLifecycle(t *testing.T) {
	db := openTestDB(t)
	svc := NewDonationService(repositories.NewDonationRepository(db))
	ctx := context.Background()
	member := seedUser(t, db, "M001", models.RoleMember)

	if _, err := svc.Create(ctx, member.ID, &CreateDonationInput{Title: "", Amount: 500}); !errors.Is(err, ErrTitleRequired) {
		t.Errorf("blank title: got %v, want ErrTitleRequired", err)
	}
	if _, err := svc.Create(ctx, member.ID, &CreateDonationInput{Title: "Building fund", Amount: 0}); !errors.Is(err, ErrAmountNotPositive) {
		t.Errorf("zero amount: got %v, want ErrAmountNotPositive", err)
	}

	donation, err := svc.Create(ctx, member.ID, &CreateDonationInput{Title: "Building fund", Amount: 1500})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if donation.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", donation.Status)
	}

	rejected, err := svc.Reject(ctx, donation.ID, "no matching bank transfer")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.StatusRejected || rejected.RejectionReason != "no matching bank transfer" {
		t.Errorf("rejection not recorded: %+v", rejected)
	}

	if _, err := svc.Reject(ctx, donation.ID, "again"); !errors.Is(err, ErrDonationNotPending) {
		t.Errorf("double reject: got %v, want ErrDonationNotPending", err)
	}

	if _, err := svc.GetByID(ctx, 9999); !errors.Is(err, ErrDonationNotFound) {
		t.Errorf("missing id: got %v, want ErrDonationNotFound", err)
	}
}

func TestDonationListByStatusAndOwner(t *testing.T) {
	db := openTestDB(t)
	svc := NewDonationService(repositories.NewDonationRepository(db))
	ctx := context.Background()
	alice := seedUser(t, db, "M001", models.RoleMember)
	bob := seedUser(t, db, "M002", models.RoleMember)

	d1, _ := svc.Create(ctx, alice.ID, &CreateDonationInput{Title: "Harvest drive", Amount: 800})
	svc.Create(ctx, alice.ID, &CreateDonationInput{Title: "Relief fund", Amount: 1200})
	svc.Create(ctx, bob.ID, &CreateDonationInput{Title: "Relief fund", Amount: 300})
	svc.Reject(ctx, d1.ID, "duplicate entry")

	pending, total, err := svc.List(ctx, models.StatusPending, 0, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(pending) != 2 {
		t.Errorf("pending total = %d len = %d, want 2", total, len(pending))
	}

	mine, err := svc.ListByUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("alice donations = %d, want 2", len(mine))
	}
	for _, d := range mine {
		if d.UserID != alice.ID {
			t.Errorf("foreign donation in member listing: %+v", d)
		}
	}
}
