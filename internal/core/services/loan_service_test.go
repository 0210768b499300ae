package services

import (
	"context"
	"errors"
	"testing"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
)

func TestApplyBlocksSecondOutstandingLoan(t *testing.T) {
	db := openTestDB(t)
	svc := NewLoanService(repositories.NewLoanRepository(db), nil)
	ctx := context.Background()

	member := seedUser(t, db, "M001", models.RoleMember)

	first, err := svc.Apply(ctx, member.ID, &ApplyLoanInput{Amount: 10000, Purpose: "school fees"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if _, err := svc.Apply(ctx, member.ID, &ApplyLoanInput{Amount: 5000}); !errors.Is(err, ErrLoanOutstanding) {
		t.Errorf("second apply while pending: got %v, want ErrLoanOutstanding", err)
	}

	// Approving does not free the member up either
	admin := seedUser(t, db, "A002", models.RoleAdminL2)
	if _, err := svc.Approve(ctx, first.ID, admin.ID, &ApproveLoanInput{InterestRate: 5}); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := svc.Apply(ctx, member.ID, &ApplyLoanInput{Amount: 5000}); !errors.Is(err, ErrLoanOutstanding) {
		t.Errorf("apply with approved loan: got %v, want ErrLoanOutstanding", err)
	}

	// Once paid, a new application goes through
	if _, err := svc.MarkPaid(ctx, first.ID); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if _, err := svc.Apply(ctx, member.ID, &ApplyLoanInput{Amount: 5000}); err != nil {
		t.Errorf("apply after settlement: %v", err)
	}
}

func TestLoanReviewTransitions(t *testing.T) {
	db := openTestDB(t)
	svc := NewLoanService(repositories.NewLoanRepository(db), nil)
	ctx := context.Background()

	member := seedUser(t, db, "M001", models.RoleMember)
	admin := seedUser(t, db, "A002", models.RoleAdminL2)

	loan, err := svc.Apply(ctx, member.ID, &ApplyLoanInput{Amount: 10000})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if _, err := svc.MarkPaid(ctx, loan.ID); !errors.Is(err, ErrLoanNotApproved) {
		t.Errorf("mark pending loan paid: got %v, want ErrLoanNotApproved", err)
	}

	approved, err := svc.Approve(ctx, loan.ID, admin.ID, &ApproveLoanInput{InterestRate: 7.5})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if approved.InterestRate != 7.5 {
		t.Errorf("interest rate = %.2f, want 7.5", approved.InterestRate)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != admin.ID {
		t.Error("approved_by not recorded")
	}

	if _, err := svc.Approve(ctx, loan.ID, admin.ID, nil); !errors.Is(err, ErrLoanNotPending) {
		t.Errorf("re-approve: got %v, want ErrLoanNotPending", err)
	}
	if _, err := svc.Reject(ctx, loan.ID, admin.ID, "too late"); !errors.Is(err, ErrLoanNotPending) {
		t.Errorf("reject approved loan: got %v, want ErrLoanNotPending", err)
	}
}

func TestLoanRejectRecordsReason(t *testing.T) {
	db := openTestDB(t)
	svc := NewLoanService(repositories.NewLoanRepository(db), nil)
	ctx := context.Background()

	member := seedUser(t, db, "M001", models.RoleMember)
	admin := seedUser(t, db, "A002", models.RoleAdminL2)

	loan, err := svc.Apply(ctx, member.ID, &ApplyLoanInput{Amount: 10000})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	rejected, err := svc.Reject(ctx, loan.ID, admin.ID, "insufficient contribution history")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Status != models.StatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
	if rejected.RejectionReason != "insufficient contribution history" {
		t.Errorf("reason = %q", rejected.RejectionReason)
	}

	// A rejected loan no longer blocks new applications
	if _, err := svc.Apply(ctx, member.ID, &ApplyLoanInput{Amount: 5000}); err != nil {
		t.Errorf("apply after rejection: %v", err)
	}
}
