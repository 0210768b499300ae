package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
)

func TestBuildRejectsUnknownType(t *testing.T) {
	db := openTestDB(t)
	svc := NewReportService(db, repositories.NewTransactionRepository(db))

	if _, err := svc.Build(context.Background(), &ReportInput{Type: "quarterly"}); !errors.Is(err, ErrUnknownReportType) {
		t.Errorf("unknown type: got %v, want ErrUnknownReportType", err)
	}
	if _, err := svc.Build(context.Background(), &ReportInput{Type: ReportPayments, From: "15-01-2026"}); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("bad date: got %v, want ErrInvalidDateRange", err)
	}
}

func TestFinancialSummaryCountsOnlyApproved(t *testing.T) {
	db := openTestDB(t)
	svc := NewReportService(db, repositories.NewTransactionRepository(db))
	paymentSvc := newTestPaymentService(db)
	ctx := context.Background()

	member := seedUser(t, db, "M001", models.RoleMember)
	admin := seedUser(t, db, "A001", models.RoleAdminL1)
	md := seedMemberDue(t, db, member.ID, 5000)

	approved, err := paymentSvc.Record(ctx, &RecordPaymentInput{
		Amount: 5000, PaymentType: models.PaymentTypeDue, RelatedID: &md.ID,
	}, member)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := paymentSvc.Approve(ctx, approved.ID, admin); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	// A pending donation must not count
	if _, err := paymentSvc.Record(ctx, &RecordPaymentInput{
		Amount: 900, PaymentType: models.PaymentTypeDonation,
	}, member); err != nil {
		t.Fatalf("Record pending: %v", err)
	}

	db.Create(&models.Transaction{Type: models.TxTypeIncome, Amount: 2000, Date: time.Now(), RecordedBy: admin.ID})
	db.Create(&models.Transaction{Type: models.TxTypeExpense, Amount: 700, Date: time.Now(), RecordedBy: admin.ID})

	out, err := svc.Build(ctx, &ReportInput{Type: ReportFinancialSummary})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	report := out.(*FinancialSummaryReport)

	if report.TotalCollected != 5000 {
		t.Errorf("total collected = %.2f, want 5000", report.TotalCollected)
	}
	if report.CollectedByType[models.PaymentTypeDue] != 5000 {
		t.Errorf("collected by due = %.2f", report.CollectedByType[models.PaymentTypeDue])
	}
	if report.OtherIncome != 2000 || report.TotalExpenses != 700 {
		t.Errorf("tx book: income=%.2f expenses=%.2f", report.OtherIncome, report.TotalExpenses)
	}
	if report.NetPosition != 6300 {
		t.Errorf("net position = %.2f, want 6300", report.NetPosition)
	}
}

func TestDuesComplianceReport(t *testing.T) {
	db := openTestDB(t)
	svc := NewReportService(db, repositories.NewTransactionRepository(db))
	paymentSvc := newTestPaymentService(db)
	ctx := context.Background()

	settled := seedUser(t, db, "M001", models.RoleMember)
	owing := seedUser(t, db, "M002", models.RoleMember)
	admin := seedUser(t, db, "A001", models.RoleAdminL1)

	mdSettled := seedMemberDue(t, db, settled.ID, 1000)
	seedMemberDue(t, db, owing.ID, 1000)

	p, err := paymentSvc.Record(ctx, &RecordPaymentInput{
		Amount: 1000, PaymentType: models.PaymentTypeDue, RelatedID: &mdSettled.ID,
	}, settled)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if _, err := paymentSvc.Approve(ctx, p.ID, admin); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	out, err := svc.Build(ctx, &ReportInput{Type: ReportDuesCompliance})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	report := out.(*DuesComplianceReport)

	if len(report.Members) != 2 {
		t.Fatalf("rows = %d, want 2", len(report.Members))
	}
	// Highest outstanding first
	if report.Members[0].UserID != owing.ID || report.Members[0].Outstanding != 1000 {
		t.Errorf("first row = %+v, want the owing member", report.Members[0])
	}
	if report.Members[1].Outstanding != 0 || report.Members[1].TotalPaid != 1000 {
		t.Errorf("settled row = %+v", report.Members[1])
	}
	if report.CompliancePercent != 50 {
		t.Errorf("compliance = %.2f, want 50", report.CompliancePercent)
	}
}
