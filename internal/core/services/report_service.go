package services

import (
	"context"
	"errors"
	"time"

	"coopfin-backend/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Report service errors
var (
	ErrUnknownReportType = errors.New("unknown report type")
)

// Report types
const (
	ReportFinancialSummary = "financial-summary"
	ReportDuesCompliance   = "dues-compliance"
	ReportPayments         = "payments"
)

// ReportService builds period reports over the ledger and the
// organizational transaction book
type ReportService struct {
	db     *gorm.DB
	txRepo *repositories.TransactionRepository
}

// NewReportService creates a new report service
func NewReportService(db *gorm.DB, txRepo *repositories.TransactionRepository) *ReportService {
	return &ReportService{db: db, txRepo: txRepo}
}

// ReportInput represents report parameters
type ReportInput struct {
	Type string
	From string
	To   string
}

// FinancialSummaryReport totals income against expenses for a period
type FinancialSummaryReport struct {
	From            string             `json:"from,omitempty"`
	To              string             `json:"to,omitempty"`
	TotalCollected  float64            `json:"total_collected"`
	CollectedByType map[string]float64 `json:"collected_by_type"`
	OtherIncome     float64            `json:"other_income"`
	TotalExpenses   float64            `json:"total_expenses"`
	NetPosition     float64            `json:"net_position"`
}

// DuesComplianceRow is one member's standing in the compliance report
type DuesComplianceRow struct {
	UserID      uint    `json:"user_id"`
	MemberNo    string  `json:"member_no"`
	Username    string  `json:"username"`
	TotalDue    float64 `json:"total_due"`
	TotalPaid   float64 `json:"total_paid"`
	Outstanding float64 `json:"outstanding"`
}

// DuesComplianceReport lists per-member dues standing
type DuesComplianceReport struct {
	Members           []DuesComplianceRow `json:"members"`
	CompliancePercent float64             `json:"compliance_percent"`
}

// PaymentsReportRow is one payment type's totals for the period
type PaymentsReportRow struct {
	PaymentType string  `json:"payment_type"`
	Count       int64   `json:"count"`
	Total       float64 `json:"total"`
}

// PaymentsReport breaks approved payments down by type for a period
type PaymentsReport struct {
	From  string              `json:"from,omitempty"`
	To    string              `json:"to,omitempty"`
	Rows  []PaymentsReportRow `json:"rows"`
	Total float64             `json:"total"`
}

// Build dispatches on the report type
func (s *ReportService) Build(ctx context.Context, input *ReportInput) (interface{}, error) {
	from, to, err := parseDateRange(input.From, input.To)
	if err != nil {
		return nil, err
	}

	switch input.Type {
	case ReportFinancialSummary:
		return s.financialSummary(ctx, input, from, to)
	case ReportDuesCompliance:
		return s.duesCompliance(ctx)
	case ReportPayments:
		return s.paymentsReport(ctx, input, from, to)
	}
	return nil, ErrUnknownReportType
}

func (s *ReportService) financialSummary(ctx context.Context, input *ReportInput, from, to *time.Time) (*FinancialSummaryReport, error) {
	report := &FinancialSummaryReport{
		From:            input.From,
		To:              input.To,
		CollectedByType: map[string]float64{},
	}

	query := s.db.WithContext(ctx).Table("payments").Where("status = ?", "approved")
	if from != nil {
		query = query.Where("approved_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("approved_at <= ?", *to)
	}
	if err := query.Select("COALESCE(SUM(amount), 0)").Scan(&report.TotalCollected).Error; err != nil {
		return nil, err
	}

	var byType []struct {
		PaymentType string
		Total       float64
	}
	typeQuery := s.db.WithContext(ctx).Table("payments").
		Select("payment_type, COALESCE(SUM(amount), 0) as total").
		Where("status = ?", "approved")
	if from != nil {
		typeQuery = typeQuery.Where("approved_at >= ?", *from)
	}
	if to != nil {
		typeQuery = typeQuery.Where("approved_at <= ?", *to)
	}
	if err := typeQuery.Group("payment_type").Scan(&byType).Error; err != nil {
		return nil, err
	}
	for _, row := range byType {
		report.CollectedByType[row.PaymentType] = row.Total
	}

	income, err := s.txRepo.SumByType(ctx, "income", from, to)
	if err != nil {
		return nil, err
	}
	expenses, err := s.txRepo.SumByType(ctx, "expense", from, to)
	if err != nil {
		return nil, err
	}

	report.OtherIncome = income
	report.TotalExpenses = expenses
	report.NetPosition = report.TotalCollected + income - expenses
	return report, nil
}

func (s *ReportService) duesCompliance(ctx context.Context) (*DuesComplianceReport, error) {
	var rows []DuesComplianceRow
	err := s.db.WithContext(ctx).Table("member_dues").
		Select(`
			member_dues.user_id,
			users.member_no,
			users.username,
			COALESCE(SUM(member_dues.amount), 0) as total_due,
			COALESCE(SUM(member_dues.amount_paid), 0) as total_paid,
			COALESCE(SUM(member_dues.balance), 0) as outstanding
		`).
		Joins("JOIN users ON member_dues.user_id = users.id").
		Group("member_dues.user_id, users.member_no, users.username").
		Order("outstanding DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	report := &DuesComplianceReport{Members: rows}

	var totalDues, settledDues int64
	s.db.WithContext(ctx).Table("member_dues").Count(&totalDues)
	s.db.WithContext(ctx).Table("member_dues").Where("balance = 0").Count(&settledDues)
	if totalDues > 0 {
		report.CompliancePercent = float64(settledDues) / float64(totalDues) * 100
	}

	return report, nil
}

func (s *ReportService) paymentsReport(ctx context.Context, input *ReportInput, from, to *time.Time) (*PaymentsReport, error) {
	report := &PaymentsReport{From: input.From, To: input.To}

	query := s.db.WithContext(ctx).Table("payments").
		Select("payment_type, COUNT(*) as count, COALESCE(SUM(amount), 0) as total").
		Where("status = ?", "approved")
	if from != nil {
		query = query.Where("approved_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("approved_at <= ?", *to)
	}

	if err := query.Group("payment_type").Scan(&report.Rows).Error; err != nil {
		return nil, err
	}

	for _, row := range report.Rows {
		report.Total += row.Total
	}
	return report, nil
}
