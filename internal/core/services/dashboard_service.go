package services

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DashboardService aggregates ledger figures for the dashboard endpoints.
// Everything here is read-only; figures are computed from approved records.
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// ============================================================
// Admin Dashboard
// ============================================================

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	// Member statistics
	TotalMembers  int64 `json:"total_members"`
	ActiveMembers int64 `json:"active_members"`
	TotalAdmins   int64 `json:"total_admins"`

	// Payment statistics
	PendingPayments  int64   `json:"pending_payments"`
	ApprovedPayments int64   `json:"approved_payments"`
	RejectedPayments int64   `json:"rejected_payments"`
	TotalCollected   float64 `json:"total_collected"`
	CollectedByType  map[string]float64 `json:"collected_by_type"`

	// Obligation statistics
	DuesOutstanding   float64 `json:"dues_outstanding"`
	LeviesOutstanding float64 `json:"levies_outstanding"`
	DuesCompliance    float64 `json:"dues_compliance_percent"`

	// Commitment statistics
	PendingPledges   int64 `json:"pending_pledges"`
	PendingDonations int64 `json:"pending_donations"`
	PendingLoans     int64 `json:"pending_loans"`

	// This month
	CollectedThisMonth float64 `json:"collected_this_month"`
	PaymentsThisMonth  int64   `json:"payments_this_month"`

	// Recent activity
	RecentPayments []PaymentSummary `json:"recent_payments"`
}

// PaymentSummary represents a payment line on the dashboard
type PaymentSummary struct {
	ID          uint      `json:"id"`
	Reference   string    `json:"reference"`
	MemberName  string    `json:"member_name"`
	Amount      float64   `json:"amount"`
	PaymentType string    `json:"payment_type"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	data := &AdminDashboardData{CollectedByType: map[string]float64{}}

	// Member counts
	s.db.WithContext(ctx).Table("users").Where("deleted_at IS NULL").Count(&data.TotalMembers)
	s.db.WithContext(ctx).Table("users").Where("is_active = ? AND deleted_at IS NULL", true).Count(&data.ActiveMembers)
	s.db.WithContext(ctx).Table("users").
		Where("role <> ? AND deleted_at IS NULL", "member").
		Count(&data.TotalAdmins)

	// Payment counts by status
	s.db.WithContext(ctx).Table("payments").Where("status = ?", "pending").Count(&data.PendingPayments)
	s.db.WithContext(ctx).Table("payments").Where("status = ?", "approved").Count(&data.ApprovedPayments)
	s.db.WithContext(ctx).Table("payments").Where("status = ?", "rejected").Count(&data.RejectedPayments)

	// Only approved payments count toward collections
	s.db.WithContext(ctx).Table("payments").
		Where("status = ?", "approved").
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.TotalCollected)

	var byType []struct {
		PaymentType string
		Total       float64
	}
	s.db.WithContext(ctx).Table("payments").
		Select("payment_type, COALESCE(SUM(amount), 0) as total").
		Where("status = ?", "approved").
		Group("payment_type").
		Scan(&byType)
	for _, row := range byType {
		data.CollectedByType[row.PaymentType] = row.Total
	}

	// Outstanding obligations
	s.db.WithContext(ctx).Table("member_dues").
		Select("COALESCE(SUM(balance), 0)").
		Scan(&data.DuesOutstanding)
	s.db.WithContext(ctx).Table("member_levies").
		Select("COALESCE(SUM(balance), 0)").
		Scan(&data.LeviesOutstanding)

	// Compliance: settled member dues over all member dues
	var totalDues, settledDues int64
	s.db.WithContext(ctx).Table("member_dues").Count(&totalDues)
	s.db.WithContext(ctx).Table("member_dues").Where("balance = 0").Count(&settledDues)
	if totalDues > 0 {
		data.DuesCompliance = float64(settledDues) / float64(totalDues) * 100
	}

	// Pending commitments
	s.db.WithContext(ctx).Table("pledges").Where("status = ?", "pending").Count(&data.PendingPledges)
	s.db.WithContext(ctx).Table("donations").Where("status = ?", "pending").Count(&data.PendingDonations)
	s.db.WithContext(ctx).Table("loans").Where("status = ? AND deleted_at IS NULL", "pending").Count(&data.PendingLoans)

	// This month
	startOfMonth := time.Now().AddDate(0, 0, -time.Now().Day()+1).Truncate(24 * time.Hour)
	s.db.WithContext(ctx).Table("payments").
		Where("status = ? AND approved_at >= ?", "approved", startOfMonth).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.CollectedThisMonth)
	s.db.WithContext(ctx).Table("payments").
		Where("created_at >= ?", startOfMonth).
		Count(&data.PaymentsThisMonth)

	// Recent payments
	var recent []struct {
		ID          uint
		Reference   string
		MemberName  string
		Amount      float64
		PaymentType string
		Status      string
		CreatedAt   time.Time
	}
	s.db.WithContext(ctx).Table("payments").
		Select("payments.id, payments.reference, users.username as member_name, payments.amount, payments.payment_type, payments.status, payments.created_at").
		Joins("LEFT JOIN users ON payments.user_id = users.id").
		Order("payments.created_at DESC").
		Limit(10).
		Scan(&recent)

	data.RecentPayments = make([]PaymentSummary, len(recent))
	for i, p := range recent {
		data.RecentPayments[i] = PaymentSummary{
			ID:          p.ID,
			Reference:   p.Reference,
			MemberName:  p.MemberName,
			Amount:      p.Amount,
			PaymentType: p.PaymentType,
			Status:      p.Status,
			CreatedAt:   p.CreatedAt,
		}
	}

	return data, nil
}

// ============================================================
// Member Dashboard
// ============================================================

// MemberDashboardData represents a member's own dashboard
type MemberDashboardData struct {
	// Obligations
	DuesOutstanding   float64 `json:"dues_outstanding"`
	LeviesOutstanding float64 `json:"levies_outstanding"`
	OpenDues          int64   `json:"open_dues"`
	OpenLevies        int64   `json:"open_levies"`

	// Payments
	TotalPaid       float64 `json:"total_paid"`
	PendingPayments int64   `json:"pending_payments"`

	// Commitments
	PendingPledges int64 `json:"pending_pledges"`
	ActiveLoan     *LoanSummary `json:"active_loan,omitempty"`

	// Recent activity
	RecentPayments []PaymentSummary `json:"recent_payments"`
}

// LoanSummary represents a loan line on the member dashboard
type LoanSummary struct {
	ID     uint    `json:"id"`
	Amount float64 `json:"amount"`
	Status string  `json:"status"`
}

// GetMemberDashboard returns a member's dashboard data
func (s *DashboardService) GetMemberDashboard(ctx context.Context, userID uint) (*MemberDashboardData, error) {
	data := &MemberDashboardData{}

	s.db.WithContext(ctx).Table("member_dues").
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&data.DuesOutstanding)
	s.db.WithContext(ctx).Table("member_dues").
		Where("user_id = ? AND balance > 0", userID).
		Count(&data.OpenDues)

	s.db.WithContext(ctx).Table("member_levies").
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(balance), 0)").
		Scan(&data.LeviesOutstanding)
	s.db.WithContext(ctx).Table("member_levies").
		Where("user_id = ? AND balance > 0", userID).
		Count(&data.OpenLevies)

	s.db.WithContext(ctx).Table("payments").
		Where("user_id = ? AND status = ?", userID, "approved").
		Select("COALESCE(SUM(amount), 0)").
		Scan(&data.TotalPaid)
	s.db.WithContext(ctx).Table("payments").
		Where("user_id = ? AND status = ?", userID, "pending").
		Count(&data.PendingPayments)

	s.db.WithContext(ctx).Table("pledges").
		Where("user_id = ? AND status = ?", userID, "pending").
		Count(&data.PendingPledges)

	var loan struct {
		ID     uint
		Amount float64
		Status string
	}
	err := s.db.WithContext(ctx).Table("loans").
		Select("id, amount, status").
		Where("user_id = ? AND status IN ? AND deleted_at IS NULL", userID, []string{"pending", "approved"}).
		Order("created_at DESC").
		Limit(1).
		Scan(&loan).Error
	if err == nil && loan.ID != 0 {
		data.ActiveLoan = &LoanSummary{ID: loan.ID, Amount: loan.Amount, Status: loan.Status}
	}

	var recent []struct {
		ID          uint
		Reference   string
		Amount      float64
		PaymentType string
		Status      string
		CreatedAt   time.Time
	}
	s.db.WithContext(ctx).Table("payments").
		Select("id, reference, amount, payment_type, status, created_at").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(10).
		Scan(&recent)

	data.RecentPayments = make([]PaymentSummary, len(recent))
	for i, p := range recent {
		data.RecentPayments[i] = PaymentSummary{
			ID:          p.ID,
			Reference:   p.Reference,
			Amount:      p.Amount,
			PaymentType: p.PaymentType,
			Status:      p.Status,
			CreatedAt:   p.CreatedAt,
		}
	}

	return data, nil
}
