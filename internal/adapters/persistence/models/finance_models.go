package models

import (
	"time"

	"gorm.io/gorm"
)

// Obligation / payment statuses
const (
	StatusPending  = "pending"
	StatusPartial  = "partial"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusPaid     = "paid"
	StatusOverdue  = "overdue"
)

// Payment types (tagged union - the related item is dispatched on this,
// never re-derived from free text)
const (
	PaymentTypeDue           = "due"
	PaymentTypeLevy          = "levy"
	PaymentTypePledge        = "pledge"
	PaymentTypeDonation      = "donation"
	PaymentTypeLoanRepayment = "loan_repayment"
)

// Due is an organization-defined obligation template shared across members
type Due struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:100;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Amount      float64        `gorm:"type:decimal(15,2);not null" json:"amount"`
	DueDate     *time.Time     `gorm:"type:date" json:"due_date"`
	CreatedBy   uint           `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Creator *User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

func (Due) TableName() string {
	return "dues"
}

// Levy is an organization-defined levy template, same shape as Due
type Levy struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:100;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Amount      float64        `gorm:"type:decimal(15,2);not null" json:"amount"`
	DueDate     *time.Time     `gorm:"type:date" json:"due_date"`
	CreatedBy   uint           `gorm:"not null" json:"created_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Creator *User `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

func (Levy) TableName() string {
	return "levies"
}

// MemberDue is a per-member instantiation of a Due.
// Invariant: AmountPaid + Balance == Amount, Balance >= 0.
// Balance only changes through approved payments.
type MemberDue struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	DueID            uint      `gorm:"not null;uniqueIndex:idx_member_due" json:"due_id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_member_due" json:"user_id"`
	Amount           float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	AmountPaid       float64   `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	Balance          float64   `gorm:"type:decimal(15,2);not null" json:"balance"`
	Status           string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	SettledPaymentID *uint     `json:"settled_payment_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Due  *Due  `gorm:"foreignKey:DueID" json:"due,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (MemberDue) TableName() string {
	return "member_dues"
}

// MemberLevy is a per-member instantiation of a Levy, same rules as MemberDue
type MemberLevy struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	LevyID           uint      `gorm:"not null;uniqueIndex:idx_member_levy" json:"levy_id"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_member_levy" json:"user_id"`
	Amount           float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	AmountPaid       float64   `gorm:"type:decimal(15,2);default:0" json:"amount_paid"`
	Balance          float64   `gorm:"type:decimal(15,2);not null" json:"balance"`
	Status           string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	SettledPaymentID *uint     `json:"settled_payment_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Levy *Levy `gorm:"foreignKey:LevyID" json:"levy,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (MemberLevy) TableName() string {
	return "member_levies"
}

// Pledge is a member-declared future commitment. All-or-nothing: it is
// approved by one matching payment, no partial fulfillment balance.
type Pledge struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index" json:"user_id"`
	Title            string     `gorm:"size:100;not null" json:"title"`
	Amount           float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	FulfillDate      *time.Time `gorm:"type:date" json:"fulfill_date"`
	Status           string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	RejectionReason  string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	SettledPaymentID *uint      `json:"settled_payment_id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Pledge) TableName() string {
	return "pledges"
}

// Donation is fully paid at creation; only its approval status changes
type Donation struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"not null;index" json:"user_id"`
	Title            string    `gorm:"size:100;not null" json:"title"`
	Amount           float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status           string    `gorm:"size:20;not null;default:'pending'" json:"status"`
	RejectionReason  string    `gorm:"type:text" json:"rejection_reason,omitempty"`
	SettledPaymentID *uint     `json:"settled_payment_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Donation) TableName() string {
	return "donations"
}

// Loan is a member loan application. Visible only to admin_level_2 and
// super_admin on the admin side.
type Loan struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Amount          float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Purpose         string     `gorm:"type:text" json:"purpose"`
	InterestRate    float64    `gorm:"type:decimal(5,2)" json:"interest_rate"`
	Status          string     `gorm:"size:20;not null;default:'pending'" json:"status"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	ApprovedBy      *uint      `json:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at"`
	PaidAt          *time.Time `json:"paid_at"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	User     *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Approver *User `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
}

func (Loan) TableName() string {
	return "loans"
}

// Payment is the mutating event of the ledger. Creating one has no balance
// effect; only an approval applies it to the related obligation.
type Payment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Reference       string     `gorm:"size:40;uniqueIndex;not null" json:"reference"`
	UserID          uint       `gorm:"not null;index" json:"user_id"`
	Amount          float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	PaymentType     string     `gorm:"size:20;not null;index" json:"payment_type"`
	RelatedID       *uint      `gorm:"index" json:"related_id"`
	Description     string     `gorm:"type:text" json:"description"`
	PaymentMethod   string     `gorm:"size:30" json:"payment_method"`
	PaymentDate     time.Time  `gorm:"not null" json:"payment_date"`
	PaidByAdmin     bool       `gorm:"default:false" json:"paid_by_admin"`
	Status          string     `gorm:"size:20;not null;default:'pending';index" json:"status"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`
	// ApprovedBy/ApprovedAt record the reviewer and review time for both
	// approvals and rejections
	ApprovedBy *uint      `json:"approved_by"`
	ApprovedAt *time.Time `json:"approved_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	User     *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Approver *User `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsTerminal reports whether the payment can no longer transition
func (p *Payment) IsTerminal() bool {
	return p.Status == StatusApproved || p.Status == StatusRejected
}

// PaymentResponse DTO
type PaymentResponse struct {
	ID              uint       `json:"id"`
	Reference       string     `json:"reference"`
	UserID          uint       `json:"user_id"`
	MemberName      string     `json:"member_name,omitempty"`
	Amount          float64    `json:"amount"`
	PaymentType     string     `json:"payment_type"`
	RelatedID       *uint      `json:"related_id"`
	Description     string     `json:"description"`
	PaymentMethod   string     `json:"payment_method"`
	PaymentDate     time.Time  `json:"payment_date"`
	PaidByAdmin     bool       `json:"paid_by_admin"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	ApprovedBy      *uint      `json:"approved_by"`
	ApprovedAt      *time.Time `json:"approved_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (p *Payment) ToResponse() *PaymentResponse {
	resp := &PaymentResponse{
		ID:              p.ID,
		Reference:       p.Reference,
		UserID:          p.UserID,
		Amount:          p.Amount,
		PaymentType:     p.PaymentType,
		RelatedID:       p.RelatedID,
		Description:     p.Description,
		PaymentMethod:   p.PaymentMethod,
		PaymentDate:     p.PaymentDate,
		PaidByAdmin:     p.PaidByAdmin,
		Status:          p.Status,
		RejectionReason: p.RejectionReason,
		ApprovedBy:      p.ApprovedBy,
		ApprovedAt:      p.ApprovedAt,
		CreatedAt:       p.CreatedAt,
	}
	if p.User != nil {
		resp.MemberName = p.User.FullName
		if resp.MemberName == "" {
			resp.MemberName = p.User.Username
		}
	}
	return resp
}

// Transaction types for the organizational ledger
const (
	TxTypeIncome  = "income"
	TxTypeExpense = "expense"
)

// Transaction is an organizational income/expense record independent of
// member obligations, used for accounting reports
type Transaction struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Type        string         `gorm:"size:20;not null;index" json:"type"`
	Category    string         `gorm:"size:50" json:"category"`
	Amount      float64        `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description string         `gorm:"type:text" json:"description"`
	Date        time.Time      `gorm:"not null" json:"date"`
	RecordedBy  uint           `gorm:"not null" json:"recorded_by"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Recorder *User `gorm:"foreignKey:RecordedBy" json:"recorder,omitempty"`
}

func (Transaction) TableName() string {
	return "transactions"
}
