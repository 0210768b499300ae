package services

import (
	"context"
	"errors"
	"time"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
	"coopfin-backend/internal/core/authz"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment service errors
var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrInvalidAmount       = errors.New("amount exceeds outstanding balance")
	ErrAmountNotPositive   = errors.New("amount must be greater than zero")
	ErrInvalidPaymentType  = errors.New("invalid payment type")
	ErrPaymentTerminal     = errors.New("payment is already in a terminal state")
	ErrRelatedItemRequired = errors.New("related item is required for this payment type")
	ErrRelatedItemNotFound = errors.New("related item not found")
	ErrNotRecordOwner      = errors.New("record does not belong to this member")
	ErrSelfApproval        = errors.New("members cannot review their own payments")
	ErrApproverNotAllowed  = errors.New("approver lacks the required privilege")
	ErrItemNotPending      = errors.New("related item is not awaiting settlement")
	ErrLoanNotOutstanding  = errors.New("loan has no outstanding balance")
)

// PaymentService is the obligation ledger: it records payments and applies
// approval effects to the one related obligation record atomically.
type PaymentService struct {
	db             *gorm.DB
	paymentRepo    *repositories.PaymentRepository
	memberDueRepo  *repositories.MemberDueRepository
	memberLevyRepo *repositories.MemberLevyRepository
	pledgeRepo     *repositories.PledgeRepository
	donationRepo   *repositories.DonationRepository
	loanRepo       *repositories.LoanRepository
	notifyService  *NotificationService
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	db *gorm.DB,
	paymentRepo *repositories.PaymentRepository,
	memberDueRepo *repositories.MemberDueRepository,
	memberLevyRepo *repositories.MemberLevyRepository,
	pledgeRepo *repositories.PledgeRepository,
	donationRepo *repositories.DonationRepository,
	loanRepo *repositories.LoanRepository,
	notifyService *NotificationService,
) *PaymentService {
	return &PaymentService{
		db:             db,
		paymentRepo:    paymentRepo,
		memberDueRepo:  memberDueRepo,
		memberLevyRepo: memberLevyRepo,
		pledgeRepo:     pledgeRepo,
		donationRepo:   donationRepo,
		loanRepo:       loanRepo,
		notifyService:  notifyService,
	}
}

// RecordPaymentInput represents record payment input
type RecordPaymentInput struct {
	MemberID      uint    `json:"member_id,omitempty"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentType   string  `json:"payment_type" validate:"required"`
	RelatedID     *uint   `json:"related_id,omitempty"`
	Description   string  `json:"description,omitempty"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	PaymentDate   string  `json:"payment_date,omitempty"`
}

func validPaymentType(t string) bool {
	switch t {
	case models.PaymentTypeDue, models.PaymentTypeLevy, models.PaymentTypePledge,
		models.PaymentTypeDonation, models.PaymentTypeLoanRepayment:
		return true
	}
	return false
}

// Record creates a payment in pending status. It never touches balances;
// only an approval applies the effect.
func (s *PaymentService) Record(ctx context.Context, input *RecordPaymentInput, actor *models.User) (*models.Payment, error) {
	if input.Amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if !validPaymentType(input.PaymentType) {
		return nil, ErrInvalidPaymentType
	}

	// Members always record against themselves. Admins with payments:review
	// may record on behalf of another member; that flags the payment.
	memberID := actor.ID
	paidByAdmin := false
	if input.MemberID != 0 && input.MemberID != actor.ID {
		if !authz.Allows(actor.Role, authz.CapPaymentsReview) {
			return nil, ErrNotRecordOwner
		}
		memberID = input.MemberID
		paidByAdmin = true
	}

	// The related item must match the payment type's expected referent and
	// belong to the paying member. Type is stored, never inferred from text.
	if err := s.validateRelatedItem(ctx, input.PaymentType, input.RelatedID, memberID, paidByAdmin); err != nil {
		return nil, err
	}

	paymentDate := time.Now()
	if input.PaymentDate != "" {
		parsed, err := time.Parse("2006-01-02", input.PaymentDate)
		if err != nil {
			return nil, errors.New("invalid payment date, use YYYY-MM-DD")
		}
		paymentDate = parsed
	}

	payment := &models.Payment{
		Reference:     "PAY-" + uuid.NewString(),
		UserID:        memberID,
		Amount:        input.Amount,
		PaymentType:   input.PaymentType,
		RelatedID:     input.RelatedID,
		Description:   input.Description,
		PaymentMethod: input.PaymentMethod,
		PaymentDate:   paymentDate,
		PaidByAdmin:   paidByAdmin,
		Status:        models.StatusPending,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, err
	}

	return payment, nil
}

// validateRelatedItem enforces the tagged-union rule: each payment type
// names which obligation kind its related item must be
func (s *PaymentService) validateRelatedItem(ctx context.Context, paymentType string, relatedID *uint, memberID uint, paidByAdmin bool) error {
	ownerOK := func(ownerID uint) bool {
		return ownerID == memberID || paidByAdmin
	}

	switch paymentType {
	case models.PaymentTypeDue:
		if relatedID == nil {
			return ErrRelatedItemRequired
		}
		md, err := s.memberDueRepo.GetByID(ctx, *relatedID)
		if err != nil {
			return ErrRelatedItemNotFound
		}
		if !ownerOK(md.UserID) {
			return ErrNotRecordOwner
		}
	case models.PaymentTypeLevy:
		if relatedID == nil {
			return ErrRelatedItemRequired
		}
		ml, err := s.memberLevyRepo.GetByID(ctx, *relatedID)
		if err != nil {
			return ErrRelatedItemNotFound
		}
		if !ownerOK(ml.UserID) {
			return ErrNotRecordOwner
		}
	case models.PaymentTypePledge:
		if relatedID == nil {
			return ErrRelatedItemRequired
		}
		pledge, err := s.pledgeRepo.GetByID(ctx, *relatedID)
		if err != nil {
			return ErrRelatedItemNotFound
		}
		if !ownerOK(pledge.UserID) {
			return ErrNotRecordOwner
		}
	case models.PaymentTypeDonation:
		// Donations need no related item; one may be linked for approval tracking
		if relatedID != nil {
			donation, err := s.donationRepo.GetByID(ctx, *relatedID)
			if err != nil {
				return ErrRelatedItemNotFound
			}
			if !ownerOK(donation.UserID) {
				return ErrNotRecordOwner
			}
		}
	case models.PaymentTypeLoanRepayment:
		if relatedID == nil {
			return ErrRelatedItemRequired
		}
		loan, err := s.loanRepo.GetByID(ctx, *relatedID)
		if err != nil {
			return ErrRelatedItemNotFound
		}
		if !ownerOK(loan.UserID) {
			return ErrNotRecordOwner
		}
	}
	return nil
}

// Approve transitions a pending payment to approved and applies its effect
// to the related obligation record. The payment and the obligation are
// updated in one database transaction with both rows locked, so two
// concurrent approvals against the same obligation serialize and neither
// update is lost.
func (s *PaymentService) Approve(ctx context.Context, paymentID uint, approver *models.User) (*models.Payment, error) {
	var approved *models.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.WithTx(tx).GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		if payment.IsTerminal() {
			return ErrPaymentTerminal
		}
		if payment.UserID == approver.ID {
			return ErrSelfApproval
		}
		if !authz.Allows(approver.Role, authz.CapPaymentsReview) {
			return ErrApproverNotAllowed
		}
		// Loan repayments are only visible to level-2 admins and above
		if payment.PaymentType == models.PaymentTypeLoanRepayment &&
			!authz.Allows(approver.Role, authz.CapLoansManage) {
			return ErrApproverNotAllowed
		}

		if err := s.applyEffect(ctx, tx, payment); err != nil {
			return err
		}

		now := time.Now()
		payment.Status = models.StatusApproved
		payment.ApprovedBy = &approver.ID
		payment.ApprovedAt = &now
		if err := s.paymentRepo.WithTx(tx).Update(ctx, payment); err != nil {
			return err
		}

		approved = payment
		return nil
	})

	if err != nil {
		return nil, err
	}

	if s.notifyService != nil {
		s.notifyService.NotifyPaymentApproved(ctx, approved)
	}

	return approved, nil
}

// applyEffect dispatches on the stored payment type and mutates the one
// related obligation record. Runs inside the approval transaction.
func (s *PaymentService) applyEffect(ctx context.Context, tx *gorm.DB, payment *models.Payment) error {
	switch payment.PaymentType {
	case models.PaymentTypeDue:
		md, err := s.memberDueRepo.WithTx(tx).GetByIDForUpdate(ctx, *payment.RelatedID)
		if err != nil {
			return ErrRelatedItemNotFound
		}
		if payment.Amount > md.Balance {
			return ErrInvalidAmount
		}
		md.AmountPaid += payment.Amount
		md.Balance -= payment.Amount
		if md.Balance == 0 {
			md.Status = models.StatusApproved
			md.SettledPaymentID = &payment.ID
		} else {
			md.Status = models.StatusPartial
		}
		return s.memberDueRepo.WithTx(tx).Update(ctx, md)

	case models.PaymentTypeLevy:
		ml, err := s.memberLevyRepo.WithTx(tx).GetByIDForUpdate(ctx, *payment.RelatedID)
		if err != nil {
			return ErrRelatedItemNotFound
		}
		if payment.Amount > ml.Balance {
			return ErrInvalidAmount
		}
		ml.AmountPaid += payment.Amount
		ml.Balance -= payment.Amount
		if ml.Balance == 0 {
			ml.Status = models.StatusApproved
			ml.SettledPaymentID = &payment.ID
		} else {
			ml.Status = models.StatusPartial
		}
		return s.memberLevyRepo.WithTx(tx).Update(ctx, ml)

	case models.PaymentTypePledge:
		// Pledges are all-or-nothing: the settling payment covers the full amount
		pledge, err := s.pledgeRepo.WithTx(tx).GetByIDForUpdate(ctx, *payment.RelatedID)
		if err != nil {
			return ErrRelatedItemNotFound
		}
		if pledge.Status != models.StatusPending {
			return ErrItemNotPending
		}
		if payment.Amount < pledge.Amount {
			return ErrInvalidAmount
		}
		pledge.Status = models.StatusApproved
		pledge.SettledPaymentID = &payment.ID
		return s.pledgeRepo.WithTx(tx).Update(ctx, pledge)

	case models.PaymentTypeDonation:
		if payment.RelatedID == nil {
			return nil
		}
		donation, err := s.donationRepo.WithTx(tx).GetByIDForUpdate(ctx, *payment.RelatedID)
		if err != nil {
			return ErrRelatedItemNotFound
		}
		if donation.Status != models.StatusPending {
			return ErrItemNotPending
		}
		donation.Status = models.StatusApproved
		donation.SettledPaymentID = &payment.ID
		return s.donationRepo.WithTx(tx).Update(ctx, donation)

	case models.PaymentTypeLoanRepayment:
		// Same all-or-nothing rule as pledges
		loan, err := s.loanRepo.WithTx(tx).GetByIDForUpdate(ctx, *payment.RelatedID)
		if err != nil {
			return ErrRelatedItemNotFound
		}
		if loan.Status != models.StatusApproved {
			return ErrLoanNotOutstanding
		}
		if payment.Amount < loan.Amount {
			return ErrInvalidAmount
		}
		now := time.Now()
		loan.Status = models.StatusPaid
		loan.PaidAt = &now
		return s.loanRepo.WithTx(tx).Update(ctx, loan)
	}

	return ErrInvalidPaymentType
}

// Reject transitions a pending payment to rejected. Balances are untouched;
// a rejected payment can never be approved later.
func (s *PaymentService) Reject(ctx context.Context, paymentID uint, approver *models.User, reason string) (*models.Payment, error) {
	var rejected *models.Payment

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.paymentRepo.WithTx(tx).GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		if payment.IsTerminal() {
			return ErrPaymentTerminal
		}
		if payment.UserID == approver.ID {
			return ErrSelfApproval
		}
		if !authz.Allows(approver.Role, authz.CapPaymentsReview) {
			return ErrApproverNotAllowed
		}
		if payment.PaymentType == models.PaymentTypeLoanRepayment &&
			!authz.Allows(approver.Role, authz.CapLoansManage) {
			return ErrApproverNotAllowed
		}

		now := time.Now()
		payment.Status = models.StatusRejected
		payment.RejectionReason = reason
		payment.ApprovedBy = &approver.ID
		payment.ApprovedAt = &now
		if err := s.paymentRepo.WithTx(tx).Update(ctx, payment); err != nil {
			return err
		}

		rejected = payment
		return nil
	})

	if err != nil {
		return nil, err
	}

	if s.notifyService != nil {
		s.notifyService.NotifyPaymentRejected(ctx, rejected, reason)
	}

	return rejected, nil
}

// GetByID gets a payment by ID
func (s *PaymentService) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	payment, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// ListByUser lists one member's payments
func (s *PaymentService) ListByUser(ctx context.Context, userID uint) ([]*models.Payment, error) {
	return s.paymentRepo.ListByUser(ctx, userID)
}

// ListInput represents payment list input. ExcludeType hides one payment
// type from the listing, used to keep loan repayments away from reviewers
// without the loans capability.
type ListInput struct {
	Page        int
	Limit       int
	UserID      *uint
	Status      string
	PaymentType string
	ExcludeType string
}

// ListOutput represents payment list output
type ListOutput struct {
	Payments   []*models.PaymentResponse `json:"payments"`
	Total      int64                     `json:"total"`
	Page       int                       `json:"page"`
	Limit      int                       `json:"limit"`
	TotalPages int                       `json:"total_pages"`
}

// List lists payments for admin review
func (s *PaymentService) List(ctx context.Context, input *ListInput) (*ListOutput, error) {
	if input.Page < 1 {
		input.Page = 1
	}
	if input.Limit < 1 {
		input.Limit = 10
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	filter := &repositories.ListFilter{
		UserID:      input.UserID,
		Status:      input.Status,
		PaymentType: input.PaymentType,
		ExcludeType: input.ExcludeType,
	}

	offset := (input.Page - 1) * input.Limit
	payments, total, err := s.paymentRepo.List(ctx, filter, offset, input.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.PaymentResponse, len(payments))
	for i, p := range payments {
		responses[i] = p.ToResponse()
	}

	totalPages := int(total) / input.Limit
	if int(total)%input.Limit > 0 {
		totalPages++
	}

	return &ListOutput{
		Payments:   responses,
		Total:      total,
		Page:       input.Page,
		Limit:      input.Limit,
		TotalPages: totalPages,
	}, nil
}
