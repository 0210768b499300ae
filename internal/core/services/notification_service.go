package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"coopfin-backend/internal/adapters/persistence/models"
	"coopfin-backend/internal/adapters/persistence/repositories"
	"coopfin-backend/internal/config"
)

// NotificationService posts review outcomes to the configured webhook.
// Delivery is best effort: a failed post is logged and never fails the
// operation that triggered it.
type NotificationService struct {
	webhookURL   string
	webhookToken string
	enabled      bool
	settingRepo  *repositories.SettingRepository
	client       *http.Client
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg *config.NotifyConfig, settingRepo *repositories.SettingRepository) *NotificationService {
	return &NotificationService{
		webhookURL:   cfg.WebhookURL,
		webhookToken: cfg.WebhookToken,
		enabled:      cfg.WebhookURL != "",
		settingRepo:  settingRepo,
		client:       &http.Client{Timeout: 10 * time.Second},
	}
}

// IsEnabled checks if notification is enabled
func (s *NotificationService) IsEnabled() bool {
	return s.enabled
}

// sendWebhook posts a JSON payload to the webhook endpoint
func (s *NotificationService) sendWebhook(event string, message string, payload map[string]interface{}) {
	if !s.enabled {
		return
	}

	body := map[string]interface{}{
		"event":   event,
		"message": message,
		"data":    payload,
	}

	raw, err := json.Marshal(body)
	if err != nil {
		log.Printf("⚠️ Notification payload marshal failed: %v", err)
		return
	}

	req, err := http.NewRequest("POST", s.webhookURL, bytes.NewBuffer(raw))
	if err != nil {
		log.Printf("⚠️ Notification request build failed: %v", err)
		return
	}

	req.Header.Set("Content-Type", "application/json")
	if s.webhookToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.webhookToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Printf("⚠️ Notification delivery failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Printf("⚠️ Notification webhook returned %d for event %s", resp.StatusCode, event)
	}
}

// settings loads the notification toggles, falling back to all-on defaults
func (s *NotificationService) settings(ctx context.Context) *models.Setting {
	if s.settingRepo == nil {
		return &models.Setting{NotifyOnApproval: true, NotifyOnRejection: true, NotifyOnAssignment: true}
	}
	setting, err := s.settingRepo.Get(ctx)
	if err != nil {
		return &models.Setting{NotifyOnApproval: true, NotifyOnRejection: true, NotifyOnAssignment: true}
	}
	return setting
}

// NotifyPaymentApproved announces an approved payment
func (s *NotificationService) NotifyPaymentApproved(ctx context.Context, payment *models.Payment) {
	if !s.settings(ctx).NotifyOnApproval {
		return
	}

	message := fmt.Sprintf("✅ Payment %s approved: %.2f (%s) for member #%d",
		payment.Reference, payment.Amount, payment.PaymentType, payment.UserID)

	s.sendWebhook("payment.approved", message, map[string]interface{}{
		"payment_id":   payment.ID,
		"reference":    payment.Reference,
		"member_id":    payment.UserID,
		"amount":       payment.Amount,
		"payment_type": payment.PaymentType,
	})
}

// NotifyPaymentRejected announces a rejected payment
func (s *NotificationService) NotifyPaymentRejected(ctx context.Context, payment *models.Payment, reason string) {
	if !s.settings(ctx).NotifyOnRejection {
		return
	}

	message := fmt.Sprintf("❌ Payment %s rejected: %.2f (%s), reason: %s",
		payment.Reference, payment.Amount, payment.PaymentType, reason)

	s.sendWebhook("payment.rejected", message, map[string]interface{}{
		"payment_id":   payment.ID,
		"reference":    payment.Reference,
		"member_id":    payment.UserID,
		"amount":       payment.Amount,
		"payment_type": payment.PaymentType,
		"reason":       reason,
	})
}

// NotifyObligationAssigned announces a dues or levy assignment batch
func (s *NotificationService) NotifyObligationAssigned(ctx context.Context, kind string, title string, amount float64, assigned int) {
	if !s.settings(ctx).NotifyOnAssignment {
		return
	}

	message := fmt.Sprintf("📋 %s '%s' (%.2f) assigned to %d members", kind, title, amount, assigned)

	s.sendWebhook("obligation.assigned", message, map[string]interface{}{
		"kind":     kind,
		"title":    title,
		"amount":   amount,
		"assigned": assigned,
	})
}

// NotifyLoanDecision announces a loan approval or rejection
func (s *NotificationService) NotifyLoanDecision(ctx context.Context, loan *models.Loan, approved bool, reason string) {
	setting := s.settings(ctx)
	if approved && !setting.NotifyOnApproval {
		return
	}
	if !approved && !setting.NotifyOnRejection {
		return
	}

	var message string
	event := "loan.approved"
	if approved {
		message = fmt.Sprintf("✅ Loan #%d approved: %.2f for member #%d", loan.ID, loan.Amount, loan.UserID)
	} else {
		event = "loan.rejected"
		message = fmt.Sprintf("❌ Loan #%d rejected for member #%d, reason: %s", loan.ID, loan.UserID, reason)
	}

	s.sendWebhook(event, message, map[string]interface{}{
		"loan_id":   loan.ID,
		"member_id": loan.UserID,
		"amount":    loan.Amount,
		"reason":    reason,
	})
}

// NotifyOverdueSummary announces the daily overdue sweep result with the
// unsettled dues still carrying a balance
func (s *NotificationService) NotifyOverdueSummary(ctx context.Context, overdueDues int, overdueLevies int, unsettled []*models.MemberDue) {
	if overdueDues == 0 && overdueLevies == 0 {
		return
	}

	message := fmt.Sprintf("⏰ Overdue sweep: %d dues and %d levies past their due date", overdueDues, overdueLevies)

	details := make([]map[string]interface{}, 0, len(unsettled))
	for _, md := range unsettled {
		if md.User == nil || md.Due == nil {
			continue
		}
		details = append(details, map[string]interface{}{
			"member_no": md.User.MemberNo,
			"due":       md.Due.Title,
			"balance":   md.Balance,
		})
	}

	s.sendWebhook("reminder.overdue", message, map[string]interface{}{
		"overdue_dues":   overdueDues,
		"overdue_levies": overdueLevies,
		"unsettled_dues": details,
	})
}
