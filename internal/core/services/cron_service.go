package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"coopfin-backend/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronService runs the scheduled jobs: the daily overdue sweep and
// expired refresh token cleanup
type CronService struct {
	db               *gorm.DB
	settingRepo      *repositories.SettingRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	notifyService    *NotificationService
	cron             *cron.Cron
}

// NewCronService creates a new cron service
func NewCronService(
	db *gorm.DB,
	settingRepo *repositories.SettingRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	notifyService *NotificationService,
) *CronService {
	return &CronService{
		db:               db,
		settingRepo:      settingRepo,
		refreshTokenRepo: refreshTokenRepo,
		notifyService:    notifyService,
		cron:             cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

// Start registers and launches the scheduled jobs
func (s *CronService) Start() {
	hour := 8
	if setting, err := s.settingRepo.Get(context.Background()); err == nil {
		hour = setting.ReminderHour
	}

	spec := fmt.Sprintf("0 %d * * *", hour)
	if _, err := s.cron.AddFunc(spec, s.runOverdueSweep); err != nil {
		log.Printf("⚠️ Failed to schedule overdue sweep: %v", err)
	}

	// Expired refresh tokens are purged nightly
	if _, err := s.cron.AddFunc("30 2 * * *", s.runTokenCleanup); err != nil {
		log.Printf("⚠️ Failed to schedule token cleanup: %v", err)
	}

	s.cron.Start()
	log.Printf("🚀 CronService started (overdue sweep at %02d:00)", hour)
}

// Stop gracefully stops the scheduler
func (s *CronService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("🛑 CronService stopped")
}

// runOverdueSweep marks unsettled member dues and levies whose template due
// date has passed, then posts a summary notification
func (s *CronService) runOverdueSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	now := time.Now()

	duesResult := s.db.WithContext(ctx).Exec(`
		UPDATE member_dues SET status = 'overdue'
		WHERE balance > 0 AND status IN ('pending', 'partial')
		AND due_id IN (SELECT id FROM dues WHERE due_date IS NOT NULL AND due_date < ?)`, now)
	if duesResult.Error != nil {
		log.Printf("⚠️ Overdue sweep (dues) failed: %v", duesResult.Error)
		return
	}

	leviesResult := s.db.WithContext(ctx).Exec(`
		UPDATE member_levies SET status = 'overdue'
		WHERE balance > 0 AND status IN ('pending', 'partial')
		AND levy_id IN (SELECT id FROM levies WHERE due_date IS NOT NULL AND due_date < ?)`, now)
	if leviesResult.Error != nil {
		log.Printf("⚠️ Overdue sweep (levies) failed: %v", leviesResult.Error)
		return
	}

	overdueDues := int(duesResult.RowsAffected)
	overdueLevies := int(leviesResult.RowsAffected)
	log.Printf("✅ Overdue sweep: %d dues, %d levies marked", overdueDues, overdueLevies)

	if s.notifyService != nil {
		unsettled, err := repositories.NewMemberDueRepository(s.db).ListOverdue(ctx)
		if err != nil {
			log.Printf("⚠️ Overdue detail lookup failed: %v", err)
		}
		s.notifyService.NotifyOverdueSummary(ctx, overdueDues, overdueLevies, unsettled)
	}
}

// runTokenCleanup deletes expired refresh tokens
func (s *CronService) runTokenCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.refreshTokenRepo.DeleteExpired(ctx); err != nil {
		log.Printf("⚠️ Token cleanup failed: %v", err)
		return
	}
	log.Println("✅ Expired refresh tokens purged")
}
