package services

import (
	"context"
	"log"
	"time"

	"assofund/internal/config"
	"assofund/internal/core/domain"

	"github.com/robfig/cron/v3"
)

// CronService runs the recurring batch jobs: obligation generation on the
// first of each month and the daily reminder sweep.
type CronService struct {
	cron      *cron.Cron
	periods   *PeriodService
	reminders *ReminderService
	cfg       *config.Config
}

// NewCronService creates a new cron service
func NewCronService(periodService *PeriodService, reminderService *ReminderService, cfg *config.Config) *CronService {
	return &CronService{
		periods:   periodService,
		reminders: reminderService,
		cfg:       cfg,
	}
}

// Start registers and launches the scheduled jobs
func (s *CronService) Start() {
	s.cron = cron.New()

	// Monthly obligations: 06:00 on the 1st
	if _, err := s.cron.AddFunc("0 6 1 * *", s.generateCurrentPeriod); err != nil {
		log.Printf("❌ Failed to schedule obligation generation: %v", err)
	}

	// Daily reminder batch: 07:30
	if _, err := s.cron.AddFunc("30 7 * * *", s.runReminderBatch); err != nil {
		log.Printf("❌ Failed to schedule reminder batch: %v", err)
	}

	s.cron.Start()
	log.Println("🚀 CronService started (monthly obligations + daily reminders)")
}

// Stop gracefully stops the scheduler
func (s *CronService) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	log.Println("🛑 CronService stopped")
}

func (s *CronService) generateCurrentPeriod() {
	period := domain.PeriodOf(time.Now())
	created, err := s.periods.GenerateMonthlyObligations(
		context.Background(),
		period,
		s.cfg.Dues.FlatFee,
		s.cfg.Dues.AssistanceFee,
	)
	if err != nil {
		log.Printf("❌ Obligation generation for %s failed: %v", period, err)
		return
	}
	log.Printf("✅ Obligation generation for %s done (%d created)", period, created)
}

func (s *CronService) runReminderBatch() {
	created, err := s.reminders.GenerateReminders(context.Background())
	if err != nil {
		log.Printf("❌ Reminder batch failed: %v", err)
		return
	}
	log.Printf("✅ Reminder batch done (%d created)", created)
}
