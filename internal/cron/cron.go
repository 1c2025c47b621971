package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/soihub/soi-hub-backend/internal/service"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron             *cron.Cron
	services         *service.Services
	reminderSchedule string
}

// NewScheduler creates a new scheduler
func NewScheduler(services *service.Services, reminderSchedule string) *Scheduler {
	return &Scheduler{
		cron:             cron.New(),
		services:         services,
		reminderSchedule: reminderSchedule,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Task reminder pass on the configured schedule (hourly by default)
	s.cron.AddFunc(s.reminderSchedule, func() {
		log.Println("[Cron] Running task reminder pass...")
		s.runReminderPass()
	})

	// Clean up old notifications - Run every Sunday at midnight
	s.cron.AddFunc("0 0 * * 0", func() {
		log.Println("[Cron] Running notification cleanup...")
		s.cleanupOldNotifications()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

// runReminderPass delivers due task reminders once. Failed deliveries stay
// due and get retried on the next pass.
func (s *Scheduler) runReminderPass() {
	ctx := context.Background()

	sent, failed, err := s.services.Reminder.RunPass(ctx)
	if err != nil {
		log.Printf("[Cron] Reminder pass failed: %v", err)
		return
	}
	log.Printf("[Cron] Reminder pass complete: %d sent, %d failed", sent, failed)
}

// cleanupOldNotifications removes read notifications older than 30 days
func (s *Scheduler) cleanupOldNotifications() {
	ctx := context.Background()

	cutoff := time.Now().AddDate(0, 0, -30)
	deleted, err := s.services.Notification.CleanupOld(ctx, cutoff)
	if err != nil {
		log.Printf("[Cron] Error cleaning up notifications: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[Cron] Cleaned up %d old notifications", deleted)
	}
}

// ManualTrigger allows manual triggering of scheduled checks (for testing)
func (s *Scheduler) ManualTrigger(checkType string) {
	switch checkType {
	case "reminders":
		s.runReminderPass()
	case "cleanup":
		s.cleanupOldNotifications()
	default:
		log.Printf("[Cron] Unknown check type: %s", checkType)
	}
}
