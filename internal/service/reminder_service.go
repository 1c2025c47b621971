package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/soihub/soi-hub-backend/internal/notification"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
)

// ============================================
// Reminder Service
// ============================================

type ReminderService interface {
	// DueReminders computes which open instances are owed a reminder at the
	// given instant. It reads state but never mutates it, so calling it twice
	// with the same now yields the same set.
	DueReminders(ctx context.Context, now time.Time) ([]*DueReminder, error)
	// RunPass delivers every due reminder. Sent reminders are stamped so the
	// next pass skips them; failed deliveries stay due and are retried.
	RunPass(ctx context.Context) (sent int, failed int, err error)
}

// DueReminder pairs an instance with the task driving the reminder.
type DueReminder struct {
	Instance *repository.TaskInstance
	Task     *repository.Task
}

type reminderService struct {
	instanceRepo   repository.TaskInstanceRepository
	taskRepo       repository.TaskRepository
	assignmentRepo repository.AssignmentRepository
	notifSvc       *notification.Service
}

func NewReminderService(
	instanceRepo repository.TaskInstanceRepository,
	taskRepo repository.TaskRepository,
	assignmentRepo repository.AssignmentRepository,
	notifSvc *notification.Service,
) ReminderService {
	return &reminderService{
		instanceRepo:   instanceRepo,
		taskRepo:       taskRepo,
		assignmentRepo: assignmentRepo,
		notifSvc:       notifSvc,
	}
}

func (s *reminderService) DueReminders(ctx context.Context, now time.Time) ([]*DueReminder, error) {
	open, err := s.instanceRepo.FindOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load open instances: %w", err)
	}

	taskCache := make(map[string]*repository.Task)
	roleCache := make(map[string][]string)

	var due []*DueReminder
	for _, instance := range open {
		task, ok := taskCache[instance.TaskID]
		if !ok {
			task, err = s.taskRepo.FindByID(ctx, instance.TaskID)
			if err != nil {
				return nil, fmt.Errorf("failed to load task: %w", err)
			}
			taskCache[instance.TaskID] = task
		}
		if task == nil || !task.Active || !task.SendReminders {
			continue
		}
		if task.Deadline != nil && !task.Deadline.After(now) {
			continue
		}

		// Role-scoped tasks stop reminding once the volunteer withdraws.
		if task.AssignmentType == types.AssignSpecificRole && task.RoleID != nil {
			roleIDs, ok := roleCache[instance.VolunteerID]
			if !ok {
				roleIDs, err = s.assignmentRepo.FindConfirmedRoleIDs(ctx, instance.VolunteerID)
				if err != nil {
					return nil, fmt.Errorf("failed to load confirmed roles: %w", err)
				}
				roleCache[instance.VolunteerID] = roleIDs
			}
			if !containsString(roleIDs, *task.RoleID) {
				continue
			}
		}

		if instance.LastReminderSentAt != nil {
			// A frequency of zero means a single reminder.
			if task.ReminderFrequencyDays <= 0 {
				continue
			}
			interval := time.Duration(task.ReminderFrequencyDays) * 24 * time.Hour
			if now.Sub(*instance.LastReminderSentAt) < interval {
				continue
			}
		}

		due = append(due, &DueReminder{Instance: instance, Task: task})
	}
	return due, nil
}

func (s *reminderService) RunPass(ctx context.Context) (int, int, error) {
	now := time.Now()
	due, err := s.DueReminders(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	sent, failed := 0, 0
	for _, d := range due {
		if err := s.notifSvc.SendTaskReminder(ctx, d.Instance.VolunteerID, d.Task, d.Task.Deadline); err != nil {
			log.Printf("[Reminder] delivery failed for instance %s: %v", d.Instance.ID, err)
			failed++
			continue
		}
		if err := s.instanceRepo.MarkReminderSent(ctx, d.Instance.ID, now); err != nil {
			log.Printf("[Reminder] failed to stamp instance %s: %v", d.Instance.ID, err)
			failed++
			continue
		}
		sent++
	}
	return sent, failed, nil
}

func containsString(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
