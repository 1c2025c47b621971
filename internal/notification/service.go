package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/soihub/soi-hub-backend/internal/email"
	"github.com/soihub/soi-hub-backend/internal/repository"
)

// Notification types
const (
	TypeRoleReserved        = "ROLE_RESERVED"
	TypeAssignmentConfirmed = "ASSIGNMENT_CONFIRMED"
	TypeAssignmentWithdrawn = "ASSIGNMENT_WITHDRAWN"
	TypeTaskReminder        = "TASK_REMINDER"
	TypeTaskApproved        = "TASK_APPROVED"
	TypeTaskRejected        = "TASK_REJECTED"
	TypeTaskSubmitted       = "TASK_SUBMITTED"
)

// Service records notifications and, when email is configured, mirrors them
// to the volunteer's inbox.
type Service struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	emailSvc         *email.Service
}

// NewService creates a new notification service
func NewService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *Service {
	return &Service{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// SetEmailService attaches an optional email mirror.
func (s *Service) SetEmailService(emailSvc *email.Service) {
	s.emailSvc = emailSvc
}

// ============================================
// Assignment Notifications
// ============================================

// SendRoleReserved notifies a volunteer that a position was reserved for them.
func (s *Service) SendRoleReserved(ctx context.Context, volunteerID, roleName string, roleID string) error {
	notification := &repository.Notification{
		UserID:  volunteerID,
		Type:    TypeRoleReserved,
		Title:   "Position Reserved",
		Message: fmt.Sprintf("A position in role %q has been reserved for you", roleName),
		Read:    false,
		Data: map[string]interface{}{
			"roleId": roleID,
			"action": "view_role",
		},
	}
	return s.notificationRepo.Create(ctx, notification)
}

// SendAssignmentConfirmed notifies a volunteer that their assignment was confirmed.
func (s *Service) SendAssignmentConfirmed(ctx context.Context, volunteerID, roleName, roleID string) error {
	notification := &repository.Notification{
		UserID:  volunteerID,
		Type:    TypeAssignmentConfirmed,
		Title:   "Assignment Confirmed",
		Message: fmt.Sprintf("Your assignment to role %q is confirmed", roleName),
		Read:    false,
		Data: map[string]interface{}{
			"roleId": roleID,
			"action": "view_role",
		},
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}
	s.mirrorToEmail(ctx, volunteerID, func(u *repository.User) error {
		return s.emailSvc.SendAssignmentConfirmed(u.Email, u.Name, roleName)
	})
	return nil
}

// SendAssignmentWithdrawn notifies a volunteer that their assignment was withdrawn.
func (s *Service) SendAssignmentWithdrawn(ctx context.Context, volunteerID, roleName, roleID string) error {
	notification := &repository.Notification{
		UserID:  volunteerID,
		Type:    TypeAssignmentWithdrawn,
		Title:   "Assignment Withdrawn",
		Message: fmt.Sprintf("Your assignment to role %q has been withdrawn", roleName),
		Read:    false,
		Data: map[string]interface{}{
			"roleId": roleID,
		},
	}
	return s.notificationRepo.Create(ctx, notification)
}

// ============================================
// Task Notifications
// ============================================

// SendTaskReminder delivers a reminder for an open task instance. The caller
// treats any error as transient and retries on the next scheduler pass.
func (s *Service) SendTaskReminder(ctx context.Context, volunteerID string, task *repository.Task, deadline *time.Time) error {
	message := fmt.Sprintf("Task %q is awaiting your attention", task.Title)
	if deadline != nil {
		message = fmt.Sprintf("Task %q is due %s", task.Title, deadline.Format("Mon 2 Jan 2006"))
	}

	notification := &repository.Notification{
		UserID:  volunteerID,
		Type:    TypeTaskReminder,
		Title:   "Task Reminder",
		Message: message,
		Read:    false,
		Data: map[string]interface{}{
			"taskId": task.ID,
			"action": "view_task",
		},
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}

	if s.emailSvc != nil {
		user, err := s.userRepo.FindByID(ctx, volunteerID)
		if err != nil {
			return err
		}
		if user != nil {
			if err := s.emailSvc.SendTaskReminder(user.Email, user.Name, task.Title, deadline); err != nil {
				return err
			}
		}
	}
	return nil
}

// SendTaskReviewed notifies the volunteer of a review outcome.
func (s *Service) SendTaskReviewed(ctx context.Context, volunteerID, taskTitle, taskID string, approved bool, reason string) error {
	notifType := TypeTaskApproved
	title := "Task Approved"
	message := fmt.Sprintf("Your submission for %q was approved", taskTitle)
	if !approved {
		notifType = TypeTaskRejected
		title = "Task Rejected"
		message = fmt.Sprintf("Your submission for %q was rejected: %s", taskTitle, reason)
	}

	notification := &repository.Notification{
		UserID:  volunteerID,
		Type:    notifType,
		Title:   title,
		Message: message,
		Read:    false,
		Data: map[string]interface{}{
			"taskId": taskID,
			"action": "view_task",
		},
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return err
	}
	s.mirrorToEmail(ctx, volunteerID, func(u *repository.User) error {
		return s.emailSvc.SendTaskReviewed(u.Email, u.Name, taskTitle, approved, reason)
	})
	return nil
}

// SendTaskSubmitted notifies reviewers that a submission is waiting.
func (s *Service) SendTaskSubmitted(ctx context.Context, reviewerID, taskTitle, taskID, volunteerName string) error {
	notification := &repository.Notification{
		UserID:  reviewerID,
		Type:    TypeTaskSubmitted,
		Title:   "Submission Awaiting Review",
		Message: fmt.Sprintf("%s submitted %q for review", volunteerName, taskTitle),
		Read:    false,
		Data: map[string]interface{}{
			"taskId": taskID,
			"action": "review_task",
		},
	}
	return s.notificationRepo.Create(ctx, notification)
}

// mirrorToEmail sends a best-effort email copy; failures never surface to the
// triggering operation.
func (s *Service) mirrorToEmail(ctx context.Context, userID string, send func(*repository.User) error) {
	if s.emailSvc == nil {
		return
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return
	}
	_ = send(user)
}
