package service

import (
	"context"
	"fmt"
	"time"

	"github.com/soihub/soi-hub-backend/internal/repository"
)

// ============================================
// Notification Service
// ============================================

type NotificationService interface {
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error)
	CountNotifications(ctx context.Context, userID string) (total int, unread int, err error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, notificationID string) error
	// CleanupOld removes read notifications older than the retention window.
	CleanupOld(ctx context.Context, olderThan time.Time) (int, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) NotificationService {
	return &notificationService{notificationRepo: notificationRepo}
}

func (s *notificationService) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]*repository.Notification, error) {
	return s.notificationRepo.FindByUserID(ctx, userID, unreadOnly)
}

func (s *notificationService) CountNotifications(ctx context.Context, userID string) (int, int, error) {
	return s.notificationRepo.CountByUserID(ctx, userID)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	if err := s.ownershipCheck(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.notificationRepo.MarkAsRead(ctx, notificationID)
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID string) error {
	return s.notificationRepo.MarkAllAsRead(ctx, userID)
}

func (s *notificationService) DeleteNotification(ctx context.Context, userID, notificationID string) error {
	if err := s.ownershipCheck(ctx, userID, notificationID); err != nil {
		return err
	}
	return s.notificationRepo.Delete(ctx, notificationID)
}

func (s *notificationService) CleanupOld(ctx context.Context, olderThan time.Time) (int, error) {
	return s.notificationRepo.DeleteOlderThan(ctx, olderThan, true)
}

func (s *notificationService) ownershipCheck(ctx context.Context, userID, notificationID string) error {
	notifications, err := s.notificationRepo.FindByUserID(ctx, userID, false)
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}
	for _, n := range notifications {
		if n.ID == notificationID {
			return nil
		}
	}
	return ErrNotFound
}
