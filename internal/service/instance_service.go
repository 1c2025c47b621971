package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/soihub/soi-hub-backend/internal/config"
	"github.com/soihub/soi-hub-backend/internal/notification"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
)

// ============================================
// Task Instance Service
// ============================================

type InstanceService interface {
	GetInstance(ctx context.Context, id string) (*repository.TaskInstance, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]*repository.TaskInstance, error)
	ListPendingReview(ctx context.Context) ([]*repository.TaskInstance, error)

	// SaveProgress records partial work. The first save moves the instance
	// from NOT_STARTED to IN_PROGRESS.
	SaveProgress(ctx context.Context, instanceID, volunteerID string, input *ProgressInput) (*repository.TaskInstance, error)
	// Submit validates the work against the task's completion criteria and
	// moves the instance to SUBMITTED. AUTO_APPROVE tasks land on APPROVED
	// immediately.
	Submit(ctx context.Context, instanceID, volunteerID string, input *SubmitInput) (*repository.TaskInstance, error)
	// Review records a reviewer decision on a SUBMITTED instance. Rejection
	// requires a reason and reopens the instance for resubmission.
	Review(ctx context.Context, instanceID, reviewerID string, approve bool, reason string) (*repository.TaskInstance, error)
}

type ProgressInput struct {
	Checked       *bool
	TextResponse  *string
	PhotoURL      *string
	PhotoSize     *int64
	PhotoMimeType *string
}

type SubmitInput struct {
	Checked       *bool
	TextResponse  *string
	PhotoURL      *string
	PhotoSize     *int64
	PhotoMimeType *string
	// OverrideBy names the admin forcing a past-deadline submission of a
	// mandatory task.
	OverrideBy *string
}

type instanceService struct {
	instanceRepo repository.TaskInstanceRepository
	taskRepo     repository.TaskRepository
	userRepo     repository.UserRepository
	taskSvc      TaskService
	notifSvc     *notification.Service
	cfg          *config.Config
}

func NewInstanceService(
	instanceRepo repository.TaskInstanceRepository,
	taskRepo repository.TaskRepository,
	userRepo repository.UserRepository,
	taskSvc TaskService,
	notifSvc *notification.Service,
	cfg *config.Config,
) InstanceService {
	return &instanceService{
		instanceRepo: instanceRepo,
		taskRepo:     taskRepo,
		userRepo:     userRepo,
		taskSvc:      taskSvc,
		notifSvc:     notifSvc,
		cfg:          cfg,
	}
}

func (s *instanceService) GetInstance(ctx context.Context, id string) (*repository.TaskInstance, error) {
	instance, err := s.instanceRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task instance: %w", err)
	}
	if instance == nil {
		return nil, ErrNotFound
	}
	return instance, nil
}

func (s *instanceService) ListByVolunteer(ctx context.Context, volunteerID string) ([]*repository.TaskInstance, error) {
	return s.instanceRepo.FindByVolunteer(ctx, volunteerID)
}

func (s *instanceService) ListPendingReview(ctx context.Context) ([]*repository.TaskInstance, error) {
	return s.instanceRepo.FindPendingReview(ctx)
}

func (s *instanceService) SaveProgress(ctx context.Context, instanceID, volunteerID string, input *ProgressInput) (*repository.TaskInstance, error) {
	instance, err := s.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if instance.VolunteerID != volunteerID {
		return nil, ErrForbidden
	}

	switch instance.State {
	case types.InstanceNotStarted:
		now := time.Now()
		instance.State = types.InstanceInProgress
		instance.StartedAt = &now
	case types.InstanceInProgress, types.InstanceRejected:
		// work continues
	default:
		return nil, ErrInvalidTransition
	}

	applyInstanceFields(instance, input.Checked, input.TextResponse, input.PhotoURL, input.PhotoSize, input.PhotoMimeType)

	if err := s.instanceRepo.Update(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to save progress: %w", err)
	}
	return instance, nil
}

func (s *instanceService) Submit(ctx context.Context, instanceID, volunteerID string, input *SubmitInput) (*repository.TaskInstance, error) {
	instance, err := s.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	var overrideAdmin *repository.User
	if input.OverrideBy != nil {
		overrideAdmin, err = s.userRepo.FindByID(ctx, *input.OverrideBy)
		if err != nil {
			return nil, fmt.Errorf("failed to load override user: %w", err)
		}
		if overrideAdmin == nil || overrideAdmin.UserType != types.UserAdmin {
			return nil, ErrForbidden
		}
	}

	// Admins may submit on a volunteer's behalf when overriding a missed
	// deadline.
	if instance.VolunteerID != volunteerID && overrideAdmin == nil {
		return nil, ErrForbidden
	}

	switch instance.State {
	case types.InstanceNotStarted, types.InstanceInProgress, types.InstanceRejected:
	default:
		return nil, ErrInvalidTransition
	}

	task, err := s.taskRepo.FindByID(ctx, instance.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil || !task.Active {
		return nil, ErrNotFound
	}

	blocked, _, err := s.taskSvc.IsBlocked(ctx, task, instance.VolunteerID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrPrerequisiteNotMet
	}

	now := time.Now()
	if task.Deadline != nil && now.After(*task.Deadline) {
		if !task.Mandatory || overrideAdmin == nil {
			return nil, ErrDeadlineExpired
		}
		log.Printf("[Instance] deadline override by admin %s on instance %s (task %s)", overrideAdmin.ID, instance.ID, task.ID)
	}

	applyInstanceFields(instance, input.Checked, input.TextResponse, input.PhotoURL, input.PhotoSize, input.PhotoMimeType)

	if err := s.validateSubmission(task, instance); err != nil {
		return nil, err
	}

	if instance.StartedAt == nil {
		instance.StartedAt = &now
	}
	instance.SubmittedAt = &now
	instance.State = types.InstanceSubmitted
	instance.RejectionReason = nil

	autoApproved := task.VerificationType == types.VerifyAutoApprove
	if autoApproved {
		instance.State = types.InstanceApproved
		instance.ReviewedAt = &now
	}

	if err := s.instanceRepo.Update(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to submit task instance: %w", err)
	}

	// Delivery problems never undo a submission.
	if autoApproved {
		if err := s.notifSvc.SendTaskReviewed(ctx, instance.VolunteerID, task.Title, task.ID, true, ""); err != nil {
			log.Printf("[Instance] failed to send approval notification: %v", err)
		}
	} else {
		s.notifyReviewers(ctx, task, instance)
	}
	return instance, nil
}

// notifyReviewers tells eligible reviewers a submission is waiting. Supervisor
// tasks only reach supervisors and admins.
func (s *instanceService) notifyReviewers(ctx context.Context, task *repository.Task, instance *repository.TaskInstance) {
	volunteer, err := s.userRepo.FindByID(ctx, instance.VolunteerID)
	if err != nil || volunteer == nil {
		log.Printf("[Instance] failed to load volunteer %s for review notification: %v", instance.VolunteerID, err)
		return
	}

	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		log.Printf("[Instance] failed to load reviewers: %v", err)
		return
	}
	for _, u := range users {
		if u.UserType != types.UserStaff && u.UserType != types.UserAdmin {
			continue
		}
		if task.VerificationType == types.VerifySupervisor && u.UserType == types.UserStaff && !u.IsSupervisor {
			continue
		}
		if err := s.notifSvc.SendTaskSubmitted(ctx, u.ID, task.Title, task.ID, volunteer.Name); err != nil {
			log.Printf("[Instance] failed to notify reviewer %s: %v", u.ID, err)
		}
	}
}

func (s *instanceService) Review(ctx context.Context, instanceID, reviewerID string, approve bool, reason string) (*repository.TaskInstance, error) {
	instance, err := s.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if instance.State != types.InstanceSubmitted {
		return nil, ErrInvalidTransition
	}

	task, err := s.taskRepo.FindByID(ctx, instance.TaskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, ErrNotFound
	}
	if task.VerificationType == types.VerifyAutoApprove {
		return nil, ErrInvalidTransition
	}

	reviewer, err := s.userRepo.FindByID(ctx, reviewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviewer: %w", err)
	}
	if reviewer == nil {
		return nil, ErrUnauthorized
	}
	if reviewer.UserType == types.UserVolunteer {
		return nil, ErrForbidden
	}
	if task.VerificationType == types.VerifySupervisor &&
		!reviewer.IsSupervisor && reviewer.UserType != types.UserAdmin {
		return nil, ErrForbidden
	}

	now := time.Now()
	instance.ReviewedBy = &reviewer.ID
	instance.ReviewedAt = &now

	if approve {
		instance.State = types.InstanceApproved
		instance.RejectionReason = nil
	} else {
		if strings.TrimSpace(reason) == "" {
			return nil, ErrInvalidInput
		}
		instance.State = types.InstanceRejected
		instance.RejectionReason = &reason
	}

	if err := s.instanceRepo.Update(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to record review: %w", err)
	}

	if err := s.notifSvc.SendTaskReviewed(ctx, instance.VolunteerID, task.Title, task.ID, approve, reason); err != nil {
		log.Printf("[Instance] failed to send review notification: %v", err)
	}
	return instance, nil
}

func applyInstanceFields(instance *repository.TaskInstance, checked *bool, text, photoURL *string, photoSize *int64, photoMime *string) {
	if checked != nil {
		instance.Checked = *checked
	}
	if text != nil {
		instance.TextResponse = text
	}
	if photoURL != nil {
		instance.PhotoURL = photoURL
		instance.PhotoSize = photoSize
		instance.PhotoMimeType = photoMime
	}
}

// validateSubmission enforces the completion criteria for the task's type.
func (s *instanceService) validateSubmission(task *repository.Task, instance *repository.TaskInstance) error {
	switch task.TaskType {
	case types.TaskCheckbox:
		if !instance.Checked {
			return ErrValidation
		}
	case types.TaskPhoto:
		if instance.PhotoURL == nil || *instance.PhotoURL == "" {
			return ErrValidation
		}
		if instance.PhotoSize == nil || *instance.PhotoSize <= 0 || *instance.PhotoSize > int64(s.cfg.MaxPhotoSizeBytes) {
			return ErrValidation
		}
		if instance.PhotoMimeType == nil || !s.isAllowedPhotoType(*instance.PhotoMimeType) {
			return ErrValidation
		}
	case types.TaskText:
		if instance.TextResponse == nil {
			return ErrValidation
		}
		words := len(strings.Fields(*instance.TextResponse))
		if words == 0 {
			return ErrValidation
		}
		if task.MinWords > 0 && words < task.MinWords {
			return ErrValidation
		}
		if task.MaxWords > 0 && words > task.MaxWords {
			return ErrValidation
		}
	case types.TaskCustom:
		// accepted as-is
	}
	return nil
}

func (s *instanceService) isAllowedPhotoType(mimeType string) bool {
	for _, allowed := range strings.Split(s.cfg.AllowedPhotoTypes, ",") {
		if strings.TrimSpace(allowed) == mimeType {
			return true
		}
	}
	return false
}
