package service

import (
	"errors"
	"time"

	"github.com/soihub/soi-hub-backend/internal/config"
	"github.com/soihub/soi-hub-backend/internal/db"
	"github.com/soihub/soi-hub-backend/internal/email"
	"github.com/soihub/soi-hub-backend/internal/notification"
	"github.com/soihub/soi-hub-backend/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")

	// Domain errors
	ErrCapacityExceeded   = errors.New("role is at full capacity")
	ErrRoleNotOpen        = errors.New("role is not open for assignment")
	ErrDependencyCycle    = errors.New("task prerequisites contain a cycle")
	ErrPrerequisiteNotMet = errors.New("task prerequisites are not met")
	ErrDeadlineExpired    = errors.New("task deadline has passed")
	ErrValidation         = errors.New("submission does not meet the task requirements")
	ErrInvalidTransition  = errors.New("invalid state transition")
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	Event        EventService
	Role         RoleService
	Task         TaskService
	Instance     InstanceService
	Reminder     ReminderService
	Dashboard    DashboardService
	Notification NotificationService
}

// ServiceDeps contains all dependencies needed to create services
type ServiceDeps struct {
	Config   *config.Config
	Repos    *repository.Repositories
	NotifSvc *notification.Service
	EmailSvc *email.Service
	Cache    *db.RedisDB
}

func NewServices(deps *ServiceDeps) *Services {
	taskService := NewTaskService(
		deps.Repos.TaskRepo,
		deps.Repos.AssignmentRepo,
		deps.Repos.InstanceRepo,
		deps.Repos.EventRepo,
		deps.Repos.RoleRepo,
	)

	return &Services{
		Auth:  NewAuthService(deps.Config, deps.Repos.UserRepo),
		Event: NewEventService(deps.Repos.EventRepo, deps.Repos.RoleRepo),
		Role: NewRoleService(
			deps.Repos.RoleRepo,
			deps.Repos.AssignmentRepo,
			deps.Repos.EventRepo,
			deps.NotifSvc,
		),
		Task: taskService,
		Instance: NewInstanceService(
			deps.Repos.InstanceRepo,
			deps.Repos.TaskRepo,
			deps.Repos.UserRepo,
			taskService,
			deps.NotifSvc,
			deps.Config,
		),
		Reminder: NewReminderService(
			deps.Repos.InstanceRepo,
			deps.Repos.TaskRepo,
			deps.Repos.AssignmentRepo,
			deps.NotifSvc,
		),
		Dashboard: NewDashboardService(
			deps.Repos.EventRepo,
			deps.Repos.RoleRepo,
			deps.Repos.InstanceRepo,
			deps.Cache,
		),
		Notification: NewNotificationService(deps.Repos.NotificationRepo),
	}
}

// parseDate accepts RFC 3339 timestamps or plain dates.
func parseDate(value string) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
