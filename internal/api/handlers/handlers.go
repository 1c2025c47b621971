package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/soihub/soi-hub-backend/internal/membership"
	"github.com/soihub/soi-hub-backend/internal/models"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	Event        *EventHandler
	Role         *RoleHandler
	Task         *TaskHandler
	Instance     *InstanceHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services, membershipClient *membership.Client, configRepo repository.ConfigRepository) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth, membership: membershipClient},
		Event:        &EventHandler{eventService: services.Event},
		Role:         &RoleHandler{roleService: services.Role, taskService: services.Task},
		Task:         &TaskHandler{taskService: services.Task},
		Instance:     &InstanceHandler{instanceService: services.Instance},
		Notification: &NotificationHandler{notificationService: services.Notification},
		Admin: &AdminHandler{
			dashboardService: services.Dashboard,
			reminderService:  services.Reminder,
			membership:       membershipClient,
			configRepo:       configRepo,
		},
	}
}

func handleServiceError(c *gin.Context, err error) {
	switch err {
	case service.ErrNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
	case service.ErrUnauthorized:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case service.ErrForbidden:
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case service.ErrConflict:
		c.JSON(http.StatusConflict, gin.H{"error": "Resource already exists"})
	case service.ErrUserNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case service.ErrUserExists:
		c.JSON(http.StatusConflict, gin.H{"error": "User already exists"})
	case service.ErrInvalidCredentials:
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case service.ErrInvalidToken:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired token"})
	case service.ErrInvalidInput:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
	case service.ErrCapacityExceeded:
		c.JSON(http.StatusConflict, gin.H{"error": "Role is at full capacity"})
	case service.ErrRoleNotOpen:
		c.JSON(http.StatusConflict, gin.H{"error": "Role is not open for assignment"})
	case service.ErrDependencyCycle:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Task prerequisites contain a cycle"})
	case service.ErrPrerequisiteNotMet:
		c.JSON(http.StatusConflict, gin.H{"error": "Task prerequisites are not met"})
	case service.ErrDeadlineExpired:
		c.JSON(http.StatusConflict, gin.H{"error": "Task deadline has passed"})
	case service.ErrValidation:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Submission does not meet the task requirements"})
	case service.ErrInvalidTransition:
		c.JSON(http.StatusConflict, gin.H{"error": "Invalid state transition"})
	case membership.ErrWriteDisabled:
		c.JSON(http.StatusForbidden, gin.H{"error": "Membership register writes are disabled"})
	case membership.ErrMemberNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found in register"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		UserType:         u.UserType,
		IsSupervisor:     u.IsSupervisor,
		MembershipNumber: u.MembershipNumber,
		CreatedAt:        u.CreatedAt,
	}
}

func toEventResponse(e *repository.Event) models.EventResponse {
	return models.EventResponse{
		ID:        e.ID,
		Name:      e.Name,
		Slug:      e.Slug,
		Status:    e.Status,
		StartDate: e.StartDate,
		EndDate:   e.EndDate,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

func toRoleResponse(r *repository.Role) models.RoleResponse {
	return models.RoleResponse{
		ID:                  r.ID,
		EventID:             r.EventID,
		Name:                r.Name,
		Description:         r.Description,
		TotalPositions:      r.TotalPositions,
		FilledPositions:     r.FilledPositions,
		RemainingPositions:  r.TotalPositions - r.FilledPositions,
		MinimumVolunteers:   r.MinimumVolunteers,
		RequiredCredentials: safeStringSlice(r.RequiredCredentials),
		RequiredTraining:    safeStringSlice(r.RequiredTraining),
		Status:              r.Status,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func toAssignmentResponse(a *repository.Assignment) models.AssignmentResponse {
	return models.AssignmentResponse{
		ID:          a.ID,
		RoleID:      a.RoleID,
		VolunteerID: a.VolunteerID,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
		ConfirmedAt: a.ConfirmedAt,
		WithdrawnAt: a.WithdrawnAt,
	}
}

func toTaskResponse(t *repository.Task) models.TaskResponse {
	if t == nil {
		return models.TaskResponse{}
	}
	return models.TaskResponse{
		ID:                    t.ID,
		EventID:               t.EventID,
		RoleID:                t.RoleID,
		Title:                 t.Title,
		Description:           t.Description,
		AssignmentType:        t.AssignmentType,
		TaskType:              t.TaskType,
		VerificationType:      t.VerificationType,
		Mandatory:             t.Mandatory,
		Active:                t.Active,
		Deadline:              t.Deadline,
		SendReminders:         t.SendReminders,
		ReminderFrequencyDays: t.ReminderFrequencyDays,
		MinWords:              t.MinWords,
		MaxWords:              t.MaxWords,
		Prerequisites:         safeStringSlice(t.Prerequisites),
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
	}
}

func toInstanceResponse(i *repository.TaskInstance) models.TaskInstanceResponse {
	return models.TaskInstanceResponse{
		ID:                 i.ID,
		TaskID:             i.TaskID,
		VolunteerID:        i.VolunteerID,
		State:              i.State,
		Checked:            i.Checked,
		TextResponse:       i.TextResponse,
		PhotoURL:           i.PhotoURL,
		StartedAt:          i.StartedAt,
		SubmittedAt:        i.SubmittedAt,
		ReviewedBy:         i.ReviewedBy,
		ReviewedAt:         i.ReviewedAt,
		RejectionReason:    i.RejectionReason,
		LastReminderSentAt: i.LastReminderSentAt,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

func toWorklistItemResponse(r *service.ResolvedTask) models.WorklistItemResponse {
	item := models.WorklistItemResponse{
		Task:                 toTaskResponse(r.Task),
		Blocked:              r.Blocked,
		MissingPrerequisites: r.MissingPrerequisites,
	}
	if r.Instance != nil {
		instance := toInstanceResponse(r.Instance)
		item.Instance = &instance
	}
	return item
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}

// Helper to ensure nil slices become empty slices
func safeStringSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
