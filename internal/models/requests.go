package models

// ============================================
// Auth Requests
// ============================================

type RegisterRequest struct {
	Name             string  `json:"name" binding:"required"`
	Email            string  `json:"email" binding:"required,email"`
	Password         string  `json:"password" binding:"required,min=8"`
	MembershipNumber *string `json:"membershipNumber"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ============================================
// Event Requests
// ============================================

type CreateEventRequest struct {
	Name      string  `json:"name" binding:"required"`
	Slug      string  `json:"slug"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

type UpdateEventRequest struct {
	Name      *string `json:"name"`
	StartDate *string `json:"startDate"`
	EndDate   *string `json:"endDate"`
}

// ============================================
// Role Requests
// ============================================

type CreateRoleRequest struct {
	Name                string   `json:"name" binding:"required"`
	Description         *string  `json:"description"`
	TotalPositions      int      `json:"totalPositions" binding:"required,min=1"`
	MinimumVolunteers   int      `json:"minimumVolunteers"`
	RequiredCredentials []string `json:"requiredCredentials"`
	RequiredTraining    []string `json:"requiredTraining"`
}

type UpdateRoleRequest struct {
	Name                *string  `json:"name"`
	Description         *string  `json:"description"`
	TotalPositions      *int     `json:"totalPositions"`
	MinimumVolunteers   *int     `json:"minimumVolunteers"`
	RequiredCredentials []string `json:"requiredCredentials"`
	RequiredTraining    []string `json:"requiredTraining"`
	Status              *string  `json:"status"`
}

// ============================================
// Task Requests
// ============================================

type CreateTaskRequest struct {
	EventID               *string  `json:"eventId"`
	RoleID                *string  `json:"roleId"`
	Title                 string   `json:"title" binding:"required"`
	Description           *string  `json:"description"`
	AssignmentType        string   `json:"assignmentType" binding:"required"`
	TaskType              string   `json:"taskType" binding:"required"`
	VerificationType      string   `json:"verificationType" binding:"required"`
	Mandatory             bool     `json:"mandatory"`
	Deadline              *string  `json:"deadline"`
	SendReminders         bool     `json:"sendReminders"`
	ReminderFrequencyDays int      `json:"reminderFrequencyDays"`
	MinWords              int      `json:"minWords"`
	MaxWords              int      `json:"maxWords"`
	Prerequisites         []string `json:"prerequisites"`
}

type UpdateTaskRequest struct {
	Title                 *string  `json:"title"`
	Description           *string  `json:"description"`
	Mandatory             *bool    `json:"mandatory"`
	Deadline              *string  `json:"deadline"`
	SendReminders         *bool    `json:"sendReminders"`
	ReminderFrequencyDays *int     `json:"reminderFrequencyDays"`
	MinWords              *int     `json:"minWords"`
	MaxWords              *int     `json:"maxWords"`
	Prerequisites         []string `json:"prerequisites"`
}

// ============================================
// Task Instance Requests
// ============================================

type ProgressRequest struct {
	Checked       *bool   `json:"checked"`
	TextResponse  *string `json:"textResponse"`
	PhotoURL      *string `json:"photoUrl"`
	PhotoSize     *int64  `json:"photoSize"`
	PhotoMimeType *string `json:"photoMimeType"`
}

type SubmitRequest struct {
	Checked       *bool   `json:"checked"`
	TextResponse  *string `json:"textResponse"`
	PhotoURL      *string `json:"photoUrl"`
	PhotoSize     *int64  `json:"photoSize"`
	PhotoMimeType *string `json:"photoMimeType"`
	// AdminOverride forces a past-deadline submission of a mandatory task.
	AdminOverride bool `json:"adminOverride"`
}

type ReviewRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// ============================================
// Membership Requests
// ============================================

type SyncProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// ============================================
// Theme Requests
// ============================================

type ValidateThemeRequest struct {
	Background string `json:"background" binding:"required"`
	Text       string `json:"text" binding:"required"`
	Accent     string `json:"accent" binding:"required"`
}

// ============================================
// System Config Requests
// ============================================

type UpsertConfigRequest struct {
	Key         string  `json:"key" binding:"required"`
	Value       string  `json:"value" binding:"required"`
	Description *string `json:"description"`
}
