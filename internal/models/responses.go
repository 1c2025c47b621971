package models

import "time"

type UserResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	UserType         string    `json:"userType"`
	IsSupervisor     bool      `json:"isSupervisor"`
	MembershipNumber *string   `json:"membershipNumber,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type EventResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Slug      string     `json:"slug"`
	Status    string     `json:"status"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type RoleResponse struct {
	ID                  string    `json:"id"`
	EventID             string    `json:"eventId"`
	Name                string    `json:"name"`
	Description         *string   `json:"description,omitempty"`
	TotalPositions      int       `json:"totalPositions"`
	FilledPositions     int       `json:"filledPositions"`
	RemainingPositions  int       `json:"remainingPositions"`
	MinimumVolunteers   int       `json:"minimumVolunteers"`
	RequiredCredentials []string  `json:"requiredCredentials"`
	RequiredTraining    []string  `json:"requiredTraining"`
	Status              string    `json:"status"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type AssignmentResponse struct {
	ID          string     `json:"id"`
	RoleID      string     `json:"roleId"`
	VolunteerID string     `json:"volunteerId"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
	WithdrawnAt *time.Time `json:"withdrawnAt,omitempty"`
}

type TaskResponse struct {
	ID                    string     `json:"id"`
	EventID               *string    `json:"eventId,omitempty"`
	RoleID                *string    `json:"roleId,omitempty"`
	Title                 string     `json:"title"`
	Description           *string    `json:"description,omitempty"`
	AssignmentType        string     `json:"assignmentType"`
	TaskType              string     `json:"taskType"`
	VerificationType      string     `json:"verificationType"`
	Mandatory             bool       `json:"mandatory"`
	Active                bool       `json:"active"`
	Deadline              *time.Time `json:"deadline,omitempty"`
	SendReminders         bool       `json:"sendReminders"`
	ReminderFrequencyDays int        `json:"reminderFrequencyDays"`
	MinWords              int        `json:"minWords"`
	MaxWords              int        `json:"maxWords"`
	Prerequisites         []string   `json:"prerequisites"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// WorklistItemResponse is a task in a volunteer's worklist combined with the
// volunteer's progress on it.
type WorklistItemResponse struct {
	Task                 TaskResponse          `json:"task"`
	Instance             *TaskInstanceResponse `json:"instance,omitempty"`
	Blocked              bool                  `json:"blocked"`
	MissingPrerequisites []string              `json:"missingPrerequisites,omitempty"`
}

type TaskInstanceResponse struct {
	ID                 string     `json:"id"`
	TaskID             string     `json:"taskId"`
	VolunteerID        string     `json:"volunteerId"`
	State              string     `json:"state"`
	Checked            bool       `json:"checked"`
	TextResponse       *string    `json:"textResponse,omitempty"`
	PhotoURL           *string    `json:"photoUrl,omitempty"`
	StartedAt          *time.Time `json:"startedAt,omitempty"`
	SubmittedAt        *time.Time `json:"submittedAt,omitempty"`
	ReviewedBy         *string    `json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time `json:"reviewedAt,omitempty"`
	RejectionReason    *string    `json:"rejectionReason,omitempty"`
	LastReminderSentAt *time.Time `json:"lastReminderSentAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type NotificationResponse struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Read      bool                   `json:"read"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

type ConfigEntryResponse struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
