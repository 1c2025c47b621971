package types

// Role status values
const (
	RoleActive   = "ACTIVE"
	RoleInactive = "INACTIVE"
	RoleClosed   = "CLOSED"
)

// Assignment status values
const (
	AssignmentPending   = "PENDING"
	AssignmentConfirmed = "CONFIRMED"
	AssignmentWithdrawn = "WITHDRAWN"
)

// Task assignment types
const (
	AssignAllVolunteers = "ALL_VOLUNTEERS"
	AssignSpecificRole  = "SPECIFIC_ROLE"
)

// Task types
const (
	TaskCheckbox = "CHECKBOX"
	TaskPhoto    = "PHOTO_UPLOAD"
	TaskText     = "TEXT_RESPONSE"
	TaskCustom   = "CUSTOM"
)

// Verification types
const (
	VerifyAutoApprove  = "AUTO_APPROVE"
	VerifyManualReview = "MANUAL_REVIEW"
	VerifySupervisor   = "SUPERVISOR_APPROVAL"
)

// Task instance states
const (
	InstanceNotStarted = "NOT_STARTED"
	InstanceInProgress = "IN_PROGRESS"
	InstanceSubmitted  = "SUBMITTED"
	InstanceApproved   = "APPROVED"
	InstanceRejected   = "REJECTED"
)

// Event status values
const (
	EventDraft    = "draft"
	EventActive   = "active"
	EventArchived = "archived"
)

// User types
const (
	UserVolunteer = "volunteer"
	UserStaff     = "staff"
	UserAdmin     = "admin"
)

// Valid values for validation
var ValidRoleStatuses = []string{RoleActive, RoleInactive, RoleClosed}

var ValidAssignmentStatuses = []string{
	AssignmentPending, AssignmentConfirmed, AssignmentWithdrawn,
}

var ValidAssignmentTypes = []string{AssignAllVolunteers, AssignSpecificRole}

var ValidTaskTypes = []string{TaskCheckbox, TaskPhoto, TaskText, TaskCustom}

var ValidVerificationTypes = []string{
	VerifyAutoApprove, VerifyManualReview, VerifySupervisor,
}

var ValidInstanceStates = []string{
	InstanceNotStarted, InstanceInProgress, InstanceSubmitted,
	InstanceApproved, InstanceRejected,
}

var ValidUserTypes = []string{UserVolunteer, UserStaff, UserAdmin}

// Helper functions for validation
func IsValidRoleStatus(status string) bool {
	return contains(ValidRoleStatuses, status)
}

func IsValidAssignmentType(assignmentType string) bool {
	return contains(ValidAssignmentTypes, assignmentType)
}

func IsValidTaskType(taskType string) bool {
	return contains(ValidTaskTypes, taskType)
}

func IsValidVerificationType(verificationType string) bool {
	return contains(ValidVerificationTypes, verificationType)
}

func IsValidInstanceState(state string) bool {
	return contains(ValidInstanceStates, state)
}

func IsValidUserType(userType string) bool {
	return contains(ValidUserTypes, userType)
}

// IsTerminalInstanceState reports whether no further transitions are allowed.
// REJECTED is resubmittable, so only APPROVED is terminal.
func IsTerminalInstanceState(state string) bool {
	return state == InstanceApproved
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
