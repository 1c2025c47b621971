package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/soihub/soi-hub-backend/internal/notification"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTaskWith(t *testing.T, services *Services, input *CreateTaskInput) *repository.Task {
	t.Helper()
	if input.AssignmentType == "" {
		input.AssignmentType = types.AssignAllVolunteers
	}
	task, err := services.Task.CreateTask(context.Background(), input)
	require.NoError(t, err)
	return task
}

func instanceFor(t *testing.T, repos *repository.Repositories, services *Services, taskID, volunteerID string) *repository.TaskInstance {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, services.Task.EnsureInstances(ctx, volunteerID))
	instance, err := repos.InstanceRepo.FindByTaskAndVolunteer(ctx, taskID, volunteerID)
	require.NoError(t, err)
	require.NotNil(t, instance)
	return instance
}

func TestSaveProgressStartsInstance(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Read the handbook",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)
	assert.Equal(t, types.InstanceNotStarted, instance.State)

	checked := false
	updated, err := services.Instance.SaveProgress(ctx, instance.ID, v.ID, &ProgressInput{Checked: &checked})
	require.NoError(t, err)
	assert.Equal(t, types.InstanceInProgress, updated.State)
	assert.NotNil(t, updated.StartedAt)
}

func TestSaveProgressRejectsOtherVolunteer(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	other := createTestVolunteer(t, repos, "other@test.ie")
	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Read the handbook",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	checked := true
	_, err := services.Instance.SaveProgress(ctx, instance.ID, other.ID, &ProgressInput{Checked: &checked})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitCheckboxAutoApproves(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Accept code of conduct",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	// Unchecked submission fails validation.
	unchecked := false
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{Checked: &unchecked})
	assert.ErrorIs(t, err, ErrValidation)

	checked := true
	updated, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{Checked: &checked})
	require.NoError(t, err)
	assert.Equal(t, types.InstanceApproved, updated.State)
	assert.Nil(t, updated.ReviewedBy)
	assert.NotNil(t, updated.ReviewedAt)
}

func TestSubmitTextValidatesWordCount(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Experience statement",
		TaskType:         types.TaskText,
		VerificationType: types.VerifyManualReview,
		MinWords:         5,
		MaxWords:         10,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	short := "too short"
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{TextResponse: &short})
	assert.ErrorIs(t, err, ErrValidation)

	long := strings.Repeat("word ", 11)
	_, err = services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{TextResponse: &long})
	assert.ErrorIs(t, err, ErrValidation)

	ok := "this answer has exactly six words"
	updated, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{TextResponse: &ok})
	require.NoError(t, err)
	assert.Equal(t, types.InstanceSubmitted, updated.State)
}

func TestSubmitPhotoValidatesSizeAndType(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Upload vetting letter",
		TaskType:         types.TaskPhoto,
		VerificationType: types.VerifyManualReview,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	url := "https://cdn.test/photo.png"
	tooBig := int64(20 << 20)
	mime := "image/png"
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{
		PhotoURL: &url, PhotoSize: &tooBig, PhotoMimeType: &mime,
	})
	assert.ErrorIs(t, err, ErrValidation)

	size := int64(1 << 20)
	badMime := "application/pdf"
	_, err = services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{
		PhotoURL: &url, PhotoSize: &size, PhotoMimeType: &badMime,
	})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{
		PhotoURL: &url, PhotoSize: &size, PhotoMimeType: &mime,
	})
	require.NoError(t, err)
	assert.Equal(t, types.InstanceSubmitted, updated.State)
}

func TestSubmitBlockedByPrerequisite(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	first := createTaskWith(t, services, &CreateTaskInput{
		Title:            "First",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
	})
	second := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Second",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
		Prerequisites:    []string{first.ID},
	})
	instance := instanceFor(t, repos, services, second.ID, v.ID)

	checked := true
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{Checked: &checked})
	assert.ErrorIs(t, err, ErrPrerequisiteNotMet)
}

func TestSubmitPastDeadline(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	admin := createTestAdmin(t, repos, "admin@test.ie")

	yesterday := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Mandatory safety briefing",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
		Mandatory:        true,
		Deadline:         &yesterday,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	checked := true
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{Checked: &checked})
	assert.ErrorIs(t, err, ErrDeadlineExpired)

	// An admin override carries the submission through.
	updated, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{
		Checked:    &checked,
		OverrideBy: &admin.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.InstanceApproved, updated.State)
}

func TestSubmitOverrideChecksVolunteerPrerequisites(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	admin := createTestAdmin(t, repos, "admin@test.ie")

	first := createTaskWith(t, services, &CreateTaskInput{
		Title:            "First",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
	})
	yesterday := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	second := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Second",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
		Mandatory:        true,
		Deadline:         &yesterday,
		Prerequisites:    []string{first.ID},
	})

	firstInstance := instanceFor(t, repos, services, first.ID, v.ID)
	checked := true
	_, err := services.Instance.Submit(ctx, firstInstance.ID, v.ID, &SubmitInput{Checked: &checked})
	require.NoError(t, err)

	// The admin pushes the dependent task through on the volunteer's behalf.
	// Prerequisites are judged against the volunteer, not the admin.
	secondInstance := instanceFor(t, repos, services, second.ID, v.ID)
	updated, err := services.Instance.Submit(ctx, secondInstance.ID, admin.ID, &SubmitInput{
		Checked:    &checked,
		OverrideBy: &admin.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, types.InstanceApproved, updated.State)
	assert.Equal(t, v.ID, updated.VolunteerID)
}

func TestSubmitNotifiesReviewers(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	staff := createTestStaff(t, repos, "staff@test.ie", false)
	supervisor := createTestStaff(t, repos, "super@test.ie", true)
	admin := createTestAdmin(t, repos, "admin@test.ie")

	manual := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Manual task",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyManualReview,
	})
	supervised := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Supervised task",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifySupervisor,
	})

	checked := true
	manualInstance := instanceFor(t, repos, services, manual.ID, v.ID)
	_, err := services.Instance.Submit(ctx, manualInstance.ID, v.ID, &SubmitInput{Checked: &checked})
	require.NoError(t, err)

	// Every staff member and admin hears about a manual-review submission.
	for _, reviewer := range []string{staff.ID, supervisor.ID, admin.ID} {
		notifications, err := repos.NotificationRepo.FindByUserID(ctx, reviewer, false)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, notification.TypeTaskSubmitted, notifications[0].Type)
	}

	// A supervisor-approval submission skips plain staff.
	supervisedInstance := instanceFor(t, repos, services, supervised.ID, v.ID)
	_, err = services.Instance.Submit(ctx, supervisedInstance.ID, v.ID, &SubmitInput{Checked: &checked})
	require.NoError(t, err)

	staffNotifications, err := repos.NotificationRepo.FindByUserID(ctx, staff.ID, false)
	require.NoError(t, err)
	assert.Len(t, staffNotifications, 1)

	supervisorNotifications, err := repos.NotificationRepo.FindByUserID(ctx, supervisor.ID, false)
	require.NoError(t, err)
	assert.Len(t, supervisorNotifications, 2)
}

func TestSubmitOverrideByNonAdmin(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	staff := createTestStaff(t, repos, "staff@test.ie", false)

	yesterday := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Mandatory briefing",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
		Mandatory:        true,
		Deadline:         &yesterday,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	checked := true
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{
		Checked:    &checked,
		OverrideBy: &staff.ID,
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSubmitPastDeadlineNonMandatoryHasNoOverride(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	admin := createTestAdmin(t, repos, "admin@test.ie")

	yesterday := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Optional photo",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
		Deadline:         &yesterday,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	checked := true
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{
		Checked:    &checked,
		OverrideBy: &admin.ID,
	})
	assert.ErrorIs(t, err, ErrDeadlineExpired)
}

func TestReviewRejectRequiresReasonAndAllowsResubmit(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	staff := createTestStaff(t, repos, "staff@test.ie", false)

	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Experience statement",
		TaskType:         types.TaskText,
		VerificationType: types.VerifyManualReview,
		MinWords:         3,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	text := "my first aid experience"
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{TextResponse: &text})
	require.NoError(t, err)

	// Rejection without a reason fails.
	_, err = services.Instance.Review(ctx, instance.ID, staff.ID, false, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	rejected, err := services.Instance.Review(ctx, instance.ID, staff.ID, false, "needs more detail")
	require.NoError(t, err)
	assert.Equal(t, types.InstanceRejected, rejected.State)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "needs more detail", *rejected.RejectionReason)

	// The volunteer resubmits and gets approved.
	better := "my first aid experience includes three seasons of event cover"
	resubmitted, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{TextResponse: &better})
	require.NoError(t, err)
	assert.Equal(t, types.InstanceSubmitted, resubmitted.State)
	assert.Nil(t, resubmitted.RejectionReason)

	approved, err := services.Instance.Review(ctx, instance.ID, staff.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, types.InstanceApproved, approved.State)

	// APPROVED is terminal.
	_, err = services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{TextResponse: &better})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReviewSupervisorApprovalNeedsSupervisor(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	staff := createTestStaff(t, repos, "staff@test.ie", false)
	supervisor := createTestStaff(t, repos, "super@test.ie", true)

	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Supervised task",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifySupervisor,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	checked := true
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{Checked: &checked})
	require.NoError(t, err)

	// Plain staff cannot sign off supervisor-approval tasks.
	_, err = services.Instance.Review(ctx, instance.ID, staff.ID, true, "")
	assert.ErrorIs(t, err, ErrForbidden)

	// Volunteers can never review.
	_, err = services.Instance.Review(ctx, instance.ID, v.ID, true, "")
	assert.ErrorIs(t, err, ErrForbidden)

	approved, err := services.Instance.Review(ctx, instance.ID, supervisor.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, types.InstanceApproved, approved.State)
	require.NotNil(t, approved.ReviewedBy)
	assert.Equal(t, supervisor.ID, *approved.ReviewedBy)
}

func TestReviewRequiresSubmittedState(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	staff := createTestStaff(t, repos, "staff@test.ie", false)

	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Manual task",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyManualReview,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	_, err := services.Instance.Review(ctx, instance.ID, staff.ID, true, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSubmitRejectedAfterDeadlineCannotResubmit(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	staff := createTestStaff(t, repos, "staff@test.ie", false)

	soon := time.Now().Add(100 * time.Millisecond)
	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Tight deadline",
		TaskType:         types.TaskText,
		VerificationType: types.VerifyManualReview,
		MinWords:         1,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	text := "answer"
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{TextResponse: &text})
	require.NoError(t, err)

	_, err = services.Instance.Review(ctx, instance.ID, staff.ID, false, "wrong answer")
	require.NoError(t, err)

	// The deadline passes between rejection and resubmission.
	expired := soon.Format(time.RFC3339)
	_, err = services.Task.UpdateTask(ctx, task.ID, &UpdateTaskInput{Deadline: &expired})
	require.NoError(t, err)
	time.Sleep(150 * time.Millisecond)

	_, err = services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{TextResponse: &text})
	assert.ErrorIs(t, err, ErrDeadlineExpired)
}
