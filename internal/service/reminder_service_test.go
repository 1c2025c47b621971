package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soihub/soi-hub-backend/internal/notification"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reminderTask(t *testing.T, services *Services, title string, freqDays int) *repository.Task {
	t.Helper()
	return createTaskWith(t, services, &CreateTaskInput{
		Title:                 title,
		TaskType:              types.TaskCheckbox,
		VerificationType:      types.VerifyAutoApprove,
		SendReminders:         true,
		ReminderFrequencyDays: freqDays,
	})
}

func TestDueRemindersIsPure(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := reminderTask(t, services, "Sign the code of conduct", 0)
	instanceFor(t, repos, services, task.ID, v.ID)

	now := time.Now()
	first, err := services.Reminder.DueReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, task.ID, first[0].Task.ID)

	// Computing again with the same instant yields the same set.
	second, err := services.Reminder.DueReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Instance.ID, second[0].Instance.ID)
	assert.Nil(t, second[0].Instance.LastReminderSentAt)
}

func TestDueRemindersSkipsNonReminderAndExpiredTasks(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")

	createTaskWith(t, services, &CreateTaskInput{
		Title:            "No reminders wanted",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
	})
	yesterday := time.Now().Add(-24 * time.Hour).Format(time.RFC3339)
	createTaskWith(t, services, &CreateTaskInput{
		Title:            "Deadline already passed",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
		SendReminders:    true,
		Deadline:         &yesterday,
	})
	wanted := reminderTask(t, services, "Still open", 0)
	require.NoError(t, services.Task.EnsureInstances(ctx, v.ID))

	due, err := services.Reminder.DueReminders(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, wanted.ID, due[0].Task.ID)
}

func TestDueRemindersFrequencyGate(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := reminderTask(t, services, "Weekly nudge", 7)
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	now := time.Now()
	due, err := services.Reminder.DueReminders(ctx, now)
	require.NoError(t, err)
	require.Len(t, due, 1)

	// Reminded three days ago: not due again yet.
	require.NoError(t, repos.InstanceRepo.MarkReminderSent(ctx, instance.ID, now.Add(-3*24*time.Hour)))
	due, err = services.Reminder.DueReminders(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)

	// Reminded eight days ago: due again.
	require.NoError(t, repos.InstanceRepo.MarkReminderSent(ctx, instance.ID, now.Add(-8*24*time.Hour)))
	due, err = services.Reminder.DueReminders(ctx, now)
	require.NoError(t, err)
	assert.Len(t, due, 1)
}

func TestDueRemindersZeroFrequencyMeansSingleReminder(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := reminderTask(t, services, "One-off nudge", 0)
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	now := time.Now()
	require.NoError(t, repos.InstanceRepo.MarkReminderSent(ctx, instance.ID, now.Add(-30*24*time.Hour)))

	due, err := services.Reminder.DueReminders(ctx, now)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDueRemindersExcludesWithdrawnRoleTasks(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 5)
	assignment := confirmVolunteerInRole(t, services, role.ID, v.ID)

	createTaskWith(t, services, &CreateTaskInput{
		Title:                 "Role briefing",
		AssignmentType:        types.AssignSpecificRole,
		RoleID:                &role.ID,
		TaskType:              types.TaskCheckbox,
		VerificationType:      types.VerifyAutoApprove,
		SendReminders:         true,
		ReminderFrequencyDays: 1,
	})
	require.NoError(t, services.Task.EnsureInstances(ctx, v.ID))

	due, err := services.Reminder.DueReminders(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, services.Role.Release(ctx, assignment.ID))

	due, err = services.Reminder.DueReminders(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestDueRemindersExcludesDeactivatedTask(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := reminderTask(t, services, "Soon retired", 1)
	instanceFor(t, repos, services, task.ID, v.ID)

	require.NoError(t, services.Task.DeactivateTask(ctx, task.ID))

	due, err := services.Reminder.DueReminders(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestRunPassStampsReminders(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := reminderTask(t, services, "Sign the code of conduct", 0)
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	sent, failed, err := services.Reminder.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, failed)

	stamped, err := repos.InstanceRepo.FindByID(ctx, instance.ID)
	require.NoError(t, err)
	require.NotNil(t, stamped.LastReminderSentAt)

	// The second pass finds nothing due.
	sent, failed, err = services.Reminder.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 0, failed)
}

// failingNotificationRepo rejects every create so reminder deliveries fail.
type failingNotificationRepo struct {
	repository.NotificationRepository
}

func (r *failingNotificationRepo) Create(ctx context.Context, n *repository.Notification) error {
	return errors.New("notification store unavailable")
}

func TestRunPassRetriesFailedDeliveries(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	task := reminderTask(t, services, "Sign the code of conduct", 0)
	instance := instanceFor(t, repos, services, task.ID, v.ID)

	failingNotif := notification.NewService(
		&failingNotificationRepo{NotificationRepository: repos.NotificationRepo},
		repos.UserRepo,
	)
	reminder := NewReminderService(repos.InstanceRepo, repos.TaskRepo, repos.AssignmentRepo, failingNotif)

	sent, failed, err := reminder.RunPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, failed)

	// A failed delivery is never stamped, so it stays due.
	current, err := repos.InstanceRepo.FindByID(ctx, instance.ID)
	require.NoError(t, err)
	assert.Nil(t, current.LastReminderSentAt)

	due, err := reminder.DueReminders(ctx, time.Now())
	require.NoError(t, err)
	assert.Len(t, due, 1)
}
