package service

import (
	"context"
	"testing"

	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAllVolunteersTask(t *testing.T, services *Services, title string, prereqs []string) *repository.Task {
	t.Helper()
	task, err := services.Task.CreateTask(context.Background(), &CreateTaskInput{
		Title:            title,
		AssignmentType:   types.AssignAllVolunteers,
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
		Prerequisites:    prereqs,
	})
	require.NoError(t, err)
	return task
}

func TestCreateTaskRejectsSelfPrerequisite(t *testing.T) {
	_, services := newTestServices(t)
	ctx := context.Background()

	a := createAllVolunteersTask(t, services, "A", nil)

	_, err := services.Task.UpdateTask(ctx, a.ID, &UpdateTaskInput{
		Prerequisites: []string{a.ID},
	})
	assert.ErrorIs(t, err, ErrDependencyCycle)
}

func TestCreateTaskRejectsCycle(t *testing.T) {
	_, services := newTestServices(t)
	ctx := context.Background()

	a := createAllVolunteersTask(t, services, "A", nil)
	b := createAllVolunteersTask(t, services, "B", []string{a.ID})
	c := createAllVolunteersTask(t, services, "C", []string{b.ID})

	// Closing the loop A -> C must fail.
	_, err := services.Task.UpdateTask(ctx, a.ID, &UpdateTaskInput{
		Prerequisites: []string{c.ID},
	})
	assert.ErrorIs(t, err, ErrDependencyCycle)
}

func TestCreateTaskRejectsUnknownPrerequisite(t *testing.T) {
	_, services := newTestServices(t)
	ctx := context.Background()

	_, err := services.Task.CreateTask(ctx, &CreateTaskInput{
		Title:            "Orphan",
		AssignmentType:   types.AssignAllVolunteers,
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
		Prerequisites:    []string{"no-such-task"},
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplicableTasksIncludesRoleTasksOnlyWhenConfirmed(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 5)
	v := createTestVolunteer(t, repos, "v@test.ie")

	createAllVolunteersTask(t, services, "Everyone", nil)
	_, err := services.Task.CreateTask(ctx, &CreateTaskInput{
		Title:            "Marshal briefing",
		RoleID:           &role.ID,
		AssignmentType:   types.AssignSpecificRole,
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
	})
	require.NoError(t, err)

	// Not confirmed: only the everyone task.
	resolved, err := services.Task.ApplicableTasks(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, resolved, 1)
	assert.Equal(t, "Everyone", resolved[0].Task.Title)

	// Pending reservation does not count.
	assignment, err := services.Role.Reserve(ctx, role.ID, v.ID)
	require.NoError(t, err)
	resolved, err = services.Task.ApplicableTasks(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, resolved, 1)

	// Confirmed: both.
	_, err = services.Role.Confirm(ctx, assignment.ID)
	require.NoError(t, err)
	resolved, err = services.Task.ApplicableTasks(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, resolved, 2)
}

func TestApplicableTasksTopologicalOrder(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")

	a := createAllVolunteersTask(t, services, "A", nil)
	b := createAllVolunteersTask(t, services, "B", []string{a.ID})
	c := createAllVolunteersTask(t, services, "C", []string{a.ID, b.ID})

	resolved, err := services.Task.ApplicableTasks(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, resolved, 3)

	position := make(map[string]int, 3)
	for i, r := range resolved {
		position[r.Task.ID] = i
	}
	assert.Less(t, position[a.ID], position[b.ID])
	assert.Less(t, position[b.ID], position[c.ID])
}

func TestApplicableTasksBlockedFlag(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")

	a := createAllVolunteersTask(t, services, "A", nil)
	b := createAllVolunteersTask(t, services, "B", []string{a.ID})

	require.NoError(t, services.Task.EnsureInstances(ctx, v.ID))

	resolved, err := services.Task.ApplicableTasks(ctx, v.ID)
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.False(t, resolved[0].Blocked)
	assert.Equal(t, b.ID, resolved[1].Task.ID)
	assert.True(t, resolved[1].Blocked)
	assert.Equal(t, []string{a.ID}, resolved[1].MissingPrerequisites)

	// Approving the prerequisite unblocks the dependent. A is auto-approve.
	instance, err := repos.InstanceRepo.FindByTaskAndVolunteer(ctx, a.ID, v.ID)
	require.NoError(t, err)
	checked := true
	_, err = services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{Checked: &checked})
	require.NoError(t, err)

	resolved, err = services.Task.ApplicableTasks(ctx, v.ID)
	require.NoError(t, err)
	assert.False(t, resolved[1].Blocked)
	assert.Empty(t, resolved[1].MissingPrerequisites)
}

func TestEnsureInstancesIsIdempotent(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	createAllVolunteersTask(t, services, "A", nil)
	createAllVolunteersTask(t, services, "B", nil)

	require.NoError(t, services.Task.EnsureInstances(ctx, v.ID))
	require.NoError(t, services.Task.EnsureInstances(ctx, v.ID))

	instances, err := repos.InstanceRepo.FindByVolunteer(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, instances, 2)
}

func TestDeactivatedTaskLeavesWorklist(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	v := createTestVolunteer(t, repos, "v@test.ie")
	a := createAllVolunteersTask(t, services, "A", nil)

	require.NoError(t, services.Task.DeactivateTask(ctx, a.ID))

	resolved, err := services.Task.ApplicableTasks(ctx, v.ID)
	require.NoError(t, err)
	assert.Empty(t, resolved)
}
