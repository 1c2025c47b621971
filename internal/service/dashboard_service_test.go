package service

import (
	"context"
	"testing"

	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDashboardAggregatesStaffing(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	marshal := createTestRole(t, repos, event.ID, 4)
	aider := &repository.Role{
		EventID:           event.ID,
		Name:              "First Aider",
		TotalPositions:    2,
		MinimumVolunteers: 2,
		Status:            types.RoleActive,
	}
	require.NoError(t, repos.RoleRepo.Create(ctx, aider))

	v := createTestVolunteer(t, repos, "v@test.ie")
	confirmVolunteerInRole(t, services, marshal.ID, v.ID)

	task := createTaskWith(t, services, &CreateTaskInput{
		Title:            "Code of conduct",
		TaskType:         types.TaskCheckbox,
		VerificationType: types.VerifyAutoApprove,
	})
	instance := instanceFor(t, repos, services, task.ID, v.ID)
	checked := true
	_, err := services.Instance.Submit(ctx, instance.ID, v.ID, &SubmitInput{Checked: &checked})
	require.NoError(t, err)

	dashboard, err := services.Dashboard.EventDashboard(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, dashboard.Roles, 2)

	byName := make(map[string]*RoleStaffing)
	for _, staffing := range dashboard.Roles {
		byName[staffing.RoleName] = staffing
	}

	require.Contains(t, byName, "Venue Marshal")
	assert.Equal(t, 1, byName["Venue Marshal"].FilledPositions)
	assert.InDelta(t, 0.25, byName["Venue Marshal"].FillRate, 0.001)
	assert.False(t, byName["Venue Marshal"].Understaffed)

	require.Contains(t, byName, "First Aider")
	assert.True(t, byName["First Aider"].Understaffed)
	assert.Equal(t, 1, dashboard.Understaffed)

	assert.Equal(t, 1, dashboard.InstanceStats[types.InstanceApproved])
}

func TestEventDashboardUnknownEvent(t *testing.T) {
	_, services := newTestServices(t)

	_, err := services.Dashboard.EventDashboard(context.Background(), "no-such-event")
	assert.ErrorIs(t, err, ErrNotFound)
}
