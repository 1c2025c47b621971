package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/soihub/soi-hub-backend/internal/notification"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// vanishingAssignmentRepo drops the role between the service's lookup and the
// reservation, the way a concurrent hard delete would.
type vanishingAssignmentRepo struct {
	repository.AssignmentRepository
}

func (r *vanishingAssignmentRepo) Reserve(ctx context.Context, roleID, volunteerID string) (*repository.Assignment, error) {
	return nil, nil
}

func TestReserveRoleDeletedMidFlight(t *testing.T) {
	repos, _ := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 2)
	v := createTestVolunteer(t, repos, "v@test.ie")

	notifSvc := notification.NewService(repos.NotificationRepo, repos.UserRepo)
	roleService := NewRoleService(
		repos.RoleRepo,
		&vanishingAssignmentRepo{AssignmentRepository: repos.AssignmentRepo},
		repos.EventRepo,
		notifSvc,
	)

	_, err := roleService.Reserve(ctx, role.ID, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReserveFillsCapacity(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 2)

	v1 := createTestVolunteer(t, repos, "v1@test.ie")
	v2 := createTestVolunteer(t, repos, "v2@test.ie")
	v3 := createTestVolunteer(t, repos, "v3@test.ie")

	_, err := services.Role.Reserve(ctx, role.ID, v1.ID)
	require.NoError(t, err)
	_, err = services.Role.Reserve(ctx, role.ID, v2.ID)
	require.NoError(t, err)

	_, err = services.Role.Reserve(ctx, role.ID, v3.ID)
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	updated, err := services.Role.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.FilledPositions)
}

// Concurrent reservations against one role must never overshoot capacity.
func TestReserveConcurrentNeverOvershoots(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 5)

	const volunteers = 20
	ids := make([]string, volunteers)
	for i := range ids {
		ids[i] = createTestVolunteer(t, repos, fmt.Sprintf("c%d@test.ie", i)).ID
	}

	var wg sync.WaitGroup
	errs := make([]error, volunteers)
	for i := 0; i < volunteers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = services.Role.Reserve(ctx, role.ID, ids[i])
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrCapacityExceeded)
		}
	}
	assert.Equal(t, 5, succeeded)

	updated, err := services.Role.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.FilledPositions)
}

func TestReserveClosedRole(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 3)
	require.NoError(t, services.Role.CloseRole(ctx, role.ID))

	v := createTestVolunteer(t, repos, "v@test.ie")
	_, err := services.Role.Reserve(ctx, role.ID, v.ID)
	assert.ErrorIs(t, err, ErrRoleNotOpen)
}

func TestReserveRejectsDoubleReservation(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 3)
	v := createTestVolunteer(t, repos, "v@test.ie")

	_, err := services.Role.Reserve(ctx, role.ID, v.ID)
	require.NoError(t, err)

	_, err = services.Role.Reserve(ctx, role.ID, v.ID)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConfirmKeepsCounter(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 2)
	v := createTestVolunteer(t, repos, "v@test.ie")

	assignment, err := services.Role.Reserve(ctx, role.ID, v.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AssignmentPending, assignment.Status)

	confirmed, err := services.Role.Confirm(ctx, assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, types.AssignmentConfirmed, confirmed.Status)
	assert.NotNil(t, confirmed.ConfirmedAt)

	// The slot was counted at reservation time.
	updated, err := services.Role.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.FilledPositions)
}

func TestConfirmNotPending(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 2)
	v := createTestVolunteer(t, repos, "v@test.ie")

	assignment := confirmVolunteerInRole(t, services, role.ID, v.ID)

	_, err := services.Role.Confirm(ctx, assignment.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReleaseFreesPositionAndIsIdempotent(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 1)
	v1 := createTestVolunteer(t, repos, "v1@test.ie")
	v2 := createTestVolunteer(t, repos, "v2@test.ie")

	assignment := confirmVolunteerInRole(t, services, role.ID, v1.ID)

	require.NoError(t, services.Role.Release(ctx, assignment.ID))

	updated, err := services.Role.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.FilledPositions)

	// A second release must not decrement again.
	require.NoError(t, services.Role.Release(ctx, assignment.ID))
	updated, err = services.Role.GetRole(ctx, role.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.FilledPositions)

	// The freed position is reservable again.
	_, err = services.Role.Reserve(ctx, role.ID, v2.ID)
	require.NoError(t, err)
}

func TestUpdateRoleCannotShrinkBelowFilled(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 3)
	v1 := createTestVolunteer(t, repos, "v1@test.ie")
	v2 := createTestVolunteer(t, repos, "v2@test.ie")
	confirmVolunteerInRole(t, services, role.ID, v1.ID)
	confirmVolunteerInRole(t, services, role.ID, v2.ID)

	one := 1
	_, err := services.Role.UpdateRole(ctx, role.ID, &UpdateRoleInput{TotalPositions: &one})
	assert.ErrorIs(t, err, ErrInvalidInput)

	two := 2
	updated, err := services.Role.UpdateRole(ctx, role.ID, &UpdateRoleInput{TotalPositions: &two})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalPositions)
}

func TestArchiveEventRetiresRoles(t *testing.T) {
	repos, services := newTestServices(t)
	ctx := context.Background()

	event := createTestEvent(t, repos)
	role := createTestRole(t, repos, event.ID, 3)

	archived, err := services.Event.ArchiveEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, types.EventArchived, archived.Status)

	v := createTestVolunteer(t, repos, "v@test.ie")
	_, err = services.Role.Reserve(ctx, role.ID, v.ID)
	assert.Error(t, err)
}
