package service

import (
	"context"
	"testing"

	"github.com/soihub/soi-hub-backend/internal/config"
	"github.com/soihub/soi-hub-backend/internal/notification"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
	"github.com/stretchr/testify/require"
)

func newTestServices(t *testing.T) (*repository.Repositories, *Services) {
	t.Helper()
	repos := repository.NewRepositories()
	notifSvc := notification.NewService(repos.NotificationRepo, repos.UserRepo)
	cfg := &config.Config{
		JWTSecret:         "test-secret",
		JWTExpiry:         1,
		RefreshExpiry:     7,
		MaxPhotoSizeBytes: 10 << 20,
		AllowedPhotoTypes: "image/jpeg,image/png",
	}
	services := NewServices(&ServiceDeps{
		Config:   cfg,
		Repos:    repos,
		NotifSvc: notifSvc,
	})
	return repos, services
}

func createTestVolunteer(t *testing.T, repos *repository.Repositories, email string) *repository.User {
	t.Helper()
	user := &repository.User{
		Email:    email,
		Password: "hashed",
		Name:     "Test Volunteer",
		UserType: types.UserVolunteer,
	}
	require.NoError(t, repos.UserRepo.Create(context.Background(), user))
	return user
}

func createTestStaff(t *testing.T, repos *repository.Repositories, email string, supervisor bool) *repository.User {
	t.Helper()
	user := &repository.User{
		Email:        email,
		Password:     "hashed",
		Name:         "Test Staff",
		UserType:     types.UserStaff,
		IsSupervisor: supervisor,
	}
	require.NoError(t, repos.UserRepo.Create(context.Background(), user))
	return user
}

func createTestAdmin(t *testing.T, repos *repository.Repositories, email string) *repository.User {
	t.Helper()
	user := &repository.User{
		Email:    email,
		Password: "hashed",
		Name:     "Test Admin",
		UserType: types.UserAdmin,
	}
	require.NoError(t, repos.UserRepo.Create(context.Background(), user))
	return user
}

func createTestEvent(t *testing.T, repos *repository.Repositories) *repository.Event {
	t.Helper()
	event := &repository.Event{
		Name:   "Summer Games",
		Slug:   "summer-games",
		Status: types.EventActive,
	}
	require.NoError(t, repos.EventRepo.Create(context.Background(), event))
	return event
}

func createTestRole(t *testing.T, repos *repository.Repositories, eventID string, total int) *repository.Role {
	t.Helper()
	role := &repository.Role{
		EventID:        eventID,
		Name:           "Venue Marshal",
		TotalPositions: total,
		Status:         types.RoleActive,
	}
	require.NoError(t, repos.RoleRepo.Create(context.Background(), role))
	return role
}

// confirmVolunteerInRole walks a volunteer through reserve and confirm.
func confirmVolunteerInRole(t *testing.T, services *Services, roleID, volunteerID string) *repository.Assignment {
	t.Helper()
	assignment, err := services.Role.Reserve(context.Background(), roleID, volunteerID)
	require.NoError(t, err)
	confirmed, err := services.Role.Confirm(context.Background(), assignment.ID)
	require.NoError(t, err)
	return confirmed
}
