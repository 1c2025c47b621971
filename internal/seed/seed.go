// internal/seed/seed.go
package seed

import (
	"context"
	"log"
	"time"

	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
	"golang.org/x/crypto/bcrypt"
)

func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	users, _ := repos.UserRepo.FindAll(ctx)
	if len(users) > 0 {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] 🌱 Creating initial data...")

	// ============================================
	// CREATE USERS
	// ============================================
	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	admin := &repository.User{
		Email:    "admin@soihub.ie",
		Password: string(password),
		Name:     "Aoife Brennan",
		UserType: types.UserAdmin,
	}
	repos.UserRepo.Create(ctx, admin)

	supervisor := &repository.User{
		Email:        "supervisor@soihub.ie",
		Password:     string(password),
		Name:         "Declan Murphy",
		UserType:     types.UserStaff,
		IsSupervisor: true,
	}
	repos.UserRepo.Create(ctx, supervisor)

	membershipNo := "SOI-10482"
	volunteer := &repository.User{
		Email:            "volunteer@soihub.ie",
		Password:         string(password),
		Name:             "Sinead O'Connor",
		UserType:         types.UserVolunteer,
		MembershipNumber: &membershipNo,
	}
	repos.UserRepo.Create(ctx, volunteer)

	// ============================================
	// CREATE EVENT + ROLES
	// ============================================
	start := time.Now().AddDate(0, 2, 0)
	end := start.AddDate(0, 0, 4)
	games := &repository.Event{
		Name:      "SOI National Games 2026",
		Slug:      "national-games-2026",
		Status:    types.EventActive,
		StartDate: &start,
		EndDate:   &end,
	}
	repos.EventRepo.Create(ctx, games)

	marshalDesc := "Guide athletes and spectators around the venue"
	marshal := &repository.Role{
		EventID:           games.ID,
		Name:              "Venue Marshal",
		Description:       &marshalDesc,
		TotalPositions:    20,
		MinimumVolunteers: 8,
		Status:            types.RoleActive,
	}
	repos.RoleRepo.Create(ctx, marshal)

	medicDesc := "First aid cover at the athletics track"
	medic := &repository.Role{
		EventID:             games.ID,
		Name:                "First Aider",
		Description:         &medicDesc,
		TotalPositions:      6,
		MinimumVolunteers:   4,
		RequiredCredentials: []string{"FIRST_AID_CERT"},
		Status:              types.RoleActive,
	}
	repos.RoleRepo.Create(ctx, medic)

	// ============================================
	// CREATE ONBOARDING TASKS
	// ============================================
	deadline := start.AddDate(0, 0, -7)

	codeOfConduct := &repository.Task{
		Title:                 "Accept the volunteer code of conduct",
		AssignmentType:        types.AssignAllVolunteers,
		TaskType:              types.TaskCheckbox,
		VerificationType:      types.VerifyAutoApprove,
		Mandatory:             true,
		Active:                true,
		Deadline:              &deadline,
		SendReminders:         true,
		ReminderFrequencyDays: 3,
		CreatedBy:             &admin.ID,
	}
	repos.TaskRepo.Create(ctx, codeOfConduct)

	garda := &repository.Task{
		Title:                 "Upload your Garda vetting letter",
		AssignmentType:        types.AssignAllVolunteers,
		TaskType:              types.TaskPhoto,
		VerificationType:      types.VerifyManualReview,
		Mandatory:             true,
		Active:                true,
		Deadline:              &deadline,
		SendReminders:         true,
		ReminderFrequencyDays: 2,
		Prerequisites:         []string{codeOfConduct.ID},
		CreatedBy:             &admin.ID,
	}
	repos.TaskRepo.Create(ctx, garda)

	firstAidDesc := "Describe your first aid experience and current certification"
	firstAid := &repository.Task{
		RoleID:           &medic.ID,
		Title:            "First aid experience statement",
		Description:      &firstAidDesc,
		AssignmentType:   types.AssignSpecificRole,
		TaskType:         types.TaskText,
		VerificationType: types.VerifySupervisor,
		Mandatory:        true,
		Active:           true,
		MinWords:         50,
		MaxWords:         500,
		SendReminders:    true,
		Prerequisites:    []string{codeOfConduct.ID},
		CreatedBy:        &admin.ID,
	}
	repos.TaskRepo.Create(ctx, firstAid)

	log.Println("[Seed] ✅ Seed data created")
	log.Println("[Seed]    admin@soihub.ie / supervisor@soihub.ie / volunteer@soihub.ie (password123)")
}
