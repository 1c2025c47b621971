package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/soihub/soi-hub-backend/internal/notification"
	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
)

// ============================================
// Role Service
// ============================================

type RoleService interface {
	CreateRole(ctx context.Context, input *CreateRoleInput) (*repository.Role, error)
	GetRole(ctx context.Context, id string) (*repository.Role, error)
	ListRolesByEvent(ctx context.Context, eventID string) ([]*repository.Role, error)
	UpdateRole(ctx context.Context, id string, input *UpdateRoleInput) (*repository.Role, error)
	CloseRole(ctx context.Context, id string) error

	// Reserve claims a position in a role for a volunteer. The resulting
	// assignment is PENDING until confirmed; the position counts against
	// capacity from the moment of reservation.
	Reserve(ctx context.Context, roleID, volunteerID string) (*repository.Assignment, error)
	Confirm(ctx context.Context, assignmentID string) (*repository.Assignment, error)
	// Release withdraws an assignment and frees its position. Releasing an
	// already-withdrawn assignment succeeds without effect.
	Release(ctx context.Context, assignmentID string) error
	GetAssignment(ctx context.Context, id string) (*repository.Assignment, error)
	ListAssignmentsByVolunteer(ctx context.Context, volunteerID string) ([]*repository.Assignment, error)
	ListAssignmentsByRole(ctx context.Context, roleID string) ([]*repository.Assignment, error)
}

type CreateRoleInput struct {
	EventID             string
	Name                string
	Description         *string
	TotalPositions      int
	MinimumVolunteers   int
	RequiredCredentials []string
	RequiredTraining    []string
}

type UpdateRoleInput struct {
	Name                *string
	Description         *string
	TotalPositions      *int
	MinimumVolunteers   *int
	RequiredCredentials []string
	RequiredTraining    []string
	Status              *string
}

type roleService struct {
	roleRepo       repository.RoleRepository
	assignmentRepo repository.AssignmentRepository
	eventRepo      repository.EventRepository
	notifSvc       *notification.Service
}

func NewRoleService(
	roleRepo repository.RoleRepository,
	assignmentRepo repository.AssignmentRepository,
	eventRepo repository.EventRepository,
	notifSvc *notification.Service,
) RoleService {
	return &roleService{
		roleRepo:       roleRepo,
		assignmentRepo: assignmentRepo,
		eventRepo:      eventRepo,
		notifSvc:       notifSvc,
	}
}

func (s *roleService) CreateRole(ctx context.Context, input *CreateRoleInput) (*repository.Role, error) {
	if strings.TrimSpace(input.Name) == "" || input.TotalPositions < 1 {
		return nil, ErrInvalidInput
	}
	if input.MinimumVolunteers < 0 || input.MinimumVolunteers > input.TotalPositions {
		return nil, ErrInvalidInput
	}

	event, err := s.eventRepo.FindByID(ctx, input.EventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrNotFound
	}
	if event.Status == types.EventArchived {
		return nil, ErrInvalidTransition
	}

	role := &repository.Role{
		EventID:             input.EventID,
		Name:                input.Name,
		Description:         input.Description,
		TotalPositions:      input.TotalPositions,
		MinimumVolunteers:   input.MinimumVolunteers,
		RequiredCredentials: input.RequiredCredentials,
		RequiredTraining:    input.RequiredTraining,
		Status:              types.RoleActive,
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return role, nil
}

func (s *roleService) GetRole(ctx context.Context, id string) (*repository.Role, error) {
	role, err := s.roleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	if role == nil {
		return nil, ErrNotFound
	}
	return role, nil
}

func (s *roleService) ListRolesByEvent(ctx context.Context, eventID string) ([]*repository.Role, error) {
	return s.roleRepo.FindByEventID(ctx, eventID)
}

func (s *roleService) UpdateRole(ctx context.Context, id string, input *UpdateRoleInput) (*repository.Role, error) {
	role, err := s.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrInvalidInput
		}
		role.Name = *input.Name
	}
	if input.Description != nil {
		role.Description = input.Description
	}
	if input.TotalPositions != nil {
		// Capacity can never shrink below what is already filled.
		if *input.TotalPositions < role.FilledPositions {
			return nil, ErrInvalidInput
		}
		role.TotalPositions = *input.TotalPositions
	}
	if input.MinimumVolunteers != nil {
		if *input.MinimumVolunteers < 0 || *input.MinimumVolunteers > role.TotalPositions {
			return nil, ErrInvalidInput
		}
		role.MinimumVolunteers = *input.MinimumVolunteers
	}
	if input.RequiredCredentials != nil {
		role.RequiredCredentials = input.RequiredCredentials
	}
	if input.RequiredTraining != nil {
		role.RequiredTraining = input.RequiredTraining
	}
	if input.Status != nil {
		if !types.IsValidRoleStatus(*input.Status) {
			return nil, ErrInvalidInput
		}
		role.Status = *input.Status
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return role, nil
}

func (s *roleService) CloseRole(ctx context.Context, id string) error {
	if _, err := s.GetRole(ctx, id); err != nil {
		return err
	}
	return s.roleRepo.UpdateStatus(ctx, id, types.RoleClosed)
}

func (s *roleService) Reserve(ctx context.Context, roleID, volunteerID string) (*repository.Assignment, error) {
	role, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	active, err := s.assignmentRepo.HasActiveAssignment(ctx, roleID, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing assignment: %w", err)
	}
	if active {
		return nil, ErrConflict
	}

	assignment, err := s.assignmentRepo.Reserve(ctx, roleID, volunteerID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityExceeded):
			return nil, ErrCapacityExceeded
		case errors.Is(err, repository.ErrRoleNotOpen):
			return nil, ErrRoleNotOpen
		}
		return nil, fmt.Errorf("failed to reserve position: %w", err)
	}
	if assignment == nil {
		// Role deleted between the lookup and the reservation.
		return nil, ErrNotFound
	}

	if err := s.notifSvc.SendRoleReserved(ctx, volunteerID, role.Name, role.ID); err != nil {
		log.Printf("[Role] failed to send reservation notification: %v", err)
	}
	return assignment, nil
}

func (s *roleService) Confirm(ctx context.Context, assignmentID string) (*repository.Assignment, error) {
	assignment, err := s.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if err := s.assignmentRepo.Confirm(ctx, assignmentID); err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("failed to confirm assignment: %w", err)
	}

	assignment, err = s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload assignment: %w", err)
	}

	role, err := s.roleRepo.FindByID(ctx, assignment.RoleID)
	if err == nil && role != nil {
		if err := s.notifSvc.SendAssignmentConfirmed(ctx, assignment.VolunteerID, role.Name, role.ID); err != nil {
			log.Printf("[Role] failed to send confirmation notification: %v", err)
		}
	}
	return assignment, nil
}

func (s *roleService) Release(ctx context.Context, assignmentID string) error {
	assignment, err := s.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	alreadyWithdrawn := assignment.Status == types.AssignmentWithdrawn

	if err := s.assignmentRepo.Release(ctx, assignmentID); err != nil {
		return fmt.Errorf("failed to release assignment: %w", err)
	}

	if !alreadyWithdrawn {
		role, rerr := s.roleRepo.FindByID(ctx, assignment.RoleID)
		if rerr == nil && role != nil {
			if err := s.notifSvc.SendAssignmentWithdrawn(ctx, assignment.VolunteerID, role.Name, role.ID); err != nil {
				log.Printf("[Role] failed to send withdrawal notification: %v", err)
			}
		}
	}
	return nil
}

func (s *roleService) GetAssignment(ctx context.Context, id string) (*repository.Assignment, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}
	if assignment == nil {
		return nil, ErrNotFound
	}
	return assignment, nil
}

func (s *roleService) ListAssignmentsByVolunteer(ctx context.Context, volunteerID string) ([]*repository.Assignment, error) {
	return s.assignmentRepo.FindByVolunteer(ctx, volunteerID)
}

func (s *roleService) ListAssignmentsByRole(ctx context.Context, roleID string) ([]*repository.Assignment, error) {
	return s.assignmentRepo.FindByRole(ctx, roleID)
}
