package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/soihub/soi-hub-backend/internal/repository"
	"github.com/soihub/soi-hub-backend/internal/types"
)

// ============================================
// Event Service
// ============================================

type EventService interface {
	CreateEvent(ctx context.Context, input *CreateEventInput) (*repository.Event, error)
	GetEvent(ctx context.Context, id string) (*repository.Event, error)
	GetEventBySlug(ctx context.Context, slug string) (*repository.Event, error)
	ListEvents(ctx context.Context) ([]*repository.Event, error)
	UpdateEvent(ctx context.Context, id string, input *UpdateEventInput) (*repository.Event, error)
	ActivateEvent(ctx context.Context, id string) (*repository.Event, error)
	// ArchiveEvent closes the event and soft-deletes its roles. Existing task
	// instances keep their state for the audit trail.
	ArchiveEvent(ctx context.Context, id string) (*repository.Event, error)
}

type CreateEventInput struct {
	Name      string
	Slug      string
	StartDate *string
	EndDate   *string
}

type UpdateEventInput struct {
	Name      *string
	StartDate *string
	EndDate   *string
}

type eventService struct {
	eventRepo repository.EventRepository
	roleRepo  repository.RoleRepository
}

func NewEventService(eventRepo repository.EventRepository, roleRepo repository.RoleRepository) EventService {
	return &eventService{eventRepo: eventRepo, roleRepo: roleRepo}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func (s *eventService) CreateEvent(ctx context.Context, input *CreateEventInput) (*repository.Event, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidInput
	}

	slug := input.Slug
	if slug == "" {
		slug = slugify(input.Name)
	}

	existing, err := s.eventRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if existing != nil {
		return nil, ErrConflict
	}

	event := &repository.Event{
		Name:   input.Name,
		Slug:   slug,
		Status: types.EventDraft,
	}
	if input.StartDate != nil {
		t, err := parseDate(*input.StartDate)
		if err != nil {
			return nil, ErrInvalidInput
		}
		event.StartDate = t
	}
	if input.EndDate != nil {
		t, err := parseDate(*input.EndDate)
		if err != nil {
			return nil, ErrInvalidInput
		}
		event.EndDate = t
	}
	if event.StartDate != nil && event.EndDate != nil && event.EndDate.Before(*event.StartDate) {
		return nil, ErrInvalidInput
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return event, nil
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*repository.Event, error) {
	event, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrNotFound
	}
	return event, nil
}

func (s *eventService) GetEventBySlug(ctx context.Context, slug string) (*repository.Event, error) {
	event, err := s.eventRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrNotFound
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context) ([]*repository.Event, error) {
	return s.eventRepo.FindAll(ctx)
}

func (s *eventService) UpdateEvent(ctx context.Context, id string, input *UpdateEventInput) (*repository.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status == types.EventArchived {
		return nil, ErrInvalidTransition
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, ErrInvalidInput
		}
		event.Name = *input.Name
	}
	if input.StartDate != nil {
		t, err := parseDate(*input.StartDate)
		if err != nil {
			return nil, ErrInvalidInput
		}
		event.StartDate = t
	}
	if input.EndDate != nil {
		t, err := parseDate(*input.EndDate)
		if err != nil {
			return nil, ErrInvalidInput
		}
		event.EndDate = t
	}
	if event.StartDate != nil && event.EndDate != nil && event.EndDate.Before(*event.StartDate) {
		return nil, ErrInvalidInput
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

func (s *eventService) ActivateEvent(ctx context.Context, id string) (*repository.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != types.EventDraft {
		return nil, ErrInvalidTransition
	}

	event.Status = types.EventActive
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to activate event: %w", err)
	}
	return event, nil
}

func (s *eventService) ArchiveEvent(ctx context.Context, id string) (*repository.Event, error) {
	event, err := s.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status == types.EventArchived {
		return event, nil
	}

	event.Status = types.EventArchived
	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to archive event: %w", err)
	}

	if err := s.roleRepo.SoftDeleteByEventID(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to retire event roles: %w", err)
	}
	return event, nil
}
