package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/soihub/soi-hub-backend/internal/db"
	"github.com/soihub/soi-hub-backend/internal/repository"
)

// ============================================
// Dashboard Service
// ============================================

type DashboardService interface {
	// EventDashboard aggregates staffing and task progress for one event.
	// Results are cached for a short window; writes do not invalidate the
	// cache, staleness is bounded by the TTL.
	EventDashboard(ctx context.Context, eventID string) (*EventDashboard, error)
	InvalidateEvent(ctx context.Context, eventID string)
}

type EventDashboard struct {
	Event         *repository.Event         `json:"event"`
	Roles         []*RoleStaffing           `json:"roles"`
	InstanceStats map[string]int            `json:"instanceStats"`
	Understaffed  int                       `json:"understaffed"`
	GeneratedAt   time.Time                 `json:"generatedAt"`
}

type RoleStaffing struct {
	RoleID            string  `json:"roleId"`
	RoleName          string  `json:"roleName"`
	TotalPositions    int     `json:"totalPositions"`
	FilledPositions   int     `json:"filledPositions"`
	MinimumVolunteers int     `json:"minimumVolunteers"`
	FillRate          float64 `json:"fillRate"`
	Understaffed      bool    `json:"understaffed"`
}

const dashboardCacheTTL = 60 * time.Second

type dashboardService struct {
	eventRepo    repository.EventRepository
	roleRepo     repository.RoleRepository
	instanceRepo repository.TaskInstanceRepository
	cache        *db.RedisDB
}

func NewDashboardService(
	eventRepo repository.EventRepository,
	roleRepo repository.RoleRepository,
	instanceRepo repository.TaskInstanceRepository,
	cache *db.RedisDB,
) DashboardService {
	return &dashboardService{
		eventRepo:    eventRepo,
		roleRepo:     roleRepo,
		instanceRepo: instanceRepo,
		cache:        cache,
	}
}

func dashboardCacheKey(eventID string) string {
	return fmt.Sprintf("dashboard:event:%s", eventID)
}

func (s *dashboardService) EventDashboard(ctx context.Context, eventID string) (*EventDashboard, error) {
	if s.cache != nil {
		var cached EventDashboard
		if err := s.cache.GetCache(ctx, dashboardCacheKey(eventID), &cached); err == nil {
			return &cached, nil
		}
	}

	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrNotFound
	}

	summaries, err := s.roleRepo.SummariesByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role summaries: %w", err)
	}

	roles := make([]*RoleStaffing, 0, len(summaries))
	understaffed := 0
	for _, sum := range summaries {
		staffing := &RoleStaffing{
			RoleID:            sum.RoleID,
			RoleName:          sum.RoleName,
			TotalPositions:    sum.TotalPositions,
			FilledPositions:   sum.FilledPositions,
			MinimumVolunteers: sum.MinimumVolunteers,
			Understaffed:      sum.FilledPositions < sum.MinimumVolunteers,
		}
		if sum.TotalPositions > 0 {
			staffing.FillRate = float64(sum.FilledPositions) / float64(sum.TotalPositions)
		}
		if staffing.Understaffed {
			understaffed++
		}
		roles = append(roles, staffing)
	}

	stats, err := s.instanceRepo.CountByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count task instances: %w", err)
	}

	dashboard := &EventDashboard{
		Event:         event,
		Roles:         roles,
		InstanceStats: stats,
		Understaffed:  understaffed,
		GeneratedAt:   time.Now(),
	}

	if s.cache != nil {
		if err := s.cache.SetCache(ctx, dashboardCacheKey(eventID), dashboard, dashboardCacheTTL); err != nil {
			log.Printf("[Dashboard] failed to cache event %s: %v", eventID, err)
		}
	}
	return dashboard, nil
}

func (s *dashboardService) InvalidateEvent(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteCache(ctx, dashboardCacheKey(eventID)); err != nil {
		log.Printf("[Dashboard] failed to invalidate event %s: %v", eventID, err)
	}
}
