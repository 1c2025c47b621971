package service

import (
	"context"
	"testing"

	"github.com/soihub/soi-hub-backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEventSlugAndDates(t *testing.T) {
	_, services := newTestServices(t)
	ctx := context.Background()

	start := "2026-06-12"
	end := "2026-06-14"
	event, err := services.Event.CreateEvent(ctx, &CreateEventInput{
		Name:      "SOI National Games 2026",
		StartDate: &start,
		EndDate:   &end,
	})
	require.NoError(t, err)
	assert.Equal(t, "soi-national-games-2026", event.Slug)
	assert.Equal(t, types.EventDraft, event.Status)
	require.NotNil(t, event.StartDate)
	require.NotNil(t, event.EndDate)

	// Same name means same slug, which is taken.
	_, err = services.Event.CreateEvent(ctx, &CreateEventInput{Name: "SOI National Games 2026"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateEventRejectsBadDates(t *testing.T) {
	_, services := newTestServices(t)
	ctx := context.Background()

	start := "2026-06-14"
	end := "2026-06-12"
	_, err := services.Event.CreateEvent(ctx, &CreateEventInput{
		Name:      "Backwards Games",
		StartDate: &start,
		EndDate:   &end,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	garbage := "next tuesday"
	_, err = services.Event.CreateEvent(ctx, &CreateEventInput{
		Name:      "Vague Games",
		StartDate: &garbage,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestActivateEventOnlyFromDraft(t *testing.T) {
	_, services := newTestServices(t)
	ctx := context.Background()

	event, err := services.Event.CreateEvent(ctx, &CreateEventInput{Name: "Winter Games"})
	require.NoError(t, err)

	activated, err := services.Event.ActivateEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, types.EventActive, activated.Status)

	archived, err := services.Event.ArchiveEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, types.EventArchived, archived.Status)

	// An archived event cannot be reactivated.
	_, err = services.Event.ActivateEvent(ctx, event.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
