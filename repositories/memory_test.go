package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joegr/turny/models"
)

func TestMemoryStoreAtomicallyRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Tournaments().Create(ctx, &models.Tournament{
		ID: "t1", Name: "Spring Cup", Format: models.FormatRoundRobin, State: models.StateRegistration,
		MinTeams: 2, MaxTeams: 8,
	}))

	boom := errors.New("boom")
	err := store.Atomically(ctx, func(tx Store) error {
		if err := tx.Teams().Create(ctx, &models.Team{ID: "a", TournamentID: "t1", Name: "Alpha"}); err != nil {
			return err
		}
		tournament, err := tx.Tournaments().GetByID(ctx, "t1")
		if err != nil {
			return err
		}
		tournament.State = models.StateActive
		if err := tx.Tournaments().Update(ctx, tournament); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	tournament, err := store.Tournaments().GetByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StateRegistration, tournament.State)

	teams, err := store.Teams().ListByTournament(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestMemoryStoreAtomicallyCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Tournaments().Create(ctx, &models.Tournament{
		ID: "t1", Name: "Spring Cup", Format: models.FormatRoundRobin, State: models.StateRegistration,
	}))

	err := store.Atomically(ctx, func(tx Store) error {
		// Вложенная граница схлопывается, не блокируясь на самой себе.
		return tx.Atomically(ctx, func(inner Store) error {
			return inner.Teams().Create(ctx, &models.Team{ID: "a", TournamentID: "t1", Name: "Alpha"})
		})
	})
	require.NoError(t, err)

	teams, err := store.Teams().ListByTournament(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, teams, 1)
}

func TestMemoryTeamDeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Tournaments().Create(ctx, &models.Tournament{ID: "t1", Name: "Cup"}))
	require.NoError(t, store.Teams().Create(ctx, &models.Team{ID: "a", TournamentID: "t1", Name: "Alpha"}))

	removed, err := store.Teams().Delete(ctx, "t1", "a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = store.Teams().Delete(ctx, "t1", "a")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryTournamentListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	organizer := 7
	require.NoError(t, store.Tournaments().Create(ctx, &models.Tournament{
		ID: "t1", Name: "A", State: models.StateDraft, OrganizerID: &organizer,
	}))
	require.NoError(t, store.Tournaments().Create(ctx, &models.Tournament{
		ID: "t2", Name: "B", State: models.StateActive, OrganizerID: &organizer,
	}))
	require.NoError(t, store.Tournaments().Create(ctx, &models.Tournament{
		ID: "t3", Name: "C", State: models.StateActive,
	}))

	active := models.StateActive
	list, err := store.Tournaments().List(ctx, TournamentFilter{State: &active})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = store.Tournaments().List(ctx, TournamentFilter{State: &active, OrganizerID: &organizer})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "t2", list[0].ID)
}
