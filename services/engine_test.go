package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joegr/turny/lifecycle"
	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
	"github.com/joegr/turny/repositories"
)

type engineFixture struct {
	store       repositories.Store
	tournaments *TournamentService
	teams       *TeamService
	matches     *MatchService
}

func newEngineFixture() *engineFixture {
	store := repositories.NewMemoryStore()
	calc := ratings.NewCalculator(ratings.DefaultKFactor)
	locks := NewTournamentLocks()
	return &engineFixture{
		store:       store,
		tournaments: NewTournamentService(store, calc, nil, locks, 2, 64),
		teams:       NewTeamService(store, locks, ratings.DefaultRating),
		matches:     NewMatchService(store, calc, locks),
	}
}

func (f *engineFixture) createTournament(t *testing.T, input CreateTournamentInput) *models.Tournament {
	t.Helper()
	tournament, err := f.tournaments.Create(context.Background(), nil, input)
	require.NoError(t, err)
	return tournament
}

func (f *engineFixture) registerTeams(t *testing.T, tournamentID string, names []string, ratingsByName map[string]int) map[string]*models.Team {
	t.Helper()
	teams := make(map[string]*models.Team, len(names))
	for _, name := range names {
		input := RegisterTeamInput{Name: name, Captain: name + " captain"}
		if ratingsByName != nil {
			input.Rating = ratingsByName[name]
		}
		team, _, err := f.teams.Register(context.Background(), tournamentID, input)
		require.NoError(t, err)
		teams[name] = team
	}
	return teams
}

func (f *engineFixture) pendingMatches(t *testing.T, tournamentID string) []*models.Match {
	t.Helper()
	status := models.MatchStatusPending
	matches, err := f.matches.List(context.Background(), tournamentID, repositories.MatchFilter{Status: &status})
	require.NoError(t, err)
	return matches
}

func (f *engineFixture) getTournament(t *testing.T, id string) *models.Tournament {
	t.Helper()
	tournament, err := f.store.Tournaments().GetByID(context.Background(), id)
	require.NoError(t, err)
	return tournament
}

func TestRegisterRequiresRegistrationState(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Cup", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 4,
	})

	_, _, err := f.teams.Register(context.Background(), tournament.ID, RegisterTeamInput{Name: "Alpha"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)

	_, err = f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)

	_, _, err = f.teams.Register(context.Background(), tournament.ID, RegisterTeamInput{Name: "Alpha"})
	assert.NoError(t, err)
}

func TestRegisterRejectsDuplicateAndOverflow(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Cup", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 2,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)

	_, _, err = f.teams.Register(context.Background(), tournament.ID, RegisterTeamInput{Name: "Alpha"})
	require.NoError(t, err)

	_, _, err = f.teams.Register(context.Background(), tournament.ID, RegisterTeamInput{Name: "alpha"})
	assert.ErrorIs(t, err, ErrDuplicateTeam)

	_, _, err = f.teams.Register(context.Background(), tournament.ID, RegisterTeamInput{Name: "Beta"})
	require.NoError(t, err)

	_, _, err = f.teams.Register(context.Background(), tournament.ID, RegisterTeamInput{Name: "Gamma"})
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Cup", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 4,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	team, _, err := f.teams.Register(context.Background(), tournament.ID, RegisterTeamInput{Name: "Alpha"})
	require.NoError(t, err)

	removed, err := f.teams.Unregister(context.Background(), tournament.ID, team.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.teams.Unregister(context.Background(), tournament.ID, team.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestStartRequiresMinimumTeams(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Cup", Format: models.FormatRoundRobin, MinTeams: 4, MaxTeams: 8,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B", "C"}, nil)

	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	var transitionErr *lifecycle.TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, lifecycle.GuardMinTeams, transitionErr.Guard)

	f.registerTeams(t, tournament.ID, []string{"D"}, nil)
	events, err := f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventStateChanged, events[0].Type)

	got := f.getTournament(t, tournament.ID)
	assert.Equal(t, models.StateActive, got.State)
	assert.Equal(t, 1, got.CurrentRound)
}

func TestStartGeneratesRoundRobinSchedule(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "League", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 8,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B", "C", "D"}, nil)
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	matches, err := f.matches.List(context.Background(), tournament.ID, repositories.MatchFilter{})
	require.NoError(t, err)
	assert.Len(t, matches, 6)
}

func TestRecordResultValidationLadder(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "League", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 8,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	teams := f.registerTeams(t, tournament.ID, []string{"A", "B", "C", "D"}, nil)
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	pending := f.pendingMatches(t, tournament.ID)
	require.NotEmpty(t, pending)
	match := pending[0]

	t.Run("missing match", func(t *testing.T) {
		_, err := f.matches.RecordResult(context.Background(), tournament.ID, "no_such_match", RecordResultInput{
			WinnerID: match.Team1ID,
		})
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("winner not in match", func(t *testing.T) {
		var outsider string
		for _, team := range teams {
			if !match.HasParticipant(team.ID) {
				outsider = team.ID
				break
			}
		}
		require.NotEmpty(t, outsider)
		_, err := f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
			WinnerID: &outsider,
		})
		assert.ErrorIs(t, err, ErrInvalidParticipant)
	})

	t.Run("draw on knockout stage", func(t *testing.T) {
		_, err := f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
			IsDraw: true,
		})
		assert.ErrorIs(t, err, ErrDrawNotAllowed)
	})

	t.Run("double record", func(t *testing.T) {
		_, err := f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
			WinnerID: match.Team1ID,
		})
		require.NoError(t, err)

		_, err = f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
			WinnerID: match.Team1ID,
		})
		assert.ErrorIs(t, err, ErrMatchNotPending)
	})
}

func TestRecordResultUpdatesCountersAndRatings(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "League", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 8,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B", "C", "D"}, nil)
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	match := f.pendingMatches(t, tournament.ID)[0]
	score1, score2 := 3, 1
	_, err = f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
		WinnerID:   match.Team1ID,
		Team1Score: &score1,
		Team2Score: &score2,
	})
	require.NoError(t, err)

	winner, err := f.store.Teams().GetByID(context.Background(), tournament.ID, *match.Team1ID)
	require.NoError(t, err)
	loser, err := f.store.Teams().GetByID(context.Background(), tournament.ID, *match.Team2ID)
	require.NoError(t, err)

	assert.Equal(t, 1, winner.Wins)
	assert.Equal(t, 3, winner.Points)
	assert.Equal(t, 3, winner.GoalsFor)
	assert.Equal(t, 1, winner.GoalsAgainst)
	assert.Equal(t, 1516, winner.Rating)

	assert.Equal(t, 1, loser.Losses)
	assert.Equal(t, 0, loser.Points)
	assert.Equal(t, 1484, loser.Rating)

	history, err := f.store.RatingHistory().ListByTeam(context.Background(), winner.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.ResultWin, history[0].Result)
	assert.Equal(t, 1500, history[0].RatingBefore)
	assert.Equal(t, 1516, history[0].RatingAfter)
}

func TestAbandonCountsLossToBothWithoutRatingChange(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "League", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 8,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B", "C", "D"}, nil)
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	match := f.pendingMatches(t, tournament.ID)[0]
	_, err = f.matches.Abandon(context.Background(), tournament.ID, match.ID)
	require.NoError(t, err)

	for _, teamID := range []*string{match.Team1ID, match.Team2ID} {
		team, err := f.store.Teams().GetByID(context.Background(), tournament.ID, *teamID)
		require.NoError(t, err)
		assert.Equal(t, 1, team.Losses)
		assert.Equal(t, 0, team.Points)
		assert.Equal(t, 1500, team.Rating)

		history, err := f.store.RatingHistory().ListByTeam(context.Background(), team.ID)
		require.NoError(t, err)
		assert.Empty(t, history)
	}

	got, err := f.store.Matches().GetByID(context.Background(), tournament.ID, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusAbandoned, got.Status)
	assert.Nil(t, got.WinnerID)

	_, err = f.matches.Abandon(context.Background(), tournament.ID, match.ID)
	assert.ErrorIs(t, err, ErrMatchNotPending)
}

func TestSingleEliminationAutoAdvancesAndCompletes(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Knockout", Format: models.FormatSingleElimination, MinTeams: 2, MaxTeams: 8,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B", "C", "D"}, map[string]int{
		"A": 1800, "B": 1600, "C": 1400, "D": 1200,
	})
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	// Раунд 1: везде побеждает первая команда пары.
	round1 := f.pendingMatches(t, tournament.ID)
	require.Len(t, round1, 2)
	for _, match := range round1 {
		events, err := f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
			WinnerID: match.Team1ID,
		})
		require.NoError(t, err)
		if match == round1[len(round1)-1] {
			var types []models.EventType
			for _, e := range events {
				types = append(types, e.Type)
			}
			assert.Contains(t, types, models.EventRoundAdvanced)
		}
	}

	got := f.getTournament(t, tournament.ID)
	assert.Equal(t, 2, got.CurrentRound)

	final := f.pendingMatches(t, tournament.ID)
	require.Len(t, final, 1)
	assert.Equal(t, 2, final[0].Round)

	events, err := f.matches.RecordResult(context.Background(), tournament.ID, final[0].ID, RecordResultInput{
		WinnerID: final[0].Team1ID,
	})
	require.NoError(t, err)

	var completed bool
	for _, e := range events {
		if e.Type == models.EventStateChanged {
			completed = true
		}
	}
	assert.True(t, completed)

	got = f.getTournament(t, tournament.ID)
	assert.Equal(t, models.StateCompleted, got.State)
	require.NotNil(t, got.WinnerTeamID)
	assert.Equal(t, *final[0].Team1ID, *got.WinnerTeamID)
}

func TestRoundRobinCompletionPicksStandingsWinner(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "League", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 4,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	teams := f.registerTeams(t, tournament.ID, []string{"A", "B", "C"}, nil)
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	// Команда A выигрывает все свои матчи, остальные решает вторая сторона.
	for {
		pending := f.pendingMatches(t, tournament.ID)
		if len(pending) == 0 {
			break
		}
		match := pending[0]
		winnerID := match.Team1ID
		if match.HasParticipant(teams["A"].ID) {
			winnerID = &teams["A"].ID
		}
		_, err := f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
			WinnerID: winnerID,
		})
		require.NoError(t, err)
	}

	got := f.getTournament(t, tournament.ID)
	assert.Equal(t, models.StateCompleted, got.State)
	require.NotNil(t, got.WinnerTeamID)
	assert.Equal(t, teams["A"].ID, *got.WinnerTeamID)
}

func TestHybridStageGatingAndKnockout(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Hybrid Cup", Format: models.FormatHybrid, MinTeams: 4, MaxTeams: 8,
		NumGroups: 2, TeamsPerGroupAdvance: 2, AllowDraws: true,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B", "C", "D", "E", "F", "G", "H"}, map[string]int{
		"A": 1800, "B": 1750, "C": 1700, "D": 1650, "E": 1600, "F": 1550, "G": 1500, "H": 1450,
	})
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	// Плей-офф закрыт, пока есть незакрытые групповые матчи.
	_, err = f.tournaments.AdvanceStage(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrStageNotComplete)

	for {
		pending := f.pendingMatches(t, tournament.ID)
		if len(pending) == 0 {
			break
		}
		match := pending[0]
		require.Equal(t, models.StageGroup, match.Stage)
		_, err := f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
			WinnerID: match.Team1ID,
		})
		require.NoError(t, err)
	}

	// Групповой этап закрыт, но турнир не завершён: продвижение явное.
	got := f.getTournament(t, tournament.ID)
	assert.Equal(t, models.StateActive, got.State)

	events, err := f.tournaments.AdvanceStage(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventStageAdvanced, events[0].Type)
	assert.Len(t, events[0].Data["advancing_teams"], 4)

	stage := models.StageKnockout
	koMatches, err := f.matches.List(context.Background(), tournament.ID, repositories.MatchFilter{Stage: &stage})
	require.NoError(t, err)
	require.Len(t, koMatches, 2)
	for _, m := range koMatches {
		assert.Greater(t, m.Round, 1)
	}

	_, err = f.tournaments.AdvanceStage(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestHybridDrawAllowedOnlyInGroupStage(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Hybrid Cup", Format: models.FormatHybrid, MinTeams: 4, MaxTeams: 8,
		NumGroups: 2, TeamsPerGroupAdvance: 1, AllowDraws: true,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B", "C", "D"}, map[string]int{
		"A": 1700, "B": 1600, "C": 1500, "D": 1400,
	})
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	group := f.pendingMatches(t, tournament.ID)[0]
	_, err = f.matches.RecordResult(context.Background(), tournament.ID, group.ID, RecordResultInput{IsDraw: true})
	require.NoError(t, err)

	got, err := f.store.Matches().GetByID(context.Background(), tournament.ID, group.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDraw)
	assert.Nil(t, got.WinnerID)

	for _, match := range f.pendingMatches(t, tournament.ID) {
		_, err := f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
			WinnerID: match.Team1ID,
		})
		require.NoError(t, err)
	}
	_, err = f.tournaments.AdvanceStage(context.Background(), tournament.ID)
	require.NoError(t, err)

	ko := f.pendingMatches(t, tournament.ID)
	require.NotEmpty(t, ko)
	_, err = f.matches.RecordResult(context.Background(), tournament.ID, ko[0].ID, RecordResultInput{IsDraw: true})
	assert.ErrorIs(t, err, ErrDrawNotAllowed)
}

func TestDrawAwardsOnePointEach(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Hybrid Cup", Format: models.FormatHybrid, MinTeams: 4, MaxTeams: 8,
		NumGroups: 2, TeamsPerGroupAdvance: 1, AllowDraws: true,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B", "C", "D"}, nil)
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	match := f.pendingMatches(t, tournament.ID)[0]
	_, err = f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{IsDraw: true})
	require.NoError(t, err)

	for _, teamID := range []*string{match.Team1ID, match.Team2ID} {
		team, err := f.store.Teams().GetByID(context.Background(), tournament.ID, *teamID)
		require.NoError(t, err)
		assert.Equal(t, 1, team.Draws)
		assert.Equal(t, pointsPerDraw, team.Points)
		assert.Equal(t, 1500, team.Rating)
	}
}

func TestArchiveAfterCompletion(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Knockout", Format: models.FormatSingleElimination, MinTeams: 2, MaxTeams: 4,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B"}, nil)

	// Архивировать активный или регистрирующийся турнир нельзя.
	_, err = f.tournaments.Archive(context.Background(), tournament.ID)
	var transitionErr *lifecycle.TransitionError
	require.ErrorAs(t, err, &transitionErr)

	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	match := f.pendingMatches(t, tournament.ID)[0]
	_, err = f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
		WinnerID: match.Team1ID,
	})
	require.NoError(t, err)

	events, err := f.tournaments.Archive(context.Background(), tournament.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := f.getTournament(t, tournament.ID)
	assert.Equal(t, models.StateArchived, got.State)
}

func TestAutoStartDueSkipsUnderfilled(t *testing.T) {
	f := newEngineFixture()
	past := time.Now().Add(-time.Hour)

	ready := f.createTournament(t, CreateTournamentInput{
		Name: "Ready", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 4, ScheduledStart: &past,
	})
	_, err := f.tournaments.Publish(context.Background(), ready.ID)
	require.NoError(t, err)
	f.registerTeams(t, ready.ID, []string{"A", "B"}, nil)

	short := f.createTournament(t, CreateTournamentInput{
		Name: "Short", Format: models.FormatRoundRobin, MinTeams: 4, MaxTeams: 8, ScheduledStart: &past,
	})
	_, err = f.tournaments.Publish(context.Background(), short.ID)
	require.NoError(t, err)
	f.registerTeams(t, short.ID, []string{"X"}, nil)

	events, err := f.tournaments.AutoStartDue(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, ready.ID, events[0].TournamentID)

	assert.Equal(t, models.StateActive, f.getTournament(t, ready.ID).State)
	assert.Equal(t, models.StateRegistration, f.getTournament(t, short.ID).State)
}

func TestStateViewExposesAllowedActions(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Cup", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 4,
	})

	view, err := f.tournaments.State(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StateDraft, view.State)
	assert.Equal(t, "config", view.FormAccess)
	assert.Contains(t, view.AllowedActions, lifecycle.ActionPublish)

	_, err = f.tournaments.State(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestUpdateOnlyInDraft(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Cup", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 4,
	})

	name := "Renamed Cup"
	updated, err := f.tournaments.Update(context.Background(), tournament.ID, UpdateTournamentInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)

	_, err = f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)

	_, err = f.tournaments.Update(context.Background(), tournament.ID, UpdateTournamentInput{Name: &name})
	assert.ErrorIs(t, err, ErrTournamentNotEditable)
}

func TestRecordResultRejectsNegativeScores(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "League", Format: models.FormatRoundRobin, MinTeams: 2, MaxTeams: 4,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B"}, nil)
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	match := f.pendingMatches(t, tournament.ID)[0]
	negative1, negative2 := -5, -7
	_, err = f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
		WinnerID: match.Team1ID, Team1Score: &negative1, Team2Score: &negative2,
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	// Счёт только одной стороны тоже не принимается.
	lone := 3
	_, err = f.matches.RecordResult(context.Background(), tournament.ID, match.ID, RecordResultInput{
		WinnerID: match.Team1ID, Team1Score: &lone,
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	got, err := f.store.Matches().GetByID(context.Background(), tournament.ID, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchStatusPending, got.Status)

	team, err := f.store.Teams().GetByID(context.Background(), tournament.ID, *match.Team1ID)
	require.NoError(t, err)
	assert.Zero(t, team.GoalsFor)
	assert.Zero(t, team.GoalsAgainst)
	assert.Zero(t, team.Wins)
}

func TestHybridGroupRoundsAdvanceCounter(t *testing.T) {
	f := newEngineFixture()
	tournament := f.createTournament(t, CreateTournamentInput{
		Name: "Hybrid Cup", Format: models.FormatHybrid, MinTeams: 4, MaxTeams: 8,
		NumGroups: 2, TeamsPerGroupAdvance: 2, AllowDraws: true,
	})
	_, err := f.tournaments.Publish(context.Background(), tournament.ID)
	require.NoError(t, err)
	f.registerTeams(t, tournament.ID, []string{"A", "B", "C", "D", "E", "F", "G", "H"}, nil)
	_, err = f.tournaments.Start(context.Background(), tournament.ID)
	require.NoError(t, err)

	// 4 команды в группе = 3 круговых раунда; закрытие раунда в обеих группах
	// двигает счётчик, закрытие последнего матча объявляет этап завершённым.
	var advancedTo []int
	sawStageComplete := false
	for {
		pending := f.pendingMatches(t, tournament.ID)
		if len(pending) == 0 {
			break
		}
		events, err := f.matches.RecordResult(context.Background(), tournament.ID, pending[0].ID, RecordResultInput{
			WinnerID: pending[0].Team1ID,
		})
		require.NoError(t, err)
		for _, event := range events {
			switch event.Type {
			case models.EventRoundAdvanced:
				advancedTo = append(advancedTo, event.Data["round"].(int))
			case models.EventGroupStageComplete:
				sawStageComplete = true
			}
		}
	}

	assert.Equal(t, []int{2, 3}, advancedTo)
	assert.True(t, sawStageComplete)

	got := f.getTournament(t, tournament.ID)
	assert.Equal(t, models.StateActive, got.State)
	assert.Equal(t, 3, got.CurrentRound)

	// Плей-офф не создаётся до явного продвижения этапа.
	stage := models.StageKnockout
	koMatches, err := f.matches.List(context.Background(), tournament.ID, repositories.MatchFilter{Stage: &stage})
	require.NoError(t, err)
	assert.Empty(t, koMatches)
}
