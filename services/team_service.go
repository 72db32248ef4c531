package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/joegr/turny/lifecycle"
	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
	"github.com/joegr/turny/repositories"
)

type RegisterTeamInput struct {
	Name    string `json:"name"`
	Captain string `json:"captain"`
	Rating  int    `json:"rating"`
}

// TeamService управляет регистрацией команд в окне registration.
type TeamService struct {
	store repositories.Store
	locks *TournamentLocks

	defaultRating int
}

func NewTeamService(store repositories.Store, locks *TournamentLocks, defaultRating int) *TeamService {
	if defaultRating <= 0 {
		defaultRating = ratings.DefaultRating
	}
	return &TeamService{store: store, locks: locks, defaultRating: defaultRating}
}

// Register добавляет команду в турнир. Требует состояния registration,
// свободного места и уникального имени в рамках турнира.
func (s *TeamService) Register(ctx context.Context, tournamentID string, input RegisterTeamInput) (*models.Team, []models.Event, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}

	defer s.locks.Lock(tournamentID)()

	var team *models.Team
	err := s.store.Atomically(ctx, func(tx repositories.Store) error {
		tournament, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		machine := lifecycle.FromState(string(tournament.State))
		if !machine.CanPerform(lifecycle.ActionRegisterTeam) {
			return fmt.Errorf("%w: state is %s", ErrRegistrationClosed, tournament.State)
		}

		existing, err := tx.Teams().ListByTournament(ctx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if len(existing) >= tournament.MaxTeams {
			return fmt.Errorf("%w: %d of %d slots taken", ErrTournamentFull, len(existing), tournament.MaxTeams)
		}
		for _, t := range existing {
			if strings.EqualFold(t.Name, input.Name) {
				return fmt.Errorf("%w: %s", ErrDuplicateTeam, input.Name)
			}
		}

		rating := input.Rating
		if rating <= 0 {
			rating = s.defaultRating
		}
		team = &models.Team{
			ID:           uuid.NewString(),
			TournamentID: tournamentID,
			Name:         input.Name,
			Captain:      input.Captain,
			Rating:       rating,
		}
		return mapRepositoryError(tx.Teams().Create(ctx, team))
	})
	if err != nil {
		return nil, nil, err
	}

	events := []models.Event{models.NewEvent(models.EventTeamRegistered, tournamentID, map[string]interface{}{
		"team_id":   team.ID,
		"team_name": team.Name,
	})}
	return team, events, nil
}

// Unregister снимает команду с турнира. Идемпотентна: повторное снятие
// отсутствующей команды не ошибка, removed=false.
func (s *TeamService) Unregister(ctx context.Context, tournamentID, teamID string) (bool, error) {
	defer s.locks.Lock(tournamentID)()

	var removed bool
	err := s.store.Atomically(ctx, func(tx repositories.Store) error {
		tournament, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		machine := lifecycle.FromState(string(tournament.State))
		if !machine.CanPerform(lifecycle.ActionUnregisterTeam) {
			return fmt.Errorf("%w: state is %s", ErrRegistrationClosed, tournament.State)
		}

		removed, err = tx.Teams().Delete(ctx, tournamentID, teamID)
		return mapRepositoryError(err)
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *TeamService) List(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, mapRepositoryError(err)
	}
	teams, err := s.store.Teams().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return teams, nil
}

func (s *TeamService) Get(ctx context.Context, tournamentID, teamID string) (*models.Team, error) {
	team, err := s.store.Teams().GetByID(ctx, tournamentID, teamID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return team, nil
}

// RatingHistory возвращает аудит изменений рейтинга команды по порядку записи.
func (s *TeamService) RatingHistory(ctx context.Context, tournamentID, teamID string) ([]*models.RatingHistoryEntry, error) {
	if _, err := s.store.Teams().GetByID(ctx, tournamentID, teamID); err != nil {
		return nil, mapRepositoryError(err)
	}
	entries, err := s.store.RatingHistory().ListByTeam(ctx, teamID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return entries, nil
}
