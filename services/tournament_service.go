package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joegr/turny/brackets"
	"github.com/joegr/turny/lifecycle"
	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
	"github.com/joegr/turny/repositories"
	"github.com/joegr/turny/standings"
	"github.com/joegr/turny/storage"
)

type CreateTournamentInput struct {
	Name                 string                  `json:"name"`
	Format               models.TournamentFormat `json:"format"`
	MaxTeams             int                     `json:"max_teams"`
	MinTeams             int                     `json:"min_teams"`
	NumGroups            int                     `json:"num_groups"`
	TeamsPerGroupAdvance int                     `json:"teams_per_group_advance"`
	AllowDraws           bool                    `json:"allow_draws"`
	ScheduledStart       *time.Time              `json:"scheduled_start"`
}

type UpdateTournamentInput struct {
	Name                 *string    `json:"name"`
	MaxTeams             *int       `json:"max_teams"`
	MinTeams             *int       `json:"min_teams"`
	NumGroups            *int       `json:"num_groups"`
	TeamsPerGroupAdvance *int       `json:"teams_per_group_advance"`
	AllowDraws           *bool      `json:"allow_draws"`
	ScheduledStart       *time.Time `json:"scheduled_start"`
}

// StateView — представление жизненного цикла для клиента.
type StateView struct {
	State          models.TournamentState `json:"state"`
	AllowedActions []lifecycle.Action     `json:"allowed_actions"`
	FormAccess     string                 `json:"form_access"`
}

// TournamentService — фасад жизненного цикла турнира. Все мутации
// сериализуются по id турнира и применяются атомарно через стор.
type TournamentService struct {
	store    repositories.Store
	calc     *ratings.Calculator
	uploader storage.FileUploader
	locks    *TournamentLocks

	defaultMinTeams int
	defaultMaxTeams int
}

func NewTournamentService(store repositories.Store, calc *ratings.Calculator, uploader storage.FileUploader, locks *TournamentLocks, defaultMinTeams, defaultMaxTeams int) *TournamentService {
	return &TournamentService{
		store:           store,
		calc:            calc,
		uploader:        uploader,
		locks:           locks,
		defaultMinTeams: defaultMinTeams,
		defaultMaxTeams: defaultMaxTeams,
	}
}

func (s *TournamentService) Create(ctx context.Context, organizerID *int, input CreateTournamentInput) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if !models.IsValidFormat(input.Format) {
		return nil, fmt.Errorf("%w: unknown format %q", ErrValidationFailed, input.Format)
	}

	tournament := &models.Tournament{
		ID:                   uuid.NewString(),
		Name:                 input.Name,
		Format:               input.Format,
		State:                models.StateDraft,
		OrganizerID:          organizerID,
		MinTeams:             input.MinTeams,
		MaxTeams:             input.MaxTeams,
		NumGroups:            input.NumGroups,
		TeamsPerGroupAdvance: input.TeamsPerGroupAdvance,
		AllowDraws:           input.AllowDraws,
		ScheduledStart:       input.ScheduledStart,
	}
	if tournament.MinTeams <= 0 {
		tournament.MinTeams = s.defaultMinTeams
	}
	if tournament.MaxTeams <= 0 {
		tournament.MaxTeams = s.defaultMaxTeams
	}
	if tournament.Format == models.FormatHybrid {
		if tournament.NumGroups < 2 {
			tournament.NumGroups = 2
		}
		if tournament.TeamsPerGroupAdvance < 1 {
			tournament.TeamsPerGroupAdvance = 2
		}
		tournament.KnockoutType = models.KnockoutSingleElimination
	}
	if err := validateTournamentConfig(tournament); err != nil {
		return nil, err
	}

	if err := s.store.Tournaments().Create(ctx, tournament); err != nil {
		return nil, mapRepositoryError(err)
	}
	return tournament, nil
}

func validateTournamentConfig(t *models.Tournament) error {
	if t.MinTeams < 2 {
		return fmt.Errorf("%w: min_teams must be at least 2", ErrValidationFailed)
	}
	if t.MaxTeams < t.MinTeams {
		return fmt.Errorf("%w: max_teams must not be below min_teams", ErrValidationFailed)
	}
	if t.Format == models.FormatHybrid && t.MinTeams < 2*t.NumGroups {
		return fmt.Errorf("%w: hybrid format needs at least %d teams for %d groups",
			ErrValidationFailed, 2*t.NumGroups, t.NumGroups)
	}
	return nil
}

// Update правит конфигурацию турнира. Разрешено только в draft.
func (s *TournamentService) Update(ctx context.Context, id string, input UpdateTournamentInput) (*models.Tournament, error) {
	defer s.locks.Lock(id)()

	tournament, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	machine := lifecycle.FromState(string(tournament.State))
	if !machine.CanPerform(lifecycle.ActionEdit) {
		return nil, fmt.Errorf("%w: state is %s", ErrTournamentNotEditable, tournament.State)
	}

	if input.Name != nil {
		tournament.Name = *input.Name
	}
	if input.MinTeams != nil {
		tournament.MinTeams = *input.MinTeams
	}
	if input.MaxTeams != nil {
		tournament.MaxTeams = *input.MaxTeams
	}
	if input.NumGroups != nil {
		tournament.NumGroups = *input.NumGroups
	}
	if input.TeamsPerGroupAdvance != nil {
		tournament.TeamsPerGroupAdvance = *input.TeamsPerGroupAdvance
	}
	if input.AllowDraws != nil {
		tournament.AllowDraws = *input.AllowDraws
	}
	if input.ScheduledStart != nil {
		tournament.ScheduledStart = input.ScheduledStart
	}
	if err := validateTournamentConfig(tournament); err != nil {
		return nil, err
	}

	if err := s.store.Tournaments().Update(ctx, tournament); err != nil {
		return nil, mapRepositoryError(err)
	}
	return tournament, nil
}

// Delete удаляет турнир вместе с командами и матчами. Разрешено только в draft.
func (s *TournamentService) Delete(ctx context.Context, id string) error {
	defer s.locks.Lock(id)()

	tournament, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	machine := lifecycle.FromState(string(tournament.State))
	if !machine.CanPerform(lifecycle.ActionDelete) {
		return &lifecycle.TransitionError{From: tournament.State, Action: lifecycle.ActionDelete}
	}
	return mapRepositoryError(s.store.Tournaments().Delete(ctx, id))
}

func (s *TournamentService) Publish(ctx context.Context, id string) ([]models.Event, error) {
	return s.transition(ctx, id, lifecycle.ActionPublish)
}

func (s *TournamentService) Cancel(ctx context.Context, id string) ([]models.Event, error) {
	return s.transition(ctx, id, lifecycle.ActionCancel)
}

func (s *TournamentService) Archive(ctx context.Context, id string) ([]models.Event, error) {
	return s.transition(ctx, id, lifecycle.ActionArchive)
}

// transition — общий путь переходов без побочной генерации матчей.
func (s *TournamentService) transition(ctx context.Context, id string, action lifecycle.Action) ([]models.Event, error) {
	defer s.locks.Lock(id)()

	tournament, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	machine := lifecycle.FromState(string(tournament.State))
	from := machine.State()
	next, err := machine.Transition(action, lifecycle.GuardContext{})
	if err != nil {
		return nil, err
	}

	tournament.State = next
	if err := s.store.Tournaments().Update(ctx, tournament); err != nil {
		return nil, mapRepositoryError(err)
	}
	return []models.Event{stateChangedEvent(id, from, next, action)}, nil
}

func stateChangedEvent(tournamentID string, from, to models.TournamentState, action lifecycle.Action) models.Event {
	return models.NewEvent(models.EventStateChanged, tournamentID, map[string]interface{}{
		"from":   string(from),
		"to":     string(to),
		"action": string(action),
	})
}

// Start переводит турнир из registration в active и генерирует стартовую сетку.
// Переход, запись матчей и обновление турнира применяются одной транзакцией.
func (s *TournamentService) Start(ctx context.Context, id string) ([]models.Event, error) {
	defer s.locks.Lock(id)()
	return s.startLocked(ctx, id)
}

func (s *TournamentService) startLocked(ctx context.Context, id string) ([]models.Event, error) {
	var events []models.Event

	err := s.store.Atomically(ctx, func(tx repositories.Store) error {
		tournament, err := tx.Tournaments().GetByID(ctx, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		teams, err := tx.Teams().ListByTournament(ctx, tournament.ID)
		if err != nil {
			return mapRepositoryError(err)
		}

		machine := lifecycle.FromState(string(tournament.State))
		from := machine.State()
		next, err := machine.Transition(lifecycle.ActionStart, lifecycle.GuardContext{
			TeamCount: len(teams),
			MinTeams:  tournament.MinTeams,
		})
		if err != nil {
			return err
		}

		generator, err := brackets.ForFormat(tournament.Format)
		if err != nil {
			return err
		}
		matches, err := generator.Generate(ctx, brackets.GenerateParams{
			Tournament: tournament,
			Teams:      teams,
			Calculator: s.calc,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInsufficientTeams, err)
		}
		if err := tx.Matches().CreateBatch(ctx, matches); err != nil {
			return mapRepositoryError(err)
		}

		// Гибрид: группы назначены генератором, фиксируем их за командами.
		if tournament.Format == models.FormatHybrid {
			for _, team := range teams {
				if err := tx.Teams().Update(ctx, team); err != nil {
					return mapRepositoryError(err)
				}
			}
		}

		tournament.State = next
		tournament.CurrentRound = 1
		if err := tx.Tournaments().Update(ctx, tournament); err != nil {
			return mapRepositoryError(err)
		}

		events = []models.Event{stateChangedEvent(id, from, next, lifecycle.ActionStart)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// AdvanceStage переводит гибридный турнир из группового этапа в плей-офф.
// Для остальных форматов этап один, операция не применима.
func (s *TournamentService) AdvanceStage(ctx context.Context, id string) ([]models.Event, error) {
	defer s.locks.Lock(id)()

	var events []models.Event
	err := s.store.Atomically(ctx, func(tx repositories.Store) error {
		tournament, err := tx.Tournaments().GetByID(ctx, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		if tournament.Format != models.FormatHybrid {
			return fmt.Errorf("%w: stage advancement applies to hybrid format only", ErrValidationFailed)
		}
		machine := lifecycle.FromState(string(tournament.State))
		if !machine.CanPerform(lifecycle.ActionAdvance) {
			return &lifecycle.TransitionError{From: tournament.State, Action: lifecycle.ActionAdvance}
		}

		allMatches, err := tx.Matches().ListByTournament(ctx, id, repositories.MatchFilter{})
		if err != nil {
			return mapRepositoryError(err)
		}

		lastGroupRound := 0
		hasKnockout := false
		for _, m := range allMatches {
			switch m.Stage {
			case models.StageGroup:
				if !m.Status.IsTerminal() {
					return fmt.Errorf("%w: match %s", ErrStageNotComplete, m.ID)
				}
				if m.Round > lastGroupRound {
					lastGroupRound = m.Round
				}
			case models.StageKnockout:
				hasKnockout = true
			}
		}
		if hasKnockout {
			return fmt.Errorf("%w: knockout stage already generated", ErrValidationFailed)
		}

		teams, err := tx.Teams().ListByTournament(ctx, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		advancing := advancingTeams(teams, tournament)
		if len(advancing) < 2 {
			return fmt.Errorf("%w: only %d teams advance from groups", ErrInsufficientTeams, len(advancing))
		}

		startRound := lastGroupRound + 1
		matches, err := brackets.GenerateKnockoutBracket(tournament, advancing, startRound, s.calc)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInsufficientTeams, err)
		}
		if err := tx.Matches().CreateBatch(ctx, matches); err != nil {
			return mapRepositoryError(err)
		}

		tournament.CurrentRound = startRound
		if err := tx.Tournaments().Update(ctx, tournament); err != nil {
			return mapRepositoryError(err)
		}

		advancingIDs := make([]string, len(advancing))
		for i, team := range advancing {
			advancingIDs[i] = team.ID
		}
		events = []models.Event{models.NewEvent(models.EventStageAdvanced, id, map[string]interface{}{
			"stage":           string(models.StageKnockout),
			"round":           startRound,
			"advancing_teams": advancingIDs,
		})}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// advancingTeams отбирает из каждой группы верх таблицы по конфигурации турнира.
func advancingTeams(teams []*models.Team, tournament *models.Tournament) []*models.Team {
	byID := make(map[string]*models.Team, len(teams))
	for _, team := range teams {
		byID[team.ID] = team
	}

	var advancing []*models.Team
	for _, rows := range standings.ComputeGroups(teams, tournament.UsesPoints()) {
		for i, row := range rows {
			if i >= tournament.TeamsPerGroupAdvance {
				break
			}
			advancing = append(advancing, byID[row.TeamID])
		}
	}
	return advancing
}

// Get возвращает турнир с командами и матчами, загружая их параллельно.
func (s *TournamentService) Get(ctx context.Context, id string) (*models.Tournament, error) {
	tournament, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		teams, err := s.store.Teams().ListByTournament(gctx, id)
		if err != nil {
			return mapRepositoryError(err)
		}
		tournament.Teams = teamsToValues(teams)
		return nil
	})
	g.Go(func() error {
		matches, err := s.store.Matches().ListByTournament(gctx, id, repositories.MatchFilter{})
		if err != nil {
			return mapRepositoryError(err)
		}
		tournament.Matches = matchesToValues(matches)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	populateTournamentLogoURL(tournament, s.uploader)
	return tournament, nil
}

func (s *TournamentService) List(ctx context.Context, filter repositories.TournamentFilter) ([]*models.Tournament, error) {
	tournaments, err := s.store.Tournaments().List(ctx, filter)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	for _, t := range tournaments {
		populateTournamentLogoURL(t, s.uploader)
	}
	return tournaments, nil
}

func (s *TournamentService) State(ctx context.Context, id string) (*StateView, error) {
	tournament, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	machine := lifecycle.FromState(string(tournament.State))
	return &StateView{
		State:          machine.State(),
		AllowedActions: machine.AllowedActions(),
		FormAccess:     machine.FormAccess(),
	}, nil
}

// AutoStartDue стартует опубликованные турниры, чьё scheduled_start прошло.
// Турниры, не добравшие минимум команд, пропускаются до следующего тика.
func (s *TournamentService) AutoStartDue(ctx context.Context, now time.Time) ([]models.Event, error) {
	state := models.StateRegistration
	due, err := s.store.Tournaments().List(ctx, repositories.TournamentFilter{
		State:           &state,
		ScheduledBefore: &now,
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	var events []models.Event
	for _, tournament := range due {
		unlock := s.locks.Lock(tournament.ID)
		started, err := s.startLocked(ctx, tournament.ID)
		unlock()
		if err != nil {
			var transitionErr *lifecycle.TransitionError
			if errors.As(err, &transitionErr) {
				continue
			}
			return events, err
		}
		events = append(events, started...)
	}
	return events, nil
}

// UploadLogo загружает логотип турнира в объектное хранилище и запоминает ключ.
func (s *TournamentService) UploadLogo(ctx context.Context, id string, contentType string, reader io.Reader) (*models.Tournament, error) {
	defer s.locks.Lock(id)()

	tournament, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("%w: file storage is not configured", ErrValidationFailed)
	}

	ext, err := extensionForContentType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	key := fmt.Sprintf("tournaments/%s/logo%s", tournament.ID, ext)
	result, err := s.uploader.Upload(ctx, key, contentType, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}

	oldKey := tournament.LogoKey
	tournament.LogoKey = &result.Key
	if err := s.store.Tournaments().Update(ctx, tournament); err != nil {
		return nil, mapRepositoryError(err)
	}
	if oldKey != nil && *oldKey != result.Key {
		// Старый файл больше не нужен; ошибка удаления не критична.
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	populateTournamentLogoURL(tournament, s.uploader)
	return tournament, nil
}

func extensionForContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/webp":
		return ".webp", nil
	default:
		return "", fmt.Errorf("unsupported image content type %q", contentType)
	}
}
