package services

import (
	"context"
	"fmt"

	"github.com/joegr/turny/brackets"
	"github.com/joegr/turny/lifecycle"
	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
	"github.com/joegr/turny/repositories"
	"github.com/joegr/turny/standings"
)

// Очки за исход матча в форматах с таблицей.
const (
	pointsPerWin  = 3
	pointsPerDraw = 1
)

type RecordResultInput struct {
	WinnerID   *string `json:"winner_id"`
	IsDraw     bool    `json:"is_draw"`
	Team1Score *int    `json:"team1_score"`
	Team2Score *int    `json:"team2_score"`
}

// MatchService записывает результаты матчей и двигает турнир дальше:
// авто-генерация следующего раунда, инкремент раунда, завершение турнира.
type MatchService struct {
	store repositories.Store
	calc  *ratings.Calculator
	locks *TournamentLocks
}

func NewMatchService(store repositories.Store, calc *ratings.Calculator, locks *TournamentLocks) *MatchService {
	return &MatchService{store: store, calc: calc, locks: locks}
}

func (s *MatchService) List(ctx context.Context, tournamentID string, filter repositories.MatchFilter) ([]*models.Match, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, mapRepositoryError(err)
	}
	matches, err := s.store.Matches().ListByTournament(ctx, tournamentID, filter)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return matches, nil
}

// RecordResult записывает исход матча. Порядок проверок фиксирован:
// матч существует -> матч pending -> победитель участвует -> ничья разрешена ->
// счёт корректен.
// Счётчики команд, рейтинги, история и продвижение применяются одной транзакцией.
func (s *MatchService) RecordResult(ctx context.Context, tournamentID, matchID string, input RecordResultInput) ([]models.Event, error) {
	defer s.locks.Lock(tournamentID)()

	var events []models.Event
	err := s.store.Atomically(ctx, func(tx repositories.Store) error {
		tournament, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		machine := lifecycle.FromState(string(tournament.State))
		if !machine.CanPerform(lifecycle.ActionRecordResult) {
			return &lifecycle.TransitionError{From: tournament.State, Action: lifecycle.ActionRecordResult}
		}

		match, err := tx.Matches().GetByID(ctx, tournamentID, matchID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if match.Status != models.MatchStatusPending {
			return fmt.Errorf("%w: status is %s", ErrMatchNotPending, match.Status)
		}

		if input.IsDraw {
			if match.Stage == models.StageKnockout {
				return fmt.Errorf("%w: knockout matches must produce a winner", ErrDrawNotAllowed)
			}
			if !tournament.AllowDraws {
				return fmt.Errorf("%w: tournament does not allow draws", ErrDrawNotAllowed)
			}
		} else {
			if input.WinnerID == nil {
				return fmt.Errorf("%w: winner_id is required unless the match is a draw", ErrValidationFailed)
			}
			if !match.HasParticipant(*input.WinnerID) {
				return fmt.Errorf("%w: team %s", ErrInvalidParticipant, *input.WinnerID)
			}
		}
		if err := validateScores(input.Team1Score, input.Team2Score); err != nil {
			return err
		}

		team1, err := tx.Teams().GetByID(ctx, tournamentID, derefString(match.Team1ID))
		if err != nil {
			return mapRepositoryError(err)
		}
		team2, err := tx.Teams().GetByID(ctx, tournamentID, derefString(match.Team2ID))
		if err != nil {
			return mapRepositoryError(err)
		}

		match.Status = models.MatchStatusCompleted
		match.Team1Score = input.Team1Score
		match.Team2Score = input.Team2Score
		applyScores(team1, team2, input.Team1Score, input.Team2Score)

		var history []models.RatingHistoryEntry
		if input.IsDraw {
			match.IsDraw = true
			team1.Draws++
			team2.Draws++
			team1.Points += pointsPerDraw
			team2.Points += pointsPerDraw
			history = s.calc.ApplyDraw(team1, team2, match.ID)
		} else {
			match.WinnerID = input.WinnerID
			winner, loser := team1, team2
			if *input.WinnerID == team2.ID {
				winner, loser = team2, team1
			}
			winner.Wins++
			winner.Points += pointsPerWin
			loser.Losses++
			history = s.calc.ApplyResult(winner, loser, match.ID)
		}

		if err := tx.Matches().Update(ctx, match); err != nil {
			return mapRepositoryError(err)
		}
		if err := tx.Teams().Update(ctx, team1); err != nil {
			return mapRepositoryError(err)
		}
		if err := tx.Teams().Update(ctx, team2); err != nil {
			return mapRepositoryError(err)
		}
		for i := range history {
			if err := tx.RatingHistory().Append(ctx, &history[i]); err != nil {
				return mapRepositoryError(err)
			}
		}

		events = append(events, models.NewEvent(models.EventMatchResult, tournamentID, map[string]interface{}{
			"match_id": match.ID,
			"winner":   derefString(match.WinnerID),
			"is_draw":  match.IsDraw,
		}))

		followUps, err := s.advanceAfterTerminalMatch(ctx, tx, tournament, match)
		if err != nil {
			return err
		}
		events = append(events, followUps...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Abandon закрывает матч без победителя: поражение обеим командам,
// рейтинг и история не затрагиваются.
func (s *MatchService) Abandon(ctx context.Context, tournamentID, matchID string) ([]models.Event, error) {
	defer s.locks.Lock(tournamentID)()

	var events []models.Event
	err := s.store.Atomically(ctx, func(tx repositories.Store) error {
		tournament, err := tx.Tournaments().GetByID(ctx, tournamentID)
		if err != nil {
			return mapRepositoryError(err)
		}
		machine := lifecycle.FromState(string(tournament.State))
		if !machine.CanPerform(lifecycle.ActionAbandonMatch) {
			return &lifecycle.TransitionError{From: tournament.State, Action: lifecycle.ActionAbandonMatch}
		}

		match, err := tx.Matches().GetByID(ctx, tournamentID, matchID)
		if err != nil {
			return mapRepositoryError(err)
		}
		if match.Status != models.MatchStatusPending {
			return fmt.Errorf("%w: status is %s", ErrMatchNotPending, match.Status)
		}

		match.Status = models.MatchStatusAbandoned
		if err := tx.Matches().Update(ctx, match); err != nil {
			return mapRepositoryError(err)
		}

		for _, teamID := range []*string{match.Team1ID, match.Team2ID} {
			if teamID == nil {
				continue
			}
			team, err := tx.Teams().GetByID(ctx, tournamentID, *teamID)
			if err != nil {
				return mapRepositoryError(err)
			}
			team.Losses++
			if err := tx.Teams().Update(ctx, team); err != nil {
				return mapRepositoryError(err)
			}
		}

		events = append(events, models.NewEvent(models.EventMatchResult, tournamentID, map[string]interface{}{
			"match_id":  match.ID,
			"abandoned": true,
		}))

		followUps, err := s.advanceAfterTerminalMatch(ctx, tx, tournament, match)
		if err != nil {
			return err
		}
		events = append(events, followUps...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// validateScores требует, чтобы счёт задавался парой и не был отрицательным.
func validateScores(score1, score2 *int) error {
	if (score1 == nil) != (score2 == nil) {
		return fmt.Errorf("%w: scores must be provided for both teams or omitted", ErrValidationFailed)
	}
	if score1 != nil && (*score1 < 0 || *score2 < 0) {
		return fmt.Errorf("%w: scores must be non-negative", ErrValidationFailed)
	}
	return nil
}

func applyScores(team1, team2 *models.Team, score1, score2 *int) {
	if score1 == nil || score2 == nil {
		return
	}
	team1.GoalsFor += *score1
	team1.GoalsAgainst += *score2
	team2.GoalsFor += *score2
	team2.GoalsAgainst += *score1
}

// advanceAfterTerminalMatch решает, что делать после закрытия матча:
// сгенерировать следующий раунд, сдвинуть счётчик раунда или завершить турнир.
// На групповом этапе гибрида движется только счётчик раунда; плей-офф
// генерирует явная операция продвижения этапа.
func (s *MatchService) advanceAfterTerminalMatch(ctx context.Context, tx repositories.Store, tournament *models.Tournament, closed *models.Match) ([]models.Event, error) {
	if closed.Stage == models.StageGroup {
		return s.advanceGroupStage(ctx, tx, tournament)
	}

	stage := models.StageKnockout
	round := closed.Round
	roundMatches, err := tx.Matches().ListByTournament(ctx, tournament.ID, repositories.MatchFilter{
		Round: &round,
		Stage: &stage,
	})
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	for _, m := range roundMatches {
		if !m.Status.IsTerminal() {
			return nil, nil
		}
	}

	switch tournament.Format {
	case models.FormatRoundRobin:
		return s.advanceRoundRobin(ctx, tx, tournament)
	default:
		// single elimination и плей-офф гибрида
		return s.advanceElimination(ctx, tx, tournament, roundMatches, closed)
	}
}

// advanceElimination собирает победителей закрытого раунда и либо строит
// следующий, либо завершает турнир. Брошенные матчи победителя не дают:
// их слот выбывает из сетки.
func (s *MatchService) advanceElimination(ctx context.Context, tx repositories.Store, tournament *models.Tournament, roundMatches []*models.Match, closed *models.Match) ([]models.Event, error) {
	var winners []*models.Team
	for _, m := range roundMatches {
		if m.WinnerID == nil {
			continue
		}
		team, err := tx.Teams().GetByID(ctx, tournament.ID, *m.WinnerID)
		if err != nil {
			return nil, mapRepositoryError(err)
		}
		winners = append(winners, team)
	}

	if len(winners) <= 1 {
		var winnerID *string
		if len(winners) == 1 {
			winnerID = &winners[0].ID
		}
		return s.completeTournament(ctx, tx, tournament, winnerID)
	}

	prefix := ""
	if tournament.Format == models.FormatHybrid {
		prefix = "ko_"
	}
	nextRound := closed.Round + 1
	matches := brackets.NextEliminationRound(tournament, winners, nextRound, prefix, s.calc)
	if err := tx.Matches().CreateBatch(ctx, matches); err != nil {
		return nil, mapRepositoryError(err)
	}

	tournament.CurrentRound = nextRound
	if err := tx.Tournaments().Update(ctx, tournament); err != nil {
		return nil, mapRepositoryError(err)
	}

	return []models.Event{models.NewEvent(models.EventRoundAdvanced, tournament.ID, map[string]interface{}{
		"round":   nextRound,
		"matches": len(matches),
	})}, nil
}

// advanceGroupStage двигает счётчик раунда по расписанию группового этапа и
// сообщает о его завершении, когда закрыт последний групповой матч. Плей-офф
// при этом не создаётся: его генерирует явное продвижение этапа.
func (s *MatchService) advanceGroupStage(ctx context.Context, tx repositories.Store, tournament *models.Tournament) ([]models.Event, error) {
	stage := models.StageGroup
	groupMatches, err := tx.Matches().ListByTournament(ctx, tournament.ID, repositories.MatchFilter{Stage: &stage})
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	for _, m := range groupMatches {
		if !m.Status.IsTerminal() {
			// Матчи отсортированы по раундам: первый незакрытый задаёт
			// текущий раунд. Назад счётчик не движется.
			if m.Round <= tournament.CurrentRound {
				return nil, nil
			}
			tournament.CurrentRound = m.Round
			if err := tx.Tournaments().Update(ctx, tournament); err != nil {
				return nil, mapRepositoryError(err)
			}
			return []models.Event{models.NewEvent(models.EventRoundAdvanced, tournament.ID, map[string]interface{}{
				"round": tournament.CurrentRound,
				"stage": string(models.StageGroup),
			})}, nil
		}
	}

	return []models.Event{models.NewEvent(models.EventGroupStageComplete, tournament.ID, map[string]interface{}{
		"stage": string(models.StageGroup),
	})}, nil
}

// advanceRoundRobin двигает счётчик раунда по заранее полному расписанию.
// Когда закрыт последний раунд, турнир завершается победителем таблицы.
func (s *MatchService) advanceRoundRobin(ctx context.Context, tx repositories.Store, tournament *models.Tournament) ([]models.Event, error) {
	allMatches, err := tx.Matches().ListByTournament(ctx, tournament.ID, repositories.MatchFilter{})
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	for _, m := range allMatches {
		if !m.Status.IsTerminal() {
			// Матчи отсортированы по раундам: первый незакрытый задаёт
			// текущий раунд. Назад счётчик не движется.
			if m.Round <= tournament.CurrentRound {
				return nil, nil
			}
			tournament.CurrentRound = m.Round
			if err := tx.Tournaments().Update(ctx, tournament); err != nil {
				return nil, mapRepositoryError(err)
			}
			return []models.Event{models.NewEvent(models.EventRoundAdvanced, tournament.ID, map[string]interface{}{
				"round": tournament.CurrentRound,
			})}, nil
		}
	}

	teams, err := tx.Teams().ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	var winnerID *string
	if rows := standings.Compute(teams, tournament.UsesPoints()); len(rows) > 0 {
		winnerID = &rows[0].TeamID
	}
	return s.completeTournament(ctx, tx, tournament, winnerID)
}

func (s *MatchService) completeTournament(ctx context.Context, tx repositories.Store, tournament *models.Tournament, winnerID *string) ([]models.Event, error) {
	machine := lifecycle.FromState(string(tournament.State))
	from := machine.State()
	next, err := machine.Transition(lifecycle.ActionComplete, lifecycle.GuardContext{MatchesComplete: true})
	if err != nil {
		return nil, err
	}

	tournament.State = next
	tournament.WinnerTeamID = winnerID
	if err := tx.Tournaments().Update(ctx, tournament); err != nil {
		return nil, mapRepositoryError(err)
	}

	return []models.Event{models.NewEvent(models.EventStateChanged, tournament.ID, map[string]interface{}{
		"from":   string(from),
		"to":     string(next),
		"action": string(lifecycle.ActionComplete),
		"winner": derefString(winnerID),
	})}, nil
}

// Standings строит таблицу турнира; для гибрида — таблицы по группам.
func (s *MatchService) Standings(ctx context.Context, tournamentID string) ([]standings.Row, map[string][]standings.Row, error) {
	tournament, err := s.store.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return nil, nil, mapRepositoryError(err)
	}
	teams, err := s.store.Teams().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, nil, mapRepositoryError(err)
	}

	if tournament.Format == models.FormatHybrid {
		return nil, standings.ComputeGroups(teams, tournament.UsesPoints()), nil
	}
	return standings.Compute(teams, tournament.UsesPoints()), nil, nil
}
