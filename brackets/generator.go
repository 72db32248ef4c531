package brackets

import (
	"context"
	"fmt"
	"time"

	"github.com/joegr/turny/models"
	"github.com/joegr/turny/ratings"
)

// GenerateParams — вход генератора: турнир, участники и калькулятор рейтинга,
// которым проставляются предматчевые вероятности.
type GenerateParams struct {
	Tournament *models.Tournament
	Teams      []*models.Team
	Calculator *ratings.Calculator
}

// Generator строит стартовый набор матчей для одного формата турнира.
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*models.Match, error)

	Name() string
}

// ForFormat возвращает генератор под формат турнира.
func ForFormat(format models.TournamentFormat) (Generator, error) {
	switch format {
	case models.FormatSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.FormatRoundRobin:
		return NewRoundRobinGenerator(), nil
	case models.FormatHybrid:
		return NewHybridGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported tournament format %q", format)
	}
}

func matchID(prefix string, round, order int) string {
	return fmt.Sprintf("%sr%d_m%d", prefix, round, order)
}

// pairedMatch создаёт pending-матч двух команд с зафиксированными вероятностями.
func pairedMatch(t *models.Tournament, team1, team2 *models.Team, prefix string, round, order int, stage models.MatchStage, group *string, calc *ratings.Calculator) *models.Match {
	p1, p2 := calc.WinProbability(team1.Rating, team2.Rating)
	return &models.Match{
		ID:                  matchID(prefix, round, order),
		TournamentID:        t.ID,
		Round:               round,
		Stage:               stage,
		Group:               group,
		Team1ID:             &team1.ID,
		Team2ID:             &team2.ID,
		Status:              models.MatchStatusPending,
		Team1WinProbability: &p1,
		Team2WinProbability: &p2,
		OrderInRound:        order,
		CreatedAt:           time.Now().UTC(),
	}
}

// byeMatch создаёт закрытый матч-заглушку: команда проходит дальше без игры.
// Счётчики и рейтинг не трогаются, вероятности не фиксируются.
func byeMatch(t *models.Tournament, team *models.Team, prefix string, round, order int, stage models.MatchStage) *models.Match {
	return &models.Match{
		ID:           matchID(prefix, round, order),
		TournamentID: t.ID,
		Round:        round,
		Stage:        stage,
		Team1ID:      &team.ID,
		Status:       models.MatchStatusCompleted,
		WinnerID:     &team.ID,
		OrderInRound: order,
		CreatedAt:    time.Now().UTC(),
	}
}
