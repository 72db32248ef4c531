package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joegr/turny/models"
)

type postgresMatchRepository struct {
	exec SQLExecutor
}

const matchColumns = `
	id, tournament_id, round, stage, group_name, team1_id, team2_id, status,
	winner_id, is_draw, team1_score, team2_score,
	team1_win_probability, team2_win_probability, order_in_round, created_at`

func scanMatch(scanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := scanner.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.Stage, &m.Group,
		&m.Team1ID, &m.Team2ID, &m.Status, &m.WinnerID, &m.IsDraw,
		&m.Team1Score, &m.Team2Score,
		&m.Team1WinProbability, &m.Team2WinProbability,
		&m.OrderInRound, &m.CreatedAt,
	)
	return m, err
}

// CreateBatch вставляет матчи одного раунда. Генераторы сеток отдают раунд
// целиком, поэтому вставка идёт одним многострочным INSERT.
func (r *postgresMatchRepository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		INSERT INTO matches
			(id, tournament_id, round, stage, group_name, team1_id, team2_id, status,
			 winner_id, is_draw, team1_score, team2_score,
			 team1_win_probability, team2_win_probability, order_in_round)
		VALUES `)

	args := make([]interface{}, 0, len(matches)*15)
	for i, m := range matches {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		queryBuilder.WriteString("(")
		for j := 0; j < 15; j++ {
			if j > 0 {
				queryBuilder.WriteString(", ")
			}
			queryBuilder.WriteString("$" + strconv.Itoa(i*15+j+1))
		}
		queryBuilder.WriteString(")")

		args = append(args,
			m.ID, m.TournamentID, m.Round, m.Stage, m.Group,
			m.Team1ID, m.Team2ID, m.Status, m.WinnerID, m.IsDraw,
			m.Team1Score, m.Team2Score,
			m.Team1WinProbability, m.Team2WinProbability, m.OrderInRound,
		)
	}

	if _, err := r.exec.ExecContext(ctx, queryBuilder.String(), args...); err != nil {
		return mapPQError(err, ErrMatchConflict, ErrMatchConflict)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, tournamentID, matchID string) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1 AND id = $2`

	m, err := scanMatch(r.exec.QueryRowContext(ctx, query, tournamentID, matchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %s: %w", matchID, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholder := 2

	if filter.Round != nil {
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(placeholder))
		args = append(args, *filter.Round)
		placeholder++
	}
	if filter.Stage != nil {
		queryBuilder.WriteString(" AND stage = $" + strconv.Itoa(placeholder))
		args = append(args, *filter.Stage)
		placeholder++
	}
	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholder))
		args = append(args, *filter.Status)
	}

	queryBuilder.WriteString(" ORDER BY round, order_in_round")

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) Update(ctx context.Context, match *models.Match) error {
	query := `
		UPDATE matches SET
			status = $3, winner_id = $4, is_draw = $5, team1_score = $6, team2_score = $7
		WHERE tournament_id = $1 AND id = $2`

	result, err := r.exec.ExecContext(ctx, query,
		match.TournamentID, match.ID,
		match.Status, match.WinnerID, match.IsDraw, match.Team1Score, match.Team2Score,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %s: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
