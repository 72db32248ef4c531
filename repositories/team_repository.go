package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/joegr/turny/models"
)

type postgresTeamRepository struct {
	exec SQLExecutor
}

const teamColumns = `
	id, tournament_id, name, captain, group_name, wins, losses, draws,
	points, goals_for, goals_against, rating, created_at`

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams
			(id, tournament_id, name, captain, group_name, wins, losses, draws,
			 points, goals_for, goals_against, rating)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	err := r.exec.QueryRowContext(ctx, query,
		team.ID, team.TournamentID, team.Name, team.Captain, team.Group,
		team.Wins, team.Losses, team.Draws, team.Points,
		team.GoalsFor, team.GoalsAgainst, team.Rating,
	).Scan(&team.CreatedAt)
	if err != nil {
		return mapPQError(err, ErrTeamConflict, ErrTournamentNotFound)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, tournamentID, teamID string) (*models.Team, error) {
	query := `SELECT` + teamColumns + ` FROM teams WHERE tournament_id = $1 AND id = $2`

	team := &models.Team{}
	err := r.exec.QueryRowContext(ctx, query, tournamentID, teamID).Scan(
		&team.ID, &team.TournamentID, &team.Name, &team.Captain, &team.Group,
		&team.Wins, &team.Losses, &team.Draws, &team.Points,
		&team.GoalsFor, &team.GoalsAgainst, &team.Rating, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team %s: %w", teamID, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Team, error) {
	// Порядок регистрации: стабильная база для посева и таблицы.
	query := `SELECT` + teamColumns + ` FROM teams WHERE tournament_id = $1 ORDER BY created_at, id`

	rows, err := r.exec.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team := &models.Team{}
		if err := rows.Scan(
			&team.ID, &team.TournamentID, &team.Name, &team.Captain, &team.Group,
			&team.Wins, &team.Losses, &team.Draws, &team.Points,
			&team.GoalsFor, &team.GoalsAgainst, &team.Rating, &team.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `
		UPDATE teams SET
			name = $3, captain = $4, group_name = $5, wins = $6, losses = $7,
			draws = $8, points = $9, goals_for = $10, goals_against = $11, rating = $12
		WHERE tournament_id = $1 AND id = $2`

	result, err := r.exec.ExecContext(ctx, query,
		team.TournamentID, team.ID, team.Name, team.Captain, team.Group,
		team.Wins, team.Losses, team.Draws, team.Points,
		team.GoalsFor, team.GoalsAgainst, team.Rating,
	)
	if err != nil {
		return fmt.Errorf("failed to update team %s: %w", team.ID, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, tournamentID, teamID string) (bool, error) {
	result, err := r.exec.ExecContext(ctx,
		`DELETE FROM teams WHERE tournament_id = $1 AND id = $2`, tournamentID, teamID)
	if err != nil {
		return false, fmt.Errorf("failed to delete team %s: %w", teamID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check affected rows: %w", err)
	}
	return affected > 0, nil
}
