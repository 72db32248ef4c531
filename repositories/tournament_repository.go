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

type postgresTournamentRepository struct {
	exec SQLExecutor
}

const tournamentColumns = `
	id, name, format, state, organizer_id, max_teams, min_teams, current_round,
	num_groups, teams_per_group_advance, allow_draws, knockout_type,
	winner_team_id, scheduled_start, logo_key, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments
			(id, name, format, state, organizer_id, max_teams, min_teams, current_round,
			 num_groups, teams_per_group_advance, allow_draws, knockout_type,
			 winner_team_id, scheduled_start, logo_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at`

	err := r.exec.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Format, t.State, t.OrganizerID, t.MaxTeams, t.MinTeams, t.CurrentRound,
		t.NumGroups, t.TeamsPerGroupAdvance, t.AllowDraws, t.KnockoutType,
		t.WinnerTeamID, t.ScheduledStart, t.LogoKey,
	).Scan(&t.CreatedAt)
	if err != nil {
		return mapPQError(err, ErrTournamentConflict, ErrTournamentConflict)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := r.exec.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Format, &t.State, &t.OrganizerID, &t.MaxTeams, &t.MinTeams, &t.CurrentRound,
		&t.NumGroups, &t.TeamsPerGroupAdvance, &t.AllowDraws, &t.KnockoutType,
		&t.WinnerTeamID, &t.ScheduledStart, &t.LogoKey, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter TournamentFilter) ([]*models.Tournament, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`)

	args := []interface{}{}
	placeholder := 1

	if filter.State != nil {
		queryBuilder.WriteString(" AND state = $" + strconv.Itoa(placeholder))
		args = append(args, *filter.State)
		placeholder++
	}
	if filter.OrganizerID != nil {
		queryBuilder.WriteString(" AND organizer_id = $" + strconv.Itoa(placeholder))
		args = append(args, *filter.OrganizerID)
		placeholder++
	}
	if filter.ScheduledBefore != nil {
		queryBuilder.WriteString(" AND scheduled_start IS NOT NULL AND scheduled_start <= $" + strconv.Itoa(placeholder))
		args = append(args, *filter.ScheduledBefore)
		placeholder++
	}

	queryBuilder.WriteString(" ORDER BY created_at DESC")
	if filter.Limit > 0 {
		queryBuilder.WriteString(" LIMIT $" + strconv.Itoa(placeholder))
		args = append(args, filter.Limit)
		placeholder++
	}
	if filter.Offset > 0 {
		queryBuilder.WriteString(" OFFSET $" + strconv.Itoa(placeholder))
		args = append(args, filter.Offset)
	}

	rows, err := r.exec.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		t := &models.Tournament{}
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Format, &t.State, &t.OrganizerID, &t.MaxTeams, &t.MinTeams, &t.CurrentRound,
			&t.NumGroups, &t.TeamsPerGroupAdvance, &t.AllowDraws, &t.KnockoutType,
			&t.WinnerTeamID, &t.ScheduledStart, &t.LogoKey, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	query := `
		UPDATE tournaments SET
			name = $2, format = $3, state = $4, max_teams = $5, min_teams = $6,
			current_round = $7, num_groups = $8, teams_per_group_advance = $9,
			allow_draws = $10, knockout_type = $11, winner_team_id = $12,
			scheduled_start = $13, logo_key = $14
		WHERE id = $1`

	result, err := r.exec.ExecContext(ctx, query,
		t.ID, t.Name, t.Format, t.State, t.MaxTeams, t.MinTeams,
		t.CurrentRound, t.NumGroups, t.TeamsPerGroupAdvance,
		t.AllowDraws, t.KnockoutType, t.WinnerTeamID,
		t.ScheduledStart, t.LogoKey,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament %s: %w", t.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.exec.ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
