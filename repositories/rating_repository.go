package repositories

import (
	"context"
	"fmt"

	"github.com/joegr/turny/models"
)

type postgresRatingHistoryRepository struct {
	exec SQLExecutor
}

func (r *postgresRatingHistoryRepository) Append(ctx context.Context, entry *models.RatingHistoryEntry) error {
	query := `
		INSERT INTO rating_history
			(team_id, match_id, rating_before, rating_after, opponent_rating, result)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.exec.QueryRowContext(ctx, query,
		entry.TeamID, entry.MatchID, entry.RatingBefore, entry.RatingAfter,
		entry.OpponentRating, entry.Result,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return mapPQError(err, ErrMatchConflict, ErrTeamNotFound)
	}
	return nil
}

func (r *postgresRatingHistoryRepository) ListByTeam(ctx context.Context, teamID string) ([]*models.RatingHistoryEntry, error) {
	query := `
		SELECT id, team_id, match_id, rating_before, rating_after, opponent_rating, result, created_at
		FROM rating_history
		WHERE team_id = $1
		ORDER BY id`

	rows, err := r.exec.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rating history for team %s: %w", teamID, err)
	}
	defer rows.Close()

	var entries []*models.RatingHistoryEntry
	for rows.Next() {
		e := &models.RatingHistoryEntry{}
		if err := rows.Scan(
			&e.ID, &e.TeamID, &e.MatchID, &e.RatingBefore, &e.RatingAfter,
			&e.OpponentRating, &e.Result, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rating history row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
