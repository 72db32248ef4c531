package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrUserNotFound       = errors.New("user not found")

	ErrTournamentConflict = errors.New("tournament id conflict")
	ErrTeamConflict       = errors.New("team conflict or invalid")
	ErrMatchConflict      = errors.New("match conflict or invalid")
	ErrUserEmailConflict  = errors.New("email is already taken")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

// mapPQError переводит нарушения ограничений Postgres в доменные ошибки репозитория.
func mapPQError(err error, uniqueErr, fkErr error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return uniqueErr
		case pqForeignKeyViolation:
			return fkErr
		}
	}
	return err
}
