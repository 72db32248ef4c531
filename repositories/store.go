package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joegr/turny/models"
)

// SQLExecutor абстрагирует *sql.DB и *sql.Tx, чтобы репозитории одинаково
// работали внутри и вне транзакции.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TournamentFilter — фильтры листинга турниров.
type TournamentFilter struct {
	State           *models.TournamentState
	OrganizerID     *int
	ScheduledBefore *time.Time
	Limit           int
	Offset          int
}

// MatchFilter — фильтры листинга матчей турнира.
type MatchFilter struct {
	Round  *int
	Stage  *models.MatchStage
	Status *models.MatchStatus
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, filter TournamentFilter) ([]*models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, id string) error
}

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, tournamentID, teamID string) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	// Delete возвращает false, если команды не было: удаление идемпотентно.
	Delete(ctx context.Context, tournamentID, teamID string) (bool, error)
}

type MatchRepository interface {
	CreateBatch(ctx context.Context, matches []*models.Match) error
	GetByID(ctx context.Context, tournamentID, matchID string) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID string, filter MatchFilter) ([]*models.Match, error)
	Update(ctx context.Context, match *models.Match) error
}

type RatingHistoryRepository interface {
	Append(ctx context.Context, entry *models.RatingHistoryEntry) error
	ListByTeam(ctx context.Context, teamID string) ([]*models.RatingHistoryEntry, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// Store объединяет репозитории и транзакционную границу. Движок требует,
// чтобы записи одной логической операции применялись атомарно.
type Store interface {
	Tournaments() TournamentRepository
	Teams() TeamRepository
	Matches() MatchRepository
	RatingHistory() RatingHistoryRepository
	Users() UserRepository

	// Atomically выполняет fn над транзакционным представлением стора:
	// либо применяются все записи fn, либо ни одна.
	Atomically(ctx context.Context, fn func(Store) error) error
}

type postgresStore struct {
	db   *sql.DB // nil внутри транзакции
	exec SQLExecutor
}

func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db, exec: db}
}

func (s *postgresStore) Tournaments() TournamentRepository {
	return &postgresTournamentRepository{exec: s.exec}
}

func (s *postgresStore) Teams() TeamRepository {
	return &postgresTeamRepository{exec: s.exec}
}

func (s *postgresStore) Matches() MatchRepository {
	return &postgresMatchRepository{exec: s.exec}
}

func (s *postgresStore) RatingHistory() RatingHistoryRepository {
	return &postgresRatingHistoryRepository{exec: s.exec}
}

func (s *postgresStore) Users() UserRepository {
	return &postgresUserRepository{exec: s.exec}
}

func (s *postgresStore) Atomically(ctx context.Context, fn func(Store) error) error {
	if s.db == nil {
		// Уже внутри транзакции: вложенные границы схлопываются.
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txStore := &postgresStore{exec: tx}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
