package services

import (
	"errors"
	"sync"

	"github.com/joegr/turny/models"
	"github.com/joegr/turny/repositories"
	"github.com/joegr/turny/storage"
)

// TournamentLocks сериализует мутирующие операции по турниру. Транзакция
// стора защищает атомарность записи, но не защищает от гонки
// read-modify-write двух конкурентных запросов к одному турниру.
type TournamentLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTournamentLocks() *TournamentLocks {
	return &TournamentLocks{locks: make(map[string]*sync.Mutex)}
}

func (l *TournamentLocks) Lock(tournamentID string) func() {
	l.mu.Lock()
	lock, ok := l.locks[tournamentID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[tournamentID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func teamsToValues(slice []*models.Team) []models.Team {
	result := make([]models.Team, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

func matchesToValues(slice []*models.Match) []models.Match {
	result := make([]models.Match, 0, len(slice))
	for _, ptr := range slice {
		if ptr != nil {
			result = append(result, *ptr)
		}
	}
	return result
}

// mapRepositoryError переводит ошибки репозитория в сервисные.
func mapRepositoryError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrMatchNotFound):
		return ErrMatchNotFound
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrTeamConflict):
		return ErrDuplicateTeam
	case errors.Is(err, repositories.ErrUserEmailConflict):
		return ErrEmailConflict
	default:
		return err
	}
}

func populateTournamentLogoURL(tournament *models.Tournament, uploader storage.FileUploader) {
	if tournament != nil && tournament.LogoKey != nil && *tournament.LogoKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*tournament.LogoKey)
		if url != "" {
			tournament.LogoURL = &url
		}
	}
}
