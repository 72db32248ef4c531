package models

import "time"

// TournamentState представляет статусы жизненного цикла турнира, соответствующие ENUM в БД.
type TournamentState string

const (
	StateDraft        TournamentState = "draft"
	StateRegistration TournamentState = "registration"
	StateActive       TournamentState = "active"
	StateCompleted    TournamentState = "completed"
	StateArchived     TournamentState = "archived"
)

// TournamentFormat определяет схему проведения турнира.
type TournamentFormat string

const (
	FormatSingleElimination TournamentFormat = "single_elimination"
	FormatRoundRobin        TournamentFormat = "round_robin"
	FormatHybrid            TournamentFormat = "hybrid"
)

// KnockoutType определяет формат плей-офф стадии гибридного турнира.
type KnockoutType string

const KnockoutSingleElimination KnockoutType = "single_elimination"

// Tournament представляет турнир.
type Tournament struct {
	ID             string           `json:"id" db:"id"`
	Name           string           `json:"name" db:"name"`
	Format         TournamentFormat `json:"format" db:"format"`
	State          TournamentState  `json:"state" db:"state"`
	OrganizerID    *int             `json:"organizer_id,omitempty" db:"organizer_id"`
	MaxTeams       int              `json:"max_teams" db:"max_teams"`
	MinTeams       int              `json:"min_teams" db:"min_teams"`
	CurrentRound   int              `json:"current_round" db:"current_round"`
	WinnerTeamID   *string          `json:"winner_team_id,omitempty" db:"winner_team_id"`
	ScheduledStart *time.Time       `json:"scheduled_start,omitempty" db:"scheduled_start"`
	LogoKey        *string          `json:"-" db:"logo_key"`
	LogoURL        *string          `json:"logo_url,omitempty" db:"-"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`

	// Настройки гибридного формата (группы + плей-офф).
	NumGroups            int          `json:"num_groups" db:"num_groups"`
	TeamsPerGroupAdvance int          `json:"teams_per_group_advance" db:"teams_per_group_advance"`
	AllowDraws           bool         `json:"allow_draws" db:"allow_draws"`
	KnockoutType         KnockoutType `json:"knockout_type" db:"knockout_type"`

	// Опциональные связанные сущности (не мапятся напрямую).
	Teams   []Team  `json:"teams,omitempty" db:"-"`
	Matches []Match `json:"matches,omitempty" db:"-"`
}

// UsesPoints сообщает, ведётся ли зачёт по футбольной системе очков
// (3 за победу, 1 за ничью) вместо чистого счёта побед.
func (t *Tournament) UsesPoints() bool {
	return t.AllowDraws
}

func IsValidFormat(f TournamentFormat) bool {
	switch f {
	case FormatSingleElimination, FormatRoundRobin, FormatHybrid:
		return true
	}
	return false
}

func IsValidState(s TournamentState) bool {
	switch s {
	case StateDraft, StateRegistration, StateActive, StateCompleted, StateArchived:
		return true
	}
	return false
}
