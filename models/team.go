package models

import "time"

// Team представляет команду, зарегистрированную в турнире.
type Team struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	Name         string    `json:"name" db:"name"`
	Captain      string    `json:"captain" db:"captain"`
	Group        *string   `json:"group,omitempty" db:"group_name"`
	Wins         int       `json:"wins" db:"wins"`
	Losses       int       `json:"losses" db:"losses"`
	Draws        int       `json:"draws" db:"draws"`
	Points       int       `json:"points" db:"points"`
	GoalsFor     int       `json:"goals_for" db:"goals_for"`
	GoalsAgainst int       `json:"goals_against" db:"goals_against"`
	Rating       int       `json:"rating" db:"rating"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// GoalDifference — разница забитых и пропущенных, тай-брейк в таблице.
func (t *Team) GoalDifference() int {
	return t.GoalsFor - t.GoalsAgainst
}

func (t *Team) GamesPlayed() int {
	return t.Wins + t.Losses + t.Draws
}
