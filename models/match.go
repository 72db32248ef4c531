package models

import "time"

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusAbandoned MatchStatus = "abandoned"
)

// IsTerminal сообщает, закрыт ли матч для дальнейших изменений.
// Брошенный матч закрыт для продвижения раунда, но победителя не даёт.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusCompleted || s == MatchStatusAbandoned
}

type MatchStage string

const (
	StageGroup    MatchStage = "group"
	StageKnockout MatchStage = "knockout"
)

// Match представляет матч турнирной сетки.
// Team2ID == nil означает bye: команда проходит дальше без игры.
type Match struct {
	ID           string      `json:"id" db:"id"`
	TournamentID string      `json:"tournament_id" db:"tournament_id"`
	Round        int         `json:"round" db:"round"`
	Stage        MatchStage  `json:"stage" db:"stage"`
	Group        *string     `json:"group,omitempty" db:"group_name"`
	Team1ID      *string     `json:"team1,omitempty" db:"team1_id"`
	Team2ID      *string     `json:"team2,omitempty" db:"team2_id"`
	Status       MatchStatus `json:"status" db:"status"`
	WinnerID     *string     `json:"winner,omitempty" db:"winner_id"`
	IsDraw       bool        `json:"is_draw" db:"is_draw"`
	Team1Score   *int        `json:"team1_score,omitempty" db:"team1_score"`
	Team2Score   *int        `json:"team2_score,omitempty" db:"team2_score"`

	// Предматчевые вероятности победы по ELO, фиксируются при создании матча.
	Team1WinProbability *float64 `json:"team1_win_probability,omitempty" db:"team1_win_probability"`
	Team2WinProbability *float64 `json:"team2_win_probability,omitempty" db:"team2_win_probability"`

	// Порядок создания внутри раунда, для детерминированного отображения сетки.
	OrderInRound int       `json:"order_in_round" db:"order_in_round"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// IsBye — матч-заглушка: одна команда, без игры.
func (m *Match) IsBye() bool {
	return m.Team1ID != nil && m.Team2ID == nil
}

// HasParticipant проверяет, играет ли команда в этом матче.
func (m *Match) HasParticipant(teamID string) bool {
	if m.Team1ID != nil && *m.Team1ID == teamID {
		return true
	}
	if m.Team2ID != nil && *m.Team2ID == teamID {
		return true
	}
	return false
}

// Opponent возвращает id второй стороны матча относительно teamID.
func (m *Match) Opponent(teamID string) *string {
	if m.Team1ID != nil && *m.Team1ID == teamID {
		return m.Team2ID
	}
	if m.Team2ID != nil && *m.Team2ID == teamID {
		return m.Team1ID
	}
	return nil
}
