package models

import "time"

// MatchResult — исход матча глазами одной команды, для записи в историю рейтинга.
type MatchResult string

const (
	ResultWin  MatchResult = "win"
	ResultLoss MatchResult = "loss"
	ResultDraw MatchResult = "draw"
)

// RatingHistoryEntry — запись аудита изменения рейтинга.
// Создаётся ровно один раз на команду за завершённый матч и никогда не изменяется.
type RatingHistoryEntry struct {
	ID             int         `json:"id" db:"id"`
	TeamID         string      `json:"team_id" db:"team_id"`
	MatchID        string      `json:"match_id" db:"match_id"`
	RatingBefore   int         `json:"rating_before" db:"rating_before"`
	RatingAfter    int         `json:"rating_after" db:"rating_after"`
	OpponentRating int         `json:"opponent_rating" db:"opponent_rating"`
	Result         MatchResult `json:"result" db:"result"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// Change — фактическая дельта с учётом ограничения рейтинга снизу нулём.
func (e *RatingHistoryEntry) Change() int {
	return e.RatingAfter - e.RatingBefore
}
