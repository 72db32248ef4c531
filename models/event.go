package models

import "time"

// EventType перечисляет доменные события, которые движок возвращает вызывающему коду.
// Движок не занимается доставкой: транспорт (websocket, pub/sub) целиком снаружи.
type EventType string

const (
	EventTeamRegistered     EventType = "team_registered"
	EventStateChanged       EventType = "state_changed"
	EventMatchResult        EventType = "match_result"
	EventRoundAdvanced      EventType = "round_advanced"
	EventStageAdvanced      EventType = "stage_advanced"
	EventGroupStageComplete EventType = "group_stage_complete"
)

// Event — дескриптор доменного события. Доставка at-least-once, без гарантий дедупликации.
type Event struct {
	Type         EventType              `json:"type"`
	TournamentID string                 `json:"tournament_id"`
	Timestamp    time.Time              `json:"timestamp"`
	Data         map[string]interface{} `json:"data,omitempty"`
}

func NewEvent(eventType EventType, tournamentID string, data map[string]interface{}) Event {
	return Event{
		Type:         eventType,
		TournamentID: tournamentID,
		Timestamp:    time.Now().UTC(),
		Data:         data,
	}
}
