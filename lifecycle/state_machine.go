package lifecycle

import (
	"fmt"
	"time"

	"github.com/joegr/turny/models"
)

// Action — действие над турниром. Часть действий меняет состояние (см. transitions),
// часть лишь разрешена в нём (см. allowedActions).
type Action string

const (
	ActionEdit           Action = "edit"
	ActionPublish        Action = "publish"
	ActionDelete         Action = "delete"
	ActionRegisterTeam   Action = "register_team"
	ActionUnregisterTeam Action = "unregister_team"
	ActionStart          Action = "start"
	ActionCancel         Action = "cancel"
	ActionRecordResult   Action = "record_result"
	ActionAbandonMatch   Action = "abandon_match"
	ActionAdvance        Action = "advance"
	ActionComplete       Action = "complete"
	ActionArchive        Action = "archive"
	ActionView           Action = "view"
)

// GuardContext несёт данные для проверки условий перехода.
type GuardContext struct {
	TeamCount       int
	MinTeams        int
	MatchesComplete bool
}

type guardFunc func(GuardContext) bool

type transition struct {
	from      models.TournamentState
	to        models.TournamentState
	action    Action
	guardName string
	guard     guardFunc
}

const (
	// GuardMinTeams требует, чтобы набралось не меньше минимума команд.
	GuardMinTeams = "min_teams"
	// GuardMatchesComplete требует завершения всех матчей по условию формата.
	GuardMatchesComplete = "all_matches_complete"
)

var transitions = []transition{
	{from: models.StateDraft, to: models.StateRegistration, action: ActionPublish},
	{from: models.StateDraft, to: models.StateDraft, action: ActionEdit},
	{from: models.StateRegistration, to: models.StateActive, action: ActionStart,
		guardName: GuardMinTeams,
		guard:     func(ctx GuardContext) bool { return ctx.TeamCount >= ctx.MinTeams }},
	{from: models.StateRegistration, to: models.StateDraft, action: ActionCancel},
	{from: models.StateActive, to: models.StateActive, action: ActionAdvance},
	{from: models.StateActive, to: models.StateCompleted, action: ActionComplete,
		guardName: GuardMatchesComplete,
		guard:     func(ctx GuardContext) bool { return ctx.MatchesComplete }},
	{from: models.StateCompleted, to: models.StateArchived, action: ActionArchive},
}

var allowedActions = map[models.TournamentState][]Action{
	models.StateDraft:        {ActionEdit, ActionPublish, ActionDelete},
	models.StateRegistration: {ActionRegisterTeam, ActionUnregisterTeam, ActionStart, ActionCancel},
	models.StateActive:       {ActionRecordResult, ActionAbandonMatch, ActionAdvance},
	models.StateCompleted:    {ActionView, ActionArchive},
	models.StateArchived:     {ActionView},
}

var formAccess = map[models.TournamentState]string{
	models.StateDraft:        "config",
	models.StateRegistration: "signup",
	models.StateActive:       "results",
	models.StateCompleted:    "readonly",
	models.StateArchived:     "readonly",
}

// TransitionError — недопустимый переход или проваленный guard.
type TransitionError struct {
	From   models.TournamentState
	To     models.TournamentState
	Action Action
	Guard  string
}

func (e *TransitionError) Error() string {
	if e.Guard != "" {
		return fmt.Sprintf("guard %q failed for action %q in state %q", e.Guard, e.Action, e.From)
	}
	return fmt.Sprintf("no valid transition for action %q from state %q", e.Action, e.From)
}

// HistoryEntry — запись об успешном переходе.
type HistoryEntry struct {
	From   models.TournamentState
	To     models.TournamentState
	Action Action
	At     time.Time
}

// StateMachine управляет жизненным циклом одного турнира. Не потокобезопасна:
// вызывающий код сериализует операции по турниру.
type StateMachine struct {
	state   models.TournamentState
	history []HistoryEntry
}

func New(initial models.TournamentState) *StateMachine {
	return &StateMachine{state: initial}
}

// FromState восстанавливает машину из сохранённого состояния.
// Неизвестная строка трактуется как draft, а не как ошибка десериализации.
func FromState(state string) *StateMachine {
	s := models.TournamentState(state)
	if !models.IsValidState(s) {
		s = models.StateDraft
	}
	return New(s)
}

func (m *StateMachine) State() models.TournamentState {
	return m.state
}

// FormAccess возвращает режим доступа к формам для текущего состояния.
func (m *StateMachine) FormAccess() string {
	if access, ok := formAccess[m.state]; ok {
		return access
	}
	return "readonly"
}

// AllowedActions перечисляет действия, разрешённые в текущем состоянии.
func (m *StateMachine) AllowedActions() []Action {
	actions := allowedActions[m.state]
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// CanPerform проверяет действие по таблице разрешений состояния.
// В отличие от CanTransition учитывает и действия, не меняющие состояние.
func (m *StateMachine) CanPerform(action Action) bool {
	for _, a := range allowedActions[m.state] {
		if a == action {
			return true
		}
	}
	return false
}

// CanTransition — структурная проверка перехода, guard-условия игнорируются.
func (m *StateMachine) CanTransition(action Action) bool {
	for _, t := range transitions {
		if t.from == m.state && t.action == action {
			return true
		}
	}
	return false
}

// Transition выполняет переход и записывает его в историю.
func (m *StateMachine) Transition(action Action, ctx GuardContext) (models.TournamentState, error) {
	for _, t := range transitions {
		if t.from != m.state || t.action != action {
			continue
		}
		if t.guard != nil && !t.guard(ctx) {
			return m.state, &TransitionError{From: m.state, To: t.to, Action: action, Guard: t.guardName}
		}
		entry := HistoryEntry{From: m.state, To: t.to, Action: action, At: time.Now().UTC()}
		m.state = t.to
		m.history = append(m.history, entry)
		return m.state, nil
	}
	return m.state, &TransitionError{From: m.state, Action: action}
}

// SetState выставляет состояние напрямую, минуя валидацию и историю.
// Только для административного восстановления.
func (m *StateMachine) SetState(state models.TournamentState) {
	m.state = state
}

// History возвращает копию журнала переходов.
func (m *StateMachine) History() []HistoryEntry {
	out := make([]HistoryEntry, len(m.history))
	copy(out, m.history)
	return out
}
