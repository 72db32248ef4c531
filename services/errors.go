package services

import "errors"

// Общие ошибки сервисного слоя, используемые в маппинге HTTP.
// Ошибки переходов состояния живут в lifecycle.TransitionError.
var (
	// Ресурс не найден
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrUserNotFound       = errors.New("user not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed      = errors.New("validation failed")
	ErrRegistrationClosed    = errors.New("tournament registration is not open")
	ErrTournamentFull        = errors.New("tournament registration is full")
	ErrDuplicateTeam         = errors.New("team name is already registered in this tournament")
	ErrInsufficientTeams     = errors.New("not enough teams registered")
	ErrMatchNotPending       = errors.New("match is not pending")
	ErrInvalidParticipant    = errors.New("team is not a participant of this match")
	ErrDrawNotAllowed        = errors.New("draw is not allowed for this match")
	ErrStageNotComplete      = errors.New("current stage still has unfinished matches")
	ErrTournamentNotEditable = errors.New("tournament can only be edited in draft state")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrEmailConflict      = errors.New("email address is already in use")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
)
