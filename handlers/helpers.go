package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joegr/turny/brackets"
	"github.com/joegr/turny/lifecycle"
	"github.com/joegr/turny/models"
	"github.com/joegr/turny/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	if err := writeJSON(w, status, jsonResponse{"error": message}, nil); err != nil {
		slog.Error("failed to write error response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err))
	errorResponse(w, r, http.StatusInternalServerError,
		"the server encountered a problem and could not process your request")
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

// mapServiceErrorToHTTP переводит сервисные ошибки в HTTP-статусы.
// Ошибки переходов жизненного цикла — 409: запрос корректен, но состояние
// турнира его не допускает.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var transitionErr *lifecycle.TransitionError
	switch {
	case errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrUserNotFound):
		errorResponse(w, r, http.StatusNotFound, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrPasswordTooShort):
		errorResponse(w, r, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, services.ErrRegistrationClosed),
		errors.Is(err, services.ErrTournamentFull),
		errors.Is(err, services.ErrDuplicateTeam),
		errors.Is(err, services.ErrInsufficientTeams),
		errors.Is(err, services.ErrMatchNotPending),
		errors.Is(err, services.ErrInvalidParticipant),
		errors.Is(err, services.ErrDrawNotAllowed),
		errors.Is(err, services.ErrStageNotComplete),
		errors.Is(err, services.ErrTournamentNotEditable),
		errors.Is(err, services.ErrEmailConflict),
		errors.As(err, &transitionErr):
		errorResponse(w, r, http.StatusConflict, err.Error())

	case errors.Is(err, services.ErrInvalidCredentials):
		errorResponse(w, r, http.StatusUnauthorized, err.Error())

	case errors.Is(err, services.ErrForbiddenOperation):
		errorResponse(w, r, http.StatusForbidden, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

// publishEvents рассылает дескрипторы событий по websocket-комнатам.
func publishEvents(hub *brackets.Hub, events []models.Event) {
	if hub == nil {
		return
	}
	for _, event := range events {
		hub.BroadcastEvent(event)
	}
}
