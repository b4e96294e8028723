package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/alari/backend/internal/ctxkeys"
	"github.com/alari/backend/internal/model"
	"github.com/alari/backend/internal/repository"
	"github.com/alari/backend/internal/service"
	"github.com/alari/backend/internal/streak"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON body into dst and validates its struct tags.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", service.ErrValidation, err)
	}

	err = validate.Struct(dst)
	if err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: invalid fields: %s", service.ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", service.ErrValidation, err)
	}

	return nil
}

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, model.ErrInvalidStatus),
		errors.Is(err, model.ErrInvalidRole),
		errors.Is(err, model.ErrInvalidKeywords):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrGoalNotFound),
		errors.Is(err, repository.ErrCheckInNotFound),
		errors.Is(err, repository.ErrConversationNotFound),
		errors.Is(err, streak.ErrUnknownGoal):
		return http.StatusNotFound
	case errors.Is(err, streak.ErrInvalidCheckInDate):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInvalidStatusTransition),
		errors.Is(err, streak.ErrConcurrentModification),
		errors.Is(err, repository.ErrGoalConflict),
		errors.Is(err, service.ErrGoalNotActive),
		errors.Is(err, repository.ErrDuplicateEmail):
		return http.StatusConflict
	case errors.Is(err, streak.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs unexpected errors and writes the mapped status.
func writeError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error(msg,
			"error", err,
			"user_id", ctxkeys.UserID(r.Context()),
			"request_id", ctxkeys.RequestID(r.Context()),
		)
	}
	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	if status == http.StatusInternalServerError {
		writeMessage(w, status, msg)
		return
	}
	writeMessage(w, status, err.Error())
}
