package api

import (
	"errors"
	"net/http"

	repository "github.com/okian/toto/internal/adapters/repository"
	service "github.com/okian/toto/internal/app"
	"github.com/okian/toto/internal/domain/scoring"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// statusForError maps domain errors onto HTTP status codes and stable
// error codes for clients.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, repository.ErrMatchNotFound),
		errors.Is(err, repository.ErrPredictionNotFound),
		errors.Is(err, repository.ErrUserNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrMatchLocked):
		return http.StatusConflict, "match_locked"
	case errors.Is(err, repository.ErrDuplicatePrediction):
		return http.StatusConflict, "duplicate_prediction"
	case errors.Is(err, repository.ErrDuplicateMatch),
		errors.Is(err, repository.ErrDuplicateUser):
		return http.StatusConflict, "duplicate"
	case errors.Is(err, service.ErrInvalidMatch),
		errors.Is(err, service.ErrInvalidPrediction),
		errors.Is(err, service.ErrInvalidResult),
		errors.Is(err, service.ErrInvalidProfile),
		errors.Is(err, repository.ErrInvalidState):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrQueueFull):
		return http.StatusServiceUnavailable, "backpressure"
	case errors.Is(err, scoring.ErrIncompleteMatch):
		return http.StatusInternalServerError, "internal_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
