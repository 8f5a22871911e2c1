package httputil

import (
	"errors"
	"net/http"

	"github.com/chantierflow/backend/internal/models"
)

// Status maps a domain error to the HTTP status of the response.
//
// The error taxonomy is closed: not-found, invalid transition,
// validation, conflict, policy. Everything else is a server error.
func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrResourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrPolicy):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
