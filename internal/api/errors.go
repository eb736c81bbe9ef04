package api

import (
	"errors"
	"net/http"

	"github.com/MrWong99/soulsync/internal/entity"
	"github.com/MrWong99/soulsync/internal/interaction"
	"github.com/MrWong99/soulsync/internal/session"
	"github.com/MrWong99/soulsync/internal/translate"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, entity.ErrInvalid),
		errors.Is(err, translate.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrDuplicateID),
		errors.Is(err, interaction.ErrDuplicateID),
		errors.Is(err, session.ErrNoSelection):
		return http.StatusConflict
	case errors.Is(err, interaction.ErrInvalidReference),
		errors.Is(err, interaction.ErrSelfReference),
		errors.Is(err, interaction.ErrUnrecognizedType):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
