package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/stanstork/condo-notify/internal/apperr"
)

type errorBody struct {
	Message string `json:"mensagem"`
}

// writeJSON encodes body before committing status. When body cannot be encoded
// the client gets a 500 with a generic message and the encoding error is returned.
func writeJSON(w http.ResponseWriter, status int, body interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if body == nil {
		w.WriteHeader(status)
		return nil
	}
	payload, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fallback, _ := json.Marshal(errorBody{Message: apperr.UserMessage(err)})
		_, _ = w.Write(append(fallback, '\n'))
		return errors.Wrapf(err, "encoding %T response", body)
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(payload, '\n'))
	return nil
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case apperr.IsValidation(err), apperr.IsFilterValidation(err):
		return http.StatusBadRequest
	case apperr.IsForbidden(err):
		return http.StatusForbidden
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case apperr.IsConflict(err):
		return http.StatusConflict
	case apperr.IsTransition(err):
		return http.StatusUnprocessableEntity
	case apperr.IsNetwork(err), apperr.IsServer(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	if encErr := writeJSON(w, status, errorBody{Message: apperr.UserMessage(err)}); encErr != nil {
		logger.Error().Err(encErr).Msg("failed to write error response")
	}
}
