package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/avosseberg/gatehouse-be/internal/apperr"
	"github.com/rs/zerolog/log"
)

// errorResponse is the wire shape for all failures.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto an HTTP status and an
// {error: message} body. Domain kinds carry their message to the
// client; infrastructure kinds are logged and masked.
func writeError(w http.ResponseWriter, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		log.Error().Err(err).Msg("Untyped error reached the HTTP layer")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
		return
	}

	switch e.Kind {
	case apperr.KindInvalidInput:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: e.Message})
	case apperr.KindConflict:
		writeJSON(w, http.StatusConflict, errorResponse{Error: e.Message})
	case apperr.KindUnauthorized:
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: e.Message})
	case apperr.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: e.Message})
	case apperr.KindSessionExpired:
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: e.Message})
	case apperr.KindHashingFailure, apperr.KindQueryError:
		log.Error().Err(err).Msg("Infrastructure failure")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	default:
		log.Error().Err(err).Msg("Unhandled error kind")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
