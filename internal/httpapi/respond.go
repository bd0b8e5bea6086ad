// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/pkg/errutil"
)

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Code     int    `json:"code"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// TokenBody is the response of login and refresh.
type TokenBody struct {
	AuthToken string `json:"authToken"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any, logger *slog.Logger) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.Error("failed to marshal JSON response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		logger.Debug("failed to write HTTP response", "error", err)
	}
}

func respondWithError(w http.ResponseWriter, code int, message string, logger *slog.Logger) {
	respondWithJSON(w, code, ErrorBody{Code: code, Message: message}, logger)
}

// respondWithAuthError maps a Service error to its HTTP response. Anything
// not recognized is logged and reported as a bare 500.
func respondWithAuthError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		respondWithJSON(w, http.StatusUnprocessableEntity, ErrorBody{
			Code:     http.StatusUnprocessableEntity,
			Reason:   "ValidationError",
			Message:  verr.Message,
			Location: verr.Field,
		}, logger)
	case errors.Is(err, auth.ErrDuplicateUsername):
		respondWithError(w, http.StatusBadRequest, "The username already exists", logger)
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidOrExpiredToken):
		respondWithError(w, http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized), logger)
	default:
		errutil.LogErrorContext(r.Context(), logger, "request failed", err)
		respondWithError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError), logger)
	}
}
