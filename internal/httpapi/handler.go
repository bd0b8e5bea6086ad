// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/observability"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Operation labels for auth metrics.
const (
	opRegister = "register"
	opLogin    = "login"
	opRefresh  = "refresh"
)

// AuthService is the part of *auth.Service the handlers call.
type AuthService interface {
	Register(ctx context.Context, payload map[string]any) (auth.PublicUser, error)
	Login(ctx context.Context, username, password string) (string, error)
	Refresh(ctx context.Context, token string) (string, error)
}

// AuthHandler serves the registration and token routes.
type AuthHandler struct {
	svc     AuthService
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAuthHandler creates an AuthHandler. metrics may be nil.
func NewAuthHandler(svc AuthService, logger *slog.Logger, metrics *observability.Metrics) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger, metrics: metrics}
}

// Register handles POST /api/users.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeObject(w, r)
	if !ok {
		h.metrics.RecordAuth(opRegister, observability.OutcomeInvalid)
		return
	}

	user, err := h.svc.Register(r.Context(), payload)
	if err != nil {
		h.metrics.RecordAuth(opRegister, outcomeOf(err))
		respondWithAuthError(w, r, err, h.logger)
		return
	}

	h.metrics.RecordAuth(opRegister, observability.OutcomeSuccess)
	w.Header().Set("Location", "/api/users/"+user.ID)
	respondWithJSON(w, http.StatusCreated, user, h.logger)
}

// Login handles POST /api/auth/login. Absent or empty credentials are a
// bad request rather than a failed login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeObject(w, r)
	if !ok {
		h.metrics.RecordAuth(opLogin, observability.OutcomeInvalid)
		return
	}

	username, _ := payload["username"].(string)
	password, _ := payload["password"].(string)
	if username == "" || password == "" {
		h.metrics.RecordAuth(opLogin, observability.OutcomeInvalid)
		respondWithError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest), h.logger)
		return
	}

	token, err := h.svc.Login(r.Context(), username, password)
	h.respondWithToken(w, r, opLogin, token, err)
}

// Refresh handles POST /api/auth/refresh with an "Authorization: Bearer"
// header.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := h.svc.Refresh(r.Context(), bearerToken(r))
	h.respondWithToken(w, r, opRefresh, token, err)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, r *http.Request, op, token string, err error) {
	if err != nil {
		h.metrics.RecordAuth(op, outcomeOf(err))
		respondWithAuthError(w, r, err, h.logger)
		return
	}
	h.metrics.RecordAuth(op, observability.OutcomeSuccess)
	respondWithJSON(w, http.StatusOK, TokenBody{AuthToken: token}, h.logger)
}

// decodeObject reads a JSON object body. On failure it has already written
// a 400 response.
func (h *AuthHandler) decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var payload map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&payload); err != nil || payload == nil {
		h.logger.DebugContext(r.Context(), "rejecting request body", "error", err)
		respondWithError(w, http.StatusBadRequest, http.StatusText(http.StatusBadRequest), h.logger)
		return nil, false
	}
	return payload, true
}

// bearerToken extracts the token from an Authorization header. The scheme
// is matched case-insensitively; anything else yields "".
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func outcomeOf(err error) string {
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		return observability.OutcomeInvalid
	case errors.Is(err, auth.ErrDuplicateUsername):
		return observability.OutcomeConflict
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidOrExpiredToken):
		return observability.OutcomeRejected
	default:
		return observability.OutcomeError
	}
}
