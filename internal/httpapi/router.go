// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

// Package httpapi exposes the auth service over HTTP.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/observability"
)

// RequestTimeout bounds each request's context.
const RequestTimeout = 30 * time.Second

// RouterOption configures NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	cors *CORS
}

// WithCORS enables CORS handling for allowed origins.
func WithCORS(c *CORS) RouterOption {
	return func(o *routerOptions) { o.cors = c }
}

// NewRouter wires the auth routes and middleware. metrics may be nil.
func NewRouter(svc AuthService, logger *slog.Logger, metrics *observability.Metrics, opts ...RouterOption) http.Handler {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}
	h := NewAuthHandler(svc, logger, metrics)

	r := chi.NewRouter()
	r.Use(TraceContext)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger, metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(RequestTimeout))
	if o.cors != nil {
		r.Use(o.cors.Handler)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusNotFound, http.StatusText(http.StatusNotFound), logger)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), logger)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/users", h.Register)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)
	})
	return r
}
