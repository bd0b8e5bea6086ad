// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package httpapi

import (
	"net/http"

	"go.opentelemetry.io/otel/propagation"
)

var traceContext = propagation.TraceContext{}

// TraceContext extracts a W3C traceparent header into the request context
// so log records carry the caller's trace and span IDs.
func TraceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := traceContext.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
