// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

const corsMaxAge = 10 * 60

// CORS allows browser clients from matching origins. Patterns are globs
// compiled with '.' as the separator, so "https://*.noteful.app" matches
// one subdomain label and "http://localhost:*" matches any port.
type CORS struct {
	patterns []string
	globs    []glob.Glob
}

// NewCORS compiles the origin patterns. An empty list allows nothing.
func NewCORS(patterns []string) (*CORS, error) {
	c := &CORS{}
	for _, p := range patterns {
		g, err := glob.Compile(p, '.')
		if err != nil {
			return nil, oops.Code("CORS_ORIGIN_INVALID").With("pattern", p).Wrap(err)
		}
		c.patterns = append(c.patterns, p)
		c.globs = append(c.globs, g)
	}
	return c, nil
}

// Allowed reports whether origin matches any pattern.
func (c *CORS) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, g := range c.globs {
		if g.Match(origin) {
			return true
		}
	}
	return false
}

// Handler adds CORS headers for allowed origins and answers preflight
// requests. Other requests pass through unchanged.
func (c *CORS) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if !c.Allowed(origin) {
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Add("Vary", "Origin")
		h.Set("Access-Control-Allow-Origin", origin)

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			h.Set("Access-Control-Max-Age", strconv.Itoa(corsMaxAge))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		h.Set("Access-Control-Expose-Headers", "Location")
		next.ServeHTTP(w, r)
	})
}
