// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package errutil

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireOops stops the test unless err carries an oops error.
func requireOops(t *testing.T, err error) oops.OopsError {
	t.Helper()
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T: %v", err, err)
	return oopsErr
}

// AssertErrorCode asserts the oops code of err. With nested oops errors the
// deepest code is the one reported.
func AssertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	assert.Equal(t, code, requireOops(t, err).Code(), "error: %v", err)
}

// AssertErrorContext asserts that the merged oops context of err maps key to value.
func AssertErrorContext(t *testing.T, err error, key string, value any) {
	t.Helper()
	ctx := requireOops(t, err).Context()
	if assert.Contains(t, ctx, key) {
		assert.Equal(t, value, ctx[key])
	}
}

// AssertErrorContextMissing asserts that key never appears in the oops context
// of err, for values such as passwords that must not reach logs.
func AssertErrorContextMissing(t *testing.T, err error, key string) {
	t.Helper()
	assert.NotContains(t, requireOops(t, err).Context(), key)
}

// AssertCodedError asserts both the oops code of err and that it unwraps to target.
func AssertCodedError(t *testing.T, err error, code string, target error) {
	t.Helper()
	AssertErrorCode(t, err, code)
	assert.True(t, errors.Is(err, target), "expected %v in chain of %v", target, err)
}
