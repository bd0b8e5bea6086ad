// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package auth_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/pkg/errutil"
)

var testUser = auth.PublicUser{
	ID:       "01HZXQ7Y6F0000000000000000",
	Username: "exampleUser",
	Fullname: "Example User",
}

func newIssuer(t *testing.T, secret string, expiry time.Duration) *auth.TokenIssuer {
	t.Helper()
	issuer, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: []byte(secret), Expiry: expiry})
	require.NoError(t, err)
	return issuer
}

func decodeClaims(t *testing.T, token string) map[string]any {
	t.Helper()
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal(raw, &claims))
	return claims
}

func TestNewTokenIssuer(t *testing.T) {
	t.Run("rejects empty secret", func(t *testing.T) {
		_, err := auth.NewTokenIssuer(auth.TokenConfig{Expiry: time.Hour})
		errutil.AssertErrorCode(t, err, "TOKEN_CONFIG_INVALID")
	})

	t.Run("rejects non-positive expiry", func(t *testing.T) {
		_, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: []byte("s"), Expiry: 0})
		errutil.AssertErrorCode(t, err, "TOKEN_CONFIG_INVALID")
	})

	t.Run("copies the secret", func(t *testing.T) {
		secret := []byte("original")
		issuer, err := auth.NewTokenIssuer(auth.TokenConfig{Secret: secret, Expiry: time.Hour})
		require.NoError(t, err)
		token, err := issuer.Issue(testUser)
		require.NoError(t, err)

		copy(secret, "mutated!")
		_, err = issuer.Parse(token)
		assert.NoError(t, err)
	})
}

func TestTokenIssuer_Issue(t *testing.T) {
	issuer := newIssuer(t, "secret", 7*24*time.Hour)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer.SetClock(func() time.Time { return fixed })

	token, err := issuer.Issue(testUser)
	require.NoError(t, err)

	claims := decodeClaims(t, token)
	assert.Equal(t, "exampleUser", claims["sub"])
	assert.InDelta(t, float64(fixed.Unix()), claims["iat"], 0)
	assert.InDelta(t, float64(fixed.Add(7*24*time.Hour).Unix()), claims["exp"], 0)

	user, ok := claims["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, testUser.ID, user["id"])
	assert.Equal(t, testUser.Username, user["username"])
	assert.Equal(t, testUser.Fullname, user["fullname"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")

	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return []byte("secret"), nil },
		jwt.WithTimeFunc(func() time.Time { return fixed }))
	require.NoError(t, err)
	assert.Equal(t, "HS256", parsed.Method.Alg())
}

func TestTokenIssuer_Reissue(t *testing.T) {
	issuer := newIssuer(t, "secret", time.Hour)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	issuer.SetClock(func() time.Time { return clock })

	first, err := issuer.Issue(testUser)
	require.NoError(t, err)

	t.Run("same second yields the same token", func(t *testing.T) {
		clock = start.Add(500 * time.Millisecond)
		again, err := issuer.Issue(testUser)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	})

	t.Run("later clock moves expiry forward", func(t *testing.T) {
		clock = start.Add(10 * time.Minute)
		user, err := issuer.Parse(first)
		require.NoError(t, err)
		renewed, err := issuer.Issue(user)
		require.NoError(t, err)
		assert.NotEqual(t, first, renewed)

		before, after := decodeClaims(t, first), decodeClaims(t, renewed)
		assert.InDelta(t, float64(start.Add(time.Hour).Unix()), before["exp"], 0)
		assert.InDelta(t, float64(clock.Add(time.Hour).Unix()), after["exp"], 0)
		assert.InDelta(t, float64(clock.Unix()), after["iat"], 0)
	})
}

func TestTokenIssuer_Parse(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("round trips the user", func(t *testing.T) {
		issuer := newIssuer(t, "secret", time.Hour)
		token, err := issuer.Issue(testUser)
		require.NoError(t, err)

		user, err := issuer.Parse(token)
		require.NoError(t, err)
		assert.Equal(t, testUser, user)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		issuer := newIssuer(t, "secret", time.Hour)
		issuer.SetClock(func() time.Time { return start })
		token, err := issuer.Issue(testUser)
		require.NoError(t, err)

		issuer.SetClock(func() time.Time { return start.Add(time.Hour + time.Second) })
		_, err = issuer.Parse(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
		errutil.AssertErrorCode(t, err, auth.CodeInvalidToken)
	})

	t.Run("accepts token just before expiry", func(t *testing.T) {
		issuer := newIssuer(t, "secret", time.Hour)
		issuer.SetClock(func() time.Time { return start })
		token, err := issuer.Issue(testUser)
		require.NoError(t, err)

		issuer.SetClock(func() time.Time { return start.Add(59 * time.Minute) })
		_, err = issuer.Parse(token)
		assert.NoError(t, err)
	})

	t.Run("rejects token signed with another secret", func(t *testing.T) {
		token, err := newIssuer(t, "other", time.Hour).Issue(testUser)
		require.NoError(t, err)

		_, err = newIssuer(t, "secret", time.Hour).Parse(token)
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("rejects other signing methods", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS512, auth.Claims{
			User: testUser,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   testUser.Username,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = newIssuer(t, "secret", time.Hour).Parse(signed)
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("rejects token without expiry", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
			User:             testUser,
			RegisteredClaims: jwt.RegisteredClaims{Subject: testUser.Username},
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = newIssuer(t, "secret", time.Hour).Parse(signed)
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
	})

	t.Run("rejects subject mismatch", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
			User: testUser,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "someoneElse",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		signed, err := token.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = newIssuer(t, "secret", time.Hour).Parse(signed)
		assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken)
		errutil.AssertErrorContext(t, err, "cause", "claims mismatch")
	})

	t.Run("rejects garbage", func(t *testing.T) {
		for _, token := range []string{"", "abc", "a.b.c"} {
			_, err := newIssuer(t, "secret", time.Hour).Parse(token)
			assert.ErrorIs(t, err, auth.ErrInvalidOrExpiredToken, "token %q", token)
		}
	})
}
