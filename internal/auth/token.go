// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// TokenConfig is the process-wide signing configuration. It is built once at
// startup and never modified.
type TokenConfig struct {
	Secret []byte
	Expiry time.Duration
}

// Claims is the payload of an auth token. Subject carries the username.
type Claims struct {
	User PublicUser `json:"user"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies HS256 bearer tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer. The secret is copied so later changes
// to cfg do not affect the issuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").Errorf("signing secret is required")
	}
	if cfg.Expiry <= 0 {
		return nil, oops.Code("TOKEN_CONFIG_INVALID").
			With("expiry", cfg.Expiry.String()).
			Errorf("token expiry must be positive")
	}
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &TokenIssuer{secret: secret, expiry: cfg.Expiry, now: time.Now}, nil
}

// Expiry returns the configured token lifetime.
func (i *TokenIssuer) Expiry() time.Duration { return i.expiry }

// Issue signs a token for user that expires after the configured lifetime.
func (i *TokenIssuer) Issue(user PublicUser) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		User: user,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", oops.Code(CodeTokenIssueFailed).
			With("username", user.Username).
			Wrap(err)
	}
	return signed, nil
}

// Parse verifies the signature and expiry of tokenString and returns the
// embedded user. Every failure yields ErrInvalidOrExpiredToken; the cause is
// kept in the oops context for logging only.
func (i *TokenIssuer) Parse(tokenString string) (PublicUser, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return PublicUser{}, oops.Code(CodeInvalidToken).
			With("cause", err.Error()).
			Wrap(ErrInvalidOrExpiredToken)
	}
	if !token.Valid || claims.User.Username == "" || claims.Subject != claims.User.Username {
		return PublicUser{}, oops.Code(CodeInvalidToken).
			With("cause", "claims mismatch").
			Wrap(ErrInvalidOrExpiredToken)
	}
	return claims.User, nil
}
