// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/samber/oops"
)

// Credentials is what a client presents to a Strategy. LoginStrategy reads
// Username and Password; RefreshStrategy reads Token.
type Credentials struct {
	Username string
	Password string
	Token    string
}

// Strategy resolves presented credentials to an authenticated user.
type Strategy interface {
	Authenticate(ctx context.Context, creds Credentials) (PublicUser, error)
}

// dummyPassword is hashed once per LoginStrategy so that lookups for unknown
// users still pay for a full verify.
const dummyPassword = "noteful-timing-equalizer"

// LoginStrategy authenticates a username and password against the user store.
type LoginStrategy struct {
	users  UserRepository
	hasher PasswordHasher

	dummyOnce   sync.Once
	dummyDigest string
}

// NewLoginStrategy creates a LoginStrategy.
func NewLoginStrategy(users UserRepository, hasher PasswordHasher) *LoginStrategy {
	return &LoginStrategy{users: users, hasher: hasher}
}

// Authenticate looks the user up and verifies the password. Unknown users and
// wrong passwords both return ErrInvalidCredentials.
func (s *LoginStrategy) Authenticate(ctx context.Context, creds Credentials) (PublicUser, error) {
	user, err := s.users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return PublicUser{}, oops.Code(CodeLoginFailed).
				With("operation", "get user by username").
				Wrap(err)
		}
		// Still verify to keep response time independent of user existence.
		if _, err := verifyContext(ctx, s.hasher, creds.Password, s.dummy()); err != nil {
			return PublicUser{}, verifyFailed(err)
		}
		return PublicUser{}, invalidCredentials()
	}

	ok, err := verifyContext(ctx, s.hasher, creds.Password, user.PasswordHash)
	if err != nil {
		return PublicUser{}, verifyFailed(err)
	}
	if !ok {
		return PublicUser{}, invalidCredentials()
	}
	return user.Public(), nil
}

func verifyFailed(err error) error {
	return oops.Code(CodeLoginFailed).
		With("operation", "verify password").
		Wrap(err)
}

func (s *LoginStrategy) dummy() string {
	s.dummyOnce.Do(func() {
		digest, err := s.hasher.Hash(dummyPassword)
		if err == nil {
			s.dummyDigest = digest
		}
	})
	return s.dummyDigest
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Wrap(ErrInvalidCredentials)
}

// RefreshStrategy authenticates a previously issued, unexpired token. The
// embedded identity is trusted without a store lookup.
type RefreshStrategy struct {
	issuer *TokenIssuer
}

// NewRefreshStrategy creates a RefreshStrategy.
func NewRefreshStrategy(issuer *TokenIssuer) *RefreshStrategy {
	return &RefreshStrategy{issuer: issuer}
}

// Authenticate verifies creds.Token. Any failure returns ErrInvalidOrExpiredToken.
func (s *RefreshStrategy) Authenticate(_ context.Context, creds Credentials) (PublicUser, error) {
	if creds.Token == "" {
		return PublicUser{}, oops.Code(CodeInvalidToken).
			With("cause", "empty token").
			Wrap(ErrInvalidOrExpiredToken)
	}
	return s.issuer.Parse(creds.Token)
}

// Compile-time interface checks.
var (
	_ Strategy = (*LoginStrategy)(nil)
	_ Strategy = (*RefreshStrategy)(nil)
)
