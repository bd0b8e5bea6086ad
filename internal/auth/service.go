// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// Service coordinates registration, login and token refresh.
type Service struct {
	users   UserRepository
	hasher  PasswordHasher
	issuer  *TokenIssuer
	login   Strategy
	refresh Strategy
	logger  *slog.Logger

	hashConcurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger used for audit and failure records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithHashConcurrency bounds concurrent hash/verify work. Zero or less
// selects runtime.GOMAXPROCS(0).
func WithHashConcurrency(n int) Option {
	return func(s *Service) { s.hashConcurrency = n }
}

// NewService creates a Service. All dependencies are required.
func NewService(users UserRepository, hasher PasswordHasher, issuer *TokenIssuer, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("users repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if issuer == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("token issuer is required")
	}

	s := &Service{
		users:  users,
		issuer: issuer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger is required")
	}

	s.hasher = NewLimitedHasher(hasher, s.hashConcurrency)
	s.login = NewLoginStrategy(users, s.hasher)
	s.refresh = NewRefreshStrategy(issuer)
	return s, nil
}

// Register validates payload, hashes the password and stores the user.
// Validation failures unwrap to a *ValidationError; a taken username
// unwraps to ErrDuplicateUsername.
func (s *Service) Register(ctx context.Context, payload map[string]any) (PublicUser, error) {
	reg, err := ValidateRegistration(payload)
	if err != nil {
		return PublicUser{}, err
	}

	digest, err := hashContext(ctx, s.hasher, reg.Password)
	if err != nil {
		return PublicUser{}, oops.Code(CodeRegisterFailed).
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(reg, digest)
	if err != nil {
		return PublicUser{}, oops.Code(CodeRegisterFailed).
			With("operation", "build user").
			Wrap(err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return PublicUser{}, err
		}
		return PublicUser{}, oops.Code(CodeRegisterFailed).
			With("operation", "create user").
			With("username", user.Username).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"username", user.Username,
	)
	return user.Public(), nil
}

// Login verifies username and password and returns a fresh token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	return s.authenticate(ctx, "login", s.login, Credentials{Username: username, Password: password})
}

// Refresh exchanges a valid, unexpired token for a new one with a renewed expiry.
func (s *Service) Refresh(ctx context.Context, token string) (string, error) {
	return s.authenticate(ctx, "refresh", s.refresh, Credentials{Token: token})
}

func (s *Service) authenticate(ctx context.Context, flow string, strategy Strategy, creds Credentials) (string, error) {
	user, err := strategy.Authenticate(ctx, creds)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrInvalidOrExpiredToken) {
			s.logger.WarnContext(ctx, "authentication rejected", "flow", flow)
		}
		return "", err
	}

	token, err := s.issuer.Issue(user)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "token issued",
		"flow", flow,
		"user_id", user.ID,
		"username", user.Username,
	)
	return token, nil
}
