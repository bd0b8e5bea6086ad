// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// User represents a registered account.
type User struct {
	ID           ulid.ULID
	Username     string
	Fullname     string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser is the outward-facing view of a User. It is embedded in tokens
// and returned from registration; it never carries the password hash.
type PublicUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

// NewUser creates a User from a validated registration and a password digest.
func NewUser(reg Registration, passwordHash string) (*User, error) {
	if reg.Username == "" {
		return nil, oops.Code("USER_INVALID_USERNAME").Errorf("username cannot be empty")
	}
	if passwordHash == "" {
		return nil, oops.Code("USER_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &User{
		ID:           ulid.Make(),
		Username:     reg.Username,
		Fullname:     strings.TrimSpace(reg.Fullname),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Public returns the serializable view of u.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID.String(),
		Username: u.Username,
		Fullname: u.Fullname,
	}
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicateUsername when the
	// username is already taken; uniqueness is enforced by the store itself.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by exact username.
	// Returns ErrNotFound if no such user exists.
	GetByUsername(ctx context.Context, username string) (*User, error)
}
