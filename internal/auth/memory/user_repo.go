// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

// Package memory provides an in-process auth.UserRepository for development
// and tests. Data does not survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/samber/oops"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth"
)

// UserRepository stores users in a map keyed by username.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]auth.User
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]auth.User)}
}

// Create stores a copy of user. The existence check and insert share one
// critical section, so concurrent registrations of a name admit exactly one.
func (r *UserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Username]; exists {
		return oops.Code(auth.CodeDuplicateUsername).
			With("username", user.Username).
			Wrap(auth.ErrDuplicateUsername)
	}
	r.users[user.Username] = *user
	return nil
}

// GetByUsername returns a copy of the stored user.
func (r *UserRepository) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[username]
	if !ok {
		return nil, oops.Code("USER_NOT_FOUND").
			With("username", username).
			Wrap(auth.ErrNotFound)
	}
	return &user, nil
}

// Len returns the number of stored users.
func (r *UserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

var _ auth.UserRepository = (*UserRepository)(nil)
