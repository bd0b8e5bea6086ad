// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package auth

import (
	"context"
	"runtime"

	"github.com/samber/oops"
	"golang.org/x/sync/semaphore"
)

// ContextHasher is a PasswordHasher that can stop waiting when ctx is done.
type ContextHasher interface {
	PasswordHasher
	HashContext(ctx context.Context, password string) (string, error)
	VerifyContext(ctx context.Context, password, digest string) (bool, error)
}

// LimitedHasher bounds how many hash or verify computations run at once.
// Requests beyond the limit wait for a slot instead of oversubscribing the CPU.
type LimitedHasher struct {
	next PasswordHasher
	sem  *semaphore.Weighted
	size int64
}

// NewLimitedHasher wraps next. A non-positive limit means runtime.GOMAXPROCS(0).
func NewLimitedHasher(next PasswordHasher, limit int) *LimitedHasher {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &LimitedHasher{
		next: next,
		sem:  semaphore.NewWeighted(int64(limit)),
		size: int64(limit),
	}
}

// Limit returns the number of concurrent computations allowed.
func (h *LimitedHasher) Limit() int { return int(h.size) }

// Hash waits for a slot without a deadline. Request paths use HashContext.
func (h *LimitedHasher) Hash(password string) (string, error) {
	return h.HashContext(context.Background(), password)
}

// Verify waits for a slot without a deadline. Request paths use VerifyContext.
func (h *LimitedHasher) Verify(password, digest string) bool {
	ok, err := h.VerifyContext(context.Background(), password, digest)
	return err == nil && ok
}

// HashContext delegates to the wrapped hasher once a slot is free. If ctx ends
// while waiting it returns CodeHashSlotUnavailable wrapping ctx.Err().
func (h *LimitedHasher) HashContext(ctx context.Context, password string) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.sem.Release(1)
	return h.next.Hash(password)
}

// VerifyContext delegates to the wrapped hasher once a slot is free.
func (h *LimitedHasher) VerifyContext(ctx context.Context, password, digest string) (bool, error) {
	if err := h.acquire(ctx); err != nil {
		return false, err
	}
	defer h.sem.Release(1)
	return h.next.Verify(password, digest), nil
}

func (h *LimitedHasher) acquire(ctx context.Context) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return oops.Code(CodeHashSlotUnavailable).
			With("limit", h.size).
			Wrap(err)
	}
	return nil
}

// hashContext uses the context-aware path when h provides one.
func hashContext(ctx context.Context, h PasswordHasher, password string) (string, error) {
	if ch, ok := h.(ContextHasher); ok {
		return ch.HashContext(ctx, password)
	}
	return h.Hash(password)
}

func verifyContext(ctx context.Context, h PasswordHasher, password, digest string) (bool, error) {
	if ch, ok := h.(ContextHasher); ok {
		return ch.VerifyContext(ctx, password, digest)
	}
	return h.Verify(password, digest), nil
}

var _ ContextHasher = (*LimitedHasher)(nil)
