// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

// Package store owns the PostgreSQL connection pool and schema migrations.
package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Connect retry defaults.
const (
	DefaultConnectRetries  = 5
	DefaultConnectBackoff  = 200 * time.Millisecond
	maxConnectBackoffDelay = 5 * time.Second
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type openOptions struct {
	retries uint64
	backoff time.Duration
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithConnectRetries sets how many times a failed initial ping is retried
// and the first backoff delay. Delays double up to five seconds.
func WithConnectRetries(retries uint64, backoff time.Duration) OpenOption {
	return func(o *openOptions) {
		o.retries = retries
		if backoff > 0 {
			o.backoff = backoff
		}
	}
}

// Open creates a connection pool for dsn and pings it, retrying the ping
// with exponential backoff while the database is unreachable.
func Open(ctx context.Context, dsn string, opts ...OpenOption) (*pgxpool.Pool, error) {
	o := openOptions{retries: DefaultConnectRetries, backoff: DefaultConnectBackoff}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, oops.Code("DB_CONFIG_INVALID").With("operation", "parse database url").Wrap(err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	if err := pingWithRetry(ctx, pool, o.retries, o.backoff); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").
			With("operation", "ping").
			With("host", cfg.ConnConfig.Host).
			With("retries", o.retries).
			Wrap(err)
	}
	return pool, nil
}

func pingWithRetry(ctx context.Context, p Pinger, retries uint64, base time.Duration) error {
	backoff := retry.WithMaxRetries(retries,
		retry.WithCappedDuration(maxConnectBackoffDelay, retry.NewExponential(base)))

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := p.Ping(ctx); err != nil {
			if uint64(attempt) <= retries {
				slog.WarnContext(ctx, "database not reachable, retrying",
					"attempt", attempt,
					"error", err,
				)
			}
			return retry.RetryableError(err)
		}
		return nil
	})
}

// ReadinessCheck reports whether p answers a ping within timeout.
func ReadinessCheck(p Pinger, timeout time.Duration) func() bool {
	return func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return p.Ping(ctx) == nil
	}
}
