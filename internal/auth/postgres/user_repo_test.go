// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Noteful Contributors

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/internal/auth/postgres"
	"github.com/thinkful-ei21/joseph-noteful-app-v4/pkg/errutil"
)

func testUser() *auth.User {
	return &auth.User{
		ID:           ulid.Make(),
		Username:     "exampleUser",
		Fullname:     "Example User",
		PasswordHash: "$2a$10$digest",
		CreatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestUserRepository_Create(t *testing.T) {
	user := testUser()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantCode  string
	}{
		{
			name: "inserts user",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID.String(), user.Username, user.Fullname, user.PasswordHash, user.CreatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "unique violation maps to duplicate username",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: "users_username_key",
					})
			},
			wantErr:  auth.ErrDuplicateUsername,
			wantCode: auth.CodeDuplicateUsername,
		},
		{
			name: "other database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection refused"))
			},
			wantCode: "USER_CREATE_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			err = postgres.NewUserRepository(mock).Create(context.Background(), user)
			if tt.wantCode == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, tt.wantCode)
				if tt.wantErr != nil {
					assert.ErrorIs(t, err, tt.wantErr)
				} else {
					assert.NotErrorIs(t, err, auth.ErrDuplicateUsername)
				}
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByUsername(t *testing.T) {
	user := testUser()
	columns := []string{"id", "username", "fullname", "password_hash", "created_at"}

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, username, fullname, password_hash, created_at\s+FROM users`).
			WithArgs("exampleUser").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(user.ID.String(), user.Username, user.Fullname, user.PasswordHash, user.CreatedAt))

		got, err := postgres.NewUserRepository(mock).GetByUsername(context.Background(), "exampleUser")
		require.NoError(t, err)
		assert.Equal(t, user, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users`).
			WithArgs("ghost").
			WillReturnError(pgx.ErrNoRows)

		_, err = postgres.NewUserRepository(mock).GetByUsername(context.Background(), "ghost")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_NOT_FOUND")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users`).
			WithArgs("exampleUser").
			WillReturnError(errors.New("connection refused"))

		_, err = postgres.NewUserRepository(mock).GetByUsername(context.Background(), "exampleUser")
		require.Error(t, err)
		assert.NotErrorIs(t, err, auth.ErrNotFound)
		errutil.AssertErrorCode(t, err, "USER_GET_BY_USERNAME_FAILED")
		errutil.AssertErrorContext(t, err, "username", "exampleUser")
		assert.ErrorContains(t, err, "connection refused")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("corrupt id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`FROM users`).
			WithArgs("exampleUser").
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow("not-a-ulid", user.Username, user.Fullname, user.PasswordHash, user.CreatedAt))

		_, err = postgres.NewUserRepository(mock).GetByUsername(context.Background(), "exampleUser")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "USER_INVALID_ID")
		errutil.AssertErrorContext(t, err, "id", "not-a-ulid")
	})
}
