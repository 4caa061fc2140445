package repository

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildBatchUpdate(t *testing.T) {
	familyID := uuid.New()
	at := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	ids := []string{"a", "b"}

	query, args, err := buildBatchUpdate(TableStarTransactions, familyID, ids, map[string]any{
		"status":          "rejected",
		"reviewed_at":     at,
		"parent_response": nil,
	})
	require.NoError(t, err)

	assert.Equal(t,
		`UPDATE "star_transactions" SET "parent_response" = $3::text, "reviewed_at" = $4::timestamptz, "status" = $5::text WHERE family_id = $1 AND id = ANY($2::uuid[])`,
		query,
	)
	require.Len(t, args, 5)
	assert.Equal(t, familyID, args[0])
	assert.Equal(t, ids, args[1])
	assert.Nil(t, args[2])
	assert.Equal(t, at, args[3])
	assert.Equal(t, "rejected", args[4])
}

func TestBuildBatchUpdate_Rejects(t *testing.T) {
	familyID := uuid.New()

	_, _, err := buildBatchUpdate("parents", familyID, []string{"a"}, map[string]any{"status": "approved"})
	assert.ErrorIs(t, err, ErrUnknownTable)

	_, _, err = buildBatchUpdate(TableRedemptions, familyID, []string{"a"}, map[string]any{"stars_spent": 0})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, _, err = buildBatchUpdate(TableRedemptions, familyID, []string{"a"}, nil)
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestWithRetry_RetriesSerializationFailure(t *testing.T) {
	prev := retryDelays
	retryDelays = []time.Duration{time.Millisecond, time.Millisecond}
	t.Cleanup(func() { retryDelays = prev })

	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUp(t *testing.T) {
	prev := retryDelays
	retryDelays = []time.Duration{time.Millisecond}
	t.Cleanup(func() { retryDelays = prev })

	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
	})

	var pgErr *pgconn.PgError
	require.True(t, errors.As(err, &pgErr))
	assert.Equal(t, 2, calls)
}

func TestWithRetry_DoesNotRetryOtherErrors(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_StopsOnContextCancel(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), func() error {
		calls++
		return context.Canceled
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestRestoreError(t *testing.T) {
	err := restoreError(&pgconn.PgError{Code: pgerrcode.NoDataFound, Message: "no demo snapshot"})
	assert.ErrorIs(t, err, ErrSnapshotNotFound)

	other := &pgconn.PgError{Code: pgerrcode.UndefinedFunction}
	err = restoreError(other)
	assert.NotErrorIs(t, err, ErrSnapshotNotFound)

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, pgerrcode.UndefinedFunction, pgErr.Code)
}

func TestMigrationsOnlyDefineTables(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		body, err := fs.ReadFile(migrationsFS, name)
		require.NoError(t, err)

		sql := strings.ToUpper(string(body))
		assert.NotContains(t, sql, "CREATE FUNCTION", name)
		assert.NotContains(t, sql, "CREATE OR REPLACE FUNCTION", name)
		assert.NotContains(t, sql, "CREATE TRIGGER", name)
	}
}
