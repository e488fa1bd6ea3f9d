//go:build integration
// +build integration

package database_test

import (
	"context"
	"testing"
	"time"

	"aitools-backend/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgresContainer(t *testing.T, ctx context.Context) string {
	dbName, dbUser, dbPassword := "test_db", "test_user", "test_password"

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	t.Cleanup(func() {
		err := postgresContainer.Terminate(context.Background())
		require.NoError(t, err, "Failed to terminate PostgreSQL container")
	})

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get PostgreSQL connection string")

	return connStr
}

func TestPostgresHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode.")
	}

	ctx := context.Background()
	uri := setupPostgresContainer(t, ctx)
	db, err := database.NewDatabase(uri)
	require.NoError(t, err)

	// a second open runs the migrator against an existing schema
	_, err = database.NewDatabase(uri)
	require.NoError(t, err)

	a, err := database.SaveHistory(ctx, db, "u1", "ChatGPT", "a", database.ResponseText, "A")
	require.NoError(t, err)
	_, err = database.SaveHistory(ctx, db, "u1", "ChatGPT", "b", database.ResponseText, "B")
	require.NoError(t, err)
	_, err = database.SaveHistory(ctx, db, "u2", "ChatGPT", "c", database.ResponseText, "C")
	require.NoError(t, err)

	history, err := database.ListHistory(ctx, db, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "b", history[0].Prompt)
	assert.Equal(t, "a", history[1].Prompt)

	deleted, err := database.DeleteHistory(ctx, db, a.ID, "u2")
	require.NoError(t, err)
	assert.Zero(t, deleted)

	deleted, err = database.DeleteHistory(ctx, db, a.ID, "u1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	assert.True(t, db.Migrator().HasIndex(&database.History{}, "idx_history_user_created"))
}
