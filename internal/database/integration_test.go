//go:build integration

package database_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/saturnino-fabrica-de-software/facematch/internal/database"
	"github.com/saturnino-fabrica-de-software/facematch/internal/storage"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "facematch_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://test:test@%s:%s/facematch_test?sslmode=disable", host, port.Port())
}

func TestMigratorIntegration(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db, err := database.NewPool(ctx, database.DefaultPoolConfig(dsn))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	t.Run("Up creates kv_store", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "facematch_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		require.NoError(t, migrator.Up())
		assertTableExists(t, db, "kv_store")

		// second run is a no-op
		require.NoError(t, migrator.Up())
	})

	t.Run("Version returns current version", func(t *testing.T) {
		migrator, err := database.NewMigrator(db, "facematch_test")
		require.NoError(t, err)
		defer func() { _ = migrator.Close() }()

		version, dirty, err := migrator.Version()
		require.NoError(t, err)
		assert.False(t, dirty)
		assert.Equal(t, uint(1), version)
	})
}

func TestPostgresStoreIntegration(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	require.NoError(t, database.Migrate(ctx, dsn))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	store := storage.NewPostgresStore(pool)

	_, err = store.Get(ctx, "users")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Set(ctx, "users", []byte(`[{"label":"alice","descriptors":[[0.1,0.2]]}]`)))
	require.NoError(t, store.Set(ctx, "users", []byte(`[]`)))

	got, err := store.Get(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[]`), got)
}

func assertTableExists(t *testing.T, db *sql.DB, tableName string) {
	t.Helper()

	var exists bool
	err := db.QueryRow(`
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public'
			AND table_name = $1
		)
	`, tableName).Scan(&exists)

	require.NoError(t, err)
	assert.True(t, exists, "table %s should exist", tableName)
}
