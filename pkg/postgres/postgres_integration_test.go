//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) *Postgres {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pg, err := New(dsn, MaxPoolSize(4), ConnAttempts(3))
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	return pg
}

var testMigrations = fstest.MapFS{
	"000001_items.up.sql":   {Data: []byte("CREATE TABLE items (id INT PRIMARY KEY);")},
	"000001_items.down.sql": {Data: []byte("DROP TABLE items;")},
}

func countItems(t *testing.T, pg *Postgres) int {
	t.Helper()

	var n int
	require.NoError(t, pg.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM items").Scan(&n))

	return n
}

func TestIntegration_Migrate(t *testing.T) {
	pg := setupPostgres(t)

	require.NoError(t, pg.Migrate(testMigrations, "."))
	require.NoError(t, pg.Migrate(testMigrations, "."))

	assert.Zero(t, countItems(t, pg))
}

func TestIntegration_WithinTransaction_CommitRunsHooks(t *testing.T) {
	pg := setupPostgres(t)
	require.NoError(t, pg.Migrate(testMigrations, "."))

	ctx := context.Background()
	var ran bool

	err := pg.WithinTransaction(ctx, func(ctx context.Context) error {
		assert.True(t, pg.InTransaction(ctx))

		if _, err := pg.GetExecutor(ctx).Exec(ctx, "INSERT INTO items (id) VALUES (1)"); err != nil {
			return err
		}

		// вложенный вызов не открывает новую транзакцию
		err := pg.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := pg.GetExecutor(ctx).Exec(ctx, "INSERT INTO items (id) VALUES (2)")

			return err
		})
		if err != nil {
			return err
		}

		return pg.AfterCommit(ctx, func() {
			ran = true
		})
	})
	require.NoError(t, err)

	assert.True(t, ran)
	assert.Equal(t, 2, countItems(t, pg))
}

func TestIntegration_WithinTransaction_RollbackDropsHooks(t *testing.T) {
	pg := setupPostgres(t)
	require.NoError(t, pg.Migrate(testMigrations, "."))

	ctx := context.Background()
	boom := errors.New("boom")
	var ran bool

	err := pg.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := pg.GetExecutor(ctx).Exec(ctx, "INSERT INTO items (id) VALUES (1)"); err != nil {
			return err
		}

		if err := pg.AfterCommit(ctx, func() { ran = true }); err != nil {
			return err
		}

		return boom
	})

	assert.True(t, errors.Is(err, boom))
	assert.False(t, ran)
	assert.Zero(t, countItems(t, pg))
}

func TestIntegration_WithinTransaction_PanicReleasesLocks(t *testing.T) {
	pg := setupPostgres(t)
	require.NoError(t, pg.Migrate(testMigrations, "."))

	ctx := context.Background()
	_, err := pg.Pool.Exec(ctx, "INSERT INTO items (id) VALUES (1)")
	require.NoError(t, err)

	var ran bool

	assert.PanicsWithValue(t, "boom", func() {
		_ = pg.WithinTransaction(ctx, func(ctx context.Context) error {
			var id int
			if err := pg.GetExecutor(ctx).QueryRow(ctx, "SELECT id FROM items WHERE id = 1 FOR UPDATE").Scan(&id); err != nil {
				return err
			}

			if err := pg.AfterCommit(ctx, func() { ran = true }); err != nil {
				return err
			}

			panic("boom")
		})
	})

	assert.False(t, ran)
	assert.Zero(t, pg.Pool.Stat().AcquiredConns())

	// строка снова доступна для SKIP LOCKED
	err = pg.WithinTransaction(ctx, func(ctx context.Context) error {
		var id int
		err := pg.GetExecutor(ctx).QueryRow(ctx, "SELECT id FROM items WHERE id = 1 FOR UPDATE SKIP LOCKED").Scan(&id)
		if err != nil {
			return err
		}

		assert.Equal(t, 1, id)

		return nil
	})
	require.NoError(t, err)
}
