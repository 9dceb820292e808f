package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Schema applied inline; the embedded migration runner lives in the
// migrations package, which imports this one.
const testSchema = `
CREATE TABLE IF NOT EXISTS trade_log (
    trade_id    TEXT PRIMARY KEY,
    trade_day   DATE NOT NULL,
    trade_type  TEXT NOT NULL CHECK (trade_type IN ('buy', 'sell')),
    mint        TEXT NOT NULL,
    sol_amount  TEXT NOT NULL,
    unit_amount TEXT NOT NULL,
    price       TEXT NOT NULL,
    profit_sol  TEXT NOT NULL,
    profit_pct  TEXT NOT NULL,
    reason      TEXT NOT NULL DEFAULT '',
    session_id  TEXT NOT NULL DEFAULT '',
    executed_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trade_log_day ON trade_log (trade_day);
CREATE INDEX IF NOT EXISTS idx_trade_log_mint ON trade_log (mint);
`

// setupTestDB creates a PostgreSQL container and applies the schema.
// The returned cleanup must run after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	_, err = pool.Exec(ctx, testSchema)
	require.NoError(t, err, "failed to apply schema")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}
