// Package dbtest connects integration tests to a disposable PostgreSQL database.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// EnvURL names the variable holding the test database URL.
const EnvURL = "MEETSUM_TEST_DATABASE_URL"

// Pool connects to the test database, skipping the test when -short is set
// or EnvURL is empty. The pool is closed when the test ends.
func Pool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	dbURL := os.Getenv(EnvURL)
	if dbURL == "" {
		t.Skipf("Skipping integration test: %s not set", EnvURL)
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(context.Background()))

	t.Cleanup(pool.Close)
	return pool
}
