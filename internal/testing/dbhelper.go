package testing

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vvka-141/ftmgmt/internal/testinfra"
)

var (
	testContainerOnce sync.Once
	testContainerConn string
	testContainerErr  error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		ctx := context.Background()
		container, err := testinfra.StartSimplePostgres(ctx)
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerConn = container.ConnString
	})
	return testContainerConn, testContainerErr
}

// GetTestConnectionString returns the test database connection string.
// Priority: FTMGMT_TEST_CONN env var > auto-started testcontainer > skip test.
func GetTestConnectionString(t *testing.T) string {
	t.Helper()

	if connString := os.Getenv("FTMGMT_TEST_CONN"); connString != "" {
		return connString
	}

	connString, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("FTMGMT_TEST_CONN not set and Docker unavailable: %v", err)
	}
	return connString
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDatabase combines SkipIfShort and GetTestConnectionString for convenience.
// Returns the test connection string if available, otherwise skips the test.
func RequireDatabase(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestConnectionString(t)
}

// SeedFilenames creates table (if needed) with a single text column and
// inserts names into it. The table is dropped when the test ends.
func SeedFilenames(t *testing.T, connString, table, column string, names ...string) {
	t.Helper()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("Failed to connect for seeding: %v", err)
	}
	defer pool.Close()

	createQuery := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s text PRIMARY KEY)", table, column)
	if _, err := pool.Exec(ctx, createQuery); err != nil {
		t.Fatalf("Failed to create table %s: %v", table, err)
	}
	insertQuery := fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1) ON CONFLICT DO NOTHING", table, column)
	for _, n := range names {
		if _, err := pool.Exec(ctx, insertQuery, n); err != nil {
			t.Fatalf("Failed to insert %s: %v", n, err)
		}
	}

	t.Cleanup(func() {
		cleanupPool, err := pgxpool.New(context.Background(), connString)
		if err != nil {
			t.Logf("Warning: Failed to connect for cleanup: %v", err)
			return
		}
		defer cleanupPool.Close()
		if _, err := cleanupPool.Exec(context.Background(), fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			t.Logf("Warning: Failed to drop %s: %v", table, err)
		}
	})
}
