// Package dbtest opens a migrated PostgreSQL database for integration tests.
// Tests using it are skipped unless DatabaseURLEnv is set.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/yigit/courseenroll/internal/app/migrations"
	"github.com/yigit/courseenroll/internal/db"
)

// DatabaseURLEnv names the connection string of a disposable test database
const DatabaseURLEnv = "COURSEENROLL_TEST_DATABASE_URL"

// migrationLockKey serialises migrations of test packages running in parallel
const migrationLockKey = 727274

// Open connects to the test database and applies the repository migrations.
// The pool is closed when the test ends.
func Open(t testing.TB) *db.PostgresDB {
	t.Helper()

	url := os.Getenv(DatabaseURLEnv)
	if url == "" {
		t.Skipf("%s is not set", DatabaseURLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		t.Fatalf("parse %s: %v", DatabaseURLEnv, err)
	}
	poolConfig.MaxConns = 16

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("connect test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping test database: %v", err)
	}

	migrate(ctx, t, pool)
	return &db.PostgresDB{Pool: pool}
}

func migrate(ctx context.Context, t testing.TB, pool *pgxpool.Pool) {
	t.Helper()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire migration connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrationLockKey); err != nil {
		t.Fatalf("take migration lock: %v", err)
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLockKey)
	}()

	if err := migrations.NewMigrator(pool, zerolog.Nop()).MigrateFromDirectory(ctx, MigrationsDir()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
}

// MigrationsDir is the absolute path of the repository migrations directory
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}
