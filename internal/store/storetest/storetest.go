// Package storetest opens throwaway record stores for package tests.
package storetest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"college/internal/store"
)

// PostgresURLEnv names the variable holding a Postgres URL for tests. When
// it is unset, Postgres-backed tests are skipped.
const PostgresURLEnv = "COLLEGE_TEST_DATABASE_URL"

type options struct {
	conns int
}

// Option tunes the store returned by New.
type Option func(*options)

// Conns sets how many connections the SQLite pool may open. More than one
// lets transactions overlap; writers then wait on the busy timeout.
func Conns(n int) Option {
	return func(o *options) { o.conns = n }
}

// New returns a migrated, file-backed SQLite store that is removed when the
// test finishes. By default it has a single connection, like the server.
func New(t testing.TB, opts ...Option) *store.DB {
	t.Helper()
	o := options{conns: 1}
	for _, opt := range opts {
		opt(&o)
	}

	db, err := store.NewDB(store.DriverSQLite, filepath.Join(t.TempDir(), "college.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if o.conns > 1 {
		db.Client.SetMaxOpenConns(o.conns)
		db.Client.SetMaxIdleConns(o.conns)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate store: %v", err)
	}
	return db
}

// Postgres returns a migrated store in a fresh schema of the database named
// by PostgresURLEnv. The schema is dropped when the test finishes.
func Postgres(t testing.TB) *store.DB {
	t.Helper()
	base := os.Getenv(PostgresURLEnv)
	if base == "" {
		t.Skipf("%s not set", PostgresURLEnv)
	}
	ctx := context.Background()

	admin, err := store.NewDB(store.DriverPostgres, base)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	schema := "storetest_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Client.ExecContext(ctx, `CREATE SCHEMA `+schema); err != nil {
		_ = admin.Close()
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Client.ExecContext(context.Background(), `DROP SCHEMA `+schema+` CASCADE`)
		_ = admin.Close()
	})

	db, err := store.NewDB(store.DriverPostgres, withSearchPath(base, schema))
	if err != nil {
		t.Fatalf("open postgres schema: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate postgres: %v", err)
	}
	return db
}

// ForEachBackend runs fn once against a SQLite store with conns connections
// and once against Postgres, which is skipped without PostgresURLEnv.
func ForEachBackend(t *testing.T, conns int, fn func(t *testing.T, db *store.DB)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, New(t, Conns(conns))) })
	t.Run("postgres", func(t *testing.T) { fn(t, Postgres(t)) })
}

func withSearchPath(dsn, schema string) string {
	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&search_path=" + schema
	}
	return dsn + "?search_path=" + schema
}
