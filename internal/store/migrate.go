package store

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		email      VARCHAR(255) NOT NULL UNIQUE,
		password   VARCHAR(255) NOT NULL,
		role       VARCHAR(20)  NOT NULL,
		created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS announcements (
		id         BIGSERIAL PRIMARY KEY,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		author_id  BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS attendances (
		id         BIGSERIAL PRIMARY KEY,
		student_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date       VARCHAR(10) NOT NULL,
		is_present BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	// older databases predate the recorder column
	`ALTER TABLE attendances ADD COLUMN IF NOT EXISTS marked_by BIGINT REFERENCES users(id) ON DELETE SET NULL`,
	`CREATE UNIQUE INDEX IF NOT EXISTS attendances_student_date_key ON attendances (student_id, date)`,
	`CREATE INDEX IF NOT EXISTS announcements_created_at_idx ON announcements (created_at DESC)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		role       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS announcements (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		title      TEXT NOT NULL,
		content    TEXT NOT NULL,
		author_id  INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS attendances (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		date       TEXT NOT NULL,
		is_present BOOLEAN NOT NULL DEFAULT FALSE,
		marked_by  INTEGER REFERENCES users(id) ON DELETE SET NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS attendances_student_date_key ON attendances (student_id, date)`,
	`CREATE INDEX IF NOT EXISTS announcements_created_at_idx ON announcements (created_at DESC)`,
}

// Migrate creates the tables and indexes if they do not exist yet.
// Every statement is idempotent, so it runs on each start.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if d.Driver == DriverSQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := d.Client.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: migrate step %d: %w", i+1, err)
		}
	}
	return nil
}
