package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// HashFunc turns a plaintext password into a stored credential hash.
type HashFunc func(ctx context.Context, plaintext string) (string, error)

type seedUser struct {
	name, email, password, role string
}

var demoUsers = []seedUser{
	{name: "Admin User", email: "admin@college.edu", password: "admin123", role: "ADMIN"},
	{name: "John Doe", email: "student@college.edu", password: "student123", role: "STUDENT"},
}

// Seed inserts the bootstrap accounts when the users table is empty and a
// welcome announcement when there are no announcements. Passwords go through
// hash so seeded accounts use the same work factor as registrations.
//
// Queries in this package keep $N placeholders in ascending order of first
// use; SQLite numbers "$N" parameters by appearance.
func (d *DB) Seed(ctx context.Context, hash HashFunc) error {
	var users int
	if err := d.Client.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
		return fmt.Errorf("store: seed count users: %w", err)
	}

	hashed := make([]string, len(demoUsers))
	if users == 0 {
		for i, u := range demoUsers {
			h, err := hash(ctx, u.password)
			if err != nil {
				return fmt.Errorf("store: seed hash %s: %w", u.email, err)
			}
			hashed[i] = h
		}
	}

	return WithTx(ctx, d.Client, func(tx *sql.Tx) error {
		now := time.Now().UTC()
		if users == 0 {
			for i, u := range demoUsers {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO users (name, email, password, role, created_at)
					VALUES ($1, $2, $3, $4, $5)
					ON CONFLICT (email) DO NOTHING
				`, u.name, u.email, hashed[i], u.role, now); err != nil {
					return fmt.Errorf("store: seed user %s: %w", u.email, err)
				}
			}
		}

		var announcements int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM announcements`).Scan(&announcements); err != nil {
			return fmt.Errorf("store: seed count announcements: %w", err)
		}
		if announcements > 0 {
			return nil
		}
		var adminID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE email = $1`, demoUsers[0].email).Scan(&adminID)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("store: seed find admin: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO announcements (title, content, author_id, created_at)
			VALUES ($1, $2, $3, $4)
		`, "Welcome to College Management System", "This is a sample announcement. More features coming soon!", adminID, now)
		if err != nil {
			return fmt.Errorf("store: seed announcement: %w", err)
		}
		return nil
	})
}
