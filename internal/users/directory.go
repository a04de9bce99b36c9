package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"college/internal/apperr"
	"college/internal/model"
	"college/internal/store"
)

var (
	ErrNotFound    = fmt.Errorf("%w: user not found", apperr.ErrNotFound)
	ErrEmailExists = fmt.Errorf("%w: email already exists", apperr.ErrConflict)
)

// Account is a stored user including its credential hash. Role is the raw
// stored string; callers decide how to treat values they do not recognize.
type Account struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// NewAccount is the input for Create.
type NewAccount struct {
	Name         string
	Email        string
	PasswordHash string
	Role         model.Role
}

// Directory persists user accounts.
type Directory struct {
	db *sql.DB
}

// NewDirectory creates a directory backed by db.
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

const accountColumns = `id, name, email, password, role, created_at`

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Role, &a.CreatedAt); err != nil {
		return Account{}, err
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return a, nil
}

// FindByEmail returns the account with exactly this email.
func (d *Directory) FindByEmail(ctx context.Context, email string) (Account, error) {
	a, err := scanAccount(d.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

// FindByID returns the account with id.
func (d *Directory) FindByID(ctx context.Context, id int64) (Account, error) {
	a, err := scanAccount(d.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return a, err
}

// Create inserts a new account. The insert is conditional on the email's
// unique index, so concurrent creates of one email yield exactly one row;
// the losers get ErrEmailExists.
func (d *Directory) Create(ctx context.Context, in NewAccount) (Account, error) {
	acct := Account{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role.String(),
		CreatedAt:    time.Now().UTC(),
	}
	err := store.WithTx(ctx, d.db, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `
			INSERT INTO users (name, email, password, role, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING
			RETURNING id
		`, acct.Name, acct.Email, acct.PasswordHash, acct.Role, acct.CreatedAt).Scan(&acct.ID)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrEmailExists
	}
	if err != nil {
		return Account{}, fmt.Errorf("users: create: %w", err)
	}
	return acct, nil
}

// ListByRole returns users holding role, ordered by name.
func (d *Directory) ListByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM users WHERE role = $1 ORDER BY name, id`, role.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, model.User{ID: a.ID, Name: a.Name, Email: a.Email, Role: role, CreatedAt: a.CreatedAt})
	}
	return out, rows.Err()
}
