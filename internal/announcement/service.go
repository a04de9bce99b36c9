// Package announcement stores notices posted by staff.
package announcement

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"college/internal/apperr"
	"college/internal/model"
)

var ErrInvalidInput = fmt.Errorf("%w: title and content are required", apperr.ErrValidation)

// Service creates and lists announcements.
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// NewService creates a service backed by db.
func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// Create posts an announcement by authorID.
func (s *Service) Create(ctx context.Context, title, content string, authorID int64) (model.Announcement, error) {
	title, content = strings.TrimSpace(title), strings.TrimSpace(content)
	if title == "" || content == "" {
		return model.Announcement{}, ErrInvalidInput
	}
	a := model.Announcement{
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: s.now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO announcements (title, content, author_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, a.Title, a.Content, a.AuthorID, a.CreatedAt).Scan(&a.ID)
	if err != nil {
		return model.Announcement{}, fmt.Errorf("announcement: create: %w", err)
	}
	return a, nil
}

// List returns all announcements, newest first.
func (s *Service) List(ctx context.Context) ([]model.Announcement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, author_id, created_at
		FROM announcements
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("announcement: list: %w", err)
	}
	defer rows.Close()

	out := []model.Announcement{}
	for rows.Next() {
		var a model.Announcement
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.AuthorID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("announcement: scan: %w", err)
		}
		a.CreatedAt = a.CreatedAt.UTC()
		out = append(out, a)
	}
	return out, rows.Err()
}
