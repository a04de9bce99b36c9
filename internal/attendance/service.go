package attendance

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

// DateLayout is the only accepted attendance date format.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDate    = fmt.Errorf("%w: date must be YYYY-MM-DD", apperr.ErrValidation)
	ErrUnknownStudent = fmt.Errorf("%w: student does not exist", apperr.ErrValidation)
)

// Service records and reads attendance.
type Service struct {
	db   *sql.DB
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(db *sql.DB) *Service {
	return &Service{db: db, repo: NewRepository(db)}
}

// Mark records whether studentID was present on date. Repeated marks for the
// same student and date update the one existing record. markedBy is nil for
// self-marking.
func (s *Service) Mark(ctx context.Context, studentID int64, date string, isPresent bool, markedBy *int64) (model.AttendanceRecord, error) {
	day, err := time.Parse(DateLayout, date)
	if err != nil {
		return model.AttendanceRecord{}, ErrInvalidDate
	}

	var rec model.AttendanceRecord
	err = store.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		rec, err = upsert(ctx, tx, model.AttendanceRecord{
			StudentID: studentID,
			Date:      day.Format(DateLayout),
			IsPresent: isPresent,
			MarkedBy:  markedBy,
		})
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.AttendanceRecord{}, ErrUnknownStudent
	}
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("attendance: mark: %w", err)
	}
	return rec, nil
}

// ListForStudent returns every record for studentID, newest first. No
// records is an empty slice, not an error.
func (s *Service) ListForStudent(ctx context.Context, studentID int64) ([]model.AttendanceRecord, error) {
	recs, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("attendance: list: %w", err)
	}
	return recs, nil
}

// Summary aggregates the ledger.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.repo.Summarize(ctx)
}
