package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"college/internal/apperr"
	"college/internal/model"
)

// Repository persists attendance records.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// upsert writes the record for (student, date) in one statement keyed on the
// unique index; an existing row takes the new isPresent and markedBy. The
// insert only happens when the student exists, so a missing student yields
// sql.ErrNoRows. It must stay the first statement of its transaction:
// SQLite cannot upgrade a read snapshot that another writer has moved past.
func upsert(ctx context.Context, tx *sql.Tx, rec model.AttendanceRecord) (model.AttendanceRecord, error) {
	var markedBy sql.NullInt64
	row := tx.QueryRowContext(ctx, `
		INSERT INTO attendances (student_id, date, is_present, marked_by)
		SELECT CAST($1 AS BIGINT), CAST($2 AS TEXT), CAST($3 AS BOOLEAN), CAST($4 AS BIGINT)
		WHERE EXISTS (SELECT 1 FROM users WHERE id = $1)
		ON CONFLICT (student_id, date) DO UPDATE SET
			is_present = excluded.is_present,
			marked_by = excluded.marked_by
		RETURNING id, student_id, date, is_present, marked_by
	`, rec.StudentID, rec.Date, rec.IsPresent, rec.MarkedBy)
	var out model.AttendanceRecord
	if err := row.Scan(&out.ID, &out.StudentID, &out.Date, &out.IsPresent, &markedBy); err != nil {
		return model.AttendanceRecord{}, err
	}
	if markedBy.Valid {
		v := markedBy.Int64
		out.MarkedBy = &v
	}
	return out, nil
}

// ListForStudent returns the student's records, newest date first.
func (r *Repository) ListForStudent(ctx context.Context, studentID int64) ([]model.AttendanceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, date, is_present, marked_by
		FROM attendances
		WHERE student_id = $1
		ORDER BY date DESC, id DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []model.AttendanceRecord{}
	for rows.Next() {
		var rec model.AttendanceRecord
		var markedBy sql.NullInt64
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Date, &rec.IsPresent, &markedBy); err != nil {
			return nil, err
		}
		if _, err := time.Parse(DateLayout, rec.Date); err != nil {
			return nil, fmt.Errorf("%w: attendance %d has date %q", apperr.ErrIntegrity, rec.ID, rec.Date)
		}
		if markedBy.Valid {
			v := markedBy.Int64
			rec.MarkedBy = &v
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// Summary counts records per outcome across all students.
type Summary struct {
	Records int64 `json:"records"`
	Present int64 `json:"present"`
	Absent  int64 `json:"absent"`
}

// Summarize aggregates the whole ledger for dashboards.
func (r *Repository) Summarize(ctx context.Context) (Summary, error) {
	var s Summary
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN is_present THEN 1 ELSE 0 END), 0)
		FROM attendances
	`).Scan(&s.Records, &s.Present)
	if err != nil {
		return Summary{}, err
	}
	s.Absent = s.Records - s.Present
	return s, nil
}
