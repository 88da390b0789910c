package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance events in Postgres. The table carries a
// unique constraint on (session_id, student_id) so the duplicate rule holds
// even under concurrent submission; ConditionalInsert is the only write path.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an event repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Exists reports whether an event is already recorded for the pair.
func (r *Repository) Exists(ctx context.Context, sessionID, studentID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `
		SELECT 1 FROM attendance_events WHERE session_id = $1 AND student_id = $2
	`, sessionID, studentID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ConditionalInsert appends the event unless one already exists for the same
// (session, student) pair. Returns false without error when the pair was
// already present — the caller maps that to an already-marked rejection.
func (r *Repository) ConditionalInsert(ctx context.Context, evt Event) (bool, error) {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_events (id, session_id, student_id, roll_number, name, father, occurred_at, subject_code, subject_name, date, location)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (session_id, student_id) DO NOTHING
	`, evt.ID, evt.SessionID, evt.StudentID, evt.RollNumber, evt.Name, evt.Father, evt.Timestamp, evt.SubjectCode, evt.SubjectName, evt.Date, evt.Location)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListBySession returns all events for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, student_id, roll_number, name, father, occurred_at, subject_code, subject_name, date, location
		FROM attendance_events
		WHERE session_id = $1
		ORDER BY occurred_at DESC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// ListByStudent returns every event a student has across all sessions.
func (r *Repository) ListByStudent(ctx context.Context, studentID string) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, student_id, roll_number, name, father, occurred_at, subject_code, subject_name, date, location
		FROM attendance_events
		WHERE student_id = $1
		ORDER BY occurred_at DESC
	`, studentID)
	if err != nil {
		return nil, err
	}
	return collectEvents(rows)
}

// CountBySession returns the number of accepted check-ins for a session.
func (r *Repository) CountBySession(ctx context.Context, sessionID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attendance_events WHERE session_id = $1
	`, sessionID).Scan(&n)
	return n, err
}

func collectEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()
	var events []Event
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.SessionID, &evt.StudentID, &evt.RollNumber, &evt.Name, &evt.Father, &evt.Timestamp, &evt.SubjectCode, &evt.SubjectName, &evt.Date, &evt.Location); err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}
