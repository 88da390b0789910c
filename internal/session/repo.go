package session

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Repository persists sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a session repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create writes a new session.
func (r *Repository) Create(ctx context.Context, s Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (session_id, date, subject_code, subject_name, secret_code, created_at, expiry_time, active, total_students)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, s.SessionID, s.Date, s.SubjectCode, s.SubjectName, s.SecretCode, s.CreatedAt, s.ExpiryTime, s.Active, s.TotalStudents)
	return err
}

// Get returns a session by id, or nil when absent.
func (r *Repository) Get(ctx context.Context, sessionID string) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT session_id, date, subject_code, subject_name, secret_code, created_at, expiry_time, active, total_students
		FROM sessions WHERE session_id = $1
	`, sessionID)
	return scanSession(row)
}

// Expire deactivates a session. Expiring an already-expired session is a
// no-op, not an error.
func (r *Repository) Expire(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET active = FALSE WHERE session_id = $1
	`, sessionID)
	return err
}

// FindActiveForSubjectDate returns the newest still-active session for a
// (date, subjectCode) pair, or nil when none exists. Callers treat nil as
// "create a new session"; absence never blocks creation.
func (r *Repository) FindActiveForSubjectDate(ctx context.Context, date, subjectCode string, now time.Time) (*Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT session_id, date, subject_code, subject_name, secret_code, created_at, expiry_time, active, total_students
		FROM sessions
		WHERE date = $1 AND subject_code = $2 AND active = TRUE AND expiry_time > $3
		ORDER BY created_at DESC
		LIMIT 1
	`, date, subjectCode, now)
	return scanSession(row)
}

// ListAll returns every session, newest date first. Used by the history scan.
func (r *Repository) ListAll(ctx context.Context) ([]Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, date, subject_code, subject_name, secret_code, created_at, expiry_time, active, total_students
		FROM sessions
		ORDER BY date DESC, created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.SessionID, &s.Date, &s.SubjectCode, &s.SubjectName, &s.SecretCode, &s.CreatedAt, &s.ExpiryTime, &s.Active, &s.TotalStudents); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// ExpireStale flips active sessions whose expiry time has passed. Returns the
// number of sessions touched. Run periodically by the worker.
func (r *Repository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE sessions SET active = FALSE WHERE active = TRUE AND expiry_time < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSession(row *sql.Row) (*Session, error) {
	var s Session
	err := row.Scan(&s.SessionID, &s.Date, &s.SubjectCode, &s.SubjectName, &s.SecretCode, &s.CreatedAt, &s.ExpiryTime, &s.Active, &s.TotalStudents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
