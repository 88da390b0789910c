package store

import (
	"context"
	"database/sql"
)

// Schema notes: attendance_events carries a real unique constraint on
// (session_id, student_id). The validator pre-checks for duplicates, but the
// constraint plus ON CONFLICT DO NOTHING is what makes the at-most-once rule
// hold under concurrent submission.
const schema = `
CREATE TABLE IF NOT EXISTS students (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	father      TEXT NOT NULL DEFAULT '',
	class_group TEXT NOT NULL DEFAULT 'G1',
	lab_group   TEXT NOT NULL DEFAULT 'G1',
	source      TEXT NOT NULL DEFAULT 'manual',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sessions (
	session_id     TEXT PRIMARY KEY,
	date           TEXT NOT NULL,
	subject_code   TEXT NOT NULL,
	subject_name   TEXT NOT NULL,
	secret_code    TEXT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	expiry_time    TIMESTAMPTZ NOT NULL,
	active         BOOLEAN NOT NULL DEFAULT TRUE,
	total_students INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_sessions_date_subject ON sessions(date, subject_code) WHERE active;

CREATE TABLE IF NOT EXISTS attendance_events (
	id           UUID PRIMARY KEY,
	session_id   TEXT NOT NULL REFERENCES sessions(session_id),
	student_id   TEXT NOT NULL,
	roll_number  INTEGER NOT NULL,
	name         TEXT NOT NULL,
	father       TEXT NOT NULL DEFAULT '',
	occurred_at  TIMESTAMPTZ NOT NULL,
	subject_code TEXT NOT NULL,
	subject_name TEXT NOT NULL,
	date         TEXT NOT NULL,
	location     TEXT,
	CONSTRAINT attendance_once_per_session UNIQUE (session_id, student_id)
);

CREATE INDEX IF NOT EXISTS idx_events_session ON attendance_events(session_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_events_student ON attendance_events(student_id);
`

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
