// Package attendance holds the append-only check-in event store and the
// aggregation logic that turns events plus the roster into rollups, history,
// and per-subject stats.
package attendance

import "time"

// Event is one accepted check-in. Immutable once written; at most one exists
// per (session, student) pair. The roll number is captured at write time for
// audit only — live roll numbers are always re-derived from the roster.
type Event struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	StudentID   string    `json:"student_id"`
	RollNumber  int       `json:"roll_number"`
	Name        string    `json:"name"`
	Father      string    `json:"father"`
	Timestamp   time.Time `json:"timestamp"`
	SubjectCode string    `json:"subject_code"`
	SubjectName string    `json:"subject_name"`
	Date        string    `json:"date"`
	Location    *string   `json:"location,omitempty"`
}
