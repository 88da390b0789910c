package checkin

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"rollcall/internal/attendance"
	"rollcall/internal/geofence"
	"rollcall/internal/roster"
	"rollcall/internal/session"
)

// SessionStore is the read side of the session store.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*session.Session, error)
}

// RosterSource yields the full roster, read fresh for every attempt so rank
// lookups are never stale.
type RosterSource interface {
	ListStudents(ctx context.Context) ([]roster.Student, error)
}

// EventStore is the append-only attendance event store. ConditionalInsert
// must be atomic with respect to the (session, student) key: it returns false
// when the pair already exists, and no duplicate can slip through between the
// existence check and the append.
type EventStore interface {
	Exists(ctx context.Context, sessionID, studentID string) (bool, error)
	ConditionalInsert(ctx context.Context, evt attendance.Event) (bool, error)
}

// Attempt is one raw check-in submission. Location carries the device reading
// when acquisition succeeded; a nil Location means the device never produced
// a verified coordinate.
type Attempt struct {
	SessionID  string
	RollNumber string
	Name       string
	SecretCode string
	Location   *geofence.Reading
}

// Result is the outcome of one attempt. Rejections are values, not errors:
// the validator returns a non-nil error only for store failures, so callers
// can tell "your input was rejected" from "the system failed, try again".
type Result struct {
	State   State
	Reason  Reason
	Message string
	Event   *attendance.Event
}

// Accepted reports whether the attempt committed an event.
func (r Result) Accepted() bool { return r.State == StateAccepted }

// Validator runs the ordered validation pipeline. Steps go cheapest and most
// generic first: existence and format checks precede the content-sensitive
// name and location checks, so a caller learns nothing about the roster
// before presenting the right code.
type Validator struct {
	sessions SessionStore
	roster   RosterSource
	events   EventStore
	ranking  *roster.Ranking

	refLat, refLng float64
	radiusMeters   float64

	now func() time.Time
}

// NewValidator wires the pipeline. The clock defaults to time.Now.
func NewValidator(sessions SessionStore, rosterSrc RosterSource, events EventStore, ranking *roster.Ranking, refLat, refLng, radiusMeters float64) *Validator {
	return &Validator{
		sessions:     sessions,
		roster:       rosterSrc,
		events:       events,
		ranking:      ranking,
		refLat:       refLat,
		refLng:       refLng,
		radiusMeters: radiusMeters,
		now:          time.Now,
	}
}

// WithClock overrides the wall clock, for tests and expiry-race checks.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

func reject(reason Reason, message string) Result {
	if message == "" {
		message = reason.Message()
	}
	return Result{State: StateRejected, Reason: reason, Message: message}
}

// Submit runs one attempt through the full pipeline. The only mutation is the
// final conditional insert, so an abandoned or rejected attempt leaves no
// partial state behind.
func (v *Validator) Submit(ctx context.Context, attempt Attempt) (Result, error) {
	state := StateReceived

	// 1. structural check, before any I/O
	if attempt.SessionID == "" || attempt.RollNumber == "" ||
		strings.TrimSpace(attempt.Name) == "" || attempt.SecretCode == "" {
		return reject(ReasonMissingFields, ""), nil
	}

	// 2. session lookup
	sess, err := v.sessions.Get(ctx, attempt.SessionID)
	if err != nil {
		return Result{State: state}, err
	}
	if sess == nil {
		return reject(ReasonSessionNotFound, ""), nil
	}

	// 3. expiry check against the validator's clock, not the caller's
	if sess.IsExpired(v.now()) {
		return reject(ReasonSessionExpired, ""), nil
	}

	// 4. secret code, case-insensitive (stored code is upper-cased)
	if strings.ToUpper(strings.TrimSpace(attempt.SecretCode)) != sess.SecretCode {
		return reject(ReasonInvalidCode, ""), nil
	}
	state = StateCodeChecked

	students, err := v.roster.ListStudents(ctx)
	if err != nil {
		return Result{State: state}, err
	}

	// 5. roll number format and range
	if !roster.IsValidRollNumber(attempt.RollNumber, len(students)) {
		return reject(ReasonInvalidRollNumber, ""), nil
	}
	rollNumber, _ := strconv.Atoi(attempt.RollNumber)

	// 6. identity resolution by rank
	student, ok := v.ranking.StudentAtRoll(rollNumber, students)
	if !ok {
		return reject(ReasonStudentNotFound, ""), nil
	}
	state = StateIdentityResolved

	// 7. name match, echoing the expected name to aid correction
	if !strings.EqualFold(strings.TrimSpace(attempt.Name), strings.TrimSpace(student.Name)) {
		msg := fmt.Sprintf("Name does not match roll number %d (expected %q)", rollNumber, student.Name)
		return reject(ReasonNameMismatch, msg), nil
	}
	state = StateNameMatched

	// 8. location, re-checked at the trust boundary even though the client
	// gates submission on it
	if attempt.Location == nil {
		return reject(ReasonLocationRejected, "Location not provided"), nil
	}
	verdict := geofence.Verify(attempt.Location.Latitude, attempt.Location.Longitude, v.refLat, v.refLng, v.radiusMeters)
	if !verdict.Accepted {
		msg := fmt.Sprintf("You're %.0fm from campus (must be within %.0fm)", verdict.Distance, v.radiusMeters)
		return reject(ReasonLocationRejected, msg), nil
	}
	state = StateLocationVerified

	// 9. duplicate pre-check; cheap rejection for the common resubmit case
	exists, err := v.events.Exists(ctx, sess.SessionID, student.ID)
	if err != nil {
		return Result{State: state}, err
	}
	if exists {
		return reject(ReasonAlreadyMarked, ""), nil
	}
	state = StateDuplicateChecked

	// 10. commit; the conditional insert is what actually enforces
	// at-most-once under concurrent submission
	location := fmt.Sprintf("%.6f,%.6f", attempt.Location.Latitude, attempt.Location.Longitude)
	evt := attendance.Event{
		SessionID:   sess.SessionID,
		StudentID:   student.ID,
		RollNumber:  rollNumber,
		Name:        student.Name,
		Father:      student.Father,
		Timestamp:   v.now().UTC(),
		SubjectCode: sess.SubjectCode,
		SubjectName: sess.SubjectName,
		Date:        sess.Date,
		Location:    &location,
	}
	inserted, err := v.events.ConditionalInsert(ctx, evt)
	if err != nil {
		return Result{State: state}, err
	}
	if !inserted {
		return reject(ReasonAlreadyMarked, ""), nil
	}

	return Result{State: StateAccepted, Message: "Attendance marked successfully", Event: &evt}, nil
}
