// Package session models a time-boxed attendance window.
package session

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a session accepts check-ins after creation.
const DefaultTTL = 2 * time.Hour

const secretCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Session is one attendance window for a subject on a date. Once expired
// (past ExpiryTime or explicitly deactivated) it is terminal; there is no
// transition back to active.
type Session struct {
	SessionID     string    `json:"session_id"`
	Date          string    `json:"date"`
	SubjectCode   string    `json:"subject_code"`
	SubjectName   string    `json:"subject_name"`
	SecretCode    string    `json:"secret_code"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiryTime    time.Time `json:"expiry_time"`
	Active        bool      `json:"active"`
	TotalStudents int       `json:"total_students"`
}

// New creates an active session. The session id is a UUID (122 bits of
// entropy) and the secret code is normalized to upper case.
func New(date, subjectCode, subjectName, secretCode string, rosterSize int, now time.Time, ttl time.Duration) Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return Session{
		SessionID:     uuid.NewString(),
		Date:          date,
		SubjectCode:   subjectCode,
		SubjectName:   subjectName,
		SecretCode:    strings.ToUpper(strings.TrimSpace(secretCode)),
		CreatedAt:     now,
		ExpiryTime:    now.Add(ttl),
		Active:        true,
		TotalStudents: rosterSize,
	}
}

// IsExpired reports whether the session no longer accepts check-ins at the
// given instant. Pure function of the session and the clock.
func (s Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiryTime) || !s.Active
}

// GenerateSecretCode returns a random n-character code over A-Z0-9.
func GenerateSecretCode(n int) string {
	if n <= 0 {
		n = 6
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the process is in a bad state anyway
		panic(err)
	}
	for i, b := range buf {
		buf[i] = secretCodeAlphabet[int(b)%len(secretCodeAlphabet)]
	}
	return string(buf)
}
