package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSession(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := New("2026-03-02", "MTL1001", "Mathematics I", "xy12ab", 62, now, 0)

	assert.NotEmpty(t, s.SessionID)
	assert.Equal(t, "XY12AB", s.SecretCode)
	assert.Equal(t, now.Add(2*time.Hour), s.ExpiryTime)
	assert.True(t, s.Active)
	assert.Equal(t, 62, s.TotalStudents)
}

func TestSessionIDsAreUnique(t *testing.T) {
	now := time.Now()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := New("2026-03-02", "MTL1001", "Mathematics I", "AB", 1, now, time.Hour)
		assert.False(t, seen[s.SessionID])
		seen[s.SessionID] = true
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := New("2026-03-02", "PHL1083", "Physics", "CODE", 10, now, 2*time.Hour)

	assert.False(t, s.IsExpired(now))
	assert.False(t, s.IsExpired(s.ExpiryTime))
	assert.True(t, s.IsExpired(s.ExpiryTime.Add(time.Millisecond)))
}

func TestIsExpiredWhenDeactivated(t *testing.T) {
	now := time.Now()
	s := New("2026-03-02", "PHL1083", "Physics", "CODE", 10, now, 2*time.Hour)
	s.Active = false

	assert.True(t, s.IsExpired(now))
}

func TestGenerateSecretCode(t *testing.T) {
	code := GenerateSecretCode(6)
	assert.Len(t, code, 6)
	for _, c := range code {
		assert.True(t, strings.ContainsRune(secretCodeAlphabet, c))
	}

	// default length kicks in for nonsense input
	assert.Len(t, GenerateSecretCode(0), 6)

	// codes should differ between calls
	assert.NotEqual(t, code, GenerateSecretCode(6))
}
