package attendance

import (
	"math"
	"regexp"
	"strings"
	"time"

	"rollcall/internal/session"
)

// Rollup is the present/absent summary for one session.
type Rollup struct {
	Total      int `json:"total"`
	Present    int `json:"present"`
	Absent     int `json:"absent"`
	Percentage int `json:"percentage"`
}

// HistoryEntry is one session in a student's attendance history. Absence is a
// derived fact: a session with no event for the student is Absent.
type HistoryEntry struct {
	SessionID string     `json:"session_id"`
	Date      string     `json:"date"`
	Subject   string     `json:"subject"`
	Status    string     `json:"status"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// SubjectStats aggregates one subject in a student's history.
type SubjectStats struct {
	Present    int `json:"present"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

// courseCodePrefix matches prefixes like "CEL1020 - " or "MTL1001-".
var courseCodePrefix = regexp.MustCompile(`(?i)^[A-Z]{2,4}\d{4}\s*-\s*`)

// ComputeRollup summarizes a session: present is the event count (the
// validator guarantees one event per student), absent is the rest of the
// roster. A zero-size roster yields 0%, never a division by zero.
func ComputeRollup(rosterSize, presentCount int) Rollup {
	absent := rosterSize - presentCount
	if absent < 0 {
		absent = 0
	}
	return Rollup{
		Total:      rosterSize,
		Present:    presentCount,
		Absent:     absent,
		Percentage: percentage(presentCount, rosterSize),
	}
}

// PerStudentHistory walks every historical session, regardless of subject,
// and derives Present/Absent for the student from the event set. Sessions are
// reported in the order given (callers pass them newest first).
func PerStudentHistory(studentID string, sessions []session.Session, events []Event) []HistoryEntry {
	bySession := make(map[string]*Event, len(events))
	for i := range events {
		if events[i].StudentID == studentID {
			bySession[events[i].SessionID] = &events[i]
		}
	}

	history := make([]HistoryEntry, 0, len(sessions))
	for _, s := range sessions {
		entry := HistoryEntry{
			SessionID: s.SessionID,
			Date:      s.Date,
			Subject:   s.SubjectName,
			Status:    StatusAbsent,
		}
		if entry.Subject == "" {
			entry.Subject = s.SubjectCode
		}
		if evt, ok := bySession[s.SessionID]; ok {
			entry.Status = StatusPresent
			ts := evt.Timestamp
			entry.Timestamp = &ts
		}
		history = append(history, entry)
	}
	return history
}

// PerSubjectStats groups a history by normalized subject name and computes
// per-subject percentages with the same zero guard as ComputeRollup.
func PerSubjectStats(history []HistoryEntry) map[string]SubjectStats {
	stats := make(map[string]SubjectStats)
	for _, entry := range history {
		name := NormalizeSubjectName(entry.Subject)
		st := stats[name]
		st.Total++
		if entry.Status == StatusPresent {
			st.Present++
		}
		stats[name] = st
	}
	for name, st := range stats {
		st.Percentage = percentage(st.Present, st.Total)
		stats[name] = st
	}
	return stats
}

// OverallStats folds a history into a single rollup across subjects.
func OverallStats(history []HistoryEntry) Rollup {
	present := 0
	for _, entry := range history {
		if entry.Status == StatusPresent {
			present++
		}
	}
	return ComputeRollup(len(history), present)
}

// NormalizeSubjectName strips a leading course-code prefix ("CEL1020 - ")
// from a subject string. Empty input maps to "General".
func NormalizeSubjectName(subject string) string {
	if subject == "" {
		return "General"
	}
	clean := strings.TrimSpace(courseCodePrefix.ReplaceAllString(subject, ""))
	if clean == "" {
		return subject
	}
	return clean
}

func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}
