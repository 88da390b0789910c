package roster

import (
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Ranking derives roll numbers by rank: the roster sorted by name
// (case-insensitive, locale-aware, stable) gives every student a 1-based
// position. Nothing is persisted; edits to the roster renumber everyone at or
// after the change point, which is accepted behavior.
//
// Some ids can be pinned last: they rank after all unpinned students
// regardless of name, keeping their relative order. This exists because one
// roster entry must always carry the highest roll number.
type Ranking struct {
	pinnedLast map[string]struct{}
}

// NewRanking creates a ranking engine with the given pinned-last ids.
func NewRanking(pinnedLastIDs ...string) *Ranking {
	pinned := make(map[string]struct{}, len(pinnedLastIDs))
	for _, id := range pinnedLastIDs {
		if id != "" {
			pinned[id] = struct{}{}
		}
	}
	return &Ranking{pinnedLast: pinned}
}

// Sorted returns a copy of the roster in roll-number order. Lookups re-sort on
// every call so a changed roster can never serve stale ranks; callers doing
// repeated lookups should build a Table once instead.
func (r *Ranking) Sorted(roster []Student) []Student {
	sorted := make([]Student, len(roster))
	copy(sorted, roster)

	coll := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(sorted, func(i, j int) bool {
		_, iPinned := r.pinnedLast[sorted[i].ID]
		_, jPinned := r.pinnedLast[sorted[j].ID]
		if iPinned != jPinned {
			return jPinned
		}
		if iPinned {
			// pinned entries keep their original relative order
			return false
		}
		return coll.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})
	return sorted
}

// RollNumberOf returns the 1-based roll number for a student id, or false when
// the id is not on the roster.
func (r *Ranking) RollNumberOf(studentID string, roster []Student) (int, bool) {
	for i, s := range r.Sorted(roster) {
		if s.ID == studentID {
			return i + 1, true
		}
	}
	return 0, false
}

// StudentAtRoll returns the student holding a roll number, or false when the
// roll number is outside [1, len(roster)].
func (r *Ranking) StudentAtRoll(rollNumber int, roster []Student) (*Student, bool) {
	if rollNumber < 1 || rollNumber > len(roster) {
		return nil, false
	}
	s := r.Sorted(roster)[rollNumber-1]
	return &s, true
}

// Table builds a rank -> student map with a single sort, for callers that need
// many lookups against one roster snapshot.
func (r *Ranking) Table(roster []Student) map[int]Student {
	table := make(map[int]Student, len(roster))
	for i, s := range r.Sorted(roster) {
		table[i+1] = s
	}
	return table
}

// IsValidRollNumber reports whether raw parses as an integer in
// [1, rosterSize]. Non-numeric, fractional, zero, negative, and out-of-range
// input is rejected.
func IsValidRollNumber(raw string, rosterSize int) bool {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return false
	}
	return n >= 1 && n <= rosterSize
}
