// Package report builds export-facing attendance rows. Rendering to
// spreadsheets or PDF happens elsewhere; this package only guarantees the
// stable field names downstream consumers rely on.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"rollcall/internal/attendance"
	"rollcall/internal/roster"
)

// Record is one row of a session export: the full roster annotated with
// derived roll numbers and check-in status.
type Record struct {
	RollNumber  int    `json:"roll_number"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Father      string `json:"father"`
	Status      string `json:"status"`
	CheckInTime string `json:"checkInTime,omitempty"`
}

// SessionInfo labels an export.
type SessionInfo struct {
	Date        string
	SubjectName string
}

// BuildRecords joins the roster against a session's events in roll order.
// Every roster member appears exactly once; absence is derived.
func BuildRecords(ranking *roster.Ranking, students []roster.Student, events []attendance.Event) []Record {
	byStudent := make(map[string]*attendance.Event, len(events))
	for i := range events {
		byStudent[events[i].StudentID] = &events[i]
	}

	sorted := ranking.Sorted(students)
	records := make([]Record, 0, len(sorted))
	for i, s := range sorted {
		rec := Record{
			RollNumber: i + 1,
			ID:         s.ID,
			Name:       s.Name,
			Father:     s.Father,
			Status:     attendance.StatusAbsent,
		}
		if evt, ok := byStudent[s.ID]; ok {
			rec.Status = attendance.StatusPresent
			rec.CheckInTime = evt.Timestamp.Format(time.RFC3339)
		}
		records = append(records, rec)
	}
	return records
}

// WriteCSV renders records as CSV text with a title line and the documented
// column names.
func WriteCSV(w io.Writer, info SessionInfo, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{fmt.Sprintf("Attendance - %s - %s", info.SubjectName, info.Date)}); err != nil {
		return err
	}
	if err := cw.Write([]string{"rollNumber", "id", "name", "father", "status", "checkInTime"}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			fmt.Sprintf("%d", rec.RollNumber),
			rec.ID,
			rec.Name,
			rec.Father,
			rec.Status,
			rec.CheckInTime,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
