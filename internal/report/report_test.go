package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/attendance"
	"rollcall/internal/roster"
)

func TestBuildRecords(t *testing.T) {
	students := []roster.Student{
		{ID: "C", Name: "Cid", Father: "Carl"},
		{ID: "A", Name: "Amy", Father: "Alan"},
		{ID: "B", Name: "Bob", Father: "Bill"},
	}
	ts := time.Date(2026, 3, 2, 10, 15, 0, 0, time.UTC)
	events := []attendance.Event{{SessionID: "S", StudentID: "B", Timestamp: ts}}

	records := BuildRecords(roster.NewRanking(), students, events)
	require.Len(t, records, 3)

	assert.Equal(t, Record{RollNumber: 1, ID: "A", Name: "Amy", Father: "Alan", Status: "Absent"}, records[0])
	assert.Equal(t, 2, records[1].RollNumber)
	assert.Equal(t, "B", records[1].ID)
	assert.Equal(t, "Present", records[1].Status)
	assert.Equal(t, "2026-03-02T10:15:00Z", records[1].CheckInTime)
	assert.Equal(t, "Absent", records[2].Status)
}

func TestWriteCSV(t *testing.T) {
	records := []Record{
		{RollNumber: 1, ID: "A", Name: "Amy", Father: "Alan", Status: "Present", CheckInTime: "2026-03-02T10:15:00Z"},
		{RollNumber: 2, ID: "B", Name: "Bob", Father: "Bill", Status: "Absent"},
	}

	var buf bytes.Buffer
	err := WriteCSV(&buf, SessionInfo{Date: "2026-03-02", SubjectName: "Physics"}, records)
	require.NoError(t, err)

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Contains(t, rows[0][0], "Physics")
	assert.Equal(t, []string{"rollNumber", "id", "name", "father", "status", "checkInTime"}, rows[1])
	assert.Equal(t, []string{"1", "A", "Amy", "Alan", "Present", "2026-03-02T10:15:00Z"}, rows[2])
	assert.Equal(t, "Absent", rows[3][4])
}
