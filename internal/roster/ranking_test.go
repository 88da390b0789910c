package roster

import (
	"fmt"
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRoster() []Student {
	return []Student{
		{ID: "C", Name: "Cid"},
		{ID: "A", Name: "Amy"},
		{ID: "B", Name: "Bob"},
	}
}

func TestRollNumberOf(t *testing.T) {
	r := NewRanking()
	roster := sampleRoster()

	n, ok := r.RollNumberOf("B", roster)
	require.True(t, ok)
	assert.Equal(t, 2, n)

	s, ok := r.StudentAtRoll(2, roster)
	require.True(t, ok)
	assert.Equal(t, "B", s.ID)

	_, ok = r.RollNumberOf("missing", roster)
	assert.False(t, ok)
}

func TestRollNumberRoundTrip(t *testing.T) {
	r := NewRanking()
	roster := sampleRoster()

	for _, s := range roster {
		n, ok := r.RollNumberOf(s.ID, roster)
		require.True(t, ok)
		got, ok := r.StudentAtRoll(n, roster)
		require.True(t, ok)
		assert.Equal(t, s.ID, got.ID)
	}
}

func TestRollNumbersAreContiguous(t *testing.T) {
	r := NewRanking("P")
	roster := []Student{
		{ID: "1", Name: "zoe"},
		{ID: "2", Name: "Zoe"}, // case-insensitive tie, stable order
		{ID: "P", Name: "Aaron"},
		{ID: "3", Name: "mike"},
		{ID: "4", Name: "Mike"},
	}

	var rolls []int
	for _, s := range roster {
		n, ok := r.RollNumberOf(s.ID, roster)
		require.True(t, ok)
		rolls = append(rolls, n)
	}
	sort.Ints(rolls)
	for i, n := range rolls {
		assert.Equal(t, i+1, n, "rolls must be 1..len with no gaps")
	}
}

func TestCaseInsensitiveSortWithStableTies(t *testing.T) {
	r := NewRanking()
	roster := []Student{
		{ID: "x", Name: "bob"},
		{ID: "y", Name: "Bob"},
		{ID: "z", Name: "amy"},
	}

	sorted := r.Sorted(roster)
	assert.Equal(t, "z", sorted[0].ID)
	// equal names keep original relative order
	assert.Equal(t, "x", sorted[1].ID)
	assert.Equal(t, "y", sorted[2].ID)
}

func TestPinnedLastAlwaysRanksLast(t *testing.T) {
	r := NewRanking("17032400065")
	roster := []Student{
		{ID: "17032400065", Name: "Aaaa First Alphabetically"},
		{ID: "A", Name: "Amy"},
		{ID: "B", Name: "Bob"},
	}

	n, ok := r.RollNumberOf("17032400065", roster)
	require.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = r.RollNumberOf("A", roster)
	require.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestStudentAtRollBounds(t *testing.T) {
	r := NewRanking()
	roster := sampleRoster()

	for _, bad := range []int{0, -1, 4, 100} {
		_, ok := r.StudentAtRoll(bad, roster)
		assert.False(t, ok, "roll %d must be out of range", bad)
	}
}

func TestTableMatchesLookups(t *testing.T) {
	r := NewRanking()
	roster := sampleRoster()

	table := r.Table(roster)
	require.Len(t, table, len(roster))
	for roll, s := range table {
		n, ok := r.RollNumberOf(s.ID, roster)
		require.True(t, ok)
		assert.Equal(t, roll, n)
	}
}

func TestIsValidRollNumber(t *testing.T) {
	n := 5
	cases := []struct {
		raw  string
		want bool
	}{
		{"1", true},
		{strconv.Itoa(n), true},
		{"0", false},
		{"-1", false},
		{"1.5", false},
		{strconv.Itoa(n + 1), false},
		{"", false},
		{"abc", false},
		{"2abc", false},
		{" 2", false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.raw), func(t *testing.T) {
			assert.Equal(t, tc.want, IsValidRollNumber(tc.raw, n))
		})
	}
}
