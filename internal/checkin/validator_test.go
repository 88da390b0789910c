package checkin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/attendance"
	"rollcall/internal/geofence"
	"rollcall/internal/roster"
	"rollcall/internal/session"
)

const (
	campusLat = 31.634801
	campusLng = 74.824416
)

type fakeSessions struct {
	sessions map[string]session.Session
	err      error
}

func (f *fakeSessions) Get(ctx context.Context, id string) (*session.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

type fakeRoster struct{ students []roster.Student }

func (f *fakeRoster) ListStudents(ctx context.Context) ([]roster.Student, error) {
	return f.students, nil
}

// fakeEvents mimics the store's conditional insert with a mutex, so the
// concurrency test exercises the same at-most-once guarantee.
type fakeEvents struct {
	mu     sync.Mutex
	events map[string]attendance.Event
	err    error
}

func newFakeEvents() *fakeEvents {
	return &fakeEvents{events: make(map[string]attendance.Event)}
}

func key(sessionID, studentID string) string { return sessionID + "/" + studentID }

func (f *fakeEvents) Exists(ctx context.Context, sessionID, studentID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.events[key(sessionID, studentID)]
	return ok, nil
}

func (f *fakeEvents) ConditionalInsert(ctx context.Context, evt attendance.Event) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	k := key(evt.SessionID, evt.StudentID)
	if _, ok := f.events[k]; ok {
		return false, nil
	}
	f.events[k] = evt
	return true, nil
}

func testValidator(t *testing.T) (*Validator, *fakeSessions, *fakeEvents) {
	t.Helper()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	sess := session.New("2026-03-02", "MTL1001", "Mathematics I", "XY12", 3, now, 2*time.Hour)
	sess.SessionID = "S"

	sessions := &fakeSessions{sessions: map[string]session.Session{"S": sess}}
	students := &fakeRoster{students: []roster.Student{
		{ID: "A", Name: "Amy"},
		{ID: "B", Name: "Bob"},
		{ID: "C", Name: "Cid"},
	}}
	events := newFakeEvents()

	v := NewValidator(sessions, students, events, roster.NewRanking(), campusLat, campusLng, 200).
		WithClock(func() time.Time { return now.Add(time.Minute) })
	return v, sessions, events
}

func onCampus() *geofence.Reading {
	return &geofence.Reading{Latitude: campusLat, Longitude: campusLng}
}

func validAttempt() Attempt {
	return Attempt{
		SessionID:  "S",
		RollNumber: "2",
		Name:       "Bob",
		SecretCode: "xy12",
		Location:   onCampus(),
	}
}

func TestSubmitAccepted(t *testing.T) {
	v, _, events := testValidator(t)

	res, err := v.Submit(context.Background(), validAttempt())
	require.NoError(t, err)
	assert.True(t, res.Accepted())
	require.NotNil(t, res.Event)
	assert.Equal(t, "B", res.Event.StudentID)
	assert.Equal(t, 2, res.Event.RollNumber)
	assert.Equal(t, "Bob", res.Event.Name)
	assert.Len(t, events.events, 1)
}

func TestSubmitRejectionOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Attempt)
		reason Reason
	}{
		{"missing fields", func(a *Attempt) { a.SecretCode = "" }, ReasonMissingFields},
		{"session not found", func(a *Attempt) { a.SessionID = "nope" }, ReasonSessionNotFound},
		{"bad code", func(a *Attempt) { a.SecretCode = "WRONG" }, ReasonInvalidCode},
		{"roll format", func(a *Attempt) { a.RollNumber = "1.5" }, ReasonInvalidRollNumber},
		{"roll out of range", func(a *Attempt) { a.RollNumber = "4" }, ReasonInvalidRollNumber},
		{"name mismatch", func(a *Attempt) { a.Name = "Amy" }, ReasonNameMismatch},
		{"no location", func(a *Attempt) { a.Location = nil }, ReasonLocationRejected},
		{"off campus", func(a *Attempt) { a.Location = &geofence.Reading{Latitude: campusLat + 0.09, Longitude: campusLng} }, ReasonLocationRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, _, events := testValidator(t)
			attempt := validAttempt()
			tc.mutate(&attempt)

			res, err := v.Submit(context.Background(), attempt)
			require.NoError(t, err)
			assert.Equal(t, StateRejected, res.State)
			assert.Equal(t, tc.reason, res.Reason)
			assert.Empty(t, events.events, "rejection must not write")
		})
	}
}

func TestSubmitBadCodeBeforeRollCheck(t *testing.T) {
	// a wrong code must not reveal whether the roll number exists
	v, _, _ := testValidator(t)
	attempt := validAttempt()
	attempt.SecretCode = "WRONG"
	attempt.RollNumber = "999"

	res, err := v.Submit(context.Background(), attempt)
	require.NoError(t, err)
	assert.Equal(t, ReasonInvalidCode, res.Reason)
}

func TestSubmitExpiredSession(t *testing.T) {
	v, sessions, _ := testValidator(t)
	expiry := sessions.sessions["S"].ExpiryTime
	v.WithClock(func() time.Time { return expiry.Add(time.Millisecond) })

	res, err := v.Submit(context.Background(), validAttempt())
	require.NoError(t, err)
	assert.Equal(t, ReasonSessionExpired, res.Reason)
}

func TestSubmitDeactivatedSession(t *testing.T) {
	v, sessions, _ := testValidator(t)
	s := sessions.sessions["S"]
	s.Active = false
	sessions.sessions["S"] = s

	res, err := v.Submit(context.Background(), validAttempt())
	require.NoError(t, err)
	assert.Equal(t, ReasonSessionExpired, res.Reason)
}

func TestSubmitNameMismatchEchoesExpectedName(t *testing.T) {
	v, _, _ := testValidator(t)
	attempt := validAttempt()
	attempt.Name = "Robert"

	res, err := v.Submit(context.Background(), attempt)
	require.NoError(t, err)
	assert.Equal(t, ReasonNameMismatch, res.Reason)
	assert.Contains(t, res.Message, "Bob")
}

func TestSubmitNameMatchIsForgiving(t *testing.T) {
	v, _, _ := testValidator(t)
	attempt := validAttempt()
	attempt.Name = "  bOb  "

	res, err := v.Submit(context.Background(), attempt)
	require.NoError(t, err)
	assert.True(t, res.Accepted())
}

func TestSubmitResubmitAlreadyMarked(t *testing.T) {
	v, _, _ := testValidator(t)

	res, err := v.Submit(context.Background(), validAttempt())
	require.NoError(t, err)
	require.True(t, res.Accepted())

	res, err = v.Submit(context.Background(), validAttempt())
	require.NoError(t, err)
	assert.Equal(t, ReasonAlreadyMarked, res.Reason)
}

func TestSubmitConcurrentDuplicates(t *testing.T) {
	v, _, events := testValidator(t)

	const n = 8
	results := make(chan Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := v.Submit(context.Background(), validAttempt())
			assert.NoError(t, err)
			results <- res
		}()
	}
	wg.Wait()
	close(results)

	accepted, rejected := 0, 0
	for res := range results {
		if res.Accepted() {
			accepted++
		} else {
			assert.Equal(t, ReasonAlreadyMarked, res.Reason)
			rejected++
		}
	}
	assert.Equal(t, 1, accepted, "exactly one attempt may commit")
	assert.Equal(t, n-1, rejected)
	assert.Len(t, events.events, 1)
}

func TestSubmitStoreFailureIsAnErrorNotARejection(t *testing.T) {
	v, _, events := testValidator(t)
	events.err = errors.New("connection reset")

	res, err := v.Submit(context.Background(), validAttempt())
	assert.Error(t, err)
	assert.NotEqual(t, StateRejected, res.State)
	assert.NotEqual(t, StateAccepted, res.State)
}

func TestSubmitSessionStoreFailure(t *testing.T) {
	v, sessions, _ := testValidator(t)
	sessions.err = errors.New("timeout")

	_, err := v.Submit(context.Background(), validAttempt())
	assert.Error(t, err)
}
