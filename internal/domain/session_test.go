package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionClose_SetsEndAndDeactivates(t *testing.T) {
	s := &Session{ID: "s1", StartedAt: testNow, IsActive: true, HourlyRate: MoneyPtr(Cents(15000))}
	end := testNow.Add(30 * time.Minute)
	earned := Cents(7500)

	require.NoError(t, s.Close(end, &earned))
	assert.False(t, s.IsActive)
	require.NotNil(t, s.EndedAt)
	assert.Equal(t, end, *s.EndedAt)
	assert.NoError(t, s.CheckInvariants())
}

func TestSessionClose_AlreadyEndedIsConflict(t *testing.T) {
	end := testNow.Add(time.Minute)
	s := &Session{ID: "s1", StartedAt: testNow, EndedAt: &end}

	err := s.Close(testNow.Add(time.Hour), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, end, *s.EndedAt, "ended_at must not move")
}

func TestSessionClose_ResumesOpenPause(t *testing.T) {
	s := &Session{ID: "s1", StartedAt: testNow, IsActive: true}
	s.Pauses = []Pause{{ID: "p1", SessionID: "s1", PausedAt: testNow.Add(10 * time.Minute)}}
	require.True(t, s.IsPaused())

	end := testNow.Add(20 * time.Minute)
	require.NoError(t, s.Close(end, nil))
	require.NotNil(t, s.Pauses[0].ResumedAt)
	assert.Equal(t, end, *s.Pauses[0].ResumedAt)
	assert.False(t, s.IsPaused())
	assert.NoError(t, s.CheckInvariants())
}

func TestSessionClose_ClipsPausesToEnd(t *testing.T) {
	resumed := testNow.Add(4 * time.Hour)
	s := &Session{ID: "s1", StartedAt: testNow, IsActive: true}
	s.Pauses = []Pause{
		{ID: "p1", SessionID: "s1", PausedAt: testNow.Add(30 * time.Minute), ResumedAt: &resumed},
		{ID: "p2", SessionID: "s1", PausedAt: testNow.Add(5 * time.Hour)},
	}

	end := testNow.Add(time.Hour)
	require.NoError(t, s.Close(end, nil))

	assert.Equal(t, testNow.Add(30*time.Minute), s.Pauses[0].PausedAt)
	assert.Equal(t, end, *s.Pauses[0].ResumedAt)
	assert.Equal(t, end, s.Pauses[1].PausedAt)
	assert.Equal(t, end, *s.Pauses[1].ResumedAt)
	assert.Equal(t, testNow.Add(4*time.Hour), resumed, "caller's timestamp is not mutated")
	assert.NoError(t, s.CheckInvariants())
}

func TestSessionClose_ClampsToStart(t *testing.T) {
	s := &Session{ID: "s1", StartedAt: testNow, IsActive: true}
	require.NoError(t, s.Close(testNow.Add(-time.Second), nil))
	assert.Equal(t, testNow, *s.EndedAt)
}

func TestCheckInvariants_Violations(t *testing.T) {
	end := testNow.Add(time.Hour)
	later := end.Add(time.Hour)
	earned := Cents(100)

	cases := map[string]*Session{
		"active with end":       {ID: "a", StartedAt: testNow, EndedAt: &end, IsActive: true},
		"inactive without end":  {ID: "b", StartedAt: testNow},
		"end before start":      {ID: "c", StartedAt: end, EndedAt: &testNow},
		"earnings without rate": {ID: "d", StartedAt: testNow, EndedAt: &end, EarningsUSD: &earned},
		"rate without earnings": {ID: "e", StartedAt: testNow, EndedAt: &end, HourlyRate: MoneyPtr(Cents(100))},
		"pause after end": {ID: "f", StartedAt: testNow, EndedAt: &end, Pauses: []Pause{
			{ID: "p", PausedAt: end.Add(time.Minute), ResumedAt: &later},
		}},
		"pause resumed after end": {ID: "g", StartedAt: testNow, EndedAt: &end, Pauses: []Pause{
			{ID: "p", PausedAt: testNow, ResumedAt: &later},
		}},
	}
	for name, s := range cases {
		assert.Error(t, s.CheckInvariants(), name)
	}
}

func TestErrorKinds(t *testing.T) {
	err := NotFoundError("start session", "task %s not found", "t1")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "start session: task t1 not found", err.Error())
	assert.Equal(t, KindNotFound, KindOf(err))

	wrapped := errors.Join(errors.New("outer"), AuthorizationError("end session", "nope"))
	assert.Equal(t, KindAuthorization, KindOf(wrapped))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
