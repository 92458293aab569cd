package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/testutil"
)

func at(day int, hh, mm int) time.Time {
	return time.Date(2025, 6, day, hh, mm, 0, 0, time.UTC)
}

// seedJune tracks five sessions at 100/h around the window boundaries of
// Wednesday 2025-06-18. Weeks start on Monday 06-16.
func seedJune(t *testing.T, e *testEnv) {
	t.Helper()
	task := e.seedTask(t, "u1", testutil.NewTestCategory("Consulting", testutil.WithRate("100")))
	// Ends exactly at the start of June.
	e.track(t, "u1", task.ID, time.Date(2025, 5, 31, 23, 0, 0, 0, time.UTC), at(1, 0, 0))
	// Sunday before the week.
	e.track(t, "u1", task.ID, at(15, 23, 0), at(15, 23, 30))
	// Starts exactly at the week boundary.
	e.track(t, "u1", task.ID, at(16, 0, 0), at(16, 0, 6))
	// Crosses midnight into today.
	e.track(t, "u1", task.ID, at(17, 23, 50), at(18, 0, 10))
	e.track(t, "u1", task.ID, at(18, 8, 0), at(18, 8, 18))
}

func TestGetSummary_WindowBoundaries(t *testing.T) {
	e := newTestEnv(t)
	seedJune(t, e)
	e.clock.Set(at(18, 12, 0))

	s, err := e.analytics.GetSummary(context.Background(), app.NewSummaryRequest("u1"))
	require.NoError(t, err)

	assert.Equal(t, at(18, 0, 0), s.Today.Start)
	assert.Equal(t, "63.33", s.Today.Earnings.String())
	assert.Equal(t, int64(2280), s.Today.Seconds)
	assert.Equal(t, 2, s.Today.Sessions)

	assert.Equal(t, at(16, 0, 0), s.Week.Start)
	assert.Equal(t, at(23, 0, 0), s.Week.End)
	assert.Equal(t, "73.33", s.Week.Earnings.String())
	assert.Equal(t, int64(2640), s.Week.Seconds)
	assert.Equal(t, 3, s.Week.Sessions)

	assert.Equal(t, at(1, 0, 0), s.Month.Start)
	assert.Equal(t, "223.33", s.Month.Earnings.String())
	assert.Equal(t, int64(8040), s.Month.Seconds)
	assert.Equal(t, 5, s.Month.Sessions)

	assert.Equal(t, "223.33", s.Lifetime.Earnings.String())
	assert.Equal(t, int64(8040), s.Lifetime.Seconds)
	assert.Equal(t, 5, s.Lifetime.Sessions)
	assert.Equal(t, "100.00", s.AverageHourlyRate.String())

	assert.Equal(t, 1, s.CurrentStreakDays, "gap after 06-16 reset the streak")
	assert.Equal(t, 2, s.BestStreakDays)
	require.NotNil(t, s.LastEarningDate)
	assert.Equal(t, "2025-06-18", s.LastEarningDate.Format(domain.DateLayout))
}

func TestGetSummary_WeekStartIsConfigurable(t *testing.T) {
	e := newTestEnv(t, WithWeekStart(time.Sunday))
	seedJune(t, e)
	e.clock.Set(at(18, 12, 0))

	s, err := e.analytics.GetSummary(context.Background(), app.NewSummaryRequest("u1"))
	require.NoError(t, err)
	assert.Equal(t, at(15, 0, 0), s.Week.Start)
	assert.Equal(t, "123.33", s.Week.Earnings.String(), "Sunday session now counts")
	assert.Equal(t, 4, s.Week.Sessions)
}

func TestGetSummary_CallerLocationShiftsDay(t *testing.T) {
	e := newTestEnv(t)
	task := e.seedTask(t, "u1", testutil.NewTestCategory("Consulting", testutil.WithRate("60")))
	// 03:00 UTC is 22:00 the previous evening at UTC-5.
	e.track(t, "u1", task.ID, at(18, 2, 0), at(18, 3, 0))

	utcNow := at(18, 12, 0)
	s, err := e.analytics.GetSummary(context.Background(), app.SummaryRequest{UserID: "u1", Now: &utcNow})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Today.Sessions)

	est := time.FixedZone("UTC-5", -5*3600)
	local := utcNow.In(est)
	s, err = e.analytics.GetSummary(context.Background(), app.SummaryRequest{UserID: "u1", Now: &local})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Today.Sessions)
	assert.Equal(t, time.Date(2025, 6, 18, 0, 0, 0, 0, est), s.Today.Start)
	assert.Equal(t, 1, s.Month.Sessions)
}

func TestGetSummary_LifetimeMatchesSessionRows(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	paid := e.seedTask(t, "u1", testutil.NewTestCategory("Paid", testutil.WithRate("37.77")))
	free := e.seedTask(t, "u1", nil)

	start := testutil.Epoch
	for i := 0; i < 6; i++ {
		task := paid
		if i%3 == 2 {
			task = free
		}
		end := start.Add(time.Duration(7*i+13) * time.Minute)
		e.track(t, "u1", task.ID, start, end)
		start = end.Add(40 * 24 * time.Hour)
	}

	s, err := e.analytics.GetSummary(ctx, app.NewSummaryRequest("u1"))
	require.NoError(t, err)

	var rows []*domain.Session
	for _, r := range allSessions(t, e.db) {
		if r.UserID == "u1" && !r.IsActive {
			rows = append(rows, r)
		}
	}
	var sum domain.Money
	var secs int64
	for _, r := range rows {
		if r.EarningsUSD != nil {
			sum += *r.EarningsUSD
		}
		secs += r.EndedAt.Sub(r.StartedAt).Milliseconds() / 1000
	}
	assert.Equal(t, sum, s.Lifetime.Earnings)
	assert.Equal(t, secs, s.Lifetime.Seconds)
	assert.Equal(t, len(rows), s.Lifetime.Sessions)
	assert.Equal(t, sum, s.CurrentBalance)
	requireConsistent(t, e.db)
}

func TestGetSummary_ActiveSessionExcludedFromTotals(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	task := e.seedTask(t, "u1", testutil.NewTestCategory("Consulting", testutil.WithRate("150")))

	e.track(t, "u1", task.ID, testutil.Epoch, testutil.Epoch.Add(30*time.Minute))
	e.clock.Set(testutil.Epoch.Add(time.Hour))
	start, err := e.sessions.StartSession(ctx, "u1", task.ID, "")
	require.NoError(t, err)
	e.clock.Advance(time.Hour)

	s, err := e.analytics.GetSummary(ctx, app.NewSummaryRequest("u1"))
	require.NoError(t, err)
	assert.Equal(t, "75.00", s.Today.Earnings.String())
	assert.Equal(t, 1, s.Lifetime.Sessions)
	assert.Equal(t, start.Session.ID, s.ActiveSessionID)
	assert.Equal(t, task.ID, s.ActiveTaskID)
	require.NotNil(t, s.ActiveStartedAt)
	assert.True(t, s.ActiveStartedAt.Equal(start.Session.StartedAt))
}

func TestGetSummary_StreakLapsesAfterMissedDay(t *testing.T) {
	e := newTestEnv(t)
	seedJune(t, e)

	e.clock.Set(at(19, 23, 0))
	s, err := e.analytics.GetSummary(context.Background(), app.NewSummaryRequest("u1"))
	require.NoError(t, err)
	assert.Equal(t, 1, s.CurrentStreakDays, "yesterday still counts")

	e.clock.Set(at(20, 0, 0))
	s, err = e.analytics.GetSummary(context.Background(), app.NewSummaryRequest("u1"))
	require.NoError(t, err)
	assert.Equal(t, 0, s.CurrentStreakDays)
	assert.Equal(t, 2, s.BestStreakDays)
}

func TestGetSummary_ProgressTowardTarget(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	seedJune(t, e)

	_, err := e.sessions.SetTarget(ctx, "u1", domain.MustParseMoney("500"))
	require.NoError(t, err)
	s, err := e.analytics.GetSummary(ctx, app.NewSummaryRequest("u1"))
	require.NoError(t, err)
	assert.Equal(t, "223.33", s.CurrentBalance.String())
	assert.InDelta(t, 44.67, s.ProgressPercentage, 0.001)

	_, err = e.sessions.SetTarget(ctx, "u1", domain.MustParseMoney("100"))
	require.NoError(t, err)
	s, err = e.analytics.GetSummary(ctx, app.NewSummaryRequest("u1"))
	require.NoError(t, err)
	assert.InDelta(t, 100.0, s.ProgressPercentage, 0.001, "capped")
}

func TestGetSummary_EmptyAccount(t *testing.T) {
	e := newTestEnv(t)
	s, err := e.analytics.GetSummary(context.Background(), app.NewSummaryRequest("nobody"))
	require.NoError(t, err)
	assert.True(t, s.Lifetime.Earnings.IsZero())
	assert.True(t, s.AverageHourlyRate.IsZero())
	assert.Zero(t, s.ProgressPercentage)
	assert.Zero(t, s.CurrentStreakDays)
	assert.Empty(t, s.ActiveSessionID)
}

func TestGetSummary_Validation(t *testing.T) {
	e := newTestEnv(t)
	_, err := e.analytics.GetSummary(context.Background(), app.SummaryRequest{})
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = e.analytics.GetSummary(context.Background(), app.SummaryRequest{UserID: "u1", Window: "year"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGetWindow(t *testing.T) {
	e := newTestEnv(t)
	seedJune(t, e)
	e.clock.Set(at(18, 12, 0))

	w, err := e.analytics.GetWindow(context.Background(), "u1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.WindowToday, w.Window)
	assert.Equal(t, "63.33", w.Earnings.String())

	w, err = e.analytics.GetWindow(context.Background(), "u1", domain.WindowLifetime, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, w.Sessions)
	assert.InDelta(t, 8040.0/3600, w.Hours(), 1e-9)
}
