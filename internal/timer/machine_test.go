package timer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/repository"
	"github.com/alexanderramin/earnclock/internal/service"
	"github.com/alexanderramin/earnclock/internal/testutil"
)

type fixture struct {
	clock    *testutil.FakeClock
	sessions service.SessionService
	paid     *domain.Task
	free     *domain.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	database := testutil.NewTestDB(t)
	clock := testutil.NewFakeClock(testutil.Epoch)

	cat := testutil.NewTestCategory("Consulting", testutil.WithRate("150"))
	require.NoError(t, repository.NewSQLiteCategoryRepo(database).Upsert(ctx, cat))
	paid := testutil.NewTestTask("u1", testutil.WithCategory(cat.ID))
	free := testutil.NewTestTask("u1")
	tasks := repository.NewSQLiteTaskRepo(database)
	require.NoError(t, tasks.Upsert(ctx, paid))
	require.NoError(t, tasks.Upsert(ctx, free))

	svc := service.NewSessionService(testutil.NewTestUoW(database),
		service.WithClock(clock), service.WithLocation(time.UTC))
	return &fixture{clock: clock, sessions: svc, paid: paid, free: free}
}

func TestMachine_StartTickStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := New(f.sessions, "u1", f.clock)
	assert.Equal(t, domain.TimerIdle, m.State())

	_, err := m.Start(ctx, f.paid.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TimerRunning, m.State())

	live := m.Tick(f.clock.Advance(1800 * time.Second))
	assert.Equal(t, int64(1800), live.ElapsedSeconds)
	assert.Equal(t, "75.00", live.Estimate.String())
	assert.False(t, live.RateMissing)

	res, err := m.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "75.00", res.EarningsUSD.String())
	assert.Equal(t, domain.TimerStopped, m.State())

	after := m.Tick(f.clock.Advance(time.Minute))
	assert.Zero(t, after.ElapsedSeconds, "estimate discarded on stop")
	require.NotNil(t, after.Confirmed)
	assert.Equal(t, res.SessionID, after.Confirmed.SessionID)

	m.Clear()
	assert.Equal(t, domain.TimerIdle, m.State())
	assert.Nil(t, m.Tick(f.clock.Now()).Confirmed)
}

func TestMachine_PauseFreezesEstimate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := New(f.sessions, "u1", f.clock)

	_, err := m.Start(ctx, f.paid.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)
	require.NoError(t, m.Pause(ctx))

	frozen := m.Tick(f.clock.Advance(time.Hour))
	assert.Equal(t, domain.TimerPaused, frozen.State)
	assert.Equal(t, int64(600), frozen.ElapsedSeconds)
	assert.Equal(t, "25.00", frozen.Estimate.String())

	require.NoError(t, m.Resume(ctx))
	live := m.Tick(f.clock.Advance(5 * time.Minute))
	assert.Equal(t, int64(900), live.ElapsedSeconds)

	res, err := m.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, live.ElapsedSeconds, res.DurationSeconds, "client and server agree")
	assert.Equal(t, live.Estimate, res.EarningsUSD)
}

func TestMachine_SwitchIsOneCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := New(f.sessions, "u1", f.clock)

	first, err := m.Start(ctx, f.paid.ID)
	require.NoError(t, err)
	f.clock.Advance(20 * time.Minute)

	second, err := m.Start(ctx, f.free.ID)
	require.NoError(t, err)
	require.NotNil(t, second.PriorClosed)
	assert.Equal(t, first.Session.ID, second.PriorClosed.SessionID)

	live := m.Tick(f.clock.Now())
	assert.Equal(t, f.free.ID, live.TaskID)
	assert.Zero(t, live.ElapsedSeconds)
	assert.True(t, live.RateMissing)
	require.NotNil(t, live.Confirmed, "prior session's confirmed totals are flushed")
	assert.Equal(t, "50.00", live.Confirmed.EarningsUSD.String())
}

func TestMachine_InvalidTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := New(f.sessions, "u1", f.clock)

	assert.ErrorIs(t, m.Pause(ctx), domain.ErrConflict)
	assert.ErrorIs(t, m.Resume(ctx), domain.ErrConflict)
	_, err := m.Stop(ctx)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = m.Start(ctx, f.paid.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, m.Resume(ctx), domain.ErrConflict)
	require.NoError(t, m.Pause(ctx))
	assert.ErrorIs(t, m.Pause(ctx), domain.ErrConflict)
}

func TestMachine_StopFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := New(f.sessions, "u1", f.clock)

	_, err := m.Start(ctx, f.paid.ID)
	require.NoError(t, err)

	// Another observer stops the session behind the machine's back.
	_, err = f.sessions.StopSession(ctx, app.StopRequest{UserID: "u1"})
	require.NoError(t, err)

	_, err = m.Stop(ctx)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.TimerRunning, m.State())

	require.NoError(t, m.Restore(ctx))
	assert.Equal(t, domain.TimerIdle, m.State())
}

func TestMachine_RestoreAfterReload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := New(f.sessions, "u1", f.clock)
	_, err := first.Start(ctx, f.paid.ID)
	require.NoError(t, err)
	f.clock.Advance(10 * time.Minute)
	require.NoError(t, first.Pause(ctx))
	f.clock.Advance(10 * time.Minute)
	require.NoError(t, first.Resume(ctx))
	f.clock.Advance(5 * time.Minute)

	reloaded := New(f.sessions, "u1", f.clock)
	require.NoError(t, reloaded.Restore(ctx))
	assert.Equal(t, domain.TimerRunning, reloaded.State())

	now := f.clock.Advance(time.Minute)
	assert.Equal(t, first.Tick(now).ElapsedSeconds, reloaded.Tick(now).ElapsedSeconds)
	assert.Equal(t, int64(16*60), reloaded.Tick(now).ElapsedSeconds)

	require.NoError(t, first.Pause(ctx))
	f.clock.Advance(time.Hour)
	require.NoError(t, reloaded.Restore(ctx))
	assert.Equal(t, domain.TimerPaused, reloaded.State())
	assert.Equal(t, int64(16*60), reloaded.Tick(f.clock.Now()).ElapsedSeconds)
}

func TestMachine_Run(t *testing.T) {
	f := newFixture(t)
	m := New(f.sessions, "u1", f.clock)
	ctx, cancel := context.WithCancel(context.Background())

	ticks := make(chan Live, 8)
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond, func(l Live) {
			select {
			case ticks <- l:
			default:
			}
		})
		close(done)
	}()

	first := <-ticks
	assert.Equal(t, domain.TimerIdle, first.State)
	<-ticks
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
