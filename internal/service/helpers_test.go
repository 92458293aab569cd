package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/broadcast"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/earnings"
	"github.com/alexanderramin/earnclock/internal/repository"
	"github.com/alexanderramin/earnclock/internal/testutil"
)

type testEnv struct {
	db        *sql.DB
	clock     *testutil.FakeClock
	bus       *broadcast.MemoryBus
	sessions  SessionService
	analytics AnalyticsService
	catalog   CatalogService
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	return newTestEnvWithDB(t, testutil.NewTestDB(t), opts...)
}

func newTestEnvWithDB(t *testing.T, database *sql.DB, opts ...Option) *testEnv {
	t.Helper()
	clock := testutil.NewFakeClock(testutil.Epoch)
	bus := broadcast.NewMemoryBus(0)
	t.Cleanup(func() { _ = bus.Close() })

	all := append([]Option{WithClock(clock), WithLocation(time.UTC), WithPublisher(bus)}, opts...)
	uow := testutil.NewTestUoW(database)
	return &testEnv{
		db:        database,
		clock:     clock,
		bus:       bus,
		sessions:  NewSessionService(uow, all...),
		analytics: NewAnalyticsService(uow, all...),
		catalog:   NewCatalogService(uow, "", all...),
	}
}

// seedTask stores a task for userID under cat (nil for no category).
func (e *testEnv) seedTask(t *testing.T, userID string, cat *domain.Category) *domain.Task {
	t.Helper()
	ctx := context.Background()
	var opts []testutil.TaskOption
	if cat != nil {
		require.NoError(t, repository.NewSQLiteCategoryRepo(e.db).Upsert(ctx, cat))
		opts = append(opts, testutil.WithCategory(cat.ID))
	}
	task := testutil.NewTestTask(userID, opts...)
	require.NoError(t, repository.NewSQLiteTaskRepo(e.db).Upsert(ctx, task))
	return task
}

// track runs a session for task from start to end through the service.
func (e *testEnv) track(t *testing.T, userID, taskID string, start, end time.Time) *app.StopResult {
	t.Helper()
	ctx := context.Background()
	e.clock.Set(start)
	res, err := e.sessions.StartSession(ctx, userID, taskID, "")
	require.NoError(t, err)
	e.clock.Set(end)
	stop, err := e.sessions.StopSession(ctx, app.StopRequest{UserID: userID, SessionID: res.Session.ID})
	require.NoError(t, err)
	return stop
}

// allSessions loads every stored session with its pauses.
func allSessions(t *testing.T, database *sql.DB) []*domain.Session {
	t.Helper()
	ctx := context.Background()
	rows, err := database.QueryContext(ctx, `SELECT id FROM sessions`)
	require.NoError(t, err)
	var ids []string
	for rows.Next() {
		var id string
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Close())

	repo := repository.NewSQLiteSessionRepo(database)
	pauses, err := repository.NewSQLitePauseRepo(database).ListBySessions(ctx, ids)
	require.NoError(t, err)
	out := make([]*domain.Session, 0, len(ids))
	for _, id := range ids {
		s, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		s.Pauses = pauses[id]
		out = append(out, s)
	}
	return out
}

// requireConsistent checks structural invariants of every stored session and
// that stored earnings match a fresh derivation from timestamps.
func requireConsistent(t *testing.T, database *sql.DB) {
	t.Helper()
	active := make(map[string]int)
	for _, s := range allSessions(t, database) {
		require.NoError(t, s.CheckInvariants())
		if s.IsActive {
			active[s.UserID]++
			continue
		}
		_, res, err := earnings.ForSession(s, time.Time{})
		require.NoError(t, err)
		if s.HourlyRate != nil {
			require.NotNil(t, s.EarningsUSD, "session %s", s.ID)
			require.Equal(t, res.Amount, *s.EarningsUSD, "session %s", s.ID)
		}
	}
	for user, n := range active {
		require.LessOrEqual(t, n, 1, "user %s has %d active sessions", user, n)
	}
}

func nextEvent(t *testing.T, sub *broadcast.Subscription) broadcast.Event {
	t.Helper()
	select {
	case ev := <-sub.C:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return broadcast.Event{}
}
