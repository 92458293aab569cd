package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/testutil"
)

func TestStartSession_ConcurrentStartsLeaveOneActive(t *testing.T) {
	e := newTestEnvWithDB(t, testutil.NewFileTestDB(t))
	ctx := context.Background()

	const workers = 8
	tasks := make([]*domain.Task, workers)
	for i := range tasks {
		tasks[i] = e.seedTask(t, "u1", testutil.NewTestCategory("c", testutil.WithRate("90")))
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(taskID string) {
			defer wg.Done()
			_, err := e.sessions.StartSession(ctx, "u1", taskID, "")
			errs <- err
		}(tasks[i].ID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	sessions := allSessions(t, e.db)
	assert.Len(t, sessions, workers)
	active := 0
	for _, s := range sessions {
		if s.IsActive {
			active++
		}
	}
	assert.Equal(t, 1, active)
	requireConsistent(t, e.db)
}

func TestStartSession_ConcurrentUsersAreIndependent(t *testing.T) {
	e := newTestEnvWithDB(t, testutil.NewFileTestDB(t))
	ctx := context.Background()

	users := []string{"u1", "u2", "u3", "u4"}
	tasks := make(map[string]*domain.Task)
	for _, u := range users {
		tasks[u] = e.seedTask(t, u, nil)
	}

	var wg sync.WaitGroup
	for _, u := range users {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			_, err := e.sessions.StartSession(ctx, u, tasks[u].ID, "")
			assert.NoError(t, err)
		}(u)
	}
	wg.Wait()

	for _, u := range users {
		_, err := e.sessions.ActiveSession(ctx, u)
		assert.NoError(t, err, "user %s", u)
	}
	requireConsistent(t, e.db)
}
