package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/testutil"
)

func sessionTestSetup(t *testing.T) (*sql.DB, *SQLiteSessionRepo) {
	t.Helper()
	database := testutil.NewTestDB(t)
	return database, NewSQLiteSessionRepo(database)
}

func TestSessionRepo_CreateAndGetByID(t *testing.T) {
	_, repo := sessionTestSetup(t)
	ctx := context.Background()

	sess := testutil.NewTestSession("u1", "t1", testutil.WithSessionRate("150"), testutil.WithNotes("deep work"))
	catID := "c1"
	sess.CategoryID = &catID
	require.NoError(t, repo.Create(ctx, sess))

	got, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "t1", got.TaskID)
	require.NotNil(t, got.CategoryID)
	assert.Equal(t, "c1", *got.CategoryID)
	assert.True(t, got.StartedAt.Equal(testutil.Epoch))
	assert.Nil(t, got.EndedAt)
	require.NotNil(t, got.HourlyRate)
	assert.Equal(t, "150.00", got.HourlyRate.String())
	assert.Nil(t, got.EarningsUSD)
	assert.True(t, got.IsActive)
	assert.Equal(t, "deep work", got.Notes)
}

func TestSessionRepo_GetByID_NotFound(t *testing.T) {
	_, repo := sessionTestSetup(t)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionRepo_GetActiveByUser(t *testing.T) {
	_, repo := sessionTestSetup(t)
	ctx := context.Background()

	_, err := repo.GetActiveByUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	done := testutil.NewTestSession("u1", "t1", testutil.Ended(time.Minute, nil))
	active := testutil.NewTestSession("u1", "t1", testutil.WithStartedAt(testutil.Epoch.Add(time.Hour)))
	require.NoError(t, repo.Create(ctx, done))
	require.NoError(t, repo.Create(ctx, active))

	got, err := repo.GetActiveByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, active.ID, got.ID)

	_, err = repo.GetActiveByUser(ctx, "u2")
	assert.ErrorIs(t, err, ErrNotFound, "scoped by user")
}

func TestSessionRepo_SecondActiveRejected(t *testing.T) {
	_, repo := sessionTestSetup(t)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestSession("u1", "t1")))
	assert.Error(t, repo.Create(ctx, testutil.NewTestSession("u1", "t2")))
}

func TestSessionRepo_Close(t *testing.T) {
	_, repo := sessionTestSetup(t)
	ctx := context.Background()

	sess := testutil.NewTestSession("u1", "t1", testutil.WithSessionRate("150"))
	require.NoError(t, repo.Create(ctx, sess))

	earned := domain.Cents(7500)
	require.NoError(t, sess.Close(testutil.Epoch.Add(30*time.Minute), &earned))
	require.NoError(t, repo.Close(ctx, sess))

	got, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	require.NotNil(t, got.EndedAt)
	assert.True(t, got.EndedAt.Equal(testutil.Epoch.Add(30*time.Minute)))
	require.NotNil(t, got.EarningsUSD)
	assert.Equal(t, "75.00", got.EarningsUSD.String())
	assert.NoError(t, got.CheckInvariants())

	err = repo.Close(ctx, sess)
	assert.ErrorIs(t, err, domain.ErrConflict, "second close must not overwrite")
}

func TestSessionRepo_ListByUserAndCount(t *testing.T) {
	_, repo := sessionTestSetup(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 15; i++ {
		s := testutil.NewTestSession("u1", "t1",
			testutil.WithStartedAt(testutil.Epoch.Add(time.Duration(i)*time.Hour)),
			testutil.Ended(time.Minute, nil))
		require.NoError(t, repo.Create(ctx, s))
		ids = append(ids, s.ID)
	}
	require.NoError(t, repo.Create(ctx, testutil.NewTestSession("u2", "t9")))

	n, err := repo.CountByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 15, n)

	page, err := repo.ListByUser(ctx, "u1", 5, 5)
	require.NoError(t, err)
	require.Len(t, page, 5)
	// Newest first: the sixth newest is index 9.
	assert.Equal(t, ids[9], page[0].ID)
	assert.Equal(t, ids[5], page[4].ID)
}

func TestSessionRepo_ListEndedBetween_HalfOpen(t *testing.T) {
	_, repo := sessionTestSetup(t)
	ctx := context.Background()

	from := testutil.Epoch
	to := testutil.Epoch.Add(24 * time.Hour)

	atStart := testutil.NewTestSession("u1", "t1", testutil.WithStartedAt(from.Add(-time.Hour)), testutil.Ended(time.Hour, nil))
	inside := testutil.NewTestSession("u1", "t1", testutil.WithStartedAt(from.Add(time.Hour)), testutil.Ended(time.Hour, nil))
	atEnd := testutil.NewTestSession("u1", "t1", testutil.WithStartedAt(to.Add(-time.Hour)), testutil.Ended(time.Hour, nil))
	active := testutil.NewTestSession("u1", "t1", testutil.WithStartedAt(from.Add(2*time.Hour)))
	for _, s := range []*domain.Session{atStart, inside, atEnd, active} {
		require.NoError(t, repo.Create(ctx, s))
	}

	got, err := repo.ListEndedBetween(ctx, "u1", from, to)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, atStart.ID, got[0].ID, "ended exactly at window start is included")
	assert.Equal(t, inside.ID, got[1].ID)
}

func TestSessionRepo_ListActiveStartedBefore(t *testing.T) {
	_, repo := sessionTestSetup(t)
	ctx := context.Background()

	old := testutil.NewTestSession("u1", "t1", testutil.WithStartedAt(testutil.Epoch.Add(-13*time.Hour)))
	fresh := testutil.NewTestSession("u2", "t2", testutil.WithStartedAt(testutil.Epoch.Add(-time.Hour)))
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))

	got, err := repo.ListActiveStartedBefore(ctx, testutil.Epoch.Add(-12*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, old.ID, got[0].ID)
}

func TestSessionRepo_TruncatesToSeconds(t *testing.T) {
	_, repo := sessionTestSetup(t)
	ctx := context.Background()

	sess := testutil.NewTestSession("u1", "t1", testutil.WithStartedAt(testutil.Epoch.Add(1500*time.Millisecond)))
	require.NoError(t, repo.Create(ctx, sess))

	got, err := repo.GetByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, got.StartedAt.Equal(testutil.Epoch.Add(time.Second)))
}
