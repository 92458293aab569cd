package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/testutil"
)

func TestLedgerRepo_GetMissingReturnsZeroLedger(t *testing.T) {
	repo := NewSQLiteLedgerRepo(testutil.NewTestDB(t))

	l, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", l.UserID)
	assert.True(t, l.CurrentBalance.IsZero())
	assert.Nil(t, l.LastEarningDate)
}

func TestLedgerRepo_UpsertRoundTrip(t *testing.T) {
	repo := NewSQLiteLedgerRepo(testutil.NewTestDB(t))
	ctx := context.Background()

	l := domain.NewLedger("u1", testutil.Epoch)
	l.TargetBalance = domain.Cents(50000)
	l.ApplyCompletion(1800, domain.Cents(7500), testutil.Epoch, testutil.Epoch)
	require.NoError(t, repo.Upsert(ctx, l))

	l.ApplyCompletion(10, domain.Cents(28), testutil.Epoch.Add(24*time.Hour), testutil.Epoch.Add(24*time.Hour))
	require.NoError(t, repo.Upsert(ctx, l))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(50000), got.TargetBalance)
	assert.Equal(t, domain.Cents(7528), got.CurrentBalance)
	assert.Equal(t, domain.Cents(7528), got.LifetimeEarnings)
	assert.Equal(t, int64(1810), got.LifetimeSeconds)
	assert.Equal(t, 2, got.CurrentStreakDays)
	assert.Equal(t, 2, got.BestStreakDays)
	require.NotNil(t, got.LastEarningDate)
	assert.Equal(t, "2025-06-17", got.LastEarningDate.Format(domain.DateLayout))
}
