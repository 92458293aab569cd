package earnings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/earnclock/internal/domain"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func rate(s string) *domain.Money {
	m := domain.MustParseMoney(s)
	return &m
}

func TestEarnings_HalfHourAt150(t *testing.T) {
	res, err := Earnings(1800, rate("150"))
	require.NoError(t, err)
	assert.Equal(t, "75.00", res.Amount.String())
	assert.False(t, res.RateMissing)
}

func TestEarnings_TenSecondsAt100RoundsUp(t *testing.T) {
	// 10/3600*100 = 0.2777... -> 0.28
	res, err := Earnings(10, rate("100"))
	require.NoError(t, err)
	assert.Equal(t, "0.28", res.Amount.String())
}

func TestEarnings_HalfCentRoundsUp(t *testing.T) {
	// 18 s at $1.00/h = 0.5 cents exactly.
	res, err := Earnings(18, rate("1"))
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(1), res.Amount)

	// 54 s at $1.00/h = 1.5 cents.
	res, err = Earnings(54, rate("1"))
	require.NoError(t, err)
	assert.Equal(t, domain.Cents(2), res.Amount)
}

func TestEarnings_NilRate(t *testing.T) {
	res, err := Earnings(3600, nil)
	require.NoError(t, err)
	assert.True(t, res.RateMissing)
	assert.Equal(t, "0.00", res.Amount.String())
}

func TestEarnings_ZeroDurationAndZeroRate(t *testing.T) {
	res, err := Earnings(0, rate("150"))
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())
	assert.False(t, res.RateMissing)

	res, err = Earnings(3600, rate("0"))
	require.NoError(t, err)
	assert.True(t, res.Amount.IsZero())
	assert.False(t, res.RateMissing, "a zero rate is still a rate")
}

func TestDurationSeconds(t *testing.T) {
	assert.Equal(t, int64(1800), DurationSeconds(t0, t0.Add(30*time.Minute), nil))
	assert.Equal(t, int64(0), DurationSeconds(t0, t0, nil))
	assert.Equal(t, int64(0), DurationSeconds(t0, t0.Add(-time.Minute), nil))
	assert.Equal(t, int64(1), DurationSeconds(t0, t0.Add(1999*time.Millisecond), nil), "truncated to whole seconds")
}

func TestDurationSeconds_ExcludesPauses(t *testing.T) {
	resumed := t0.Add(20 * time.Minute)
	pauses := []domain.Pause{
		{PausedAt: t0.Add(10 * time.Minute), ResumedAt: &resumed},
		{PausedAt: t0.Add(50 * time.Minute)}, // open until end
	}
	end := t0.Add(60 * time.Minute)
	// 60 min - 10 min - 10 min
	assert.Equal(t, int64(40*60), DurationSeconds(t0, end, pauses))
}

func TestDurationSeconds_ClipsPausesToSession(t *testing.T) {
	resumed := t0.Add(2 * time.Hour)
	pauses := []domain.Pause{{PausedAt: t0.Add(30 * time.Minute), ResumedAt: &resumed}}
	assert.Equal(t, int64(30*60), DurationSeconds(t0, t0.Add(time.Hour), pauses))
}

func TestForSession(t *testing.T) {
	end := t0.Add(30 * time.Minute)
	s := &domain.Session{ID: "s1", StartedAt: t0, EndedAt: &end, HourlyRate: rate("150")}
	secs, res, err := ForSession(s, t0.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1800), secs, "ended sessions ignore now")
	assert.Equal(t, "75.00", res.Amount.String())

	active := &domain.Session{ID: "s2", StartedAt: t0, IsActive: true}
	secs, res, err = ForSession(active, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(60), secs)
	assert.True(t, res.RateMissing)
}

func TestProjectMatchesEarnings(t *testing.T) {
	for _, secs := range []int64{0, 1, 17, 18, 3599, 3600, 86400} {
		want, err := Earnings(secs, rate("37.50"))
		require.NoError(t, err)
		assert.Equal(t, want, Project(secs, rate("37.50")), "secs=%d", secs)
	}
}

func TestAverageRate(t *testing.T) {
	avg, err := AverageRate(domain.Cents(7528), 1810)
	require.NoError(t, err)
	// 75.28 / (1810/3600) = 149.73
	assert.Equal(t, "149.73", avg.String())

	avg, err = AverageRate(domain.Cents(5000), 0)
	require.NoError(t, err)
	assert.True(t, avg.IsZero())
}
