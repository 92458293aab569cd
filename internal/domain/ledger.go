package domain

import (
	"math"
	"time"
)

// DateLayout is the civil-date format used for streak bookkeeping.
const DateLayout = "2006-01-02"

// AccountLedger holds the per-user running balance and streak counters.
// It is only ever updated in the same transaction as a session completion
// (or a target change).
type AccountLedger struct {
	UserID            string
	TargetBalance     Money
	CurrentBalance    Money
	LifetimeEarnings  Money
	LifetimeSeconds   int64
	CurrentStreakDays int
	BestStreakDays    int
	LastEarningDate   *time.Time
	UpdatedAt         time.Time
}

// NewLedger returns an empty ledger for userID.
func NewLedger(userID string, now time.Time) *AccountLedger {
	return &AccountLedger{UserID: userID, UpdatedAt: now}
}

// CivilDate truncates t to midnight UTC of its calendar date in t's location,
// so that day arithmetic is exact regardless of DST.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ApplyCompletion records a completed session. seconds is the billable
// duration; earnings is zero for sessions without a rate. day is the
// calendar day the session ended on, already in the account's location.
func (l *AccountLedger) ApplyCompletion(seconds int64, earnings Money, day time.Time, now time.Time) {
	l.CurrentBalance += earnings
	l.LifetimeEarnings += earnings
	l.LifetimeSeconds += seconds
	l.UpdatedAt = now

	if earnings <= 0 {
		return
	}
	l.applyStreakDay(CivilDate(day))
}

func (l *AccountLedger) applyStreakDay(day time.Time) {
	if l.LastEarningDate == nil {
		l.CurrentStreakDays = 1
		l.LastEarningDate = &day
		l.bumpBest()
		return
	}

	last := CivilDate(*l.LastEarningDate)
	gap := int(day.Sub(last).Hours() / 24)
	switch {
	case gap <= 0:
		// Same day, or a late completion for an earlier day.
		return
	case gap == 1:
		l.CurrentStreakDays++
	default:
		l.CurrentStreakDays = 1
	}
	l.LastEarningDate = &day
	l.bumpBest()
}

func (l *AccountLedger) bumpBest() {
	if l.CurrentStreakDays > l.BestStreakDays {
		l.BestStreakDays = l.CurrentStreakDays
	}
}

// EffectiveStreak is the streak as of today: it lapses to zero once a full
// calendar day has passed without an earning session.
func (l *AccountLedger) EffectiveStreak(today time.Time) int {
	if l.LastEarningDate == nil {
		return 0
	}
	gap := int(CivilDate(today).Sub(CivilDate(*l.LastEarningDate)).Hours() / 24)
	if gap > 1 {
		return 0
	}
	return l.CurrentStreakDays
}

// ProgressPct is current/target as a percentage, rounded to two decimals and
// capped at 100. Zero when no target is set.
func (l *AccountLedger) ProgressPct() float64 {
	if l.TargetBalance <= 0 || l.CurrentBalance <= 0 {
		return 0
	}
	pct := float64(l.CurrentBalance) / float64(l.TargetBalance) * 100
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*100) / 100
}
