package reconcile

import (
	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/timer"
)

// Display is what an observer renders: confirmed totals plus, while a
// timer runs, its unconfirmed estimate.
type Display struct {
	UserID string
	Live   timer.Live

	Today    app.WindowTotals
	Week     app.WindowTotals
	Month    app.WindowTotals
	Lifetime app.WindowTotals

	AverageHourlyRate  domain.Money
	TargetBalance      domain.Money
	CurrentBalance     domain.Money
	ProgressPercentage float64
	CurrentStreakDays  int
	BestStreakDays     int

	// Estimated is set when the totals include a live estimate.
	Estimated bool
}

// Merge combines a confirmed summary with a live projection. The estimate
// is added only when the live timer tracks the session the server reports
// as active; a stale or foreign timer contributes nothing.
func Merge(s *app.Summary, live timer.Live) Display {
	d := Display{
		UserID:             s.UserID,
		Live:               live,
		Today:              s.Today,
		Week:               s.Week,
		Month:              s.Month,
		Lifetime:           s.Lifetime,
		AverageHourlyRate:  s.AverageHourlyRate,
		TargetBalance:      s.TargetBalance,
		CurrentBalance:     s.CurrentBalance,
		ProgressPercentage: s.ProgressPercentage,
		CurrentStreakDays:  s.CurrentStreakDays,
		BestStreakDays:     s.BestStreakDays,
	}

	running := live.State == domain.TimerRunning || live.State == domain.TimerPaused
	if !running || live.SessionID == "" || live.SessionID != s.ActiveSessionID {
		return d
	}

	// A running session would end now, which is inside every window.
	for _, w := range []*app.WindowTotals{&d.Today, &d.Week, &d.Month, &d.Lifetime} {
		w.Earnings += live.Estimate
		w.Seconds += live.ElapsedSeconds
	}
	d.CurrentBalance += live.Estimate
	ledger := domain.AccountLedger{TargetBalance: d.TargetBalance, CurrentBalance: d.CurrentBalance}
	d.ProgressPercentage = ledger.ProgressPct()
	d.Estimated = true
	return d
}
