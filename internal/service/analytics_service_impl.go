package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/db"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/earnings"
)

type analyticsService struct {
	uow db.UnitOfWork
	settings
}

// NewAnalyticsService builds the aggregator. Window totals are summed from
// session rows; lifetime totals and streaks come from the ledger, which is
// maintained in the same transaction as every completion.
func NewAnalyticsService(uow db.UnitOfWork, opts ...Option) AnalyticsService {
	return &analyticsService{uow: uow, settings: newSettings(opts)}
}

// resolveNow picks the instant and calendar for a request. A caller-supplied
// Now carries its own location.
func (s *analyticsService) resolveNow(now *time.Time) (time.Time, calendar) {
	if now != nil {
		return *now, calendar{loc: now.Location(), weekStart: s.weekStart}
	}
	return s.clock.Now().In(s.location), calendar{loc: s.location, weekStart: s.weekStart}
}

func (s *analyticsService) GetSummary(ctx context.Context, req app.SummaryRequest) (summary *app.Summary, err error) {
	fields := map[string]any{"user_id": req.UserID, "window": string(req.Window)}
	done := s.observe(ctx, "get-summary", fields)
	defer func() { done(err) }()

	if req.UserID == "" {
		return nil, domain.ValidationError("get summary", "user id is required")
	}
	if req.Window != "" && !domain.ValidWindows[req.Window] {
		return nil, domain.ValidationError("get summary", "unknown window %q (want today, week, month or lifetime)", req.Window)
	}

	now, cal := s.resolveNow(req.Now)
	summary = &app.Summary{UserID: req.UserID, AsOf: now, Window: req.Window}
	windows := []domain.Window{domain.WindowToday, domain.WindowWeek, domain.WindowMonth}
	totals := make(map[domain.Window]*app.WindowTotals, len(windows))

	// One query covers the union of the calendar windows.
	var from, to time.Time
	for i, w := range windows {
		start, end := cal.bounds(w, now)
		totals[w] = &app.WindowTotals{Window: w, Start: start, End: end}
		if i == 0 || start.Before(from) {
			from = start
		}
		if i == 0 || end.After(to) {
			to = end
		}
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		r := newTxRepos(tx)

		ledger, err := r.ledgers.Get(ctx, req.UserID)
		if err != nil {
			return err
		}

		rows, err := r.sessions.ListEndedBetween(ctx, req.UserID, from, to)
		if err != nil {
			return err
		}
		ids := make([]string, len(rows))
		for i, sess := range rows {
			ids[i] = sess.ID
		}
		pauses, err := r.pauses.ListBySessions(ctx, ids)
		if err != nil {
			return err
		}
		for _, sess := range rows {
			secs := earnings.DurationSeconds(sess.StartedAt, *sess.EndedAt, pauses[sess.ID])
			var amount domain.Money
			if sess.EarningsUSD != nil {
				amount = *sess.EarningsUSD
			}
			for _, t := range totals {
				if contains(t.Start, t.End, *sess.EndedAt) {
					t.Earnings += amount
					t.Seconds += secs
					t.Sessions++
				}
			}
		}

		count, err := r.sessions.CountByUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		active, err := r.sessions.GetActiveByUser(ctx, req.UserID)
		switch {
		case err == nil:
			count--
			summary.ActiveSessionID = active.ID
			summary.ActiveTaskID = active.TaskID
			started := active.StartedAt
			summary.ActiveStartedAt = &started
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		summary.Lifetime = app.WindowTotals{
			Window:   domain.WindowLifetime,
			End:      farFuture,
			Earnings: ledger.LifetimeEarnings,
			Seconds:  ledger.LifetimeSeconds,
			Sessions: count,
		}
		summary.TargetBalance = ledger.TargetBalance
		summary.CurrentBalance = ledger.CurrentBalance
		summary.ProgressPercentage = ledger.ProgressPct()
		summary.CurrentStreakDays = ledger.EffectiveStreak(now.In(cal.loc))
		summary.BestStreakDays = ledger.BestStreakDays
		summary.LastEarningDate = ledger.LastEarningDate
		summary.AverageHourlyRate, err = earnings.AverageRate(ledger.LifetimeEarnings, ledger.LifetimeSeconds)
		return err
	})
	if err != nil {
		return nil, err
	}

	summary.Today = *totals[domain.WindowToday]
	summary.Week = *totals[domain.WindowWeek]
	summary.Month = *totals[domain.WindowMonth]
	return summary, nil
}

func (s *analyticsService) GetWindow(ctx context.Context, userID string, window domain.Window, now *time.Time) (*app.WindowTotals, error) {
	if window == "" {
		window = domain.WindowToday
	}
	summary, err := s.GetSummary(ctx, app.SummaryRequest{UserID: userID, Now: now, Window: window})
	if err != nil {
		return nil, err
	}
	t := summary.Totals(window)
	return &t, nil
}
