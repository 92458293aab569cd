package contract

import (
	"time"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/domain"
)

// JSON shapes shared by the HTTP API and the CLI's --json output.

type SessionView struct {
	ID              string        `json:"id"`
	TaskID          string        `json:"task_id"`
	UserID          string        `json:"user_id"`
	CategoryID      *string       `json:"category_id,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	IsActive        bool          `json:"is_active"`
	Paused          bool          `json:"paused"`
	HourlyRateUSD   *domain.Money `json:"hourly_rate_usd"`
	EarningsUSD     domain.Money  `json:"earnings_usd"`
	DurationSeconds int64         `json:"duration_seconds"`
	RateMissing     bool          `json:"rate_missing"`
	Notes           string        `json:"notes,omitempty"`
}

// NewSessionView renders a derived row.
func NewSessionView(row app.SessionRow) SessionView {
	s := row.Session
	return SessionView{
		ID:              s.ID,
		TaskID:          s.TaskID,
		UserID:          s.UserID,
		CategoryID:      s.CategoryID,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		IsActive:        s.IsActive,
		Paused:          row.Paused,
		HourlyRateUSD:   s.HourlyRate,
		EarningsUSD:     row.EarningsUSD,
		DurationSeconds: row.DurationSeconds,
		RateMissing:     row.RateMissing,
		Notes:           s.Notes,
	}
}

type StartSessionBody struct {
	TaskID string `json:"task_id"`
	Notes  string `json:"notes,omitempty"`
}

type StartSessionResponse struct {
	SessionID          string          `json:"session_id"`
	StartedAt          time.Time       `json:"started_at"`
	HourlyRateUSD      *domain.Money   `json:"hourly_rate_usd"`
	RateMissing        bool            `json:"rate_missing"`
	PriorSessionClosed *app.StopResult `json:"prior_session_closed"`
}

func NewStartSessionResponse(res *app.StartResult) StartSessionResponse {
	return StartSessionResponse{
		SessionID:          res.Session.ID,
		StartedAt:          res.Session.StartedAt,
		HourlyRateUSD:      res.Session.HourlyRate,
		RateMissing:        res.Session.RateMissing(),
		PriorSessionClosed: res.PriorClosed,
	}
}

type StopSessionBody struct {
	SessionID string `json:"session_id,omitempty"`
}

type SessionPageResponse struct {
	Rows       []SessionView `json:"rows"`
	TotalCount int           `json:"total_count"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
}

func NewSessionPageResponse(p *app.SessionPage) SessionPageResponse {
	out := SessionPageResponse{
		Rows:       make([]SessionView, 0, len(p.Rows)),
		TotalCount: p.TotalCount,
		Page:       p.Page,
		PageSize:   p.PageSize,
	}
	for _, r := range p.Rows {
		out.Rows = append(out.Rows, NewSessionView(r))
	}
	return out
}

type WindowView struct {
	Window      domain.Window `json:"window"`
	Start       *time.Time    `json:"start,omitempty"`
	End         *time.Time    `json:"end,omitempty"`
	EarningsUSD domain.Money  `json:"earnings_usd"`
	Hours       float64       `json:"hours"`
	Sessions    int           `json:"sessions"`
}

func NewWindowView(w app.WindowTotals) WindowView {
	v := WindowView{Window: w.Window, EarningsUSD: w.Earnings, Hours: w.Hours(), Sessions: w.Sessions}
	if w.Window != domain.WindowLifetime {
		start, end := w.Start, w.End
		v.Start, v.End = &start, &end
	}
	return v
}

type SummaryView struct {
	UserID             string        `json:"user_id"`
	AsOf               time.Time     `json:"as_of"`
	Window             domain.Window `json:"window,omitempty"`
	TodayEarnings      domain.Money  `json:"today_earnings"`
	WeekEarnings       domain.Money  `json:"week_earnings"`
	MonthEarnings      domain.Money  `json:"month_earnings"`
	LifetimeEarnings   domain.Money  `json:"lifetime_earnings"`
	TodayHours         float64       `json:"today_hours"`
	WeekHours          float64       `json:"week_hours"`
	MonthHours         float64       `json:"month_hours"`
	LifetimeHours      float64       `json:"lifetime_hours"`
	AverageHourlyRate  domain.Money  `json:"average_hourly_rate"`
	TargetBalance      domain.Money  `json:"target_balance"`
	CurrentBalance     domain.Money  `json:"current_balance"`
	ProgressPercentage float64       `json:"progress_percentage"`
	CurrentStreakDays  int           `json:"current_streak_days"`
	BestStreakDays     int           `json:"best_streak_days"`
	LastEarningDate    string        `json:"last_earning_date,omitempty"`
	ActiveSessionID    string        `json:"active_session_id,omitempty"`
	Selected           *WindowView   `json:"selected,omitempty"`
}

func NewSummaryView(s *app.Summary) SummaryView {
	v := SummaryView{
		UserID:             s.UserID,
		AsOf:               s.AsOf,
		Window:             s.Window,
		TodayEarnings:      s.Today.Earnings,
		WeekEarnings:       s.Week.Earnings,
		MonthEarnings:      s.Month.Earnings,
		LifetimeEarnings:   s.Lifetime.Earnings,
		TodayHours:         s.Today.Hours(),
		WeekHours:          s.Week.Hours(),
		MonthHours:         s.Month.Hours(),
		LifetimeHours:      s.Lifetime.Hours(),
		AverageHourlyRate:  s.AverageHourlyRate,
		TargetBalance:      s.TargetBalance,
		CurrentBalance:     s.CurrentBalance,
		ProgressPercentage: s.ProgressPercentage,
		CurrentStreakDays:  s.CurrentStreakDays,
		BestStreakDays:     s.BestStreakDays,
		ActiveSessionID:    s.ActiveSessionID,
	}
	if s.LastEarningDate != nil {
		v.LastEarningDate = s.LastEarningDate.Format(domain.DateLayout)
	}
	if s.Window != "" {
		w := NewWindowView(s.Totals(s.Window))
		v.Selected = &w
	}
	return v
}

type TargetBody struct {
	TargetUSD domain.Money `json:"target_usd"`
}

type LedgerView struct {
	UserID             string       `json:"user_id"`
	TargetBalance      domain.Money `json:"target_balance"`
	CurrentBalance     domain.Money `json:"current_balance"`
	ProgressPercentage float64      `json:"progress_percentage"`
}

func NewLedgerView(l *domain.AccountLedger) LedgerView {
	return LedgerView{
		UserID:             l.UserID,
		TargetBalance:      l.TargetBalance,
		CurrentBalance:     l.CurrentBalance,
		ProgressPercentage: l.ProgressPct(),
	}
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Kind    domain.ErrorKind `json:"kind,omitempty"`
	Message string           `json:"message"`
	Code    int              `json:"code"`
}
