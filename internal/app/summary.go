package app

import (
	"time"

	"github.com/alexanderramin/earnclock/internal/domain"
)

// SummaryRequest asks for account totals as of Now (the server clock when
// nil). Window, when set, is validated and echoed so callers can pick
// Summary.Totals(Window); all windows are always computed.
type SummaryRequest struct {
	UserID string
	Now    *time.Time
	Window domain.Window
}

func NewSummaryRequest(userID string) SummaryRequest {
	return SummaryRequest{UserID: userID}
}

// WindowTotals is earnings and tracked time over one calendar window.
type WindowTotals struct {
	Window   domain.Window
	Start    time.Time
	End      time.Time
	Earnings domain.Money
	Seconds  int64
	Sessions int
}

// Hours is Seconds as fractional hours.
func (w WindowTotals) Hours() float64 {
	return float64(w.Seconds) / 3600
}

// Summary is the confirmed (persisted) account view.
type Summary struct {
	UserID string
	AsOf   time.Time
	Window domain.Window

	Today    WindowTotals
	Week     WindowTotals
	Month    WindowTotals
	Lifetime WindowTotals

	AverageHourlyRate  domain.Money
	TargetBalance      domain.Money
	CurrentBalance     domain.Money
	ProgressPercentage float64
	CurrentStreakDays  int
	BestStreakDays     int
	LastEarningDate    *time.Time

	ActiveSessionID string
	ActiveTaskID    string
	ActiveStartedAt *time.Time
}

// Totals returns the totals for w.
func (s *Summary) Totals(w domain.Window) WindowTotals {
	switch w {
	case domain.WindowToday:
		return s.Today
	case domain.WindowWeek:
		return s.Week
	case domain.WindowMonth:
		return s.Month
	default:
		return s.Lifetime
	}
}

// ImportResult holds the outcome of a catalog import.
type ImportResult struct {
	CategoryCount int `json:"category_count"`
	TaskCount     int `json:"task_count"`
	RateChanges   int `json:"rate_changes"`
}
