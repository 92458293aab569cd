package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/earnclock/internal/contract"
	"github.com/alexanderramin/earnclock/internal/domain"
)

const summaryProgressBarWidth = 20

type windowLine struct {
	name     string
	earnings domain.Money
	hours    float64
}

func windowLines(v contract.SummaryView) []windowLine {
	return []windowLine{
		{"today", v.TodayEarnings, v.TodayHours},
		{"week", v.WeekEarnings, v.WeekHours},
		{"month", v.MonthEarnings, v.MonthHours},
		{"lifetime", v.LifetimeEarnings, v.LifetimeHours},
	}
}

// FormatSummary renders the account summary as a styled dashboard.
func FormatSummary(v contract.SummaryView) string {
	var b strings.Builder

	headers := []string{"WINDOW", "EARNED", "HOURS"}
	rows := make([][]string, 0, 4)
	for _, w := range windowLines(v) {
		name := w.name
		if v.Window == domain.Window(w.name) {
			name = Bold("▸ " + name)
		}
		rows = append(rows, []string{name, StyleMoney.Render(FormatMoney(w.earnings)), fmt.Sprintf("%.2f", w.hours)})
	}
	b.WriteString(RenderTable(headers, rows, 1, 2))
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s\n", Dim("Average rate:"), FormatMoney(v.AverageHourlyRate)+"/h")
	fmt.Fprintf(&b, "%s %s\n", Dim("Balance:     "), StyleMoney.Render(FormatMoney(v.CurrentBalance)))
	if v.TargetBalance > 0 {
		fmt.Fprintf(&b, "%s %s  %s\n", Dim("Target:      "), FormatMoney(v.TargetBalance),
			RenderProgress(v.ProgressPercentage, summaryProgressBarWidth))
	} else {
		fmt.Fprintf(&b, "%s %s\n", Dim("Target:      "), Dim("not set"))
	}

	streak := fmt.Sprintf("%d days (best %d)", v.CurrentStreakDays, v.BestStreakDays)
	if v.CurrentStreakDays == 0 {
		streak = Dim(streak)
	} else {
		streak = StyleYellow.Render(streak)
	}
	fmt.Fprintf(&b, "%s %s\n", Dim("Streak:      "), streak)

	if v.ActiveSessionID != "" {
		fmt.Fprintf(&b, "\n%s session %s running\n", StateIndicator(domain.TimerRunning), TruncID(v.ActiveSessionID))
	}

	return RenderBox("Earnings · "+v.UserID, b.String())
}

// SummaryText renders the summary without styling, for pipes and logs.
func SummaryText(v contract.SummaryView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "user: %s\n", v.UserID)
	fmt.Fprintf(&b, "as of: %s\n", v.AsOf.Format("2006-01-02 15:04 MST"))
	for _, w := range windowLines(v) {
		fmt.Fprintf(&b, "%-9s %12s %8.2fh\n", w.name, FormatMoney(w.earnings), w.hours)
	}
	fmt.Fprintf(&b, "average rate: %s/h\n", FormatMoney(v.AverageHourlyRate))
	fmt.Fprintf(&b, "balance: %s\n", FormatMoney(v.CurrentBalance))
	if v.TargetBalance > 0 {
		fmt.Fprintf(&b, "target: %s (%.2f%%)\n", FormatMoney(v.TargetBalance), v.ProgressPercentage)
	} else {
		b.WriteString("target: none\n")
	}
	fmt.Fprintf(&b, "streak: %d days (best %d)\n", v.CurrentStreakDays, v.BestStreakDays)
	if v.LastEarningDate != "" {
		fmt.Fprintf(&b, "last earning day: %s\n", v.LastEarningDate)
	}
	if v.ActiveSessionID != "" {
		fmt.Fprintf(&b, "active session: %s\n", v.ActiveSessionID)
	}
	return b.String()
}
