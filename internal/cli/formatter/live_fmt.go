package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/reconcile"
)

// FormatLive renders the watch view: the ticking timer over the merged
// totals. Estimated figures are marked with "~" until the server confirms
// them.
func FormatLive(d reconcile.Display, taskLabel string) string {
	var b strings.Builder

	live := d.Live
	b.WriteString(StateIndicator(live.State))
	if taskLabel != "" && live.State != domain.TimerIdle {
		b.WriteString("  " + Bold(taskLabel))
	}
	b.WriteString("\n\n")

	switch live.State {
	case domain.TimerRunning, domain.TimerPaused:
		earned := FormatMoney(live.Estimate)
		if live.RateMissing {
			earned = Dim("no rate")
		} else {
			earned = StyleMoney.Render("~" + earned)
		}
		fmt.Fprintf(&b, "  %s   %s\n", StyleBold.Render(FormatClock(live.ElapsedSeconds)), earned)
	case domain.TimerStopped:
		if c := live.Confirmed; c != nil {
			fmt.Fprintf(&b, "  %s   %s\n", StyleBold.Render(FormatClock(c.DurationSeconds)),
				StyleMoney.Render(FormatMoney(c.EarningsUSD)))
		}
	default:
		b.WriteString(Dim("  no timer running") + "\n")
	}
	b.WriteString("\n")

	mark := ""
	if d.Estimated {
		mark = "~"
	}
	rows := [][]string{
		{"today", mark + FormatMoney(d.Today.Earnings), FormatDuration(d.Today.Seconds)},
		{"week", mark + FormatMoney(d.Week.Earnings), FormatDuration(d.Week.Seconds)},
		{"month", mark + FormatMoney(d.Month.Earnings), FormatDuration(d.Month.Seconds)},
		{"lifetime", mark + FormatMoney(d.Lifetime.Earnings), FormatDuration(d.Lifetime.Seconds)},
	}
	b.WriteString(RenderTable([]string{"WINDOW", "EARNED", "TIME"}, rows, 1, 2))

	if d.TargetBalance > 0 {
		fmt.Fprintf(&b, "\n%s %s\n", Dim("target"), RenderProgress(d.ProgressPercentage, summaryProgressBarWidth))
	}
	if d.CurrentStreakDays > 0 {
		fmt.Fprintf(&b, "%s %s\n", Dim("streak"), StyleYellow.Render(fmt.Sprintf("%d days", d.CurrentStreakDays)))
	}
	return b.String()
}
