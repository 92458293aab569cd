package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/contract"
	"github.com/alexanderramin/earnclock/internal/domain"
)

// FormatSessionPage renders one page of history, newest first.
func FormatSessionPage(p contract.SessionPageResponse, now time.Time) string {
	if len(p.Rows) == 0 {
		return "No sessions found.\n"
	}

	headers := []string{"ID", "TASK", "STARTED", "DURATION", "RATE", "EARNED", "STATE"}
	rows := make([][]string, 0, len(p.Rows))
	for _, s := range p.Rows {
		state := Dim("done")
		switch {
		case s.Paused:
			state = StyleYellow.Render("paused")
		case s.IsActive:
			state = StyleGreen.Render("running")
		}
		earned := FormatMoney(s.EarningsUSD)
		if s.RateMissing {
			earned = Dim(earned)
		}
		rows = append(rows, []string{
			TruncID(s.ID),
			TruncID(s.TaskID),
			HumanTimestampFrom(s.StartedAt, now),
			FormatDuration(s.DurationSeconds),
			FormatRate(s.HourlyRateUSD),
			earned,
			state,
		})
	}

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows, 3, 4, 5))
	pages := (p.TotalCount + p.PageSize - 1) / max(p.PageSize, 1)
	b.WriteString("\n" + Dim(fmt.Sprintf("Page %d of %d · %d sessions", p.Page, max(pages, 1), p.TotalCount)))
	return RenderBox("Sessions", b.String())
}

// FormatStarted reports a started session and, after a switch, the one it
// closed.
func FormatStarted(res contract.StartSessionResponse) string {
	var b strings.Builder
	if res.PriorSessionClosed != nil {
		b.WriteString(FormatStopped(res.PriorSessionClosed))
	}
	fmt.Fprintf(&b, "%s session %s at %s\n",
		StateIndicator(domain.TimerRunning), TruncID(res.SessionID), FormatRate(res.HourlyRateUSD))
	if res.RateMissing {
		b.WriteString(StyleYellow.Render("  task has no category rate; this session earns nothing") + "\n")
	}
	return b.String()
}

// FormatStopped reports the server-confirmed totals of a closed session.
func FormatStopped(res *app.StopResult) string {
	earned := StyleMoney.Render(FormatMoney(res.EarningsUSD))
	if res.RateMissing {
		earned = Dim(FormatMoney(res.EarningsUSD) + " (no rate)")
	}
	return fmt.Sprintf("%s session %s · %s · %s\n",
		StateIndicator(domain.TimerStopped), TruncID(res.SessionID), FormatDuration(res.DurationSeconds), earned)
}
