package service

import (
	"time"

	"github.com/alexanderramin/earnclock/internal/domain"
)

// calendar resolves window boundaries in one location.
type calendar struct {
	loc       *time.Location
	weekStart time.Weekday
}

// farFuture bounds the lifetime window.
var farFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// bounds returns the half-open [start, end) range of w containing now.
// Day arithmetic goes through time.Date so DST days keep their civil length.
func (c calendar) bounds(w domain.Window, now time.Time) (time.Time, time.Time) {
	n := now.In(c.loc)
	y, m, d := n.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, c.loc)

	switch w {
	case domain.WindowToday:
		return dayStart, time.Date(y, m, d+1, 0, 0, 0, 0, c.loc)
	case domain.WindowWeek:
		offset := (int(n.Weekday()) - int(c.weekStart) + 7) % 7
		start := time.Date(y, m, d-offset, 0, 0, 0, 0, c.loc)
		return start, time.Date(y, m, d-offset+7, 0, 0, 0, 0, c.loc)
	case domain.WindowMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, c.loc), time.Date(y, m+1, 1, 0, 0, 0, 0, c.loc)
	default:
		return time.Time{}, farFuture
	}
}

// contains reports whether t lies in [start, end).
func contains(start, end, t time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
