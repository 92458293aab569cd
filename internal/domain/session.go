package domain

import (
	"fmt"
	"time"
)

// Session is one contiguous timed work interval against a single task.
// Duration and earnings are never stored on the struct; they are derived
// from StartedAt, EndedAt and Pauses by the earnings package.
type Session struct {
	ID         string
	TaskID     string
	UserID     string
	CategoryID *string
	StartedAt  time.Time
	EndedAt    *time.Time

	// HourlyRate is the category rate captured at start. Nil when the task
	// had no category.
	HourlyRate *Money

	// EarningsUSD is written once, at stop, when HourlyRate is set.
	EarningsUSD *Money

	IsActive  bool
	Notes     string
	Pauses    []Pause
	CreatedAt time.Time
}

// Pause is a sub-range of a session excluded from billable time.
type Pause struct {
	ID        string
	SessionID string
	PausedAt  time.Time
	ResumedAt *time.Time
}

// OpenPause returns the pause that has not been resumed yet, if any.
func (s *Session) OpenPause() *Pause {
	for i := range s.Pauses {
		if s.Pauses[i].ResumedAt == nil {
			return &s.Pauses[i]
		}
	}
	return nil
}

// IsPaused reports whether the session is active with an open pause.
func (s *Session) IsPaused() bool {
	return s.IsActive && s.OpenPause() != nil
}

// RateMissing reports whether no hourly rate was snapshotted at start.
func (s *Session) RateMissing() bool { return s.HourlyRate == nil }

// CheckInvariants verifies the structural rules every persisted session obeys.
func (s *Session) CheckInvariants() error {
	if (s.EndedAt == nil) != s.IsActive {
		return fmt.Errorf("session %s: ended_at/is_active mismatch (active=%v, ended=%v)", s.ID, s.IsActive, s.EndedAt != nil)
	}
	if s.EndedAt != nil && s.EndedAt.Before(s.StartedAt) {
		return fmt.Errorf("session %s: ended_at %s before started_at %s", s.ID, s.EndedAt.Format(time.RFC3339), s.StartedAt.Format(time.RFC3339))
	}
	if s.EarningsUSD != nil && (s.EndedAt == nil || s.HourlyRate == nil) {
		return fmt.Errorf("session %s: earnings set without end time and rate", s.ID)
	}
	if s.EndedAt != nil && s.HourlyRate != nil && s.EarningsUSD == nil {
		return fmt.Errorf("session %s: ended with a rate but no earnings", s.ID)
	}
	open := 0
	for _, p := range s.Pauses {
		if p.ResumedAt == nil {
			open++
		}
		if p.PausedAt.Before(s.StartedAt) {
			return fmt.Errorf("session %s: pause %s starts before the session", s.ID, p.ID)
		}
		if p.ResumedAt != nil && p.ResumedAt.Before(p.PausedAt) {
			return fmt.Errorf("session %s: pause %s resumes before it starts", s.ID, p.ID)
		}
		if s.EndedAt != nil && (p.PausedAt.After(*s.EndedAt) || (p.ResumedAt != nil && p.ResumedAt.After(*s.EndedAt))) {
			return fmt.Errorf("session %s: pause %s extends past the end", s.ID, p.ID)
		}
	}
	if open > 1 {
		return fmt.Errorf("session %s: %d open pauses", s.ID, open)
	}
	if open == 1 && !s.IsActive {
		return fmt.Errorf("session %s: ended with an open pause", s.ID)
	}
	return nil
}

// Close ends the session at endedAt, resuming any open pause at the same
// instant. Pauses are clipped to [StartedAt, endedAt], so a capped close
// leaves no pause time after the end. earnings must be nil exactly when the
// session has no rate.
func (s *Session) Close(endedAt time.Time, earnings *Money) error {
	if !s.IsActive {
		return ConflictError("end session", "session %s already ended", s.ID)
	}
	if endedAt.Before(s.StartedAt) {
		endedAt = s.StartedAt
	}
	for i := range s.Pauses {
		p := &s.Pauses[i]
		if p.PausedAt.After(endedAt) {
			p.PausedAt = endedAt
		}
		if p.ResumedAt == nil || p.ResumedAt.After(endedAt) {
			at := endedAt
			p.ResumedAt = &at
		}
	}
	s.EndedAt = &endedAt
	s.IsActive = false
	s.EarningsUSD = earnings
	return nil
}
