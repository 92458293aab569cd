package domain

import "time"

// LiveTimerState is the client-held view of an in-progress session.
// SegmentStart is nil while paused; AccumulatedSeconds holds everything
// counted before the current running segment.
type LiveTimerState struct {
	TaskID             string
	SessionID          string
	StartedAt          time.Time
	SegmentStart       *time.Time
	AccumulatedSeconds int64
	HourlyRate         *Money
}

// ElapsedSeconds returns billable seconds as of now.
func (l *LiveTimerState) ElapsedSeconds(now time.Time) int64 {
	elapsed := l.AccumulatedSeconds
	if l.SegmentStart != nil && now.After(*l.SegmentStart) {
		elapsed += int64(now.Sub(*l.SegmentStart) / time.Second)
	}
	return elapsed
}

// Freeze folds the running segment into AccumulatedSeconds.
func (l *LiveTimerState) Freeze(now time.Time) {
	l.AccumulatedSeconds = l.ElapsedSeconds(now)
	l.SegmentStart = nil
}

// Thaw opens a new running segment at now.
func (l *LiveTimerState) Thaw(now time.Time) {
	l.SegmentStart = &now
}
