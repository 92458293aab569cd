// Package timer is the client half of session tracking: a state machine
// that drives the session service and projects live earnings between
// server round trips.
package timer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/earnings"
)

// DefaultTickInterval is the live projection cadence.
const DefaultTickInterval = time.Second

// Backend is the server side the machine drives.
type Backend interface {
	app.StartSessionUseCase
	app.StopSessionUseCase
	app.PauseSessionUseCase
	app.ActiveSessionUseCase
}

// Live is one projection of the timer. Estimate is unconfirmed while the
// timer runs; after Stop, Confirmed holds the server's totals.
type Live struct {
	State          domain.TimerState
	TaskID         string
	SessionID      string
	StartedAt      time.Time
	ElapsedSeconds int64
	Estimate       domain.Money
	RateMissing    bool
	Confirmed      *app.StopResult
	At             time.Time
}

// Machine is a per-user timer. All methods are safe for concurrent use;
// ticks never perform I/O.
type Machine struct {
	mu        sync.Mutex
	backend   Backend
	userID    string
	clock     domain.Clock
	state     domain.TimerState
	live      *domain.LiveTimerState
	confirmed *app.StopResult
}

// New returns an idle machine for userID. Call Restore to pick up a
// session that is already running on the server.
func New(backend Backend, userID string, clock domain.Clock) *Machine {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Machine{backend: backend, userID: userID, clock: clock, state: domain.TimerIdle}
}

func (m *Machine) State() domain.TimerState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins tracking taskID. From Running or Paused this is a switch:
// a single server call closes the old session and opens the new one.
func (m *Machine) Start(ctx context.Context, taskID string) (*app.StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, err := m.backend.StartSession(ctx, m.userID, taskID, "")
	if err != nil {
		return nil, err
	}
	started := res.Session.StartedAt
	m.live = &domain.LiveTimerState{
		TaskID:       res.Session.TaskID,
		SessionID:    res.Session.ID,
		StartedAt:    started,
		SegmentStart: &started,
		HourlyRate:   res.Session.HourlyRate,
	}
	m.confirmed = res.PriorClosed
	m.state = domain.TimerRunning
	return res, nil
}

// Pause freezes the running segment at the server's pause instant.
func (m *Machine) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.TimerRunning {
		return domain.ConflictError("pause timer", "cannot pause from %s", m.state)
	}
	sess, err := m.backend.PauseSession(ctx, m.userID, m.live.SessionID)
	if err != nil {
		return err
	}
	at := m.clock.Now()
	if open := sess.OpenPause(); open != nil {
		at = open.PausedAt
	}
	m.live.Freeze(at)
	m.state = domain.TimerPaused
	return nil
}

// Resume opens a new running segment at the server's resume instant.
func (m *Machine) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.TimerPaused {
		return domain.ConflictError("resume timer", "cannot resume from %s", m.state)
	}
	sess, err := m.backend.ResumeSession(ctx, m.userID, m.live.SessionID)
	if err != nil {
		return err
	}
	at := m.clock.Now()
	if n := len(sess.Pauses); n > 0 && sess.Pauses[n-1].ResumedAt != nil {
		at = *sess.Pauses[n-1].ResumedAt
	}
	m.live.Thaw(at)
	m.state = domain.TimerRunning
	return nil
}

// Stop ends the session. The server's totals replace the live estimate. On
// failure the machine is left as it was.
func (m *Machine) Stop(ctx context.Context) (*app.StopResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != domain.TimerRunning && m.state != domain.TimerPaused {
		return nil, domain.ConflictError("stop timer", "cannot stop from %s", m.state)
	}
	res, err := m.backend.StopSession(ctx, app.StopRequest{UserID: m.userID, SessionID: m.live.SessionID})
	if err != nil {
		return nil, err
	}
	m.live = nil
	m.confirmed = res
	m.state = domain.TimerStopped
	return res, nil
}

// Clear drops the last confirmed result, moving Stopped to Idle.
func (m *Machine) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == domain.TimerStopped {
		m.state = domain.TimerIdle
		m.confirmed = nil
	}
}

// Restore rebuilds the live state from the user's active session on the
// server, including its pauses. With nothing running the machine goes idle.
func (m *Machine) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, err := m.backend.ActiveSession(ctx, m.userID)
	if errors.Is(err, domain.ErrNotFound) {
		m.live = nil
		if m.state != domain.TimerStopped {
			m.state = domain.TimerIdle
		}
		return nil
	}
	if err != nil {
		return err
	}

	live := &domain.LiveTimerState{
		TaskID:     sess.TaskID,
		SessionID:  sess.ID,
		StartedAt:  sess.StartedAt,
		HourlyRate: sess.HourlyRate,
	}
	if open := sess.OpenPause(); open != nil {
		live.AccumulatedSeconds = earnings.DurationSeconds(sess.StartedAt, open.PausedAt, sess.Pauses)
		m.state = domain.TimerPaused
	} else {
		now := m.clock.Now()
		live.AccumulatedSeconds = earnings.DurationSeconds(sess.StartedAt, now, sess.Pauses)
		live.SegmentStart = &now
		m.state = domain.TimerRunning
	}
	m.live = live
	m.confirmed = nil
	return nil
}

// Tick projects the timer at now.
func (m *Machine) Tick(now time.Time) Live {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Live{State: m.state, Confirmed: m.confirmed, At: now}
	if m.live == nil {
		return out
	}
	out.TaskID = m.live.TaskID
	out.SessionID = m.live.SessionID
	out.StartedAt = m.live.StartedAt
	out.ElapsedSeconds = m.live.ElapsedSeconds(now)
	proj := earnings.Project(out.ElapsedSeconds, m.live.HourlyRate)
	out.Estimate = proj.Amount
	out.RateMissing = proj.RateMissing
	return out
}

// Run calls fn with a fresh projection every interval until ctx is done.
func (m *Machine) Run(ctx context.Context, interval time.Duration, fn func(Live)) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	fn(m.Tick(m.clock.Now()))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(m.Tick(m.clock.Now()))
		}
	}
}
