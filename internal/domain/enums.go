package domain

// Window names a calendar aggregation range.
type Window string

const (
	WindowToday    Window = "today"
	WindowWeek     Window = "week"
	WindowMonth    Window = "month"
	WindowLifetime Window = "lifetime"
)

// ValidWindows is the canonical set of accepted window names.
var ValidWindows = map[Window]bool{
	WindowToday: true, WindowWeek: true, WindowMonth: true, WindowLifetime: true,
}

// TimerState is a state of the client-side timer.
type TimerState string

const (
	TimerIdle    TimerState = "idle"
	TimerRunning TimerState = "running"
	TimerPaused  TimerState = "paused"
	TimerStopped TimerState = "stopped"
)
