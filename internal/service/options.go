package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/alexanderramin/earnclock/internal/broadcast"
	"github.com/alexanderramin/earnclock/internal/domain"
)

// DefaultMaxSessionDuration caps abandoned sessions when they are auto-closed.
const DefaultMaxSessionDuration = 12 * time.Hour

type settings struct {
	clock       domain.Clock
	location    *time.Location
	weekStart   time.Weekday
	maxDuration time.Duration
	publisher   broadcast.Publisher
	observer    UseCaseObserver
	logger      zerolog.Logger
}

func defaultSettings() settings {
	return settings{
		clock:       domain.SystemClock{},
		location:    time.Local,
		weekStart:   time.Monday,
		maxDuration: DefaultMaxSessionDuration,
		observer:    NoopUseCaseObserver{},
		logger:      zerolog.Nop(),
	}
}

// Option configures a service.
type Option func(*settings)

func WithClock(c domain.Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLocation sets the calendar used for day/week/month windows and streak
// days when the caller does not supply one.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithWeekStart(d time.Weekday) Option {
	return func(s *settings) { s.weekStart = d }
}

// WithMaxSessionDuration sets the cutoff applied to auto-closed sessions.
// Zero disables the cutoff.
func WithMaxSessionDuration(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.maxDuration = d
		}
	}
}

func WithPublisher(p broadcast.Publisher) Option {
	return func(s *settings) { s.publisher = p }
}

func WithObserver(o UseCaseObserver) Option {
	return func(s *settings) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

func newSettings(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// now reads the clock at storage precision.
func (s *settings) now() time.Time {
	return s.clock.Now().UTC().Truncate(time.Second)
}
