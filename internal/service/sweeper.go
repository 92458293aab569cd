package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/alexanderramin/earnclock/internal/domain"
)

// Sweeper periodically closes abandoned sessions.
type Sweeper struct {
	sessions SessionService
	clock    domain.Clock
	interval time.Duration
	logger   zerolog.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(sessions SessionService, clock domain.Clock, interval time.Duration, logger zerolog.Logger) *Sweeper {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Sweeper{
		sessions: sessions,
		clock:    clock,
		interval: interval,
		logger:   logger.With().Str("component", "sweeper").Logger(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (sw *Sweeper) Start(ctx context.Context) {
	go sw.run(ctx)
	sw.logger.Info().Dur("interval", sw.interval).Msg("Abandoned session sweeper started")
}

// Stop stops the loop and waits for an in-flight sweep to finish.
func (sw *Sweeper) Stop() {
	close(sw.stopChan)
	<-sw.done
	sw.logger.Info().Msg("Abandoned session sweeper stopped")
}

func (sw *Sweeper) run(ctx context.Context) {
	defer close(sw.done)
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sw.SweepOnce(ctx)
		case <-sw.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// SweepOnce closes stale sessions now and returns how many were closed.
func (sw *Sweeper) SweepOnce(ctx context.Context) int {
	res, err := sw.sessions.CloseAbandoned(ctx, sw.clock.Now())
	if err != nil {
		sw.logger.Error().Err(err).Msg("Failed to close abandoned sessions")
		return 0
	}
	for _, c := range res.Closed {
		sw.logger.Info().
			Str("session_id", c.SessionID).
			Time("ended_at", c.EndedAt).
			Int64("duration_seconds", c.DurationSeconds).
			Msg("Closed abandoned session")
	}
	return len(res.Closed)
}
