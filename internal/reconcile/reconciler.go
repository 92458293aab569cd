// Package reconcile is the shared store every observer of an account reads
// from. It caches confirmed summaries and drops them when the account
// changes, then tells observers to re-read. Local writers publish through
// the Reconciler itself, so their change is visible to the next read; other
// processes' changes arrive over the bus.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/alexanderramin/earnclock/internal/app"
	"github.com/alexanderramin/earnclock/internal/broadcast"
	"github.com/alexanderramin/earnclock/internal/domain"
	"github.com/alexanderramin/earnclock/internal/metrics"
)

// DefaultCacheSize is the number of accounts whose summaries are cached.
const DefaultCacheSize = 256

type cached struct {
	summary *app.Summary
	// validUntil is the end of the summary's day; windows shift after it.
	validUntil time.Time
}

// Feed is the bus the Reconciler forwards local changes to and reads every
// account's changes from.
type Feed interface {
	broadcast.Publisher
	broadcast.Subscriber
}

// Reconciler owns the only summary cache in the process. It is also a
// broadcast.Publisher: services publish through it after commit.
type Reconciler struct {
	source app.SummaryUseCase
	bus    Feed
	clock  domain.Clock
	logger zerolog.Logger

	cache  *lru.Cache[string, cached]
	fanout *broadcast.MemoryBus

	// gen counts invalidations per user and epoch counts full purges, so a
	// read that raced a change is not cached.
	mu    sync.Mutex
	gen   map[string]uint64
	epoch uint64
}

var _ broadcast.Publisher = (*Reconciler)(nil)

// New builds a reconciler reading confirmed state from source and change
// notifications from bus. Call Run to start consuming the bus.
func New(source app.SummaryUseCase, bus Feed, size int, clock domain.Clock, logger zerolog.Logger) (*Reconciler, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cached](size)
	if err != nil {
		return nil, fmt.Errorf("creating summary cache: %w", err)
	}
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Reconciler{
		source: source,
		bus:    bus,
		clock:  clock,
		logger: logger.With().Str("component", "reconciler").Logger(),
		cache:  cache,
		fanout: broadcast.NewMemoryBus(0),
		gen:    make(map[string]uint64),
	}, nil
}

// Summary returns the confirmed summary for userID as of now, from cache
// when it is still current.
func (r *Reconciler) Summary(ctx context.Context, userID string) (*app.Summary, error) {
	now := r.clock.Now()

	if entry, ok := r.cache.Get(userID); ok && now.Before(entry.validUntil) {
		metrics.SummaryCacheHits.Inc()
		return entry.summary, nil
	}
	metrics.SummaryCacheMisses.Inc()

	r.mu.Lock()
	gen, epoch := r.gen[userID], r.epoch
	r.mu.Unlock()

	summary, err := r.source.GetSummary(ctx, app.NewSummaryRequest(userID))
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.gen[userID] == gen && r.epoch == epoch {
		r.cache.Add(userID, cached{summary: summary, validUntil: summary.Today.End})
	}
	r.mu.Unlock()
	return summary, nil
}

// Invalidate drops the cached summary for userID.
func (r *Reconciler) Invalidate(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gen[userID]++
	r.cache.Remove(userID)
}

// InvalidateAll drops every cached summary.
func (r *Reconciler) InvalidateAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	r.cache.Purge()
}

// Publish drops ev.UserID's cached summary and forwards ev to the bus. The
// drop happens before Publish returns, so the writer's next read is fresh.
func (r *Reconciler) Publish(ctx context.Context, ev broadcast.Event) error {
	r.Invalidate(ev.UserID)
	return r.bus.Publish(ctx, ev)
}

// Observe returns a feed of change notifications for userID. Each event is
// delivered after the cache entry it concerns has been dropped, so a
// Summary call made in response sees the new state.
func (r *Reconciler) Observe(ctx context.Context, userID string) (*broadcast.Subscription, error) {
	return r.fanout.Subscribe(ctx, userID)
}

// Run consumes the bus until ctx is done or the bus closes its feed. When
// the feed reports lost events the whole cache is dropped and every
// observer is told to resync, since the lost events may concern any account.
func (r *Reconciler) Run(ctx context.Context) error {
	sub, err := r.bus.Subscribe(ctx, broadcast.AllUsers)
	if err != nil {
		return fmt.Errorf("subscribing to change stream: %w", err)
	}
	defer sub.Close()
	r.logger.Debug().Msg("Reconciler listening for account changes")

	var seen uint64
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sub.C:
			if !ok {
				return nil
			}
			if dropped := sub.Dropped(); dropped != seen {
				r.logger.Warn().Uint64("dropped", dropped-seen).Msg("Change events lost, resyncing all accounts")
				seen = dropped
				r.InvalidateAll()
				r.notify(ctx, broadcast.Event{Kind: broadcast.Resync, UserID: broadcast.AllUsers, At: r.clock.Now()})
			}
			r.Invalidate(ev.UserID)
			r.notify(ctx, ev)
		}
	}
}

func (r *Reconciler) notify(ctx context.Context, ev broadcast.Event) {
	if err := r.fanout.Publish(ctx, ev); err != nil {
		r.logger.Warn().Err(err).Str("user_id", ev.UserID).Msg("Failed to notify observers")
	}
}

// Close ends every observer feed.
func (r *Reconciler) Close() error {
	return r.fanout.Close()
}
