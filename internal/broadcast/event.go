// Package broadcast carries account change notifications from the writers
// (session, ledger and catalog mutations) to every observer of the same
// account, in-process or across processes.
package broadcast

import (
	"context"
	"sync/atomic"
	"time"
)

// EventKind names what changed.
type EventKind string

const (
	SessionStarted    EventKind = "session_started"
	SessionStopped    EventKind = "session_stopped"
	SessionAutoClosed EventKind = "session_auto_closed"
	SessionPaused     EventKind = "session_paused"
	SessionResumed    EventKind = "session_resumed"
	TargetUpdated     EventKind = "target_updated"
	CatalogChanged    EventKind = "catalog_changed"

	// Resync tells observers that notifications were lost and every
	// account view must be re-read.
	Resync EventKind = "resync"
)

// Event is a change notification. It carries identifiers only; observers
// re-read confirmed state rather than trusting a payload.
type Event struct {
	Kind      EventKind `json:"kind"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id,omitempty"`
	At        time.Time `json:"at"`
}

// AllUsers subscribes to events of every account.
const AllUsers = ""

// Publisher sends events after the originating transaction has committed.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber delivers events for one user, or for all users with AllUsers.
// The subscription ends when ctx is cancelled or Close is called.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (*Subscription, error)
}

// Bus is both ends of the change stream.
type Bus interface {
	Publisher
	Subscriber
	Close() error
}

// Subscription is a live event feed. C is closed when the subscription ends.
type Subscription struct {
	C       <-chan Event
	cancel  func()
	dropped *atomic.Uint64
}

// Dropped counts events discarded because C was full. The count is raised
// before the event that displaced them is queued, so a reader sees it no
// later than that event.
func (s *Subscription) Dropped() uint64 {
	if s == nil || s.dropped == nil {
		return 0
	}
	return s.dropped.Load()
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// DefaultBuffer is the per-subscriber queue depth.
const DefaultBuffer = 64

// deliver enqueues ev on ch, discarding the oldest queued event when the
// subscriber is full. Each discard is counted on dropped before ev is
// queued. Reports whether anything was dropped.
func deliver(ch chan Event, dropped *atomic.Uint64, ev Event) bool {
	var n uint64
	for {
		select {
		case ch <- ev:
			return n > 0
		default:
		}
		select {
		case <-ch:
			n++
			dropped.Add(1)
		default:
		}
	}
}
