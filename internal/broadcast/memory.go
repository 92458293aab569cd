package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/alexanderramin/earnclock/internal/metrics"
)

// ErrClosed is returned by a bus after Close.
var ErrClosed = errors.New("broadcast: bus closed")

// MemoryBus fans events out to subscribers inside one process.
type MemoryBus struct {
	mu     sync.Mutex
	subs   map[*memorySub]struct{}
	buffer int
	closed bool
	done   chan struct{}
}

type memorySub struct {
	userID  string
	ch      chan Event
	dropped atomic.Uint64
	once    sync.Once
}

// NewMemoryBus returns an in-process bus. buffer <= 0 uses DefaultBuffer.
func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &MemoryBus{subs: make(map[*memorySub]struct{}), buffer: buffer, done: make(chan struct{})}
}

// Publish queues ev for every subscriber of ev.UserID and every AllUsers
// subscriber. An event addressed to AllUsers reaches every subscriber.
func (b *MemoryBus) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	for s := range b.subs {
		if s.userID != AllUsers && ev.UserID != AllUsers && s.userID != ev.UserID {
			continue
		}
		if deliver(s.ch, &s.dropped, ev) {
			metrics.EventsDropped.Inc()
		}
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Kind)).Inc()
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	s := &memorySub{userID: userID, ch: make(chan Event, b.buffer)}
	b.subs[s] = struct{}{}

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
		}
		b.remove(s)
	}()
	return &Subscription{C: s.ch, cancel: cancel, dropped: &s.dropped}, nil
}

func (b *MemoryBus) remove(s *memorySub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
	s.once.Do(func() { close(s.ch) })
}

// Close ends every subscription.
func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	close(b.done)
	for s := range b.subs {
		delete(b.subs, s)
		s.once.Do(func() { close(s.ch) })
	}
	return nil
}
