package broadcast

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var at = time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)

func recv(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev, ok := <-sub.C:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func assertNoEvent(t *testing.T, sub *Subscription) {
	t.Helper()
	select {
	case ev := <-sub.C:
		t.Fatalf("unexpected event %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryBus_FansOutToSameUser(t *testing.T) {
	bus := NewMemoryBus(0)
	defer bus.Close()
	ctx := context.Background()

	a, err := bus.Subscribe(ctx, "u1")
	require.NoError(t, err)
	b, err := bus.Subscribe(ctx, "u1")
	require.NoError(t, err)
	other, err := bus.Subscribe(ctx, "u2")
	require.NoError(t, err)
	all, err := bus.Subscribe(ctx, AllUsers)
	require.NoError(t, err)

	ev := Event{Kind: SessionStarted, UserID: "u1", SessionID: "s1", At: at}
	require.NoError(t, bus.Publish(ctx, ev))

	assert.Equal(t, ev, recv(t, a))
	assert.Equal(t, ev, recv(t, b))
	assert.Equal(t, ev, recv(t, all))
	assertNoEvent(t, other)
}

func TestMemoryBus_OverflowDropsOldest(t *testing.T) {
	bus := NewMemoryBus(2)
	defer bus.Close()
	ctx := context.Background()

	sub, err := bus.Subscribe(ctx, "u1")
	require.NoError(t, err)

	for _, id := range []string{"s1", "s2", "s3"} {
		require.NoError(t, bus.Publish(ctx, Event{Kind: SessionStarted, UserID: "u1", SessionID: id, At: at}))
	}
	assert.Equal(t, "s2", recv(t, sub).SessionID)
	assert.Equal(t, "s3", recv(t, sub).SessionID)
	assert.Equal(t, uint64(1), sub.Dropped())
}

func TestMemoryBus_DropCountVisibleWithLaterEvent(t *testing.T) {
	bus := NewMemoryBus(1)
	defer bus.Close()
	ctx := context.Background()

	all, err := bus.Subscribe(ctx, AllUsers)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, Event{Kind: SessionStopped, UserID: "u2", At: at}))
	require.NoError(t, bus.Publish(ctx, Event{Kind: SessionStopped, UserID: "u1", At: at}))

	assert.Equal(t, "u1", recv(t, all).UserID)
	assert.Equal(t, uint64(1), all.Dropped(), "u2's event was lost")
}

func TestMemoryBus_AllUsersEventReachesEverySubscriber(t *testing.T) {
	bus := NewMemoryBus(0)
	defer bus.Close()
	ctx := context.Background()

	u1, err := bus.Subscribe(ctx, "u1")
	require.NoError(t, err)
	u2, err := bus.Subscribe(ctx, "u2")
	require.NoError(t, err)

	ev := Event{Kind: Resync, UserID: AllUsers, At: at}
	require.NoError(t, bus.Publish(ctx, ev))
	assert.Equal(t, ev, recv(t, u1))
	assert.Equal(t, ev, recv(t, u2))
	assert.Equal(t, uint64(0), u1.Dropped())
}

func TestMemoryBus_CancelClosesChannel(t *testing.T) {
	bus := NewMemoryBus(0)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := bus.Subscribe(ctx, "u1")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
	require.NoError(t, bus.Publish(context.Background(), Event{Kind: SessionStopped, UserID: "u1", At: at}))
}

func TestMemoryBus_ClosedRejects(t *testing.T) {
	bus := NewMemoryBus(0)
	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Publish(context.Background(), Event{UserID: "u1"}), ErrClosed)
	_, err := bus.Subscribe(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrClosed)
}

func setupRedisBus(t *testing.T) (*RedisBus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	bus, err := NewRedisBus(RedisConfig{Addr: mr.Addr(), ChannelPrefix: "test"}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus, mr
}

func TestRedisBus_PublishSubscribe(t *testing.T) {
	bus, _ := setupRedisBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx, "u1")
	require.NoError(t, err)
	all, err := bus.Subscribe(ctx, AllUsers)
	require.NoError(t, err)

	ev := Event{Kind: SessionStopped, UserID: "u1", SessionID: "s1", At: at}
	require.NoError(t, bus.Publish(ctx, ev))

	got := recv(t, sub)
	assert.Equal(t, ev.Kind, got.Kind)
	assert.Equal(t, ev.SessionID, got.SessionID)
	assert.True(t, ev.At.Equal(got.At))

	assert.Equal(t, "u1", recv(t, all).UserID)
}

func TestRedisBus_ScopedByUser(t *testing.T) {
	bus, _ := setupRedisBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := bus.Subscribe(ctx, "u2")
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, Event{Kind: SessionStarted, UserID: "u1", At: at}))
	assertNoEvent(t, sub)
}

func TestRedisBus_CloseSubscriptionEndsStream(t *testing.T) {
	bus, _ := setupRedisBus(t)

	sub, err := bus.Subscribe(context.Background(), "u1")
	require.NoError(t, err)
	sub.Close()

	select {
	case _, ok := <-sub.C:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed")
	}
}

func TestNewRedisBus_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisBus(RedisConfig{Addr: addr}, zerolog.Nop())
	assert.Error(t, err)
}
