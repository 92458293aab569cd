package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/alexanderramin/earnclock/internal/metrics"
)

// RedisConfig configures the cross-process bus.
type RedisConfig struct {
	Addr          string
	Password      string
	DB            int
	ChannelPrefix string
	Buffer        int
}

// RedisBus carries events between processes over Redis Pub/Sub. Each
// account publishes on its own channel, "<prefix>:events:<user>".
type RedisBus struct {
	client *redis.Client
	prefix string
	buffer int
	logger zerolog.Logger
}

// NewRedisBus connects to Redis and verifies the connection.
func NewRedisBus(cfg RedisConfig, logger zerolog.Logger) (*RedisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := cfg.ChannelPrefix
	if prefix == "" {
		prefix = "earnclock"
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &RedisBus{
		client: client,
		prefix: prefix,
		buffer: buffer,
		logger: logger.With().Str("component", "broadcast").Logger(),
	}, nil
}

func (b *RedisBus) channel(userID string) string {
	if userID == AllUsers {
		return b.prefix + ":events:*"
	}
	return b.prefix + ":events:" + userID
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel(ev.UserID), data).Err(); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	metrics.EventsPublished.WithLabelValues(string(ev.Kind)).Inc()
	return nil
}

func (b *RedisBus) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	var ps *redis.PubSub
	if userID == AllUsers {
		ps = b.client.PSubscribe(ctx, b.channel(userID))
	} else {
		ps = b.client.Subscribe(ctx, b.channel(userID))
	}
	// Wait for the server to confirm so no event published after
	// Subscribe returns can be missed.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing to events: %w", err)
	}

	out := make(chan Event, b.buffer)
	dropped := new(atomic.Uint64)
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.logger.Warn().Err(err).Str("channel", msg.Channel).Msg("Discarding malformed event")
					continue
				}
				if deliver(out, dropped, ev) {
					metrics.EventsDropped.Inc()
				}
			}
		}
	}()
	return &Subscription{C: out, cancel: cancel, dropped: dropped}, nil
}

// Close closes the Redis connection pool.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
