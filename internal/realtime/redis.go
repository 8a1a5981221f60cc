package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/api-playground-backend/internal/observability"
)

type relayEnvelope struct {
	ID    string `json:"id"`
	Topic string `json:"topic"`
	Data  string `json:"data"`
}

// RedisBroadcaster publishes updates on a shared Redis channel so that the
// RedisRelay of every replica can deliver them to its local subscribers.
type RedisBroadcaster struct {
	client  redis.UniversalClient
	channel string
}

func NewRedisBroadcaster(client redis.UniversalClient, prefix string) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, channel: relayChannel(prefix)}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, topic string, payload []byte) (string, error) {
	env := relayEnvelope{ID: newMessageID(), Topic: topic, Data: string(payload)}
	encoded, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode relay envelope: %w", err)
	}
	receivers, err := b.client.Publish(ctx, b.channel, encoded).Result()
	if err != nil {
		observability.RecordBroadcastFanout(ctx, "redis", "error", 0)
		return "", fmt.Errorf("redis publish: %w", err)
	}
	observability.RecordBroadcastFanout(ctx, "redis", "published", int(receivers))
	return env.ID, nil
}

// RedisRelay forwards updates from the Redis channel into a local Hub.
type RedisRelay struct {
	client  redis.UniversalClient
	channel string
	hub     *Hub
	logger  *slog.Logger
	ready   chan struct{}
}

func NewRedisRelay(client redis.UniversalClient, prefix string, hub *Hub, logger *slog.Logger) *RedisRelay {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisRelay{
		client:  client,
		channel: relayChannel(prefix),
		hub:     hub,
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Ready is closed once the subscription is confirmed by Redis.
func (r *RedisRelay) Ready() <-chan struct{} { return r.ready }

// Run blocks until ctx is cancelled or the subscription fails.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = pubsub.Close() }()
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	close(r.ready)
	r.logger.Info("realtime redis relay subscribed", "channel", r.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env relayEnvelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				r.logger.Warn("dropping malformed relay message", "error", err)
				continue
			}
			delivered := r.hub.Deliver(Message{ID: env.ID, Topic: env.Topic, Payload: []byte(env.Data)})
			observability.RecordBroadcastFanout(ctx, "redis_relay", "delivered", delivered)
		}
	}
}

func relayChannel(prefix string) string {
	if prefix == "" {
		prefix = "playground"
	}
	return prefix + ":realtime"
}
