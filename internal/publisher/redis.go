// Package publisher fans verified Stripe events out to downstream consumers
// over Redis Streams. Delivery is at-least-once; consumers dedupe on event_id.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/harshpatel5940/stripevigil/internal/webhook"
)

const DefaultStream = "stripe-events"

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	Stream   string
	// MaxLen caps the stream length with approximate trimming. Zero disables trimming.
	MaxLen int64
}

type RedisPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisPublisher(ctx context.Context, cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisPublisher(client, cfg), nil
}

func newRedisPublisher(client *redis.Client, cfg RedisConfig) *RedisPublisher {
	stream := cfg.Stream
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisPublisher{client: client, stream: stream, maxLen: cfg.MaxLen}
}

// Publish appends the event to the stream.
func (p *RedisPublisher) Publish(ctx context.Context, event *webhook.Event, receivedAt time.Time) error {
	object, err := json.Marshal(event.Object)
	if err != nil {
		return fmt.Errorf("failed to encode event object: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		ID:     "*",
		Values: map[string]interface{}{
			"event_id":    event.ID,
			"type":        event.Type,
			"kind":        event.Kind.String(),
			"object":      string(object),
			"received_at": receivedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", p.stream, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
