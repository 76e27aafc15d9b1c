package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sellerhub/payouts/pkg/domain/common"
	"github.com/sellerhub/payouts/pkg/eventbus"
)

// RedisEventBus implements the Bus contract on Redis Streams, fanning
// ledger change notifications out to other processes (admin clients,
// seller clients) observing the same stores.
type RedisEventBus struct {
	client        *redis.Client
	stream        string
	group         string
	typeFactories map[string]func() common.Event
	logger        *slog.Logger
}

// NewWithRedis creates a Redis-backed event bus.
// url: Redis connection URL (e.g., "redis://localhost:6379")
// stream: stream name shared by all publishers
// group: consumer group for this process
// types: factories producing an empty event value per type, used to
// decode envelopes back into concrete events.
func NewWithRedis(url, stream, group string, types map[string]func() common.Event, logger *slog.Logger) (*RedisEventBus, error) {
	if url == "" || stream == "" || group == "" {
		return nil, errors.New("redis event bus: url, stream, and group are required")
	}

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}

	bus := &RedisEventBus{
		client:        client,
		stream:        stream,
		group:         group,
		typeFactories: types,
		logger:        logger.With("bus", "redis"),
	}
	return bus, nil
}

// groupFor names the consumer group for one event type. Each type gets
// its own group so every group sees the full stream and no type's
// messages are load-balanced away to a consumer that filters them.
func (b *RedisEventBus) groupFor(eventType string) string {
	return b.group + ":" + eventType
}

// Emit publishes an event to the stream.
func (b *RedisEventBus) Emit(ctx context.Context, event common.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis event bus: marshal failed: %w", err)
	}
	envBytes, err := json.Marshal(envelope{Type: event.Type(), Payload: data})
	if err != nil {
		return fmt.Errorf("redis event bus: envelope marshal failed: %w", err)
	}

	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(envBytes)},
	}).Err(); err != nil {
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	return nil
}

// Register starts a consumer goroutine for the event type. The returned
// unsubscribe hook stops the consumer.
func (b *RedisEventBus) Register(eventType string, handler eventbus.HandlerFunc) eventbus.UnsubscribeFunc {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := fmt.Sprintf("consumer-%s-%d", eventType, time.Now().UnixNano())
	b.logger.Info("registering handler", "event_type", eventType, "consumer", consumer)

	_ = b.client.XGroupCreateMkStream(context.Background(), b.stream, b.groupFor(eventType), "0")
	go b.consume(ctx, consumer, eventType, handler)
	return func() { cancel() }
}

func (b *RedisEventBus) consume(ctx context.Context, consumer, eventType string, handler eventbus.HandlerFunc) {
	for {
		if ctx.Err() != nil {
			return
		}
		res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.groupFor(eventType),
			Consumer: consumer,
			Streams:  []string{b.stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if !errors.Is(err, redis.Nil) {
				b.logger.Error("error reading from stream", "error", err, "consumer", consumer)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				b.dispatch(ctx, msg, eventType, handler)
			}
		}
	}
}

// dispatch handles one delivered message. Every message is
// acknowledged in this group: other types' messages are skipped and
// undeliverable ones land in the DLQ, so nothing lingers pending.
func (b *RedisEventBus) dispatch(ctx context.Context, msg redis.XMessage, eventType string, handler eventbus.HandlerFunc) {
	defer func() {
		if err := b.client.XAck(ctx, b.stream, b.groupFor(eventType), msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
		}
	}()

	raw, ok := msg.Values["event"].(string)
	if !ok {
		b.logger.Error("message without event field", "msg_id", msg.ID)
		b.pushToDLQ(ctx, msg.Values)
		return
	}

	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		b.logger.Error("failed to unmarshal envelope", "error", err)
		b.pushToDLQ(ctx, msg.Values)
		return
	}
	if env.Type != eventType {
		return
	}

	evt, err := decodeEvent([]byte(raw), b.typeFactories)
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "event_type", env.Type)
		b.pushToDLQ(ctx, msg.Values)
		return
	}

	if err := handler(ctx, evt); err != nil {
		b.logger.Error("handler error", "error", err, "event_type", env.Type)
		b.pushToDLQ(ctx, msg.Values)
	}
}

// pushToDLQ moves an undeliverable message to a side stream for
// inspection or reprocessing.
func (b *RedisEventBus) pushToDLQ(ctx context.Context, values map[string]any) {
	dlq := b.stream + "-DLQ"
	if err := b.client.XAdd(ctx, &redis.XAddArgs{Stream: dlq, Values: values}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlq)
	}
}

// Close releases the Redis connection.
func (b *RedisEventBus) Close() error {
	return b.client.Close()
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
