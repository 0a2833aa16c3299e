package connector

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/zenohflow/runtime/internal/zferrors"
)

// RedisBus implements Bus on top of Redis Pub/Sub, the same transport
// the teacher's cmd/fanout RedisSubscriber uses to fan workflow events
// out to websocket clients, here repurposed to fan dataflow items out
// to other runtime instances.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus wraps an existing Redis client.
func NewRedisBus(client *redis.Client) *RedisBus {
	return &RedisBus{client: client}
}

// Publish implements Bus.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := b.client.Publish(ctx, topic, payload).Err(); err != nil {
		return zferrors.Wrap(zferrors.SendError, err, "redis publish to %q", topic)
	}
	return nil
}

// Subscribe implements Bus.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, topic)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, zferrors.Wrap(zferrors.RecvError, err, "redis subscribe to %q", topic)
	}
	return &redisSubscription{pubsub: pubsub, ch: pubsub.Channel()}, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	ch     <-chan *redis.Message
}

func (s *redisSubscription) Recv(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-s.ch:
		if !ok {
			return nil, zferrors.New(zferrors.RecvError, "redis subscription closed")
		}
		return []byte(msg.Payload), nil
	}
}

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}
