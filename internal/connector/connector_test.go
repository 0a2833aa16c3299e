package connector

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zenohflow/runtime/internal/channel"
	"github.com/zenohflow/runtime/internal/descriptor"
)

// fakeBus is an in-memory Bus used to exercise ZenohSender/ZenohReceiver
// without a real Redis instance.
type fakeBus struct {
	mu   sync.Mutex
	subs map[string][]chan []byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[string][]chan []byte)}
}

func (b *fakeBus) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[topic] {
		ch <- payload
	}
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], ch)
	b.mu.Unlock()
	return &fakeSubscription{ch: ch}, nil
}

type fakeSubscription struct {
	ch chan []byte
}

func (s *fakeSubscription) Recv(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case payload := <-s.ch:
		return payload, nil
	}
}

func (s *fakeSubscription) Close() error { return nil }

func TestTopicFormat(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	topic := Topic(descriptor.FlowID("f1"), id, descriptor.LinkID("l1"))
	assert.Equal(t, "zflow/f1/00000000-0000-0000-0000-000000000001/l1", topic)
}

func TestSenderReceiverRoundTrip(t *testing.T) {
	bus := newFakeBus()
	topic := "zflow/f1/inst/l1"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	receiver := NewZenohReceiver(bus, topic)
	received := make(chan channel.Item, 1)
	go func() {
		_ = receiver.Run(ctx, func(item channel.Item) error {
			received <- item
			return nil
		})
	}()

	// Give the receiver a moment to subscribe before the sender publishes.
	time.Sleep(10 * time.Millisecond)

	sender := NewZenohSender(bus, topic)
	require.NoError(t, sender.Send(ctx, channel.Item{Timestamp: 42, Data: map[string]interface{}{"value": 7.0}}))

	select {
	case item := <-received:
		assert.Equal(t, uint64(42), item.Timestamp)
		assert.Equal(t, map[string]interface{}{"value": 7.0}, item.Data)
	case <-ctx.Done():
		t.Fatal("receiver never observed the published message")
	}
}

func TestSenderReceiverMultipleMessages(t *testing.T) {
	bus := newFakeBus()
	topic := "zflow/f1/inst/l2"

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	receiver := NewZenohReceiver(bus, topic)
	var mu sync.Mutex
	var seen []interface{}
	done := make(chan struct{})
	go func() {
		_ = receiver.Run(ctx, func(item channel.Item) error {
			mu.Lock()
			seen = append(seen, item.Data)
			if len(seen) == 3 {
				close(done)
			}
			mu.Unlock()
			return nil
		})
	}()

	time.Sleep(10 * time.Millisecond)

	sender := NewZenohSender(bus, topic)
	for i := 0; i < 3; i++ {
		require.NoError(t, sender.Send(ctx, channel.Item{Data: float64(i)}))
	}

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("receiver did not observe all messages")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []interface{}{0.0, 1.0, 2.0}, seen)
}
