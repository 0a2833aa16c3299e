// Package channel implements the dataflow's channel fabric: an unbounded
// MPMC primitive plus the per-port Output/Input aggregators that give a
// node's ports fan-out (many links reading one output) and fan-in (many
// links feeding one input) semantics on top of Go's bounded native
// channels.
package channel

import (
	"context"
	"sync"

	"github.com/zenohflow/runtime/internal/zferrors"
)

// item is the unit of data flowing through a link, carrying its
// producer's HLC timestamp alongside the payload so downstream consumers
// and connectors can forward both without reaching back into the source.
type Item struct {
	Timestamp uint64
	Data      interface{}
}

// UnboundedChan is a single-producer-capable, single-consumer-capable
// unbounded channel: sends never block on a full buffer (there is no
// capacity limit), matching the spec's requirement that a link never
// applies backpressure by default. It is built from a mutex-guarded
// queue and a signal channel rather than a native Go channel, since
// native channels are always capacity-bounded.
type UnboundedChan struct {
	mu     sync.Mutex
	queue  []Item
	signal chan struct{}
	closed bool
}

// NewUnboundedChan creates an empty, open channel.
func NewUnboundedChan() *UnboundedChan {
	return &UnboundedChan{signal: make(chan struct{}, 1)}
}

// Send appends item to the queue and wakes a pending receiver. It returns
// a SendError if the channel has already been closed (the consumer side
// of the link has gone away).
func (c *UnboundedChan) Send(item Item) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zferrors.New(zferrors.SendError, "send on closed link channel")
	}
	c.queue = append(c.queue, item)
	c.mu.Unlock()

	select {
	case c.signal <- struct{}{}:
	default:
	}
	return nil
}

// Recv blocks until an item is available, the channel is closed, or ctx
// is cancelled.
func (c *UnboundedChan) Recv(ctx context.Context) (Item, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			item := c.queue[0]
			c.queue = c.queue[1:]
			c.mu.Unlock()
			return item, nil
		}
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return Item{}, zferrors.New(zferrors.RecvError, "recv on closed link channel")
		}

		select {
		case <-c.signal:
			continue
		case <-ctx.Done():
			return Item{}, zferrors.Wrap(zferrors.RecvError, ctx.Err(), "recv cancelled")
		}
	}
}

// TryRecv returns immediately with ok=false if no item is queued, instead
// of blocking; used by the fan-in multiplexer to poll every underlying
// link of an Input without committing to any single one.
func (c *UnboundedChan) TryRecv() (item Item, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) == 0 {
		return Item{}, false
	}
	item = c.queue[0]
	c.queue = c.queue[1:]
	return item, true
}

// Signal exposes the internal wakeup channel so a multiplexer can select
// across many UnboundedChans at once without busy-polling.
func (c *UnboundedChan) Signal() <-chan struct{} {
	return c.signal
}

// Close marks the channel closed; further Sends fail and Recv returns
// once the queue drains.
func (c *UnboundedChan) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	select {
	case c.signal <- struct{}{}:
	default:
	}
}

// Len reports the number of items currently queued, for tests and
// diagnostics.
func (c *UnboundedChan) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
