package channel

import (
	"context"
	"sync"

	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// outputLink is one link attached to an Output: the link's producer
// handle plus its optional CEL guard.
type outputLink struct {
	ch    *UnboundedChan
	guard *descriptor.Guard
}

// Output aggregates every link fanning out from a single output port: a
// Send broadcasts the item to every attached link's producer handle, so
// a source or operator writing to one port never needs to know how many
// downstream consumers it actually has.
type Output struct {
	mu    sync.RWMutex
	links map[descriptor.LinkID]outputLink
}

// NewOutput creates an empty output port aggregator.
func NewOutput() *Output {
	return &Output{links: make(map[descriptor.LinkID]outputLink)}
}

// Add attaches a new link's producer handle with no guard: the link
// forwards every item unconditionally, the engine's default output rule.
func (o *Output) Add(id descriptor.LinkID, ch *UnboundedChan) {
	o.AddGuarded(id, ch, nil)
}

// AddGuarded attaches a new link's producer handle with an optional CEL
// guard: when non-nil, an item is only forwarded down this link once the
// guard evaluates true against it. Send evaluates the guard with a nil
// configuration, so the guard's "ctx" variable is always empty here.
func (o *Output) AddGuarded(id descriptor.LinkID, ch *UnboundedChan, guard *descriptor.Guard) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.links[id] = outputLink{ch: ch, guard: guard}
}

// Send broadcasts item to every attached link whose guard (if any) admits
// it. A link whose consumer has gone away is dropped from the set rather
// than failing the whole send, since one dead downstream node should not
// block delivery to the others.
func (o *Output) Send(item Item) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for id, link := range o.links {
		if link.guard != nil {
			ok, err := link.guard.Evaluate(item.Data, nil)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		if err := link.ch.Send(item); err != nil {
			delete(o.links, id)
		}
	}
	return nil
}

// LinkCount reports how many links are currently attached, for tests and
// diagnostics.
func (o *Output) LinkCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.links)
}

// Close closes every attached link's producer handle.
func (o *Output) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, link := range o.links {
		link.ch.Close()
	}
}

// Input aggregates every link feeding a single input port: whichever
// attached link has data first wins the next Recv, matching the spec's
// first-ready-wins fan-in semantics for a port fed by more than one link.
type Input struct {
	mu    sync.RWMutex
	links map[descriptor.LinkID]*UnboundedChan
}

// NewInput creates an empty input port aggregator.
func NewInput() *Input {
	return &Input{links: make(map[descriptor.LinkID]*UnboundedChan)}
}

// Add attaches a new link's consumer handle.
func (in *Input) Add(id descriptor.LinkID, ch *UnboundedChan) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.links[id] = ch
}

// TryRecv polls every attached link once, returning the first one found
// with data queued. Iteration order over links is unspecified, which is
// fine since "first ready" is about readiness at poll time, not a fixed
// priority among links.
func (in *Input) TryRecv() (Item, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	for _, ch := range in.links {
		if item, ok := ch.TryRecv(); ok {
			return item, true
		}
	}
	return Item{}, false
}

// Recv blocks until any attached link has data, the context is
// cancelled, or every attached link has been closed.
func (in *Input) Recv(ctx context.Context) (Item, error) {
	for {
		if item, ok := in.TryRecv(); ok {
			return item, nil
		}

		signals := in.signals()
		if len(signals) == 0 {
			return Item{}, zferrors.New(zferrors.RecvError, "recv on input with no attached links")
		}

		open := false
		in.mu.RLock()
		for _, ch := range in.links {
			ch.mu.Lock()
			open = open || !ch.closed || len(ch.queue) > 0
			ch.mu.Unlock()
		}
		in.mu.RUnlock()
		if !open {
			return Item{}, zferrors.New(zferrors.RecvError, "recv on input whose links are all closed")
		}

		// Each pass stops its own helper goroutines before the next pass
		// starts, so none is left behind to swallow a later wakeup.
		waitCtx, cancel := context.WithCancel(ctx)
		merged := mergeSignals(waitCtx, signals)
		select {
		case <-ctx.Done():
			cancel()
			return Item{}, zferrors.Wrap(zferrors.RecvError, ctx.Err(), "recv cancelled")
		case <-merged:
		}
		cancel()
		for range merged {
		}
	}
}

// Wait returns a channel that fires once any attached link has data
// ready, or ctx is cancelled. Its helper goroutines keep listening on the
// links' wakeup signals until one fires or ctx is cancelled, and the
// channel is closed once all of them have returned. It lets a multiplexer (e.g. the operator
// runner's reflect.Select across several ports) wait on many Inputs at
// once without each one spinning its own polling loop.
func (in *Input) Wait(ctx context.Context) <-chan struct{} {
	return mergeSignals(ctx, in.signals())
}

// HasLinks reports whether any link is currently attached to this port.
func (in *Input) HasLinks() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.links) > 0
}

func (in *Input) signals() []<-chan struct{} {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]<-chan struct{}, 0, len(in.links))
	for _, ch := range in.links {
		out = append(out, ch.Signal())
	}
	return out
}

// mergeSignals fans in an arbitrary number of wakeup channels into one:
// the returned channel receives a value as soon as any fires, and is
// closed once every helper goroutine has returned (each returns after its
// own signal fires or ctx is cancelled).
func mergeSignals(ctx context.Context, signals []<-chan struct{}) <-chan struct{} {
	merged := make(chan struct{}, 1)
	var wg sync.WaitGroup
	for _, s := range signals {
		wg.Add(1)
		go func(s <-chan struct{}) {
			defer wg.Done()
			select {
			case <-s:
				select {
				case merged <- struct{}{}:
				default:
				}
			case <-ctx.Done():
			}
		}(s)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()
	return merged
}

// LinkCount reports how many links are currently attached.
func (in *Input) LinkCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.links)
}
