package runner

import (
	"context"
	"reflect"

	"github.com/zenohflow/runtime/internal/channel"
	"github.com/zenohflow/runtime/internal/clock"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/plugin"
	"github.com/zenohflow/runtime/internal/token"
)

// SinkRunner drives the token/rule engine for a sink the same way
// OperatorRunner does for an operator, minus the output side: it refills
// NotReady input ports as data arrives, asks the sink's (or the default)
// input rule whether it should run, and when it does, hands the
// resulting per-port inputs to Run. Every received item folds its
// timestamp into the sink's HLC so anything it emits onward through a
// connector carries a causally ordered timestamp.
type SinkRunner struct {
	id     descriptor.NodeID
	loaded *plugin.LoadedSink
	inputs map[descriptor.PortID]*channel.Input
	clock  *clock.HLC
}

// NewSinkRunner builds a SinkRunner.
func NewSinkRunner(id descriptor.NodeID, loaded *plugin.LoadedSink, inputs map[descriptor.PortID]*channel.Input, hlc *clock.HLC) *SinkRunner {
	return &SinkRunner{id: id, loaded: loaded, inputs: inputs, clock: hlc}
}

// NodeID implements Runner.
func (r *SinkRunner) NodeID() descriptor.NodeID { return r.id }

// Run implements Runner.
func (r *SinkRunner) Run(ctx context.Context) error {
	tokens := make(token.Tokens, len(r.inputs))
	for port := range r.inputs {
		tokens[port] = token.NotReady()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		r.refill(tokens)

		runnable, next, err := r.inputRule()(tokens)
		if err != nil {
			return err
		}

		if !runnable {
			tokens = next
			if err := r.waitForAny(ctx, tokens); err != nil {
				return err
			}
			continue
		}

		inputs := make(map[descriptor.PortID]interface{}, len(tokens))
		for port, t := range tokens {
			switch next[port].GetAction() {
			case token.Consume, token.KeepRun:
				if data, ok := t.Data(); ok {
					inputs[port] = data
				}
			}
		}
		tokens = next

		if err := r.loaded.Instance.Run(ctx, r.loaded.State(), inputs); err != nil {
			return err
		}
	}
}

func (r *SinkRunner) inputRule() token.InputRule {
	return func(tokens token.Tokens) (bool, token.Tokens, error) {
		return r.loaded.Instance.InputRule(r.loaded.State(), tokens)
	}
}

// refill drains any port's Input that currently has data queued into a
// NotReady token, without blocking. Ports already Ready (kept across a
// KeepRun/Keep decision) are left untouched.
func (r *SinkRunner) refill(tokens token.Tokens) {
	for port, in := range r.inputs {
		if tokens[port].IsReady() {
			continue
		}
		if item, ok := in.TryRecv(); ok {
			r.clock.Update(clock.NTP64(item.Timestamp))
			tokens[port] = token.Ready(item.Data)
		}
	}
}

// waitForAny blocks until any currently-NotReady port's Input signals
// new data, or ctx is cancelled. Like OperatorRunner.waitForAny, each
// call stops every Wait helper it started before returning.
func (r *SinkRunner) waitForAny(ctx context.Context, tokens token.Tokens) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	cases := []reflect.SelectCase{
		{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(ctx.Done())},
	}
	var waits []<-chan struct{}
	for port, in := range r.inputs {
		if tokens[port].IsReady() || !in.HasLinks() {
			continue
		}
		wait := in.Wait(waitCtx)
		waits = append(waits, wait)
		cases = append(cases, reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(wait),
		})
	}
	if len(cases) == 1 {
		// No NotReady port has any attached link at all; nothing will
		// ever make this sink runnable again.
		<-ctx.Done()
		return nil
	}
	reflect.Select(cases)
	cancel()
	for _, wait := range waits {
		for range wait {
		}
	}
	return nil
}
