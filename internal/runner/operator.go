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

// OperatorRunner drives the token/rule engine for a single operator:
// it refills NotReady input ports as data arrives, asks the operator's
// (or the default) input rule whether it should run, and when it does,
// dispatches the produced outputs through the (or the default) output
// rule onto the operator's output ports.
type OperatorRunner struct {
	id      descriptor.NodeID
	loaded  *plugin.LoadedOperator
	inputs  map[descriptor.PortID]*channel.Input
	outputs map[descriptor.PortID]*channel.Output
	clock   *clock.HLC
}

// NewOperatorRunner builds an OperatorRunner.
func NewOperatorRunner(
	id descriptor.NodeID,
	loaded *plugin.LoadedOperator,
	inputs map[descriptor.PortID]*channel.Input,
	outputs map[descriptor.PortID]*channel.Output,
	hlc *clock.HLC,
) *OperatorRunner {
	return &OperatorRunner{id: id, loaded: loaded, inputs: inputs, outputs: outputs, clock: hlc}
}

// NodeID implements Runner.
func (r *OperatorRunner) NodeID() descriptor.NodeID { return r.id }

// Run implements Runner.
func (r *OperatorRunner) Run(ctx context.Context) error {
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

		// Extract input values for ports the rule actually wants delivered
		// this turn: a port the rule marked Keep is retained but not
		// passed, so its value comes from the pre-rule tokens (before
		// Consume/KeepRun clear it) but only for the actions that mean
		// "hand this to Run".
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

		outputs, err := r.loaded.Instance.Run(ctx, r.loaded.State(), inputs)
		if err != nil {
			return err
		}

		outputs, err = r.outputRule()(outputs)
		if err != nil {
			return err
		}

		ts := r.clock.Now()
		for port, value := range outputs {
			out, ok := r.outputs[port]
			if !ok || out == nil {
				continue
			}
			if err := out.Send(channel.Item{Timestamp: uint64(ts), Data: value}); err != nil {
				return err
			}
		}
	}
}

func (r *OperatorRunner) inputRule() token.InputRule {
	return func(tokens token.Tokens) (bool, token.Tokens, error) {
		return r.loaded.Instance.InputRule(r.loaded.State(), tokens)
	}
}

func (r *OperatorRunner) outputRule() token.OutputRule {
	return func(outputs token.Outputs) (token.Outputs, error) {
		return r.loaded.Instance.OutputRule(r.loaded.State(), outputs)
	}
}

// refill drains any port's Input that currently has data queued into a
// NotReady token, without blocking. Ports already Ready (kept across a
// KeepRun/Keep decision) are left untouched.
func (r *OperatorRunner) refill(tokens token.Tokens) {
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
// new data, or ctx is cancelled. It uses reflect.Select since the set of
// channels being waited on is only known at runtime (one per NotReady
// port). Each call waits under its own child context and stops every
// Wait helper before returning, so no helper of an earlier call is left
// to swallow a wakeup that a later call depends on.
func (r *OperatorRunner) waitForAny(ctx context.Context, tokens token.Tokens) error {
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
		// ever make this operator runnable again.
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
