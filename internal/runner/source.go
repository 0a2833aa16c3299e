package runner

import (
	"context"
	"errors"

	"github.com/zenohflow/runtime/internal/channel"
	"github.com/zenohflow/runtime/internal/clock"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/plugin"
)

// SourceRunner repeatedly invokes a source plug-in's Run, routes the
// resulting per-port values through its output rule the same way an
// OperatorRunner does, stamps each dispatched item with the runner's HLC
// and, for periodic sources, snaps the timestamp onto the configured
// period and drops any emission that would land in an already-seen
// window (spec §4.6).
type SourceRunner struct {
	id      descriptor.NodeID
	loaded  *plugin.LoadedSource
	outputs map[descriptor.PortID]*channel.Output
	clock   *clock.HLC
	gate    *clock.PeriodGate
}

// NewSourceRunner builds a SourceRunner. gate may be nil for an
// aperiodic source, in which case every emission is published
// unconditionally with a strictly monotonic timestamp.
func NewSourceRunner(id descriptor.NodeID, loaded *plugin.LoadedSource, outputs map[descriptor.PortID]*channel.Output, hlc *clock.HLC, gate *clock.PeriodGate) *SourceRunner {
	return &SourceRunner{id: id, loaded: loaded, outputs: outputs, clock: hlc, gate: gate}
}

// NodeID implements Runner.
func (r *SourceRunner) NodeID() descriptor.NodeID { return r.id }

// Run implements Runner.
func (r *SourceRunner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		produced, err := r.loaded.Instance.Run(ctx, r.loaded.State())
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		produced, err = r.loaded.Instance.OutputRule(r.loaded.State(), produced)
		if err != nil {
			return err
		}

		ts := r.clock.Now()
		if r.gate != nil {
			snapped, ok := r.gate.Admit(ts)
			if !ok {
				continue
			}
			ts = snapped
		}

		for port, value := range produced {
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
