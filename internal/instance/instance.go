package instance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenohflow/runtime/common/logger"
	"github.com/zenohflow/runtime/internal/channel"
	"github.com/zenohflow/runtime/internal/clock"
	"github.com/zenohflow/runtime/internal/connector"
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/flatten"
	"github.com/zenohflow/runtime/internal/plugin"
	"github.com/zenohflow/runtime/internal/runner"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// closer is satisfied by every plugin.Loaded{Source,Operator,Sink}; it
// runs the Finalize-then-drop sequence described in spec §4.8/§5.
type closer interface {
	Close() error
}

// entry is everything the instance needs to start, stop and tear down a
// single node's runner independently of the others.
type entry struct {
	mu      sync.Mutex
	kind    NodeKind
	id      descriptor.NodeID
	run     runner.Runner
	closer  closer
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// DataflowInstance owns every runner for one instantiation of a flow
// descriptor, keyed by node id, and exposes the start/stop/projection
// operations spec §4.6 requires.
type DataflowInstance struct {
	ctx InstanceContext
	log *logger.Logger

	mu      sync.RWMutex
	entries map[descriptor.NodeID]*entry
	order   []descriptor.NodeID
}

// TryInstantiate flattens dataflow, wires a channel fabric over its
// links, loads every leaf node's plug-in through resolver and builds one
// runner per node. A node whose fabric slot for a declared port is
// missing is a hard instantiation error, matching the original's
// "Missing links for …" failure rather than silently running a
// disconnected node.
func TryInstantiate(
	dataflow *descriptor.FlowDescriptor,
	reader descriptor.FileReader,
	guards *descriptor.GuardCompiler,
	resolver plugin.Resolver,
	hlc *clock.HLC,
	runtimeID uuid.UUID,
	log *logger.Logger,
) (*DataflowInstance, error) {
	graph, err := flatten.New(reader, guards).Flatten(dataflow)
	if err != nil {
		return nil, err
	}

	fabric := channel.CreateLinks(graph.Links)

	inst := &DataflowInstance{
		ctx: InstanceContext{
			FlowID:     dataflow.ID,
			InstanceID: uuid.New(),
			RuntimeID:  runtimeID,
		},
		log:     log,
		entries: make(map[descriptor.NodeID]*entry),
	}

	for _, sd := range graph.Sources {
		if err := inst.addSource(sd, graph.Links, fabric, resolver, hlc); err != nil {
			return nil, err
		}
	}
	for _, od := range graph.Operators {
		if err := inst.addOperator(od, fabric, resolver, hlc); err != nil {
			return nil, err
		}
	}
	for _, kd := range graph.Sinks {
		if err := inst.addSink(kd, graph.Links, fabric, resolver, hlc); err != nil {
			return nil, err
		}
	}

	return inst, nil
}

// linkIDFor finds the flattened link touching node/port, either as its
// source (asSource) or destination, so a connector pseudo-node's topic
// can be derived from the single link it bridges.
func linkIDFor(links []*descriptor.LinkRecord, node descriptor.NodeID, port descriptor.PortID, asSource bool) (descriptor.LinkID, bool) {
	for _, l := range links {
		if asSource && l.FromNode == node && l.FromPort == port {
			return l.ID, true
		}
		if !asSource && l.ToNode == node && l.ToPort == port {
			return l.ID, true
		}
	}
	return "", false
}

func (d *DataflowInstance) addSource(sd *descriptor.SourceDescriptor, links []*descriptor.LinkRecord, fabric *channel.Fabric, resolver plugin.Resolver, hlc *clock.HLC) error {
	outputs := make(map[descriptor.PortID]*channel.Output, len(sd.Outputs))
	for _, p := range sd.Outputs {
		out := fabric.OutputFor(sd.ID, p.ID)
		if out == nil {
			return zferrors.New(zferrors.MissingOutput, "missing links for source %q output %q", sd.ID, p.ID)
		}
		outputs[p.ID] = out
	}

	kind := KindSource
	if sd.Library == connector.BuiltinLibrary {
		if len(sd.Outputs) != 1 {
			return zferrors.New(zferrors.MissingOutput, "connector source %q must declare exactly one output port", sd.ID)
		}
		linkID, ok := linkIDFor(links, sd.ID, sd.Outputs[0].ID, true)
		if !ok {
			return zferrors.New(zferrors.MissingOutput, "missing links for connector source %q", sd.ID)
		}
		if sd.Configuration == nil {
			sd.Configuration = descriptor.Configuration{}
		}
		sd.Configuration[connector.TopicConfigKey] = connector.Topic(d.ctx.FlowID, d.ctx.InstanceID, linkID)
		sd.Configuration[connector.PortConfigKey] = string(sd.Outputs[0].ID)
		kind = KindConnector
	}

	loaded, err := plugin.LoadSource(sd, resolver)
	if err != nil {
		return err
	}
	var gate *clock.PeriodGate
	if sd.PeriodMillis > 0 {
		gate = clock.NewPeriodGate(clock.FromDuration(time.Duration(sd.PeriodMillis) * time.Millisecond))
	}
	run := runner.NewSourceRunner(sd.ID, loaded, outputs, hlc, gate)
	d.register(sd.ID, kind, run, loaded)
	return nil
}

func (d *DataflowInstance) addOperator(od *descriptor.OperatorDescriptor, fabric *channel.Fabric, resolver plugin.Resolver, hlc *clock.HLC) error {
	inputs := make(map[descriptor.PortID]*channel.Input, len(od.Inputs))
	for _, p := range od.Inputs {
		in := fabric.InputFor(od.ID, p.ID)
		if in == nil {
			return zferrors.New(zferrors.MissingInput, "missing links for operator %q input %q", od.ID, p.ID)
		}
		inputs[p.ID] = in
	}
	outputs := make(map[descriptor.PortID]*channel.Output, len(od.Outputs))
	for _, p := range od.Outputs {
		out := fabric.OutputFor(od.ID, p.ID)
		if out == nil {
			return zferrors.New(zferrors.MissingOutput, "missing links for operator %q output %q", od.ID, p.ID)
		}
		outputs[p.ID] = out
	}
	loaded, err := plugin.LoadOperator(od, resolver)
	if err != nil {
		return err
	}
	run := runner.NewOperatorRunner(od.ID, loaded, inputs, outputs, hlc)
	d.register(od.ID, KindOperator, run, loaded)
	return nil
}

func (d *DataflowInstance) addSink(kd *descriptor.SinkDescriptor, links []*descriptor.LinkRecord, fabric *channel.Fabric, resolver plugin.Resolver, hlc *clock.HLC) error {
	inputs := make(map[descriptor.PortID]*channel.Input, len(kd.Inputs))
	for _, p := range kd.Inputs {
		in := fabric.InputFor(kd.ID, p.ID)
		if in == nil {
			return zferrors.New(zferrors.MissingInput, "missing links for sink %q input %q", kd.ID, p.ID)
		}
		inputs[p.ID] = in
	}

	kind := KindSink
	if kd.Library == connector.BuiltinLibrary {
		if len(kd.Inputs) != 1 {
			return zferrors.New(zferrors.MissingInput, "connector sink %q must declare exactly one input port", kd.ID)
		}
		linkID, ok := linkIDFor(links, kd.ID, kd.Inputs[0].ID, false)
		if !ok {
			return zferrors.New(zferrors.MissingInput, "missing links for connector sink %q", kd.ID)
		}
		if kd.Configuration == nil {
			kd.Configuration = descriptor.Configuration{}
		}
		kd.Configuration[connector.TopicConfigKey] = connector.Topic(d.ctx.FlowID, d.ctx.InstanceID, linkID)
		kd.Configuration[connector.PortConfigKey] = string(kd.Inputs[0].ID)
		kind = KindConnector
	}

	loaded, err := plugin.LoadSink(kd, resolver)
	if err != nil {
		return err
	}
	run := runner.NewSinkRunner(kd.ID, loaded, inputs, hlc)
	d.register(kd.ID, kind, run, loaded)
	return nil
}

func (d *DataflowInstance) register(id descriptor.NodeID, kind NodeKind, run runner.Runner, c closer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[id] = &entry{kind: kind, id: id, run: run, closer: c}
	d.order = append(d.order, id)
}

// GetUUID returns this instance's identity.
func (d *DataflowInstance) GetUUID() uuid.UUID { return d.ctx.InstanceID }

// GetFlow returns the flow id this instance was instantiated from.
func (d *DataflowInstance) GetFlow() descriptor.FlowID { return d.ctx.FlowID }

// Context returns the shared InstanceContext.
func (d *DataflowInstance) Context() InstanceContext { return d.ctx }

func (d *DataflowInstance) projection(kind NodeKind) []descriptor.NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var ids []descriptor.NodeID
	for _, id := range d.order {
		if d.entries[id].kind == kind {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GetSources returns every source node id.
func (d *DataflowInstance) GetSources() []descriptor.NodeID { return d.projection(KindSource) }

// GetOperators returns every operator node id.
func (d *DataflowInstance) GetOperators() []descriptor.NodeID { return d.projection(KindOperator) }

// GetSinks returns every sink node id.
func (d *DataflowInstance) GetSinks() []descriptor.NodeID { return d.projection(KindSink) }

// GetConnectors returns every connector pseudo-node id: the
// builtin://zenoh sources and sinks bridging this instance's links
// across runtime boundaries.
func (d *DataflowInstance) GetConnectors() []descriptor.NodeID { return d.projection(KindConnector) }

// GetNodes returns every node id owned by this instance.
func (d *DataflowInstance) GetNodes() []descriptor.NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]descriptor.NodeID, len(d.order))
	copy(ids, d.order)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// IsNodeRunning reports whether the node's runner loop is currently
// active.
func (d *DataflowInstance) IsNodeRunning(id descriptor.NodeID) bool {
	e, ok := d.entryFor(id)
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

func (d *DataflowInstance) entryFor(id descriptor.NodeID) (*entry, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	e, ok := d.entries[id]
	return e, ok
}

// StartNode spawns the node's runner loop in the background. Starting an
// already-running node is a no-op.
func (d *DataflowInstance) StartNode(id descriptor.NodeID) error {
	e, ok := d.entryFor(id)
	if !ok {
		return zferrors.New(zferrors.NodeNotFound, "node %q not found in instance", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true

	go func() {
		defer close(e.done)
		if err := e.run.Run(ctx); err != nil && d.log != nil {
			d.log.WithNodeID(string(id)).Error("runner exited with error", "error", err)
		}
	}()

	return nil
}

// StopNode cancels the node's runner loop and waits for its goroutine to
// exit, then finalizes its plug-in exactly once. Stopping an
// already-stopped node is a no-op.
func (d *DataflowInstance) StopNode(id descriptor.NodeID) error {
	e, ok := d.entryFor(id)
	if !ok {
		return zferrors.New(zferrors.NodeNotFound, "node %q not found in instance", id)
	}

	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	<-done

	e.mu.Lock()
	e.running = false
	e.mu.Unlock()

	return e.closer.Close()
}

// StartNodes starts every node in ids, stopping on the first error.
func (d *DataflowInstance) StartNodes(ids []descriptor.NodeID) error {
	for _, id := range ids {
		if err := d.StartNode(id); err != nil {
			return err
		}
	}
	return nil
}

// StopNodes stops every node in ids, continuing past individual errors
// and returning the first one encountered so a caller tearing down an
// instance still attempts to stop every node.
func (d *DataflowInstance) StopNodes(ids []descriptor.NodeID) error {
	var firstErr error
	for _, id := range ids {
		if err := d.StopNode(id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StartAll starts every node owned by this instance.
func (d *DataflowInstance) StartAll() error { return d.StartNodes(d.GetNodes()) }

// StopAll stops every node owned by this instance.
func (d *DataflowInstance) StopAll() error { return d.StopNodes(d.GetNodes()) }
