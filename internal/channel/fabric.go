package channel

import "github.com/zenohflow/runtime/internal/descriptor"

// Fabric holds every node's port aggregators, indexed by node id then
// port id, once a flattened graph's links have been materialized into
// concrete channels.
type Fabric struct {
	Outputs map[descriptor.NodeID]map[descriptor.PortID]*Output
	Inputs  map[descriptor.NodeID]map[descriptor.PortID]*Input
}

// CreateLinks allocates one UnboundedChan per link record and wires its
// ends into the from-node's Output and the to-node's Input, following
// the original instance module's create_links: an Output/Input is
// created lazily on first reference to a (node,port) pair and every
// further link attaching to the same pair just adds another producer or
// consumer handle to the existing aggregator.
func CreateLinks(links []*descriptor.LinkRecord) *Fabric {
	f := &Fabric{
		Outputs: make(map[descriptor.NodeID]map[descriptor.PortID]*Output),
		Inputs:  make(map[descriptor.NodeID]map[descriptor.PortID]*Input),
	}

	for _, link := range links {
		ch := NewUnboundedChan()

		out := f.getOrCreateOutput(link.FromNode, link.FromPort)
		out.AddGuarded(link.ID, ch, link.Guard)

		in := f.getOrCreateInput(link.ToNode, link.ToPort)
		in.Add(link.ID, ch)
	}

	return f
}

func (f *Fabric) getOrCreateOutput(node descriptor.NodeID, port descriptor.PortID) *Output {
	byPort, ok := f.Outputs[node]
	if !ok {
		byPort = make(map[descriptor.PortID]*Output)
		f.Outputs[node] = byPort
	}
	out, ok := byPort[port]
	if !ok {
		out = NewOutput()
		byPort[port] = out
	}
	return out
}

func (f *Fabric) getOrCreateInput(node descriptor.NodeID, port descriptor.PortID) *Input {
	byPort, ok := f.Inputs[node]
	if !ok {
		byPort = make(map[descriptor.PortID]*Input)
		f.Inputs[node] = byPort
	}
	in, ok := byPort[port]
	if !ok {
		in = NewInput()
		byPort[port] = in
	}
	return in
}

// OutputFor returns the Output aggregator for a node's port, or nil if
// that port has no outgoing links (e.g. a sink's absent output, or an
// output port nobody connected downstream of).
func (f *Fabric) OutputFor(node descriptor.NodeID, port descriptor.PortID) *Output {
	byPort, ok := f.Outputs[node]
	if !ok {
		return nil
	}
	return byPort[port]
}

// InputFor returns the Input aggregator for a node's port, or nil if
// that port has no incoming links.
func (f *Fabric) InputFor(node descriptor.NodeID, port descriptor.PortID) *Input {
	byPort, ok := f.Inputs[node]
	if !ok {
		return nil
	}
	return byPort[port]
}
