package descriptor

// NodeID identifies a node (source, operator, sink or composite) within a
// single flow descriptor. After flattening, node ids are unique across the
// whole flattened graph.
type NodeID string

// PortID identifies an input or output port on a node.
type PortID string

// FlowID names a top level flow descriptor, independent of any particular
// instantiation of it.
type FlowID string

// LinkID identifies a single link between two ports once the flow has been
// flattened into a fully resolved graph.
type LinkID string
