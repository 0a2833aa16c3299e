package descriptor

// PortType names the data type flowing through a port. The runtime does
// not interpret it: neither flattening nor instantiation compares the
// types at the two ends of a link, so a link between ports of different
// types is accepted.
type PortType string

// PortDescriptor declares a single named input or output on a node.
type PortDescriptor struct {
	ID   PortID   `yaml:"id" json:"id"`
	Type PortType `yaml:"type" json:"type"`
}
