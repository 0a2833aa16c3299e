package descriptor

// OperatorDescriptor is a fully resolved (simple, non-composite) operator
// node: one or more input ports, one or more output ports, a library
// reference and a merged configuration.
type OperatorDescriptor struct {
	ID            NodeID           `yaml:"id" json:"id"`
	Library       string           `yaml:"library" json:"library"`
	Inputs        []PortDescriptor `yaml:"inputs" json:"inputs"`
	Outputs       []PortDescriptor `yaml:"outputs" json:"outputs"`
	Configuration Configuration    `yaml:"configuration,omitempty" json:"configuration,omitempty"`
}

// OperatorFromYAML decodes an OperatorDescriptor from raw YAML bytes. It
// does not require Library: a composite body decodes too, with Library
// left empty, so the flattener treats only a non-empty Library as a
// simple operator body.
func OperatorFromYAML(raw []byte) (*OperatorDescriptor, error) {
	var od OperatorDescriptor
	if err := decodeYAML(raw, &od); err != nil {
		return nil, err
	}
	return &od, nil
}

// ToYAML serializes the descriptor back to YAML.
func (o *OperatorDescriptor) ToYAML() ([]byte, error) { return encodeYAML(o) }

// ToJSON serializes the descriptor to JSON.
func (o *OperatorDescriptor) ToJSON() ([]byte, error) { return encodeJSON(o) }

// OperatorFromJSON decodes an OperatorDescriptor from raw JSON bytes.
func OperatorFromJSON(raw []byte) (*OperatorDescriptor, error) {
	var od OperatorDescriptor
	if err := decodeJSON(raw, &od); err != nil {
		return nil, err
	}
	return &od, nil
}

// CompositeOperatorDescriptor is a sub-graph standing in for a single
// operator node: an interface of named inputs/outputs mapped onto inner
// node ports, plus the inner nodes and links that implement it. Flattening
// inlines this into the parent graph, prefixing inner node ids with the
// composite instance's id so they stay globally unique.
type CompositeOperatorDescriptor struct {
	Inputs  []PortDescriptor `yaml:"inputs" json:"inputs"`
	Outputs []PortDescriptor `yaml:"outputs" json:"outputs"`
	Nodes   []NodeDescriptor `yaml:"nodes" json:"nodes"`
	Links   []LinkDescriptor `yaml:"links" json:"links"`
	// InputMapping/OutputMapping bind each interface port declared in
	// Inputs/Outputs to the inner node/port that actually implements it,
	// so the flattener knows where to redirect a link that targets the
	// composite's exterior port once the composite is inlined.
	InputMapping  map[PortID]PortRef `yaml:"input_mapping" json:"input_mapping"`
	OutputMapping map[PortID]PortRef `yaml:"output_mapping" json:"output_mapping"`
	Configuration Configuration      `yaml:"configuration,omitempty" json:"configuration,omitempty"`
}

// PortRef names a specific port on a specific (pre-prefix) inner node of a
// composite operator.
type PortRef struct {
	Node NodeID `yaml:"node" json:"node"`
	Port PortID `yaml:"port" json:"port"`
}

// CompositeFromYAML decodes a CompositeOperatorDescriptor from raw YAML
// bytes. It does not require Nodes to be non-empty; the flattener uses it
// as the second candidate parse and itself rejects a composite body with
// no nodes.
func CompositeFromYAML(raw []byte) (*CompositeOperatorDescriptor, error) {
	var cd CompositeOperatorDescriptor
	if err := decodeYAML(raw, &cd); err != nil {
		return nil, err
	}
	return &cd, nil
}

// ToYAML serializes the descriptor back to YAML.
func (c *CompositeOperatorDescriptor) ToYAML() ([]byte, error) { return encodeYAML(c) }

// ToJSON serializes the descriptor to JSON.
func (c *CompositeOperatorDescriptor) ToJSON() ([]byte, error) { return encodeJSON(c) }
