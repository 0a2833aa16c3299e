package descriptor

// FlowDescriptor is the top level, unflattened graph: references to
// source/operator/sink node descriptors plus the links between their
// ports and a flow-wide configuration that flattening merges under every
// resolved descriptor's own configuration (keys the descriptor sets win).
type FlowDescriptor struct {
	ID            FlowID           `yaml:"id" json:"id"`
	Sources       []NodeDescriptor `yaml:"sources" json:"sources"`
	Operators     []NodeDescriptor `yaml:"operators" json:"operators"`
	Sinks         []NodeDescriptor `yaml:"sinks" json:"sinks"`
	Links         []LinkDescriptor `yaml:"links" json:"links"`
	Configuration Configuration    `yaml:"configuration,omitempty" json:"configuration,omitempty"`
}

// FlowFromYAML decodes a FlowDescriptor from raw YAML bytes.
func FlowFromYAML(raw []byte) (*FlowDescriptor, error) {
	var fd FlowDescriptor
	if err := decodeYAML(raw, &fd); err != nil {
		return nil, err
	}
	return &fd, nil
}

// ToYAML serializes the flow descriptor back to YAML.
func (f *FlowDescriptor) ToYAML() ([]byte, error) { return encodeYAML(f) }

// ToJSON serializes the flow descriptor to JSON.
func (f *FlowDescriptor) ToJSON() ([]byte, error) { return encodeJSON(f) }

// FlowFromJSON decodes a FlowDescriptor from raw JSON bytes.
func FlowFromJSON(raw []byte) (*FlowDescriptor, error) {
	var fd FlowDescriptor
	if err := decodeJSON(raw, &fd); err != nil {
		return nil, err
	}
	return &fd, nil
}
