package descriptor

// SinkDescriptor is a fully resolved sink node: one or more input ports,
// a library reference and a merged configuration.
type SinkDescriptor struct {
	ID            NodeID           `yaml:"id" json:"id"`
	Library       string           `yaml:"library" json:"library"`
	Inputs        []PortDescriptor `yaml:"inputs" json:"inputs"`
	Configuration Configuration    `yaml:"configuration,omitempty" json:"configuration,omitempty"`
}

// SinkFromYAML decodes a SinkDescriptor from raw YAML bytes.
func SinkFromYAML(raw []byte) (*SinkDescriptor, error) {
	var sd SinkDescriptor
	if err := decodeYAML(raw, &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}

// ToYAML serializes the descriptor back to YAML.
func (s *SinkDescriptor) ToYAML() ([]byte, error) { return encodeYAML(s) }

// ToJSON serializes the descriptor to JSON.
func (s *SinkDescriptor) ToJSON() ([]byte, error) { return encodeJSON(s) }

// SinkFromJSON decodes a SinkDescriptor from raw JSON bytes.
func SinkFromJSON(raw []byte) (*SinkDescriptor, error) {
	var sd SinkDescriptor
	if err := decodeJSON(raw, &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}
