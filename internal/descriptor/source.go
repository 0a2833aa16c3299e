package descriptor

// SourceDescriptor is a fully resolved source node: one or more output
// ports, a library reference for the plug-in loader, and a merged
// configuration.
type SourceDescriptor struct {
	ID            NodeID           `yaml:"id" json:"id"`
	Library       string           `yaml:"library" json:"library"`
	Outputs       []PortDescriptor `yaml:"outputs" json:"outputs"`
	Configuration Configuration    `yaml:"configuration,omitempty" json:"configuration,omitempty"`
	// PeriodMillis, when non-zero, makes this a periodic source whose
	// emitted timestamps are snapped to the period boundary (spec §4.6).
	PeriodMillis int64 `yaml:"period_ms,omitempty" json:"period_ms,omitempty"`
}

// SourceFromYAML decodes a SourceDescriptor from raw YAML bytes.
func SourceFromYAML(raw []byte) (*SourceDescriptor, error) {
	var sd SourceDescriptor
	if err := decodeYAML(raw, &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}

// ToYAML serializes the descriptor back to YAML.
func (s *SourceDescriptor) ToYAML() ([]byte, error) { return encodeYAML(s) }

// ToJSON serializes the descriptor to JSON.
func (s *SourceDescriptor) ToJSON() ([]byte, error) { return encodeJSON(s) }

// SourceFromJSON decodes a SourceDescriptor from raw JSON bytes.
func SourceFromJSON(raw []byte) (*SourceDescriptor, error) {
	var sd SourceDescriptor
	if err := decodeJSON(raw, &sd); err != nil {
		return nil, err
	}
	return &sd, nil
}
