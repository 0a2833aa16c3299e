package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceYAMLRoundTrip(t *testing.T) {
	src := &SourceDescriptor{
		ID:      "source-1",
		Library: "./libsource.so",
		Outputs: []PortDescriptor{{ID: "out", Type: "float"}},
		Configuration: Configuration{
			"rate": 10,
		},
		PeriodMillis: 100,
	}

	raw, err := src.ToYAML()
	require.NoError(t, err)

	decoded, err := SourceFromYAML(raw)
	require.NoError(t, err)
	assert.Equal(t, src.ID, decoded.ID)
	assert.Equal(t, src.Library, decoded.Library)
	assert.Equal(t, src.Outputs, decoded.Outputs)
	assert.EqualValues(t, src.PeriodMillis, decoded.PeriodMillis)
}

func TestOperatorFromYAMLAcceptsCompositeBodyWithEmptyLibrary(t *testing.T) {
	// A composite body has no "library" key; OperatorFromYAML will still
	// decode (library ends up empty), so the flattener must check for a
	// non-empty Library field to decide which candidate parse won.
	raw := []byte("inputs:\n  - id: in\n    type: int\noutputs:\n  - id: out\n    type: int\nnodes: []\nlinks: []\n")
	decoded, err := OperatorFromYAML(raw)
	require.NoError(t, err)
	assert.Empty(t, decoded.Library)
}

func TestCompositeYAMLRoundTrip(t *testing.T) {
	cd := &CompositeOperatorDescriptor{
		Inputs:  []PortDescriptor{{ID: "in", Type: "int"}},
		Outputs: []PortDescriptor{{ID: "out", Type: "int"}},
		Nodes: []NodeDescriptor{
			{ID: "inner-a", Descriptor: "file:///a.yaml"},
			{ID: "inner-b", Descriptor: "file:///b.yaml"},
		},
		Links: []LinkDescriptor{
			{FromNode: "inner-a", FromPort: "out", ToNode: "inner-b", ToPort: "in"},
		},
	}

	raw, err := cd.ToYAML()
	require.NoError(t, err)

	decoded, err := CompositeFromYAML(raw)
	require.NoError(t, err)
	assert.Len(t, decoded.Nodes, 2)
	assert.Len(t, decoded.Links, 1)
}

func TestFlowJSONRoundTrip(t *testing.T) {
	fd := &FlowDescriptor{
		ID: "flow-1",
		Sources: []NodeDescriptor{
			{ID: "src", Descriptor: "file:///src.yaml"},
		},
		Sinks: []NodeDescriptor{
			{ID: "sink", Descriptor: "file:///sink.yaml"},
		},
		Links: []LinkDescriptor{
			{FromNode: "src", FromPort: "out", ToNode: "sink", ToPort: "in"},
		},
	}

	raw, err := fd.ToJSON()
	require.NoError(t, err)

	decoded, err := FlowFromJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, fd.ID, decoded.ID)
	assert.Len(t, decoded.Sources, 1)
	assert.Len(t, decoded.Sinks, 1)
	assert.Len(t, decoded.Links, 1)
}
