package connector

import (
	"github.com/zenohflow/runtime/internal/descriptor"
	"github.com/zenohflow/runtime/internal/zferrors"
)

// BuiltinLibrary is the sentinel library reference a node loaded from a
// builtin://zenoh descriptor carries, so the instance package can spot a
// connector pseudo-node without inspecting the original descriptor URI.
const BuiltinLibrary = "connector://zenoh"

// TopicConfigKey is the reserved configuration key the instance package
// writes the computed cross-runtime topic into before a connector node
// is loaded, since the topic depends on the flow/instance/link identity
// that a flow author's descriptor can never know in advance.
const TopicConfigKey = "__zenoh_topic"

// PortConfigKey is the reserved configuration key the instance package
// writes the connector node's single declared port id into, so
// ConnectorSource/ConnectorSink know which key of the multi-port Source/
// Sink ABI's map they are producing or consuming.
const PortConfigKey = "__zenoh_port"

// RegisterZenoh registers the "zenoh" builtin middleware with the
// descriptor package's factory registry, so a flow descriptor can
// reference builtin://zenoh/source or builtin://zenoh/sink the way
// spec'd file-backed descriptors reference a plug-in library. Call this
// once at process startup before loading any flow.
func RegisterZenoh() {
	descriptor.RegisterBuiltin("zenoh", zenohFactory)
}

// zenohFactory builds the descriptor body for a zenoh connector
// pseudo-node: a source with a single output port, or a sink with a
// single input port, both backed by BuiltinLibrary instead of a
// dynamically loaded plug-in. The node's configuration must be present
// (ResolveBuiltin rejects a nil one); port_id and port_type default to
// "data" and "any" when it does not set them.
func zenohFactory(kind descriptor.NodeKind, config descriptor.Configuration) ([]byte, error) {
	portID, _ := config["port_id"].(string)
	if portID == "" {
		portID = "data"
	}
	portType, _ := config["port_type"].(string)
	if portType == "" {
		portType = "any"
	}

	switch kind {
	case descriptor.NodeKindSource:
		sd := &descriptor.SourceDescriptor{
			Library: BuiltinLibrary,
			Outputs: []descriptor.PortDescriptor{{ID: descriptor.PortID(portID), Type: descriptor.PortType(portType)}},
		}
		return sd.ToYAML()
	case descriptor.NodeKindSink:
		kd := &descriptor.SinkDescriptor{
			Library: BuiltinLibrary,
			Inputs:  []descriptor.PortDescriptor{{ID: descriptor.PortID(portID), Type: descriptor.PortType(portType)}},
		}
		return kd.ToYAML()
	default:
		return nil, zferrors.New(zferrors.Unimplemented, "zenoh builtin does not support node kind %q", kind)
	}
}
