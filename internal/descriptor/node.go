package descriptor

import (
	"github.com/zenohflow/runtime/internal/zferrors"
)

// NodeDescriptor is a reference to a source, sink, operator or composite
// operator descriptor body, plus a local configuration. Flattening uses
// that configuration to expand the body's mustache placeholders and to
// build builtin bodies; it is not merged into the resolved descriptor's
// configuration. It is the unit the flow graph is built from before flattening resolves
// every reference into a concrete leaf descriptor.
type NodeDescriptor struct {
	ID            NodeID        `yaml:"id" json:"id"`
	Descriptor    string        `yaml:"descriptor" json:"descriptor"`
	Configuration Configuration `yaml:"configuration,omitempty" json:"configuration,omitempty"`
}

// FileReader abstracts reading a descriptor body from storage so the
// loader can be exercised in tests without touching the real filesystem.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// TryLoadRaw resolves a node descriptor's URI into its raw YAML body,
// following the original loader's try_load: a file:// URI is read from
// disk and mustache-expanded against the local configuration, a
// builtin:// URI is resolved through the builtin registry. kind is only
// consulted on the builtin path; file bodies are self-describing.
func TryLoadRaw(uriStr string, localConfig Configuration, kind NodeKind, reader FileReader) ([]byte, error) {
	u, err := ParseURI(uriStr)
	if err != nil {
		return nil, err
	}
	switch u.Kind {
	case URIFile:
		raw, err := reader.ReadFile(u.Path)
		if err != nil {
			return nil, zferrors.Wrap(zferrors.IOError, err, "reading descriptor file %q", u.Path)
		}
		expanded, err := ExpandMustache(string(raw), localConfig)
		if err != nil {
			return nil, err
		}
		return []byte(expanded), nil
	case URIBuiltin:
		return ResolveBuiltin(URI{Kind: URIBuiltin, Middleware: u.Middleware, NodeKind: kind}, localConfig)
	default:
		return nil, zferrors.New(zferrors.ParsingError, "unrecognized URI kind for %q", uriStr)
	}
}
