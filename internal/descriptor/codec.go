package descriptor

import (
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/zenohflow/runtime/internal/zferrors"
)

func marshalJSON(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// decodeYAML unmarshals raw YAML bytes into out, wrapping failures as a
// ParsingError the way the loader expects from every descriptor kind.
func decodeYAML(raw []byte, out interface{}) error {
	if err := yaml.Unmarshal(raw, out); err != nil {
		return zferrors.Wrap(zferrors.ParsingError, err, "decoding YAML descriptor")
	}
	return nil
}

// decodeJSON unmarshals raw JSON bytes into out, wrapping failures as a
// ParsingError.
func decodeJSON(raw []byte, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return zferrors.Wrap(zferrors.ParsingError, err, "decoding JSON descriptor")
	}
	return nil
}

// encodeYAML serializes v to YAML, wrapping failures as a
// SerializationError.
func encodeYAML(v interface{}) ([]byte, error) {
	raw, err := yaml.Marshal(v)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.SerializationError, err, "encoding descriptor to YAML")
	}
	return raw, nil
}

// encodeJSON serializes v to JSON, wrapping failures as a
// SerializationError.
func encodeJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, zferrors.Wrap(zferrors.SerializationError, err, "encoding descriptor to JSON")
	}
	return raw, nil
}
