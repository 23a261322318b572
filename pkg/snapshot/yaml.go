package snapshot

import (
	"encoding/json"

	"github.com/aretw0/pagebuilder/pkg/domain"
	"gopkg.in/yaml.v3"
)

// YAMLCodec reads and writes the same record array as YAML. Decoding validates
// against the JSON schema so both formats accept exactly the same documents.
type YAMLCodec struct {
	json *JSONCodec
}

// NewYAMLCodec creates a YAML codec.
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{json: NewJSONCodec()}
}

// Encode serializes elements as a YAML sequence.
func (c *YAMLCodec) Encode(elements []domain.Element) (string, error) {
	if err := checkRepresentable(elements); err != nil {
		return "", &domain.SerializationError{Err: err}
	}
	data, err := yaml.Marshal(domain.CloneElements(elements))
	if err != nil {
		return "", &domain.SerializationError{Err: err}
	}
	return string(data), nil
}

// Decode parses a YAML sequence of element records.
func (c *YAMLCodec) Decode(raw string) ([]domain.Element, error) {
	var generic any
	if err := yaml.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, &domain.DeserializationError{Reason: "snapshot is not valid YAML", Err: err}
	}
	if generic == nil {
		return nil, &domain.DeserializationError{Reason: "snapshot is empty"}
	}
	data, err := json.Marshal(generic)
	if err != nil {
		return nil, &domain.DeserializationError{Reason: "snapshot has non-JSON values", Err: err}
	}
	return c.json.Decode(string(data))
}
