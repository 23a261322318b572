package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/xeipuuv/gojsonschema"
)

// JSONCodec encodes a collection as a JSON array of {id, type, content} records.
// It implements ports.Codec.
type JSONCodec struct {
	indent string
	schema *gojsonschema.Schema
}

// Option configures a JSONCodec.
type Option func(*JSONCodec)

// WithIndent pretty-prints encoded snapshots.
func WithIndent(indent string) Option {
	return func(c *JSONCodec) {
		c.indent = indent
	}
}

// NewJSONCodec creates the default codec.
func NewJSONCodec(opts ...Option) *JSONCodec {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(elementsSchema))
	if err != nil {
		// The schema is a compile-time constant.
		panic(fmt.Sprintf("snapshot: invalid embedded schema: %v", err))
	}
	c := &JSONCodec{schema: schema}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode serializes elements in order. An empty collection encodes as "[]".
func (c *JSONCodec) Encode(elements []domain.Element) (string, error) {
	if err := checkRepresentable(elements); err != nil {
		return "", &domain.SerializationError{Err: err}
	}

	records := domain.CloneElements(elements)
	var (
		data []byte
		err  error
	)
	if c.indent != "" {
		data, err = json.MarshalIndent(records, "", c.indent)
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return "", &domain.SerializationError{Err: err}
	}
	return string(data), nil
}

// Decode parses raw. Nothing is returned unless the whole document is valid.
func (c *JSONCodec) Decode(raw string) ([]domain.Element, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &domain.DeserializationError{Reason: "snapshot is empty"}
	}
	if !json.Valid([]byte(raw)) {
		return nil, &domain.DeserializationError{Reason: "snapshot is not valid JSON"}
	}

	result, err := c.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, &domain.DeserializationError{Reason: "snapshot could not be validated", Err: err}
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			reasons = append(reasons, re.String())
		}
		return nil, &domain.DeserializationError{
			Reason: "snapshot is not an array of element records: " + strings.Join(reasons, "; "),
		}
	}

	var elements []domain.Element
	if err := json.Unmarshal([]byte(raw), &elements); err != nil {
		return nil, &domain.DeserializationError{Reason: "snapshot records could not be decoded", Err: err}
	}
	return domain.CloneElements(elements), nil
}

// checkRepresentable rejects text that would not survive a round trip:
// encoding/json silently replaces invalid UTF-8.
func checkRepresentable(elements []domain.Element) error {
	for _, el := range elements {
		if !utf8.ValidString(string(el.Type)) {
			return fmt.Errorf("element %d: type is not valid UTF-8", el.ID)
		}
		if !utf8.ValidString(el.Content) {
			return fmt.Errorf("element %d: content is not valid UTF-8", el.ID)
		}
	}
	return nil
}
