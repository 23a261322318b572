package domain

import (
	"errors"
	"fmt"
)

// ErrDocumentNotFound is returned when a document ID cannot be found in the store.
var ErrDocumentNotFound = errors.New("document not found")

// ErrNoStore is returned when a save or load is requested on a builder without a store.
var ErrNoStore = errors.New("no snapshot store configured")

// ErrUnknownEvent is returned when an input event kind is not recognised.
var ErrUnknownEvent = errors.New("unknown event kind")

// ErrUnknownElementType is returned when a palette tag is not part of the known set.
var ErrUnknownElementType = errors.New("unknown element type")

// DeserializationError reports persisted data that is absent, malformed or not
// shaped as an array of element records. The collection is never modified when
// it is returned.
type DeserializationError struct {
	Reason string
	Err    error
}

func (e *DeserializationError) Error() string {
	if e.Err == nil {
		return "deserialization failed: " + e.Reason
	}
	return fmt.Sprintf("deserialization failed: %s: %v", e.Reason, e.Err)
}

func (e *DeserializationError) Unwrap() error { return e.Err }

// SerializationError reports content that could not be encoded.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialization failed: %v", e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

// IsDeserialization reports whether err carries a DeserializationError.
func IsDeserialization(err error) bool {
	var target *DeserializationError
	return errors.As(err, &target)
}
