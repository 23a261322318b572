package ports

import (
	"context"
)

// SnapshotStore is the durable medium for serialized documents.
// It only moves opaque strings; the element mapping belongs to a Codec.
type SnapshotStore interface {
	// Save persists the raw snapshot for a given document ID, replacing any previous one.
	Save(ctx context.Context, documentID string, raw string) error

	// Load retrieves the raw snapshot for a given document ID.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, documentID string) (string, error)

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, documentID string) error

	// List returns the IDs of all stored documents.
	List(ctx context.Context) ([]string, error)
}

// Watchable is implemented by stores that can report external changes.
type Watchable interface {
	// Watch emits the ID of every document changed outside this process.
	Watch(ctx context.Context) (<-chan string, error)
}
