package ports

import "github.com/aretw0/pagebuilder/pkg/domain"

// Codec maps an ordered element collection to its durable string form and back.
type Codec interface {
	// Encode fails only with *domain.SerializationError.
	Encode(elements []domain.Element) (string, error)

	// Decode fails with *domain.DeserializationError when raw is absent,
	// malformed or not an array of element records.
	Decode(raw string) ([]domain.Element, error)
}
