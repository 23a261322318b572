package canvas

import "github.com/aretw0/pagebuilder/pkg/domain"

// Store owns the ordered element collection and the id counter.
// It is the sole mutator of the collection; every method is synchronous and
// leaves no partial state behind. Mutators report whether the collection changed.
type Store struct {
	elements []domain.Element
	nextID   int
}

// NewStore creates an empty store whose first id is 1.
func NewStore() *Store {
	return &Store{
		elements: []domain.Element{},
		nextID:   1,
	}
}

// InsertNew allocates the next id and appends an element with default content.
func (s *Store) InsertNew(t domain.ElementType) domain.Element {
	el := domain.Element{
		ID:      s.nextID,
		Type:    t,
		Content: t.DefaultContent(),
	}
	s.nextID++
	s.elements = append(s.elements, el)
	return el
}

// Reorder moves sourceID to the slot occupied by targetID.
//
// The target index is looked up after the source has been removed, so when the
// source precedes the target the element lands just before the target rather
// than after it: [1 2 3] with Reorder(1, 3) gives [2 1 3].
func (s *Store) Reorder(sourceID, targetID int) bool {
	if sourceID == targetID {
		return false
	}
	src := s.index(sourceID)
	if src < 0 {
		return false
	}
	moved := s.elements[src]

	rest := make([]domain.Element, 0, len(s.elements))
	rest = append(rest, s.elements[:src]...)
	rest = append(rest, s.elements[src+1:]...)

	dst := indexOf(rest, targetID)
	if dst < 0 {
		return false
	}

	out := make([]domain.Element, 0, len(s.elements))
	out = append(out, rest[:dst]...)
	out = append(out, moved)
	out = append(out, rest[dst:]...)
	s.elements = out
	return true
}

// Delete removes the element with id. Unknown ids are ignored.
func (s *Store) Delete(id int) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	out := make([]domain.Element, 0, len(s.elements)-1)
	out = append(out, s.elements[:i]...)
	out = append(out, s.elements[i+1:]...)
	s.elements = out
	return true
}

// Edit replaces the content of the element with id. Unknown ids are ignored.
func (s *Store) Edit(id int, content string) bool {
	i := s.index(id)
	if i < 0 || s.elements[i].Content == content {
		return false
	}
	out := domain.CloneElements(s.elements)
	out[i].Content = content
	s.elements = out
	return true
}

// ReplaceAll swaps in a whole collection, as done by a load. The incoming ids
// are trusted; the counter only ever moves forward so that ids handed out
// earlier are never reused.
func (s *Store) ReplaceAll(elements []domain.Element) {
	s.elements = domain.CloneElements(elements)
	for _, el := range s.elements {
		if el.ID >= s.nextID {
			s.nextID = el.ID + 1
		}
	}
}

// Snapshot returns a copy of the current collection in visual order.
func (s *Store) Snapshot() []domain.Element {
	return domain.CloneElements(s.elements)
}

// Get returns the element with id.
func (s *Store) Get(id int) (domain.Element, bool) {
	i := s.index(id)
	if i < 0 {
		return domain.Element{}, false
	}
	return s.elements[i], true
}

// NextID is the id the next InsertNew will allocate.
func (s *Store) NextID() int {
	return s.nextID
}

// Len returns the number of placed elements.
func (s *Store) Len() int {
	return len(s.elements)
}

func (s *Store) index(id int) int {
	return indexOf(s.elements, id)
}

func indexOf(elements []domain.Element, id int) int {
	for i, el := range elements {
		if el.ID == id {
			return i
		}
	}
	return -1
}
