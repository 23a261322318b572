package domain

// DragSource distinguishes the two kinds of drag session.
type DragSource string

const (
	// DragFromPalette instantiates a new element of Type on a canvas drop.
	DragFromPalette DragSource = "palette"
	// DragFromElement moves the element ElementID on an element drop.
	DragFromElement DragSource = "element"
)

// DragSession describes the object currently being dragged.
// Only the field matching Source is meaningful.
type DragSession struct {
	Source    DragSource  `json:"source"`
	Type      ElementType `json:"type,omitempty"`
	ElementID int         `json:"element_id,omitempty"`
}

// NewPaletteSession starts a drag of a new palette item.
func NewPaletteSession(t ElementType) DragSession {
	return DragSession{Source: DragFromPalette, Type: t}
}

// NewElementSession starts a drag of an existing element.
func NewElementSession(id int) DragSession {
	return DragSession{Source: DragFromElement, ElementID: id}
}

// EditState is the transient edit-mode state of one element.
type EditState struct {
	ElementID int    `json:"element_id"`
	Editing   bool   `json:"editing"`
	Working   string `json:"working"`
}
