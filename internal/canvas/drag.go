package canvas

import "github.com/aretw0/pagebuilder/pkg/domain"

// Op is the store operation a drop resolves to.
type Op int

const (
	OpNone Op = iota
	OpInsert
	OpReorder
)

// Command is the result of interpreting a drop against the active session.
type Command struct {
	Op       Op
	Type     domain.ElementType
	SourceID int
	TargetID int
}

// Apply executes the command against the store and reports whether the
// collection changed.
func (c Command) Apply(s *Store) bool {
	switch c.Op {
	case OpInsert:
		s.InsertNew(c.Type)
		return true
	case OpReorder:
		return s.Reorder(c.SourceID, c.TargetID)
	default:
		return false
	}
}

// DragController tracks the single in-flight drag session.
// It is Idle when no session is held and Dragging otherwise.
type DragController struct {
	session *domain.DragSession
}

// NewDragController creates an idle controller.
func NewDragController() *DragController {
	return &DragController{}
}

// StartFromPalette begins dragging a new item of type t, replacing any active session.
func (d *DragController) StartFromPalette(t domain.ElementType) {
	s := domain.NewPaletteSession(t)
	d.session = &s
}

// StartFromElement begins dragging the existing element id, replacing any active session.
func (d *DragController) StartFromElement(id int) {
	s := domain.NewElementSession(id)
	d.session = &s
}

// Session returns the active session, if any.
func (d *DragController) Session() (domain.DragSession, bool) {
	if d.session == nil {
		return domain.DragSession{}, false
	}
	return *d.session, true
}

// Dragging reports whether a session is active.
func (d *DragController) Dragging() bool {
	return d.session != nil
}

// DropOnCanvas consumes the session. Only a palette session creates an element;
// an existing element dropped on open canvas stays where it is.
func (d *DragController) DropOnCanvas() Command {
	s := d.consume()
	if s == nil || s.Source != domain.DragFromPalette {
		return Command{Op: OpNone}
	}
	return Command{Op: OpInsert, Type: s.Type}
}

// DropOnElement consumes the session. Only an existing-element session reorders;
// a palette item dropped on an element is discarded.
func (d *DragController) DropOnElement(targetID int) Command {
	s := d.consume()
	if s == nil || s.Source != domain.DragFromElement {
		return Command{Op: OpNone}
	}
	return Command{Op: OpReorder, SourceID: s.ElementID, TargetID: targetID}
}

func (d *DragController) consume() *domain.DragSession {
	s := d.session
	d.session = nil
	return s
}
