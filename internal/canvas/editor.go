package canvas

import "github.com/aretw0/pagebuilder/pkg/domain"

// KeyEnter is the key name that commits an edit when pressed without shift.
const KeyEnter = "Enter"

// ContentSink receives committed text.
type ContentSink interface {
	Edit(id int, content string) bool
}

// Editor holds the edit state of the one element currently open for editing.
// There is no cancel: leaving edit mode always goes through Commit.
type Editor struct {
	state domain.EditState
}

// NewEditor creates an editor in Viewing state.
func NewEditor() *Editor {
	return &Editor{}
}

// Begin opens el for editing with its current content as the working copy.
// Any other uncommitted edit is discarded; its id is returned so the caller
// can tell the render layer it left edit mode.
func (e *Editor) Begin(el domain.Element) (discarded int, ok bool) {
	if e.state.Editing && e.state.ElementID != el.ID {
		discarded, ok = e.state.ElementID, true
	}
	e.state = domain.EditState{
		ElementID: el.ID,
		Editing:   true,
		Working:   el.Content,
	}
	return discarded, ok
}

// Update replaces the working copy. Ignored unless editing.
func (e *Editor) Update(text string) bool {
	if !e.state.Editing {
		return false
	}
	e.state.Working = text
	return true
}

// KeyPress applies a key to the working copy and reports whether it asks for a
// commit. Shift+Enter inserts a newline; Enter alone commits.
func (e *Editor) KeyPress(key string, shift bool) (commit bool) {
	if !e.state.Editing || key != KeyEnter {
		return false
	}
	if shift {
		e.state.Working += "\n"
		return false
	}
	return true
}

// Commit writes the working copy to sink and returns to Viewing.
// ok reports whether an edit was open, changed whether sink took the new text.
func (e *Editor) Commit(sink ContentSink) (committed domain.EditState, changed, ok bool) {
	if !e.state.Editing {
		return domain.EditState{}, false, false
	}
	committed = e.state
	changed = sink.Edit(committed.ElementID, committed.Working)
	e.state = domain.EditState{}
	return committed, changed, true
}

// Editing reports whether element id is open.
func (e *Editor) Editing(id int) bool {
	return e.state.Editing && e.state.ElementID == id
}

// State returns the current edit state.
func (e *Editor) State() domain.EditState {
	return e.state
}

// Reset drops any open edit without committing it. Used when the whole
// collection is replaced by a load.
func (e *Editor) Reset() (domain.EditState, bool) {
	prev := e.state
	e.state = domain.EditState{}
	return prev, prev.Editing
}
