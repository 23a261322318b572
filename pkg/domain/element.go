package domain

import (
	"fmt"
	"strings"
)

// ElementType is the tag of a placed block.
// The known set is closed per version, but tags read from a snapshot are kept
// verbatim even when unknown so that a document is never rejected for them.
type ElementType string

const (
	TypeHeading   ElementType = "Heading"
	TypeParagraph ElementType = "Paragraph"
	TypeImage     ElementType = "Image"
	TypeList      ElementType = "List"
)

// ElementTypes lists the palette entries in display order.
var ElementTypes = []ElementType{TypeHeading, TypeParagraph, TypeImage, TypeList}

// Known reports whether t belongs to the closed set of this version.
func (t ElementType) Known() bool {
	switch t {
	case TypeHeading, TypeParagraph, TypeImage, TypeList:
		return true
	}
	return false
}

// ParseElementType matches a tag case-sensitively against the known set.
func ParseElementType(s string) (ElementType, error) {
	t := ElementType(s)
	if !t.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownElementType, s)
	}
	return t, nil
}

// DefaultContent is the text a freshly placed element starts with.
func (t ElementType) DefaultContent() string {
	return "New " + string(t)
}

// Element is a single placed content block.
type Element struct {
	ID      int         `json:"id" yaml:"id" mapstructure:"id"`
	Type    ElementType `json:"type" yaml:"type" mapstructure:"type"`
	Content string      `json:"content" yaml:"content" mapstructure:"content"`
}

// ListItems splits List content into its items (one per line).
func (e Element) ListItems() []string {
	return strings.Split(e.Content, "\n")
}

// Markdown projects the element to a markdown fragment.
// Unknown tags fall back to plain text.
func (e Element) Markdown() string {
	switch e.Type {
	case TypeHeading:
		return "## " + e.Content
	case TypeParagraph:
		return e.Content
	case TypeImage:
		// Image content is decorative; only the placeholder is rendered.
		return fmt.Sprintf("![image](element-%d)", e.ID)
	case TypeList:
		items := e.ListItems()
		lines := make([]string, len(items))
		for i, item := range items {
			lines[i] = "- " + item
		}
		return strings.Join(lines, "\n")
	default:
		return e.Content
	}
}

// RenderMarkdown joins the markdown projection of every element in order.
func RenderMarkdown(elements []Element) string {
	parts := make([]string, 0, len(elements))
	for _, el := range elements {
		parts = append(parts, el.Markdown())
	}
	return strings.Join(parts, "\n\n")
}

// CloneElements returns a copy of the slice so callers cannot alias store state.
func CloneElements(elements []Element) []Element {
	if elements == nil {
		return []Element{}
	}
	out := make([]Element, len(elements))
	copy(out, elements)
	return out
}
