package dsl

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/pagebuilder/pkg/domain"
)

// Dispatcher accepts input events. *pagebuilder.Builder and session documents satisfy it.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev domain.Event) error
}

// Page accumulates the events that compose a page.
type Page struct {
	events []domain.Event
	next   int
}

// New starts a script for an empty document.
func New() *Page {
	return From(1)
}

// From starts a script for a document whose next element id is nextID.
func From(nextID int) *Page {
	return &Page{next: nextID}
}

// Add places an element of type t and, when text differs from the default
// content, edits it to text.
func (p *Page) Add(t domain.ElementType, text string) *Page {
	id := p.next
	p.next++
	p.events = append(p.events,
		domain.Event{Kind: domain.EventDragStartPalette, Type: t},
		domain.Event{Kind: domain.EventDropCanvas},
	)
	if text != "" && text != t.DefaultContent() {
		p.events = append(p.events,
			domain.Event{Kind: domain.EventEditBegin, ID: id},
			domain.Event{Kind: domain.EventContentChanged, ID: id, Text: text},
			domain.Event{Kind: domain.EventEditCommit, ID: id},
		)
	}
	return p
}

func (p *Page) Heading(text string) *Page   { return p.Add(domain.TypeHeading, text) }
func (p *Page) Paragraph(text string) *Page { return p.Add(domain.TypeParagraph, text) }
func (p *Page) Image() *Page                { return p.Add(domain.TypeImage, "") }

// List places a list with one item per argument.
func (p *Page) List(items ...string) *Page {
	return p.Add(domain.TypeList, strings.Join(items, "\n"))
}

// Move drags element id onto element target.
func (p *Page) Move(id, target int) *Page {
	p.events = append(p.events,
		domain.Event{Kind: domain.EventDragStartElement, ID: id},
		domain.Event{Kind: domain.EventDropElement, TargetID: target},
	)
	return p
}

// Delete removes element id.
func (p *Page) Delete(id int) *Page {
	p.events = append(p.events, domain.Event{Kind: domain.EventDelete, ID: id})
	return p
}

// NextID is the id the next Add will predict.
func (p *Page) NextID() int {
	return p.next
}

// Events returns a copy of the script.
func (p *Page) Events() []domain.Event {
	out := make([]domain.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Apply dispatches the script in order, stopping at the first error.
func (p *Page) Apply(ctx context.Context, d Dispatcher) error {
	for i, ev := range p.events {
		if err := d.Dispatch(ctx, ev); err != nil {
			return fmt.Errorf("event %d (%s): %w", i, ev.Kind, err)
		}
	}
	return nil
}
