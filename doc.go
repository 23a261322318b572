/*
Package pagebuilder is the element-collection state machine behind a visual page-composition tool.

A document is a flat, ordered list of elements (Heading, Paragraph, Image, List). Elements are
placed by dragging palette items onto the canvas, reordered by dragging one element onto
another, edited in place and persisted as a snapshot string through a pluggable store.

# Concept

The Builder interprets discrete input events delivered by a drag-capture layer. It never paints
anything: every visible change is reported through domain.LifecycleHooks so that a renderer,
an SSE stream or a metrics collector can follow along. Storage is an injected
ports.SnapshotStore, so several documents (and tests) never share an ambient slot.

# Usage

	ctx := context.Background()
	b := pagebuilder.New(
		pagebuilder.WithStore(file.New("./pages")),
		pagebuilder.WithDocumentID("home"),
	)

	b.DragStartFromPalette(ctx, domain.TypeHeading)
	b.DropOnCanvas(ctx)

	b.BeginEdit(ctx, 1)
	b.ChangeContent(ctx, 1, "Welcome")
	b.KeyPress(ctx, 1, "Enter", false)

	if err := b.SaveDocument(ctx); err != nil {
		log.Fatal(err)
	}

For many documents at once, combine Factory with session.Manager.
*/
package pagebuilder
