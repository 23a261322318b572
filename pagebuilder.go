package pagebuilder

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/pagebuilder/internal/canvas"
	"github.com/aretw0/pagebuilder/internal/logging"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/ports"
	"github.com/aretw0/pagebuilder/pkg/session"
)

// DefaultDocumentID is the slot used when no document id is configured.
const DefaultDocumentID = "default"

// Builder is the high-level entry point for the page builder.
// It wraps the internal canvas engine and accepts the input events of the
// drag-capture and editing layers. A Builder is not safe for concurrent use;
// session.Manager serialises access when documents are shared.
type Builder struct {
	engine *canvas.Engine

	hooks      domain.LifecycleHooks
	logger     *slog.Logger
	codec      ports.Codec
	store      ports.SnapshotStore
	documentID string
	clock      func() time.Time
}

// Option defines a functional option for configuring the Builder.
type Option func(*Builder)

// WithLifecycleHooks registers notification callbacks. Repeated calls are
// merged, so metrics and streaming hooks can be combined.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Builder) {
		b.hooks = b.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithCodec replaces the JSON snapshot codec.
func WithCodec(codec ports.Codec) Option {
	return func(b *Builder) {
		b.codec = codec
	}
}

// WithStore binds the builder to a storage medium for SaveDocument and LoadDocument.
func WithStore(store ports.SnapshotStore) Option {
	return func(b *Builder) {
		b.store = store
	}
}

// WithDocumentID selects the document slot inside the store.
func WithDocumentID(id string) Option {
	return func(b *Builder) {
		b.documentID = id
	}
}

// WithClock overrides the notification timestamp source.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		b.clock = now
	}
}

// New creates a Builder with an empty collection.
func New(opts ...Option) *Builder {
	b := &Builder{
		logger:     logging.NewNop(),
		documentID: DefaultDocumentID,
	}
	for _, opt := range opts {
		opt(b)
	}

	engineOpts := []canvas.EngineOption{
		canvas.WithLifecycleHooks(b.hooks),
		canvas.WithLogger(b.logger),
		canvas.WithCodec(b.codec),
		canvas.WithSnapshotStore(b.store, b.documentID),
	}
	if b.clock != nil {
		engineOpts = append(engineOpts, canvas.WithClock(b.clock))
	}
	b.engine = canvas.NewEngine(engineOpts...)
	return b
}

// Factory returns a session.Factory producing Builders bound to store.
// The options are applied to every document, after the store and id.
func Factory(store ports.SnapshotStore, opts ...Option) session.Factory {
	return func(documentID string) session.Document {
		all := append([]Option{WithStore(store), WithDocumentID(documentID)}, opts...)
		return New(all...)
	}
}

// DragStartFromPalette starts dragging a new element of type t.
// Any previous drag session is discarded.
func (b *Builder) DragStartFromPalette(ctx context.Context, t domain.ElementType) {
	b.engine.DragStartFromPalette(ctx, t)
}

// DragStartFromElement starts dragging the placed element id.
func (b *Builder) DragStartFromElement(ctx context.Context, id int) {
	b.engine.DragStartFromElement(ctx, id)
}

// DropOnCanvas ends the drag on empty canvas.
func (b *Builder) DropOnCanvas(ctx context.Context) {
	b.engine.DropOnCanvas(ctx)
}

// DropOnElement ends the drag over element targetID.
func (b *Builder) DropOnElement(ctx context.Context, targetID int) {
	b.engine.DropOnElement(ctx, targetID)
}

// Delete removes element id.
func (b *Builder) Delete(ctx context.Context, id int) {
	b.engine.Delete(ctx, id)
}

// BeginEdit opens element id for editing.
func (b *Builder) BeginEdit(ctx context.Context, id int) {
	b.engine.BeginEdit(ctx, id)
}

// ChangeContent replaces the working text of the open edit.
func (b *Builder) ChangeContent(ctx context.Context, id int, text string) {
	b.engine.ChangeContent(ctx, id, text)
}

// KeyPress routes a key to the open edit. Enter commits, Shift+Enter adds a line.
func (b *Builder) KeyPress(ctx context.Context, id int, key string, shift bool) {
	b.engine.KeyPress(ctx, id, key, shift)
}

// CommitEdit writes the working text back to element id.
func (b *Builder) CommitEdit(ctx context.Context, id int) {
	b.engine.CommitEdit(ctx, id)
}

// Blur commits whatever edit is open.
func (b *Builder) Blur(ctx context.Context) {
	b.engine.Blur(ctx)
}

// Save encodes the collection to its persisted string form.
func (b *Builder) Save(ctx context.Context) (string, error) {
	return b.engine.Save(ctx)
}

// Load replaces the collection with the decoded raw snapshot.
// On error the collection is unchanged.
func (b *Builder) Load(ctx context.Context, raw string) error {
	return b.engine.Load(ctx, raw)
}

// SaveDocument writes the collection to the configured store.
func (b *Builder) SaveDocument(ctx context.Context) error {
	return b.engine.SaveDocument(ctx)
}

// LoadDocument replaces the collection with the stored snapshot.
func (b *Builder) LoadDocument(ctx context.Context) error {
	return b.engine.LoadDocument(ctx)
}

// Dispatch applies a serialised input event.
func (b *Builder) Dispatch(ctx context.Context, ev domain.Event) error {
	return b.engine.Dispatch(ctx, ev)
}

// Elements returns a copy of the collection in visual order.
func (b *Builder) Elements() []domain.Element {
	return b.engine.Elements()
}

// Markdown renders the collection as markdown.
func (b *Builder) Markdown() string {
	return domain.RenderMarkdown(b.engine.Elements())
}

// EditState reports the open edit, if any.
func (b *Builder) EditState() domain.EditState {
	return b.engine.EditState()
}

// DragSession reports the active drag session, if any.
func (b *Builder) DragSession() (domain.DragSession, bool) {
	return b.engine.DragSession()
}

// NextID is the id the next placed element will receive.
func (b *Builder) NextID() int {
	return b.engine.NextID()
}

// DocumentID is the slot SaveDocument and LoadDocument use.
func (b *Builder) DocumentID() string {
	return b.engine.DocumentID()
}

// KeyEnter is the key name that commits an edit when pressed without shift.
const KeyEnter = canvas.KeyEnter
