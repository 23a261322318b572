package canvas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/pagebuilder/internal/logging"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/ports"
	"github.com/aretw0/pagebuilder/pkg/snapshot"
)

// Engine interprets input events against the store, the drag controller and
// the editor, and reports every visible change through lifecycle hooks.
// It is not safe for concurrent use; callers serialise events per document.
type Engine struct {
	store  *Store
	drag   *DragController
	editor *Editor

	codec      ports.Codec
	snapshots  ports.SnapshotStore
	documentID string

	hooks  domain.LifecycleHooks
	logger *slog.Logger
	now    func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers notification callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCodec replaces the default JSON codec.
func WithCodec(codec ports.Codec) EngineOption {
	return func(e *Engine) {
		if codec != nil {
			e.codec = codec
		}
	}
}

// WithSnapshotStore binds the engine to a document slot in store, enabling
// save and load events.
func WithSnapshotStore(store ports.SnapshotStore, documentID string) EngineOption {
	return func(e *Engine) {
		e.snapshots = store
		e.documentID = documentID
	}
}

// WithClock overrides the notification timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine with an empty collection.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		store:  NewStore(),
		drag:   NewDragController(),
		editor: NewEditor(),
		codec:  snapshot.NewJSONCodec(),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DragStartFromPalette starts dragging a new element of type t.
func (e *Engine) DragStartFromPalette(ctx context.Context, t domain.ElementType) {
	e.drag.StartFromPalette(t)
	e.emitDrag(ctx)
}

// DragStartFromElement starts dragging the existing element id.
func (e *Engine) DragStartFromElement(ctx context.Context, id int) {
	e.drag.StartFromElement(id)
	e.emitDrag(ctx)
}

// DropOnCanvas consumes the drag session; a palette session appends a new element.
func (e *Engine) DropOnCanvas(ctx context.Context) {
	e.drop(ctx, domain.EventDropCanvas, e.drag.DropOnCanvas)
}

// DropOnElement consumes the drag session; an element session reorders.
func (e *Engine) DropOnElement(ctx context.Context, targetID int) {
	e.drop(ctx, domain.EventDropElement, func() Command {
		return e.drag.DropOnElement(targetID)
	})
}

func (e *Engine) drop(ctx context.Context, cause domain.EventKind, resolve func() Command) {
	if !e.drag.Dragging() {
		e.logger.Debug("drop ignored: no active drag session", "event", cause)
		return
	}
	cmd := resolve()
	e.emitDrag(ctx)
	if cmd.Apply(e.store) {
		e.emitCollection(ctx, cause)
		return
	}
	e.logger.Debug("drop resolved to no-op", "event", cause, "op", cmd.Op)
}

// Delete removes element id. Unknown ids are ignored.
func (e *Engine) Delete(ctx context.Context, id int) {
	if !e.store.Delete(id) {
		e.logger.Debug("delete ignored: unknown element", "element_id", id)
		return
	}
	e.emitCollection(ctx, domain.EventDelete)
}

// BeginEdit opens element id for editing.
func (e *Engine) BeginEdit(ctx context.Context, id int) {
	el, ok := e.store.Get(id)
	if !ok {
		e.logger.Debug("edit ignored: unknown element", "element_id", id)
		return
	}
	if discarded, ok := e.editor.Begin(el); ok {
		e.emitEdit(ctx, domain.EditState{ElementID: discarded})
	}
	e.emitEdit(ctx, e.editor.State())
}

// ChangeContent replaces the working text of the open edit on element id.
func (e *Engine) ChangeContent(ctx context.Context, id int, text string) {
	if !e.editor.Editing(id) {
		e.logger.Debug("content change ignored: element not in edit mode", "element_id", id)
		return
	}
	e.editor.Update(text)
	e.emitEdit(ctx, e.editor.State())
}

// KeyPress routes a key to the open edit on element id.
// Enter commits; Shift+Enter inserts a newline into the working text.
func (e *Engine) KeyPress(ctx context.Context, id int, key string, shift bool) {
	if !e.editor.Editing(id) {
		return
	}
	if e.editor.KeyPress(key, shift) {
		e.commit(ctx)
		return
	}
	if key == KeyEnter {
		e.emitEdit(ctx, e.editor.State())
	}
}

// CommitEdit writes the working text of element id back to the store.
// Blur and plain Enter both end here.
func (e *Engine) CommitEdit(ctx context.Context, id int) {
	if !e.editor.Editing(id) {
		e.logger.Debug("commit ignored: element not in edit mode", "element_id", id)
		return
	}
	e.commit(ctx)
}

// Blur commits the open edit, whichever element it belongs to.
func (e *Engine) Blur(ctx context.Context) {
	e.commit(ctx)
}

func (e *Engine) commit(ctx context.Context) {
	committed, changed, ok := e.editor.Commit(e.store)
	if !ok {
		return
	}
	e.emitEdit(ctx, domain.EditState{ElementID: committed.ElementID})
	if changed {
		e.emitCollection(ctx, domain.EventEditCommit)
	}
}

// Save encodes the current collection.
func (e *Engine) Save(ctx context.Context) (string, error) {
	return e.codec.Encode(e.store.Snapshot())
}

// Load decodes raw and replaces the collection. On error the collection is
// left exactly as it was.
func (e *Engine) Load(ctx context.Context, raw string) error {
	elements, err := e.codec.Decode(raw)
	if err != nil {
		return err
	}
	e.store.ReplaceAll(elements)
	if prev, ok := e.editor.Reset(); ok {
		e.emitEdit(ctx, domain.EditState{ElementID: prev.ElementID})
	}
	e.emitCollection(ctx, domain.EventLoad)
	return nil
}

// SaveDocument encodes the collection and writes it to the bound store.
func (e *Engine) SaveDocument(ctx context.Context) error {
	if e.snapshots == nil {
		return domain.ErrNoStore
	}
	raw, err := e.Save(ctx)
	if err != nil {
		return err
	}
	if err := e.snapshots.Save(ctx, e.documentID, raw); err != nil {
		return fmt.Errorf("failed to save document %q: %w", e.documentID, err)
	}
	e.logger.Info("document saved", "document_id", e.documentID, "elements", e.store.Len())
	return nil
}

// LoadDocument reads the bound document and replaces the collection.
// A missing document is reported as a DeserializationError wrapping
// domain.ErrDocumentNotFound.
func (e *Engine) LoadDocument(ctx context.Context) error {
	if e.snapshots == nil {
		return domain.ErrNoStore
	}
	raw, err := e.snapshots.Load(ctx, e.documentID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return &domain.DeserializationError{Reason: "no snapshot for " + e.documentID, Err: err}
		}
		return fmt.Errorf("failed to load document %q: %w", e.documentID, err)
	}
	if err := e.Load(ctx, raw); err != nil {
		e.logger.Warn("document load rejected", "document_id", e.documentID, "err", err)
		return err
	}
	e.logger.Info("document loaded", "document_id", e.documentID, "elements", e.store.Len())
	return nil
}

// Dispatch applies a single input event.
// Only save, load and malformed events return errors.
func (e *Engine) Dispatch(ctx context.Context, ev domain.Event) error {
	switch ev.Kind {
	case domain.EventDragStartPalette:
		t, err := domain.ParseElementType(string(ev.Type))
		if err != nil {
			return err
		}
		e.DragStartFromPalette(ctx, t)
	case domain.EventDragStartElement:
		e.DragStartFromElement(ctx, ev.ID)
	case domain.EventDropCanvas:
		e.DropOnCanvas(ctx)
	case domain.EventDropElement:
		e.DropOnElement(ctx, ev.TargetID)
	case domain.EventDelete:
		e.Delete(ctx, ev.ID)
	case domain.EventEditBegin:
		e.BeginEdit(ctx, ev.ID)
	case domain.EventContentChanged:
		e.ChangeContent(ctx, ev.ID, ev.Text)
	case domain.EventKeyPress:
		e.KeyPress(ctx, ev.ID, ev.Key, ev.Shift)
	case domain.EventEditCommit:
		e.CommitEdit(ctx, ev.ID)
	case domain.EventBlur:
		e.Blur(ctx)
	case domain.EventSave:
		return e.SaveDocument(ctx)
	case domain.EventLoad:
		return e.LoadDocument(ctx)
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownEvent, ev.Kind)
	}
	return nil
}

// Elements returns the current collection.
func (e *Engine) Elements() []domain.Element {
	return e.store.Snapshot()
}

// EditState returns the open edit, if any.
func (e *Engine) EditState() domain.EditState {
	return e.editor.State()
}

// DragSession returns the active drag session, if any.
func (e *Engine) DragSession() (domain.DragSession, bool) {
	return e.drag.Session()
}

// NextID is the id the next inserted element will receive.
func (e *Engine) NextID() int {
	return e.store.NextID()
}

// DocumentID is the slot the engine saves to and loads from.
func (e *Engine) DocumentID() string {
	return e.documentID
}

func (e *Engine) base(t domain.NotificationType) domain.NotificationBase {
	return domain.NotificationBase{
		Timestamp:  e.now(),
		Type:       t,
		DocumentID: e.documentID,
	}
}

func (e *Engine) emitCollection(ctx context.Context, cause domain.EventKind) {
	e.logger.Debug("collection changed", "cause", cause, "elements", e.store.Len())
	if e.hooks.OnCollectionChanged == nil {
		return
	}
	e.hooks.OnCollectionChanged(ctx, &domain.CollectionEvent{
		NotificationBase: e.base(domain.NotifyCollectionChanged),
		Cause:            cause,
		Elements:         e.store.Snapshot(),
	})
}

func (e *Engine) emitEdit(ctx context.Context, st domain.EditState) {
	if e.hooks.OnEditModeChanged == nil {
		return
	}
	e.hooks.OnEditModeChanged(ctx, &domain.EditModeEvent{
		NotificationBase: e.base(domain.NotifyEditModeChanged),
		ElementID:        st.ElementID,
		Editing:          st.Editing,
		Working:          st.Working,
	})
}

func (e *Engine) emitDrag(ctx context.Context) {
	if e.hooks.OnDragChanged == nil {
		return
	}
	ev := &domain.DragEvent{NotificationBase: e.base(domain.NotifyDragChanged)}
	if s, ok := e.drag.Session(); ok {
		ev.Session = &s
	}
	e.hooks.OnDragChanged(ctx, ev)
}
