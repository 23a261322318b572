package canvas_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/pagebuilder/internal/canvas"
	"github.com/aretw0/pagebuilder/internal/testutils"
	"github.com/aretw0/pagebuilder/pkg/adapters/memory"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...canvas.EngineOption) (*canvas.Engine, *testutils.Recorder) {
	t.Helper()
	rec := &testutils.Recorder{}
	opts = append([]canvas.EngineOption{
		canvas.WithLifecycleHooks(rec.Hooks()),
		canvas.WithClock(testutils.FixedClock),
	}, opts...)
	return canvas.NewEngine(opts...), rec
}

func place(ctx context.Context, e *canvas.Engine, types ...domain.ElementType) {
	for _, typ := range types {
		e.DragStartFromPalette(ctx, typ)
		e.DropOnCanvas(ctx)
	}
}

func TestEngine_PaletteDropInsertsElement(t *testing.T) {
	ctx := context.Background()
	e, rec := newEngine(t)

	e.DragStartFromPalette(ctx, domain.TypeHeading)
	e.DropOnCanvas(ctx)

	want := []domain.Element{{ID: 1, Type: domain.TypeHeading, Content: "New Heading"}}
	assert.Equal(t, want, e.Elements())

	require.Len(t, rec.Collections, 1)
	assert.Equal(t, domain.EventDropCanvas, rec.Collections[0].Cause)
	assert.Equal(t, want, rec.Collections[0].Elements)

	require.Len(t, rec.Drags, 2, "start and consume")
	assert.NotNil(t, rec.Drags[0].Session)
	assert.Nil(t, rec.Drags[1].Session)
}

func TestEngine_ElementDropReorders(t *testing.T) {
	ctx := context.Background()
	e, rec := newEngine(t)
	place(ctx, e, domain.TypeHeading, domain.TypeParagraph, domain.TypeList)

	e.DragStartFromElement(ctx, 1)
	e.DropOnElement(ctx, 3)

	assert.Equal(t, []int{2, 1, 3}, ids(e.Elements()))
	assert.Equal(t, domain.EventDropElement, rec.Collections[len(rec.Collections)-1].Cause)
}

func TestEngine_DropWhileIdleIsNoop(t *testing.T) {
	ctx := context.Background()
	e, rec := newEngine(t)
	place(ctx, e, domain.TypeHeading, domain.TypeParagraph)
	before := e.Elements()
	notified := len(rec.Collections)

	e.DropOnElement(ctx, 1)
	e.DropOnCanvas(ctx)

	assert.Equal(t, before, e.Elements())
	assert.Len(t, rec.Collections, notified)
}

func TestEngine_MismatchedDropsConsumeSession(t *testing.T) {
	ctx := context.Background()
	e, rec := newEngine(t)
	place(ctx, e, domain.TypeHeading)
	notified := len(rec.Collections)

	e.DragStartFromPalette(ctx, domain.TypeList)
	e.DropOnElement(ctx, 1)
	_, dragging := e.DragSession()
	assert.False(t, dragging)

	e.DragStartFromElement(ctx, 1)
	e.DropOnCanvas(ctx)
	_, dragging = e.DragSession()
	assert.False(t, dragging)

	assert.Len(t, e.Elements(), 1)
	assert.Len(t, rec.Collections, notified)
}

func TestEngine_DropConsumesMostRecentSession(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	place(ctx, e, domain.TypeHeading, domain.TypeParagraph)

	e.DragStartFromElement(ctx, 2)
	e.DragStartFromPalette(ctx, domain.TypeImage)
	e.DropOnCanvas(ctx)

	got := e.Elements()
	require.Len(t, got, 3)
	assert.Equal(t, domain.TypeImage, got[2].Type)
	assert.Equal(t, []int{1, 2, 3}, ids(got), "the replaced element drag had no effect")
}

func TestEngine_EditCommit(t *testing.T) {
	ctx := context.Background()
	e, rec := newEngine(t)
	place(ctx, e, domain.TypeHeading, domain.TypeParagraph)

	e.BeginEdit(ctx, 2)
	e.ChangeContent(ctx, 2, "hello")
	e.CommitEdit(ctx, 2)

	el := e.Elements()[1]
	assert.Equal(t, "hello", el.Content)
	assert.False(t, e.EditState().Editing)

	require.Len(t, rec.Edits, 3)
	assert.Equal(t, domain.EditModeEvent{
		NotificationBase: rec.Edits[0].NotificationBase,
		ElementID:        2,
		Editing:          true,
		Working:          "New Paragraph",
	}, *rec.Edits[0])
	assert.Equal(t, "hello", rec.Edits[1].Working)
	assert.False(t, rec.Edits[2].Editing)
	assert.Equal(t, domain.EventEditCommit, rec.Collections[len(rec.Collections)-1].Cause)
}

func TestEngine_EnterCommitsShiftEnterAddsLine(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	place(ctx, e, domain.TypeList)

	e.BeginEdit(ctx, 1)
	e.ChangeContent(ctx, 1, "first")
	e.KeyPress(ctx, 1, canvas.KeyEnter, true)
	e.ChangeContent(ctx, 1, e.EditState().Working+"second")
	e.KeyPress(ctx, 1, canvas.KeyEnter, false)

	assert.Equal(t, "first\nsecond", e.Elements()[0].Content)
	assert.False(t, e.EditState().Editing)
}

func TestEngine_EditEventsForOtherElementsAreIgnored(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	place(ctx, e, domain.TypeHeading, domain.TypeParagraph)

	e.BeginEdit(ctx, 99)
	assert.False(t, e.EditState().Editing)

	e.BeginEdit(ctx, 1)
	e.ChangeContent(ctx, 2, "wrong element")
	e.CommitEdit(ctx, 2)
	assert.True(t, e.EditState().Editing)
	assert.Equal(t, "New Heading", e.EditState().Working)
}

func TestEngine_BeginEditDiscardsOpenEdit(t *testing.T) {
	ctx := context.Background()
	e, rec := newEngine(t)
	place(ctx, e, domain.TypeHeading, domain.TypeParagraph)

	e.BeginEdit(ctx, 1)
	e.ChangeContent(ctx, 1, "never saved")
	e.BeginEdit(ctx, 2)

	assert.Equal(t, "New Heading", e.Elements()[0].Content)
	last := rec.Edits[len(rec.Edits)-2:]
	assert.Equal(t, 1, last[0].ElementID)
	assert.False(t, last[0].Editing)
	assert.Equal(t, 2, last[1].ElementID)
	assert.True(t, last[1].Editing)
}

func TestEngine_DeleteWhileEditingThenCommit(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	place(ctx, e, domain.TypeHeading)

	e.BeginEdit(ctx, 1)
	e.Delete(ctx, 1)
	e.CommitEdit(ctx, 1)

	assert.Empty(t, e.Elements())
	assert.False(t, e.EditState().Editing)
}

func TestEngine_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	place(ctx, e, domain.TypeHeading, domain.TypeList, domain.TypeImage)
	e.BeginEdit(ctx, 2)
	e.ChangeContent(ctx, 2, "a\nb")
	e.CommitEdit(ctx, 2)
	e.DragStartFromElement(ctx, 3)
	e.DropOnElement(ctx, 1)

	raw, err := e.Save(ctx)
	require.NoError(t, err)

	other, _ := newEngine(t)
	require.NoError(t, other.Load(ctx, raw))
	assert.Equal(t, e.Elements(), other.Elements())
	assert.Equal(t, 4, other.NextID())
}

func TestEngine_LoadRejectsGarbageAndKeepsCollection(t *testing.T) {
	ctx := context.Background()
	e, rec := newEngine(t)
	place(ctx, e, domain.TypeHeading)
	before := e.Elements()
	notified := len(rec.Collections)

	err := e.Load(ctx, "not json")

	var derr *domain.DeserializationError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, before, e.Elements())
	assert.Len(t, rec.Collections, notified)
}

func TestEngine_LoadResetsOpenEdit(t *testing.T) {
	ctx := context.Background()
	e, rec := newEngine(t)
	place(ctx, e, domain.TypeHeading)
	e.BeginEdit(ctx, 1)

	require.NoError(t, e.Load(ctx, `[{"id":5,"type":"Paragraph","content":"p"}]`))

	assert.False(t, e.EditState().Editing)
	assert.False(t, rec.Edits[len(rec.Edits)-1].Editing)
	assert.Equal(t, 6, e.NextID())
}

func TestEngine_DocumentStore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	e, rec := newEngine(t, canvas.WithSnapshotStore(store, "home"))
	place(ctx, e, domain.TypeHeading, domain.TypeParagraph)

	require.NoError(t, e.Dispatch(ctx, domain.Event{Kind: domain.EventSave}))
	raw, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"type":"Heading","content":"New Heading"},{"id":2,"type":"Paragraph","content":"New Paragraph"}]`, raw)

	e.Delete(ctx, 1)
	require.NoError(t, e.Dispatch(ctx, domain.Event{Kind: domain.EventLoad}))
	assert.Equal(t, []int{1, 2}, ids(e.Elements()))
	assert.Equal(t, "home", rec.Collections[len(rec.Collections)-1].DocumentID)
}

func TestEngine_LoadMissingDocument(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, canvas.WithSnapshotStore(memory.NewStore(), "ghost"))
	place(ctx, e, domain.TypeHeading)

	err := e.LoadDocument(ctx)

	assert.True(t, domain.IsDeserialization(err))
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.Len(t, e.Elements(), 1)
}

func TestEngine_SaveWithoutStore(t *testing.T) {
	e, _ := newEngine(t)
	err := e.Dispatch(context.Background(), domain.Event{Kind: domain.EventSave})
	assert.ErrorIs(t, err, domain.ErrNoStore)
}

func TestEngine_Dispatch(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	events := []domain.Event{
		{Kind: domain.EventDragStartPalette, Type: domain.TypeHeading},
		{Kind: domain.EventDropCanvas},
		{Kind: domain.EventDragStartPalette, Type: domain.TypeParagraph},
		{Kind: domain.EventDropCanvas},
		{Kind: domain.EventDragStartElement, ID: 2},
		{Kind: domain.EventDropElement, TargetID: 1},
		{Kind: domain.EventEditBegin, ID: 1},
		{Kind: domain.EventContentChanged, ID: 1, Text: "Title"},
		{Kind: domain.EventKeyPress, ID: 1, Key: "Enter"},
		{Kind: domain.EventDelete, ID: 2},
	}
	for _, ev := range events {
		require.NoError(t, e.Dispatch(ctx, ev), "event %s", ev.Kind)
	}

	assert.Equal(t, []domain.Element{{ID: 1, Type: domain.TypeHeading, Content: "Title"}}, e.Elements())
}

func TestEngine_DispatchRejectsMalformedEvents(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)

	err := e.Dispatch(ctx, domain.Event{Kind: "teleport"})
	assert.True(t, errors.Is(err, domain.ErrUnknownEvent))

	err = e.Dispatch(ctx, domain.Event{Kind: domain.EventDragStartPalette, Type: "heading"})
	assert.ErrorIs(t, err, domain.ErrUnknownElementType)
	_, dragging := e.DragSession()
	assert.False(t, dragging)
}

func TestEngine_BlurCommits(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t)
	place(ctx, e, domain.TypeParagraph)

	e.Blur(ctx)
	assert.Equal(t, "New Paragraph", e.Elements()[0].Content, "blur without an open edit is a no-op")

	e.BeginEdit(ctx, 1)
	e.ChangeContent(ctx, 1, "kept")
	require.NoError(t, e.Dispatch(ctx, domain.Event{Kind: domain.EventBlur}))

	assert.Equal(t, "kept", e.Elements()[0].Content)
	assert.False(t, e.EditState().Editing)
}
