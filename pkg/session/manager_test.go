package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/pagebuilder/internal/canvas"
	"github.com/aretw0/pagebuilder/pkg/adapters/memory"
	"github.com/aretw0/pagebuilder/pkg/adapters/redis"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/ports"
	"github.com/aretw0/pagebuilder/pkg/session"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engineFactory(store ports.SnapshotStore) session.Factory {
	return func(id string) session.Document {
		return canvas.NewEngine(canvas.WithSnapshotStore(store, id))
	}
}

var insertHeading = []domain.Event{
	{Kind: domain.EventDragStartPalette, Type: domain.TypeHeading},
	{Kind: domain.EventDropCanvas},
}

func dispatchAll(t *testing.T, m *session.Manager, id string, events []domain.Event) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, m.Dispatch(context.Background(), id, ev))
	}
}

func TestManager_CreateAndDispatch(t *testing.T) {
	store := memory.NewStore()
	m := session.NewManager(store, engineFactory(store))
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, "home"))
	raw, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)

	dispatchAll(t, m, "home", insertHeading)

	elements, err := m.Elements(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, []domain.Element{{ID: 1, Type: domain.TypeHeading, Content: "New Heading"}}, elements)

	raw, _ = store.Load(ctx, "home")
	assert.Equal(t, "[]", raw, "changes stay in memory until saved")

	require.NoError(t, m.Save(ctx, "home"))
	raw, _ = store.Load(ctx, "home")
	assert.JSONEq(t, `[{"id":1,"type":"Heading","content":"New Heading"}]`, raw)
}

func TestManager_CreateRejectsDuplicate(t *testing.T) {
	store := memory.NewStore()
	m := session.NewManager(store, engineFactory(store))
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, "home"))
	assert.ErrorIs(t, m.Create(ctx, "home"), session.ErrDocumentExists)
	assert.Error(t, m.Create(ctx, ""))
}

func TestManager_UnknownDocument(t *testing.T) {
	store := memory.NewStore()
	m := session.NewManager(store, engineFactory(store))

	_, err := m.Elements(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assert.Equal(t, 0, m.Open())
}

func TestManager_OpensStoredDocumentLazily(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "stored", `[{"id":7,"type":"Paragraph","content":"hi"}]`))

	m := session.NewManager(store, engineFactory(store))
	dispatchAll(t, m, "stored", insertHeading)

	elements, err := m.Elements(ctx, "stored")
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, 8, elements[1].ID)
	assert.Equal(t, 1, m.Open())
}

func TestManager_AutoSave(t *testing.T) {
	store := memory.NewStore()
	m := session.NewManager(store, engineFactory(store), session.WithAutoSave())
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, "auto"))
	dispatchAll(t, m, "auto", insertHeading)

	raw, err := store.Load(ctx, "auto")
	require.NoError(t, err)
	assert.Contains(t, raw, "New Heading")
}

func TestManager_ReloadPicksUpExternalWrites(t *testing.T) {
	store := memory.NewStore()
	m := session.NewManager(store, engineFactory(store))
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, "home"))
	require.NoError(t, store.Save(ctx, "home", `[{"id":1,"type":"List","content":"a"}]`))

	reloaded, err := m.Reload(ctx, "home")
	require.NoError(t, err)
	assert.True(t, reloaded)
	elements, err := m.Elements(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeList, elements[0].Type)

	reloaded, err = m.Reload(ctx, "never-opened")
	require.NoError(t, err)
	assert.False(t, reloaded)
}

func TestManager_Delete(t *testing.T) {
	store := memory.NewStore()
	m := session.NewManager(store, engineFactory(store))
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, "gone"))
	require.NoError(t, m.Delete(ctx, "gone"))

	_, err := m.Elements(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestManager_ConcurrentDispatchIsSerialised(t *testing.T) {
	store := memory.NewStore()
	m := session.NewManager(store, engineFactory(store))
	ctx := context.Background()
	require.NoError(t, m.Create(ctx, "race"))

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Start and drop must be atomic, or another goroutine's drop
			// would steal the session.
			err := m.WithDocument(ctx, "race", func(ctx context.Context, doc session.Document) error {
				for _, ev := range insertHeading {
					if err := doc.Dispatch(ctx, ev); err != nil {
						return err
					}
				}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	elements, err := m.Elements(ctx, "race")
	require.NoError(t, err)
	require.Len(t, elements, workers)
	for i, el := range elements {
		assert.Equal(t, i+1, el.ID)
	}
}

func TestManager_LockLifecycle(t *testing.T) {
	store := memory.NewStore()
	m := session.NewManager(store, engineFactory(store))
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		id := fmt.Sprintf("doc-%d", i)
		require.NoError(t, m.Create(ctx, id))
		require.NoError(t, m.Delete(ctx, id))
	}
	assert.Equal(t, 0, m.Open())

	// A fresh lock on a reused id must not block.
	done := make(chan struct{})
	go func() {
		_ = m.WithLock(ctx, "doc-0", func(context.Context) error { return nil })
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for a released id is still held")
	}
}

func TestManager_DistributedLocker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redis.NewFromClient(client)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	replicaA := session.NewManager(store, engineFactory(store), session.WithLocker(locker), session.WithAutoSave())
	replicaB := session.NewManager(store, engineFactory(store), session.WithLocker(locker), session.WithAutoSave())

	require.NoError(t, replicaA.Create(ctx, "shared"))
	dispatchAll(t, replicaA, "shared", insertHeading)
	dispatchAll(t, replicaB, "shared", insertHeading)

	elements, err := replicaA.Elements(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, []int{elements[0].ID, elements[1].ID})
	assert.False(t, mr.Exists("test:lock:shared"))
}

func editHeading(id int, text string) []domain.Event {
	return []domain.Event{
		{Kind: domain.EventEditBegin, ID: id},
		{Kind: domain.EventContentChanged, ID: id, Text: text},
		{Kind: domain.EventEditCommit, ID: id},
	}
}

func TestManager_DistributedLockerKeepsOpenEdit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := redis.NewFromClient(client)
	locker := redis.NewLocker(client, "test:")
	ctx := context.Background()

	replicaA := session.NewManager(store, engineFactory(store), session.WithLocker(locker), session.WithAutoSave())
	replicaB := session.NewManager(store, engineFactory(store), session.WithLocker(locker), session.WithAutoSave())

	require.NoError(t, replicaA.Create(ctx, "shared"))
	dispatchAll(t, replicaA, "shared", insertHeading)
	dispatchAll(t, replicaA, "shared", editHeading(1, "hello"))

	elements, err := replicaB.Elements(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, elements, 1)
	assert.Equal(t, "hello", elements[0].Content)

	// A write by the other replica is still picked up.
	dispatchAll(t, replicaB, "shared", insertHeading)
	elements, err = replicaA.Elements(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, elements, 2)
}

func TestManager_ReloadIgnoresOwnWrites(t *testing.T) {
	store := memory.NewStore()
	m := session.NewManager(store, engineFactory(store))
	ctx := context.Background()

	require.NoError(t, m.Create(ctx, "draft"))
	dispatchAll(t, m, "draft", insertHeading)
	require.NoError(t, m.Dispatch(ctx, "draft", domain.Event{Kind: domain.EventEditBegin, ID: 1}))

	reloaded, err := m.Reload(ctx, "draft")
	require.NoError(t, err)
	assert.False(t, reloaded, "the snapshot written by Create must not replace unsaved work")

	require.NoError(t, m.Dispatch(ctx, "draft", domain.Event{Kind: domain.EventContentChanged, ID: 1, Text: "kept"}))
	require.NoError(t, m.Dispatch(ctx, "draft", domain.Event{Kind: domain.EventEditCommit, ID: 1}))
	require.NoError(t, m.Dispatch(ctx, "draft", domain.Event{Kind: domain.EventSave}))
	dispatchAll(t, m, "draft", insertHeading)

	reloaded, err = m.Reload(ctx, "draft")
	require.NoError(t, err)
	assert.False(t, reloaded)

	elements, err := m.Elements(ctx, "draft")
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, "kept", elements[0].Content)
}
