package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/pagebuilder/pkg/adapters/file"
	"github.com/aretw0/pagebuilder/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunSnapshotStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_AtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "home", `[]`))
	require.NoError(t, store.Save(ctx, "home", `[{"id":1,"type":"Heading","content":"New Heading"}]`))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "home.json", entries[0].Name())

	data, err := os.ReadFile(filepath.Join(dir, "home.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1,"type":"Heading","content":"New Heading"}]`, string(data))
}

func TestFileStore_RejectsPathLikeIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "", "[]"))
	assert.Error(t, store.Save(ctx, "../escape", "[]"))
	_, err := store.Load(ctx, "a/b")
	assert.Error(t, err)
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))
	require.NoError(t, store.Save(ctx, "b", "[]"))
	require.NoError(t, store.Save(ctx, "a", "[]"))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestFileStore_ListMissingDirectory(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "absent"))
	ids, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFileStore_Watch(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Watch(ctx)
	require.NoError(t, err)

	// Simulates an external editor writing the file directly.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "landing.json"), []byte("[]"), 0644))

	select {
	case id := <-changes:
		assert.Equal(t, "landing", id)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch notification")
	}

	cancel()
	for range changes {
	}
}

func TestFileStore_WatchSkipsOwnWrites(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "mine", `[]`))
	require.NoError(t, store.Save(ctx, "mine", `[{"id":1,"type":"Heading","content":"New Heading"}]`))
	require.NoError(t, store.Delete(ctx, "mine"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "theirs.json"), []byte("[]"), 0644))

	select {
	case id := <-changes:
		assert.Equal(t, "theirs", id)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch notification")
	}

	cancel()
	for range changes {
	}
}
