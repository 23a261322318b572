package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	documentID := "contract-test-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		raw := `[{"id":1,"type":"Heading","content":"New Heading"}]`

		err := store.Save(ctx, documentID, raw)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, documentID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, raw, loaded)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, documentID, `[]`))
		require.NoError(t, store.Save(ctx, documentID, `[{"id":2,"type":"List","content":"a\nb"}]`))

		loaded, err := store.Load(ctx, documentID)
		require.NoError(t, err)
		assert.Equal(t, `[{"id":2,"type":"List","content":"a\nb"}]`, loaded)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+documentID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, documentID, `[]`))

		err := store.Delete(ctx, documentID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, documentID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")

		assert.NoError(t, store.Delete(ctx, documentID), "Delete is idempotent")
	})

	t.Run("List", func(t *testing.T) {
		id1 := documentID + "-1"
		id2 := documentID + "-2"
		_ = store.Save(ctx, id1, `[]`)
		_ = store.Save(ctx, id2, `[]`)

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		documents, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, documents, id1)
		assert.Contains(t, documents, id2)
	})
}
