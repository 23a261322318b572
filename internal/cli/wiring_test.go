package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/pagebuilder/internal/config"
	"github.com/aretw0/pagebuilder/internal/logging"
	"github.com/aretw0/pagebuilder/pkg/adapters/file"
	"github.com/aretw0/pagebuilder/pkg/adapters/memory"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestOpenBackend(t *testing.T) {
	ctx := context.Background()
	logger := logging.NewNop()

	t.Run("memory", func(t *testing.T) {
		cfg := config.Default().Store
		cfg.Backend = config.BackendMemory
		b, err := OpenBackend(ctx, cfg, "", logger)
		require.NoError(t, err)
		defer b.Close()
		assert.IsType(t, &memory.Store{}, b.Store)
		assert.Nil(t, b.Locker)
	})

	t.Run("file resolves relative dir", func(t *testing.T) {
		dir := t.TempDir()
		b, err := OpenBackend(ctx, config.Default().Store, dir, logger)
		require.NoError(t, err)
		defer b.Close()

		fs, ok := b.Store.(*file.Store)
		require.True(t, ok)
		assert.Equal(t, filepath.Join(dir, ".pagebuilder", "documents"), fs.BasePath)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default().Store
		cfg.Backend = config.BackendSQLite
		cfg.SQLite.Path = filepath.Join(t.TempDir(), "docs.sqlite")
		b, err := OpenBackend(ctx, cfg, "", logger)
		require.NoError(t, err)
		require.NoError(t, b.Store.Save(ctx, "a", "[]"))
		require.NoError(t, b.Close())

		_, err = os.Stat(cfg.SQLite.Path)
		assert.NoError(t, err)
	})

	t.Run("redis provides a locker", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := config.Default().Store
		cfg.Backend = config.BackendRedis
		cfg.Redis.Addr = mr.Addr()
		b, err := OpenBackend(ctx, cfg, "", logger)
		require.NoError(t, err)
		defer b.Close()
		assert.NotNil(t, b.Locker)

		require.NoError(t, b.Store.Save(ctx, "home", "[]"))
		assert.True(t, mr.Exists("pagebuilder:doc:home"))
	})

	t.Run("unreachable redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		cfg := config.Default().Store
		cfg.Backend = config.BackendRedis
		cfg.Redis.Addr = addr
		_, err := OpenBackend(ctx, cfg, "", logger)
		assert.ErrorContains(t, err, "failed to reach redis")
	})

	t.Run("encryption wraps the store", func(t *testing.T) {
		cfg := config.Default().Store
		cfg.Backend = config.BackendFile
		cfg.Dir = t.TempDir()
		cfg.EncryptionKey = testKey
		b, err := OpenBackend(ctx, cfg, "", logger)
		require.NoError(t, err)

		require.NoError(t, b.Store.Save(ctx, "secret", `[{"id":1,"type":"Heading","content":"hi"}]`))
		data, err := os.ReadFile(filepath.Join(cfg.Dir, "secret.json"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "enc:v1:"))

		raw, err := b.Store.Load(ctx, "secret")
		require.NoError(t, err)
		assert.Contains(t, raw, `"hi"`)
	})

	t.Run("bad key", func(t *testing.T) {
		cfg := config.Default().Store
		cfg.Backend = config.BackendMemory
		cfg.EncryptionKey = "abcd"
		_, err := OpenBackend(ctx, cfg, "", logger)
		assert.Error(t, err)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.Default().Store
		cfg.Backend = "etcd"
		_, err := OpenBackend(ctx, cfg, "", logger)
		assert.ErrorContains(t, err, "etcd")
	})
}

func TestNewManager(t *testing.T) {
	ctx := context.Background()
	b := &Backend{Store: memory.NewStore()}

	var changes int
	hooks := domain.LifecycleHooks{
		OnCollectionChanged: func(context.Context, *domain.CollectionEvent) { changes++ },
	}
	mgr := NewManager(b, hooks, logging.NewNop())

	require.NoError(t, mgr.Create(ctx, "home"))
	require.NoError(t, mgr.Dispatch(ctx, "home", domain.Event{Kind: domain.EventDragStartPalette, Type: domain.TypeHeading}))
	require.NoError(t, mgr.Dispatch(ctx, "home", domain.Event{Kind: domain.EventDropCanvas}))
	assert.Equal(t, 1, changes)
}
