package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/pagebuilder"
	"github.com/aretw0/pagebuilder/internal/config"
	"github.com/aretw0/pagebuilder/internal/logging"
	"github.com/aretw0/pagebuilder/pkg/adapters/file"
	"github.com/aretw0/pagebuilder/pkg/adapters/memory"
	"github.com/aretw0/pagebuilder/pkg/adapters/redis"
	"github.com/aretw0/pagebuilder/pkg/adapters/sqlite"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/persistence/middleware"
	"github.com/aretw0/pagebuilder/pkg/ports"
	"github.com/aretw0/pagebuilder/pkg/session"
)

// Backend is an opened snapshot store plus whatever else the backend can offer.
type Backend struct {
	Store  ports.SnapshotStore
	Locker ports.DistributedLocker
	close  []func() error
}

// Close releases connections held by the backend.
func (b *Backend) Close() error {
	var errs []error
	for _, fn := range b.close {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// NewLogger builds the application logger from the log section.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	return logging.NewWithOptions(logging.Options{
		Level:  cfg.Level,
		Format: cfg.Format,
		File:   cfg.File,
	})
}

// OpenBackend opens the configured store, wrapping it with encryption when a
// key is set. Relative paths are resolved against dir.
func OpenBackend(ctx context.Context, cfg config.StoreConfig, dir string, logger *slog.Logger) (*Backend, error) {
	b := &Backend{}

	switch cfg.Backend {
	case config.BackendMemory:
		b.Store = memory.NewStore()
	case config.BackendFile:
		b.Store = file.New(resolve(dir, cfg.Dir), file.WithLogger(logger))
	case config.BackendSQLite:
		st, err := sqlite.Open(ctx, resolve(dir, cfg.SQLite.Path))
		if err != nil {
			return nil, err
		}
		b.Store = st
		b.close = append(b.close, st.Close)
	case config.BackendRedis:
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		opts := []redis.Option{redis.WithPrefix(prefix)}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		st := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		if err := st.Client().Ping(ctx).Err(); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		b.Store = st
		b.Locker = redis.NewLocker(st.Client(), prefix)
		b.close = append(b.close, st.Close)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.EncryptionKey != "" {
		key, err := middleware.ParseKey(cfg.EncryptionKey)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Store = middleware.Chain(b.Store, enc)
	}

	logger.Debug("snapshot store opened", "backend", cfg.Backend, "encrypted", cfg.EncryptionKey != "")
	return b, nil
}

// NewManager wires a session manager whose documents are pagebuilder.Builders
// reporting through hooks.
func NewManager(b *Backend, hooks domain.LifecycleHooks, logger *slog.Logger) *session.Manager {
	factory := pagebuilder.Factory(b.Store,
		pagebuilder.WithLogger(logger),
		pagebuilder.WithLifecycleHooks(hooks),
	)
	opts := []session.Option{session.WithLogger(logger)}
	if b.Locker != nil {
		opts = append(opts, session.WithLocker(b.Locker), session.WithAutoSave())
	}
	return session.NewManager(b.Store, factory, opts...)
}

func resolve(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}
