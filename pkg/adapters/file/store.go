package file

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/pagebuilder/internal/logging"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

const ext = ".json"

// Store implements ports.SnapshotStore using the local filesystem.
// Each document is a single <id>.json file in BasePath.
type Store struct {
	BasePath string
	logger   *slog.Logger

	mu sync.Mutex
	// written maps each document this Store saved or deleted to the digest
	// of what it left on disk; nil means deleted.
	written map[string]*[sha256.Size]byte
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used by Watch.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Store rooted at basePath.
// If basePath is empty, it defaults to ".pagebuilder/documents".
func New(basePath string, opts ...Option) *Store {
	if basePath == "" {
		basePath = filepath.Join(".pagebuilder", "documents")
	}
	s := &Store{BasePath: basePath, logger: logging.NewNop(), written: make(map[string]*[sha256.Size]byte)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) path(documentID string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("documentID cannot be empty")
	}
	if strings.ContainsAny(documentID, `/\`) || documentID == "." || documentID == ".." {
		return "", fmt.Errorf("invalid documentID %q", documentID)
	}
	return filepath.Join(s.BasePath, documentID+ext), nil
}

// Save writes raw atomically: temp file in the same directory, fsync, rename.
func (s *Store) Save(ctx context.Context, documentID string, raw string) error {
	destPath, err := s.path(documentID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure document directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+documentID+"-*"+ext+".part")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.WriteString(raw); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// os.Rename does not replace an existing file on Windows.
	if runtime.GOOS == "windows" {
		if _, err := os.Stat(destPath); err == nil {
			if err := os.Remove(destPath); err != nil {
				return fmt.Errorf("failed to remove existing document for overwrite: %w", err)
			}
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file into place: %w", err)
	}
	sum := sha256.Sum256([]byte(raw))
	s.written[documentID] = &sum
	return nil
}

// ownWrite reports whether the file for documentID is exactly what this Store
// last left there.
func (s *Store) ownWrite(documentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum, known := s.written[documentID]
	if !known {
		return false
	}
	filePath, err := s.path(documentID)
	if err != nil {
		return false
	}
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return sum == nil
	}
	if err != nil || sum == nil {
		return false
	}
	return sha256.Sum256(data) == *sum
}

// Load returns the raw snapshot, or domain.ErrDocumentNotFound.
func (s *Store) Load(ctx context.Context, documentID string) (string, error) {
	filePath, err := s.path(documentID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrDocumentNotFound
		}
		return "", fmt.Errorf("failed to read document file: %w", err)
	}
	return string(data), nil
}

// Delete removes the document file. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, documentID string) error {
	filePath, err := s.path(documentID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete document file: %w", err)
	}
	s.written[documentID] = nil
	return nil
}

// List returns the stored document ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	ids := []string{}
	for _, entry := range entries {
		if id, ok := documentIDFromName(entry.Name()); ok && !entry.IsDir() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Watch reports the id of every document written or removed under BasePath
// by anyone else. Events whose file still holds exactly what this Store last
// saved, or that stay deleted after this Store deleted them, are dropped.
// The channel closes when ctx is done.
func (s *Store) Watch(ctx context.Context) (<-chan string, error) {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to ensure document directory: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.BasePath); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", s.BasePath, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
					!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
					continue
				}
				id, ok := documentIDFromName(filepath.Base(ev.Name))
				if !ok || s.ownWrite(id) {
					continue
				}
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("document watcher error", "dir", s.BasePath, "err", err)
			}
		}
	}()
	return out, nil
}

func documentIDFromName(name string) (string, bool) {
	if !strings.HasSuffix(name, ext) || strings.HasPrefix(name, "tmp-") {
		return "", false
	}
	id := strings.TrimSuffix(name, ext)
	return id, id != ""
}
