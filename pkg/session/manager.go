package session

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/pagebuilder/internal/logging"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/ports"
)

// ErrDocumentExists is returned by Create when the id is already taken.
var ErrDocumentExists = errors.New("document already exists")

// DefaultLockTTL bounds how long a crashed replica can hold a document.
const DefaultLockTTL = 30 * time.Second

// Document is one editable collection bound to a snapshot slot.
// *pagebuilder.Builder satisfies it.
type Document interface {
	Dispatch(ctx context.Context, ev domain.Event) error
	Elements() []domain.Element
	SaveDocument(ctx context.Context) error
	LoadDocument(ctx context.Context) error
}

// Factory builds an empty Document bound to documentID.
type Factory func(documentID string) Document

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates document access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store   ports.SnapshotStore
	factory Factory

	mu    sync.Mutex
	locks map[string]*lockEntry
	open  map[string]Document
	// seen holds the digest of the stored snapshot each open document was
	// last loaded from or saved to.
	seen map[string][sha256.Size]byte

	locker   ports.DistributedLocker
	lockTTL  time.Duration
	autoSave bool
	logger   *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking. Cached documents are then reloaded
// whenever another replica changed the stored snapshot, so it is normally
// combined with WithAutoSave.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithAutoSave persists a document after every successful WithDocument call.
func WithAutoSave() Option {
	return func(m *Manager) {
		m.autoSave = true
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager over store. factory must bind the documents it
// builds to the same store.
func NewManager(store ports.SnapshotStore, factory Factory, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		factory: factory,
		locks:   make(map[string]*lockEntry),
		open:    make(map[string]Document),
		seen:    make(map[string][sha256.Size]byte),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release after unlocking it.
func (m *Manager) acquire(documentID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[documentID]
	if !exists {
		entry = &lockEntry{}
		m.locks[documentID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(documentID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[documentID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, documentID)
	}
}

// WithLock executes fn while holding the lock for documentID.
func (m *Manager) WithLock(ctx context.Context, documentID string, fn func(context.Context) error) error {
	entry := m.acquire(documentID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(documentID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, documentID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"document_id", documentID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// WithDocument runs fn against the open document, loading it from the store
// on first use. A document that was never saved yields domain.ErrDocumentNotFound.
func (m *Manager) WithDocument(ctx context.Context, documentID string, fn func(context.Context, Document) error) error {
	return m.WithLock(ctx, documentID, func(ctx context.Context) error {
		doc, err := m.document(ctx, documentID)
		if err != nil {
			return err
		}
		if err := fn(ctx, doc); err != nil {
			return err
		}
		if m.autoSave {
			return doc.SaveDocument(ctx)
		}
		return nil
	})
}

// document must be called with the document lock held.
func (m *Manager) document(ctx context.Context, documentID string) (Document, error) {
	m.mu.Lock()
	doc, cached := m.open[documentID]
	m.mu.Unlock()

	if cached && m.locker == nil {
		return doc, nil
	}
	if cached {
		changed, err := m.changed(ctx, documentID)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			m.evict(documentID)
			return nil, domain.ErrDocumentNotFound
		}
		if err != nil {
			return nil, err
		}
		if !changed {
			return doc, nil
		}
	} else {
		doc = m.track(documentID, m.factory(documentID))
	}
	if err := doc.LoadDocument(ctx); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			m.evict(documentID)
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}

	m.mu.Lock()
	m.open[documentID] = doc
	m.mu.Unlock()
	m.logger.Debug("document opened", "document_id", documentID)
	return doc, nil
}

// trackedDocument records the stored snapshot after every load and save so
// the Manager can tell its own writes from those of other writers.
type trackedDocument struct {
	Document
	m  *Manager
	id string
}

func (m *Manager) track(documentID string, doc Document) Document {
	return &trackedDocument{Document: doc, m: m, id: documentID}
}

func (d *trackedDocument) LoadDocument(ctx context.Context) error {
	if err := d.Document.LoadDocument(ctx); err != nil {
		return err
	}
	d.m.remember(ctx, d.id)
	return nil
}

func (d *trackedDocument) Dispatch(ctx context.Context, ev domain.Event) error {
	if err := d.Document.Dispatch(ctx, ev); err != nil {
		return err
	}
	if ev.Kind == domain.EventSave || ev.Kind == domain.EventLoad {
		d.m.remember(ctx, d.id)
	}
	return nil
}

func (d *trackedDocument) SaveDocument(ctx context.Context) error {
	if err := d.Document.SaveDocument(ctx); err != nil {
		return err
	}
	d.m.remember(ctx, d.id)
	return nil
}

func (m *Manager) remember(ctx context.Context, documentID string) {
	raw, err := m.store.Load(ctx, documentID)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		delete(m.seen, documentID)
		return
	}
	m.seen[documentID] = sha256.Sum256([]byte(raw))
}

// changed reports whether the stored snapshot differs from the one the open
// document last loaded or saved.
func (m *Manager) changed(ctx context.Context, documentID string) (bool, error) {
	raw, err := m.store.Load(ctx, documentID)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sum, ok := m.seen[documentID]
	return !ok || sum != sha256.Sum256([]byte(raw)), nil
}

// Create persists a new empty document.
func (m *Manager) Create(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("documentID cannot be empty")
	}
	return m.WithLock(ctx, documentID, func(ctx context.Context) error {
		_, err := m.store.Load(ctx, documentID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s", ErrDocumentExists, documentID)
		case !errors.Is(err, domain.ErrDocumentNotFound):
			return fmt.Errorf("failed to check document existence: %w", err)
		}

		doc := m.track(documentID, m.factory(documentID))
		if err := doc.SaveDocument(ctx); err != nil {
			return fmt.Errorf("failed to initialize document: %w", err)
		}
		m.mu.Lock()
		m.open[documentID] = doc
		m.mu.Unlock()
		m.logger.Info("document created", "document_id", documentID)
		return nil
	})
}

// Dispatch applies one input event to the document.
func (m *Manager) Dispatch(ctx context.Context, documentID string, ev domain.Event) error {
	return m.WithDocument(ctx, documentID, func(ctx context.Context, doc Document) error {
		return doc.Dispatch(ctx, ev)
	})
}

// Elements returns the document's current collection, including unsaved changes.
func (m *Manager) Elements(ctx context.Context, documentID string) ([]domain.Element, error) {
	var elements []domain.Element
	err := m.WithDocument(ctx, documentID, func(ctx context.Context, doc Document) error {
		elements = doc.Elements()
		return nil
	})
	return elements, err
}

// Save persists the document's current collection.
func (m *Manager) Save(ctx context.Context, documentID string) error {
	return m.WithDocument(ctx, documentID, func(ctx context.Context, doc Document) error {
		return doc.SaveDocument(ctx)
	})
}

// Reload replaces an open document's collection with its stored snapshot and
// reports whether it did. Documents that are not open are left alone; they
// load lazily on next use. A snapshot this Manager wrote or loaded itself is
// not reloaded, so unsaved changes and an open edit survive.
func (m *Manager) Reload(ctx context.Context, documentID string) (bool, error) {
	reloaded := false
	err := m.WithLock(ctx, documentID, func(ctx context.Context) error {
		m.mu.Lock()
		doc, cached := m.open[documentID]
		m.mu.Unlock()
		if !cached {
			return nil
		}
		changed, err := m.changed(ctx, documentID)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			m.evict(documentID)
			return nil
		}
		if err != nil || !changed {
			return err
		}
		if err := doc.LoadDocument(ctx); err != nil {
			return err
		}
		reloaded = true
		return nil
	})
	return reloaded, err
}

// Delete removes the document from the store and closes it.
func (m *Manager) Delete(ctx context.Context, documentID string) error {
	return m.WithLock(ctx, documentID, func(ctx context.Context) error {
		m.evict(documentID)
		return m.store.Delete(ctx, documentID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// Open reports how many documents are cached.
func (m *Manager) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.open)
}

func (m *Manager) evict(documentID string) {
	m.mu.Lock()
	delete(m.open, documentID)
	delete(m.seen, documentID)
	m.mu.Unlock()
}
