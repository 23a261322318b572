package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/pagebuilder/internal/logging"
	"github.com/aretw0/pagebuilder/pkg/domain"
)

// Message is one server-sent event.
type Message struct {
	Event string
	Data  string
}

// StreamManager fans document changes out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Message]struct{} // documentID -> set of channels

	seenMu sync.Mutex
	seen   map[string][]domain.Element // last collection broadcast per document

	logger *slog.Logger
}

// NewStreamManager creates an empty manager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Message]struct{}),
		seen:        make(map[string][]domain.Element),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for documentID. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(documentID string) (<-chan Message, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Message, 16)
	if _, ok := sm.subscribers[documentID]; !ok {
		sm.subscribers[documentID] = make(map[chan<- Message]struct{})
	}
	sm.subscribers[documentID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[documentID]; ok {
				delete(subs, ch)
				close(ch)
				if len(subs) == 0 {
					delete(sm.subscribers, documentID)
				}
			}
		})
	}
}

// Subscribers reports how many streams are open for documentID.
func (sm *StreamManager) Subscribers(documentID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[documentID])
}

// Broadcast delivers msg to every subscriber of documentID. Slow clients
// whose buffer is full miss the message.
func (sm *StreamManager) Broadcast(documentID string, msg Message) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[documentID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "document_id", documentID, "event", msg.Event)
		}
	}
}

func (sm *StreamManager) broadcastJSON(documentID, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: failed to encode payload", "event", event, "err", err)
		return
	}
	sm.Broadcast(documentID, Message{Event: event, Data: string(data)})
}

// Prime records the collection a new subscriber starts from, so the first
// diff it receives is relative to what it was sent.
func (sm *StreamManager) Prime(documentID string, elements []domain.Element) {
	sm.seenMu.Lock()
	defer sm.seenMu.Unlock()
	sm.seen[documentID] = domain.CloneElements(elements)
}

// Forget drops the remembered collection of a deleted document.
func (sm *StreamManager) Forget(documentID string) {
	sm.seenMu.Lock()
	defer sm.seenMu.Unlock()
	delete(sm.seen, documentID)
}

// Hooks converts engine notifications into "diff", "edit" and "drag" events.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCollectionChanged: func(_ context.Context, e *domain.CollectionEvent) {
			sm.seenMu.Lock()
			diff := domain.DiffCollections(e.DocumentID, sm.seen[e.DocumentID], e.Elements)
			sm.seen[e.DocumentID] = domain.CloneElements(e.Elements)
			sm.seenMu.Unlock()

			if diff != nil {
				sm.broadcastJSON(e.DocumentID, "diff", diff)
			}
		},
		OnEditModeChanged: func(_ context.Context, e *domain.EditModeEvent) {
			sm.broadcastJSON(e.DocumentID, "edit", e)
		},
		OnDragChanged: func(_ context.Context, e *domain.DragEvent) {
			sm.broadcastJSON(e.DocumentID, "drag", e)
		},
	}
}
