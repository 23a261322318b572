// Package testutils holds helpers shared by tests across packages.
package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/pagebuilder/pkg/domain"
)

// Epoch is the instant returned by FixedClock.
var Epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// FixedClock always reports Epoch.
func FixedClock() time.Time {
	return Epoch
}

// Recorder captures every notification delivered to its Hooks.
// Safe for concurrent use, so it can sit behind an HTTP server.
type Recorder struct {
	mu          sync.Mutex
	Collections []*domain.CollectionEvent
	Edits       []*domain.EditModeEvent
	Drags       []*domain.DragEvent
}

// Hooks returns callbacks appending to the recorder.
func (r *Recorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCollectionChanged: func(_ context.Context, e *domain.CollectionEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.Collections = append(r.Collections, e)
		},
		OnEditModeChanged: func(_ context.Context, e *domain.EditModeEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.Edits = append(r.Edits, e)
		},
		OnDragChanged: func(_ context.Context, e *domain.DragEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.Drags = append(r.Drags, e)
		},
	}
}

// LastCollection returns the most recent collection notification, or nil.
func (r *Recorder) LastCollection() *domain.CollectionEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Collections) == 0 {
		return nil
	}
	return r.Collections[len(r.Collections)-1]
}

// Causes lists the cause of every collection notification in order.
func (r *Recorder) Causes() []domain.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventKind, len(r.Collections))
	for i, e := range r.Collections {
		out[i] = e.Cause
	}
	return out
}
