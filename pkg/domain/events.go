package domain

import (
	"context"
	"time"
)

// EventKind names an input event delivered by the drag-capture or UI layer.
type EventKind string

const (
	EventDragStartPalette EventKind = "drag_start_palette"
	EventDragStartElement EventKind = "drag_start_element"
	EventDropCanvas       EventKind = "drop_canvas"
	EventDropElement      EventKind = "drop_element"
	EventDelete           EventKind = "delete"
	EventEditBegin        EventKind = "edit_begin"
	EventContentChanged   EventKind = "content_changed"
	EventEditCommit       EventKind = "edit_commit"
	EventKeyPress         EventKind = "key_press"
	EventBlur             EventKind = "blur"
	EventSave             EventKind = "save"
	EventLoad             EventKind = "load"
)

// Event is a discrete input event. Only the fields relevant to Kind are read.
type Event struct {
	Kind     EventKind   `json:"kind" yaml:"kind" mapstructure:"kind"`
	Type     ElementType `json:"type,omitempty" yaml:"type,omitempty" mapstructure:"type"`
	ID       int         `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	TargetID int         `json:"target_id,omitempty" yaml:"target_id,omitempty" mapstructure:"target_id"`
	Text     string      `json:"text,omitempty" yaml:"text,omitempty" mapstructure:"text"`
	Key      string      `json:"key,omitempty" yaml:"key,omitempty" mapstructure:"key"`
	Shift    bool        `json:"shift,omitempty" yaml:"shift,omitempty" mapstructure:"shift"`
}

// NotificationType defines the category of an output notification.
type NotificationType string

const (
	NotifyCollectionChanged NotificationType = "collection_changed"
	NotifyEditModeChanged   NotificationType = "edit_mode_changed"
	NotifyDragChanged       NotificationType = "drag_changed"
)

// NotificationBase contains common fields for all notifications.
type NotificationBase struct {
	Timestamp  time.Time        `json:"timestamp"`
	Type       NotificationType `json:"type"`
	DocumentID string           `json:"document_id,omitempty"`
}

// CollectionEvent carries the new ordered collection after a mutation.
type CollectionEvent struct {
	NotificationBase
	Cause    EventKind `json:"cause"`
	Elements []Element `json:"elements"`
}

// EditModeEvent is emitted when an element enters or leaves edit mode,
// or when its working text changes.
type EditModeEvent struct {
	NotificationBase
	ElementID int    `json:"element_id"`
	Editing   bool   `json:"editing"`
	Working   string `json:"working"`
}

// DragEvent is emitted when a drag session starts or is consumed.
type DragEvent struct {
	NotificationBase
	Session *DragSession `json:"session,omitempty"`
}

// LifecycleHooks defines callbacks for the render layer and for observability.
type LifecycleHooks struct {
	OnCollectionChanged func(context.Context, *CollectionEvent)
	OnEditModeChanged   func(context.Context, *EditModeEvent)
	OnDragChanged       func(context.Context, *DragEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnCollectionChanged: chain(h.OnCollectionChanged, other.OnCollectionChanged),
		OnEditModeChanged:   chain(h.OnEditModeChanged, other.OnEditModeChanged),
		OnDragChanged:       chain(h.OnDragChanged, other.OnDragChanged),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
