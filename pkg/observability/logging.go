package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/pagebuilder/pkg/domain"
)

// LoggingHooks writes one structured record per notification at debug level.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCollectionChanged: func(ctx context.Context, e *domain.CollectionEvent) {
			logger.DebugContext(ctx, "collection_changed",
				"document_id", e.DocumentID,
				"cause", e.Cause,
				"elements", len(e.Elements),
			)
		},
		OnEditModeChanged: func(ctx context.Context, e *domain.EditModeEvent) {
			logger.DebugContext(ctx, "edit_mode_changed",
				"document_id", e.DocumentID,
				"element_id", e.ElementID,
				"editing", e.Editing,
			)
		},
		OnDragChanged: func(ctx context.Context, e *domain.DragEvent) {
			attrs := []any{"document_id", e.DocumentID, "dragging", e.Session != nil}
			if e.Session != nil {
				attrs = append(attrs, "source", e.Session.Source)
			}
			logger.DebugContext(ctx, "drag_changed", attrs...)
		},
	}
}
