package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by Hooks.
type Metrics struct {
	CollectionChanges *prometheus.CounterVec
	EditTransitions   *prometheus.CounterVec
	DragSessions      *prometheus.CounterVec
	CollectionSize    *prometheus.GaugeVec
	Elements          prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CollectionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagebuilder_collection_changes_total",
				Help: "Collection mutations by the input event that caused them",
			},
			[]string{"cause"},
		),
		EditTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagebuilder_edit_mode_changes_total",
				Help: "Edit mode notifications by whether the element is being edited",
			},
			[]string{"editing"},
		),
		DragSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pagebuilder_drag_sessions_total",
				Help: "Drag sessions started, by source",
			},
			[]string{"source"},
		),
		CollectionSize: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pagebuilder_document_elements",
				Help: "Number of elements in each open document",
			},
			[]string{"document_id"},
		),
		Elements: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pagebuilder_collection_size",
				Help:    "Collection size observed after each mutation",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.CollectionChanges, m.EditTransitions, m.DragSessions, m.CollectionSize, m.Elements)
	}
	return m
}

// Hooks records every notification.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCollectionChanged: func(_ context.Context, e *domain.CollectionEvent) {
			m.CollectionChanges.WithLabelValues(string(e.Cause)).Inc()
			m.CollectionSize.WithLabelValues(e.DocumentID).Set(float64(len(e.Elements)))
			m.Elements.Observe(float64(len(e.Elements)))
		},
		OnEditModeChanged: func(_ context.Context, e *domain.EditModeEvent) {
			m.EditTransitions.WithLabelValues(strconv.FormatBool(e.Editing)).Inc()
		},
		OnDragChanged: func(_ context.Context, e *domain.DragEvent) {
			if e.Session != nil {
				m.DragSessions.WithLabelValues(string(e.Session.Source)).Inc()
			}
		},
	}
}
