package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/pagebuilder/internal/logging"
	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/ports"
	"github.com/aretw0/pagebuilder/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// maxEventBytes bounds a single event body.
const maxEventBytes = 1 << 20

// Server exposes a session.Manager over HTTP.
type Server struct {
	Manager *session.Manager
	Streams *StreamManager

	metrics http.Handler
	version string
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion is reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithStreams shares a StreamManager whose Hooks are already wired into the
// documents the manager creates.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewServer creates a Server. Documents only stream diffs if the manager's
// factory installs Streams.Hooks(); pass the same StreamManager via WithStreams.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		Manager: manager,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.ListDocuments)
		r.Post("/", s.CreateDocument)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetDocument)
			r.Delete("/", s.DeleteDocument)
			r.Get("/markdown", s.GetMarkdown)
			r.Post("/events", s.PostEvents)
			r.Post("/save", s.SaveDocument)
			r.Post("/load", s.LoadDocument)
			r.Get("/stream", s.Stream)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// DocumentResponse is the body of document reads and event posts.
type DocumentResponse struct {
	ID       string           `json:"id"`
	Elements []domain.Element `json:"elements"`
}

type createRequest struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "pagebuilder-http",
		"version": strings.TrimSpace(s.version),
	})
}

func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Manager.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"documents": ids})
}

// CreateDocument accepts an optional {"id": "..."}; a random id is generated otherwise.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxEventBytes)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.badRequest(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}
	id := strings.TrimSpace(body.ID)
	if id == "" {
		id = uuid.NewString()
	}
	if err := s.Manager.Create(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/documents/"+id)
	writeJSON(w, http.StatusCreated, DocumentResponse{ID: id, Elements: []domain.Element{}})
}

func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	elements, err := s.Manager.Elements(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{ID: id, Elements: elements})
}

func (s *Server) GetMarkdown(w http.ResponseWriter, r *http.Request) {
	elements, err := s.Manager.Elements(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	_, _ = io.WriteString(w, domain.RenderMarkdown(elements))
}

func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Manager.Delete(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Forget(id)
	s.Streams.Broadcast(id, Message{Event: "deleted", Data: id})
	w.WriteHeader(http.StatusNoContent)
}

// PostEvents applies one event object or an array of events, in order, and
// returns the resulting collection. Processing stops at the first failing event.
func (s *Server) PostEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	events, err := decodeEvents(io.LimitReader(r.Body, maxEventBytes))
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	var elements []domain.Element
	err = s.Manager.WithDocument(r.Context(), id, func(ctx context.Context, doc session.Document) error {
		for i, ev := range events {
			if err := doc.Dispatch(ctx, ev); err != nil {
				return fmt.Errorf("event %d (%s): %w", i, ev.Kind, err)
			}
		}
		elements = doc.Elements()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, DocumentResponse{ID: id, Elements: elements})
}

func (s *Server) SaveDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Manager.Save(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LoadDocument discards unsaved changes by reloading the stored snapshot.
func (s *Server) LoadDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Manager.Dispatch(r.Context(), id, domain.Event{Kind: domain.EventLoad}); err != nil {
		s.fail(w, r, err)
		return
	}
	s.GetDocument(w, r)
}

// Stream serves GET /documents/{id}/stream as server-sent events. The first
// "snapshot" event carries the full collection; "diff", "edit", "drag",
// "reload" and "deleted" follow as they happen.
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	id := chi.URLParam(r, "id")

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	elements, err := s.Manager.Elements(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Prime(id, elements)
	snapshot, err := json.Marshal(DocumentResponse{ID: id, Elements: elements})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	writeEvent(w, Message{Event: "snapshot", Data: string(snapshot)})
	flusher.Flush()
	s.logger.Info("SSE: subscribed", "document_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "document_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(w, msg)
			flusher.Flush()
		}
	}
}

// WatchStore reloads open documents when their snapshot changes underneath
// the server, e.g. edited by hand or by another process. It returns once ctx
// is done, or immediately if the store cannot be watched.
func (s *Server) WatchStore(ctx context.Context) error {
	w, ok := s.Manager.Store().(ports.Watchable)
	if !ok {
		return nil
	}
	changes, err := w.Watch(ctx)
	if err != nil {
		return err
	}
	for id := range changes {
		reloaded, err := s.Manager.Reload(ctx, id)
		if err != nil {
			s.logger.Warn("reload after external change failed", "document_id", id, "err", err)
			continue
		}
		if !reloaded {
			continue
		}
		s.Streams.Broadcast(id, Message{Event: "reload", Data: id})
	}
	return nil
}

func decodeEvents(body io.Reader) ([]domain.Event, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, errors.New("empty request body")
	}

	var events []domain.Event
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(data, &events)
	} else {
		var ev domain.Event
		err = json.Unmarshal(data, &ev)
		events = []domain.Event{ev}
	}
	if err != nil {
		return nil, fmt.Errorf("invalid event body: %w", err)
	}
	return events, nil
}

func writeEvent(w io.Writer, msg Message) {
	if msg.Event != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Event)
	}
	for _, line := range strings.Split(msg.Data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("rejected request", "path", r.URL.Path, "err", err)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

// fail maps domain errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrDocumentExists):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrUnknownEvent), errors.Is(err, domain.ErrUnknownElementType):
		status = http.StatusBadRequest
	case domain.IsDeserialization(err):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
