package mcp

import (
	"context"
	"fmt"
	"math"
	"reflect"

	"github.com/aretw0/pagebuilder/pkg/domain"
	"github.com/aretw0/pagebuilder/pkg/session"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"
)

func boolPtr(v bool) *bool { return &v }

func documentArg() mcp.ToolOption {
	return mcp.WithString("document_id", mcp.Required(), mcp.Description("Document ID"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the ids of all stored documents"),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListDocuments)

	s.mcpServer.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create an empty document. A random id is generated when none is given."),
		mcp.WithString("document_id", mcp.Description("Document ID (optional)")),
	), s.handleCreateDocument)

	s.mcpServer.AddTool(mcp.NewTool("list_elements",
		mcp.WithDescription("List the elements of a document in display order, including unsaved changes"),
		documentArg(),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleListElements)

	s.mcpServer.AddTool(mcp.NewTool("insert_element",
		mcp.WithDescription("Append a new element with placeholder content, as if dragged from the palette onto the canvas"),
		documentArg(),
		mcp.WithString("type", mcp.Required(), mcp.Description("Element type"),
			mcp.Enum(typeNames()...)),
	), s.handleInsertElement)

	s.mcpServer.AddTool(mcp.NewTool("move_element",
		mcp.WithDescription("Move an element so it sits where the target element is, as if dragged onto it"),
		documentArg(),
		mcp.WithNumber("source_id", mcp.Required(), mcp.Description("ID of the element to move")),
		mcp.WithNumber("target_id", mcp.Required(), mcp.Description("ID of the element it is dropped on")),
	), s.handleMoveElement)

	s.mcpServer.AddTool(mcp.NewTool("edit_element",
		mcp.WithDescription("Replace the text content of an element. For List elements put one item per line."),
		documentArg(),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Element ID")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New content")),
	), s.handleEditElement)

	s.mcpServer.AddTool(mcp.NewTool("delete_element",
		mcp.WithDescription("Remove an element from a document"),
		documentArg(),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Element ID")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteElement)

	s.mcpServer.AddTool(mcp.NewTool("dispatch_event",
		mcp.WithDescription("Apply one raw input event (drag_start_palette, drop_canvas, edit_begin, key_press, ...) to a document"),
		documentArg(),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Event kind")),
		mcp.WithString("type", mcp.Description("Element type for drag_start_palette")),
		mcp.WithNumber("id", mcp.Description("Element ID the event refers to")),
		mcp.WithNumber("target_id", mcp.Description("Drop target element ID")),
		mcp.WithString("text", mcp.Description("Working text for content_changed")),
		mcp.WithString("key", mcp.Description("Key name for key_press")),
		mcp.WithBoolean("shift", mcp.Description("Shift held for key_press")),
	), s.handleDispatchEvent)

	s.mcpServer.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Persist the document's current elements"),
		documentArg(),
	), s.handleSaveDocument)

	s.mcpServer.AddTool(mcp.NewTool("load_document",
		mcp.WithDescription("Discard unsaved changes and reload the document from storage"),
		documentArg(),
	), s.handleLoadDocument)

	s.mcpServer.AddTool(mcp.NewTool("delete_document",
		mcp.WithDescription("Delete a document from storage"),
		documentArg(),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteDocument)

	s.mcpServer.AddTool(mcp.NewTool("render_markdown",
		mcp.WithDescription("Render a document as Markdown"),
		documentArg(),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{ReadOnlyHint: boolPtr(true)}),
	), s.handleRenderMarkdown)
}

func typeNames() []string {
	names := make([]string, len(domain.ElementTypes))
	for i, t := range domain.ElementTypes {
		names[i] = string(t)
	}
	return names
}

// toolArgs is the common shape of element tool arguments.
type toolArgs struct {
	DocumentID string `mapstructure:"document_id"`
	Type       string `mapstructure:"type"`
	ID         int    `mapstructure:"id"`
	SourceID   int    `mapstructure:"source_id"`
	TargetID   int    `mapstructure:"target_id"`
	Content    string `mapstructure:"content"`
}

// integralNumbers narrows JSON numbers to int fields, rejecting fractions.
func integralNumbers(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Int {
		return data, nil
	}
	var f float64
	switch from.Kind() {
	case reflect.Float64:
		f = data.(float64)
	case reflect.Float32:
		f = float64(data.(float32))
	default:
		return data, nil
	}
	if math.Trunc(f) != f || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%v is not an integer", data)
	}
	return int(f), nil
}

// decodeArgs maps JSON tool arguments onto out. Numbers arrive as float64 and
// are narrowed to int when they hold a whole value.
func decodeArgs(req mcp.CallToolRequest, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.DecodeHookFuncType(integralNumbers),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(req.GetArguments()); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func (s *Server) args(req mcp.CallToolRequest) (toolArgs, error) {
	var a toolArgs
	if err := decodeArgs(req, &a); err != nil {
		return a, err
	}
	if a.DocumentID == "" && req.Params.Name != "create_document" {
		return a, fmt.Errorf("document_id is required")
	}
	return a, nil
}

// apply dispatches events atomically and returns the resulting collection.
func (s *Server) apply(ctx context.Context, documentID string, events ...domain.Event) (*mcp.CallToolResult, error) {
	var elements []domain.Element
	err := s.manager.WithDocument(ctx, documentID, func(ctx context.Context, doc session.Document) error {
		for _, ev := range events {
			if err := doc.Dispatch(ctx, ev); err != nil {
				return err
			}
		}
		elements = doc.Elements()
		return nil
	})
	if err != nil {
		return toolError(err)
	}
	return jsonResult(elements)
}

func (s *Server) handleListDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.manager.List(ctx)
	if err != nil {
		return toolError(err)
	}
	if ids == nil {
		ids = []string{}
	}
	return jsonResult(ids)
}

func (s *Server) handleCreateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	if a.DocumentID == "" {
		a.DocumentID = uuid.NewString()
	}
	if err := s.manager.Create(ctx, a.DocumentID); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(a.DocumentID), nil
}

func (s *Server) handleListElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	elements, err := s.manager.Elements(ctx, a.DocumentID)
	if err != nil {
		return toolError(err)
	}
	return jsonResult(elements)
}

func (s *Server) handleInsertElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	return s.apply(ctx, a.DocumentID,
		domain.Event{Kind: domain.EventDragStartPalette, Type: domain.ElementType(a.Type)},
		domain.Event{Kind: domain.EventDropCanvas},
	)
}

func (s *Server) handleMoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	return s.apply(ctx, a.DocumentID,
		domain.Event{Kind: domain.EventDragStartElement, ID: a.SourceID},
		domain.Event{Kind: domain.EventDropElement, TargetID: a.TargetID},
	)
}

func (s *Server) handleEditElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	return s.apply(ctx, a.DocumentID,
		domain.Event{Kind: domain.EventEditBegin, ID: a.ID},
		domain.Event{Kind: domain.EventContentChanged, ID: a.ID, Text: a.Content},
		domain.Event{Kind: domain.EventEditCommit, ID: a.ID},
	)
}

func (s *Server) handleDeleteElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	return s.apply(ctx, a.DocumentID, domain.Event{Kind: domain.EventDelete, ID: a.ID})
}

func (s *Server) handleDispatchEvent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	var ev domain.Event
	if err := decodeArgs(req, &ev); err != nil {
		return toolError(err)
	}
	return s.apply(ctx, a.DocumentID, ev)
}

func (s *Server) handleSaveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	if err := s.manager.Save(ctx, a.DocumentID); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Document %s saved", a.DocumentID)), nil
}

func (s *Server) handleLoadDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	return s.apply(ctx, a.DocumentID, domain.Event{Kind: domain.EventLoad})
}

func (s *Server) handleDeleteDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	if err := s.manager.Delete(ctx, a.DocumentID); err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Document %s deleted", a.DocumentID)), nil
}

func (s *Server) handleRenderMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	a, err := s.args(req)
	if err != nil {
		return toolError(err)
	}
	elements, err := s.manager.Elements(ctx, a.DocumentID)
	if err != nil {
		return toolError(err)
	}
	return mcp.NewToolResultText(domain.RenderMarkdown(elements)), nil
}
