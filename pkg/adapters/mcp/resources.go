package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const documentURIPrefix = "pagebuilder://documents/"

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			documentURIPrefix+"{id}",
			"Document elements",
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleDocumentResource,
	)
}

func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, documentURIPrefix)
	if id == "" || id == uri {
		return nil, fmt.Errorf("could not extract document id from URI: %s", uri)
	}

	elements, err := s.manager.Elements(ctx, id)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(elements, "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
