package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerResources() {
	// ── whiteboard://notebooks ─────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		"whiteboard://notebooks",
		"All Notebooks",
		mcp.WithMIMEType("application/json"),
	), s.handleNotebooksResource)

	// ── whiteboard://page/{pageId}/elements ────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"whiteboard://page/{pageId}/elements",
			"Drawing Elements on a Page",
		),
		s.handlePageElementsResource,
	)
}

func (s *Server) handleNotebooksResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	notebooks, err := s.notebooks.ListNotebooks()
	if err != nil {
		return nil, err
	}

	type notebookSummary struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	summaries := make([]notebookSummary, 0, len(notebooks))
	for _, n := range notebooks {
		summaries = append(summaries, notebookSummary{ID: n.ID, Name: n.Name})
	}

	data, _ := json.MarshalIndent(summaries, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "whiteboard://notebooks",
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handlePageElementsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	pageID := extractPageIDFromURI(uri)
	if pageID == "" {
		return nil, fmt.Errorf("could not extract pageId from URI: %s", uri)
	}

	elements, err := s.drawings.ListElements(pageID)
	if err != nil {
		return nil, err
	}

	data, _ := json.MarshalIndent(summarizeElements(elements), "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// extractPageIDFromURI extracts page ID from "whiteboard://page/{id}/elements"
func extractPageIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, "whiteboard://page/")
	if !ok {
		return ""
	}
	id, _, ok := strings.Cut(rest, "/")
	if !ok {
		return ""
	}
	return id
}
