package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerNavigationTools() {
	// ── list_notebooks ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_notebooks",
		mcp.WithDescription("List all notebooks in the workspace"),
	), s.handleListNotebooks)

	// ── create_notebook ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_notebook",
		mcp.WithDescription("Create a new notebook"),
		mcp.WithString("name",
			mcp.Description("Name of the notebook"),
			mcp.Required(),
		),
	), s.handleCreateNotebook)

	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List all pages in a notebook"),
		mcp.WithString("notebookId",
			mcp.Description("ID of the notebook"),
			mcp.Required(),
		),
	), s.handleListPages)

	// ── create_page ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_page",
		mcp.WithDescription("Create a new page in a notebook"),
		mcp.WithString("notebookId",
			mcp.Description("ID of the notebook"),
			mcp.Required(),
		),
		mcp.WithString("name",
			mcp.Description("Name of the new page"),
			mcp.Required(),
		),
	), s.handleCreatePage)

	// ── set_active_page ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_page",
		mcp.WithDescription("Set the active page for subsequent tool calls. Tools that accept pageId will default to this."),
		mcp.WithString("pageId",
			mcp.Description("ID of the page to make active"),
			mcp.Required(),
		),
	), s.handleSetActivePage)

	// ── set_viewport ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_viewport",
		mcp.WithDescription("Set the page viewport. Zoom scales the distance within which arrow endpoints bind to shapes."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithNumber("x", mcp.Description("Viewport X")),
		mcp.WithNumber("y", mcp.Description("Viewport Y")),
		mcp.WithNumber("zoom", mcp.Description("Zoom factor, greater than 0"), mcp.Required()),
	), s.handleSetViewport)
}

func (s *Server) handleListNotebooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebooks, err := s.notebooks.ListNotebooks()
	if err != nil {
		return nil, fmt.Errorf("list notebooks: %w", err)
	}
	return jsonResult(notebooks)
}

func (s *Server) handleCreateNotebook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	nb, err := s.notebooks.CreateNotebook(name)
	if err != nil {
		return nil, fmt.Errorf("create notebook: %w", err)
	}
	return jsonResult(nb)
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebookID := req.GetString("notebookId", "")
	if notebookID == "" {
		return nil, fmt.Errorf("notebookId is required")
	}
	pages, err := s.notebooks.ListPages(notebookID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return jsonResult(pages)
}

func (s *Server) handleCreatePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebookID := req.GetString("notebookId", "")
	name := req.GetString("name", "")
	if notebookID == "" || name == "" {
		return nil, fmt.Errorf("notebookId and name are required")
	}
	page, err := s.notebooks.CreatePage(notebookID, name)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	// Auto-set as active page
	s.setActivePage(ctx, page.ID)
	return jsonResult(page)
}

func (s *Server) handleSetActivePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	if _, err := s.notebooks.GetPageState(pageID); err != nil {
		return nil, err
	}
	s.setActivePage(ctx, pageID)
	return textResult(fmt.Sprintf("Active page set to %s", pageID)), nil
}

func (s *Server) handleSetViewport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	zoom, err := requireNumber(args, "zoom")
	if err != nil {
		return nil, err
	}
	x, _ := number(args, "x")
	y, _ := number(args, "y")
	if err := s.notebooks.UpdateViewport(ctx, pageID, x, y, zoom); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Viewport of %s set to (%g, %g) at zoom %g", pageID, x, y, zoom)), nil
}
