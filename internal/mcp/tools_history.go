package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerHistoryTools() {
	s.mcp.AddTool(mcp.NewTool("undo_drawing",
		mcp.WithDescription("Undo the last drawing change on a page"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleUndoDrawing)

	s.mcp.AddTool(mcp.NewTool("redo_drawing",
		mcp.WithDescription("Redo the last undone drawing change on a page"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleRedoDrawing)

	s.mcp.AddTool(mcp.NewTool("export_drawing",
		mcp.WithDescription("Export the page drawing as a JSON element array"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
	), s.handleExportDrawing)

	s.mcp.AddTool(mcp.NewTool("import_drawing",
		mcp.WithDescription("Replace the page drawing with a JSON element array. Broken bindings are repaired."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("data", mcp.Description("JSON element array"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleImportDrawing)
}

func (s *Server) handleUndoDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.drawings.Undo(ctx, pageID); err != nil {
		return nil, err
	}
	return textResult("Undone"), nil
}

func (s *Server) handleRedoDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.drawings.Redo(ctx, pageID); err != nil {
		return nil, err
	}
	return textResult("Redone"), nil
}

func (s *Server) handleExportDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := s.resolvePageID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	data, err := s.drawings.ExportScene(pageID)
	if err != nil {
		return nil, err
	}
	return textResult(data), nil
}

func (s *Server) handleImportDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	data, err := requireString(args, "data")
	if err != nil {
		return nil, err
	}
	if err := s.drawings.ImportScene(ctx, pageID, data); err != nil {
		return nil, err
	}
	return textResult("Drawing imported"), nil
}
