package mcpserver

import (
	"context"
	"fmt"

	"whiteboard/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBindingTools() {
	s.mcp.AddTool(mcp.NewTool("bind_arrow_endpoint",
		mcp.WithDescription("Bind the start or end of a line or arrow to a shape. Without targetElementId the shape under the endpoint is used."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("arrowId", mcp.Description("Line or arrow element ID"), mcp.Required()),
		mcp.WithString("endpoint", mcp.Description("Which endpoint: 'start' or 'end'"), mcp.Required()),
		mcp.WithString("targetElementId", mcp.Description("Shape to bind to (optional)")),
	), s.handleBindArrowEndpoint)

	s.mcp.AddTool(mcp.NewTool("unbind_arrow_endpoint",
		mcp.WithDescription("Detach the start or end of a line or arrow from its shape"),
		mcp.WithString("pageId", mcp.Description("Page ID (optional, defaults to active page)")),
		mcp.WithString("arrowId", mcp.Description("Line or arrow element ID"), mcp.Required()),
		mcp.WithString("endpoint", mcp.Description("Which endpoint: 'start' or 'end'"), mcp.Required()),
	), s.handleUnbindArrowEndpoint)

	s.mcp.AddTool(mcp.NewTool("repair_drawings",
		mcp.WithDescription("Fix dangling or one-sided bindings. With pageId only that page is repaired, otherwise every page."),
		mcp.WithString("pageId", mcp.Description("Page ID (optional)")),
	), s.handleRepairDrawings)
}

func (s *Server) handleBindArrowEndpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	arrowID, err := requireString(args, "arrowId")
	if err != nil {
		return nil, err
	}
	end, err := requireString(args, "endpoint")
	if err != nil {
		return nil, err
	}
	target, err := s.drawings.BindEndpoint(ctx, pageID, arrowID, domain.Endpoint(end), req.GetString("targetElementId", ""))
	if err != nil {
		return nil, err
	}
	if target == nil {
		return textResult(fmt.Sprintf("No shape within reach of the %s of %s", end, arrowID)), nil
	}
	return textResult(fmt.Sprintf("Bound %s of %s to %s", end, arrowID, target.ID)), nil
}

func (s *Server) handleUnbindArrowEndpoint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	pageID, err := s.resolvePageID(args)
	if err != nil {
		return nil, err
	}
	arrowID, err := requireString(args, "arrowId")
	if err != nil {
		return nil, err
	}
	end, err := requireString(args, "endpoint")
	if err != nil {
		return nil, err
	}
	if err := s.drawings.UnbindEndpoint(ctx, pageID, arrowID, domain.Endpoint(end)); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Unbound %s of %s", end, arrowID)), nil
}

func (s *Server) handleRepairDrawings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if pageID := req.GetString("pageId", ""); pageID != "" {
		rep, err := s.drawings.Repair(ctx, pageID)
		if err != nil {
			return nil, err
		}
		return jsonResult(rep)
	}
	if s.janitor == nil {
		return nil, fmt.Errorf("pageId is required")
	}
	rep, err := s.janitor.RunOnce(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResult(rep)
}
