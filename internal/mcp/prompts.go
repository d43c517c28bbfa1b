package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("system_diagram",
		mcp.WithPromptDescription("Create a system architecture diagram using drawing shapes and bound arrows"),
		mcp.WithArgument("systemName",
			mcp.ArgumentDescription("Name of the system to diagram"),
			mcp.RequiredArgument(),
		),
	), s.handleSystemDiagramPrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("tidy_diagram",
		mcp.WithPromptDescription("Rearrange an existing diagram without breaking its connections"),
	), s.handleTidyDiagramPrompt)
}

func (s *Server) handleSystemDiagramPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	systemName := req.Params.Arguments["systemName"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Create a system diagram for: %s", systemName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Create a system architecture diagram for "%s" using the drawing tools. Follow these steps:

1. Identify the main components of the system
2. Use add_drawing_element to create a rectangle for each component, with descriptive text
3. Use add_drawing_arrow to connect related components, showing data flow or dependencies
4. Use arrange_drawing_elements to lay the components out; bound arrows follow their shapes
5. Check list_drawing_elements: every arrow should have a startBinding and an endBinding

Use consistent colors: #3b82f6 for primary components, #10b981 for databases, #f59e0b for external services.`, systemName),
				},
			},
		},
	}, nil
}

func (s *Server) handleTidyDiagramPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Tidy the diagram on the active page",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: `Tidy the diagram on the active page:

1. Run repair_drawings for the page so bindings are consistent
2. Use list_drawing_elements to see shapes and the arrows bound to them
3. Move shapes with move_drawing_element or drag_drawing_elements, never by deleting and re-adding them, so arrows stay attached
4. If a move reports skipped endpoints, use move_linear_point or bind_arrow_endpoint to reattach them
5. Use undo_drawing if a step made things worse`,
				},
			},
		},
	}, nil
}
